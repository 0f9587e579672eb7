// This file is part of brainthread - https://github.com/db47h/brainthread
//
// Copyright 2016 Denis Bernard <db047h@gmail.com>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package vm_test

import (
	"bytes"
	"io"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/db47h/brainthread/compiler"
	"github.com/db47h/brainthread/diag"
	"github.com/db47h/brainthread/vm"
	"github.com/pkg/errors"
)

func assertEqual(t *testing.T, name, expected, got string) {
	t.Helper()
	if expected != got {
		t.Errorf("%v:\nExpected: %v\nGot: %v", name, expected, got)
	}
}

func assertEqualI(t *testing.T, name string, expected, got int) {
	t.Helper()
	if expected != got {
		t.Errorf("%v:\nExpected: %v\nGot: %v", name, expected, got)
	}
}

func compile(t *testing.T, code string, debug bool) vm.Tape {
	t.Helper()
	var c diag.Collector
	tape, ok := compiler.Compile([]byte(code),
		compiler.WithDialect(compiler.BrainThread),
		compiler.Debug(debug),
		compiler.Diagnostics(&c))
	if !ok {
		t.Fatalf("%q: compilation failed: %v", code, c.Messages())
	}
	return tape
}

// run runs code with the given input and returns the output.
func run(t *testing.T, code, input string, opts ...vm.Option) (string, *vm.Interpreter, *diag.Collector) {
	t.Helper()
	var out bytes.Buffer
	c := new(diag.Collector)
	opts = append([]vm.Option{
		vm.InputReader(strings.NewReader(input)),
		vm.OutputWriter(&out),
		vm.Diagnostics(c),
	}, opts...)
	i, err := vm.New(compile(t, code, false), opts...)
	if err != nil {
		t.Fatalf("%q: %+v", code, err)
	}
	if err = i.Run(); err != nil {
		t.Fatalf("%q: %+v", code, err)
	}
	return out.String(), i, c
}

func sorted(s string) string {
	b := []byte(s)
	sort.Slice(b, func(i, j int) bool { return b[i] < b[j] })
	return string(b)
}

var tests = [...]struct {
	name   string
	code   string
	input  string
	output string
	opts   []vm.Option
}{
	{"hello", "++++++++[>++++++++<-]>+.", "", "A", nil},
	{"echo", ",[.,]", "abc", "abc", nil},
	{"decimal", "?+=", "41", "42", nil},
	{"decimal i32", "?=", "-70000", "-70000", []vm.Option{vm.Width(vm.I32)}},
	{"function", "+(+++=):", "", "4", nil},
	{"function twice", "+(+=-)::", "", "22", nil},
	{"heap", "+++&>^=", "", "3", nil},
	{"heap swap", "+&+&~^=>^=", "", "12", nil},
	{"pop empty", "+++^=", "", "0", nil},
	{"wrap u8", "-=", "", "255", nil},
	{"wrap i8", "-=", "", "-1", []vm.Option{vm.Width(vm.I8)}},
	{"wrap u16", "-=", "", "65535", []vm.Option{vm.Width(vm.U16)}},
	{"eof zero", "+++,=", "", "0", nil},
	{"eof minus one", ",=", "", "255", []vm.Option{vm.EOF(vm.EOFMinusOne)}},
	{"eof unchanged", "+++,=", "", "3", []vm.Option{vm.EOF(vm.EOFUnchanged)}},
	{"terminate", "+=!+=", "", "1", nil},
	{"dynamic", ">>>>>+=", "", "1", []vm.Option{vm.MemorySize(2), vm.MemoryBehavior(vm.Dynamic)}},
	{"wrapping", "<+=>>>=", "", "11", []vm.Option{vm.MemorySize(3), vm.MemoryBehavior(vm.Wrapping)}},
	{"join without children", "+}=", "", "1", nil},
}

func TestRun(t *testing.T) {
	for _, test := range tests {
		out, i, c := run(t, test.code, test.input, test.opts...)
		assertEqual(t, test.name, test.output, out)
		if i.Faults() != 0 || len(c.Messages()) != 0 {
			t.Errorf("%s: unexpected faults: %v", test.name, c.Messages())
		}
		assertEqualI(t, test.name+" processes", 1, i.Processes())
	}
}

func TestRun_faults(t *testing.T) {
	data := []struct {
		name string
		code string
		in   string
		want diag.Code
		pc   int
		opts []vm.Option
	}{
		{"left bound", "+<", "", diag.RangeExceeded, 1, nil},
		{"right bound", ">>>", "", diag.RangeExceeded, 1, []vm.Option{vm.MemorySize(2)}},
		{"dynamic left bound", "<", "", diag.RangeExceeded, 0, []vm.Option{vm.MemoryBehavior(vm.Dynamic)}},
		{"undefined function", "+:", "", diag.UndefinedFunction, 1, nil},
		{"duplicate function", "+(-)(-)", "", diag.DuplicateFunction, 4, nil},
		{"call stack", "+(:):", "", diag.CallStackOverflow, 2, []vm.Option{vm.CallDepth(10)}},
		{"heap overflow", "+[&]", "", diag.HeapOverflow, 2, []vm.Option{vm.HeapSize(4)}},
		{"shared heap overflow", "+[*&]", "", diag.HeapOverflow, 3, []vm.Option{vm.HeapSize(4)}},
		{"format", "?", "abc", diag.InvalidFormat, 0, nil},
	}
	for _, d := range data {
		_, i, c := run(t, d.code, d.in, d.opts...)
		msgs := c.Messages()
		if len(msgs) != 1 {
			t.Errorf("%s: got %v, expected a single %v", d.name, msgs, d.want)
			continue
		}
		if msgs[0].Code != d.want || msgs[0].Pos != d.pc {
			t.Errorf("%s: got %v, expected %v @%d", d.name, msgs[0], d.want, d.pc)
		}
		assertEqualI(t, d.name+" faults", 1, i.Faults())
	}
}

func TestRun_unknownOpcode(t *testing.T) {
	var c diag.Collector
	i, err := vm.New(vm.Tape{vm.Ins(vm.OpInc), vm.Ins(vm.Op(200))}, vm.Diagnostics(&c))
	if err != nil {
		t.Fatal(err)
	}
	if err = i.Run(); err != nil {
		t.Fatal(err)
	}
	if msgs := c.Messages(); len(msgs) != 1 || msgs[0].Code != diag.UnknownFault || msgs[0].Pos != 1 {
		t.Fatalf("got %v", msgs)
	}
}

func TestNew_errors(t *testing.T) {
	if _, err := vm.New(vm.Tape{vm.Ins(vm.OpLoopBegin)}); err == nil {
		t.Error("expected error on unlinked tape")
	}
	if _, err := vm.New(nil, vm.MemorySize(0)); err == nil {
		t.Error("expected error on invalid memory size")
	}
	if _, err := vm.New(nil, vm.Width(vm.CellWidth(42))); err == nil {
		t.Error("expected error on invalid cell width")
	}
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestRun_outputFailure(t *testing.T) {
	var c diag.Collector
	i, err := vm.New(compile(t, "+++.", false), vm.OutputWriter(failWriter{}), vm.Diagnostics(&c))
	if err != nil {
		t.Fatal(err)
	}
	if err = i.Run(); err != nil {
		t.Fatal(err)
	}
	if !c.Has(diag.StreamFailure) {
		t.Fatalf("got %v", c.Messages())
	}
}

func TestFork(t *testing.T) {
	out, i, c := run(t, "+{=}", "")
	assertEqual(t, "fork output", "01", sorted(out))
	assertEqualI(t, "processes", 2, i.Processes())
	if len(c.Messages()) != 0 {
		t.Errorf("unexpected messages %v", c.Messages())
	}
}

// After a fork, the child's cursor is one cell to the right of the parent's,
// on a cell set to 1, and the parent's cell is 0.
func TestFork_marker(t *testing.T) {
	var dump bytes.Buffer
	i, err := vm.New(compile(t, ">+{#}", true), vm.DebugOutput(&dump))
	if err != nil {
		t.Fatal(err)
	}
	if err = i.Run(); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(dump.String()), "\n")
	sort.Strings(lines)
	assertEqual(t, "dump", "proc 1 @3 mem[0..9] 0 [0] 0 0 0 0 0 0 0 0\n"+
		"proc 2 @3 mem[0..10] 0 0 [1] 0 0 0 0 0 0 0 0",
		strings.Join(lines, "\n"))
}

// Values pushed concurrently on the shared heap by forked processes are all
// popped back by the parent after a join.
func TestFork_sharedHeap(t *testing.T) {
	code := "+++++[>{[<<*&!]<-]}" + strings.Repeat("*^=", 5)
	for n := 0; n < 20; n++ {
		out, i, c := run(t, code, "")
		assertEqual(t, "shared heap", "12345", sorted(out))
		assertEqualI(t, "processes", 6, i.Processes())
		if len(c.Messages()) != 0 {
			t.Fatalf("unexpected messages %v", c.Messages())
		}
	}
}

func TestFork_nested(t *testing.T) {
	// each process forks once more before joining
	out, i, _ := run(t, "+{>+{=}}", "")
	assertEqualI(t, "processes", 4, i.Processes())
	assertEqualI(t, "output length", 4, len(out))
}

func TestFork_limit(t *testing.T) {
	pr, pw := io.Pipe()
	var c diag.Collector
	sink := diag.SinkFunc(func(m diag.Message) {
		c.Report(m)
		if m.Code == diag.ForkFailure {
			pw.Close()
		}
	})
	i, err := vm.New(compile(t, "{[,!]{", false),
		vm.InputReader(pr),
		vm.MaxThreads(1),
		vm.Diagnostics(sink))
	if err != nil {
		t.Fatal(err)
	}
	if err = i.Run(); err != nil {
		t.Fatal(err)
	}
	msgs := c.Messages()
	if len(msgs) != 1 || msgs[0].Code != diag.ForkFailure || msgs[0].Pos != 5 {
		t.Fatalf("got %v", msgs)
	}
	assertEqualI(t, "processes", 2, i.Processes())
	assertEqualI(t, "faults", 1, i.Faults())
}

// A fault in a forked process terminates that process only.
func TestFork_childFault(t *testing.T) {
	data := []struct {
		name string
		code string
		in   string
		want diag.Code
		pc   int
	}{
		{"range", "+{[<<]}+=", "", diag.RangeExceeded, 4},
		{"format", "+{[?]}+=", "x", diag.InvalidFormat, 3},
	}
	for _, d := range data {
		out, i, c := run(t, d.code, d.in)
		assertEqual(t, d.name+" parent output", "1", out)
		msgs := c.Messages()
		if len(msgs) != 1 {
			t.Errorf("%s: got %v, expected a single %v", d.name, msgs, d.want)
			continue
		}
		if msgs[0].Code != d.want || msgs[0].Pos != d.pc || !strings.HasPrefix(msgs[0].Text, "process 2: ") {
			t.Errorf("%s: got %v, expected %v @%d from process 2", d.name, msgs[0], d.want, d.pc)
		}
		assertEqualI(t, d.name+" faults", 1, i.Faults())
		assertEqualI(t, d.name+" processes", 2, i.Processes())
	}
}

func TestRun_faultText(t *testing.T) {
	data := []struct {
		name string
		code string
		in   string
		want string
		opts []vm.Option
	}{
		{"format", "?", "abc", "process 1: decimal read: expected an integer", nil},
		{"fork cursor", "{", "", "process 1: cursor moved to cell 1 of 1: invalid argument", []vm.Option{vm.MemorySize(1)}},
	}
	for _, d := range data {
		_, _, c := run(t, d.code, d.in, d.opts...)
		msgs := c.Messages()
		if len(msgs) != 1 {
			t.Errorf("%s: got %v", d.name, msgs)
			continue
		}
		assertEqual(t, d.name, d.want, msgs[0].Text)
	}
}

// waitLive polls i.Live until cond returns true.
func waitLive(t *testing.T, i *vm.Interpreter, cond func(ps []vm.Proc) bool) []vm.Proc {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		ps := i.Live()
		if cond(ps) {
			return ps
		}
		if time.Now().After(deadline) {
			t.Fatalf("timeout, live processes: %d", len(ps))
		}
		time.Sleep(time.Millisecond)
	}
}

func TestInterpreter_Live(t *testing.T) {
	pr, pw := io.Pipe()
	i, err := vm.New(compile(t, "{[,!]}", false), vm.InputReader(pr))
	if err != nil {
		t.Fatal(err)
	}
	if i.Live() != nil {
		t.Fatal("live processes before run")
	}
	done := make(chan error)
	go func() { done <- i.Run() }()

	ps := waitLive(t, i, func(ps []vm.Proc) bool {
		return len(ps) == 2 && ps[0].State() == vm.Joining
	})
	if ps[0].ID() != 1 || ps[1].ID() != 2 || ps[1].State() != vm.Running {
		t.Errorf("got %d:%v %d:%v", ps[0].ID(), ps[0].State(), ps[1].ID(), ps[1].State())
	}
	pw.Write([]byte("a"))
	pw.Close()
	if err = <-done; err != nil {
		t.Fatal(err)
	}
	assertEqualI(t, "live after run", 0, len(i.Live()))
}

// A fork inside a function call leaves the forking process in the Calling
// state.
func TestFork_inCall(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	i, err := vm.New(compile(t, "+({[!],):", false), vm.InputReader(pr))
	if err != nil {
		t.Fatal(err)
	}
	done := make(chan error)
	go func() { done <- i.Run() }()

	// the parent blocks on input after the fork, the child terminates.
	waitLive(t, i, func(ps []vm.Proc) bool {
		return len(ps) == 1 && ps[0].ID() == 1 && i.Processes() == 2 && ps[0].State() == vm.Calling
	})
	pw.Close()
	if err = <-done; err != nil {
		t.Fatal(err)
	}
	assertEqualI(t, "faults", 0, i.Faults())
}
