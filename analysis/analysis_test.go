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

package analysis_test

import (
	"strings"
	"testing"

	"github.com/db47h/brainthread/analysis"
	"github.com/db47h/brainthread/compiler"
	"github.com/db47h/brainthread/diag"
	"github.com/db47h/brainthread/vm"
)

func ops(t vm.Tape) string {
	s := make([]string, len(t))
	for i, ins := range t {
		s[i] = ins.String()
	}
	return strings.Join(s, "|")
}

func compile(t *testing.T, code string, level compiler.Level) vm.Tape {
	t.Helper()
	var c diag.Collector
	tape, ok := compiler.Compile([]byte(code),
		compiler.WithDialect(compiler.BrainThread),
		compiler.Optimize(level),
		compiler.Diagnostics(&c))
	if !ok {
		t.Fatalf("%q: compilation failed: %v", code, c.Messages())
	}
	return tape
}

var tests = [...]struct {
	name    string
	code    string
	level   compiler.Level
	codes   []diag.Code
	tape    string // after repair
	repairs int
}{
	{"infinite loop", "+[]+", compiler.None, []diag.Code{diag.InfiniteLoop}, "+|+", 1},
	{"infinite loop relink", "[]+[-]", compiler.None, []diag.Code{diag.InfiniteLoop, diag.RedundantLoopArith}, "+|[ -> 3|-|] -> 1", 1},
	{"empty loop", "[[-]]", compiler.None, []diag.Code{diag.EmptyLoop, diag.DeadLoop}, "[ -> 2|-|] -> 0", 1},
	{"empty function", "+()+", compiler.None, []diag.Code{diag.EmptyFunction}, "+|+", 1},
	{"nested function", "((-)):", compiler.None, []diag.Code{diag.NestedFunction}, "( -> 4|( -> 3|-|) -> 1|) -> 0|:", 0},
	{"redefinition", "(-)(+):", compiler.None, []diag.Code{diag.FunctionRedefinition}, "( -> 2|-|) -> 0|( -> 5|+|) -> 3|:", 0},
	{"function in loop", "+[(-)-]:", compiler.None, []diag.Code{diag.FunctionInLoop}, "+|[ -> 6|( -> 4|-|) -> 2|-|] -> 1|:", 0},
	{"recursion", "+(.:)", compiler.None, []diag.Code{diag.InfiniteRecursion}, "+|( -> 4|.|:|) -> 1", 0},
	{"call before definition", "+:(-)", compiler.None, []diag.Code{diag.CallBeforeDefinition}, "+|:|( -> 4|-|) -> 2", 0},
	{"uncalled function", "+(-)", compiler.None, []diag.Code{diag.UncalledFunction}, "+|( -> 3|-|) -> 1", 0},
	{"dead join", "+}", compiler.None, []diag.Code{diag.DeadJoin}, "+", 1},
	{"repeated join", "{}}", compiler.None, []diag.Code{diag.RepeatedThreadOp}, "fork|join", 1},
	{"repeated end", "+!!", compiler.None, []diag.Code{diag.RepeatedThreadOp}, "+|end", 1},
	{"arith before fork", "+{}", compiler.None, []diag.Code{diag.IneffectiveForkArith}, "fork|join", 1},
	{"repeated switch", "**&", compiler.None, []diag.Code{diag.RepeatedSharedSwitch}, "shared|spush -> 0", 1},
	{"unused switch", "*+", compiler.None, []diag.Code{diag.UnusedSharedSwitch}, "+", 1},
	{"crossed switch", "+*[&-]", compiler.None, []diag.Code{diag.SharedScopeCrossed}, "+|shared|[ -> 5|spush -> 1|-|] -> 2", 0},
	{"slow loop", "+[>+<+]", compiler.None, []diag.Code{diag.SlowLoop}, "+|[ -> 6|>|+|<|+|] -> 1", 0},
	{"arith before clear", "+[-]", compiler.None, []diag.Code{diag.RedundantLoopArith}, "+|[ -> 3|-|] -> 1", 0},
	{"arith before zero", "+[-]", compiler.Full, []diag.Code{diag.RedundantLoopArith}, "+|zero", 0},
	{"dead loop", ".[-][.]", compiler.None, []diag.Code{diag.DeadLoop}, ".|[ -> 3|-|] -> 1|[ -> 6|.|] -> 4", 0},
	{"redundant arith", "++--", compiler.None, []diag.Code{diag.RedundantArith}, "", 1},
	{"redundant arith partial", "+-+", compiler.None, []diag.Code{diag.RedundantArith}, "+", 1},
	{"redundant arith reps", "+++--", compiler.Peephole, []diag.Code{diag.RedundantArith}, "+", 1},
	{"redundant move", "><>.", compiler.None, []diag.Code{diag.RedundantMove}, ">|.", 1},
	{"cascade", ".[+-]", compiler.None, []diag.Code{diag.RedundantArith, diag.SlowLoop}, ".", 2},
	{"join without fork", "(}):", compiler.None, []diag.Code{diag.JoinWithoutFork}, "( -> 2|join|) -> 0|:", 0},
}

func TestAnalyse(t *testing.T) {
	for _, test := range tests {
		// analyse only
		tape := compile(t, test.code, test.level)
		before := ops(tape)
		var c diag.Collector
		r := analysis.Analyse(&tape, false, analysis.Diagnostics(&c))
		if !r.Valid {
			t.Errorf("%s: invalid tape after analysis: %v", test.name, c.Messages())
		}
		if r.Repairs != 0 || ops(tape) != before {
			t.Errorf("%s: tape modified without repair", test.name)
		}
		for _, code := range test.codes {
			if !c.Has(code) {
				t.Errorf("%s: expected %v, got %v", test.name, code, c.Messages())
			}
		}
		if r.Warnings != c.Count(diag.Warning) || r.Errors != c.Count(diag.Error) {
			t.Errorf("%s: report %+v does not match messages %v", test.name, r, c.Messages())
		}

		// repair
		tape = compile(t, test.code, test.level)
		c.Drain()
		r = analysis.Analyse(&tape, true, analysis.Diagnostics(&c))
		if !r.Valid {
			t.Errorf("%s: invalid tape after repair: %v", test.name, c.Messages())
		}
		if r.Repairs != test.repairs {
			t.Errorf("%s: got %d repairs, expected %d", test.name, r.Repairs, test.repairs)
		}
		if got := ops(tape); got != test.tape {
			t.Errorf("%s: repaired tape:\nExpected: %v\nGot: %v", test.name, test.tape, got)
		}
		if pos, err := tape.CheckLinks(); err != nil {
			t.Errorf("%s: broken links at %d: %v", test.name, pos, err)
		}
		if (test.repairs > 0) != c.Has(diag.Repaired) {
			t.Errorf("%s: repaired message mismatch: %v", test.name, c.Messages())
		}
	}
}

// Reports must not repeat when the analyser rescans a position after a
// repair.
func TestAnalyse_noDuplicates(t *testing.T) {
	tape := compile(t, "[+-.]", compiler.None)
	var c diag.Collector
	r := analysis.Analyse(&tape, true, analysis.Diagnostics(&c))
	if r.Repairs != 1 {
		t.Fatalf("got %d repairs, expected 1", r.Repairs)
	}
	n := map[diag.Code]int{}
	for _, m := range c.Messages() {
		n[m.Code]++
	}
	if n[diag.DeadLoop] != 1 || n[diag.SlowLoop] != 1 {
		t.Errorf("duplicate messages: %v", c.Messages())
	}
}

func TestAnalyse_integrity(t *testing.T) {
	tape := vm.Tape{vm.Ins(vm.OpInc), vm.Ins(vm.OpLoopBegin)}
	var c diag.Collector
	r := analysis.Analyse(&tape, true, analysis.Diagnostics(&c))
	if r.Valid || r.Errors != 1 || !c.Has(diag.IntegrityLoss) {
		t.Errorf("got %+v, %v", r, c.Messages())
	}
}

func TestAnalyse_staleSharedLink(t *testing.T) {
	tape := vm.Tape{vm.Ins(vm.OpInc), {Op: vm.OpSharedPush, Jump: 0, Reps: 1}}
	var c diag.Collector
	r := analysis.Analyse(&tape, false, analysis.Diagnostics(&c))
	if !c.Has(diag.StaleSharedLink) || tape[1].Jump != 0 {
		t.Fatalf("got %+v, %v", r, c.Messages())
	}
	r = analysis.Analyse(&tape, true)
	if r.Repairs != 1 || tape[1].Jump != vm.NoJump {
		t.Fatalf("stale link not cleared: %+v, %v", r, tape)
	}
}

func TestAnalyse_tooManyFunctions(t *testing.T) {
	tape := compile(t, "+(-)+(-)+(-):", compiler.None)
	var c diag.Collector
	analysis.Analyse(&tape, false, analysis.Diagnostics(&c), analysis.FunctionIDs(2))
	if !c.Has(diag.TooManyFunctions) {
		t.Errorf("expected too many functions warning: %v", c.Messages())
	}
}

func TestAnalyse_uncalledFunctions(t *testing.T) {
	data := []struct {
		code string
		pos  []int
	}{
		{"+(-)>++(-)<:>+++(-)", []int{16}},
		{"+(-)>++(-)", []int{1, 7}},
		{"+(-):", nil},
		{"+[(-)>]+:", nil},
	}
	for _, d := range data {
		tape := compile(t, d.code, compiler.None)
		var c diag.Collector
		analysis.Analyse(&tape, false, analysis.Diagnostics(&c))
		var pos []int
		for _, m := range c.Messages() {
			if m.Code == diag.UncalledFunction {
				pos = append(pos, m.Pos)
			}
		}
		if len(pos) != len(d.pos) {
			t.Errorf("%s: got %v, expected uncalled functions at %v", d.code, c.Messages(), d.pos)
			continue
		}
		for i := range pos {
			if pos[i] != d.pos[i] {
				t.Errorf("%s: got uncalled functions at %v, expected %v", d.code, pos, d.pos)
				break
			}
		}
	}
}

func TestLoopLimit(t *testing.T) {
	data := []struct {
		code  string
		limit analysis.Limit
	}{
		{"[-]", analysis.Converges},
		{"[+]", analysis.Diverges},
		{"[.]", analysis.Diverges},
		{"[->+<]", analysis.Converges},
		{"[>+<]", analysis.Diverges},
		{"[,]", analysis.Indeterminate},
		{"[>]", analysis.Indeterminate},
		{"[:]", analysis.Indeterminate},
		{"[[-]]", analysis.Converges},
		{"[[-]+]", analysis.Diverges},
		{"[>[->+<]<-]", analysis.Converges},
		{"[>[-<+>]<-]", analysis.Indeterminate},
		{"[>[+]<-]", analysis.Diverges},
	}
	for _, d := range data {
		tape := compile(t, d.code, compiler.None)
		if got := analysis.LoopLimit(tape, 0); got != d.limit {
			t.Errorf("LoopLimit(%q) = %v, expected %v", d.code, got, d.limit)
		}
	}
	if got := analysis.LoopLimit(vm.Tape{vm.Ins(vm.OpInc)}, 0); got != analysis.Indeterminate {
		t.Errorf("LoopLimit on non loop = %v", got)
	}
}
