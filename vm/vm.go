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

package vm

import (
	"io"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/db47h/brainthread/diag"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// CellWidth selects the integer type of memory cells.
type CellWidth int

// Cell widths.
const (
	U8 CellWidth = iota
	I8
	U16
	I16
	U32
	I32
)

var widths = [...]string{"u8", "i8", "u16", "i16", "u32", "i32"}

func (w CellWidth) String() string {
	if w >= 0 && int(w) < len(widths) {
		return widths[w]
	}
	return "width(" + strconv.Itoa(int(w)) + ")"
}

// UnmarshalText parses a cell width name.
func (w *CellWidth) UnmarshalText(text []byte) error {
	for i, s := range widths {
		if s == string(text) {
			*w = CellWidth(i)
			return nil
		}
	}
	return errors.Errorf("unknown cell width %q", text)
}

// Default limits.
const (
	DefaultMemorySize = 30000
	DefaultHeapSize   = 1 << 16
	DefaultCallDepth  = 1 << 12
	DefaultMaxThreads = 1 << 12
)

// Interpreter runs a tape.
type Interpreter struct {
	tape       Tape
	width      CellWidth
	behavior   Behavior
	eof        EOFPolicy
	memSize    int
	heapSize   int
	callDepth  int
	maxThreads int
	in         Input
	out        Output
	sink       diag.Sink
	logger     *slog.Logger
	debug      io.Writer
	debugMu    sync.Mutex
	runID      string
	faults     atomic.Int64
	processes  atomic.Int64
	mon        atomic.Pointer[Monitor]
}

// Option interface
type Option func(*Interpreter) error

// Width sets the cell type. The default is U8.
func Width(w CellWidth) Option {
	return func(i *Interpreter) error {
		if w < 0 || int(w) >= len(widths) {
			return errors.Errorf("invalid cell width %d", w)
		}
		i.width = w
		return nil
	}
}

// MemoryBehavior sets the memory behavior at the ends of the memory tape. The
// default is Bounded.
func MemoryBehavior(b Behavior) Option {
	return func(i *Interpreter) error {
		if b < 0 || int(b) >= len(behaviors) {
			return errors.Errorf("invalid memory behavior %d", b)
		}
		i.behavior = b
		return nil
	}
}

// EOF sets the end of input policy. The default is EOFZero.
func EOF(p EOFPolicy) Option {
	return func(i *Interpreter) error {
		if p < 0 || int(p) >= len(eofPolicies) {
			return errors.Errorf("invalid EOF policy %d", p)
		}
		i.eof = p
		return nil
	}
}

// MemorySize sets the initial number of memory cells of the root process. The
// default is DefaultMemorySize.
func MemorySize(size int) Option {
	return func(i *Interpreter) error {
		if size <= 0 {
			return errors.Errorf("invalid memory size %d", size)
		}
		i.memSize = size
		return nil
	}
}

// HeapSize sets the capacity of local and shared heaps. The default is
// DefaultHeapSize.
func HeapSize(size int) Option {
	return func(i *Interpreter) error {
		if size <= 0 {
			return errors.Errorf("invalid heap size %d", size)
		}
		i.heapSize = size
		return nil
	}
}

// CallDepth sets the maximum depth of function calls. The default is
// DefaultCallDepth.
func CallDepth(depth int) Option {
	return func(i *Interpreter) error {
		if depth <= 0 {
			return errors.Errorf("invalid call depth %d", depth)
		}
		i.callDepth = depth
		return nil
	}
}

// MaxThreads sets the maximum number of forked processes running at the same
// time. A value <= 0 removes the limit. The default is DefaultMaxThreads.
func MaxThreads(n int) Option {
	return func(i *Interpreter) error { i.maxThreads = n; return nil }
}

// InputReader sets the input stream. The default input is always at end of input.
func InputReader(r io.Reader) Option {
	return func(i *Interpreter) error { i.in = NewInput(r); return nil }
}

// OutputWriter sets the output stream. The default output discards everything.
func OutputWriter(w io.Writer) Option {
	return func(i *Interpreter) error { i.out = NewOutput(w); return nil }
}

// Streams sets already built input and output streams.
func Streams(in Input, out Output) Option {
	return func(i *Interpreter) error {
		if in != nil {
			i.in = in
		}
		if out != nil {
			i.out = out
		}
		return nil
	}
}

// Diagnostics sets the sink receiving runtime fault diagnostics.
func Diagnostics(s diag.Sink) Option {
	return func(i *Interpreter) error { i.sink = s; return nil }
}

// Logger sets the logger. The default logger discards everything.
func Logger(l *slog.Logger) Option {
	return func(i *Interpreter) error { i.logger = l; return nil }
}

// DebugOutput sets the writer used by the memory and heap dump instructions.
// They do nothing if not set.
func DebugOutput(w io.Writer) Option {
	return func(i *Interpreter) error { i.debug = w; return nil }
}

// SetOptions sets the provided options.
func (i *Interpreter) SetOptions(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(i); err != nil {
			return err
		}
	}
	return nil
}

// New creates a new interpreter for the given tape. The tape must not be
// modified afterwards.
func New(t Tape, opts ...Option) (*Interpreter, error) {
	if pos, err := t.CheckLinks(); err != nil {
		return nil, errors.Wrapf(err, "invalid tape at %d", pos)
	}
	i := &Interpreter{
		tape:       t,
		memSize:    DefaultMemorySize,
		heapSize:   DefaultHeapSize,
		callDepth:  DefaultCallDepth,
		maxThreads: DefaultMaxThreads,
		sink:       diag.Discard,
		runID:      uuid.NewString(),
	}
	if err := i.SetOptions(opts...); err != nil {
		return nil, err
	}
	if i.in == nil {
		i.in = NewInput(nil)
	}
	if i.out == nil {
		i.out = NewOutput(nil)
	}
	if i.logger == nil {
		i.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	i.logger = i.logger.With("run", i.runID)
	return i, nil
}

// Run executes the tape and blocks until every process has terminated.
//
// Runtime faults do not make Run fail: they terminate the faulting process and
// are reported to the diagnostics sink. Run only returns an error if the root
// process could not be created.
func (i *Interpreter) Run() error {
	switch i.width {
	case I8:
		return run[int8](i)
	case U16:
		return run[uint16](i)
	case I16:
		return run[int16](i)
	case U32:
		return run[uint32](i)
	case I32:
		return run[int32](i)
	}
	return run[uint8](i)
}

// Faults returns the number of processes that terminated on a fault during the
// last run.
func (i *Interpreter) Faults() int { return int(i.faults.Load()) }

// Processes returns the number of processes created during the last run,
// including the root process.
func (i *Interpreter) Processes() int { return int(i.processes.Load()) }

// Live returns the processes of the current or last run that have not
// terminated yet, sorted by id. It returns nil before the first run.
func (i *Interpreter) Live() []Proc {
	if m := i.mon.Load(); m != nil {
		return m.Live()
	}
	return nil
}

// RunID returns the unique identifier attached to the interpreter's log
// records.
func (i *Interpreter) RunID() string { return i.runID }

func run[T Cell](i *Interpreter) error {
	i.faults.Store(0)
	i.processes.Store(0)
	root, err := newRoot[T](i)
	if err != nil {
		i.sink.Report(diag.New(diag.AllocFailure, -1, err.Error()))
		return err
	}
	i.mon.Store(root.mon)
	i.logger.Debug("run started", "width", i.width, "memory", i.behavior, "cells", i.memSize)
	root.run()
	if err := root.mon.Wait(); err != nil {
		i.sink.Report((&Fault{Kind: FaultJoin, PC: -1, Process: root.id, Err: err}).Message())
	}
	if err := i.out.Flush(); err != nil {
		i.sink.Report(diag.New(diag.StreamFailure, -1, err.Error()))
	}
	i.logger.Debug("run complete", "processes", i.processes.Load(), "faults", i.faults.Load())
	return nil
}
