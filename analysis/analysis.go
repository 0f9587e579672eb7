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

// Package analysis implements a static analyser for compiled tapes.
//
// Analyse runs a battery of pattern detectors over a tape and reports their
// findings to a diag.Sink. In repair mode, it also rewrites the tape to remove
// the offending patterns when this can be done without changing the program's
// observable behavior. All rewrites go through vm.Tape.Splice so that every
// jump stays anchored to its partner.
package analysis

import (
	"io"
	"log/slog"
	"strconv"

	"github.com/db47h/brainthread/diag"
	"github.com/db47h/brainthread/vm"
)

// DefaultFunctionIDs is the default size of the function id space.
const DefaultFunctionIDs = 256

// Report summarizes an analysis.
type Report struct {
	Errors   int
	Warnings int
	Infos    int
	Repairs  int
	// Valid is false if the tape links are broken. Such a tape must not be
	// run.
	Valid bool
}

// Diagnostics returns the number of errors and warnings.
func (r Report) Diagnostics() int { return r.Errors + r.Warnings }

// Option interface
type Option func(*analyser)

// Diagnostics sets the sink receiving analysis diagnostics.
func Diagnostics(s diag.Sink) Option {
	return func(a *analyser) { a.sink = s }
}

// Logger sets the logger.
func Logger(l *slog.Logger) Option {
	return func(a *analyser) { a.logger = l }
}

// FunctionIDs sets the number of distinct function ids available to the
// program, usually the number of values of a cell. The default is
// DefaultFunctionIDs.
func FunctionIDs(n int) Option {
	return func(a *analyser) { a.ids = n }
}

type analyser struct {
	t      *vm.Tape
	repair bool
	sink   diag.Sink
	logger *slog.Logger
	ids    int
	rep    Report
	// marks holds, for each instruction, the set of codes already reported
	// at its position.
	marks []uint64
}

func bit(c diag.Code) uint64 {
	if c >= 300 {
		return 1 << (32 + (c-300)%32)
	}
	return 1 << ((c - 200) % 32)
}

func (a *analyser) report(c diag.Code, pos int, text string) {
	if pos >= 0 && pos < len(a.marks) {
		b := bit(c)
		if a.marks[pos]&b != 0 {
			return
		}
		a.marks[pos] |= b
	}
	switch c.Severity() {
	case diag.Error:
		a.rep.Errors++
	case diag.Warning:
		a.rep.Warnings++
	default:
		a.rep.Infos++
	}
	a.sink.Report(diag.New(c, pos, text))
}

// splice replaces n instructions at pos and keeps marks in sync.
func (a *analyser) splice(pos, n int, with ...vm.Instruction) {
	a.t.Splice(pos, n, with...)
	marks := make([]uint64, 0, len(a.marks)+len(with)-n)
	marks = append(marks, a.marks[:pos]...)
	marks = append(marks, make([]uint64, len(with))...)
	a.marks = append(marks, a.marks[pos+n:]...)
}

// fix applies a repair and logs it.
func (a *analyser) fix(c diag.Code, pos, n int, with ...vm.Instruction) {
	a.splice(pos, n, with...)
	a.rep.Repairs++
	a.logger.Debug("repair", "code", c, "pos", pos, "removed", n, "inserted", len(with))
}

// Analyse analyses the tape t. If repair is true, t is rewritten in place.
// The tape must come from a successful compilation.
func Analyse(t *vm.Tape, repair bool, opts ...Option) Report {
	a := &analyser{
		t:      t,
		repair: repair,
		sink:   diag.Discard,
		ids:    DefaultFunctionIDs,
	}
	for _, o := range opts {
		o(a)
	}
	if a.logger == nil {
		a.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if pos, err := t.CheckLinks(); err != nil {
		a.report(diag.IntegrityLoss, pos, err.Error())
		return a.rep
	}
	a.marks = make([]uint64, len(*t))

	for i := 0; i < len(*a.t); {
		if a.check(i) {
			// a repair may create a new pattern with the previous
			// instruction.
			i = max(i-1, 0)
			continue
		}
		i++
	}
	a.post()

	if a.rep.Repairs > 0 {
		a.report(diag.Repaired, -1, strconv.Itoa(a.rep.Repairs)+" repairs applied")
	}
	a.logger.Debug("analysis complete",
		"instructions", len(*a.t),
		"errors", a.rep.Errors,
		"warnings", a.rep.Warnings,
		"repairs", a.rep.Repairs)
	return a.rep
}

// check runs all detectors on the instruction at i, in priority order. It
// returns true as soon as one of them repairs the tape.
func (a *analyser) check(i int) bool {
	return a.checkLoop(i) ||
		a.checkFunction(i) ||
		a.checkThread(i) ||
		a.checkShared(i) ||
		a.checkPerformance(i) ||
		a.checkRedundant(i)
}

// post runs the program level checks.
func (a *analyser) post() {
	t := *a.t
	var forks, joins, funcs, loops int
	firstJoin, lastCall := -1, -1
	var defs []int
	for i, ins := range t {
		switch ins.Op {
		case vm.OpFork:
			forks++
		case vm.OpJoin:
			if joins == 0 {
				firstJoin = i
			}
			joins++
		case vm.OpLoopBegin:
			loops++
		case vm.OpLoopEnd:
			if loops > 0 {
				loops--
			}
		case vm.OpFuncBegin:
			if loops == 0 {
				defs = append(defs, i)
			}
			funcs++
		case vm.OpCall:
			lastCall = i
		case vm.OpSharedPush, vm.OpSharedPop, vm.OpSharedSwap:
			a.checkSharedLink(i)
		}
	}
	if joins > 0 && forks == 0 {
		a.report(diag.JoinWithoutFork, firstJoin, strconv.Itoa(joins)+" joins")
	}
	if funcs > a.ids {
		a.report(diag.TooManyFunctions, -1, strconv.Itoa(funcs)+" definitions for "+strconv.Itoa(a.ids)+" ids")
	}
	// A definition outside of any loop that follows the last call can only
	// be called by a function it defines itself. Definitions in loops or
	// before a call are assumed to be reachable.
	for _, d := range defs {
		if d > lastCall {
			a.report(diag.UncalledFunction, d, "defined after the last call")
		}
	}
	if pos, err := a.t.CheckLinks(); err != nil {
		a.report(diag.IntegrityLoss, pos, err.Error())
		return
	}
	a.rep.Valid = true
}

// checkSharedLink verifies that the shared heap operation at i still refers
// to its marker. Stale links are cleared in repair mode.
func (a *analyser) checkSharedLink(i int) {
	t := *a.t
	j := t[i].Jump
	switch {
	case j == vm.NoJump:
		a.report(diag.StaleSharedLink, i, "marker removed")
	case j < 0 || j >= len(t) || t[j].Op != vm.OpShared:
		a.report(diag.StaleSharedLink, i, "links to "+strconv.Itoa(j))
		if a.repair {
			t[i].Jump = vm.NoJump
			a.rep.Repairs++
		}
	}
}
