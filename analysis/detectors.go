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

package analysis

import (
	"strconv"

	"github.com/db47h/brainthread/diag"
	"github.com/db47h/brainthread/vm"
)

// at returns the instruction at i, or a nop past either end of the tape.
func (a *analyser) at(i int) vm.Instruction {
	if i < 0 || i >= len(*a.t) {
		return vm.Ins(vm.OpNop)
	}
	return (*a.t)[i]
}

// enclosing returns the index of the innermost begin instruction of the given
// kind whose scope contains i, or -1.
func (a *analyser) enclosing(i int, begin vm.Op) int {
	t := *a.t
	end := begin.Partner()
	for k := i - 1; k >= 0; k-- {
		switch ins := t[k]; {
		case ins.Op == end && ins.Jump >= 0 && ins.Jump < k:
			k = ins.Jump
		case ins.Op == begin && ins.Jump > i:
			return k
		}
	}
	return -1
}

// changesCell reports whether any instruction in [from, to) may change the
// value of a cell or move the cursor.
func (a *analyser) changesCell(from, to int) bool {
	for _, ins := range (*a.t)[from:to] {
		if ins.Op.ChangesCell() {
			return true
		}
	}
	return false
}

func (a *analyser) find(from, to int, op vm.Op) int {
	for k := from; k < to; k++ {
		if (*a.t)[k].Op == op {
			return k
		}
	}
	return -1
}

func (a *analyser) checkLoop(i int) bool {
	ins := a.at(i)
	if ins.Op != vm.OpLoopBegin {
		return false
	}
	if ins.Jump == i+1 {
		a.report(diag.InfiniteLoop, i, "loops forever if the cell is not 0")
		if a.repair {
			a.fix(diag.InfiniteLoop, i, 2)
			return true
		}
		return false
	}
	if next := a.at(i + 1); next.Op == vm.OpLoopBegin && next.Jump == ins.Jump-1 {
		a.report(diag.EmptyLoop, i, "loop "+strconv.Itoa(i)+" only wraps loop "+strconv.Itoa(i+1))
		if a.repair {
			a.splice(ins.Jump, 1)
			a.fix(diag.EmptyLoop, i, 1)
			return true
		}
	}
	return false
}

func (a *analyser) checkFunction(i int) bool {
	t := *a.t
	ins := t[i]
	switch ins.Op {
	case vm.OpFuncBegin:
		if ins.Jump == i+1 {
			a.report(diag.EmptyFunction, i, "")
			if a.repair {
				a.fix(diag.EmptyFunction, i, 2)
				return true
			}
			return false
		}
		if next := a.at(i + 1); next.Op == vm.OpFuncBegin && next.Jump == ins.Jump-1 {
			a.report(diag.NestedFunction, i, "function "+strconv.Itoa(i)+" only defines function "+strconv.Itoa(i+1))
		}
		for k := i - 1; k >= 0; k-- {
			op := t[k].Op
			if op == vm.OpFuncEnd {
				a.report(diag.FunctionRedefinition, i, "same cell as function "+strconv.Itoa(t[k].Jump))
				break
			}
			if op.ChangesCell() || op.Control() {
				break
			}
		}
		if l := a.enclosing(i, vm.OpLoopBegin); l >= 0 {
			a.report(diag.FunctionInLoop, i, "in loop "+strconv.Itoa(l))
		}
	case vm.OpCall:
		if a.find(0, i, vm.OpFuncBegin) < 0 {
			a.report(diag.CallBeforeDefinition, i, "")
			return false
		}
		if f := a.enclosing(i, vm.OpFuncBegin); f >= 0 && !a.changesCell(f+1, i) {
			a.report(diag.InfiniteRecursion, i, "function "+strconv.Itoa(f)+" calls itself")
		}
	}
	return false
}

func (a *analyser) checkThread(i int) bool {
	ins := a.at(i)
	next := a.at(i + 1)
	switch {
	case (ins.Op == vm.OpJoin || ins.Op == vm.OpTerminate) && next.Op == ins.Op:
		a.report(diag.RepeatedThreadOp, i+1, ins.Op.String())
		if a.repair {
			a.fix(diag.RepeatedThreadOp, i+1, 1)
			return true
		}
	case ins.Op == vm.OpJoin && a.enclosing(i, vm.OpFuncBegin) < 0 && a.find(0, i, vm.OpFork) < 0:
		a.report(diag.DeadJoin, i, "")
		if a.repair {
			a.fix(diag.DeadJoin, i, 1)
			return true
		}
	case (ins.Op.Arith() || ins.Op == vm.OpZero) && next.Op == vm.OpFork:
		a.report(diag.IneffectiveForkArith, i, "fork at "+strconv.Itoa(i+1)+" zeroes the cell")
		if a.repair {
			a.fix(diag.IneffectiveForkArith, i, 1)
			return true
		}
	}
	return false
}

func (a *analyser) checkShared(i int) bool {
	t := *a.t
	if t[i].Op != vm.OpShared {
		return false
	}
	if a.at(i+1).Op == vm.OpShared {
		a.report(diag.RepeatedSharedSwitch, i, "")
		if a.repair {
			a.fix(diag.RepeatedSharedSwitch, i, 1)
			return true
		}
		return false
	}
	user := -1
	for k := i + 1; k < len(t); k++ {
		if t[k].Op.Heap() && t[k].Jump == i {
			user = k
			break
		}
	}
	if user < 0 {
		a.report(diag.UnusedSharedSwitch, i, "")
		if a.repair {
			a.fix(diag.UnusedSharedSwitch, i, 1)
			return true
		}
		return false
	}
	for k := i + 1; k < user; k++ {
		if t[k].Op.Control() {
			a.report(diag.SharedScopeCrossed, i, t[k].Op.String()+" at "+strconv.Itoa(k)+" before "+t[user].Op.String()+" at "+strconv.Itoa(user))
			break
		}
	}
	return false
}

func (a *analyser) checkPerformance(i int) bool {
	ins := a.at(i)
	prev := a.at(i - 1)
	switch {
	case ins.Op == vm.OpZero:
		if prev.Op.Arith() {
			a.report(diag.RedundantLoopArith, i-1, "cell cleared at "+strconv.Itoa(i))
		}
	case ins.Op == vm.OpLoopBegin && ins.Jump > i+1:
		switch {
		case i == 0:
			a.report(diag.DeadLoop, i, "cells are 0 at program start")
		case prev.Op == vm.OpLoopEnd || prev.Op == vm.OpZero:
			a.report(diag.DeadLoop, i, "cell is always 0 here")
		}
		if a.limit(i) == Diverges {
			a.report(diag.SlowLoop, i, "loop counter moves away from 0")
		}
		if prev.Op.Arith() && a.clears(i) {
			a.report(diag.RedundantLoopArith, i-1, "cell cleared by loop "+strconv.Itoa(i))
		}
	}
	return false
}

// clears reports whether the loop at begin only changes its own cell.
func (a *analyser) clears(begin int) bool {
	t := *a.t
	for _, ins := range t[begin+1 : t[begin].Jump] {
		if !ins.Op.Arith() && ins.Op != vm.OpNop {
			return false
		}
	}
	return true
}

// checkRedundant finds runs of arithmetic or move instructions starting at i
// that do more work than their net effect.
func (a *analyser) checkRedundant(i int) bool {
	t := *a.t
	ins := t[i]
	var plus, minus vm.Op
	var code diag.Code
	switch {
	case ins.Op.Arith():
		plus, minus, code = vm.OpInc, vm.OpDec, diag.RedundantArith
	case ins.Op.Move():
		plus, minus, code = vm.OpRight, vm.OpLeft, diag.RedundantMove
	default:
		return false
	}
	if p := a.at(i - 1).Op; p == plus || p == minus {
		// not the start of the run
		return false
	}
	end := i
	count, net := 0, 0
	for ; end < len(t) && (t[end].Op == plus || t[end].Op == minus); end++ {
		count += t[end].Reps
		if t[end].Op == plus {
			net += t[end].Reps
		} else {
			net -= t[end].Reps
		}
	}
	if count <= abs(net) {
		return false
	}
	pairs := (count - abs(net)) / 2
	a.report(code, i, strconv.Itoa(count)+" operations for a net effect of "+strconv.Itoa(net))
	if !a.repair {
		return false
	}
	run := append(vm.Tape(nil), t[i:end]...)
	np, nm := pairs, pairs
	for k := range run {
		n := &np
		if run[k].Op == minus {
			n = &nm
		}
		d := min(*n, run[k].Reps)
		run[k].Reps -= d
		*n -= d
	}
	kept := run[:0]
	for _, r := range run {
		if r.Reps > 0 {
			kept = append(kept, r)
		}
	}
	a.fix(code, i, end-i, kept...)
	return true
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
