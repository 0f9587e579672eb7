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

	"github.com/db47h/brainthread/vm"
)

// Limit classifies how the counter cell of a loop evolves.
type Limit int

// Loop limits.
const (
	// Indeterminate loops depend on input, on other cells or on code that
	// cannot be analysed statically.
	Indeterminate Limit = iota
	// Converges means that each iteration moves the counter toward 0.
	Converges
	// Diverges means that each iteration moves the counter away from 0 or
	// leaves it unchanged. Such loops only end through wrap around, if at
	// all.
	Diverges
)

var limits = [...]string{"indeterminate", "converges", "diverges"}

func (l Limit) String() string {
	if l >= 0 && int(l) < len(limits) {
		return limits[l]
	}
	return "limit(" + strconv.Itoa(int(l)) + ")"
}

// LoopLimit classifies the loop that begins at index begin in t.
func LoopLimit(t vm.Tape, begin int) Limit {
	if begin < 0 || begin >= len(t) || t[begin].Op != vm.OpLoopBegin || t[begin].Jump <= begin {
		return Indeterminate
	}
	a := analyser{t: &t}
	return a.limit(begin)
}

func (a *analyser) limit(begin int) Limit {
	t := *a.t
	end := t[begin].Jump
	off, delta := 0, 0
	reset, diverges := false, false
	for k := begin + 1; k < end; k++ {
		ins := t[k]
		switch op := ins.Op; {
		case op == vm.OpRight:
			off += ins.Reps
		case op == vm.OpLeft:
			off -= ins.Reps
		case op == vm.OpInc:
			if off == 0 {
				delta += ins.Reps
			}
		case op == vm.OpDec:
			if off == 0 {
				delta -= ins.Reps
			}
		case op == vm.OpZero:
			if off == 0 {
				delta, reset = 0, true
			}
		case op == vm.OpLoopBegin:
			if ins.Jump <= k || ins.Jump >= end {
				return Indeterminate
			}
			switch a.limit(k) {
			case Indeterminate:
				return Indeterminate
			case Diverges:
				diverges = true
			}
			if off == 0 {
				// a loop on the counter leaves it at 0.
				delta, reset = 0, true
			} else if a.touches(k, -off) {
				return Indeterminate
			}
			k = ins.Jump
		case op.ChangesCell() || op.Control():
			return Indeterminate
		}
	}
	switch {
	case off != 0:
		return Indeterminate
	case diverges:
		return Diverges
	case reset && delta == 0:
		return Converges
	case reset:
		return Diverges
	case delta < 0:
		return Converges
	}
	return Diverges
}

// touches reports whether the balanced loop at begin may change the cell at
// offset rel from its own counter.
func (a *analyser) touches(begin, rel int) bool {
	t := *a.t
	off := 0
	for _, ins := range t[begin+1 : t[begin].Jump] {
		switch op := ins.Op; {
		case op == vm.OpRight:
			off += ins.Reps
		case op == vm.OpLeft:
			off -= ins.Reps
		case op == vm.OpLoopBegin || op.ChangesCell():
			if off == rel {
				return true
			}
		}
	}
	return false
}
