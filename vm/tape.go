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
	"strconv"

	"github.com/pkg/errors"
)

// NoJump is the Jump value of instructions that do not link to another
// instruction.
const NoJump = -1

// Instruction is a decoded instruction.
//
// Jump is the index of the structural partner of loop and function brackets.
// Shared heap operations use it to record the index of the OpShared marker
// that produced them. It is NoJump for every other instruction.
//
// Reps is the number of times the instruction is repeated. Only moves and
// arithmetic instructions may have Reps > 1.
type Instruction struct {
	Op   Op
	Jump int
	Reps int
}

// Ins returns a single, non-linking instruction.
func Ins(op Op) Instruction {
	return Instruction{op, NoJump, 1}
}

func (i Instruction) String() string {
	s := i.Op.String()
	if i.Reps > 1 {
		s += " x" + strconv.Itoa(i.Reps)
	}
	if i.Jump != NoJump {
		s += " -> " + strconv.Itoa(i.Jump)
	}
	return s
}

// Tape is a compiled program.
//
// A tape may only be modified with Splice, and only before it is handed to an
// Interpreter. Processes share the same tape and never write to it.
type Tape []Instruction

// Splice replaces the n instructions starting at pos with the instructions in
// with, then relinks the whole tape: every jump that points past the replaced
// range is shifted by the size difference and every jump into the replaced
// range is reset to NoJump. Jumps of the inserted instructions are kept
// as-is and must refer to positions in the resulting tape.
func (t *Tape) Splice(pos, n int, with ...Instruction) {
	tt := *t
	if pos < 0 || n < 0 || pos+n > len(tt) {
		panic(errors.Errorf("splice [%d:%d] out of range for tape of length %d", pos, pos+n, len(tt)))
	}
	delta := len(with) - n
	for k := range tt {
		if k >= pos && k < pos+n {
			continue
		}
		j := tt[k].Jump
		switch {
		case j < pos:
		case j >= pos+n:
			tt[k].Jump = j + delta
		default:
			tt[k].Jump = NoJump
		}
	}
	out := make(Tape, 0, len(tt)+delta)
	out = append(out, tt[:pos]...)
	out = append(out, with...)
	*t = append(out, tt[pos+n:]...)
}

// Delete removes the n instructions at pos. See Splice.
func (t *Tape) Delete(pos, n int) {
	t.Splice(pos, n)
}

// CheckLinks verifies that every loop and function bracket links to a
// matching partner that links back to it. It returns the index of the first
// faulty instruction and an error, or -1 and nil.
func (t Tape) CheckLinks() (int, error) {
	for i, ins := range t {
		if !ins.Op.Links() {
			continue
		}
		j := ins.Jump
		if j < 0 || j >= len(t) {
			return i, errors.Errorf("%v at %d jumps out of the tape (%d)", ins.Op, i, j)
		}
		if p := t[j]; p.Op != ins.Op.Partner() || p.Jump != i {
			return i, errors.Errorf("%v at %d links to %v at %d", ins.Op, i, p.Op, j)
		}
		if begin := ins.Op == OpLoopBegin || ins.Op == OpFuncBegin; begin != (j > i) {
			return i, errors.Errorf("%v at %d links backwards to %d", ins.Op, i, j)
		}
	}
	return -1, nil
}
