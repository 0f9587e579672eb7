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

import "strconv"

// Op is an instruction opcode.
type Op uint8

// Opcodes.
const (
	OpNop Op = iota
	OpRight
	OpLeft
	OpInc
	OpDec
	OpWrite
	OpRead
	OpWriteDec
	OpReadDec
	OpLoopBegin
	OpLoopEnd
	OpFuncBegin
	OpFuncEnd
	OpCall
	OpFork
	OpJoin
	OpTerminate
	OpPush
	OpPop
	OpSwap
	OpSharedPush
	OpSharedPop
	OpSharedSwap
	OpShared // switch the next heap operation to the shared heap; not executed
	OpZero
	OpDumpMemory
	OpDumpHeap
	opCount
)

var opcodes = [...]string{
	"nop",
	">",
	"<",
	"+",
	"-",
	".",
	",",
	"=",
	"?",
	"[",
	"]",
	"(",
	")",
	":",
	"fork",
	"join",
	"end",
	"push",
	"pop",
	"swap",
	"spush",
	"spop",
	"sswap",
	"shared",
	"zero",
	"#",
	"@",
}

func (op Op) String() string {
	if op < opCount {
		return opcodes[op]
	}
	return "op(" + strconv.Itoa(int(op)) + ")"
}

// Links reports whether instructions with this opcode carry a jump to a
// structural partner.
func (op Op) Links() bool {
	switch op {
	case OpLoopBegin, OpLoopEnd, OpFuncBegin, OpFuncEnd:
		return true
	}
	return false
}

// Partner returns the opcode of the structural partner of a linking opcode,
// or OpNop.
func (op Op) Partner() Op {
	switch op {
	case OpLoopBegin:
		return OpLoopEnd
	case OpLoopEnd:
		return OpLoopBegin
	case OpFuncBegin:
		return OpFuncEnd
	case OpFuncEnd:
		return OpFuncBegin
	}
	return OpNop
}

// Arith reports whether op changes the current cell by a constant amount.
func (op Op) Arith() bool { return op == OpInc || op == OpDec }

// Move reports whether op moves the memory cursor.
func (op Op) Move() bool { return op == OpRight || op == OpLeft }

// Heap reports whether op accesses a value heap.
func (op Op) Heap() bool {
	switch op {
	case OpPush, OpPop, OpSwap, OpSharedPush, OpSharedPop, OpSharedSwap:
		return true
	}
	return false
}

// Shared returns the shared heap counterpart of a local heap opcode. Other
// opcodes are returned unchanged.
func (op Op) Shared() Op {
	switch op {
	case OpPush:
		return OpSharedPush
	case OpPop:
		return OpSharedPop
	case OpSwap:
		return OpSharedSwap
	}
	return op
}

// Control reports whether op transfers control or affects other processes.
func (op Op) Control() bool {
	switch op {
	case OpLoopBegin, OpLoopEnd, OpFuncBegin, OpFuncEnd, OpCall, OpFork, OpJoin, OpTerminate:
		return true
	}
	return false
}

// ChangesCell reports whether executing op can change which cell is current
// or the value of the current cell.
func (op Op) ChangesCell() bool {
	switch op {
	case OpRight, OpLeft, OpInc, OpDec, OpRead, OpReadDec, OpCall, OpFork,
		OpPop, OpSharedPop, OpZero:
		return true
	}
	return false
}
