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

	"github.com/pkg/errors"
)

// exec runs the process until it terminates or faults.
//
// The PC is incremented in a single place at the end of the loop. Jumping
// instructions set it to the instruction right before their target.
func (p *Process[T]) exec() error {
	t := p.tape
	for p.pc < len(t) {
		ins := &t[p.pc]
		switch ins.Op {
		case OpRight:
			if err := p.mem.Right(ins.Reps); err != nil {
				return err
			}
		case OpLeft:
			if err := p.mem.Left(ins.Reps); err != nil {
				return err
			}
		case OpInc:
			p.mem.Add(ins.Reps)
		case OpDec:
			p.mem.Add(-ins.Reps)
		case OpZero:
			p.mem.Set(0)
		case OpWrite:
			if err := p.it.out.WriteByte(byte(p.mem.Get())); err != nil {
				return newFault(FaultIO, 0, err)
			}
		case OpRead:
			if err := p.read(); err != nil {
				return err
			}
		case OpWriteDec:
			if err := p.it.out.WriteInt(p.mem.Value()); err != nil {
				return newFault(FaultIO, 0, err)
			}
		case OpReadDec:
			if err := p.readDec(); err != nil {
				return err
			}
		case OpLoopBegin:
			if p.mem.Get() == 0 {
				p.pc = ins.Jump
			}
		case OpLoopEnd:
			if p.mem.Get() != 0 {
				p.pc = ins.Jump
			}
		case OpFuncBegin:
			if err := p.fns.Define(p.mem.Value(), p.pc+1); err != nil {
				return err
			}
			p.pc = ins.Jump
		case OpFuncEnd:
			ret, err := p.fns.Return()
			if err != nil {
				return err
			}
			if p.fns.Depth() == 0 {
				p.setState(Running)
			}
			p.pc = ret
		case OpCall:
			entry, err := p.fns.Call(p.mem.Value(), p.pc)
			if err != nil {
				return err
			}
			p.setState(Calling)
			p.pc = entry
			continue
		case OpFork:
			if err := p.fork(); err != nil {
				return err
			}
		case OpJoin:
			p.join()
		case OpTerminate:
			return nil
		case OpPush:
			if err := p.heap.Push(p.mem.Get()); err != nil {
				return err
			}
		case OpPop:
			p.mem.Set(p.heap.Pop())
		case OpSwap:
			p.heap.Swap()
		case OpSharedPush:
			if err := p.shared.Push(p.mem.Get()); err != nil {
				return err
			}
		case OpSharedPop:
			p.mem.Set(p.shared.Pop())
		case OpSharedSwap:
			p.shared.Swap()
		case OpNop, OpShared:
		case OpDumpMemory:
			if err := p.dumpMemory(); err != nil {
				return err
			}
		case OpDumpHeap:
			if err := p.dumpHeap(); err != nil {
				return err
			}
		default:
			return newFault(FaultUnknown, int64(ins.Op), errors.Errorf("invalid opcode %v", ins.Op))
		}
		p.pc++
	}
	return nil
}

func (p *Process[T]) read() error {
	if err := p.it.out.Flush(); err != nil {
		return newFault(FaultIO, 0, err)
	}
	b, err := p.it.in.ReadByte()
	switch {
	case err == nil:
		p.mem.Set(T(b))
	case errors.Cause(err) == io.EOF:
		p.atEOF()
	default:
		return newFault(FaultIO, 0, errors.Wrap(err, "read failed"))
	}
	return nil
}

func (p *Process[T]) readDec() error {
	if err := p.it.out.Flush(); err != nil {
		return newFault(FaultIO, 0, err)
	}
	v, err := p.it.in.ReadInt()
	switch {
	case err == nil:
		p.mem.Set(T(v))
	case errors.Cause(err) == io.EOF:
		p.atEOF()
	case errors.Cause(err) == ErrFormat:
		return newFault(FaultFormat, 0, err)
	default:
		return newFault(FaultIO, 0, errors.Wrap(err, "read failed"))
	}
	return nil
}

func (p *Process[T]) atEOF() {
	switch p.it.eof {
	case EOFZero:
		p.mem.Set(0)
	case EOFMinusOne:
		minusOne := -1
		p.mem.Set(T(minusOne))
	}
}
