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

	"github.com/db47h/brainthread/internal/iox"
)

// dumpWindow is the number of cells shown on each side of the cursor by a
// memory dump.
const dumpWindow = 8

func ints[T Cell](a []T) []int64 {
	r := make([]int64, len(a))
	for i, v := range a {
		r[i] = int64(v)
	}
	return r
}

func (p *Process[T]) dumpHeader(b []byte) []byte {
	b = append(b, "proc "...)
	b = strconv.AppendUint(b, p.id, 10)
	b = append(b, " @"...)
	b = strconv.AppendInt(b, int64(p.pc), 10)
	return b
}

// dumpMemory writes the cells around the cursor to the debug output.
func (p *Process[T]) dumpMemory() error {
	if p.it.debug == nil {
		return nil
	}
	cells, pos := p.mem.Cells(), p.mem.Pos()
	lo, hi := max(pos-dumpWindow, 0), min(pos+dumpWindow+1, len(cells))
	b := p.dumpHeader(make([]byte, 0, 128))
	b = append(b, " mem["...)
	b = strconv.AppendInt(b, int64(lo), 10)
	b = append(b, ".."...)
	b = strconv.AppendInt(b, int64(hi-1), 10)
	b = append(b, "] "...)
	b = iox.AppendInts(b, ints(cells[lo:hi]), pos-lo)
	b = append(b, '\n')
	return p.writeDebug(b)
}

// dumpHeap writes the local and shared heaps to the debug output.
func (p *Process[T]) dumpHeap() error {
	if p.it.debug == nil {
		return nil
	}
	b := p.dumpHeader(make([]byte, 0, 128))
	b = append(b, " heap: "...)
	b = iox.AppendInts(b, ints(p.heap.Values()), -1)
	b = append(b, " shared: "...)
	b = iox.AppendInts(b, ints(p.shared.Values()), -1)
	b = append(b, '\n')
	return p.writeDebug(b)
}

func (p *Process[T]) writeDebug(b []byte) error {
	p.it.debugMu.Lock()
	defer p.it.debugMu.Unlock()
	w := iox.NewErrWriter(p.it.debug)
	w.Write(b)
	if w.Err != nil {
		return newFault(FaultIO, 0, w.Err)
	}
	return nil
}
