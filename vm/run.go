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
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
)

// State is the execution state of a process.
type State int32

// Process states.
const (
	Running State = iota
	Forking
	Joining
	Calling
	Terminated
)

var states = [...]string{"running", "forking", "joining", "calling", "terminated"}

func (s State) String() string {
	if s >= 0 && int(s) < len(states) {
		return states[s]
	}
	return "state(" + strconv.Itoa(int(s)) + ")"
}

// Process is an execution context. It owns its memory tape, local heap and
// function table, and shares the tape and the shared heap with every other
// process of the same run.
type Process[T Cell] struct {
	id       uint64
	parent   uint64
	pc       int
	state    atomic.Int32
	tape     Tape
	mem      *Memory[T]
	heap     *Heap[T]
	shared   *SharedHeap[T]
	fns      *Functions
	children sync.WaitGroup
	it       *Interpreter
	mon      *Monitor
	log      *slog.Logger
}

func newRoot[T Cell](i *Interpreter) (*Process[T], error) {
	mem, err := NewMemory[T](i.memSize, i.behavior)
	if err != nil {
		return nil, err
	}
	p := &Process[T]{
		tape:   i.tape,
		mem:    mem,
		heap:   NewHeap[T](i.heapSize),
		shared: NewSharedHeap[T](i.heapSize),
		fns:    NewFunctions(i.callDepth),
		it:     i,
		mon:    newMonitor(i.maxThreads, i.logger),
	}
	p.id = p.mon.newID()
	p.mon.register(p)
	p.log = i.logger.With("proc", p.id)
	i.processes.Add(1)
	return p, nil
}

// ID returns the process id. The root process has id 1.
func (p *Process[T]) ID() uint64 { return p.id }

// State returns the current state of the process.
func (p *Process[T]) State() State { return State(p.state.Load()) }

func (p *Process[T]) setState(s State) { p.state.Store(int32(s)) }

// run executes the process and converts any fault or panic into exactly one
// diagnostic.
func (p *Process[T]) run() {
	p.log.Debug("process started", "parent", p.parent, "pc", p.pc)
	if err := p.safeExec(); err != nil {
		p.report(err)
	}
	p.setState(Terminated)
	p.mon.unregister(p.id)
	p.log.Debug("process terminated", "pc", p.pc)
}

func (p *Process[T]) safeExec() (err error) {
	defer func() {
		if e := recover(); e != nil {
			switch e := e.(type) {
			case error:
				err = &Fault{Kind: FaultUnknown, Err: errors.Wrapf(e, "recovered error @pc=%d/%d", p.pc, len(p.tape))}
			default:
				err = &Fault{Kind: FaultUnknown, Err: errors.Errorf("recovered @pc=%d/%d: %v", p.pc, len(p.tape), e)}
			}
		}
	}()
	return p.exec()
}

func (p *Process[T]) report(err error) {
	var f *Fault
	if !errors.As(err, &f) {
		f = &Fault{Kind: FaultUnknown, Err: err}
	}
	f.PC = p.pc
	f.Process = p.id
	p.it.faults.Add(1)
	p.it.sink.Report(f.Message())
	p.log.Debug("process fault", "kind", f.Kind, "error", f)
}

// snapshot returns a copy of p with its own memory tape, heap and function
// table. The tape and the shared heap are not copied.
func (p *Process[T]) snapshot() *Process[T] {
	return &Process[T]{
		parent: p.id,
		pc:     p.pc,
		tape:   p.tape,
		mem:    p.mem.Clone(),
		heap:   p.heap.Clone(),
		shared: p.shared,
		fns:    p.fns.Clone(),
		it:     p.it,
		mon:    p.mon,
	}
}

// fork zeroes the current cell and starts a child process at the next
// instruction. The child's cursor is one cell to the right of the parent's,
// on a cell set to 1.
func (p *Process[T]) fork() error {
	prev := p.State()
	p.setState(Forking)
	defer p.setState(prev)
	p.mem.Set(0)
	c := p.snapshot()
	c.pc++
	if err := c.mem.Right(1); err != nil {
		return newFault(FaultFork, int64(p.mem.Pos()+1), errors.Wrap(ErrInvalidArgument, faultCause(err).Error()))
	}
	c.mem.Set(1)
	if p.fns.Depth() > 0 {
		c.setState(Calling)
	}
	c.id = p.mon.newID()
	p.mon.register(c)
	c.log = p.it.logger.With("proc", c.id)
	p.children.Add(1)
	err := p.mon.spawn(c.id, func() {
		defer p.children.Done()
		c.run()
	})
	if err != nil {
		p.children.Done()
		return newFault(FaultFork, int64(c.id), err)
	}
	p.it.processes.Add(1)
	return nil
}

// join waits for all direct children of p.
func (p *Process[T]) join() {
	prev := p.State()
	p.setState(Joining)
	p.children.Wait()
	p.setState(prev)
}
