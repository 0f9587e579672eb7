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

import "github.com/pkg/errors"

type frame struct {
	ret int
	id  int64
}

// Functions maps function ids to entry points and holds the call stack of a
// process.
type Functions struct {
	entries map[int64]int
	stack   []frame
	depth   int
}

// NewFunctions returns an empty function table with a call stack of at most
// depth frames.
func NewFunctions(depth int) *Functions {
	return &Functions{entries: make(map[int64]int), depth: depth}
}

// Define registers a function.
func (f *Functions) Define(id int64, entry int) error {
	if e, ok := f.entries[id]; ok {
		return newFault(FaultDuplicateFunc, id, errors.Errorf("function %d already defined at %d", id, e-1))
	}
	f.entries[id] = entry
	return nil
}

// Call pushes a return address and returns the entry point of function id.
func (f *Functions) Call(id int64, ret int) (int, error) {
	e, ok := f.entries[id]
	if !ok {
		return 0, newFault(FaultUndefinedFunc, id, errors.Errorf("function %d is not defined", id))
	}
	if len(f.stack) >= f.depth {
		return 0, newFault(FaultCallStack, int64(len(f.stack)), errors.Errorf("call depth exceeds %d", f.depth))
	}
	f.stack = append(f.stack, frame{ret, id})
	return e, nil
}

// Return pops the call stack and returns the address of the call site.
func (f *Functions) Return() (int, error) {
	n := len(f.stack)
	if n == 0 {
		return 0, newFault(FaultCallStack, 0, errors.New("function end reached outside of any call"))
	}
	fr := f.stack[n-1]
	f.stack = f.stack[:n-1]
	return fr.ret, nil
}

// Len returns the number of defined functions.
func (f *Functions) Len() int { return len(f.entries) }

// Depth returns the current call depth.
func (f *Functions) Depth() int { return len(f.stack) }

// Clone returns a deep copy of f.
func (f *Functions) Clone() *Functions {
	c := &Functions{
		entries: make(map[int64]int, len(f.entries)),
		stack:   append([]frame(nil), f.stack...),
		depth:   f.depth,
	}
	for k, v := range f.entries {
		c.entries[k] = v
	}
	return c
}
