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
	"sync"

	"github.com/pkg/errors"
)

// Heap is a bounded LIFO stack of cell values.
type Heap[T Cell] struct {
	vals  []T
	limit int
}

// NewHeap returns an empty heap that holds at most limit values.
func NewHeap[T Cell](limit int) *Heap[T] {
	return &Heap[T]{limit: limit}
}

// Push pushes v on top of the heap.
func (h *Heap[T]) Push(v T) error {
	if len(h.vals) >= h.limit {
		return newFault(FaultHeapOverflow, int64(len(h.vals)), errors.Errorf("heap full (%d values)", h.limit))
	}
	h.vals = append(h.vals, v)
	return nil
}

// Pop removes the value on top of the heap and returns it. It returns 0 if the
// heap is empty.
func (h *Heap[T]) Pop() T {
	n := len(h.vals)
	if n == 0 {
		return 0
	}
	v := h.vals[n-1]
	h.vals = h.vals[:n-1]
	return v
}

// Swap exchanges the top two values. It does nothing if the heap holds less
// than two values.
func (h *Heap[T]) Swap() {
	n := len(h.vals)
	if n < 2 {
		return
	}
	h.vals[n-1], h.vals[n-2] = h.vals[n-2], h.vals[n-1]
}

// Len returns the number of values on the heap.
func (h *Heap[T]) Len() int { return len(h.vals) }

// Values returns a copy of the heap contents, bottom first.
func (h *Heap[T]) Values() []T { return append([]T(nil), h.vals...) }

// Clone returns a deep copy of h.
func (h *Heap[T]) Clone() *Heap[T] {
	return &Heap[T]{append([]T(nil), h.vals...), h.limit}
}

// SharedHeap is a Heap safe for concurrent use. All processes of a run share
// the same instance.
type SharedHeap[T Cell] struct {
	mu sync.Mutex
	h  Heap[T]
}

// NewSharedHeap returns an empty shared heap that holds at most limit values.
func NewSharedHeap[T Cell](limit int) *SharedHeap[T] {
	return &SharedHeap[T]{h: Heap[T]{limit: limit}}
}

// Push pushes v on top of the heap.
func (s *SharedHeap[T]) Push(v T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.h.Push(v)
}

// Pop removes the value on top of the heap and returns it, or 0.
func (s *SharedHeap[T]) Pop() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.h.Pop()
}

// Swap exchanges the top two values.
func (s *SharedHeap[T]) Swap() {
	s.mu.Lock()
	s.h.Swap()
	s.mu.Unlock()
}

// Len returns the number of values on the heap.
func (s *SharedHeap[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.h.Len()
}

// Values returns a copy of the heap contents, bottom first.
func (s *SharedHeap[T]) Values() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.h.Values()
}
