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

// Cell is the set of integer types usable as memory cells.
type Cell interface {
	~int8 | ~uint8 | ~int16 | ~uint16 | ~int32 | ~uint32
}

// Behavior selects what happens when the memory cursor reaches either end of
// the memory tape.
type Behavior int

// Memory behaviors.
const (
	// Bounded raises a range fault.
	Bounded Behavior = iota
	// Wrapping moves the cursor to the opposite end.
	Wrapping
	// Dynamic grows the tape on the right. Moving left of cell 0 still
	// faults.
	Dynamic
)

var behaviors = [...]string{"bounded", "wrapping", "dynamic"}

func (b Behavior) String() string {
	if b >= 0 && int(b) < len(behaviors) {
		return behaviors[b]
	}
	return "behavior(" + strconv.Itoa(int(b)) + ")"
}

// UnmarshalText parses a behavior name.
func (b *Behavior) UnmarshalText(text []byte) error {
	for i, s := range behaviors {
		if s == string(text) {
			*b = Behavior(i)
			return nil
		}
	}
	return errors.Errorf("unknown memory behavior %q", text)
}

// EOFPolicy selects the value stored by a read at end of input.
type EOFPolicy int

// End of input policies.
const (
	EOFZero EOFPolicy = iota
	EOFMinusOne
	EOFUnchanged
)

var eofPolicies = [...]string{"zero", "minus-one", "unchanged"}

func (p EOFPolicy) String() string {
	if p >= 0 && int(p) < len(eofPolicies) {
		return eofPolicies[p]
	}
	return "eof(" + strconv.Itoa(int(p)) + ")"
}

// UnmarshalText parses a policy name.
func (p *EOFPolicy) UnmarshalText(text []byte) error {
	for i, s := range eofPolicies {
		if s == string(text) {
			*p = EOFPolicy(i)
			return nil
		}
	}
	return errors.Errorf("unknown EOF policy %q", text)
}

const (
	// Dynamic memory doubles in size up to growThreshold cells, then grows
	// by growThreshold cells at a time.
	growThreshold = 1 << 20
	maxCells      = 1 << 30
)

// Memory is a memory tape with a cursor.
type Memory[T Cell] struct {
	cells    []T
	pos      int
	behavior Behavior
}

// NewMemory returns a zeroed memory tape of the given size.
func NewMemory[T Cell](size int, b Behavior) (*Memory[T], error) {
	if size <= 0 || size > maxCells {
		return nil, newFault(FaultAlloc, int64(size), errors.Errorf("invalid memory size %d", size))
	}
	return &Memory[T]{cells: make([]T, size), behavior: b}, nil
}

// Get returns the value of the current cell.
func (m *Memory[T]) Get() T { return m.cells[m.pos] }

// Set sets the value of the current cell.
func (m *Memory[T]) Set(v T) { m.cells[m.pos] = v }

// Value returns the value of the current cell as an int64.
func (m *Memory[T]) Value() int64 { return int64(m.cells[m.pos]) }

// Add adds n to the current cell. The result wraps around according to the
// cell type.
func (m *Memory[T]) Add(n int) { m.cells[m.pos] += T(n) }

// Pos returns the cursor position.
func (m *Memory[T]) Pos() int { return m.pos }

// Len returns the current size of the memory tape.
func (m *Memory[T]) Len() int { return len(m.cells) }

// Cells returns the memory cells. The returned slice is only valid until the
// next move.
func (m *Memory[T]) Cells() []T { return m.cells }

// Right moves the cursor n cells to the right.
func (m *Memory[T]) Right(n int) error {
	p := m.pos + n
	if p < len(m.cells) {
		m.pos = p
		return nil
	}
	switch m.behavior {
	case Wrapping:
		m.pos = p % len(m.cells)
	case Dynamic:
		if err := m.grow(p + 1); err != nil {
			return err
		}
		m.pos = p
	default:
		return newFault(FaultRange, int64(p), errors.Errorf("cursor moved to cell %d of %d", p, len(m.cells)))
	}
	return nil
}

// Left moves the cursor n cells to the left.
func (m *Memory[T]) Left(n int) error {
	p := m.pos - n
	if p >= 0 {
		m.pos = p
		return nil
	}
	if m.behavior == Wrapping {
		l := len(m.cells)
		m.pos = (p%l + l) % l
		return nil
	}
	return newFault(FaultRange, int64(p), errors.Errorf("cursor moved to cell %d", p))
}

func (m *Memory[T]) grow(min int) error {
	size := len(m.cells)
	for size < min {
		if size < growThreshold {
			size *= 2
		} else {
			size += growThreshold
		}
	}
	if size > maxCells {
		return newFault(FaultAlloc, int64(size), errors.Errorf("cannot grow memory to %d cells", size))
	}
	cells := make([]T, size)
	copy(cells, m.cells)
	m.cells = cells
	return nil
}

// Clone returns a deep copy of m.
func (m *Memory[T]) Clone() *Memory[T] {
	c := *m
	c.cells = append([]T(nil), m.cells...)
	return &c
}
