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

// Package diag defines the diagnostic messages produced by the compiler, the
// analyser and the virtual machine, and the sinks that collect them.
//
// Producers never format or print messages themselves, they only append them
// to a Sink. Codes are grouped by numeric range:
//
//	100-199	fatal errors (compile errors and runtime faults)
//	200-299	warnings
//	300-399	informational messages
package diag

import (
	"strconv"
	"strings"
	"sync"
)

// Severity classifies a Code.
type Severity int

// Severities, from least to most severe.
const (
	Info Severity = iota
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	}
	return "severity(" + strconv.Itoa(int(s)) + ")"
}

// Code identifies a diagnostic.
type Code uint16

// Compile errors.
const (
	EmptyProgram Code = 100 + iota
	ProgramTooLarge
	UnmatchedLoopBegin
	UnmatchedLoopEnd
	UnmatchedFuncBegin
	UnmatchedFuncEnd
	IntegrityLoss
)

// Runtime faults.
const (
	AllocFailure Code = 150 + iota
	RangeExceeded
	UndefinedFunction
	DuplicateFunction
	CallStackOverflow
	HeapOverflow
	InvalidFormat
	ForkFailure
	JoinFailure
	StreamFailure
	UnknownFault
)

// Warnings.
const (
	CrossedScopes Code = 200 + iota
	InfiniteLoop
	EmptyLoop
	EmptyFunction
	NestedFunction
	FunctionRedefinition
	FunctionInLoop
	InfiniteRecursion
	CallBeforeDefinition
	DeadJoin
	RepeatedThreadOp
	IneffectiveForkArith
	UnusedSharedSwitch
	SharedScopeCrossed
	RepeatedSharedSwitch
	SlowLoop
	RedundantLoopArith
	RedundantArith
	RedundantMove
	JoinWithoutFork
	TooManyFunctions
	UncalledFunction
	StaleSharedLink
)

// Informational messages.
const (
	DeadLoop Code = 300 + iota
	Interrupted
	Repaired
)

var codeNames = map[Code]string{
	EmptyProgram:         "empty program",
	ProgramTooLarge:      "program too large",
	UnmatchedLoopBegin:   "unmatched loop begin",
	UnmatchedLoopEnd:     "unmatched loop end",
	UnmatchedFuncBegin:   "unmatched function begin",
	UnmatchedFuncEnd:     "unmatched function end",
	IntegrityLoss:        "tape integrity lost",
	AllocFailure:         "allocation failure",
	RangeExceeded:        "memory range exceeded",
	UndefinedFunction:    "undefined function",
	DuplicateFunction:    "duplicate function",
	CallStackOverflow:    "call stack overflow",
	HeapOverflow:         "heap overflow",
	InvalidFormat:        "invalid decimal input",
	ForkFailure:          "fork failure",
	JoinFailure:          "join failure",
	StreamFailure:        "stream failure",
	UnknownFault:         "unknown fault",
	CrossedScopes:        "crossed loop and function scopes",
	InfiniteLoop:         "infinite loop",
	EmptyLoop:            "redundant nested loop",
	EmptyFunction:        "empty function",
	NestedFunction:       "nested function",
	FunctionRedefinition: "suspected function redefinition",
	FunctionInLoop:       "function defined inside a loop",
	InfiniteRecursion:    "suspected infinite recursion",
	CallBeforeDefinition: "call before any definition",
	DeadJoin:             "join without prior fork",
	RepeatedThreadOp:     "repeated thread operator",
	IneffectiveForkArith: "cell change lost by fork",
	UnusedSharedSwitch:   "unused shared heap switch",
	SharedScopeCrossed:   "shared heap switch crosses control flow",
	RepeatedSharedSwitch: "repeated shared heap switch",
	SlowLoop:             "slow loop",
	RedundantLoopArith:   "redundant arithmetic before loop",
	RedundantArith:       "redundant arithmetic",
	RedundantMove:        "redundant pointer moves",
	JoinWithoutFork:      "join in a program that never forks",
	TooManyFunctions:     "too many functions",
	UncalledFunction:     "function never called",
	StaleSharedLink:      "stale shared heap link",
	DeadLoop:             "loop never entered",
	Interrupted:          "interrupted",
	Repaired:             "repaired",
}

// Severity returns the severity class of the code.
func (c Code) Severity() Severity {
	switch {
	case c < 200:
		return Error
	case c < 300:
		return Warning
	}
	return Info
}

func (c Code) String() string {
	if s, ok := codeNames[c]; ok {
		return s
	}
	return "code(" + strconv.Itoa(int(c)) + ")"
}

// Message is a single diagnostic. Pos is an instruction index, or -1 when the
// message is not tied to an instruction.
type Message struct {
	Code Code
	Pos  int
	Text string
}

// New returns a new message.
func New(c Code, pos int, text string) Message {
	return Message{c, pos, text}
}

func (m Message) String() string {
	var b strings.Builder
	b.WriteString(m.Code.Severity().String())
	b.WriteByte(' ')
	b.WriteString(strconv.Itoa(int(m.Code)))
	if m.Pos >= 0 {
		b.WriteString(" @")
		b.WriteString(strconv.Itoa(m.Pos))
	}
	b.WriteString(": ")
	b.WriteString(m.Code.String())
	if m.Text != "" {
		b.WriteString(": ")
		b.WriteString(m.Text)
	}
	return b.String()
}

// Sink receives diagnostics. Implementations must be safe for concurrent use.
type Sink interface {
	Report(m Message)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(m Message)

// Report calls f(m).
func (f SinkFunc) Report(m Message) { f(m) }

// Discard is a Sink that drops all messages.
var Discard Sink = SinkFunc(func(Message) {})

// Collector is a Sink that keeps every message it receives.
type Collector struct {
	mu   sync.Mutex
	msgs []Message
}

// Report appends m.
func (c *Collector) Report(m Message) {
	c.mu.Lock()
	c.msgs = append(c.msgs, m)
	c.mu.Unlock()
}

// Messages returns a copy of the collected messages.
func (c *Collector) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.msgs...)
}

// Drain returns the collected messages and empties the collector.
func (c *Collector) Drain() []Message {
	c.mu.Lock()
	msgs := c.msgs
	c.msgs = nil
	c.mu.Unlock()
	return msgs
}

// Count returns the number of collected messages of the given severity.
func (c *Collector) Count(s Severity) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, m := range c.msgs {
		if m.Code.Severity() == s {
			n++
		}
	}
	return n
}

// Has reports whether a message with the given code was collected.
func (c *Collector) Has(code Code) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, m := range c.msgs {
		if m.Code == code {
			return true
		}
	}
	return false
}
