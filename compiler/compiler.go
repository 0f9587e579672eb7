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

package compiler

import (
	"io"
	"log/slog"
	"strconv"

	"github.com/db47h/brainthread/diag"
	"github.com/db47h/brainthread/vm"
	"github.com/pkg/errors"
)

// Level is an optimization level.
type Level int

// Optimization levels.
const (
	// None emits one instruction per source operator.
	None Level = iota
	// Peephole merges runs of identical moves and arithmetic instructions.
	Peephole
	// Full also replaces [-] and [+] loops with a single zero instruction.
	Full
)

var levels = [...]string{"none", "peephole", "full"}

func (l Level) String() string {
	if l >= 0 && int(l) < len(levels) {
		return levels[l]
	}
	return "level(" + strconv.Itoa(int(l)) + ")"
}

// UnmarshalText parses a level name or number.
func (l *Level) UnmarshalText(text []byte) error {
	s := string(text)
	for i, n := range levels {
		if n == s || strconv.Itoa(i) == s {
			*l = Level(i)
			return nil
		}
	}
	return errors.Errorf("unknown optimization level %q", text)
}

// DefaultMaxLength is the default maximum number of instructions in a tape.
const DefaultMaxLength = 1 << 24

// Option interface
type Option func(*compiler)

// WithDialect sets the dialect. The default is Auto.
func WithDialect(d Dialect) Option {
	return func(c *compiler) { c.dialect = d }
}

// Optimize sets the optimization level. The default is None.
func Optimize(l Level) Option {
	return func(c *compiler) { c.level = l }
}

// Debug enables the memory and heap dump operators.
func Debug(enable bool) Option {
	return func(c *compiler) { c.debug = enable }
}

// MaxLength sets the maximum number of instructions. Values <= 0 select
// DefaultMaxLength.
func MaxLength(n int) Option {
	return func(c *compiler) {
		if n <= 0 {
			n = DefaultMaxLength
		}
		c.maxLen = n
	}
}

// Diagnostics sets the sink receiving compile diagnostics.
func Diagnostics(s diag.Sink) Option {
	return func(c *compiler) { c.sink = s }
}

// Logger sets the logger.
func Logger(l *slog.Logger) Option {
	return func(c *compiler) { c.logger = l }
}

// position is a line and column in the source, both starting at 1.
type position struct {
	line, col int
}

func (p position) String() string {
	return strconv.Itoa(p.line) + ":" + strconv.Itoa(p.col)
}

type compiler struct {
	dialect Dialect
	level   Level
	debug   bool
	maxLen  int
	sink    diag.Sink
	logger  *slog.Logger

	g      grammar
	t      vm.Tape
	pos    []position
	loops  []int
	funcs  []int
	shared int
	errs   int
}

func (c *compiler) report(code diag.Code, pc int, text string) {
	if code.Severity() == diag.Error {
		c.errs++
	}
	c.sink.Report(diag.New(code, pc, text))
}

func (c *compiler) where(pc int) string {
	return c.pos[pc].String()
}

func (c *compiler) emit(ins vm.Instruction, pos position) {
	c.t = append(c.t, ins)
	c.pos = append(c.pos, pos)
}

// merge adds op to the last instruction if they can be folded together.
func (c *compiler) merge(op vm.Op) bool {
	if c.level < Peephole || !(op.Arith() || op.Move()) || len(c.t) == 0 {
		return false
	}
	last := &c.t[len(c.t)-1]
	if last.Op != op {
		return false
	}
	last.Reps++
	return true
}

// crossed reports whether the innermost open bracket of the other kind was
// opened after the bracket at index open.
func crossed(open int, other []int) bool {
	return len(other) > 0 && other[len(other)-1] > open
}

func (c *compiler) close(op vm.Op, pos position) {
	stack, other := &c.loops, c.funcs
	unmatched := diag.UnmatchedLoopEnd
	if op == vm.OpFuncEnd {
		stack, other = &c.funcs, c.loops
		unmatched = diag.UnmatchedFuncEnd
	}
	pc := len(c.t)
	if len(*stack) == 0 {
		c.emit(vm.Ins(op), pos)
		c.report(unmatched, pc, pos.String())
		return
	}
	open := (*stack)[len(*stack)-1]
	*stack = (*stack)[:len(*stack)-1]
	if crossed(open, other) {
		c.report(diag.CrossedScopes, pc, pos.String()+" closes "+c.where(open)+" across "+c.where(other[len(other)-1]))
	}
	if op == vm.OpLoopEnd && c.level >= Full && open == pc-2 {
		if body := c.t[pc-1]; body.Op.Arith() && body.Reps == 1 {
			at := c.pos[open]
			c.t, c.pos = c.t[:open], c.pos[:open]
			c.emit(vm.Ins(vm.OpZero), at)
			return
		}
	}
	c.t[open].Jump = pc
	c.emit(vm.Instruction{Op: op, Jump: open, Reps: 1}, pos)
}

// Compile compiles src to a tape. It returns the tape and true on success.
// All problems are reported to the Diagnostics sink. On failure, the returned
// tape must not be run.
//
// Instruction indices are used as positions in diagnostics. The message text
// also holds the line and column of the offending character.
func Compile(src []byte, opts ...Option) (vm.Tape, bool) {
	c := &compiler{
		maxLen: DefaultMaxLength,
		sink:   diag.Discard,
		shared: vm.NoJump,
	}
	for _, o := range opts {
		o(c)
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if c.dialect == Auto {
		c.dialect = Detect(src)
		c.logger.Debug("dialect detected", "dialect", c.dialect)
	}
	c.g = grammarOf(c.dialect, c.debug)

	pos := position{1, 1}
	for _, ch := range src {
		here := pos
		if ch == '\n' {
			pos.line++
			pos.col = 1
		} else if ch&0xC0 != 0x80 {
			// count runes, not UTF-8 continuation bytes
			pos.col++
		}
		op, ok := c.g[ch]
		if !ok || c.merge(op) {
			continue
		}
		if len(c.t) >= c.maxLen {
			c.report(diag.ProgramTooLarge, len(c.t), "more than "+strconv.Itoa(c.maxLen)+" instructions at "+here.String())
			return c.t, false
		}
		switch {
		case op == vm.OpLoopBegin:
			c.loops = append(c.loops, len(c.t))
			c.emit(vm.Ins(op), here)
		case op == vm.OpFuncBegin:
			c.funcs = append(c.funcs, len(c.t))
			c.emit(vm.Ins(op), here)
		case op == vm.OpLoopEnd || op == vm.OpFuncEnd:
			c.close(op, here)
		case op == vm.OpShared:
			c.shared = len(c.t)
			c.emit(vm.Ins(op), here)
		case op.Heap() && c.shared != vm.NoJump:
			c.emit(vm.Instruction{Op: op.Shared(), Jump: c.shared, Reps: 1}, here)
			c.shared = vm.NoJump
		default:
			c.emit(vm.Ins(op), here)
		}
	}
	for _, pc := range c.loops {
		c.report(diag.UnmatchedLoopBegin, pc, c.where(pc))
	}
	for _, pc := range c.funcs {
		c.report(diag.UnmatchedFuncBegin, pc, c.where(pc))
	}
	if len(c.t) == 0 {
		c.report(diag.EmptyProgram, -1, "no instructions")
	}
	c.logger.Debug("compiled", "dialect", c.dialect, "level", c.level, "instructions", len(c.t), "errors", c.errs)
	return c.t, c.errs == 0
}
