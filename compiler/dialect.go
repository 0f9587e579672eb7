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
	"bytes"
	"strconv"

	"github.com/db47h/brainthread/vm"
	"github.com/pkg/errors"
)

// Dialect selects the grammar used to compile a program.
type Dialect int

// Supported dialects. Auto selects a dialect with Detect.
const (
	Auto Dialect = iota
	Brainfuck
	PBrain
	Brainfork
	BrainThread
)

var dialects = [...]string{"auto", "brainfuck", "pbrain", "brainfork", "brainthread"}

func (d Dialect) String() string {
	if d >= 0 && int(d) < len(dialects) {
		return dialects[d]
	}
	return "dialect(" + strconv.Itoa(int(d)) + ")"
}

// UnmarshalText parses a dialect name.
func (d *Dialect) UnmarshalText(text []byte) error {
	s := string(bytes.ToLower(text))
	for i, n := range dialects {
		if n == s {
			*d = Dialect(i)
			return nil
		}
	}
	return errors.Errorf("unknown dialect %q", text)
}

// grammar maps source characters to opcodes.
type grammar map[byte]vm.Op

var (
	base = grammar{
		'>': vm.OpRight,
		'<': vm.OpLeft,
		'+': vm.OpInc,
		'-': vm.OpDec,
		'.': vm.OpWrite,
		',': vm.OpRead,
		'[': vm.OpLoopBegin,
		']': vm.OpLoopEnd,
	}
	functions = grammar{
		'(': vm.OpFuncBegin,
		')': vm.OpFuncEnd,
		':': vm.OpCall,
	}
	threads = grammar{
		'{': vm.OpFork,
		'}': vm.OpJoin,
		'!': vm.OpTerminate,
		'&': vm.OpPush,
		'^': vm.OpPop,
		'~': vm.OpSwap,
		'*': vm.OpShared,
		'=': vm.OpWriteDec,
		'?': vm.OpReadDec,
	}
)

func merge(gs ...grammar) grammar {
	r := make(grammar)
	for _, g := range gs {
		for c, op := range g {
			r[c] = op
		}
	}
	return r
}

// grammarOf returns the grammar of dialect d. Auto must have been resolved.
func grammarOf(d Dialect, debug bool) grammar {
	var g grammar
	switch d {
	case PBrain:
		g = merge(base, functions)
	case Brainfork:
		g = merge(base, grammar{'Y': vm.OpFork})
	case BrainThread:
		g = merge(base, functions, threads)
	default:
		g = merge(base)
	}
	if debug {
		g['#'] = vm.OpDumpMemory
		if d == BrainThread {
			g['@'] = vm.OpDumpHeap
		}
	}
	return g
}

// Detect guesses the dialect of src. The guess is heuristic and may
// misclassify programs that use comment characters which happen to be
// operators in another dialect.
//
// The rules are applied in order:
//
//   - any heap operator, or a fork followed later by a join: BrainThread
//   - a Y immediately followed by a loop: Brainfork, or BrainThread if
//     functions are also present
//   - all of the function operators are present: PBrain
//   - otherwise BrainThread, the most permissive grammar
func Detect(src []byte) Dialect {
	fns := bytes.IndexByte(src, '(') >= 0 && bytes.IndexByte(src, ')') >= 0 && bytes.IndexByte(src, ':') >= 0
	if bytes.ContainsAny(src, "&^~") {
		return BrainThread
	}
	if f := bytes.IndexByte(src, '{'); f >= 0 && bytes.IndexByte(src[f:], '}') >= 0 {
		return BrainThread
	}
	if bytes.Contains(src, []byte("Y[")) {
		if fns {
			return BrainThread
		}
		return Brainfork
	}
	if fns {
		return PBrain
	}
	return BrainThread
}
