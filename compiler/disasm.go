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
	"fmt"
	"io"

	"github.com/db47h/brainthread/internal/iox"
	"github.com/db47h/brainthread/vm"
)

// Disassemble writes a disassembly of the instruction at position pc to the
// specified io.Writer and returns the position of the next instruction and any
// write error.
func Disassemble(t vm.Tape, pc int, w io.Writer) (next int, err error) {
	ew, _ := w.(*iox.ErrWriter)
	if ew == nil {
		ew = iox.NewErrWriter(w)
	}
	if pc < 0 || pc >= len(t) {
		io.WriteString(ew, "???")
		return pc + 1, ew.Err
	}
	io.WriteString(ew, t[pc].String())
	return pc + 1, ew.Err
}

// DisassembleAll writes a disassembly of all instructions in t to the
// specified io.Writer, one per line. It will return any write error.
func DisassembleAll(t vm.Tape, w io.Writer) error {
	ew := iox.NewErrWriter(w)
	for pc := 0; pc < len(t); {
		fmt.Fprintf(ew, "% 10d\t", pc)
		pc, _ = Disassemble(t, pc, ew)
		ew.Write([]byte{'\n'})
		if ew.Err != nil {
			return ew.Err
		}
	}
	return nil
}
