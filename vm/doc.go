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

// Package vm implements the brainthread virtual machine.
//
// An Interpreter executes a Tape of instructions produced by the compiler
// package. Every Tape is executed by a root process which may fork child
// processes. Each process owns a private copy of its parent's memory tape,
// local heap and function table, and all processes of a run share a single
// shared heap.
//
// The cell type is selected at run time with the Width option. Memory tapes
// are bounded, wrapping or dynamic (growing on the right) as set by the
// MemoryBehavior option.
//
// Runtime faults terminate the faulting process only. Each fault is reported
// exactly once to the interpreter's diagnostics sink. Run returns once every
// process has terminated.
//
// The PC is incremented in a single place at the end of the dispatch loop.
// Jumps therefore set the PC to the target instruction, and the loop steps
// over it.
package vm
