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

// The brainthread command compiles and runs Brainfuck, PBrain, Brainfork and
// BrainThread programs.
//
// Usage:
//
//	brainthread [flags] source-file
//
//	-O level
//		  optimization level: 0 (none), 1 (peephole) or 2 (full) (default peephole)
//	-analyse
//		  run the static analyser before execution
//	-cells type
//		  cell type: u8, i8, u16, i16, u32 or i32 (default u8)
//	-config file
//		  settings file (default: brainthread.toml in the source directory or above)
//	-debug
//		  enable the # and @ debug operators and print stack traces on errors
//	-depth int
//		  maximum function call depth
//	-dialect dialect
//		  source dialect: auto, brainfuck, pbrain, brainfork or brainthread (default auto)
//	-dump
//		  print the compiled program and exit
//	-eof policy
//		  end of input policy: zero, minus-one or unchanged (default zero)
//	-heap int
//		  heap capacity
//	-input file
//		  read input from file instead of stdin
//	-log destination
//		  log destination: console, none, journal or a file name (default "console")
//	-memory behavior
//		  memory behavior: bounded, wrapping or dynamic (default bounded)
//	-noraw
//		  disable raw terminal IO
//	-output file
//		  write output to file instead of stdout
//	-repair
//		  let the analyser repair the program (implies -analyse)
//	-size int
//		  initial memory size in cells
//	-threads int
//		  maximum number of concurrent forked processes, 0 for no limit
//	-v	verbose logging
//	-with file
//		  feed file to the program before the standard input (can be specified multiple times)
//
// Settings are read from a TOML file named brainthread.toml, looked up in the
// directory of the source file and its parents, or from the file given with
// -config. Flags given on the command line override the file. A settings file
// looks like this:
//
//	dialect = "brainthread"
//	optimize = "full"
//	analyse = true
//
//	[memory]
//	cells = "u16"
//	behavior = "dynamic"
//	eof = "minus-one"
//
//	[limits]
//	threads = 64
//
//	[log]
//	dest = "brainthread.log"
//	verbose = true
//
// Diagnostics from the compiler, the analyser and the virtual machine are
// logged as they are reported. The exit status is 1 if any error was
// reported, 2 on usage errors and 130 when interrupted.
//
// -noraw: upon startup, brainthread switches the terminal to raw mode unless
// stdin has been redirected. In raw mode, ^D signals the end of input. This
// flag disables this behavior.
//
// -with: files are fed to the program in order of appearance on the command
// line, followed by the standard input or the -input file.
package main
