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

package main

import (
	"encoding"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/db47h/brainthread/analysis"
	"github.com/db47h/brainthread/compiler"
	"github.com/db47h/brainthread/diag"
	"github.com/db47h/brainthread/internal/config"
	"github.com/db47h/brainthread/internal/iox"
	"github.com/db47h/brainthread/internal/logs"
	"github.com/db47h/brainthread/vm"
	"github.com/pkg/errors"
	"golang.org/x/term"
)

type fileList []string

func (f *fileList) String() string     { return "" }
func (f *fileList) Set(s string) error { *f = append(*f, s); return nil }
func (f *fileList) Get() interface{}   { return *f }

// textValue adapts the enum types of the compiler and vm packages to
// flag.Value.
type textValue struct {
	v interface {
		encoding.TextUnmarshaler
		fmt.Stringer
	}
}

func (t textValue) String() string {
	if t.v == nil {
		return ""
	}
	return t.v.String()
}
func (t textValue) Set(s string) error { return t.v.UnmarshalText([]byte(s)) }

// bind defines the flags that override settings on fs.
func bind(fs *flag.FlagSet, s *config.Settings) {
	fs.Var(textValue{&s.Dialect}, "dialect", "source `dialect`: auto, brainfuck, pbrain, brainfork or brainthread")
	fs.Var(textValue{&s.Optimize}, "O", "optimization `level`: 0 (none), 1 (peephole) or 2 (full)")
	fs.BoolVar(&s.Analyse, "analyse", s.Analyse, "run the static analyser before execution")
	fs.BoolVar(&s.Repair, "repair", s.Repair, "let the analyser repair the program (implies -analyse)")
	fs.BoolVar(&s.Debug, "debug", s.Debug, "enable the # and @ debug operators and print stack traces on errors")
	fs.Var(textValue{&s.Memory.Cells}, "cells", "cell `type`: u8, i8, u16, i16, u32 or i32")
	fs.Var(textValue{&s.Memory.Behavior}, "memory", "memory `behavior`: bounded, wrapping or dynamic")
	fs.Var(textValue{&s.Memory.EOF}, "eof", "end of input `policy`: zero, minus-one or unchanged")
	fs.IntVar(&s.Memory.Size, "size", s.Memory.Size, "initial memory size in cells")
	fs.IntVar(&s.Limits.Heap, "heap", s.Limits.Heap, "heap capacity")
	fs.IntVar(&s.Limits.Depth, "depth", s.Limits.Depth, "maximum function call depth")
	fs.IntVar(&s.Limits.Threads, "threads", s.Limits.Threads, "maximum number of concurrent forked processes, 0 for no limit")
	fs.StringVar(&s.Log.Dest, "log", s.Log.Dest, "log `destination`: console, none, journal or a file name")
	fs.BoolVar(&s.Log.Verbose, "v", s.Log.Verbose, "verbose logging")
}

type options struct {
	configFile string
	inFile     string
	outFile    string
	withFiles  fileList
	dump       bool
	noRawIO    bool
	source     string
	// flags explicitly set on the command line
	set map[string]string
}

func parseArgs(args []string, stderr io.Writer) (*options, error) {
	o := &options{set: make(map[string]string)}
	fs := flag.NewFlagSet("brainthread", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: brainthread [flags] source-file\n")
		fs.PrintDefaults()
	}
	bind(fs, config.Default())
	fs.StringVar(&o.configFile, "config", "", "settings `file` (default: brainthread.toml in the source directory or above)")
	fs.StringVar(&o.inFile, "input", "", "read input from `file` instead of stdin")
	fs.StringVar(&o.outFile, "output", "", "write output to `file` instead of stdout")
	fs.Var(&o.withFiles, "with", "feed `file` to the program before the standard input (can be specified multiple times)")
	fs.BoolVar(&o.dump, "dump", false, "print the compiled program and exit")
	fs.BoolVar(&o.noRawIO, "noraw", false, "disable raw terminal IO")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return nil, errors.New("expected exactly one source file")
	}
	o.source = fs.Arg(0)
	fs.Visit(func(f *flag.Flag) { o.set[f.Name] = f.Value.String() })
	return o, nil
}

// settings loads the settings file and applies command line overrides.
func (o *options) settings() (*config.Settings, error) {
	var s *config.Settings
	var err error
	if o.configFile != "" {
		s, err = config.Load(o.configFile)
	} else {
		s, err = config.FindAndLoad(filepath.Dir(o.source))
	}
	if err != nil {
		return nil, err
	}
	fs := flag.NewFlagSet("settings", flag.ContinueOnError)
	bind(fs, s)
	for name, v := range o.set {
		if fs.Lookup(name) == nil {
			continue
		}
		if err = fs.Set(name, v); err != nil {
			return nil, errors.Wrapf(err, "flag -%s", name)
		}
	}
	if s.Repair {
		s.Analyse = true
	}
	return s, nil
}

// idSpace returns the number of function ids for cells of width w.
func idSpace(w vm.CellWidth) int {
	switch w {
	case vm.U8, vm.I8:
		return 1 << 8
	case vm.U16, vm.I16:
		return 1 << 16
	}
	return int(^uint32(0)>>1) + 1
}

func setupIO(o *options, stdin io.Reader, stdout io.Writer) (in io.Reader, out io.Writer, tearDown func(), err error) {
	tearDown = func() {}
	if o.inFile != "" {
		f, err := os.Open(o.inFile)
		if err != nil {
			return nil, nil, tearDown, errors.Wrap(err, "cannot open input")
		}
		in = f
	} else {
		in = stdin
		// try to switch the input terminal to raw mode.
		if f, ok := stdin.(*os.File); ok && !o.noRawIO && term.IsTerminal(int(f.Fd())) {
			if restore, err := setRawIO(); err == nil {
				tearDown = restore
				in = &iox.EOTReader{R: f}
			}
		}
	}
	cr := iox.NewChainReader(in)
	// push -with files in reverse order so that they are read in order of
	// appearance on the command line.
	for n := len(o.withFiles) - 1; n >= 0; n-- {
		f, err := os.Open(o.withFiles[n])
		if err != nil {
			cr.Close()
			tearDown()
			return nil, nil, func() {}, errors.Wrap(err, "cannot open input")
		}
		cr.Push(f)
	}
	out = stdout
	if o.outFile != "" {
		f, err := os.Create(o.outFile)
		if err != nil {
			cr.Close()
			tearDown()
			return nil, nil, func() {}, errors.Wrap(err, "cannot create output")
		}
		out = f
		restore := tearDown
		tearDown = func() {
			f.Close()
			restore()
		}
	}
	restore := tearDown
	tearDown = func() {
		cr.Close()
		restore()
	}
	return cr, out, tearDown, nil
}

// run runs the command and returns the exit status.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) (status int) {
	o, err := parseArgs(args, stderr)
	if err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		fmt.Fprintf(stderr, "%v\n", err)
		return 2
	}
	s, err := o.settings()
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 2
	}
	// check exit condition
	defer func() {
		if err == nil {
			return
		}
		if !s.Debug {
			fmt.Fprintf(stderr, "%v\n", err)
		} else {
			fmt.Fprintf(stderr, "%+v\n", err)
		}
		status = 1
	}()

	if s.Log.Verbose {
		logs.Level.Set(slog.LevelDebug)
	}
	logger, closer, err := logs.New(s.Log.Dest, stderr)
	if err != nil {
		return 1
	}
	defer closer.Close()
	if s.Path != "" {
		logger.Debug("settings loaded", "file", s.Path)
	}
	sink := newPrinter(logger)

	src, err := compiler.Load(o.source, s.Limits.MaxSource)
	if err != nil {
		return 1
	}
	tape, ok := compiler.Compile(src,
		compiler.WithDialect(s.Dialect),
		compiler.Optimize(s.Optimize),
		compiler.Debug(s.Debug),
		compiler.MaxLength(s.Limits.MaxLength),
		compiler.Diagnostics(sink),
		compiler.Logger(logger))
	if !ok {
		return 1
	}
	if s.Analyse {
		r := analysis.Analyse(&tape, s.Repair,
			analysis.Diagnostics(sink),
			analysis.Logger(logger),
			analysis.FunctionIDs(idSpace(s.Memory.Cells)))
		logger.Info("analysis complete",
			"errors", r.Errors,
			"warnings", r.Warnings,
			"repairs", r.Repairs)
		if !r.Valid {
			return 1
		}
	}
	if o.dump {
		err = dumpTape(tape, stdout)
		return sink.status()
	}

	in, w, tearDown, err := setupIO(o, stdin, stdout)
	if err != nil {
		return 1
	}
	defer tearDown()
	out := vm.NewOutput(w)
	opts := []vm.Option{
		vm.Streams(vm.NewInput(in), out),
		vm.Width(s.Memory.Cells),
		vm.MemoryBehavior(s.Memory.Behavior),
		vm.EOF(s.Memory.EOF),
		vm.MemorySize(s.Memory.Size),
		vm.HeapSize(s.Limits.Heap),
		vm.CallDepth(s.Limits.Depth),
		vm.MaxThreads(s.Limits.Threads),
		vm.Diagnostics(sink),
		vm.Logger(logger),
	}
	if s.Debug {
		opts = append(opts, vm.DebugOutput(stderr))
	}
	i, err := vm.New(tape, opts...)
	if err != nil {
		return 1
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	defer signal.Stop(sigs)
	go func() {
		if _, ok := <-sigs; !ok {
			return
		}
		sink.Report(diag.New(diag.Interrupted, -1, "run "+i.RunID()))
		out.Flush()
		tearDown()
		closer.Close()
		os.Exit(130)
	}()

	if err = i.Run(); err != nil {
		return 1
	}
	logger.Debug("run complete", "processes", i.Processes(), "faults", i.Faults())
	return sink.status()
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
