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
	"context"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/db47h/brainthread/compiler"
	"github.com/db47h/brainthread/diag"
	"github.com/db47h/brainthread/vm"
)

// printer is a diag.Sink that logs messages as they are reported and keeps
// track of errors.
type printer struct {
	l      *slog.Logger
	errors atomic.Int64
}

func newPrinter(l *slog.Logger) *printer {
	return &printer{l: l}
}

var levels = [...]slog.Level{
	diag.Info:    slog.LevelInfo,
	diag.Warning: slog.LevelWarn,
	diag.Error:   slog.LevelError,
}

func (p *printer) Report(m diag.Message) {
	sev := m.Code.Severity()
	if sev == diag.Error {
		p.errors.Add(1)
	}
	attrs := []slog.Attr{slog.Int("code", int(m.Code))}
	if m.Pos >= 0 {
		attrs = append(attrs, slog.Int("pos", m.Pos))
	}
	if m.Text != "" {
		attrs = append(attrs, slog.String("detail", m.Text))
	}
	p.l.LogAttrs(context.Background(), levels[sev], m.Code.String(), attrs...)
}

// status returns the exit status matching the reported diagnostics.
func (p *printer) status() int {
	if p.errors.Load() > 0 {
		return 1
	}
	return 0
}

// dumpTape writes the disassembled tape to w.
func dumpTape(t vm.Tape, w io.Writer) error {
	return compiler.DisassembleAll(t, w)
}
