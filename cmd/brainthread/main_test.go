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
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/db47h/brainthread/compiler"
	"github.com/db47h/brainthread/vm"
)

func assertEqual(t *testing.T, name string, expected, got interface{}) {
	t.Helper()
	if expected != got {
		t.Errorf("%s: expected %v, got %v", name, expected, got)
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCmd(t *testing.T, stdin string, args ...string) (status int, stdout, stderr string) {
	t.Helper()
	var o, e bytes.Buffer
	status = run(append([]string{"-noraw", "-log", "none"}, args...), strings.NewReader(stdin), &o, &e)
	return status, o.String(), e.String()
}

func TestRun_hello(t *testing.T) {
	src := writeFile(t, t.TempDir(), "hello.b", "++++++++[>++++++++<-]>+.")
	status, out, _ := runCmd(t, "", src)
	assertEqual(t, "status", 0, status)
	assertEqual(t, "output", "A", out)
}

func TestRun_with(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "cat.b", ",.,.,.")
	a := writeFile(t, dir, "a.txt", "A")
	b := writeFile(t, dir, "b.txt", "B")
	status, out, _ := runCmd(t, "C", "-with", a, "-with", b, src)
	assertEqual(t, "status", 0, status)
	assertEqual(t, "output", "ABC", out)
}

func TestRun_settings(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "brainthread.toml", `
[memory]
cells = "i8"
eof = "minus-one"
`)
	sub := filepath.Join(dir, "src")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	src := writeFile(t, sub, "eof.bt", "+++,=")

	status, out, _ := runCmd(t, "", src)
	assertEqual(t, "status", 0, status)
	assertEqual(t, "settings file", "-1", out)

	status, out, _ = runCmd(t, "", "-eof", "unchanged", src)
	assertEqual(t, "status", 0, status)
	assertEqual(t, "flag override", "3", out)
}

func TestSettings_precedence(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "custom.toml", `
optimize = "full"
dialect = "pbrain"

[limits]
threads = 3
`)
	o, err := parseArgs([]string{"-config", cfg, "-O", "0", "-repair", "prog.b"}, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	s, err := o.settings()
	if err != nil {
		t.Fatal(err)
	}
	assertEqual(t, "source", "prog.b", o.source)
	assertEqual(t, "optimize", compiler.None, s.Optimize)
	assertEqual(t, "dialect", compiler.PBrain, s.Dialect)
	assertEqual(t, "threads", 3, s.Limits.Threads)
	assertEqual(t, "repair", true, s.Repair)
	assertEqual(t, "analyse", true, s.Analyse)
	assertEqual(t, "cells", vm.U8, s.Memory.Cells)
}

func TestParseArgs_errors(t *testing.T) {
	for _, args := range [][]string{
		{},
		{"a.b", "b.b"},
		{"-cells", "u64", "a.b"},
		{"-O", "3", "a.b"},
	} {
		if _, err := parseArgs(args, io.Discard); err == nil {
			t.Errorf("%v: expected error", args)
		}
	}
}

func TestRun_compileError(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "bad.b", "+[")
	log := filepath.Join(dir, "bt.log")
	var o, e bytes.Buffer
	status := run([]string{"-noraw", "-log", log, src}, strings.NewReader(""), &o, &e)
	assertEqual(t, "status", 1, status)
	data, err := os.ReadFile(log)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "unmatched loop begin") {
		t.Errorf("unexpected log content:\n%s", data)
	}
}

func TestRun_fault(t *testing.T) {
	src := writeFile(t, t.TempDir(), "left.b", "<")
	status, _, _ := runCmd(t, "", src)
	assertEqual(t, "status", 1, status)
}

func TestRun_repair(t *testing.T) {
	src := writeFile(t, t.TempDir(), "loop.b", "+++[[-]]=")
	status, out, _ := runCmd(t, "", "-dialect", "brainthread", "-repair", "-dump", src)
	assertEqual(t, "status", 0, status)
	if strings.Contains(out, "[ -> 5") || !strings.Contains(out, "[ -> 3") {
		t.Errorf("unexpected dump:\n%s", out)
	}
}

func TestRun_missingSource(t *testing.T) {
	status, _, e := runCmd(t, "", filepath.Join(t.TempDir(), "nope.b"))
	assertEqual(t, "status", 1, status)
	if e == "" {
		t.Error("expected an error message")
	}
}
