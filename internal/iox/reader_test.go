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

package iox

import (
	"io"
	"strings"
	"testing"
)

type closeCounter struct {
	io.Reader
	closed *int
}

func (c closeCounter) Close() error { *c.closed++; return nil }

func TestChainReader(t *testing.T) {
	var closed int
	cr := NewChainReader(
		closeCounter{strings.NewReader("abc"), &closed},
		strings.NewReader(""),
		closeCounter{strings.NewReader("def"), &closed},
	)
	cr.Push(strings.NewReader(">"))
	b, err := io.ReadAll(cr)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != ">abcdef" {
		t.Fatalf("got %q, expected %q", b, ">abcdef")
	}
	if closed != 2 {
		t.Fatalf("%d readers closed, expected 2", closed)
	}
}

func TestChainReaderClose(t *testing.T) {
	var closed int
	cr := NewChainReader(closeCounter{strings.NewReader("abc"), &closed}, closeCounter{strings.NewReader("def"), &closed})
	if err := cr.Close(); err != nil {
		t.Fatal(err)
	}
	if closed != 2 {
		t.Fatalf("%d readers closed, expected 2", closed)
	}
	if n, err := cr.Read(make([]byte, 4)); n != 0 || err != io.EOF {
		t.Fatalf("read after close: %d, %v", n, err)
	}
}

func TestEOTReader(t *testing.T) {
	r := &EOTReader{R: strings.NewReader("ab\x04cd")}
	b, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "ab" {
		t.Fatalf("got %q, expected %q", b, "ab")
	}
}
