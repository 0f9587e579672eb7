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

package vm

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/pkg/errors"
)

// Input is the input stream shared by all processes of a run.
type Input interface {
	// ReadByte reads a single byte. It returns io.EOF at end of input.
	ReadByte() (byte, error)
	// ReadInt reads a base 10 integer, skipping leading white space. It
	// returns io.EOF at end of input and ErrFormat if the input does not
	// start with an integer.
	ReadInt() (int64, error)
}

// Output is the output stream shared by all processes of a run.
type Output interface {
	WriteByte(c byte) error
	// WriteInt writes v in base 10.
	WriteInt(v int64) error
	Flush() error
}

// ErrFormat is returned by Input.ReadInt when the input is not an integer.
var ErrFormat = errors.New("expected an integer")

type input struct {
	mu sync.Mutex
	r  *bufio.Reader
}

// NewInput returns an Input reading from r. Concurrent reads are serialized. A
// nil reader is always at end of input.
func NewInput(r io.Reader) Input {
	if r == nil {
		r = eofReader{}
	}
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &input{r: br}
}

type eofReader struct{}

func (eofReader) Read([]byte) (int, error) { return 0, io.EOF }

func (in *input) ReadByte() (byte, error) {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.r.ReadByte()
}

func (in *input) ReadInt() (int64, error) {
	in.mu.Lock()
	defer in.mu.Unlock()
	var v int64
	_, err := fmt.Fscan(in.r, &v)
	switch {
	case err == nil:
		return v, nil
	case err == io.EOF || err == io.ErrUnexpectedEOF:
		return 0, io.EOF
	}
	return 0, errors.Wrap(ErrFormat, "decimal read")
}

type output struct {
	mu  sync.Mutex
	w   *bufio.Writer
	buf []byte
}

// NewOutput returns an Output writing to w. Concurrent writes are serialized.
// Output is buffered and flushed after each newline, before each read and
// when the run completes. A nil writer discards all output.
func NewOutput(w io.Writer) Output {
	if w == nil {
		w = io.Discard
	}
	return &output{w: bufio.NewWriter(w)}
}

func (o *output) WriteByte(c byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.w.WriteByte(c); err != nil {
		return errors.Wrap(err, "write failed")
	}
	if c == '\n' {
		return errors.Wrap(o.w.Flush(), "flush failed")
	}
	return nil
}

func (o *output) WriteInt(v int64) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.buf = strconv.AppendInt(o.buf[:0], v, 10)
	_, err := o.w.Write(o.buf)
	return errors.Wrap(err, "write failed")
}

func (o *output) Flush() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return errors.Wrap(o.w.Flush(), "flush failed")
}
