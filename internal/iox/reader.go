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

import "io"

// ChainReader reads from a list of readers in sequence. Readers are closed as
// soon as they are exhausted if they implement io.Closer.
type ChainReader struct {
	readers []io.Reader
}

// NewChainReader returns a ChainReader reading from rs in order.
func NewChainReader(rs ...io.Reader) *ChainReader {
	return &ChainReader{append([]io.Reader(nil), rs...)}
}

func (cr *ChainReader) Read(p []byte) (n int, err error) {
	for len(cr.readers) > 0 {
		n, err = cr.readers[0].Read(p)
		if n > 0 || err != io.EOF {
			if err == io.EOF {
				// Don't return EOF yet. There may be more bytes
				// in the remaining readers.
				err = nil
			}
			return
		}
		if c, ok := cr.readers[0].(io.Closer); ok {
			c.Close()
		}
		cr.readers = cr.readers[1:]
	}
	return 0, io.EOF
}

// Push makes r the next reader to read from.
func (cr *ChainReader) Push(r io.Reader) {
	cr.readers = append([]io.Reader{r}, cr.readers...)
}

// Close closes all remaining readers that implement io.Closer and returns the
// first error encountered.
func (cr *ChainReader) Close() error {
	var err error
	for _, r := range cr.readers {
		if c, ok := r.(io.Closer); ok {
			if e := c.Close(); e != nil && err == nil {
				err = e
			}
		}
	}
	cr.readers = nil
	return err
}

// EOTReader returns io.EOF when it reads an end of transmission byte (ASCII
// 0x04). Terminals in raw mode do not translate CTRL-D themselves.
type EOTReader struct {
	R   io.Reader
	eot bool
}

func (r *EOTReader) Read(p []byte) (int, error) {
	if r.eot {
		return 0, io.EOF
	}
	n, err := r.R.Read(p)
	for i := 0; i < n; i++ {
		if p[i] == 4 {
			r.eot = true
			return i, nil
		}
	}
	return n, err
}
