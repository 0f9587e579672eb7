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
	"bytes"
	"errors"
	"testing"
)

type failWriter int

var errFail = errors.New("fail")

func (f *failWriter) Write(p []byte) (int, error) {
	if *f == 0 {
		return 0, errFail
	}
	*f--
	return len(p), nil
}

func TestErrWriter(t *testing.T) {
	f := failWriter(1)
	w := NewErrWriter(&f)
	if _, err := w.WriteString("ok"); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if _, err := w.WriteString("ko"); err == nil {
		t.Fatal("expected error on second write")
	}
	f = 10
	if n, err := w.WriteString("again"); n != 0 || err == nil {
		t.Fatalf("error not sticky: n=%d, err=%v", n, err)
	}
	if !errors.Is(w.Err, errFail) {
		t.Fatalf("got %v, expected wrapped %v", w.Err, errFail)
	}
}

func TestAppendInts(t *testing.T) {
	data := []struct {
		a    []int64
		mark int
		want string
	}{
		{nil, 0, ""},
		{[]int64{1}, 0, "[1]"},
		{[]int64{1, -2, 3}, 1, "1 [-2] 3"},
		{[]int64{1, 2, 3}, -1, "1 2 3"},
		{[]int64{1, 2, 3}, 3, "1 2 3"},
	}
	for _, d := range data {
		got := AppendInts(nil, d.a, d.mark)
		if !bytes.Equal(got, []byte(d.want)) {
			t.Errorf("AppendInts(%v, %d) = %q, expected %q", d.a, d.mark, got, d.want)
		}
	}
}
