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
	"io"
	"os"

	"github.com/pkg/errors"
)

// DefaultMaxSize is the default maximum size in bytes of a source file.
const DefaultMaxSize = 1 << 26

// Load reads the source file fileName. It fails if the file is larger than
// maxSize bytes. A maxSize <= 0 selects DefaultMaxSize.
func Load(fileName string, maxSize int64) ([]byte, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	f, err := os.Open(fileName)
	if err != nil {
		return nil, errors.Wrap(err, "Load")
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return nil, errors.Wrap(err, "Load")
	}
	if st.IsDir() {
		return nil, errors.Errorf("Load %v: is a directory", fileName)
	}
	if st.Size() > maxSize {
		return nil, errors.Errorf("Load %v: file too large (%d bytes, max %d)", fileName, st.Size(), maxSize)
	}
	// the file may grow between Stat and ReadAll.
	src, err := io.ReadAll(io.LimitReader(f, maxSize+1))
	if err != nil {
		return nil, errors.Wrap(err, "Load")
	}
	if int64(len(src)) > maxSize {
		return nil, errors.Errorf("Load %v: file too large", fileName)
	}
	return src, nil
}
