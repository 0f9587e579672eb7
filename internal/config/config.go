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

// Package config handles brainthread.toml settings files.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/db47h/brainthread/compiler"
	"github.com/db47h/brainthread/vm"
	"github.com/pkg/errors"
)

// FileName is the name of settings files.
const FileName = "brainthread.toml"

// Settings holds the settings of the brainthread command.
type Settings struct {
	Dialect  compiler.Dialect `toml:"dialect"`
	Optimize compiler.Level   `toml:"optimize"`
	Analyse  bool             `toml:"analyse"`
	Repair   bool             `toml:"repair"`
	Debug    bool             `toml:"debug"`
	Memory   Memory           `toml:"memory"`
	Limits   Limits           `toml:"limits"`
	Log      Log              `toml:"log"`

	// Path is the settings file, if any (set at load time).
	Path string `toml:"-"`
}

// Memory configures memory tapes.
type Memory struct {
	Cells    vm.CellWidth `toml:"cells"`
	Behavior vm.Behavior  `toml:"behavior"`
	EOF      vm.EOFPolicy `toml:"eof"`
	Size     int          `toml:"size"`
}

// Limits configures resource limits.
type Limits struct {
	Heap      int   `toml:"heap"`
	Depth     int   `toml:"depth"`
	Threads   int   `toml:"threads"`
	MaxLength int   `toml:"max-length"`
	MaxSource int64 `toml:"max-source"`
}

// Log configures logging.
type Log struct {
	Dest    string `toml:"dest"`
	Verbose bool   `toml:"verbose"`
}

// Default returns the default settings.
func Default() *Settings {
	return &Settings{
		Dialect:  compiler.Auto,
		Optimize: compiler.Peephole,
		Memory: Memory{
			Cells:    vm.U8,
			Behavior: vm.Bounded,
			EOF:      vm.EOFZero,
			Size:     vm.DefaultMemorySize,
		},
		Limits: Limits{
			Heap:      vm.DefaultHeapSize,
			Depth:     vm.DefaultCallDepth,
			Threads:   vm.DefaultMaxThreads,
			MaxLength: compiler.DefaultMaxLength,
			MaxSource: compiler.DefaultMaxSize,
		},
		Log: Log{Dest: "console"},
	}
}

// Load parses the settings file at path. Settings not present in the file
// keep their default value. Unknown keys are an error.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "cannot read settings")
	}
	s := Default()
	md, err := toml.Decode(string(data), s)
	if err != nil {
		return nil, errors.Wrapf(err, "parse error in %s", path)
	}
	if u := md.Undecoded(); len(u) > 0 {
		keys := make([]string, len(u))
		for i, k := range u {
			keys[i] = k.String()
		}
		return nil, errors.Errorf("%s: unknown settings %s", path, strings.Join(keys, ", "))
	}
	if s.Path, err = filepath.Abs(path); err != nil {
		return nil, errors.Wrapf(err, "cannot resolve path %s", path)
	}
	return s, nil
}

// FindAndLoad walks up from startDir to find a settings file, then loads and
// returns it. It returns the default settings if no file is found.
func FindAndLoad(startDir string) (*Settings, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, errors.Wrap(err, "cannot resolve settings directory")
	}
	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return Default(), nil
		}
		dir = parent
	}
}
