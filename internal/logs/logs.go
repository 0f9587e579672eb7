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

// Package logs builds the loggers used by the brainthread command.
package logs

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path"
	"strings"
	"time"

	"github.com/pkg/errors"
	slogmulti "github.com/samber/slog-multi"
	slogjournal "github.com/systemd/slog-journal"
)

// Log destinations. Any other destination is a file name.
const (
	Console = "console"
	None    = "none"
	Journal = "journal"
)

// Level is the level of all loggers returned by New.
var Level = new(slog.LevelVar)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New returns a logger writing to dest. The console destination writes to
// console, and also to the systemd journal when running as a systemd service.
// The returned io.Closer must be closed when the logger is no longer used.
func New(dest string, console io.Writer) (*slog.Logger, io.Closer, error) {
	opts := &slog.HandlerOptions{Level: Level}
	switch dest {
	case None:
		return slog.New(slog.NewTextHandler(io.Discard, opts)), nopCloser{}, nil
	case Journal:
		h, err := journalHandler()
		if err != nil {
			return nil, nil, err
		}
		return slog.New(h), nopCloser{}, nil
	case Console, "":
		var handlers []slog.Handler
		var term slog.Handler
		if !isSystemdService() {
			term = slog.NewTextHandler(console, opts)
			handlers = append(handlers, term)
		}
		if h, err := journalHandler(); err == nil {
			handlers = append(handlers, h)
		} else if term != nil && term.Enabled(context.Background(), slog.LevelDebug) {
			record := slog.NewRecord(time.Now(), slog.LevelDebug, "systemd journal not available", 0)
			record.Add("error", err)
			_ = term.Handle(context.Background(), record)
		}
		return slog.New(slogmulti.Fanout(handlers...)), nopCloser{}, nil
	}
	f, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, errors.Wrap(err, "cannot open log file")
	}
	return slog.New(slog.NewTextHandler(f, opts)), f, nil
}

func journalHandler() (slog.Handler, error) {
	h, err := slogjournal.NewHandler(&slogjournal.Options{
		Level: Level,
		ReplaceGroup: func(key string) string {
			return toJournalKey(key)
		},
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			a.Key = toJournalKey(a.Key)
			return a
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "new systemd journal handler")
	}
	return h, nil
}

func toJournalKey(str string) string {
	str = strings.ToUpper(str)
	return strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' ||
			r >= '0' && r <= '9' {
			return r
		}
		return '_'
	}, str)
}

func isSystemdService() bool {
	content, err := os.ReadFile("/proc/self/cgroup")
	if err != nil {
		return false
	}
	parts := strings.Split(strings.TrimSpace(string(content)), ":")
	return len(parts) >= 3 && strings.HasSuffix(path.Dir(parts[2]), ".service")
}
