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
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Proc is the view of a process exposed by a Monitor.
type Proc interface {
	ID() uint64
	State() State
}

// Monitor tracks the live processes of a run and bounds the number of
// concurrently running forked processes.
type Monitor struct {
	g      errgroup.Group
	ids    atomic.Uint64
	mu     sync.Mutex
	live   map[uint64]Proc
	logger *slog.Logger
}

func newMonitor(limit int, logger *slog.Logger) *Monitor {
	m := &Monitor{live: make(map[uint64]Proc), logger: logger}
	if limit <= 0 {
		limit = -1
	}
	m.g.SetLimit(limit)
	return m
}

// newID returns a new process id.
func (m *Monitor) newID() uint64 { return m.ids.Add(1) }

// register adds p to the live set. p.ID() must not change afterwards.
func (m *Monitor) register(p Proc) {
	m.mu.Lock()
	m.live[p.ID()] = p
	m.mu.Unlock()
}

func (m *Monitor) unregister(id uint64) {
	m.mu.Lock()
	delete(m.live, id)
	m.mu.Unlock()
}

// spawn runs fn on a new goroutine. It never blocks: if the process limit is
// reached, the process with the given id is dropped and ErrResourceExhausted
// is returned.
func (m *Monitor) spawn(id uint64, fn func()) error {
	ok := m.g.TryGo(func() (err error) {
		defer func() {
			if e := recover(); e != nil {
				m.unregister(id)
				err = errors.Errorf("process %d: panic: %v", id, e)
			}
		}()
		fn()
		return nil
	})
	if !ok {
		m.unregister(id)
		m.logger.Debug("spawn refused", "proc", id)
		return errors.Wrapf(ErrResourceExhausted, "cannot start process %d", id)
	}
	return nil
}

// Live returns the processes still running, sorted by id.
func (m *Monitor) Live() []Proc {
	m.mu.Lock()
	ps := make([]Proc, 0, len(m.live))
	for _, p := range m.live {
		ps = append(ps, p)
	}
	m.mu.Unlock()
	sort.Slice(ps, func(i, j int) bool { return ps[i].ID() < ps[j].ID() })
	return ps
}

// Wait blocks until all spawned processes have returned.
func (m *Monitor) Wait() error {
	err := m.g.Wait()
	if ps := m.Live(); len(ps) > 0 {
		return errors.Errorf("%d processes still registered after wait", len(ps))
	}
	return err
}
