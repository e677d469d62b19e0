// Copyright 2025 Emiliano Spinella (eminwux)
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
//
// SPDX-License-Identifier: Apache-2.0

package sessionstore

import (
	"fmt"
	"sort"
	"sync"

	"github.com/eminwux/jlab/internal/errdefs"
	"github.com/eminwux/jlab/pkg/api"
)

// SessionStore keeps the known sessions keyed by origin. A later Put for
// the same origin replaces the earlier session.
type SessionStore interface {
	Put(s *api.Session) error
	Get(origin string) (*api.Session, bool)
	List() []*api.Session
	Remove(origin string)
	Merge(sessions []*api.Session) int
}

type Exec struct {
	mu       sync.RWMutex
	sessions map[string]*api.Session
}

func NewSessionStoreExec() SessionStore {
	return &Exec{
		sessions: make(map[string]*api.Session),
	}
}

func (m *Exec) Put(s *api.Session) error {
	if s == nil || s.Key() == "" {
		return fmt.Errorf("%w: session has no origin", errdefs.ErrInvalidURL)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.Key()] = s
	return nil
}

func (m *Exec) Get(origin string) (*api.Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[origin]
	return s, ok
}

func (m *Exec) List() []*api.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*api.Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}

func (m *Exec) Remove(origin string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, origin)
}

// Merge puts every session that has an origin and returns how many were
// stored. Sessions without one are skipped.
func (m *Exec) Merge(sessions []*api.Session) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range sessions {
		if s == nil || s.Key() == "" {
			continue
		}
		m.sessions[s.Key()] = s
		n++
	}
	return n
}
