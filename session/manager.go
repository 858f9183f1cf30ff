// Copyright (c) 2024, the clixon-core authors.
//
// SPDX-License-Identifier: LGPL-2.1-only

// Package session is session identity and lock attribution (spec.md
// §3): an authenticated caller identity with a monotonically assigned
// 32-bit id, used to attribute datastore locks. This is much simpler
// than the teacher's session package, which gives every session its
// own private candidate-tree actor — spec.md §3 makes running/
// candidate/startup/tmp/backup global named databases rather than
// per-session trees, so a session here is an identity, not a tree
// owner.
package session

import (
	"sync"
	"sync/atomic"

	"github.com/klement/clixon/errkind"
)

// Session is an authenticated caller identity.
type Session struct {
	ID   int32
	User string
}

// Manager allocates and tracks live sessions, protected by an
// RWMutex the way the teacher's SessionMgr protects its sessions map.
type Manager struct {
	mu       sync.RWMutex
	sessions map[int32]*Session
	next     int32
}

func NewManager() *Manager {
	return &Manager{sessions: make(map[int32]*Session)}
}

// Create allocates a fresh monotonic session id for user and tracks
// it.
func (m *Manager) Create(user string) *Session {
	id := atomic.AddInt32(&m.next, 1)
	s := &Session{ID: id, User: user}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[id] = s
	return s
}

// Get looks up a tracked session by id.
func (m *Manager) Get(id int32) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, errkind.NotFound("session")
	}
	return s, nil
}

// Destroy forgets id; idempotent.
func (m *Manager) Destroy(id int32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// Count reports the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
