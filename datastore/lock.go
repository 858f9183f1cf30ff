// Copyright (c) 2024, the clixon-core authors.
//
// SPDX-License-Identifier: LGPL-2.1-only

package datastore

import (
	"time"

	"github.com/klement/clixon/errkind"
)

// Lock attempts to lock db on behalf of sid, failing with a
// LockDeniedError naming the current holder if already held by a
// different session (spec.md §4.1 lock()).
func (s *Store) Lock(db Name, sid int32) error {
	var err error
	s.do(func() {
		e, ok := s.dbs[db]
		if !ok {
			e = &entry{}
			s.dbs[db] = e
		}
		if e.locked != nil && e.locked.holder != sid {
			err = errkind.Lock(string(db), e.locked.holder)
			return
		}
		e.locked = &lockInfo{holder: sid, at: time.Now()}
	})
	return err
}

// Unlock releases db's lock if held by sid; unlocking an unlocked or
// differently-held database is a no-op, matching the teacher's
// idempotent unlock behavior.
func (s *Store) Unlock(db Name, sid int32) {
	s.do(func() {
		e, ok := s.dbs[db]
		if !ok || e.locked == nil || e.locked.holder != sid {
			return
		}
		e.locked = nil
	})
}

// UnlockAll releases every lock held by sid, the way the teacher's
// SessionMgr.UnlockAllPid releases every lock a disconnecting
// connection's session held.
func (s *Store) UnlockAll(sid int32) {
	s.do(func() {
		for _, e := range s.dbs {
			if e.locked != nil && e.locked.holder == sid {
				e.locked = nil
			}
		}
	})
}

// IsLocked reports the session id holding db's lock, if any.
func (s *Store) IsLocked(db Name) (sid int32, ok bool) {
	s.do(func() {
		e, present := s.dbs[db]
		if !present || e.locked == nil {
			return
		}
		sid, ok = e.locked.holder, true
	})
	return
}

// LockTimestamp returns the instant db's current lock was taken, if
// locked.
func (s *Store) LockTimestamp(db Name) (time.Time, bool) {
	var (
		t  time.Time
		ok bool
	)
	s.do(func() {
		e, present := s.dbs[db]
		if !present || e.locked == nil {
			return
		}
		t, ok = e.locked.at, true
	})
	return t, ok
}
