// Copyright (c) 2024, the clixon-core authors.
//
// SPDX-License-Identifier: LGPL-2.1-only

// Package datastore implements the tree store of spec.md §4.1: named
// databases backed by files under a directory, with an in-memory
// cache and per-database locking. Every operation is serialized
// through a single actor goroutine, the way the teacher's
// session/session.go serializes access to a candidate tree through
// session.run() and a request channel — here there is one such actor
// per Store rather than per session, since spec.md's databases are
// process-global rather than per-session private trees.
package datastore

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/klement/clixon/errkind"
	"github.com/klement/clixon/internal/clog"
	"github.com/klement/clixon/tree"
)

// Name identifies one of the well-known databases spec.md §3 defines.
type Name string

const (
	Running   Name = "running"
	Candidate Name = "candidate"
	Startup   Name = "startup"
	Tmp       Name = "tmp"
	Backup    Name = "backup"
)

type lockInfo struct {
	holder int32
	at     time.Time
}

type entry struct {
	tree   *tree.Node
	locked *lockInfo
}

// Store is the tree store: the single owner of every named database's
// on-disk and cached content (spec.md §3.3 "Ownership").
type Store struct {
	dir string
	log *clog.Logger

	reqch chan request
	kill  chan struct{}
	term  chan struct{}

	dbs map[Name]*entry
}

// Open creates a Store rooted at dir (spec.md's configured
// DatastoreDir) and starts its actor goroutine. Existing database
// files are not read until first use, matching the teacher's lazy
// candidate-tree population.
func Open(dir string, log *clog.Logger) *Store {
	if log == nil {
		log = clog.Discard()
	}
	s := &Store{
		dir:   dir,
		log:   log,
		reqch: make(chan request),
		kill:  make(chan struct{}),
		term:  make(chan struct{}),
		dbs:   make(map[Name]*entry),
	}
	go s.run()
	return s
}

// Close stops the actor goroutine. Pending requests in flight are
// still served; new ones after Close block forever, as with the
// teacher's session.kill/term pair.
func (s *Store) Close() {
	close(s.kill)
	<-s.term
}

func (s *Store) run() {
	for {
		select {
		case req := <-s.reqch:
			req.exec(s)
		case <-s.kill:
			close(s.term)
			return
		}
	}
}

// request is the actor-mailbox pattern the teacher's session package
// uses: each public Store method builds a request value, sends it on
// reqch, and blocks on a private response channel until the actor
// goroutine has executed it in isolation.
type request interface {
	exec(s *Store)
}

func (s *Store) do(fn func()) {
	respch := make(chan struct{})
	s.reqch <- doRequest{fn, respch}
	<-respch
}

type doRequest struct {
	fn     func()
	respch chan struct{}
}

func (r doRequest) exec(s *Store) {
	r.fn()
	close(r.respch)
}

func (s *Store) file(db Name) string {
	return filepath.Join(s.dir, string(db)+".xml")
}

// Exists reports whether db has been created.
func (s *Store) Exists(db Name) bool {
	var ok bool
	s.do(func() { ok = s.exists(db) })
	return ok
}

func (s *Store) exists(db Name) bool {
	if e, cached := s.dbs[db]; cached && e.tree != nil {
		return true
	}
	_, err := os.Stat(s.file(db))
	return err == nil
}

// Create materializes an empty db, failing if it already exists.
func (s *Store) Create(db Name) error {
	var err error
	s.do(func() {
		if s.exists(db) {
			err = errkind.AlreadyExists(string(db))
			return
		}
		err = s.persist(db, tree.New(string(db)))
	})
	return err
}

// Delete removes db's on-disk and cached content. Idempotent.
func (s *Store) Delete(db Name) error {
	var err error
	s.do(func() {
		delete(s.dbs, db)
		rmErr := os.Remove(s.file(db))
		if rmErr != nil && !os.IsNotExist(rmErr) {
			err = errkind.Storage(string(db), rmErr.Error())
		}
	})
	return err
}

// Copy atomically replaces dst's content with a deep copy of src's.
func (s *Store) Copy(src, dst Name) error {
	var err error
	s.do(func() {
		n, lerr := s.load(src)
		if lerr != nil {
			err = lerr
			return
		}
		cp := n.Clone()
		cp.Name = string(dst)
		err = s.persist(dst, cp)
	})
	return err
}

// Get returns db's current tree. The returned tree is a private copy
// safe for the caller to mutate.
func (s *Store) Get(db Name) (*tree.Node, error) {
	var (
		n   *tree.Node
		err error
	)
	s.do(func() {
		loaded, lerr := s.load(db)
		if lerr != nil {
			err = lerr
			return
		}
		n = loaded.Clone()
	})
	return n, err
}

// Put applies op with patch against db's current tree and persists
// the result, following tree.Apply's RFC 6241 edit-config semantics.
func (s *Store) Put(db Name, op tree.Op, patch *tree.Node) error {
	var err error
	s.do(func() {
		base, lerr := s.load(db)
		if lerr != nil {
			err = lerr
			return
		}
		out, aerr := tree.Apply(base.Clone(), patch, op)
		if aerr != nil {
			err = aerr
			return
		}
		err = s.persist(db, out)
	})
	return err
}

// PutTree replaces db's entire tree wholesale, used by the transaction
// manager's apply step and by the startup reconciler's copy steps
// where tree.Apply's node-addressed semantics don't apply.
func (s *Store) PutTree(db Name, n *tree.Node) error {
	var err error
	s.do(func() { err = s.persist(db, n.Clone()) })
	return err
}

// load returns the cached tree for db, populating the cache from disk
// on first access (spec.md §4.1 caching policy).
func (s *Store) load(db Name) (*tree.Node, error) {
	if e, ok := s.dbs[db]; ok && e.tree != nil {
		return e.tree, nil
	}
	f, err := os.Open(s.file(db))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errkind.NotFound(string(db))
		}
		return nil, errkind.Storage(string(db), err.Error())
	}
	defer f.Close()

	n, err := tree.Decode(f)
	if err != nil {
		return nil, errkind.Storage(string(db), err.Error())
	}
	root := n.Find(string(db))
	if root == nil {
		root = tree.New(string(db))
	}
	e := &entry{tree: root}
	if old, ok := s.dbs[db]; ok {
		e.locked = old.locked
	}
	s.dbs[db] = e
	return e.tree, nil
}

// persist stages n to a sibling file and renames it over db's file
// (spec.md §4.1: "writers stage to a sibling file and rename"), then
// updates the cache — both steps must complete before put()/copy()
// return, so a crash mid-write never leaves a partially-written file
// visible.
func (s *Store) persist(db Name, n *tree.Node) error {
	path := s.file(db)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errkind.Storage(string(db), err.Error())
	}
	tmp := path + fmt.Sprintf(".tmp-%d", os.Getpid())
	f, err := os.Create(tmp)
	if err != nil {
		return errkind.Storage(string(db), err.Error())
	}

	if err := n.Encode(f, true); err != nil {
		f.Close()
		os.Remove(tmp)
		return errkind.Storage(string(db), err.Error())
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return errkind.Storage(string(db), err.Error())
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return errkind.Storage(string(db), err.Error())
	}

	e, ok := s.dbs[db]
	if !ok {
		e = &entry{}
		s.dbs[db] = e
	}
	e.tree = n
	return nil
}
