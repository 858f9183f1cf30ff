// Copyright (c) 2024, the clixon-core authors.
//
// SPDX-License-Identifier: LGPL-2.1-only

// Package txn implements the transaction manager of spec.md §4.2: the
// commit pipeline snapshot → diff → validate → plugin hooks → apply
// → plugin hooks → end/revert, with at most one in-flight commit
// serialized through a single request channel — the same
// inCommit-guarded goroutine the teacher's session/commitmgr.go uses,
// simplified here to one guard per Manager instead of per-session
// since spec.md's databases are process-global.
package txn

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/klement/clixon/datastore"
	"github.com/klement/clixon/errkind"
	"github.com/klement/clixon/plugin"
	"github.com/klement/clixon/tree"
	"github.com/klement/clixon/yangspec"
)

// State is the transaction state machine of spec.md §4.2: "Idle →
// Validating → Committing → {Committed, Reverting → Failed} →
// Terminal".
type State int

const (
	Idle State = iota
	Validating
	Committing
	Committed
	Reverting
	Failed
	Terminal
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Validating:
		return "validating"
	case Committing:
		return "committing"
	case Committed:
		return "committed"
	case Reverting:
		return "reverting"
	case Failed:
		return "failed"
	case Terminal:
		return "terminal"
	}
	return "unknown"
}

// Txn is the scoped object spec.md §3 describes: created at commit
// entry, destroyed at commit exit, holding the source/target names,
// the pre-commit snapshot, and the diff vectors. It satisfies
// plugin.Txn so hook implementations can inspect it without txn
// importing plugin in a cycle.
type Txn struct {
	id              string
	source, target string
	snapshot        *tree.Node
	diff            *tree.Diff
	state           State
	failedPlugin    string
}

// ID is a per-commit correlation id, a random UUID assigned at commit
// entry. The commit pipeline itself does not log it.
func (t *Txn) ID() string             { return t.id }
func (t *Txn) Source() string        { return t.source }
func (t *Txn) Target() string        { return t.target }
func (t *Txn) Added() []*tree.Node   { return t.diff.Added }
func (t *Txn) Deleted() []*tree.Node { return t.diff.Deleted }
func (t *Txn) Changed() []*tree.Node { return t.diff.Changed }
func (t *Txn) State() State          { return t.state }
func (t *Txn) FailedPlugin() string  { return t.failedPlugin }

// Manager drives commit(source_db) → ok | Error against a store, spec
// and registry, serializing concurrent callers the way commitmgr does.
type Manager struct {
	store    *datastore.Store
	spec     *yangspec.Spec
	registry *plugin.Registry

	reqch chan commitRequest
}

type commitRequest struct {
	source datastore.Name
	resp   chan error
}

// NewManager starts the manager's serializing actor goroutine.
func NewManager(store *datastore.Store, spec *yangspec.Spec, registry *plugin.Registry) *Manager {
	m := &Manager{
		store:    store,
		spec:     spec,
		registry: registry,
		reqch:    make(chan commitRequest),
	}
	go m.run()
	return m
}

func (m *Manager) run() {
	inCommit := false
	donech := make(chan error, 1)
	var pending *commitRequest
	var queue []commitRequest

	for {
		select {
		case req := <-m.reqch:
			if inCommit {
				queue = append(queue, req)
				continue
			}
			inCommit = true
			r := req
			pending = &r
			go func(source datastore.Name) {
				donech <- m.commit(source)
			}(req.source)
		case err := <-donech:
			inCommit = false
			if pending != nil {
				pending.resp <- err
				pending = nil
			}
			if len(queue) > 0 {
				next := queue[0]
				queue = queue[1:]
				inCommit = true
				pending = &next
				go func(source datastore.Name) {
					donech <- m.commit(source)
				}(next.source)
			}
		}
	}
}

// Commit runs the full pipeline against source, returning the error
// reported by the failing step, or nil on success.
func (m *Manager) Commit(source datastore.Name) error {
	respch := make(chan error)
	m.reqch <- commitRequest{source: source, resp: respch}
	return <-respch
}

// commit implements spec.md §4.2 steps 1-10; run starts it in its own
// goroutine and never has two commits in flight, so store/registry
// access here never races with another concurrent commit.
func (m *Manager) commit(source datastore.Name) error {
	t := &Txn{id: uuid.NewString(), source: string(source), target: string(datastore.Running), state: Validating}

	running, err := m.store.Get(datastore.Running)
	if err != nil {
		return errkind.Storage(string(datastore.Running), err.Error())
	}
	t.snapshot = running.Clone()

	candidate, err := m.store.Get(source)
	if err != nil {
		return errkind.Storage(string(source), err.Error())
	}

	t.diff = tree.Compute(running, candidate)

	if err := m.spec.Validate(candidate); err != nil {
		return err
	}

	if failed, err := m.registry.DispatchBegin(t); err != nil {
		t.failedPlugin = failed
		t.state = Failed
		m.registry.DispatchAbort(t)
		return err
	}
	if failed, err := m.registry.DispatchValidate(t); err != nil {
		t.failedPlugin = failed
		t.state = Failed
		m.registry.DispatchAbort(t)
		return err
	}
	if failed, err := m.registry.DispatchComplete(t); err != nil {
		t.failedPlugin = failed
		t.state = Failed
		m.registry.DispatchAbort(t)
		return err
	}

	t.state = Committing
	applied := candidate.Clone()
	applied.Name = string(datastore.Running)
	if err := m.store.PutTree(datastore.Running, applied); err != nil {
		t.state = Failed
		m.registry.DispatchAbort(t)
		return errkind.Storage(string(datastore.Running), err.Error())
	}

	committed, failed, err := m.registry.DispatchCommit(t)
	if err != nil {
		t.state = Reverting
		if rerr := m.store.PutTree(datastore.Running, t.snapshot); rerr != nil {
			return fmt.Errorf("txn: revert after commit failure in %q, and restoring running failed: %w (original: %v)", failed, rerr, err)
		}
		plugin.DispatchRevert(committed, t)
		t.state = Failed
		t.failedPlugin = failed
		m.registry.DispatchAbort(t)
		return err
	}

	m.registry.DispatchCommitDone(t)

	t.state = Committed
	m.registry.DispatchEnd(t)
	t.state = Terminal
	return nil
}
