// Copyright (c) 2024, the clixon-core authors.
//
// SPDX-License-Identifier: LGPL-2.1-only

// Package startup implements the boot-time reconciler of spec.md
// §4.4: one of four modes runs exactly once, before the daemon's
// client-accept loop starts, to bring running/candidate/startup into
// the relationship the rest of the core assumes.
package startup

import (
	"fmt"
	"strings"

	"github.com/klement/clixon/datastore"
	"github.com/klement/clixon/errkind"
	"github.com/klement/clixon/plugin"
	"github.com/klement/clixon/tree"
	"github.com/klement/clixon/txn"
)

// Mode is one of the four boot modes spec.md §4.4 names.
type Mode string

const (
	None    Mode = "none"
	Init    Mode = "init"
	Running Mode = "running"
	Startup Mode = "startup"
)

// Reconciler drives Reconcile against a store/registry/commit
// manager, all already constructed by cmd/configd.
type Reconciler struct {
	store    *datastore.Store
	registry *plugin.Registry
	commits  *txn.Manager
}

func New(store *datastore.Store, registry *plugin.Registry, commits *txn.Manager) *Reconciler {
	return &Reconciler{store: store, registry: registry, commits: commits}
}

// Reconcile runs mode's sequence, optionally merging extraXML as an
// operator-supplied overlay, then establishes the
// `candidate ≡ running` postcondition every mode shares.
func (r *Reconciler) Reconcile(mode Mode, extraXML string) error {
	var err error
	switch mode {
	case None:
		err = r.none()
	case Init:
		err = r.init()
	case Running:
		err = r.recommitRunning(extraXML)
	case Startup:
		err = r.applyStartup(extraXML)
	default:
		err = errUnknownMode(mode)
	}
	if err != nil {
		return err
	}
	return r.store.Copy(datastore.Running, datastore.Candidate)
}

// none preserves running exactly as found.
func (r *Reconciler) none() error {
	if !r.store.Exists(datastore.Candidate) {
		if err := r.store.Copy(datastore.Running, datastore.Candidate); err != nil {
			return err
		}
	}
	return r.registry.Init()
}

// init wipes running to an empty slate.
func (r *Reconciler) init() error {
	if err := r.store.Delete(datastore.Running); err != nil {
		return err
	}
	if err := r.store.Create(datastore.Running); err != nil {
		return err
	}
	if !r.store.Exists(datastore.Candidate) {
		if err := r.store.Copy(datastore.Running, datastore.Candidate); err != nil {
			return err
		}
	}
	return r.registry.Init()
}

// recommitRunning re-commits the existing running through every
// plugin hook (spec.md §4.4 mode "running").
func (r *Reconciler) recommitRunning(extraXML string) error {
	if err := r.store.Copy(datastore.Running, datastore.Candidate); err != nil {
		return err
	}
	if err := r.registry.Init(); err != nil {
		return err
	}
	return r.commitThroughScratch(datastore.Candidate, extraXML, datastore.Candidate)
}

// applyStartup applies the persisted startup database (spec.md §4.4
// mode "startup").
func (r *Reconciler) applyStartup(extraXML string) error {
	if err := r.store.Copy(datastore.Running, datastore.Backup); err != nil {
		return err
	}
	if !r.store.Exists(datastore.Startup) {
		if err := r.store.Create(datastore.Startup); err != nil {
			return err
		}
	}
	if err := r.registry.Init(); err != nil {
		return err
	}
	return r.commitThroughScratch(datastore.Startup, extraXML, datastore.Backup)
}

// commitThroughScratch is the tmp/backup scratch-database lifecycle
// shared by the "running" and "startup" modes: build tmp from a
// plugin reset plus an optional operator overlay, empty running,
// commit source into it, and on failure restore running from
// restoreFrom (candidate for "running" mode, backup for "startup"
// mode) and abort — per the resolved Open Question in SPEC_FULL.md,
// a failed re-commit does not apply the tmp overlay at all. restoreFrom
// is "" when the caller has no restore source.
func (r *Reconciler) commitThroughScratch(source datastore.Name, extraXML string, restoreFrom datastore.Name) error {
	if err := r.store.Delete(datastore.Tmp); err != nil {
		return err
	}
	if err := r.store.Create(datastore.Tmp); err != nil {
		return err
	}
	if err := r.registry.Reset(string(datastore.Tmp)); err != nil {
		return err
	}
	if extraXML != "" {
		decoded, err := tree.Decode(strings.NewReader(extraXML))
		if err != nil {
			return err
		}
		overlay := decoded.Find(string(datastore.Tmp))
		if overlay == nil {
			return errkind.Config(fmt.Sprintf("overlay XML must be rooted at <%s>", datastore.Tmp))
		}
		if err := r.store.Put(datastore.Tmp, tree.OpMerge, overlay); err != nil {
			return err
		}
	}

	if err := r.store.Delete(datastore.Running); err != nil {
		return err
	}
	if err := r.store.Create(datastore.Running); err != nil {
		return err
	}

	if err := r.commits.Commit(source); err != nil {
		if restoreFrom != "" {
			if rerr := r.store.Copy(restoreFrom, datastore.Running); rerr != nil {
				return rerr
			}
		}
		// A failed re-commit does not apply the tmp overlay: tmp is
		// still unlinked on scope exit, but its content never reaches
		// running.
		if derr := r.store.Delete(datastore.Tmp); derr != nil {
			return derr
		}
		return err
	}

	tmp, err := r.store.Get(datastore.Tmp)
	if err != nil {
		return err
	}
	if err := r.store.Put(datastore.Running, tree.OpMerge, tmp); err != nil {
		return err
	}

	if source == datastore.Startup {
		if err := r.store.Delete(datastore.Backup); err != nil {
			return err
		}
	}
	return r.store.Delete(datastore.Tmp)
}

type unknownModeError string

func (e unknownModeError) Error() string { return "startup: unknown mode " + string(e) }

func errUnknownMode(m Mode) error { return unknownModeError(m) }
