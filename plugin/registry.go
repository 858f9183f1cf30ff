// Copyright (c) 2024, the clixon-core authors.
//
// SPDX-License-Identifier: LGPL-2.1-only

package plugin

import (
	"github.com/klement/clixon/errkind"
	"github.com/klement/clixon/tree"
)

// Registry holds plugins in registration order (spec.md's REDESIGN
// FLAGS calls for replacing the teacher's circular doubly-linked list
// with sentinel with a plain ordered sequence — a slice is exactly
// that). Once built at boot, it is read-only: spec.md §5 "the plugin
// registry ... [is] initialized once, read-only thereafter".
type Registry struct {
	plugins []Plugin
}

// New builds a registry from plugins in the order given — the order
// they were "discovered from [their] hosting directory" per spec.md
// §4.3.
func New(plugins ...Plugin) *Registry {
	return &Registry{plugins: append([]Plugin(nil), plugins...)}
}

// Each yields every registered plugin in registration order.
func (r *Registry) Each() []Plugin {
	return append([]Plugin(nil), r.plugins...)
}

// EachReverse yields every registered plugin in reverse registration
// order, for revert/abort/exit dispatch.
func (r *Registry) EachReverse() []Plugin {
	out := make([]Plugin, len(r.plugins))
	for i, p := range r.plugins {
		out[len(r.plugins)-1-i] = p
	}
	return out
}

// Init runs each plugin's Init capability in registration order,
// aborting (and returning) on the first failure — "fails (abort
// boot)" per spec.md §4.3.
func (r *Registry) Init() error {
	for _, p := range r.Each() {
		ip, ok := p.(Initializer)
		if !ok {
			continue
		}
		if err := ip.Init(); err != nil {
			return errkind.Plugin(p.Name(), err.Error())
		}
	}
	return nil
}

// Start runs each plugin's Start capability in registration order with
// the residual command-line arguments.
func (r *Registry) Start(args []string) error {
	for _, p := range r.Each() {
		sp, ok := p.(Starter)
		if !ok {
			continue
		}
		if err := sp.Start(args); err != nil {
			return errkind.Plugin(p.Name(), err.Error())
		}
	}
	return nil
}

// Reset invites every plugin with the Reset capability to write
// initial content into db, in registration order.
func (r *Registry) Reset(db string) error {
	for _, p := range r.Each() {
		rp, ok := p.(Resetter)
		if !ok {
			continue
		}
		if err := rp.Reset(db); err != nil {
			return errkind.Plugin(p.Name(), err.Error())
		}
	}
	return nil
}

// Statedata aggregates operational-state contributions from every
// registered Statedataer plugin, merging each plugin's subtree into a
// single tree in registration order — the "statedata" stage of spec.md
// §4.3's plugin lifecycle. A plugin lacking the capability is skipped,
// per the "missing capabilities are no-ops" rule; nil is returned if
// no registered plugin contributes anything.
func (r *Registry) Statedata(xpath string, nsc map[string]string) (*tree.Node, error) {
	var out *tree.Node
	for _, p := range r.Each() {
		sp, ok := p.(Statedataer)
		if !ok {
			continue
		}
		n, err := sp.Statedata(xpath, nsc)
		if err != nil {
			return nil, errkind.Plugin(p.Name(), err.Error())
		}
		if n == nil {
			continue
		}
		if out == nil {
			out = n
			continue
		}
		merged, _ := tree.Apply(out, n, tree.OpMerge)
		out = merged
	}
	return out, nil
}

// Exit runs each plugin's Exit capability in reverse registration
// order, matching every other teardown sequence in the registry.
func (r *Registry) Exit() {
	for _, p := range r.EachReverse() {
		if ep, ok := p.(Exiter); ok {
			ep.Exit()
		}
	}
}
