// Copyright (c) 2024, the clixon-core authors.
//
// SPDX-License-Identifier: LGPL-2.1-only

package plugin

import "github.com/klement/clixon/errkind"

// hooksOf returns p as a TransactionHooks implementation, or nil if p
// doesn't carry that capability — spec.md §4.3's "missing capabilities
// are treated as no-ops" applied at the whole-hook-set granularity,
// since a plugin that cares about any transaction hook is expected to
// embed NopTransactionHooks for the rest.
func hooksOf(p Plugin) TransactionHooks {
	h, _ := p.(TransactionHooks)
	return h
}

// DispatchBegin, DispatchValidate and DispatchComplete run the
// forward-order, abort-on-failure hooks of commit steps 4-6
// (spec.md §4.2); failed names the first offending plugin.
func (r *Registry) DispatchBegin(t Txn) (failed string, err error) {
	return r.dispatchForward(t, func(h TransactionHooks, t Txn) error { return h.TransactionBegin(t) })
}

func (r *Registry) DispatchValidate(t Txn) (failed string, err error) {
	return r.dispatchForward(t, func(h TransactionHooks, t Txn) error { return h.TransactionValidate(t) })
}

func (r *Registry) DispatchComplete(t Txn) (failed string, err error) {
	return r.dispatchForward(t, func(h TransactionHooks, t Txn) error { return h.TransactionComplete(t) })
}

// DispatchCommit runs commit step 8's forward-order hook, returning
// the plugins that already received TransactionCommit successfully
// (for DispatchRevert to unwind) alongside the first failure.
func (r *Registry) DispatchCommit(t Txn) (committed []Plugin, failed string, err error) {
	for _, p := range r.Each() {
		h := hooksOf(p)
		if h == nil {
			continue
		}
		if cerr := h.TransactionCommit(t); cerr != nil {
			return committed, p.Name(), errkind.Transaction(errkind.PhaseCommit, p.Name(), cerr.Error())
		}
		committed = append(committed, p)
	}
	return committed, "", nil
}

// DispatchCommitDone runs step 9: failures are logged by the caller,
// never propagated, since running is already authoritative.
func (r *Registry) DispatchCommitDone(t Txn) {
	for _, p := range r.Each() {
		if h := hooksOf(p); h != nil {
			h.TransactionCommitDone(t)
		}
	}
}

// DispatchRevert unwinds committed (the plugins DispatchCommit
// reported as already having received TransactionCommit) in reverse
// order, per spec.md §4.2's revert description.
func DispatchRevert(committed []Plugin, t Txn) {
	for i := len(committed) - 1; i >= 0; i-- {
		if h := hooksOf(committed[i]); h != nil {
			h.TransactionRevert(t)
		}
	}
}

// DispatchEnd runs step 10's success path — TransactionEnd in reverse
// registration order — destroying the transaction afterward is the
// caller's (txn package's) responsibility.
func (r *Registry) DispatchEnd(t Txn) {
	for _, p := range r.EachReverse() {
		if h := hooksOf(p); h != nil {
			h.TransactionEnd(t)
		}
	}
}

// DispatchAbort runs step 10's failure path — TransactionAbort in
// reverse registration order.
func (r *Registry) DispatchAbort(t Txn) {
	for _, p := range r.EachReverse() {
		if h := hooksOf(p); h != nil {
			h.TransactionAbort(t)
		}
	}
}

func (r *Registry) dispatchForward(t Txn, call func(TransactionHooks, Txn) error) (failed string, err error) {
	phase := errkind.PhaseValidate
	for _, p := range r.Each() {
		h := hooksOf(p)
		if h == nil {
			continue
		}
		if cerr := call(h, t); cerr != nil {
			return p.Name(), errkind.Transaction(phase, p.Name(), cerr.Error())
		}
	}
	return "", nil
}
