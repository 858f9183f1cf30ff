// Copyright (c) 2024, the clixon-core authors.
//
// SPDX-License-Identifier: LGPL-2.1-only

// Package plugin holds the ordered plugin registry of spec.md §4.3.
// Plugins are in-process Go values implementing whichever of the
// optional capability interfaces below they support; the dynamic
// symbol-resolution mechanism a .so-loading plugin loader would need
// is explicitly out of scope (spec.md §1), so cmd/configd builds the
// registry by constructing known plugin values rather than by
// dlopen-ing a directory — the registry itself is the part under
// spec.
package plugin

import "github.com/klement/clixon/tree"

// Capability names, for logging and for the "missing capabilities are
// no-ops" rule of spec.md §4.3.
const (
	CapInit            = "init"
	CapStart           = "start"
	CapExit            = "exit"
	CapReset           = "reset"
	CapStatedata       = "statedata"
	CapTxnBegin        = "transaction-begin"
	CapTxnValidate     = "transaction-validate"
	CapTxnComplete     = "transaction-complete"
	CapTxnCommit       = "transaction-commit"
	CapTxnCommitDone   = "transaction-commit-done"
	CapTxnRevert       = "transaction-revert"
	CapTxnEnd          = "transaction-end"
	CapTxnAbort        = "transaction-abort"
)

// Plugin is the minimum every registered plugin must supply: a stable
// name used in error messages (errkind.Plugin, errkind.Transaction)
// and registry-order logging.
type Plugin interface {
	Name() string
}

// Initializer, Starter and Exiter are the global-lifecycle
// capabilities of spec.md §4.3, invoked outside any transaction.
type Initializer interface {
	Plugin
	Init() error
}

type Starter interface {
	Plugin
	Start(args []string) error
}

type Exiter interface {
	Plugin
	Exit()
}

// Resetter is invited to write initial/default content into a scratch
// database during startup reconciliation (spec.md §4.4).
type Resetter interface {
	Plugin
	Reset(db string) error
}

// Statedataer contributes operational state to a get() on operational
// data, addressed by an xpath expression and its namespace context.
type Statedataer interface {
	Plugin
	Statedata(xpath string, nsc map[string]string) (*tree.Node, error)
}

// Txn is the read-only view of a transaction a hook receives — see
// package txn for the concrete type; declared here as an interface so
// plugin has no import-cycle dependency on txn.
type Txn interface {
	Source() string
	Target() string
	Added() []*tree.Node
	Deleted() []*tree.Node
	Changed() []*tree.Node
}

// TransactionHooks is implemented by plugins that react to the commit
// pipeline. A plugin may implement any subset of the methods it cares
// about by embedding NopTransactionHooks and overriding only those —
// the registry itself still calls every method on every plugin that
// satisfies the full interface, so real plugins should embed the nop
// base.
type TransactionHooks interface {
	Plugin
	TransactionBegin(t Txn) error
	TransactionValidate(t Txn) error
	TransactionComplete(t Txn) error
	TransactionCommit(t Txn) error
	TransactionCommitDone(t Txn)
	TransactionRevert(t Txn)
	TransactionEnd(t Txn)
	TransactionAbort(t Txn)
}

// NopTransactionHooks is embedded by plugins that only care about a
// few transaction hooks; spec.md §4.3: "missing capabilities are
// treated as no-ops".
type NopTransactionHooks struct{}

func (NopTransactionHooks) TransactionBegin(Txn) error      { return nil }
func (NopTransactionHooks) TransactionValidate(Txn) error   { return nil }
func (NopTransactionHooks) TransactionComplete(Txn) error   { return nil }
func (NopTransactionHooks) TransactionCommit(Txn) error     { return nil }
func (NopTransactionHooks) TransactionCommitDone(Txn)       {}
func (NopTransactionHooks) TransactionRevert(Txn)           {}
func (NopTransactionHooks) TransactionEnd(Txn)              {}
func (NopTransactionHooks) TransactionAbort(Txn)            {}
