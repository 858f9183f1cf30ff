// Copyright (c) 2024, the clixon-core authors.
//
// SPDX-License-Identifier: LGPL-2.1-only

package plugin

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/klement/clixon/tree"
)

type recorder struct {
	name  string
	calls *[]string
}

func (p recorder) Name() string { return p.name }
func (p recorder) Init() error  { *p.calls = append(*p.calls, p.name+":init"); return nil }
func (p recorder) Exit()        { *p.calls = append(*p.calls, p.name+":exit") }

func TestInitRunsInRegistrationOrder(t *testing.T) {
	var calls []string
	r := New(recorder{"a", &calls}, recorder{"b", &calls})
	require.NoError(t, r.Init())
	require.Equal(t, []string{"a:init", "b:init"}, calls)
}

func TestExitRunsInReverseOrder(t *testing.T) {
	var calls []string
	r := New(recorder{"a", &calls}, recorder{"b", &calls})
	r.Exit()
	require.Equal(t, []string{"b:exit", "a:exit"}, calls)
}

type statedataPlugin struct {
	name string
	n    *tree.Node
}

func (p statedataPlugin) Name() string { return p.name }
func (p statedataPlugin) Statedata(xpath string, nsc map[string]string) (*tree.Node, error) {
	return p.n, nil
}

func TestStatedataMergesContributionsInRegistrationOrder(t *testing.T) {
	a := tree.New("state")
	a.Append(&tree.Node{Name: "uptime", Value: "1"})
	b := tree.New("state")
	b.Append(&tree.Node{Name: "sessions", Value: "2"})

	r := New(statedataPlugin{"a", a}, statedataPlugin{"b", b})

	out, err := r.Statedata("", nil)
	require.NoError(t, err)
	require.Equal(t, "1", out.Find("uptime").Value)
	require.Equal(t, "2", out.Find("sessions").Value)
}

func TestStatedataSkipsPluginsWithoutTheCapability(t *testing.T) {
	var calls []string
	r := New(recorder{"a", &calls})
	out, err := r.Statedata("", nil)
	require.NoError(t, err)
	require.Nil(t, out)
}

type fakeTxn struct{}

func (fakeTxn) Source() string         { return "candidate" }
func (fakeTxn) Target() string         { return "running" }
func (fakeTxn) Added() []*tree.Node    { return nil }
func (fakeTxn) Deleted() []*tree.Node  { return nil }
func (fakeTxn) Changed() []*tree.Node  { return nil }

type hookPlugin struct {
	NopTransactionHooks
	name  string
	calls *[]string
}

func (p hookPlugin) Name() string { return p.name }
func (p hookPlugin) TransactionCommit(Txn) error {
	*p.calls = append(*p.calls, p.name+":commit")
	return nil
}
func (p hookPlugin) TransactionRevert(Txn) {
	*p.calls = append(*p.calls, p.name+":revert")
}

func TestCommitThenRevertUnwindsInReverseOrder(t *testing.T) {
	var calls []string
	r := New(hookPlugin{name: "a", calls: &calls}, hookPlugin{name: "b", calls: &calls})

	committed, failed, err := r.DispatchCommit(fakeTxn{})
	require.NoError(t, err)
	require.Empty(t, failed)
	require.Len(t, committed, 2)

	DispatchRevert(committed, fakeTxn{})
	require.Equal(t, []string{"a:commit", "b:commit", "b:revert", "a:revert"}, calls)
}
