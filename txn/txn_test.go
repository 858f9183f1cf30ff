// Copyright (c) 2024, the clixon-core authors.
//
// SPDX-License-Identifier: LGPL-2.1-only

package txn

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/klement/clixon/datastore"
	"github.com/klement/clixon/plugin"
	"github.com/klement/clixon/tree"
	"github.com/klement/clixon/yangspec"
)

func newTestStore(t *testing.T) *datastore.Store {
	t.Helper()
	s := datastore.Open(t.TempDir(), nil)
	t.Cleanup(s.Close)
	require.NoError(t, s.Create(datastore.Running))
	require.NoError(t, s.Create(datastore.Candidate))
	return s
}

func putXML(t *testing.T, s *datastore.Store, db datastore.Name, xmlStr string) {
	t.Helper()
	n, err := tree.Decode(strings.NewReader(xmlStr))
	require.NoError(t, err)
	require.NoError(t, s.Put(db, tree.OpReplace, n.Find(string(db))))
}

type commitRecorder struct {
	plugin.NopTransactionHooks
	calls *[]string
	fail  bool
}

func (p commitRecorder) Name() string { return "recorder" }

func (p commitRecorder) TransactionBegin(plugin.Txn) error {
	*p.calls = append(*p.calls, "begin")
	return nil
}

func (p commitRecorder) TransactionCommit(plugin.Txn) error {
	*p.calls = append(*p.calls, "commit")
	if p.fail {
		return errors.New("boom")
	}
	return nil
}

func (p commitRecorder) TransactionRevert(plugin.Txn) {
	*p.calls = append(*p.calls, "revert")
}

func (p commitRecorder) TransactionEnd(plugin.Txn) {
	*p.calls = append(*p.calls, "end")
}

func (p commitRecorder) TransactionAbort(plugin.Txn) {
	*p.calls = append(*p.calls, "abort")
}

func TestCommitAppliesSourceOntoRunning(t *testing.T) {
	s := newTestStore(t)
	putXML(t, s, datastore.Running, `<running><a>1</a></running>`)
	putXML(t, s, datastore.Candidate, `<candidate><a>2</a></candidate>`)

	var calls []string
	reg := plugin.New(commitRecorder{calls: &calls})
	mgr := NewManager(s, passthroughSpec(), reg)

	require.NoError(t, mgr.Commit(datastore.Candidate))

	running, err := s.Get(datastore.Running)
	require.NoError(t, err)
	require.Equal(t, "2", running.Find("a").Value)
	require.Equal(t, []string{"begin", "commit", "end"}, calls)
}

func TestCommitFailureRevertsRunning(t *testing.T) {
	s := newTestStore(t)
	putXML(t, s, datastore.Running, `<running><a>1</a></running>`)
	putXML(t, s, datastore.Candidate, `<candidate><a>2</a></candidate>`)

	var calls []string
	reg := plugin.New(commitRecorder{calls: &calls, fail: true})
	mgr := NewManager(s, passthroughSpec(), reg)

	err := mgr.Commit(datastore.Candidate)
	require.Error(t, err)

	running, err := s.Get(datastore.Running)
	require.NoError(t, err)
	require.Equal(t, "1", running.Find("a").Value, "running must be restored from snapshot on revert")
	require.Equal(t, []string{"begin", "commit", "abort"}, calls)
}

// passthroughSpec returns a *yangspec.Spec whose Validate never
// rejects a tree, standing in for a loaded schema in tests that only
// exercise the commit pipeline's plugin-dispatch and apply/revert
// behavior.
func passthroughSpec() *yangspec.Spec {
	return &yangspec.Spec{}
}
