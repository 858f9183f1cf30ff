// Copyright (c) 2024, the clixon-core authors.
//
// SPDX-License-Identifier: LGPL-2.1-only

package startup

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/klement/clixon/datastore"
	"github.com/klement/clixon/plugin"
	"github.com/klement/clixon/tree"
	"github.com/klement/clixon/txn"
	"github.com/klement/clixon/yangspec"
)

func newReconciler(t *testing.T) (*Reconciler, *datastore.Store) {
	t.Helper()
	s := datastore.Open(t.TempDir(), nil)
	t.Cleanup(s.Close)
	reg := plugin.New()
	mgr := txn.NewManager(s, &yangspec.Spec{}, reg)
	return New(s, reg, mgr), s
}

func putXML(t *testing.T, s *datastore.Store, db datastore.Name, xmlStr string) {
	t.Helper()
	n, err := tree.Decode(strings.NewReader(xmlStr))
	require.NoError(t, err)
	require.NoError(t, s.Put(db, tree.OpReplace, n.Find(string(db))))
}

func TestNoneModePreservesRunningAndSeedsCandidate(t *testing.T) {
	r, s := newReconciler(t)
	require.NoError(t, s.Create(datastore.Running))
	putXML(t, s, datastore.Running, `<running><a>1</a></running>`)

	require.NoError(t, r.Reconcile(None, ""))

	cand, err := s.Get(datastore.Candidate)
	require.NoError(t, err)
	require.Equal(t, "1", cand.Find("a").Value)
}

func TestInitModeWipesRunning(t *testing.T) {
	r, s := newReconciler(t)
	require.NoError(t, s.Create(datastore.Running))
	putXML(t, s, datastore.Running, `<running><a>1</a></running>`)

	require.NoError(t, r.Reconcile(Init, ""))

	running, err := s.Get(datastore.Running)
	require.NoError(t, err)
	require.Nil(t, running.Find("a"))
}

func TestRunningModeRecommitsAndMergesOverlay(t *testing.T) {
	r, s := newReconciler(t)
	require.NoError(t, s.Create(datastore.Running))
	putXML(t, s, datastore.Running, `<running><a>1</a></running>`)

	require.NoError(t, r.Reconcile(Running, `<tmp><b>2</b></tmp>`))

	running, err := s.Get(datastore.Running)
	require.NoError(t, err)
	require.Equal(t, "1", running.Find("a").Value)
	require.Equal(t, "2", running.Find("b").Value)

	require.False(t, s.Exists(datastore.Tmp), "tmp must be unlinked on scope exit")
}

func TestStartupModeAppliesPersistedStartup(t *testing.T) {
	r, s := newReconciler(t)
	require.NoError(t, s.Create(datastore.Running))
	putXML(t, s, datastore.Running, `<running><a>1</a></running>`)
	require.NoError(t, s.Create(datastore.Startup))
	putXML(t, s, datastore.Startup, `<startup><a>9</a></startup>`)

	require.NoError(t, r.Reconcile(Startup, ""))

	running, err := s.Get(datastore.Running)
	require.NoError(t, err)
	require.Equal(t, "9", running.Find("a").Value)
	require.False(t, s.Exists(datastore.Backup))
	require.False(t, s.Exists(datastore.Tmp))
}
