// Copyright (c) 2024, the clixon-core authors.
//
// SPDX-License-Identifier: LGPL-2.1-only

package datastore

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/klement/clixon/tree"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s := Open(t.TempDir(), nil)
	t.Cleanup(s.Close)
	return s
}

func TestCreateFailsIfAlreadyExists(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Create(Candidate))
	require.Error(t, s.Create(Candidate))
}

func TestGetMissingDatabaseReturnsNotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Get(Running)
	require.Error(t, err)
}

func TestPutThenGetRoundTrips(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Create(Candidate))

	patch, err := tree.Decode(strings.NewReader(`<candidate><a>1</a></candidate>`))
	require.NoError(t, err)

	require.NoError(t, s.Put(Candidate, tree.OpMerge, patch.Find("candidate")))

	got, err := s.Get(Candidate)
	require.NoError(t, err)
	require.Equal(t, "1", got.Find("a").Value)
}

func TestCopyIsDeepAndIndependent(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Create(Running))

	patch, err := tree.Decode(strings.NewReader(`<running><a>1</a></running>`))
	require.NoError(t, err)
	require.NoError(t, s.Put(Running, tree.OpMerge, patch.Find("running")))

	require.NoError(t, s.Copy(Running, Candidate))

	patch2, err := tree.Decode(strings.NewReader(`<running><a>2</a></running>`))
	require.NoError(t, err)
	require.NoError(t, s.Put(Running, tree.OpReplace, patch2.Find("running")))

	cand, err := s.Get(Candidate)
	require.NoError(t, err)
	require.Equal(t, "1", cand.Find("a").Value)
}

func TestDeleteIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Create(Tmp))
	require.NoError(t, s.Delete(Tmp))
	require.NoError(t, s.Delete(Tmp))
}

func TestGetAfterLockOnUntouchedDatabaseLoadsFromDisk(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Create(Running))

	patch, err := tree.Decode(strings.NewReader(`<running><a>1</a></running>`))
	require.NoError(t, err)
	require.NoError(t, s.Put(Running, tree.OpMerge, patch.Find("running")))

	// Lock before any Get/Put on this *Store instance has populated the
	// cache; a fresh entry with a nil tree must not shadow the disk
	// content on the next load.
	s2 := Open(s.dir, nil)
	t.Cleanup(s2.Close)
	require.NoError(t, s2.Lock(Running, 1))

	got, err := s2.Get(Running)
	require.NoError(t, err)
	require.Equal(t, "1", got.Find("a").Value)

	require.NoError(t, s2.Put(Running, tree.OpMerge, &tree.Node{
		Name:     "running",
		Children: []*tree.Node{{Name: "b", Value: "2"}},
	}))
	got, err = s2.Get(Running)
	require.NoError(t, err)
	require.Equal(t, "2", got.Find("b").Value)
}

func TestLockDeniesOtherSession(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Lock(Running, 1))
	require.Error(t, s.Lock(Running, 2))
	require.NoError(t, s.Lock(Running, 1))

	sid, ok := s.IsLocked(Running)
	require.True(t, ok)
	require.EqualValues(t, 1, sid)

	s.Unlock(Running, 2)
	_, ok = s.IsLocked(Running)
	require.True(t, ok, "unlock by non-holder must be a no-op")

	s.Unlock(Running, 1)
	_, ok = s.IsLocked(Running)
	require.False(t, ok)
}
