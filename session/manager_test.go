// Copyright (c) 2024, the clixon-core authors.
//
// SPDX-License-Identifier: LGPL-2.1-only

package session

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreateAllocatesMonotonicIDs(t *testing.T) {
	m := NewManager()
	a := m.Create("alice")
	b := m.Create("bob")
	require.NotEqual(t, a.ID, b.ID)
	require.Greater(t, b.ID, a.ID)
}

func TestDestroyForgetsSession(t *testing.T) {
	m := NewManager()
	s := m.Create("alice")
	require.Equal(t, 1, m.Count())

	m.Destroy(s.ID)
	_, err := m.Get(s.ID)
	require.Error(t, err)
	require.Equal(t, 0, m.Count())
}
