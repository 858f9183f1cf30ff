// Copyright (c) 2024, the clixon-core authors.
//
// SPDX-License-Identifier: LGPL-2.1-only

package monitor

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/klement/clixon/datastore"
	"github.com/klement/clixon/yangspec"
)

func TestBuildReflectsLockState(t *testing.T) {
	s := datastore.Open(t.TempDir(), nil)
	t.Cleanup(s.Close)
	require.NoError(t, s.Create(datastore.Running))
	require.NoError(t, s.Create(datastore.Candidate))
	require.NoError(t, s.Lock(datastore.Running, 7))

	v := Build(Source{
		Store:        s,
		Spec:         &yangspec.Spec{},
		Capabilities: Capabilities(Features{Candidate: true}),
	})

	require.Len(t, v.Datastores, 2)
	var running Datastore
	for _, d := range v.Datastores {
		if d.Name == "running" {
			running = d
		}
	}
	require.EqualValues(t, 7, running.LockedBySession)
	require.NotEmpty(t, running.LockedTime)
	require.Contains(t, v.Capabilities, baseCapability)
}

func TestCapabilitiesGatedByFeature(t *testing.T) {
	caps := Capabilities(Features{Startup: true})
	require.Contains(t, caps, "urn:ietf:params:netconf:capability:startup:1.0")
	require.NotContains(t, caps, "urn:ietf:params:netconf:capability:candidate:1.0")
}
