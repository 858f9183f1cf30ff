// Copyright (c) 2024, the clixon-core authors.
//
// SPDX-License-Identifier: LGPL-2.1-only

package server

import (
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/klement/clixon/client"
	"github.com/klement/clixon/datastore"
	"github.com/klement/clixon/plugin"
	"github.com/klement/clixon/session"
	"github.com/klement/clixon/tree"
	"github.com/klement/clixon/txn"
	"github.com/klement/clixon/yangspec"
)

type fakeStatedataPlugin struct{}

func (fakeStatedataPlugin) Name() string { return "fake-statedata" }
func (fakeStatedataPlugin) Statedata(xpath string, nsc map[string]string) (*tree.Node, error) {
	n := tree.New("running")
	n.Append(&tree.Node{Name: "uptime", Value: "42"})
	return n, nil
}

func startTestServer(t *testing.T) (string, *Srv) {
	t.Helper()
	dir := t.TempDir()
	store := datastore.Open(dir, nil)
	t.Cleanup(store.Close)
	require.NoError(t, store.Create(datastore.Running))
	require.NoError(t, store.Create(datastore.Candidate))

	reg := plugin.New()
	commits := txn.NewManager(store, &yangspec.Spec{}, reg)

	sockPath := filepath.Join(dir, "clixon.sock")
	addr, err := net.ResolveUnixAddr("unix", sockPath)
	require.NoError(t, err)
	ln, err := net.ListenUnix("unix", addr)
	require.NoError(t, err)
	t.Cleanup(func() { os.Remove(sockPath) })

	s := New(ln, nil)
	s.Store = store
	s.Sessions = session.NewManager()
	s.Commits = commits
	s.Registry = reg
	s.Spec = &yangspec.Spec{}

	go s.Serve()
	return sockPath, s
}

func TestClientGetPutCommitRoundTrip(t *testing.T) {
	sockPath, _ := startTestServer(t)

	var c *client.Client
	require.Eventually(t, func() bool {
		var err error
		c, err = client.Dial("unix", sockPath)
		return err == nil
	}, time.Second, 10*time.Millisecond)
	defer c.Close()

	ok, err := c.Exists("running")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, c.Put("candidate", "merge", `<candidate><a>1</a></candidate>`))
	require.NoError(t, c.Commit("candidate"))

	out, err := c.Get("running")
	require.NoError(t, err)
	require.Contains(t, out, "<a>1</a>")
}

func TestClientGetStateMergesPluginStatedata(t *testing.T) {
	dir := t.TempDir()
	store := datastore.Open(dir, nil)
	t.Cleanup(store.Close)
	require.NoError(t, store.Create(datastore.Running))
	require.NoError(t, store.Create(datastore.Candidate))
	require.NoError(t, store.Put(datastore.Running, tree.OpMerge, &tree.Node{
		Name:     "running",
		Children: []*tree.Node{{Name: "a", Value: "1"}},
	}))

	reg := plugin.New(fakeStatedataPlugin{})
	commits := txn.NewManager(store, &yangspec.Spec{}, reg)

	sockPath := filepath.Join(dir, "clixon.sock")
	addr, err := net.ResolveUnixAddr("unix", sockPath)
	require.NoError(t, err)
	ln, err := net.ListenUnix("unix", addr)
	require.NoError(t, err)
	t.Cleanup(func() { os.Remove(sockPath) })

	s := New(ln, nil)
	s.Store = store
	s.Sessions = session.NewManager()
	s.Commits = commits
	s.Registry = reg
	s.Spec = &yangspec.Spec{}
	go s.Serve()

	var c *client.Client
	require.Eventually(t, func() bool {
		c, err = client.Dial("unix", sockPath)
		return err == nil
	}, time.Second, 10*time.Millisecond)
	defer c.Close()

	out, err := c.GetState("running", "")
	require.NoError(t, err)
	require.Contains(t, out, "<a>1</a>")
	require.Contains(t, out, "<uptime>42</uptime>")
}

func TestClientLockDeniesSecondSession(t *testing.T) {
	sockPath, _ := startTestServer(t)

	c1, err := client.Dial("unix", sockPath)
	require.NoError(t, err)
	defer c1.Close()
	require.NoError(t, c1.Lock("running"))

	c2, err := client.Dial("unix", sockPath)
	require.NoError(t, err)
	defer c2.Close()
	require.Error(t, c2.Lock("running"))
}
