// Copyright (c) 2024, the clixon-core authors.
//
// SPDX-License-Identifier: LGPL-2.1-only

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/klement/clixon/startup"
)

func TestParseStartModeAcceptsAllFourModes(t *testing.T) {
	for _, s := range []string{"none", "init", "running", "startup"} {
		m, err := parseStartMode(s)
		require.NoError(t, err)
		require.Equal(t, startup.Mode(s), m)
	}
}

func TestParseStartModeRejectsUnknown(t *testing.T) {
	_, err := parseStartMode("bogus")
	require.Error(t, err)
}

func TestFirstNonEmptyPicksFirstSetValue(t *testing.T) {
	require.Equal(t, "b", firstNonEmpty("", "b", "c"))
	require.Equal(t, "", firstNonEmpty("", ""))
}

func TestLogOutputFileDestination(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "configd.log")
	w, err := logOutput("f" + path)
	require.NoError(t, err)
	if f, ok := w.(*os.File); ok {
		defer f.Close()
	}
	_, statErr := os.Stat(path)
	require.NoError(t, statErr)
}

func TestLogOutputRejectsUnknownDestination(t *testing.T) {
	_, err := logOutput("q")
	require.Error(t, err)
}

func TestZapWithNoPidfileIsANoop(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, zap(filepath.Join(dir, "missing.pid"), filepath.Join(dir, "missing.sock")))
}

func TestZapRemovesStalePidfileAndSocket(t *testing.T) {
	dir := t.TempDir()
	pidfile := filepath.Join(dir, "configd.pid")
	sock := filepath.Join(dir, "configd.sock")
	require.NoError(t, os.WriteFile(pidfile, []byte("999999999\n"), 0644))
	require.NoError(t, os.WriteFile(sock, []byte{}, 0644))

	require.NoError(t, zap(pidfile, sock))

	_, err := os.Stat(pidfile)
	require.True(t, os.IsNotExist(err))
	_, err = os.Stat(sock)
	require.True(t, os.IsNotExist(err))
}

func TestBuildRegistryEmptyWhenNoPluginNamed(t *testing.T) {
	reg, err := buildRegistry("", "")
	require.NoError(t, err)
	require.Empty(t, reg.Each())
}

func TestBuildRegistryRejectsUnknownPlugin(t *testing.T) {
	_, err := buildRegistry("does-not-exist", "")
	require.Error(t, err)
}
