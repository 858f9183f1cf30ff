// Copyright (c) 2024, the clixon-core authors.
//
// SPDX-License-Identifier: LGPL-2.1-only

package main

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// daemonComm is compared against /proc/<pid>/comm before signalling a
// pidfile's recorded pid, the way original_source's backend_main.c
// zap path re-checks process identity instead of trusting the pidfile
// alone — a pid can be reused by an unrelated process between the
// pidfile being written and -z being run.
const daemonComm = "configd"

// zap implements spec.md §6's "-z": read pidfile, verify a live
// process still holds it, signal it to exit, then unlink the pidfile
// and socket regardless of whether a live process was found. Returns
// nil on success (including the case where nothing needed killing);
// the caller exits 0 either way, per spec.md §6's exit code table.
func zap(pidfile, socket string) error {
	defer os.Remove(socket)
	defer os.Remove(pidfile)

	data, err := os.ReadFile(pidfile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		// Stale or corrupt pidfile content; nothing to signal.
		return nil
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return nil
	}
	if proc.Signal(syscall.Signal(0)) != nil {
		// Not alive under this pid.
		return nil
	}
	if !commMatches(pid) {
		// Alive, but not the process that wrote this pidfile.
		return nil
	}

	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return err
	}
	waitForExit(pid)
	return nil
}

// commMatches reports whether /proc/<pid>/comm names the configd
// binary. On platforms without /proc (anything but Linux), this
// degrades to a liveness-only check: the signal-0 probe in zap is
// treated as sufficient and commMatches always reports true.
func commMatches(pid int) bool {
	comm, err := os.ReadFile(filepath.Join("/proc", strconv.Itoa(pid), "comm"))
	if err != nil {
		return true
	}
	return strings.TrimSpace(string(comm)) == daemonComm
}

// waitForExit polls briefly for pid to stop responding to signal 0,
// so -z does not race its own os.Remove calls against a daemon that
// is still mid-shutdown.
func waitForExit(pid int) {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return
	}
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if proc.Signal(syscall.Signal(0)) != nil {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
}
