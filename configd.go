// Copyright (c) 2024, the clixon-core authors.
//
// SPDX-License-Identifier: LGPL-2.1-only

// Package configd holds the process-wide configuration options that
// cmd/configd builds from its flags and -f file, and the per-call
// Context type.
package configd

import (
	"github.com/klement/clixon/internal/clog"
)

// LockId identifies the synthetic caller of an internally-driven
// operation, distinct from any real session id.
type LockId int32

const (
	COMMIT LockId = -1
	SYSTEM LockId = -2
)

func (l LockId) String() string {
	switch l {
	case COMMIT:
		return "commit"
	case SYSTEM:
		return "system"
	}
	return "unknown"
}

// Context is the per-call environment: who is calling, what they are
// allowed to do, and where to log, shaped after the teacher's
// *configd.Context. The datastore, txn and plugin APIs in this
// repository take their arguments directly and do not receive a Context.
type Context struct {
	// Pid identifies the calling session (or a LockId sentinel for
	// internally-driven calls such as commit or startup).
	Pid  int32
	Uid  uint32
	User string

	// Internal marks a call made by the core itself (commit, startup)
	// rather than by a client session. Datastore lock checks do not
	// consult it.
	Internal bool

	Config *Config

	Dlog *clog.Logger // debug
	Elog *clog.Logger // error
	Wlog *clog.Logger // warn
}

// Config holds daemon-wide options, populated from CLI flags and/or
// the -f configuration file.
type Config struct {
	User         string
	Group        string
	DatastoreDir string
	PluginDir    string
	Socket       string
	Pidfile      string
	Logfile      string
	Yangdir      string
	YangModule   string
	MonitorDir   string
	Capabilities string
}

// NewContext builds a Context for an internally-driven operation
// (commit, startup reconcile) that carries the SYSTEM pid and bypasses
// session-lock attribution.
func NewContext(cfg *Config, dlog, elog, wlog *clog.Logger) *Context {
	return &Context{
		Pid:      int32(SYSTEM),
		Internal: true,
		Config:   cfg,
		Dlog:     dlog,
		Elog:     elog,
		Wlog:     wlog,
	}
}
