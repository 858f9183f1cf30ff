// Copyright (c) 2018-2020, AT&T Intellectual Property. All rights reserved.
//
// Copyright (c) 2014-2017 by Brocade Communications Systems, Inc.
// All rights reserved.
//
// SPDX-License-Identifier: LGPL-2.1-only

// Package server is the thin front-end dispatcher spec.md §1 scopes
// out of the core: it accepts Unix connections, decodes the
// teacher's JSON-RPC wire shape (rpc.Request/rpc.Response) and
// dispatches each call by method name to datastore/txn/monitor/session
// operations. Wire framing, TLS and NACM-style authentication are
// explicitly out of scope; Srv trusts SO_PEERCRED for the caller uid
// the way the teacher's conn.go does, but does not itself enforce
// authorization.
package server

import (
	"net"
	"time"

	"github.com/klement/clixon/datastore"
	"github.com/klement/clixon/internal/clog"
	"github.com/klement/clixon/monitor"
	"github.com/klement/clixon/plugin"
	"github.com/klement/clixon/session"
	"github.com/klement/clixon/txn"
	"github.com/klement/clixon/yangspec"
)

// Srv is the accept loop and the shared core handles every connection
// dispatches against.
type Srv struct {
	ln  *net.UnixListener
	log *clog.Logger

	Store    *datastore.Store
	Sessions *session.Manager
	Commits  *txn.Manager
	Registry *plugin.Registry
	Spec     *yangspec.Spec

	MonitorDir     string
	StartupEnabled bool
	Capabilities   []string
}

// New wraps an already-bound/listening Unix listener (cmd/configd
// handles systemd socket activation vs. a fresh bind before calling
// this).
func New(ln *net.UnixListener, log *clog.Logger) *Srv {
	if log == nil {
		log = clog.Discard()
	}
	return &Srv{ln: ln, log: log}
}

// Serve accepts connections and spawns a goroutine per connection, the
// way the teacher's Srv.Serve does.
func (s *Srv) Serve() error {
	for {
		conn, err := s.ln.AcceptUnix()
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Temporary() {
				time.Sleep(10 * time.Millisecond)
				continue
			}
			s.log.Err(err, "accept failed, server loop exiting")
			return err
		}
		c := s.newConn(conn)
		go c.handle()
	}
}
