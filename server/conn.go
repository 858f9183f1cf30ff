// Copyright (c) 2018-2020, AT&T Intellectual Property. All rights reserved.
//
// Copyright (c) 2014-2015,2017 by Brocade Communications Systems, Inc.
// All rights reserved.
//
// SPDX-License-Identifier: LGPL-2.1-only

package server

import (
	"encoding/json"
	"io"
	"net"
	"sync"
	"syscall"

	"github.com/klement/clixon/rpc"
)

type conn struct {
	nc      *net.UnixConn
	srv     *Srv
	uid     uint32
	enc     *json.Encoder
	dec     *json.Decoder
	sending sync.Mutex
}

func (s *Srv) newConn(nc *net.UnixConn) *conn {
	return &conn{
		nc:  nc,
		srv: s,
		enc: json.NewEncoder(nc),
		dec: json.NewDecoder(nc),
	}
}

func newResponse(result interface{}, err error, id int) *rpc.Response {
	if err != nil {
		return &rpc.Response{Error: err.Error(), Id: id}
	}
	return &rpc.Response{Result: result, Id: id}
}

func (c *conn) sendResponse(resp *rpc.Response) error {
	c.sending.Lock()
	defer c.sending.Unlock()
	return c.enc.Encode(resp)
}

func (c *conn) readRequest() (*rpc.Request, error) {
	req := new(rpc.Request)
	if err := c.dec.Decode(req); err != nil {
		return nil, err
	}
	return req, nil
}

// getCreds grabs SO_PEERCRED off the Unix socket, the way the
// teacher's SrvConn.getCreds does, to attribute the connection to a
// uid without a separate authentication handshake.
func (c *conn) getCreds() (*syscall.Ucred, error) {
	uf, err := c.nc.File()
	if err != nil {
		return nil, err
	}
	defer uf.Close()
	return syscall.GetsockoptUcred(int(uf.Fd()), syscall.SOL_SOCKET, syscall.SO_PEERCRED)
}

// handle is the per-connection main loop: decode a request, dispatch
// it, encode the response, repeat until EOF.
func (c *conn) handle() {
	defer c.nc.Close()

	cred, err := c.getCreds()
	if err != nil {
		c.srv.log.Err(err, "could not read peer credentials")
		return
	}
	c.uid = cred.Uid

	sess := c.srv.Sessions.Create("")
	defer func() {
		c.srv.Store.UnlockAll(sess.ID)
		c.srv.Sessions.Destroy(sess.ID)
	}()

	for {
		req, err := c.readRequest()
		if err != nil {
			if err != io.EOF {
				c.srv.log.Err(err, "read request failed")
			}
			return
		}

		result, callErr := dispatch(c.srv, sess, req.Method, req.Args)
		if err := c.sendResponse(newResponse(result, callErr, req.Id)); err != nil {
			return
		}
	}
}
