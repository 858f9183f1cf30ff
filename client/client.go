// Copyright (c) 2017-2020, AT&T Intellectual Property. All rights reserved.
//
// Copyright (c) 2014-2017 by Brocade Communications Systems, Inc.
// All rights reserved.
//
// SPDX-License-Identifier: MPL-2.0

// Package client is a thin Go client for server's JSON-RPC-over-Unix-
// socket wire protocol, kept from the teacher so server has an
// exercised, testable peer rather than only an internal test harness.
package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"

	"github.com/klement/clixon/rpc"
)

type Client struct {
	conn net.Conn
	enc  *json.Encoder
	dec  *json.Decoder
	id   int
}

// Dial connects to a server listening on network/address, e.g.
// ("unix", "/var/run/clixon/clixon.sock").
func Dial(network, address string) (*Client, error) {
	c, err := net.Dial(network, address)
	if err != nil {
		return nil, err
	}
	return &Client{conn: c, enc: json.NewEncoder(c), dec: json.NewDecoder(c)}, nil
}

func (c *Client) Close() {
	if c.conn != nil {
		c.conn.Close()
	}
}

func (c *Client) call(method string, args ...interface{}) (interface{}, error) {
	c.id++
	if err := c.enc.Encode(&rpc.Request{Method: method, Args: args, Id: c.id}); err != nil {
		return nil, err
	}
	var rep rpc.Response
	if err := c.dec.Decode(&rep); err != nil {
		return nil, err
	}
	if errStr, ok := rep.Error.(string); ok && errStr != "" {
		return rep.Result, errors.New(errStr)
	}
	return rep.Result, nil
}

func (c *Client) callBool(method string, args ...interface{}) (bool, error) {
	v, err := c.call(method, args...)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("wrong return type for %s: got %T, expected bool", method, v)
	}
	return b, nil
}

func (c *Client) callString(method string, args ...interface{}) (string, error) {
	v, err := c.call(method, args...)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("wrong return type for %s: got %T, expected string", method, v)
	}
	return s, nil
}

// Exists reports whether db has been created.
func (c *Client) Exists(db string) (bool, error) {
	return c.callBool("Exists", db)
}

// Get returns db's tree, serialized as pretty-printed XML.
func (c *Client) Get(db string) (string, error) {
	return c.callString("Get", db)
}

// Put applies op (one of "replace", "merge", "remove", "create",
// "delete") with the XML document patchXML against db.
func (c *Client) Put(db, op, patchXML string) error {
	_, err := c.call("Put", db, op, patchXML)
	return err
}

// GetState returns db's configuration merged with every plugin's
// contributed operational state, narrowed to xpath ("" selects
// everything), serialized as pretty-printed XML.
func (c *Client) GetState(db, xpath string) (string, error) {
	return c.callString("GetState", db, xpath)
}

// Commit runs the commit pipeline with source as the candidate
// database.
func (c *Client) Commit(source string) error {
	_, err := c.call("Commit", source)
	return err
}

// Lock attempts to lock db for this connection's session.
func (c *Client) Lock(db string) error {
	_, err := c.call("Lock", db)
	return err
}

// Unlock releases db's lock if held by this connection's session.
func (c *Client) Unlock(db string) error {
	_, err := c.call("Unlock", db)
	return err
}

// Discard resets candidate back to running.
func (c *Client) Discard() error {
	_, err := c.call("Discard")
	return err
}

// Validate runs YANG validation against db without committing it.
func (c *Client) Validate(db string) error {
	_, err := c.call("Validate", db)
	return err
}

// MonitoringView returns the RFC 6022 monitoring document as XML.
func (c *Client) MonitoringView() (string, error) {
	return c.callString("MonitoringView")
}
