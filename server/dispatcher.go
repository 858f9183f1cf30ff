// Copyright (c) 2018-2020, AT&T Intellectual Property. All rights reserved.
//
// Copyright (c) 2014-2017 by Brocade Communications Systems, Inc.
// All rights reserved.
//
// SPDX-License-Identifier: LGPL-2.1-only

package server

import (
	"strings"
	"time"

	"github.com/klement/clixon/datastore"
	"github.com/klement/clixon/monitor"
	"github.com/klement/clixon/rpc"
	"github.com/klement/clixon/session"
	"github.com/klement/clixon/tree"
)

func monitorBuild(s *Srv) *monitor.View {
	return monitor.Build(monitor.Source{
		Store:          s.Store,
		Spec:           s.Spec,
		MonitorDir:     s.MonitorDir,
		StartupEnabled: s.StartupEnabled,
		Capabilities:   s.Capabilities,
	})
}

// dispatch maps an rpc.Request's method name onto a core operation —
// the trimmed replacement for the teacher's reflect-driven method
// table, sized to the handful of operations spec.md actually names
// (get/put/commit/lock/unlock/discard/validate/get-schema/monitoring)
// rather than the teacher's full CLI/RESTCONF surface.
func dispatch(s *Srv, sess *session.Session, method string, args []interface{}) (interface{}, error) {
	switch method {
	case "Exists":
		db, err := dbArg(method, args, 0)
		if err != nil {
			return nil, err
		}
		return s.Store.Exists(db), nil

	case "Get":
		db, err := dbArg(method, args, 0)
		if err != nil {
			return nil, err
		}
		n, err := s.Store.Get(db)
		if err != nil {
			return nil, err
		}
		return n.String(), nil

	case "Put":
		db, err := dbArg(method, args, 0)
		if err != nil {
			return nil, err
		}
		opStr, err := strArg(method, args, 1)
		if err != nil {
			return nil, err
		}
		op, ok := tree.ParseOp(opStr)
		if !ok {
			return nil, &rpc.ArgErr{Method: method, Farg: opStr, Etyp: "tree.Op"}
		}
		xmlStr, err := strArg(method, args, 2)
		if err != nil {
			return nil, err
		}
		patch, err := tree.Decode(strings.NewReader(xmlStr))
		if err != nil {
			return nil, err
		}
		return true, s.Store.Put(db, op, patch.Find(string(db)))

	case "GetState":
		db, err := dbArg(method, args, 0)
		if err != nil {
			return nil, err
		}
		xpath, err := strArg(method, args, 1)
		if err != nil {
			return nil, err
		}
		cfg, err := s.Store.Get(db)
		if err != nil {
			return nil, err
		}
		state, err := s.Registry.Statedata(xpath, nil)
		if err != nil {
			return nil, err
		}
		merged := cfg
		if state != nil {
			merged, err = tree.Apply(cfg, state, tree.OpMerge)
			if err != nil {
				return nil, err
			}
		}
		if xpath == "" {
			return merged.String(), nil
		}
		selected, err := s.Spec.SelectXPath(merged, xpath)
		if err != nil {
			return nil, err
		}
		var out strings.Builder
		for _, n := range selected {
			out.WriteString(n.String())
		}
		return out.String(), nil

	case "Commit":
		db, err := dbArg(method, args, 0)
		if err != nil {
			return nil, err
		}
		start := time.Now()
		err = s.Commits.Commit(db)
		monitor.RecordCommit(err == nil, time.Since(start).Seconds())
		return true, err

	case "Lock":
		db, err := dbArg(method, args, 0)
		if err != nil {
			return nil, err
		}
		return true, s.Store.Lock(db, sess.ID)

	case "Unlock":
		db, err := dbArg(method, args, 0)
		if err != nil {
			return nil, err
		}
		s.Store.Unlock(db, sess.ID)
		return true, nil

	case "Discard":
		return true, s.Store.Copy(datastore.Running, datastore.Candidate)

	case "Validate":
		db, err := dbArg(method, args, 0)
		if err != nil {
			return nil, err
		}
		n, err := s.Store.Get(db)
		if err != nil {
			return nil, err
		}
		return true, s.Spec.Validate(n)

	case "GetSchema":
		return s.Spec.Modules(), nil

	case "MonitoringView":
		v := monitorBuild(s)
		out, err := v.Encode()
		if err != nil {
			return nil, err
		}
		return string(out), nil

	default:
		return nil, &rpc.MethErr{Name: method}
	}
}

func dbArg(method string, args []interface{}, i int) (datastore.Name, error) {
	s, err := strArg(method, args, i)
	if err != nil {
		return "", err
	}
	return datastore.Name(s), nil
}

func strArg(method string, args []interface{}, i int) (string, error) {
	if i >= len(args) {
		return "", &rpc.ArgNErr{Method: method, Len: len(args), Elen: i + 1}
	}
	v, ok := args[i].(string)
	if !ok {
		return "", &rpc.ArgErr{Method: method, Farg: args[i], Etyp: "string"}
	}
	return v, nil
}
