// Copyright (c) 2024, the clixon-core authors.
//
// SPDX-License-Identifier: LGPL-2.1-only

package monitor

// Features gates the optional capability URIs Capabilities advertises
// on which optional databases/features the running daemon has
// enabled, reinstating a detail spec.md's distillation dropped (see
// the SUPPLEMENTED FEATURES section of the expanded specification).
type Features struct {
	Candidate        bool
	Startup          bool
	ConfirmedCommit  bool
	RollbackOnError  bool
	Validate         bool
}

const baseCapability = "urn:ietf:params:netconf:base:1.1"

// Capabilities returns the NETCONF capability URIs this daemon
// advertises: the base capability plus one URI per enabled optional
// feature in f.
func Capabilities(f Features) []string {
	caps := []string{baseCapability}
	add := func(enabled bool, name string) {
		if enabled {
			caps = append(caps, "urn:ietf:params:netconf:capability:"+name+":1.0")
		}
	}
	add(f.Candidate, "candidate")
	add(f.Startup, "startup")
	add(f.ConfirmedCommit, "confirmed-commit")
	add(f.RollbackOnError, "rollback-on-error")
	add(f.Validate, "validate")
	return caps
}
