// Copyright (c) 2024, the clixon-core authors.
//
// SPDX-License-Identifier: LGPL-2.1-only

// Package errkind maps the eight error kinds of the core (spec.md §7)
// onto github.com/danos/mgmterror's NETCONF <rpc-error>-shaped values,
// the way the teacher's session/errors.go and session/commit.go do
// ad hoc per call site. Centralizing the mapping here means every
// package raises errors of a known kind instead of reaching for
// mgmterror constructors directly.
package errkind

import (
	"fmt"

	"github.com/danos/mgmterror"
	"github.com/danos/utils/pathutil"
)

// Config reports a missing or invalid CLI option or configuration
// file entry.
func Config(msg string) error {
	err := mgmterror.NewInvalidValueApplicationError()
	err.Message = msg
	return err
}

// Schema reports a YANG parse failure or a validation failure
// (types, ranges, mandatory, must/when, leafref, unique) against the
// loaded schema. path, if non-empty, is attached as the error-path.
func Schema(path []string, msg string) error {
	err := mgmterror.NewInvalidValueApplicationError()
	err.Message = msg
	if len(path) > 0 {
		err.Path = pathutil.Pathstr(path)
	}
	return err
}

// Storage reports a filesystem or serialization failure on a
// database.
func Storage(db, msg string) error {
	err := mgmterror.NewOperationFailedApplicationError()
	err.Message = fmt.Sprintf("%s: %s", db, msg)
	return err
}

// Lock reports that db is already held by holder.
func Lock(db string, holder int32) error {
	err := mgmterror.NewLockDeniedError(fmt.Sprintf("%d", holder))
	err.Message = fmt.Sprintf("database %q is locked by session %d", db, holder)
	return err
}

// Phase names the point in the commit pipeline (spec.md §4.2) a
// transaction error was raised at.
type Phase string

const (
	PhaseValidate Phase = "validate"
	PhaseCommit   Phase = "commit"
	PhaseRevert   Phase = "revert"
)

// Transaction reports a plugin hook failure, classified by the phase
// of the commit pipeline it occurred in.
func Transaction(phase Phase, plugin, msg string) error {
	err := mgmterror.NewOperationFailedApplicationError()
	err.Message = fmt.Sprintf("transaction %s failed in plugin %q: %s", phase, plugin, msg)
	return err
}

// Plugin reports a symbol-resolution or init/start failure for a
// plugin.
func Plugin(name, msg string) error {
	err := mgmterror.NewOperationFailedApplicationError()
	err.Message = fmt.Sprintf("plugin %q: %s", name, msg)
	return err
}

// Socket reports a bind/accept/read/write failure on the backend
// listener.
func Socket(msg string) error {
	err := mgmterror.NewOperationFailedApplicationError()
	err.Message = msg
	return err
}

// Fatal reports an unrecoverable invariant violation; the caller
// should exit the process after logging it.
func Fatal(msg string) error {
	err := mgmterror.NewOperationFailedApplicationError()
	err.Message = "fatal: " + msg
	return err
}

// AlreadyExists is the DataExistsError raised by datastore.Create when
// the named database is already materialized.
func AlreadyExists(db string) error {
	err := mgmterror.NewDataExistsError()
	err.Message = fmt.Sprintf("database %q already exists", db)
	return err
}

// NotFound is raised when an operation addresses a database that does
// not (yet) exist.
func NotFound(db string) error {
	err := mgmterror.NewUnknownElementApplicationError(db)
	err.Message = fmt.Sprintf("database %q does not exist", db)
	return err
}
