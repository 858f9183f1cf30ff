// Copyright (c) 2024, the clixon-core authors.
//
// SPDX-License-Identifier: LGPL-2.1-only

package tree

import "github.com/klement/clixon/errkind"

func errAlreadyExists(name string) error {
	return errkind.AlreadyExists(name)
}

func errNotPresent(name string) error {
	return errkind.NotFound(name)
}
