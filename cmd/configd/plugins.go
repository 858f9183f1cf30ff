// Copyright (c) 2024, the clixon-core authors.
//
// SPDX-License-Identifier: LGPL-2.1-only

package main

import (
	"github.com/klement/clixon/errkind"
	"github.com/klement/clixon/plugin"
)

// knownPlugins is the compiled-in plugin table. spec.md §1 scopes a
// dlopen-style ".so" plugin loader out of core; -d/-x instead select
// among plugin values linked into this binary, the registry itself
// being the part under spec (see plugin.Plugin's doc comment).
var knownPlugins = map[string]func(dir string) plugin.Plugin{}

// buildRegistry resolves -x's plugin name (if any) against
// knownPlugins and returns a registry holding it, or an empty registry
// if name is empty. An unknown name is a PluginError, matching spec.md
// §7's "symbol resolution... failure" kind and §7's fatal-on-plugin-
// init-failure rule.
func buildRegistry(name, dir string) (*plugin.Registry, error) {
	if name == "" {
		return plugin.New(), nil
	}
	factory, ok := knownPlugins[name]
	if !ok {
		return nil, errkind.Plugin(name, "no such plugin compiled into this binary")
	}
	return plugin.New(factory(dir)), nil
}
