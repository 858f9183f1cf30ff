// Copyright (c) 2024, the clixon-core authors.
//
// SPDX-License-Identifier: LGPL-2.1-only

package main

import (
	"github.com/go-ini/ini"

	"github.com/klement/clixon"
)

// fileDefaults holds the subset of configd.Config that the -f
// configuration file may default, one key per section "configd"
// entry. CLI flags explicitly given on the command line always win —
// applyFileDefaults only fills in flags the operator left at their
// zero value.
type fileDefaults struct {
	plugindir    string
	datastoredir string
	socket       string
	pidfile      string
	group        string
	yangdir      string
	yangmodule   string
	monitordir   string
}

// loadConfigFile parses path as an ini document, reading every key
// from its "configd" section (falling back to the unnamed default
// section), the way the teacher's cmd/yangc loads its own ini-style
// xpath-function manifests with github.com/go-ini/ini.
func loadConfigFile(path string) (fileDefaults, error) {
	var d fileDefaults
	if path == "" {
		return d, nil
	}

	f, err := ini.Load(path)
	if err != nil {
		return d, err
	}
	sec := f.Section("configd")
	def := f.Section(ini.DefaultSection)
	get := func(key string) string {
		if sec.HasKey(key) {
			return sec.Key(key).String()
		}
		return def.Key(key).String()
	}

	d.plugindir = get("plugindir")
	d.datastoredir = get("datastoredir")
	d.socket = get("socket")
	d.pidfile = get("pidfile")
	d.group = get("group")
	d.yangdir = get("yangdir")
	d.yangmodule = get("yangmodule")
	d.monitordir = get("monitordir")
	return d, nil
}

// buildConfig merges the -f file's defaults underneath the CLI flags
// (a flag left at its zero value falls back to the file, then to the
// package constant) into the configd.Config threaded through the rest
// of the daemon.
func buildConfig(pidfileFlag, socketFlag string) (*configd.Config, error) {
	d, err := loadConfigFile(*configFile)
	if err != nil {
		return nil, err
	}

	cfg := &configd.Config{
		User:         defaultUser,
		Group:        firstNonEmpty(*group, d.group, defaultGroup),
		DatastoreDir: firstNonEmpty(*storeDir, d.datastoredir, defaultDatastore),
		PluginDir:    firstNonEmpty(*pluginDir, d.plugindir, defaultPluginDir),
		Socket:       firstNonEmpty(socketFlag, d.socket, defaultSocket),
		Pidfile:      firstNonEmpty(pidfileFlag, d.pidfile, defaultPidfile),
		Yangdir:      firstNonEmpty(d.yangdir, defaultYangdir),
		YangModule:   firstNonEmpty(*yangModule, d.yangmodule),
		MonitorDir:   d.monitordir,
	}
	return cfg, nil
}
