// Copyright (c) 2024, the clixon-core authors.
//
// SPDX-License-Identifier: LGPL-2.1-only

package main

import (
	"fmt"
	"io"
	"log/syslog"
	"os"
	"strings"

	osgroup "github.com/danos/utils/os/group"

	"github.com/klement/clixon/internal/clog"
)

// initLogging builds the three component-scoped loggers (debug, error,
// warn: the roles configd.Context's Dlog/Elog/Wlog name), from -l's destination spec
// and -D's verbosity, the way the teacher's initialiseLogging/-logfile
// flag pair choose a destination once at startup.
func initLogging(dest string, debugLevel int) (dlog, elog, wlog *clog.Logger) {
	level := clog.InfoLevel
	if debugLevel > 0 {
		level = clog.DebugLevel
	}

	out, err := logOutput(dest)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configd: %s, falling back to stderr\n", err)
		out = os.Stderr
	}

	cfg := clog.Config{Level: level, Output: out}
	return clog.New(cfg, "debug"), clog.New(cfg, "error"), clog.New(cfg, "warn")
}

// logOutput parses -l's s|e|o|f<file> destination spec into the
// io.Writer clog.Config.Output wraps.
func logOutput(dest string) (io.Writer, error) {
	if dest == "" {
		return os.Stderr, nil
	}
	switch dest[0] {
	case 'e':
		return os.Stderr, nil
	case 'o':
		return os.Stdout, nil
	case 'f':
		path := strings.TrimPrefix(dest, "f")
		if path == "" {
			return os.Stderr, fmt.Errorf("log destination %q missing file path", dest)
		}
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0640)
		if err != nil {
			return os.Stderr, err
		}
		return f, nil
	case 's':
		// log/syslog has no third-party replacement in the pack; it is
		// the one place this daemon reaches for the standard library
		// over zerolog, since zerolog has no native syslog writer.
		w, err := syslog.New(syslog.LOG_DAEMON|syslog.LOG_INFO, "configd")
		if err != nil {
			return os.Stderr, err
		}
		return w, nil
	}
	return os.Stderr, fmt.Errorf("unknown log destination %q", dest)
}

func lookupGroupID(name string) (int, error) {
	g, err := osgroup.Lookup(name)
	if err != nil {
		return 0, err
	}
	return int(g.Gid), nil
}
