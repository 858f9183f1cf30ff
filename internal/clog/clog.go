// Copyright (c) 2024, the clixon-core authors.
//
// SPDX-License-Identifier: LGPL-2.1-only

// Package clog wraps zerolog the way the rest of the control-plane
// corpus does: a process-wide logger, component-scoped children, and
// a JSON-or-console output switch. It plays the role the teacher gave
// to *log.Logger backed by syslog, without the syslog dependency.
package clog

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is a thin, named handle over a zerolog.Logger. Kept as a
// distinct type (rather than a zerolog.Logger alias) so configd.Context
// can document the three teacher-shaped roles (Dlog/Elog/Wlog) in its
// field types.
type Logger struct {
	zl zerolog.Logger
}

// Config mirrors the options a -D/-l CLI flag pair would set.
type Config struct {
	Level   Level
	JSON    bool
	Output  io.Writer
	Syslog  bool // not read by New; a syslog destination is passed as Output
	Tag     string
}

type Level string

const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
)

func levelOf(l Level) zerolog.Level {
	switch l {
	case DebugLevel:
		return zerolog.DebugLevel
	case WarnLevel:
		return zerolog.WarnLevel
	case ErrorLevel:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// New builds a component-scoped logger. component is attached as a
// structured field on every record, matching the teacher's separate
// Dlog/Elog/Wlog streams but as one structured stream filterable by
// field instead of by destination.
func New(cfg Config, component string) *Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	var zl zerolog.Logger
	if cfg.JSON {
		zl = zerolog.New(out).Level(levelOf(cfg.Level)).With().
			Timestamp().Str("component", component).Logger()
	} else {
		zl = zerolog.New(zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}).Level(levelOf(cfg.Level)).With().
			Timestamp().Str("component", component).Logger()
	}
	return &Logger{zl: zl}
}

// Discard returns a Logger that drops everything; used where the
// teacher falls back to log.New(ioutil.Discard, "", 0) on syslog
// failure.
func Discard() *Logger {
	return &Logger{zl: zerolog.New(io.Discard)}
}

func (l *Logger) Println(args ...interface{}) {
	l.zl.Info().Msg(fmt.Sprint(args...))
}

func (l *Logger) Printf(format string, args ...interface{}) {
	l.zl.Info().Msgf(format, args...)
}

func (l *Logger) Debugf(format string, args ...interface{}) {
	l.zl.Debug().Msgf(format, args...)
}

func (l *Logger) Errorf(format string, args ...interface{}) {
	l.zl.Error().Msgf(format, args...)
}

func (l *Logger) Err(err error, msg string) {
	l.zl.Error().Err(err).Msg(msg)
}

// With returns a child logger with an additional structured field,
// e.g. With("sid", sid) for per-session log correlation.
func (l *Logger) With(key, value string) *Logger {
	return &Logger{zl: l.zl.With().Str(key, value).Logger()}
}

