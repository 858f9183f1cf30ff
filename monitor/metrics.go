// Copyright (c) 2024, the clixon-core authors.
//
// SPDX-License-Identifier: LGPL-2.1-only

// Package monitor implements the RFC 6022 monitoring view of spec.md
// §4.5 and exposes the same datastore/lock facts as Prometheus gauges
// — the domain-stack justification for client_golang, following the
// package-level-vars-plus-init-MustRegister idiom of the rest of the
// control-plane corpus.
package monitor

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	DatastoreLocked = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "clixon_datastore_locked",
			Help: "Whether a named datastore is currently locked (1) or not (0)",
		},
		[]string{"datastore"},
	)

	DatastoreLockHolder = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "clixon_datastore_lock_holder_session_id",
			Help: "Session id holding a datastore's lock, when locked",
		},
		[]string{"datastore"},
	)

	SchemasLoaded = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "clixon_schemas_loaded_total",
			Help: "Number of YANG modules currently loaded",
		},
	)

	CommitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clixon_commits_total",
			Help: "Total number of commit attempts by outcome",
		},
		[]string{"outcome"},
	)

	CommitDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "clixon_commit_duration_seconds",
			Help:    "Time spent in the commit pipeline",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(DatastoreLocked)
	prometheus.MustRegister(DatastoreLockHolder)
	prometheus.MustRegister(SchemasLoaded)
	prometheus.MustRegister(CommitsTotal)
	prometheus.MustRegister(CommitDuration)
}

// Handler returns the HTTP handler to mount at /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordCommit updates CommitsTotal/CommitDuration after a commit
// attempt; called by the server's Commit dispatch after
// txn.Manager.Commit returns.
func RecordCommit(ok bool, seconds float64) {
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	CommitsTotal.WithLabelValues(outcome).Inc()
	CommitDuration.Observe(seconds)
}
