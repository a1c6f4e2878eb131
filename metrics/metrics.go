/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package metrics holds the prometheus collectors shared across the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Reconciliations counts completed reconciliation passes by result:
	// "success", "failure" (missing authors), or "aborted" (configuration
	// drift).
	Reconciliations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clagate_reconciliations_total",
		Help: "Pull request reconciliation passes by result.",
	}, []string{"result"})

	// HostWriteFailures counts failed host API writes by kind: "check_run",
	// "comment", or "status".
	HostWriteFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clagate_host_write_failures_total",
		Help: "Failed GitHub write calls by kind.",
	}, []string{"kind"})

	// ContributorsCreated counts contributor records created during
	// identity resolution.
	ContributorsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clagate_contributors_created_total",
		Help: "Contributor records created on first resolution.",
	})
)
