// Package metrics defines the custom Prometheus metrics of the console API.
// Metrics are registered with the default registry on package init through
// promauto and exposed by the /metrics route.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "primar"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// SignInsTotal counts sign-in attempts.
// Label:
//   - result: "success", "invalid_credentials", "validation" or "error"
var SignInsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sign_ins_total",
		Help:      "Total number of sign-in attempts, by result.",
	},
	[]string{"result"},
)

// ── Board metrics ─────────────────────────────────────────────────────────────

// BoardMovesTotal counts cards that changed column.
// Labels:
//   - from: the status the card left (e.g. "todo")
//   - to: the status the card was dropped on (e.g. "in_progress")
var BoardMovesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "board_moves_total",
		Help:      "Total number of board drops that changed a task status.",
	},
	[]string{"from", "to"},
)

// ── Task metrics ──────────────────────────────────────────────────────────────

// TasksCreatedTotal counts newly created tasks.
// Label:
//   - priority: "low", "medium", "high" or "urgent"
var TasksCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tasks_created_total",
		Help:      "Total number of tasks created, by priority.",
	},
	[]string{"priority"},
)

// ── Client metrics ────────────────────────────────────────────────────────────

// ClientProvisioningTotal counts client provisioning attempts.
// Label:
//   - outcome: "created", "rolled_back", "orphaned" or "rejected"
var ClientProvisioningTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "client_provisioning_total",
		Help:      "Total number of client provisioning attempts, by outcome.",
	},
	[]string{"outcome"},
)
