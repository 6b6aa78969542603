// Package metrics exposes Prometheus instrumentation for the agent's
// control-channel loop.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OutboundQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hubagent_outbound_queue_depth",
		Help: "Current number of frames buffered in the outbound websocket queue.",
	})
	AssignmentsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hubagent_assignments_inflight",
		Help: "Number of assignments currently executing.",
	})
	AssignmentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hubagent_assignments_total",
		Help: "Total number of assignments dispatched, by terminal outcome.",
	}, []string{"outcome"})
	HeartbeatsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hubagent_heartbeats_total",
		Help: "Total number of inbound heartbeat probes answered.",
	})
	DispatchErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hubagent_dispatch_errors_total",
		Help: "Total number of per-assignment dispatch failures, by reason.",
	}, []string{"reason"})
	BootstrapAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hubagent_bootstrap_attempts_total",
		Help: "Total number of config-resolution attempts, by phase and outcome.",
	}, []string{"phase", "outcome"})
)
