// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ReconcileTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "warikan_reconcile_total",
		Help: "Settlement reconciles by result",
	}, []string{"result"})

	ReconcileDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "warikan_reconcile_duration_seconds",
		Help:    "Time to load, compute, and persist a group's settlements",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	})

	SettlementChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "warikan_settlement_changes_total",
		Help: "Settlements kept, inserted, or deleted by reconciles",
	}, []string{"op"})

	RPCRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "warikan_rpc_requests_total",
		Help: "Connect RPCs by procedure and code",
	}, []string{"procedure", "code"})
)
