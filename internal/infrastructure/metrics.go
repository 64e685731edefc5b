package infrastructure

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RecordsNormalized = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "replay_records_normalized_total",
		Help: "Total number of order updates normalized from source files",
	}, []string{"format"})

	ScheduleBuildDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "replay_schedule_build_seconds",
		Help: "Time spent building a schedule from a source file",
	}, []string{"format"})

	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "replay_cache_lookups_total",
		Help: "Schedule cache lookups by result",
	}, []string{"result"})

	ActionsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "replay_actions_emitted_total",
		Help: "Order lifecycle actions emitted to the book",
	}, []string{"type"})

	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ws_connections_total",
		Help: "Total number of active WebSocket connections",
	})
)
