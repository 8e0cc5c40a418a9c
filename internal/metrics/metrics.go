package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// FramesApplied counts push frames folded into the local state.
	FramesApplied = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "vehicle_push_frames_applied_total",
			Help: "Total number of push frames applied to the vehicle registry.",
		},
	)

	// FramesDropped counts push frames dropped because their vehicle is
	// unknown to the registry (excluded or not yet loaded).
	FramesDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "vehicle_push_frames_dropped_total",
			Help: "Total number of push frames dropped for unknown vehicles.",
		},
	)

	// Reconnects counts push channel reconnection attempts.
	Reconnects = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "vehicle_push_reconnects_total",
			Help: "Total number of push channel reconnection attempts.",
		},
	)

	// PushConnected reports the push channel connectivity (1=active).
	PushConnected = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "vehicle_push_connected",
			Help: "Whether the push channel is currently active (1) or not (0).",
		},
	)
)

func init() {
	prometheus.MustRegister(FramesApplied)
	prometheus.MustRegister(FramesDropped)
	prometheus.MustRegister(Reconnects)
	prometheus.MustRegister(PushConnected)
}
