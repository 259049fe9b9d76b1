// SPDX-License-Identifier: MIT

// Package metrics exposes Prometheus collectors for the playback daemon.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SessionStartTotal tracks the outcome of playback session start attempts.
	SessionStartTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playd_session_start_total",
		Help: "Total number of playback session start attempts by result and reason",
	}, []string{"result", "reason"})

	// SessionStopTotal tracks session stop events by cause.
	SessionStopTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playd_session_stop_total",
		Help: "Total number of playback session stops by cause",
	}, []string{"cause"})

	// ActivePlayers tracks the number of player instances currently active.
	ActivePlayers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "playd_active_players",
		Help: "Number of player instances currently in the active phase",
	})

	// PlayerTeardownDuration tracks how long a full teardown takes.
	PlayerTeardownDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "playd_player_teardown_duration_seconds",
		Help:    "Time taken for a complete player teardown",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2},
	})

	// TelemetryReportTotal tracks telemetry delivery attempts by intent and result.
	TelemetryReportTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playd_telemetry_report_total",
		Help: "Total number of telemetry reports by intent and result",
	}, []string{"intent", "result"})

	// AutoProgressTotal tracks auto-progress outcomes per episode.
	AutoProgressTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playd_autoprogress_total",
		Help: "Total number of auto-progress outcomes (navigated, dismissed, reset)",
	}, []string{"outcome"})
)

// IncSessionStart records a session start attempt outcome.
func IncSessionStart(success bool, reason string) {
	result := "failure"
	if success {
		result = "success"
	}
	SessionStartTotal.WithLabelValues(result, reason).Inc()
}

// IncSessionStop records a session stop by cause.
func IncSessionStop(cause string) {
	SessionStopTotal.WithLabelValues(cause).Inc()
}

// ObservePlayerTeardown records the duration of a completed teardown.
func ObservePlayerTeardown(d time.Duration) {
	PlayerTeardownDuration.Observe(d.Seconds())
}

// IncTelemetryReport records a telemetry delivery attempt.
func IncTelemetryReport(intent string, success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	TelemetryReportTotal.WithLabelValues(intent, result).Inc()
}

// IncAutoProgress records an auto-progress outcome.
func IncAutoProgress(outcome string) {
	AutoProgressTotal.WithLabelValues(outcome).Inc()
}
