// Package observability exposes Prometheus metrics for the relay and the
// lifecycle synchronizer. Counters only; the interesting signals here are
// event volumes and drop/ignore rates, not latencies.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RelayEventsReceived counts decoded relay events by event name.
	RelayEventsReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hailo_relay_events_received_total",
		Help: "Relay events received and decoded, by event name.",
	}, []string{"event"})

	// RelayEventsDropped counts relay frames rejected at the boundary
	// (malformed JSON, missing ride id, unknown status).
	RelayEventsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hailo_relay_events_dropped_total",
		Help: "Relay frames dropped by the validating decoder, by reason.",
	}, []string{"reason"})

	// RelayReconnects counts successful reconnections to the relay.
	RelayReconnects = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hailo_relay_reconnects_total",
		Help: "Successful relay reconnections.",
	})

	// SyncUpdatesApplied counts updates accepted by a synchronizer,
	// by source channel (relay or store).
	SyncUpdatesApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hailo_sync_updates_applied_total",
		Help: "Ride updates applied to a local view, by source.",
	}, []string{"source"})

	// SyncUpdatesIgnored counts updates rejected by a synchronizer
	// (wrong ride id, or no tracked ride after termination).
	SyncUpdatesIgnored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hailo_sync_updates_ignored_total",
		Help: "Ride updates ignored because they did not target the tracked ride.",
	})

	// IntentOutcomes counts intent action results by action and outcome
	// (ok, unavailable, error).
	IntentOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hailo_intent_outcomes_total",
		Help: "Intent action outcomes, by action and outcome.",
	}, []string{"action", "outcome"})
)
