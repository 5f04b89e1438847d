// Package metrics holds the prometheus collectors shared by the inventory and notification code.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SyncToggles counts inventory sync toggles by result: synced, reverted, rejected, failed.
	SyncToggles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ottobite_inventory_sync_toggles_total",
			Help: "Inventory sync toggles by result",
		},
		[]string{"result"},
	)

	// Relinks counts order items whose dangling product reference was repaired by name.
	Relinks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ottobite_inventory_relinks_total",
			Help: "Order item product references repaired by name match",
		},
	)

	// Notifications counts notify calls by outcome: persisted, degraded, lost.
	Notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ottobite_notifications_total",
			Help: "Notifications by persistence outcome",
		},
		[]string{"outcome"},
	)

	// DroppedEvents counts live events dropped because a subscriber buffer was full.
	DroppedEvents = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ottobite_notification_events_dropped_total",
			Help: "Live events dropped for slow subscribers",
		},
	)

	LiveStreams = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ottobite_notification_streams_active",
			Help: "Currently connected notification streams",
		},
	)

	JobRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ottobite_job_runs_total",
			Help: "Background job runs by task type and status",
		},
		[]string{"task", "status"},
	)
)
