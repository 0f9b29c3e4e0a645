package sos

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	incidentsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sos",
			Name:      "incidents_created_total",
			Help:      "Incidents created, by type",
		},
		[]string{"type"},
	)

	notificationAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sos",
			Name:      "notification_attempts_total",
			Help:      "Per (contact, channel) notification results, by channel and outcome",
		},
		[]string{"channel", "outcome"},
	)

	escalationCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sos",
			Name:      "escalation_calls_total",
			Help:      "Escalation call status changes, by status",
		},
		[]string{"status"},
	)

	geofenceTriggers = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sos",
			Name:      "geofence_triggers_total",
			Help:      "Geofence triggers emitted, by direction",
		},
		[]string{"direction"},
	)

	limitedRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sos",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the per-key rate limiter, by surface",
		},
		[]string{"surface"},
	)
)

func outcomeLabel(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
