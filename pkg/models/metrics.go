package models

import (
	"sort"
)

type IncidentMetrics struct {
	ResponseTime       *int64 `json:"responseTime,omitempty"`
	ResolutionTime     *int64 `json:"resolutionTime,omitempty"`
	ContactsNotified   int    `json:"contactsNotified"`
	VolunteersNotified int    `json:"volunteersNotified"`
}

// Metrics derives response metrics from a loaded incident. Durations are whole seconds.
func (i *Incident) Metrics() IncidentMetrics {
	var m IncidentMetrics

	timeline := make([]TimelineEntry, len(i.Timeline))
	copy(timeline, i.Timeline)
	sort.SliceStable(timeline, func(a, b int) bool {
		return timeline[a].Timestamp.Before(timeline[b].Timestamp)
	})
	for _, entry := range timeline {
		if AcknowledgingActions[entry.Action] {
			secs := int64(entry.Timestamp.Sub(i.CreatedAt).Seconds())
			m.ResponseTime = &secs
			break
		}
	}

	if i.Resolution.ResolvedAt != nil {
		secs := int64(i.Resolution.ResolvedAt.Sub(i.CreatedAt).Seconds())
		m.ResolutionTime = &secs
	}

	reached := map[string]bool{}
	for _, n := range i.Notifications {
		if n.Success {
			reached[n.ContactID] = true
		}
	}
	m.ContactsNotified = len(reached)
	m.VolunteersNotified = len(i.Responders)
	return m
}

// Outcome re-derives the notification outcome from the stored responses.
func (i *Incident) Outcome() NotificationOutcome {
	return DeriveOutcome(i.Responses)
}
