package models

import (
	"liyu1981.xyz/sos-response-service/pkg/geo"
)

// TriggerInput describes an inbound trigger that may open an incident.
type TriggerInput struct {
	UserID   string
	DeviceID string
	// EventID is the device's own id for the physical trigger, used to derive DedupKey.
	EventID  string
	DedupKey string
	Type     IncidentType
	Source   TriggerSource
	Priority Priority
	Location geo.Point
	Accuracy float64
	Actor    Actor
}

// ResponseInput is an inbound reply from a contact on any channel.
type ResponseInput struct {
	IncidentID string
	ContactID  string
	Phone      string
	Channel    Channel
	Kind       ResponseKind
	Message    string
}

type IncidentView struct {
	Incident Incident            `json:"incident"`
	Metrics  IncidentMetrics     `json:"metrics"`
	Outcome  NotificationOutcome `json:"outcome"`
	Calls    []EscalationCall    `json:"calls"`
}

// CascadeResult holds one attempt per (contact, channel), ordered by contact priority then
// channel order, failures included.
type CascadeResult struct {
	IncidentID        string                `json:"incidentId"`
	Attempts          []NotificationAttempt `json:"attempts"`
	EmergencyServices *EmergencyServices    `json:"emergencyServices,omitempty"`
}

func (r *CascadeResult) Succeeded() int {
	n := 0
	for _, a := range r.Attempts {
		if a.Success {
			n++
		}
	}
	return n
}

// Match is a volunteer found near an incident.
type Match struct {
	UserID         string  `json:"userId"`
	Name           string  `json:"name"`
	DistanceMeters float64 `json:"distanceMeters"`
	ETAMinutes     int     `json:"etaMinutes"`
}

// DeviceEventLocation is the device event type for a plain position report.
const DeviceEventLocation = "location"

// DeviceEvent is what a wearable reports over the webhook or MQTT. Type is either
// DeviceEventLocation or one of the incident types.
type DeviceEvent struct {
	DeviceID  string   `json:"deviceId"`
	EventID   string   `json:"eventId"`
	UserID    string   `json:"userId"`
	Type      string   `json:"type"`
	Priority  Priority `json:"priority,omitempty"`
	Lat       float64  `json:"lat"`
	Lng       float64  `json:"lng"`
	Accuracy  float64  `json:"accuracy,omitempty"`
	Timestamp int64    `json:"timestamp,omitempty"`
}

func (e DeviceEvent) Point() geo.Point {
	return geo.Point{Lat: e.Lat, Lng: e.Lng}
}

func (e DeviceEvent) Trigger() TriggerInput {
	return TriggerInput{
		UserID:   e.UserID,
		DeviceID: e.DeviceID,
		EventID:  e.EventID,
		Type:     IncidentType(e.Type),
		Source:   TriggerSourceDevice,
		Priority: e.Priority,
		Location: e.Point(),
		Accuracy: e.Accuracy,
		Actor:    Actor{ID: e.DeviceID, Role: RoleSystem},
	}
}
