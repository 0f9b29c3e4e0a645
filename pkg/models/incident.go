package models

import (
	"time"

	"gorm.io/datatypes"
)

type IncidentType string

const (
	IncidentTypeManualSOS        IncidentType = "manual_sos"
	IncidentTypeFallDetection    IncidentType = "fall_detection"
	IncidentTypeNoMotion         IncidentType = "no_motion"
	IncidentTypeTamperAlert      IncidentType = "tamper_alert"
	IncidentTypeHeartrateAnomaly IncidentType = "heartrate_anomaly"
	IncidentTypeGeofenceBreach   IncidentType = "geofence_breach"
)

var IncidentTypes = []string{
	string(IncidentTypeManualSOS),
	string(IncidentTypeFallDetection),
	string(IncidentTypeNoMotion),
	string(IncidentTypeTamperAlert),
	string(IncidentTypeHeartrateAnomaly),
	string(IncidentTypeGeofenceBreach),
}

type IncidentStatus string

const (
	IncidentStatusActive       IncidentStatus = "active"
	IncidentStatusAcknowledged IncidentStatus = "acknowledged"
	IncidentStatusResponding   IncidentStatus = "responding"
	IncidentStatusResolved     IncidentStatus = "resolved"
	IncidentStatusFalseAlarm   IncidentStatus = "false_alarm"
	IncidentStatusCancelled    IncidentStatus = "cancelled"
)

var IncidentStatuses = []string{
	string(IncidentStatusActive),
	string(IncidentStatusAcknowledged),
	string(IncidentStatusResponding),
	string(IncidentStatusResolved),
	string(IncidentStatusFalseAlarm),
	string(IncidentStatusCancelled),
}

func (s IncidentStatus) Terminal() bool {
	return s == IncidentStatusResolved || s == IncidentStatusFalseAlarm || s == IncidentStatusCancelled
}

type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

var Priorities = []string{
	string(PriorityLow),
	string(PriorityMedium),
	string(PriorityHigh),
	string(PriorityCritical),
}

// Bump returns the next priority up, saturating at critical.
func (p Priority) Bump() Priority {
	switch p {
	case PriorityLow:
		return PriorityMedium
	case PriorityMedium:
		return PriorityHigh
	default:
		return PriorityCritical
	}
}

type TriggerSource string

const (
	TriggerSourceDevice    TriggerSource = "device_webhook"
	TriggerSourceManual    TriggerSource = "manual"
	TriggerSourceGeofence  TriggerSource = "geofence"
	TriggerSourceScheduled TriggerSource = "scheduled"
)

type Resolution struct {
	Kind       IncidentStatus `gorm:"type:varchar(20)"`
	ResolvedBy string
	ResolvedAt *time.Time
	Notes      string
}

type EmergencyServices struct {
	Notified      bool
	NotifiedAt    *time.Time
	PoliceCaseID  string
	MedicalCaseID string
}

// Incident is the stored document for one emergency. Trail, Timeline, Responders, Notifications and
// Responses are append-only child rows.
type Incident struct {
	ID       string         `gorm:"primaryKey;type:varchar(36)"`
	UserID   string         `gorm:"index;not null"`
	DeviceID *string        `gorm:"index"`
	DedupKey *string        `gorm:"uniqueIndex"`
	Type     IncidentType   `gorm:"type:varchar(32);not null"`
	Status   IncidentStatus `gorm:"type:varchar(20);index;not null"`
	Priority Priority       `gorm:"type:varchar(10);not null"`
	Source   TriggerSource  `gorm:"type:varchar(20)"`

	InitialLat      float64
	InitialLng      float64
	CurrentLat      float64
	CurrentLng      float64
	CurrentAccuracy float64

	Resolution        Resolution        `gorm:"embedded;embeddedPrefix:resolution_"`
	EmergencyServices EmergencyServices `gorm:"embedded;embeddedPrefix:emergency_"`

	EscalationLevel int
	EscalatedAt     *time.Time
	ArchivedAt      *time.Time `gorm:"index"`
	CreatedAt       time.Time  `gorm:"index"`
	UpdatedAt       time.Time

	Trail         []LocationPoint        `gorm:"foreignKey:IncidentID;references:ID"`
	Timeline      []TimelineEntry        `gorm:"foreignKey:IncidentID;references:ID"`
	Responders    []Responder            `gorm:"foreignKey:IncidentID;references:ID"`
	Notifications []NotificationAttempt  `gorm:"foreignKey:IncidentID;references:ID"`
	Responses     []NotificationResponse `gorm:"foreignKey:IncidentID;references:ID"`
}

type LocationPoint struct {
	ID         uint   `gorm:"primaryKey"`
	IncidentID string `gorm:"index;type:varchar(36)"`
	Lat        float64
	Lng        float64
	Accuracy   float64
	RecordedAt time.Time
}

const (
	ActionCreated                   = "created"
	ActionStatusAcknowledged        = "acknowledged"
	ActionStatusResponding          = "responding"
	ActionStatusResolved            = "resolved"
	ActionStatusFalseAlarm          = "false_alarm"
	ActionStatusCancelled           = "cancelled"
	ActionResponderAdded            = "responder_added"
	ActionResponderAccepted         = "responder_accepted"
	ActionResponderDeclined         = "responder_declined"
	ActionNotificationsDispatched   = "notifications_dispatched"
	ActionContactAcknowledged       = "contact_acknowledged"
	ActionContactDeclined           = "contact_declined"
	ActionContactReplied            = "contact_replied"
	ActionEmergencyServicesNotified = "emergency_services_notified"
	ActionEscalationCallsPlaced     = "escalation_calls_placed"
	ActionEscalated                 = "escalated"
	ActionVolunteersMatched         = "volunteers_matched"
	ActionArchived                  = "archived"
)

// AcknowledgingActions are timeline actions that count as the first human response.
var AcknowledgingActions = map[string]bool{
	ActionStatusAcknowledged:  true,
	ActionStatusResponding:    true,
	ActionContactAcknowledged: true,
	ActionResponderAccepted:   true,
}

type TimelineEntry struct {
	ID         uint   `gorm:"primaryKey"`
	IncidentID string `gorm:"index;type:varchar(36)"`
	Action     string `gorm:"type:varchar(40);not null"`
	Actor      string
	Timestamp  time.Time `gorm:"index"`
	Details    datatypes.JSONMap
}

type ResponderType string

const (
	ResponderTypeVolunteer ResponderType = "volunteer"
	ResponderTypeStaff     ResponderType = "staff"
	ResponderTypeServices  ResponderType = "emergency_services"
)

type ResponderStatus string

const (
	ResponderStatusNotified ResponderStatus = "notified"
	ResponderStatusAccepted ResponderStatus = "accepted"
	ResponderStatusDeclined ResponderStatus = "declined"
	ResponderStatusArrived  ResponderStatus = "arrived"
)

type Responder struct {
	ID             uint            `gorm:"primaryKey"`
	IncidentID     string          `gorm:"uniqueIndex:idx_responder_incident_user;type:varchar(36)"`
	UserID         string          `gorm:"uniqueIndex:idx_responder_incident_user"`
	Type           ResponderType   `gorm:"type:varchar(20)"`
	Status         ResponderStatus `gorm:"type:varchar(20)"`
	DistanceMeters float64
	ETAMinutes     *int
	NotifiedAt     time.Time
	RespondedAt    *time.Time
}

type Channel string

const (
	ChannelSMS   Channel = "sms"
	ChannelCall  Channel = "call"
	ChannelEmail Channel = "email"
	ChannelPush  Channel = "push"
)

// ChannelOrder is the order channels are tried within one contact.
var ChannelOrder = []Channel{ChannelSMS, ChannelCall, ChannelEmail, ChannelPush}

func ValidChannel(c Channel) bool {
	for _, known := range ChannelOrder {
		if c == known {
			return true
		}
	}
	return false
}

type NotificationAttempt struct {
	ID          uint   `gorm:"primaryKey"`
	IncidentID  string `gorm:"index;type:varchar(36)"`
	ContactID   string `gorm:"index"`
	ContactName string
	Channel     Channel `gorm:"type:varchar(10)"`
	Target      string
	Success     bool
	Attempts    int
	MessageID   string
	Error       string
	SentAt      time.Time
}

type ResponseKind string

const (
	ResponseAcknowledged ResponseKind = "acknowledged"
	ResponseDeclined     ResponseKind = "declined"
	ResponseReplied      ResponseKind = "replied"
	ResponseInvalid      ResponseKind = "invalid"
)

type NotificationResponse struct {
	ID         uint   `gorm:"primaryKey"`
	IncidentID string `gorm:"index;type:varchar(36)"`
	ContactID  string
	Phone      string
	Channel    Channel      `gorm:"type:varchar(10)"`
	Kind       ResponseKind `gorm:"type:varchar(20)"`
	Message    string
	ReceivedAt time.Time
}

type NotificationOutcome string

const (
	OutcomeSuccessful NotificationOutcome = "successful"
	OutcomePartial    NotificationOutcome = "partial"
	OutcomeNoResponse NotificationOutcome = "no_response"
)

// DeriveOutcome is recomputed from the full response list on every read.
func DeriveOutcome(responses []NotificationResponse) NotificationOutcome {
	if len(responses) == 0 {
		return OutcomeNoResponse
	}
	for _, r := range responses {
		if r.Kind == ResponseAcknowledged {
			return OutcomeSuccessful
		}
	}
	return OutcomePartial
}
