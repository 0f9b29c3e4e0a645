package models

import "time"

type CallStatus string

const (
	CallStatusQueued     CallStatus = "queued"
	CallStatusInitiated  CallStatus = "initiated"
	CallStatusRinging    CallStatus = "ringing"
	CallStatusInProgress CallStatus = "in-progress"
	CallStatusCompleted  CallStatus = "completed"
	CallStatusFailed     CallStatus = "failed"
	CallStatusBusy       CallStatus = "busy"
	CallStatusNoAnswer   CallStatus = "no-answer"
	CallStatusCanceled   CallStatus = "canceled"
)

var CallStatuses = []string{
	string(CallStatusQueued),
	string(CallStatusInitiated),
	string(CallStatusRinging),
	string(CallStatusInProgress),
	string(CallStatusCompleted),
	string(CallStatusFailed),
	string(CallStatusBusy),
	string(CallStatusNoAnswer),
	string(CallStatusCanceled),
}

func ValidCallStatus(s string) bool {
	for _, known := range CallStatuses {
		if s == known {
			return true
		}
	}
	return false
}

func (s CallStatus) Final() bool {
	switch s {
	case CallStatusCompleted, CallStatusFailed, CallStatusBusy, CallStatusNoAnswer, CallStatusCanceled:
		return true
	}
	return false
}

// EscalationCall is one outbound voice call placed by the escalation dialer.
type EscalationCall struct {
	ID           string `gorm:"primaryKey;type:varchar(36)"`
	IncidentID   string `gorm:"index;type:varchar(36)"`
	ContactID    string `gorm:"index"`
	ContactName  string
	Phone        string        `gorm:"index"`
	Level        PriorityLevel `gorm:"type:varchar(10)"`
	Relationship Relationship  `gorm:"type:varchar(20)"`
	Sequence     int
	GatewaySID   string     `gorm:"column:gateway_sid;index"`
	Status       CallStatus `gorm:"type:varchar(20)"`
	Error        string
	CreatedAt    time.Time
	AnsweredAt   *time.Time
	EndedAt      *time.Time
	UpdatedAt    time.Time

	Responses []CallResponse `gorm:"foreignKey:CallID;references:ID"`
}

type CallResponse struct {
	ID         uint   `gorm:"primaryKey"`
	CallID     string `gorm:"index;type:varchar(36)"`
	IncidentID string `gorm:"index;type:varchar(36)"`
	Phone      string
	Digit      string
	Kind       ResponseKind `gorm:"type:varchar(20)"`
	ReceivedAt time.Time
}

// DigitResponse maps a keypad digit to a response kind: 1 acknowledges, 2 declines.
func DigitResponse(digit string) ResponseKind {
	switch digit {
	case "1":
		return ResponseAcknowledged
	case "2":
		return ResponseDeclined
	default:
		return ResponseInvalid
	}
}
