package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"liyu1981.xyz/sos-response-service/pkg/errs"
	"liyu1981.xyz/sos-response-service/pkg/geo"
)

type GeofenceType string

const (
	GeofenceTypeSafe       GeofenceType = "safe_zone"
	GeofenceTypeDanger     GeofenceType = "danger_zone"
	GeofenceTypeRestricted GeofenceType = "restricted_zone"
)

var GeofenceTypes = []string{
	string(GeofenceTypeSafe),
	string(GeofenceTypeDanger),
	string(GeofenceTypeRestricted),
}

type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

var Severities = []string{
	string(SeverityInfo),
	string(SeverityWarning),
	string(SeverityCritical),
}

type AlertConfig struct {
	Enabled        bool
	Message        string
	Severity       Severity `gorm:"type:varchar(10)"`
	NotifyContacts bool
}

type GeofenceStats struct {
	EntryCount        int
	ExitCount         int
	LastEntryAt       *time.Time
	LastExitAt        *time.Time
	TimeInsideSeconds int64
}

// Geofence is a user polygon. Center and RadiusMeters are derived from Ring in BeforeSave and are
// never written directly.
type Geofence struct {
	ID     string       `gorm:"primaryKey;type:varchar(36)"`
	UserID string       `gorm:"index;not null"`
	Name   string       `gorm:"not null"`
	Type   GeofenceType `gorm:"type:varchar(20);not null"`
	Active bool

	Ring         datatypes.JSONSlice[geo.Point]
	CenterLat    float64
	CenterLng    float64
	RadiusMeters float64

	Entry    AlertConfig `gorm:"embedded;embeddedPrefix:entry_"`
	Exit     AlertConfig `gorm:"embedded;embeddedPrefix:exit_"`
	Schedule datatypes.JSONType[*geo.Schedule]

	Stats GeofenceStats `gorm:"embedded;embeddedPrefix:stats_"`

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (g *Geofence) BeforeSave(tx *gorm.DB) error {
	ring := []geo.Point(g.Ring)
	if err := geo.ValidateRing(ring); err != nil {
		return errs.Wrap(errs.KindValidation, err, "invalid geofence polygon")
	}
	if err := g.Schedule.Data().Validate(); err != nil {
		return errs.Wrap(errs.KindValidation, err, "invalid geofence schedule")
	}
	center, radius := geo.CenterAndRadius(ring)
	g.CenterLat, g.CenterLng, g.RadiusMeters = center.Lat, center.Lng, radius
	return nil
}

func (g *Geofence) Center() geo.Point {
	return geo.Point{Lat: g.CenterLat, Lng: g.CenterLng}
}

// IsCurrentlyActive applies the activation schedule on top of the base Active flag.
func (g *Geofence) IsCurrentlyActive(now time.Time) bool {
	return geo.IsActive(g.Active, g.Schedule.Data(), now)
}

func (g *Geofence) Contains(p geo.Point) bool {
	return geo.ContainsPoint(g.Ring, p)
}

// GeofenceContainment remembers whether a user was inside a geofence after the last evaluation.
type GeofenceContainment struct {
	UserID     string `gorm:"primaryKey"`
	GeofenceID string `gorm:"primaryKey;type:varchar(36)"`
	Inside     bool
	EnteredAt  *time.Time
	UpdatedAt  time.Time
}

type TriggerDirection string

const (
	DirectionEntry TriggerDirection = "entry"
	DirectionExit  TriggerDirection = "exit"
)

// GeofenceTrigger is emitted by evaluation, not stored.
type GeofenceTrigger struct {
	GeofenceID     string           `json:"geofenceId"`
	GeofenceName   string           `json:"geofenceName"`
	GeofenceType   GeofenceType     `json:"geofenceType"`
	Direction      TriggerDirection `json:"direction"`
	Message        string           `json:"message"`
	Severity       Severity         `json:"severity"`
	NotifyContacts bool             `json:"notifyContacts"`
	At             time.Time        `json:"at"`
	// seconds inside, only set on exit
	DwellSeconds int64 `json:"dwellSeconds,omitempty"`
}
