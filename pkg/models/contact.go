package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	MinContactPriority = 1
	MaxContactPriority = 10
)

type Relationship string

const (
	RelationshipSpouse    Relationship = "spouse"
	RelationshipParent    Relationship = "parent"
	RelationshipFamily    Relationship = "family"
	RelationshipFriend    Relationship = "friend"
	RelationshipColleague Relationship = "colleague"
	RelationshipNeighbor  Relationship = "neighbor"
	RelationshipOther     Relationship = "other"
)

// RelationshipRank orders relationship categories for escalation dialing, lower first.
func RelationshipRank(r Relationship) int {
	switch r {
	case RelationshipSpouse, RelationshipParent, RelationshipFamily:
		return 0
	case RelationshipFriend:
		return 1
	case RelationshipColleague:
		return 2
	case RelationshipNeighbor:
		return 3
	default:
		return 4
	}
}

type PriorityLevel string

const (
	LevelHigh   PriorityLevel = "high"
	LevelMedium PriorityLevel = "medium"
	LevelLow    PriorityLevel = "low"
)

func LevelRank(l PriorityLevel) int {
	switch l {
	case LevelHigh:
		return 0
	case LevelMedium:
		return 1
	default:
		return 2
	}
}

type Contact struct {
	ID           string `gorm:"primaryKey;type:varchar(36)"`
	UserID       string `gorm:"uniqueIndex:idx_contact_user_phone;not null"`
	Name         string `gorm:"not null"`
	Phone        string `gorm:"uniqueIndex:idx_contact_user_phone;not null"`
	Email        string
	Relationship Relationship `gorm:"type:varchar(20)"`
	Priority     int          `gorm:"not null"`
	Channels     datatypes.JSONSlice[Channel]
	// LinkedUserID points at the contact's own account, whose push tokens are used.
	LinkedUserID *string
	Verified     bool

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// Level maps the 1..10 priority onto the dialing levels: 1-3 high, 4-6 medium, 7-10 low.
func (c *Contact) Level() PriorityLevel {
	switch {
	case c.Priority <= 3:
		return LevelHigh
	case c.Priority <= 6:
		return LevelMedium
	default:
		return LevelLow
	}
}

func (c *Contact) HasChannel(ch Channel) bool {
	for _, enabled := range c.Channels {
		if enabled == ch {
			return true
		}
	}
	return false
}
