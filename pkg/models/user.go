package models

import (
	"time"

	"gorm.io/datatypes"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleVolunteer Role = "volunteer"
	RoleStaff     Role = "staff"
	RoleAdmin     Role = "admin"
	RoleSystem    Role = "system"
)

var Roles = []string{
	string(RoleUser),
	string(RoleVolunteer),
	string(RoleStaff),
	string(RoleAdmin),
	string(RoleSystem),
}

// Privileged roles may cancel an incident at any time.
func (r Role) Privileged() bool {
	return r == RoleStaff || r == RoleAdmin || r == RoleSystem
}

// User is the subset of account data the response flow reads: role, volunteer availability,
// last known position and push tokens.
type User struct {
	ID          string `gorm:"primaryKey;type:varchar(36)"`
	Name        string
	Phone       string
	Role        Role `gorm:"type:varchar(20);index"`
	Active      bool `gorm:"index"`
	Available   bool
	Verified    bool
	Lat         float64 `gorm:"index"`
	Lng         float64 `gorm:"index"`
	HasLocation bool
	LocatedAt   *time.Time
	PushTokens  datatypes.JSONSlice[string]

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Actor identifies who performs an operation.
type Actor struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

var SystemActor = Actor{ID: "system", Role: RoleSystem}
