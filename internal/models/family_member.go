package models

import (
	"time"

	"github.com/google/uuid"
)

// FamilyMember links a protected (elderly) user to a family account that
// receives copies of their alerts.
type FamilyMember struct {
	ID               uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID           uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_family_pair,priority:1" json:"user_id"`
	LinkedUserID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_family_pair,priority:2;index" json:"linked_user_id"`
	Name             string    `gorm:"size:255;not null" json:"name"`
	Relationship     string    `gorm:"size:100" json:"relationship,omitempty"`
	PhoneNumber      string    `gorm:"size:20" json:"phone_number,omitempty"`
	Email            string    `gorm:"size:255" json:"email,omitempty"`
	NotifyOnAlert    bool      `gorm:"not null" json:"notify_on_alert"`
	IsPrimaryContact bool      `gorm:"default:false" json:"is_primary_contact"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
	User             User      `gorm:"foreignKey:UserID" json:"-"`
	LinkedUser       User      `gorm:"foreignKey:LinkedUserID" json:"-"`
}

func (FamilyMember) TableName() string {
	return "family_members"
}
