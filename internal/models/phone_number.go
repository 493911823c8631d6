package models

import (
	"time"

	"github.com/google/uuid"
)

// PhoneNumber is the flagged-number registry row, keyed by the normalized
// number.
type PhoneNumber struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Number      string     `gorm:"size:20;not null;uniqueIndex" json:"number"`
	CountryCode *string    `gorm:"size:5" json:"country_code,omitempty"`
	Info        *string    `gorm:"type:text" json:"info,omitempty"`
	Origin      *string    `gorm:"size:100" json:"origin,omitempty"`
	IsFlagged   bool       `gorm:"default:false;index" json:"is_flagged"`
	FlagReason  string     `gorm:"size:255" json:"flag_reason"`
	RiskScore   int        `gorm:"type:integer;default:0;check:risk_score >= 0 AND risk_score <= 100" json:"risk_score"`
	LastChecked *time.Time `json:"last_checked,omitempty"`
	OwnerID     *uuid.UUID `gorm:"type:uuid;index" json:"owner_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (PhoneNumber) TableName() string {
	return "phone_numbers"
}
