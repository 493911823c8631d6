package models

import (
	"time"

	"github.com/google/uuid"
)

// SMSLog is a message a user forwarded while reporting its sender.
type SMSLog struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	PhoneID     *uuid.UUID `gorm:"type:uuid;index" json:"phone_id,omitempty"`
	Sender      string     `gorm:"size:20;not null;index" json:"sender"`
	MessageBody string     `gorm:"type:text;not null" json:"message_body"`
	MessageType string     `gorm:"size:20;not null;default:'incoming'" json:"message_type"`
	IsFlagged   bool       `gorm:"default:false" json:"is_flagged"`
	FlagReason  string     `gorm:"size:255" json:"flag_reason,omitempty"`
	RiskScore   int        `gorm:"default:0" json:"risk_score"`
	CreatedAt   time.Time  `json:"created_at"`
}

func (SMSLog) TableName() string {
	return "sms_logs"
}
