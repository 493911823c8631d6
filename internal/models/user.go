package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is an app account. Elderly accounts are the protected side of a
// family link.
type User struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string         `gorm:"size:255;not null" json:"name"`
	Email     string         `gorm:"size:255;uniqueIndex" json:"email"`
	Password  string         `gorm:"not null" json:"-"`
	DeviceID  *string        `gorm:"size:255;uniqueIndex" json:"device_id,omitempty"`
	Role      string         `gorm:"size:20;default:'user'" json:"role"`
	IsElderly bool           `gorm:"default:false" json:"is_elderly"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
