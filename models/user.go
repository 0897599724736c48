// models/user.go
package models

import (
	"time"

	"gorm.io/gorm"
)

// User is a local account profile. Auth issues JWTs against the password
// hash stored here.
type User struct {
	ID           string `json:"id" gorm:"primaryKey;type:uuid"`
	Email        string `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string `json:"-" gorm:"not null"`
	FullName     string `json:"full_name"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}
