// models/integration.go
package models

import (
	"time"

	"gorm.io/gorm"
)

// Supported ad platforms.
const (
	PlatformMeta   = "meta"
	PlatformTikTok = "tiktok"
	PlatformSheets = "sheets"
)

// Integration stores an access token linking an organization to an external
// ad platform. A row may be scoped to a single user (the member who connected
// the account); token resolution prefers the caller's own row and falls back
// to the org-level one (UserID empty).
type Integration struct {
	ID             string `json:"id" gorm:"primaryKey;type:uuid"`
	OrganizationID string `json:"organization_id" gorm:"type:uuid;not null;index"`
	UserID         string `json:"user_id,omitempty" gorm:"type:uuid;index"`
	Platform       string `json:"platform" gorm:"size:32;not null;index"` // meta | tiktok | sheets
	AccessToken    string `json:"-" gorm:"not null"`
	AccountID      string `json:"account_id"` // ad account id / advertiser id / spreadsheet id
	Active         bool   `json:"active" gorm:"default:true"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}
