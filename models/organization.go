// models/organization.go
package models

import (
	"time"

	"gorm.io/gorm"
)

// Member roles, in descending order of privilege.
const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
)

type Organization struct {
	ID   string `json:"id" gorm:"primaryKey;type:uuid"`
	Name string `json:"name" gorm:"not null"`
	Slug string `json:"slug" gorm:"uniqueIndex;not null"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// RolePriority orders roles for membership resolution; higher wins.
var RolePriority = map[string]int{
	RoleOwner:  3,
	RoleAdmin:  2,
	RoleMember: 1,
}

// Member links a user to an organization with a role. A user can belong to
// several organizations; role resolution picks the strongest membership.
type Member struct {
	ID             string `json:"id" gorm:"primaryKey;type:uuid"`
	OrganizationID string `json:"organization_id" gorm:"type:uuid;not null;uniqueIndex:ux_members_org_user,priority:1"`
	UserID         string `json:"user_id" gorm:"type:uuid;not null;index;uniqueIndex:ux_members_org_user,priority:2"`
	Role           string `json:"role" gorm:"size:16;not null;default:'member'"` // owner | admin | member

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ResolveMembership returns a user's strongest membership: owner > admin >
// member, ties broken by the oldest row so the result is deterministic.
func ResolveMembership(db *gorm.DB, userID string) (*Member, error) {
	var memberships []Member
	if err := db.Where("user_id = ?", userID).Order("created_at asc").Find(&memberships).Error; err != nil {
		return nil, err
	}
	if len(memberships) == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	best := memberships[0]
	for _, m := range memberships[1:] {
		if RolePriority[m.Role] > RolePriority[best.Role] {
			best = m
		}
	}
	return &best, nil
}
