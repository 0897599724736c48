// models/job.go
package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	JobStatusDraft     = "draft"
	JobStatusScheduled = "scheduled"
	JobStatusPublished = "published"
	JobStatusClosed    = "closed"
)

// Job is a job posting that campaigns advertise.
type Job struct {
	ID             string `json:"id" gorm:"primaryKey;type:uuid"`
	OrganizationID string `json:"organization_id" gorm:"type:uuid;not null;index"`
	Title          string `json:"title" gorm:"not null"`
	Slug           string `json:"slug" gorm:"uniqueIndex;not null"`
	Description    string `json:"description" gorm:"type:text"`
	Location       string `json:"location"`
	EmploymentType string `json:"employment_type"` // full_time | part_time | contract

	// Publishing state: draft | scheduled | published | closed
	Status    string     `json:"status" gorm:"size:16;default:'draft'"`
	PublishAt *time.Time `json:"publish_at"` // only used if scheduled

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}
