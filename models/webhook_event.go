// models/webhook_event.go
package models

import "time"

// WebhookEvent stores provider webhook payloads with deduplication metadata
// for idempotent processing. The unique (provider, event_id) index makes a
// replayed delivery a no-op insert.
type WebhookEvent struct {
	ID              string     `json:"id" gorm:"primaryKey;type:uuid"`
	Provider        string     `json:"provider" gorm:"size:32;not null;uniqueIndex:ux_webhook_events_provider_event,priority:1"`
	EventID         string     `json:"event_id" gorm:"size:191;not null;uniqueIndex:ux_webhook_events_provider_event,priority:2"`
	EventType       string     `json:"event_type" gorm:"size:100;not null;index"`
	Payload         string     `json:"payload" gorm:"type:text"`
	SignatureValid  bool       `json:"signature_valid" gorm:"default:false"`
	ProcessedAt     *time.Time `json:"processed_at,omitempty"`
	ProcessingError string     `json:"processing_error,omitempty" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
