package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MediaLinkKind names the sub-record a media item may be attached to.
// A media item always belongs to a session; the link is optional and there
// is at most one, held as a (kind, id) pair rather than five nullable
// foreign keys so "at most one" is structural.
type MediaLinkKind string

const (
	MediaLinkCustomerRequest MediaLinkKind = "customer_request"
	MediaLinkInspection      MediaLinkKind = "inspection"
	MediaLinkTestDrive       MediaLinkKind = "test_drive"
	MediaLinkJobCard         MediaLinkKind = "job_card"
	MediaLinkJobCardItem     MediaLinkKind = "job_card_item"
)

// MediaItem upload states.
const (
	MediaPending = "pending" // upload URL issued, object not yet confirmed
	MediaReady   = "ready"   // client confirmed the upload
)

// MediaItem is the metadata row for one uploaded file. Bytes live in the
// object store under StorageKey; content is immutable once confirmed.
type MediaItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;index" json:"company_id"`
	SessionID uuid.UUID `gorm:"type:uuid;not null;index" json:"session_id"`

	StorageKey  string `gorm:"size:512;not null;uniqueIndex" json:"storage_key"`
	FileName    string `gorm:"size:255;not null" json:"file_name"`
	ContentType string `gorm:"size:100" json:"content_type"`
	MediaType   string `gorm:"size:20" json:"media_type"` // image, video, document
	Category    string `gorm:"size:60" json:"category"`   // e.g., "damage", "before", "after"
	SizeBytes   int64  `json:"size_bytes"`
	Status      string `gorm:"size:20;not null;default:'pending'" json:"status"`

	LinkedKind *MediaLinkKind `gorm:"size:30" json:"linked_kind,omitempty"`
	LinkedID   *uuid.UUID     `gorm:"type:uuid" json:"linked_id,omitempty"`

	UploadedByID *uuid.UUID `gorm:"type:uuid" json:"uploaded_by_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Link attaches the item to one sub-record, replacing any previous link.
// Last write wins.
func (m *MediaItem) Link(kind MediaLinkKind, targetID uuid.UUID) {
	m.LinkedKind = &kind
	m.LinkedID = &targetID
}

// Unlink detaches the item from its sub-record; the session association stays.
func (m *MediaItem) Unlink() {
	m.LinkedKind = nil
	m.LinkedID = nil
}

func (m *MediaItem) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return
}
