package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Priority levels shared by customer requests, inspection items and job card items.
const (
	PriorityLow      = "low"
	PriorityMedium   = "medium"
	PriorityHigh     = "high"
	PriorityCritical = "critical"
)

// priorityRank orders priorities for "at least High" style comparisons.
var priorityRank = map[string]int{
	PriorityLow:      1,
	PriorityMedium:   2,
	PriorityHigh:     3,
	PriorityCritical: 4,
}

// PriorityAtLeast reports whether priority p ranks at or above threshold.
func PriorityAtLeast(p, threshold string) bool {
	return priorityRank[p] >= priorityRank[threshold]
}

// CustomerRequest records the customer-reported concerns for a session.
// At most one per session.
type CustomerRequest struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;index" json:"company_id"`
	SessionID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"session_id"`

	Title             string         `gorm:"size:200;not null" json:"title"`
	Description       string         `gorm:"type:text" json:"description"`
	Concerns          pq.StringArray `gorm:"type:text[]" json:"concerns"`
	RequestedServices pq.StringArray `gorm:"type:text[]" json:"requested_services"`
	Priority          string         `gorm:"size:20;not null;default:'medium'" json:"priority"`
	Status            string         `gorm:"size:20;not null;default:'open'" json:"status"` // open, in_review, completed

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (cr *CustomerRequest) BeforeCreate(tx *gorm.DB) (err error) {
	if cr.ID == uuid.Nil {
		cr.ID = uuid.New()
	}
	return
}
