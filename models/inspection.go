package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Inspection holds the technician findings for a session. At most one per
// session; individual checks are InspectionItems.
type Inspection struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"company_id"`
	SessionID   uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex" json:"session_id"`
	InspectorID *uuid.UUID `gorm:"type:uuid" json:"inspector_id,omitempty"`

	Findings        string     `gorm:"type:text" json:"findings"`
	Recommendations string     `gorm:"type:text" json:"recommendations"`
	OverallPriority string     `gorm:"size:20;not null;default:'medium'" json:"overall_priority"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Items []InspectionItem `gorm:"foreignKey:InspectionID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

// InspectionItem is one checked component or system within an inspection.
type InspectionItem struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	InspectionID uuid.UUID `gorm:"type:uuid;not null;index" json:"inspection_id"`

	Name      string `gorm:"size:150;not null" json:"name"`     // e.g., "Front brake pads"
	Category  string `gorm:"size:60" json:"category"`           // e.g., "brakes", "suspension"
	Condition string `gorm:"size:20" json:"condition"`          // good, fair, poor, failed
	Priority  string `gorm:"size:20;default:'low'" json:"priority"`
	Notes     string `gorm:"type:text" json:"notes"`
	ItemOrder int    `gorm:"not null;default:0" json:"item_order"`
	Resolved  bool   `gorm:"default:false" json:"resolved"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RequiresAttention flags items that feed the initial report's attention count:
// priority at or above high, or a failing condition.
func (it *InspectionItem) RequiresAttention() bool {
	return PriorityAtLeast(it.Priority, PriorityHigh) || it.Condition == "poor" || it.Condition == "failed"
}

func (i *Inspection) BeforeCreate(tx *gorm.DB) (err error) {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return
}

func (it *InspectionItem) BeforeCreate(tx *gorm.DB) (err error) {
	if it.ID == uuid.Nil {
		it.ID = uuid.New()
	}
	return
}
