package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TestDrive records observations from a road test. Optional; at most one per
// session. SubsystemNotes holds per-subsystem performance observations keyed
// by subsystem name (engine, transmission, brakes, steering, suspension...).
type TestDrive struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyID uuid.UUID  `gorm:"type:uuid;not null;index" json:"company_id"`
	SessionID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex" json:"session_id"`
	DriverID  *uuid.UUID `gorm:"type:uuid" json:"driver_id,omitempty"`

	MileageStart    int64          `json:"mileage_start"`
	MileageEnd      *int64         `json:"mileage_end,omitempty"`
	SubsystemNotes  datatypes.JSON `gorm:"type:jsonb" json:"subsystem_notes"`
	Findings        string         `gorm:"type:text" json:"findings"`
	Recommendations string         `gorm:"type:text" json:"recommendations"`
	CompletedAt     *time.Time     `json:"completed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (td *TestDrive) BeforeCreate(tx *gorm.DB) (err error) {
	if td.ID == uuid.Nil {
		td.ID = uuid.New()
	}
	return
}
