package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Appointment statuses.
const (
	AppointmentScheduled = "scheduled"
	AppointmentConfirmed = "confirmed"
	AppointmentCompleted = "completed" // converted to a session or finished
	AppointmentCancelled = "cancelled"
	AppointmentNoShow    = "no_show"
)

// Appointment is a booked future visit. Converting an appointment creates a
// garage session and marks the appointment completed.
type Appointment struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyID uuid.UUID  `gorm:"type:uuid;not null;index:idx_appointments_company_time,priority:1" json:"company_id"`
	BranchID  uuid.UUID  `gorm:"type:uuid;not null" json:"branch_id"`
	ClientID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"client_id"`
	VehicleID *uuid.UUID `gorm:"type:uuid" json:"vehicle_id,omitempty"`
	SessionID *uuid.UUID `gorm:"type:uuid" json:"session_id,omitempty"` // set once converted

	ScheduledAt time.Time `gorm:"not null;index:idx_appointments_company_time,priority:2" json:"scheduled_at"`
	Duration    int       `gorm:"default:60" json:"duration_minutes"`
	ServiceType string    `gorm:"size:100" json:"service_type"` // e.g., "oil change", "full inspection"
	Status      string    `gorm:"size:20;not null;default:'scheduled'" json:"status"`
	Notes       string    `gorm:"type:text" json:"notes"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Client  Client         `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Vehicle *ClientVehicle `gorm:"foreignKey:VehicleID" json:"vehicle,omitempty"`
}

func (a *Appointment) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return
}
