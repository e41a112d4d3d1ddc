package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SessionStatus is the lifecycle stage of a garage session.
type SessionStatus string

const (
	SessionCheckedIn        SessionStatus = "checked_in"
	SessionCustomerRequest  SessionStatus = "customer_request"
	SessionInspection       SessionStatus = "inspection"
	SessionTestDrive        SessionStatus = "test_drive"
	SessionAwaitingApproval SessionStatus = "awaiting_approval"
	SessionInProgress       SessionStatus = "in_progress"
	SessionQualityCheck     SessionStatus = "quality_check"
	SessionCompleted        SessionStatus = "completed"
	SessionReadyForPickup   SessionStatus = "ready_for_pickup"
	SessionClosed           SessionStatus = "closed"
	SessionCancelled        SessionStatus = "cancelled"
)

// sessionTransitions is the allowed-transitions table. Any move not listed
// here is rejected with ErrInvalidTransition. Cancellation is allowed from
// every non-terminal stage; quality check may bounce work back to in_progress.
var sessionTransitions = map[SessionStatus][]SessionStatus{
	SessionCheckedIn:        {SessionCustomerRequest, SessionInspection, SessionCancelled},
	SessionCustomerRequest:  {SessionInspection, SessionTestDrive, SessionAwaitingApproval, SessionCancelled},
	SessionInspection:       {SessionTestDrive, SessionAwaitingApproval, SessionCancelled},
	SessionTestDrive:        {SessionAwaitingApproval, SessionCancelled},
	SessionAwaitingApproval: {SessionInProgress, SessionCancelled},
	SessionInProgress:       {SessionQualityCheck, SessionCancelled},
	SessionQualityCheck:     {SessionInProgress, SessionCompleted, SessionCancelled},
	SessionCompleted:        {SessionReadyForPickup},
	SessionReadyForPickup:   {SessionClosed},
	SessionClosed:           {},
	SessionCancelled:        {},
}

// InvalidTransitionError is returned when a status change is not in the
// allowed-transitions table.
type InvalidTransitionError struct {
	Entity string
	From   string
	To     string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s: invalid status transition %s -> %s", e.Entity, e.From, e.To)
}

// CanTransition reports whether moving from the current status to next is legal.
func (s SessionStatus) CanTransition(next SessionStatus) bool {
	for _, allowed := range sessionTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the session can no longer change state.
func (s SessionStatus) IsTerminal() bool {
	return len(sessionTransitions[s]) == 0
}

// GarageSession anchors one vehicle visit from check-in to close-out. All
// sub-records (customer request, inspection, test drive, job card, media,
// invoice) hang off a session, at most one of each per session.
type GarageSession struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	SessionNumber string     `gorm:"size:30;uniqueIndex;not null" json:"session_number"`
	CompanyID     uuid.UUID  `gorm:"type:uuid;not null;index:idx_sessions_company_checkin,priority:1;index:idx_sessions_company_status,priority:1" json:"company_id"`
	BranchID      uuid.UUID  `gorm:"type:uuid;not null" json:"branch_id"`
	ClientID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"client_id"`
	VehicleID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"vehicle_id"`
	AdvisorID     *uuid.UUID `gorm:"type:uuid" json:"advisor_id,omitempty"`

	Status     SessionStatus `gorm:"size:30;not null;index:idx_sessions_company_status,priority:2" json:"status"`
	CheckInAt  time.Time     `gorm:"not null;index:idx_sessions_company_checkin,priority:2;index:idx_sessions_company_status,priority:3" json:"check_in_at"`
	CheckOutAt *time.Time    `json:"check_out_at,omitempty"`
	MileageIn  *int64        `json:"mileage_in,omitempty"`
	MileageOut *int64        `json:"mileage_out,omitempty"`
	Notes      string        `gorm:"type:text" json:"notes"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Client          Client           `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Vehicle         ClientVehicle    `gorm:"foreignKey:VehicleID" json:"vehicle,omitempty"`
	CustomerRequest *CustomerRequest `gorm:"foreignKey:SessionID" json:"customer_request,omitempty"`
	Inspection      *Inspection      `gorm:"foreignKey:SessionID" json:"inspection,omitempty"`
	TestDrive       *TestDrive       `gorm:"foreignKey:SessionID" json:"test_drive,omitempty"`
	JobCard         *JobCard         `gorm:"foreignKey:SessionID" json:"job_card,omitempty"`
	MediaItems      []MediaItem      `gorm:"foreignKey:SessionID" json:"media_items,omitempty"`
}

// Transition moves the session to next after checking the transition table.
// Check-out timestamps are stamped when the session reaches a terminal state
// or becomes ready for pickup.
func (s *GarageSession) Transition(next SessionStatus) error {
	if !s.Status.CanTransition(next) {
		return &InvalidTransitionError{Entity: "session", From: string(s.Status), To: string(next)}
	}
	s.Status = next
	if (next == SessionClosed || next == SessionCancelled) && s.CheckOutAt == nil {
		now := time.Now()
		s.CheckOutAt = &now
	}
	return nil
}

func (s *GarageSession) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return
}
