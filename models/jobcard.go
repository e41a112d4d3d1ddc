package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// JobCardStatus is the lifecycle stage of an authorized work order.
type JobCardStatus string

const (
	JobCardDraft          JobCardStatus = "draft"
	JobCardPendingAuth    JobCardStatus = "pending_authorization"
	JobCardAuthorized     JobCardStatus = "authorized"
	JobCardInProgress     JobCardStatus = "in_progress"
	JobCardOnHold         JobCardStatus = "on_hold"
	JobCardQualityCheck   JobCardStatus = "quality_check"
	JobCardCompleted      JobCardStatus = "completed"
	JobCardClosed         JobCardStatus = "closed"
	JobCardCancelled      JobCardStatus = "cancelled"
)

var jobCardTransitions = map[JobCardStatus][]JobCardStatus{
	JobCardDraft:        {JobCardPendingAuth, JobCardCancelled},
	JobCardPendingAuth:  {JobCardAuthorized, JobCardCancelled},
	JobCardAuthorized:   {JobCardInProgress, JobCardCancelled},
	JobCardInProgress:   {JobCardOnHold, JobCardQualityCheck, JobCardCancelled},
	JobCardOnHold:       {JobCardInProgress, JobCardCancelled},
	JobCardQualityCheck: {JobCardInProgress, JobCardCompleted},
	JobCardCompleted:    {JobCardClosed},
	JobCardClosed:       {},
	JobCardCancelled:    {},
}

func (s JobCardStatus) CanTransition(next JobCardStatus) bool {
	for _, allowed := range jobCardTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// JobCardItemStatus is the per-task state within a job card. Items move
// independently of each other and of the card itself.
type JobCardItemStatus string

const (
	JobItemPending    JobCardItemStatus = "pending"
	JobItemInProgress JobCardItemStatus = "in_progress"
	JobItemOnHold     JobCardItemStatus = "on_hold"
	JobItemCompleted  JobCardItemStatus = "completed"
	JobItemDeferred   JobCardItemStatus = "deferred"
	JobItemCancelled  JobCardItemStatus = "cancelled"
)

var jobItemTransitions = map[JobCardItemStatus][]JobCardItemStatus{
	JobItemPending:    {JobItemInProgress, JobItemDeferred, JobItemCancelled},
	JobItemInProgress: {JobItemOnHold, JobItemCompleted, JobItemCancelled},
	JobItemOnHold:     {JobItemInProgress, JobItemCancelled},
	JobItemDeferred:   {JobItemInProgress, JobItemCancelled},
	JobItemCompleted:  {},
	JobItemCancelled:  {},
}

func (s JobCardItemStatus) CanTransition(next JobCardItemStatus) bool {
	for _, allowed := range jobItemTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// JobCard is the authorized repair work order for a session. At most one per
// session. Completion is read from the items' counts; the card status itself
// only moves through explicit Transition calls.
type JobCard struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;index" json:"company_id"`
	SessionID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"session_id"`

	Status             JobCardStatus `gorm:"size:30;not null;default:'draft'" json:"status"`
	EstimatedHours     float64       `json:"estimated_hours"`
	ActualHours        float64       `json:"actual_hours"`
	CustomerAuthorized bool          `gorm:"default:false" json:"customer_authorized"`
	AuthorizedAt       *time.Time    `json:"authorized_at,omitempty"`
	Notes              string        `gorm:"type:text" json:"notes"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Items []JobCardItem `gorm:"foreignKey:JobCardID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

// Transition moves the card to next after checking the transition table.
func (jc *JobCard) Transition(next JobCardStatus) error {
	if !jc.Status.CanTransition(next) {
		return &InvalidTransitionError{Entity: "job card", From: string(jc.Status), To: string(next)}
	}
	jc.Status = next
	if next == JobCardAuthorized && jc.AuthorizedAt == nil {
		now := time.Now()
		jc.AuthorizedAt = &now
		jc.CustomerAuthorized = true
	}
	return nil
}

// ItemCounts returns (completed, total) over the card's tasks.
func (jc *JobCard) ItemCounts() (completed, total int) {
	for _, it := range jc.Items {
		total++
		if it.Status == JobItemCompleted {
			completed++
		}
	}
	return completed, total
}

// JobCardItem is one task within a job card.
type JobCardItem struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	JobCardID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"job_card_id"`
	TechnicianID *uuid.UUID `gorm:"type:uuid" json:"technician_id,omitempty"`

	Title          string            `gorm:"size:200;not null" json:"title"`
	Category       string            `gorm:"size:60" json:"category"` // e.g., "engine", "brakes", "electrical"
	Status         JobCardItemStatus `gorm:"size:20;not null;default:'pending'" json:"status"`
	Priority       string            `gorm:"size:20;default:'medium'" json:"priority"`
	WorkPerformed  string            `gorm:"type:text" json:"work_performed"`
	EstimatedHours float64           `json:"estimated_hours"`
	ActualHours    float64           `json:"actual_hours"`
	QualityChecked bool              `gorm:"default:false" json:"quality_checked"`
	CompletedAt    *time.Time        `json:"completed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Transition moves the item to next after checking the transition table.
func (it *JobCardItem) Transition(next JobCardItemStatus) error {
	if !it.Status.CanTransition(next) {
		return &InvalidTransitionError{Entity: "job card item", From: string(it.Status), To: string(next)}
	}
	it.Status = next
	if next == JobItemCompleted && it.CompletedAt == nil {
		now := time.Now()
		it.CompletedAt = &now
	}
	return nil
}

func (jc *JobCard) BeforeCreate(tx *gorm.DB) (err error) {
	if jc.ID == uuid.Nil {
		jc.ID = uuid.New()
	}
	return
}

func (it *JobCardItem) BeforeCreate(tx *gorm.DB) (err error) {
	if it.ID == uuid.Nil {
		it.ID = uuid.New()
	}
	return
}
