package models

import "testing"

func TestSessionCanTransition(t *testing.T) {
	tests := []struct {
		name     string
		from     SessionStatus
		to       SessionStatus
		expected bool
	}{
		{"check-in to request intake", SessionCheckedIn, SessionCustomerRequest, true},
		{"check-in to inspection", SessionCheckedIn, SessionInspection, true},
		{"check-in straight to closed", SessionCheckedIn, SessionClosed, false},
		{"request to test drive", SessionCustomerRequest, SessionTestDrive, true},
		{"request skipping to approval", SessionCustomerRequest, SessionAwaitingApproval, true},
		{"inspection back to request", SessionInspection, SessionCustomerRequest, false},
		{"approval to in progress", SessionAwaitingApproval, SessionInProgress, true},
		{"in progress to quality check", SessionInProgress, SessionQualityCheck, true},
		{"quality check back to in progress", SessionQualityCheck, SessionInProgress, true},
		{"quality check to completed", SessionQualityCheck, SessionCompleted, true},
		{"completed to ready for pickup", SessionCompleted, SessionReadyForPickup, true},
		{"completed cannot be cancelled", SessionCompleted, SessionCancelled, false},
		{"ready for pickup to closed", SessionReadyForPickup, SessionClosed, true},
		{"closed is terminal", SessionClosed, SessionCheckedIn, false},
		{"cancelled is terminal", SessionCancelled, SessionInProgress, false},
		{"any active state can cancel", SessionInProgress, SessionCancelled, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransition(tt.to); got != tt.expected {
				t.Errorf("CanTransition(%s -> %s) = %v, expected %v", tt.from, tt.to, got, tt.expected)
			}
		})
	}
}

func TestSessionTransitionWalk(t *testing.T) {
	s := &GarageSession{Status: SessionCheckedIn}

	path := []SessionStatus{
		SessionCustomerRequest,
		SessionInspection,
		SessionTestDrive,
		SessionAwaitingApproval,
		SessionInProgress,
		SessionQualityCheck,
		SessionCompleted,
		SessionReadyForPickup,
		SessionClosed,
	}
	for _, next := range path {
		if err := s.Transition(next); err != nil {
			t.Fatalf("transition to %s failed: %v", next, err)
		}
	}

	if !s.Status.IsTerminal() {
		t.Errorf("expected closed to be terminal")
	}
	if s.CheckOutAt == nil {
		t.Errorf("expected check-out timestamp to be stamped on close")
	}
}

func TestSessionTransitionRejectsIllegalMove(t *testing.T) {
	s := &GarageSession{Status: SessionCheckedIn}

	err := s.Transition(SessionClosed)
	if err == nil {
		t.Fatal("expected an error for checked_in -> closed")
	}
	invalid, ok := err.(*InvalidTransitionError)
	if !ok {
		t.Fatalf("expected *InvalidTransitionError, got %T", err)
	}
	if invalid.From != string(SessionCheckedIn) || invalid.To != string(SessionClosed) {
		t.Errorf("error carries wrong states: %v", invalid)
	}
	if s.Status != SessionCheckedIn {
		t.Errorf("status must not change on a rejected transition, got %s", s.Status)
	}
}

func TestCancellationStampsCheckOut(t *testing.T) {
	s := &GarageSession{Status: SessionInProgress}
	if err := s.Transition(SessionCancelled); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if s.CheckOutAt == nil {
		t.Errorf("expected check-out timestamp on cancellation")
	}
}
