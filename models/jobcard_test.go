package models

import "testing"

func TestJobCardTransitions(t *testing.T) {
	tests := []struct {
		name     string
		from     JobCardStatus
		to       JobCardStatus
		expected bool
	}{
		{"draft to pending authorization", JobCardDraft, JobCardPendingAuth, true},
		{"draft straight to in progress", JobCardDraft, JobCardInProgress, false},
		{"pending to authorized", JobCardPendingAuth, JobCardAuthorized, true},
		{"authorized to in progress", JobCardAuthorized, JobCardInProgress, true},
		{"in progress to on hold", JobCardInProgress, JobCardOnHold, true},
		{"on hold resumes", JobCardOnHold, JobCardInProgress, true},
		{"quality check rework", JobCardQualityCheck, JobCardInProgress, true},
		{"quality check passes", JobCardQualityCheck, JobCardCompleted, true},
		{"completed to closed", JobCardCompleted, JobCardClosed, true},
		{"completed cannot cancel", JobCardCompleted, JobCardCancelled, false},
		{"closed is terminal", JobCardClosed, JobCardInProgress, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransition(tt.to); got != tt.expected {
				t.Errorf("CanTransition(%s -> %s) = %v, expected %v", tt.from, tt.to, got, tt.expected)
			}
		})
	}
}

func TestJobCardAuthorizationStamps(t *testing.T) {
	jc := &JobCard{Status: JobCardPendingAuth}
	if err := jc.Transition(JobCardAuthorized); err != nil {
		t.Fatalf("authorize failed: %v", err)
	}
	if jc.AuthorizedAt == nil {
		t.Error("expected authorized_at to be stamped")
	}
	if !jc.CustomerAuthorized {
		t.Error("expected customer_authorized to be set")
	}
}

func TestJobCardItemTransitions(t *testing.T) {
	tests := []struct {
		name     string
		from     JobCardItemStatus
		to       JobCardItemStatus
		expected bool
	}{
		{"pending starts", JobItemPending, JobItemInProgress, true},
		{"pending defers", JobItemPending, JobItemDeferred, true},
		{"pending cannot complete directly", JobItemPending, JobItemCompleted, false},
		{"in progress completes", JobItemInProgress, JobItemCompleted, true},
		{"deferred resumes", JobItemDeferred, JobItemInProgress, true},
		{"completed is terminal", JobItemCompleted, JobItemInProgress, false},
		{"cancelled is terminal", JobItemCancelled, JobItemInProgress, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransition(tt.to); got != tt.expected {
				t.Errorf("CanTransition(%s -> %s) = %v, expected %v", tt.from, tt.to, got, tt.expected)
			}
		})
	}
}

func TestJobCardItemCompletionStampsTime(t *testing.T) {
	it := &JobCardItem{Status: JobItemInProgress}
	if err := it.Transition(JobItemCompleted); err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if it.CompletedAt == nil {
		t.Error("expected completed_at to be stamped")
	}
}

func TestItemCounts(t *testing.T) {
	jc := &JobCard{
		Items: []JobCardItem{
			{Status: JobItemCompleted},
			{Status: JobItemInProgress},
			{Status: JobItemCancelled},
		},
	}
	completed, total := jc.ItemCounts()
	if completed != 1 || total != 3 {
		t.Errorf("ItemCounts() = (%d, %d), expected (1, 3)", completed, total)
	}

	empty := &JobCard{}
	completed, total = empty.ItemCounts()
	if completed != 0 || total != 0 {
		t.Errorf("empty card ItemCounts() = (%d, %d), expected (0, 0)", completed, total)
	}
}
