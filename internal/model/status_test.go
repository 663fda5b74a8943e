package model

import "testing"

func TestRecordStatusValid(t *testing.T) {
	for _, s := range RecordStatuses {
		if !s.Valid() {
			t.Errorf("RecordStatus(%q).Valid() = false, want true", s)
		}
	}

	for _, s := range []RecordStatus{"", "done", "PENDING_REVIEW"} {
		if s.Valid() {
			t.Errorf("RecordStatus(%q).Valid() = true, want false", s)
		}
	}
}

func TestRecordStatusIsEntry(t *testing.T) {
	tests := []struct {
		status RecordStatus
		want   bool
	}{
		{RecordPendingReview, true},
		{RecordUpcoming, true},
		{RecordInProgress, false},
		{RecordCompleted, false},
		{RecordOverdue, false},
		{RecordCancelled, false},
	}

	for _, tt := range tests {
		if got := tt.status.IsEntry(); got != tt.want {
			t.Errorf("RecordStatus(%q).IsEntry() = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestItemStatusValid(t *testing.T) {
	tests := []struct {
		status ItemStatus
		want   bool
	}{
		{ItemPending, true},
		{ItemTransferred, true},
		{ItemCancelled, true},
		{"", false},
		{"moved", false},
	}

	for _, tt := range tests {
		if got := tt.status.Valid(); got != tt.want {
			t.Errorf("ItemStatus(%q).Valid() = %v, want %v", tt.status, got, tt.want)
		}
	}
}
