package model

import (
	"testing"
	"time"
)

func TestAttemptStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to AttemptStatus
		want     bool
	}{
		{AttemptStatusInProgress, AttemptStatusCompleted, true},
		{AttemptStatusInProgress, AttemptStatusTimedOut, true},
		{AttemptStatusInProgress, AttemptStatusGradingPending, true},
		{AttemptStatusGradingPending, AttemptStatusCompleted, true},
		{AttemptStatusGradingPending, AttemptStatusTimedOut, false},
		{AttemptStatusGradingPending, AttemptStatusInProgress, false},
		{AttemptStatusCompleted, AttemptStatusInProgress, false},
		{AttemptStatusCompleted, AttemptStatusGradingPending, false},
		{AttemptStatusTimedOut, AttemptStatusCompleted, false},
	}

	for _, tc := range tests {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.want {
			t.Errorf("%s -> %s: expected %v, got %v", tc.from, tc.to, tc.want, got)
		}
	}
}

func TestAttemptStatusTerminal(t *testing.T) {
	if AttemptStatusInProgress.Terminal() || AttemptStatusGradingPending.Terminal() {
		t.Error("in_progress/grading_pending must not be terminal")
	}
	if !AttemptStatusCompleted.Terminal() || !AttemptStatusTimedOut.Terminal() {
		t.Error("completed/timed_out must be terminal")
	}
}

func TestAttemptDeadline(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	got := AttemptDeadline(start, 45)
	want := time.Date(2026, 3, 1, 10, 45, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestAttemptExpired(t *testing.T) {
	start := time.Now()
	a := &AssessmentAttempt{StartTime: start}

	if a.Expired(30, start.Add(29*time.Minute)) {
		t.Error("attempt should not be expired before the deadline")
	}
	if a.Expired(30, start.Add(30*time.Minute)) {
		t.Error("attempt at the exact deadline is not yet expired")
	}
	if !a.Expired(30, start.Add(30*time.Minute+time.Second)) {
		t.Error("attempt should be expired past the deadline")
	}
}
