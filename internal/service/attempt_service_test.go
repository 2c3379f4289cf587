package service

import (
	"errors"
	"testing"

	"github.com/akademix/lms-backend/internal/model"
)

func TestSubmitRejection(t *testing.T) {
	tests := []struct {
		name   string
		status model.AttemptStatus
		want   error
	}{
		// A student racing the timeout sweep should hear "time is up",
		// not "already submitted".
		{"timed out", model.AttemptStatusTimedOut, ErrTimeLimitExceeded},
		{"completed", model.AttemptStatusCompleted, ErrAlreadySubmitted},
		{"grading pending", model.AttemptStatusGradingPending, ErrAlreadySubmitted},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := submitRejection(tc.status); !errors.Is(got, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}
