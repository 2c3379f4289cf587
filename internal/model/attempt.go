package model

import (
	"time"

	"github.com/google/uuid"
)

// AttemptStatus enumerates attempt states.
type AttemptStatus string

const (
	AttemptStatusInProgress     AttemptStatus = "in_progress"
	AttemptStatusCompleted      AttemptStatus = "completed"
	AttemptStatusTimedOut       AttemptStatus = "timed_out"
	AttemptStatusGradingPending AttemptStatus = "grading_pending"
)

// legalTransitions is the single place the attempt state machine is defined.
// Services consult CanTransitionTo before choosing a next status; the guarded
// repository UPDATEs encode the same edges in SQL as the last line of defense.
var legalTransitions = map[AttemptStatus][]AttemptStatus{
	AttemptStatusInProgress:     {AttemptStatusCompleted, AttemptStatusTimedOut, AttemptStatusGradingPending},
	AttemptStatusGradingPending: {AttemptStatusCompleted},
	AttemptStatusCompleted:      {},
	AttemptStatusTimedOut:       {},
}

// CanTransitionTo reports whether moving from s to next is a legal attempt
// state transition. completed and timed_out are terminal.
func (s AttemptStatus) CanTransitionTo(next AttemptStatus) bool {
	for _, allowed := range legalTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further automatic transition occurs from s.
func (s AttemptStatus) Terminal() bool {
	return s == AttemptStatusCompleted || s == AttemptStatusTimedOut
}

// AssessmentAttempt is one student's timed run through an assessment.
// Score, MaxScore, Percentage and Passed stay nil until every answer has
// been graded.
type AssessmentAttempt struct {
	ID               uuid.UUID     `json:"id"`
	AssessmentID     uuid.UUID     `json:"assessment_id"`
	StudentID        int           `json:"student_id"`
	AttemptNumber    int           `json:"attempt_number"`
	Status           AttemptStatus `json:"status"`
	StartTime        time.Time     `json:"start_time"`
	CompletionTime   *time.Time    `json:"completion_time,omitempty"`
	TimeTakenSeconds *int          `json:"time_taken_seconds,omitempty"`
	Score            *float64      `json:"score,omitempty"`
	MaxScore         *float64      `json:"max_score,omitempty"`
	Percentage       *float64      `json:"percentage,omitempty"`
	Passed           *bool         `json:"passed,omitempty"`
}

// AttemptDeadline computes the wall-clock submission deadline for an attempt
// started at start under the given time limit.
func AttemptDeadline(start time.Time, timeLimitMinutes int) time.Time {
	return start.Add(time.Duration(timeLimitMinutes) * time.Minute)
}

// Expired reports whether the attempt's deadline has passed. It is a pure
// predicate; the sweep worker uses it to detect abandoned attempts and a
// live submission uses it to reject late submits.
func (a *AssessmentAttempt) Expired(timeLimitMinutes int, now time.Time) bool {
	return now.After(AttemptDeadline(a.StartTime, timeLimitMinutes))
}

// SubmitAttemptRequest is the payload for submitting an attempt's answers.
type SubmitAttemptRequest struct {
	Answers []SubmittedAnswer `json:"answers" binding:"required,min=1,dive"`
}
