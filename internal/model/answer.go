package model

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// GradingStatus enumerates per-answer grading states.
type GradingStatus string

const (
	GradingStatusAutoGraded     GradingStatus = "auto_graded"
	GradingStatusManuallyGraded GradingStatus = "manually_graded"
	GradingStatusPendingReview  GradingStatus = "pending_review"
)

// AssessmentAnswer is one submitted answer inside an attempt. PointsEarned
// is nil until the answer has been graded; IsCorrect is only meaningful for
// auto-graded question types.
type AssessmentAnswer struct {
	ID             uuid.UUID       `json:"id"`
	AttemptID      uuid.UUID       `json:"attempt_id"`
	QuestionID     uuid.UUID       `json:"question_id"`
	Answer         json.RawMessage `json:"answer"`
	IsCorrect      *bool           `json:"is_correct,omitempty"`
	PointsEarned   *float64        `json:"points_earned,omitempty"`
	GradingStatus  GradingStatus   `json:"grading_status"`
	GraderFeedback *string         `json:"grader_feedback,omitempty"`
	GradedBy       *int            `json:"graded_by,omitempty"`
	GradedAt       *time.Time      `json:"graded_at,omitempty"`
}

// SubmittedAnswer is a student's answer to one question, type-shaped per the
// question type: SelectedOptionID for multiple_choice, BoolAnswer for
// true_false, Text for short_answer/essay.
type SubmittedAnswer struct {
	QuestionID       uuid.UUID `json:"question_id" binding:"required"`
	SelectedOptionID *string   `json:"selected_option_id,omitempty"`
	BoolAnswer       *bool     `json:"bool_answer,omitempty"`
	Text             string    `json:"text,omitempty"`
}

// ValidateFor checks that the submitted answer carries the field the
// question type expects.
func (s *SubmittedAnswer) ValidateFor(t QuestionType) error {
	switch t {
	case QuestionTypeMultipleChoice:
		if s.SelectedOptionID == nil || *s.SelectedOptionID == "" {
			return errors.New("multiple_choice answer requires selected_option_id")
		}
	case QuestionTypeTrueFalse:
		if s.BoolAnswer == nil {
			return errors.New("true_false answer requires bool_answer")
		}
	case QuestionTypeShortAnswer, QuestionTypeEssay:
		if s.Text == "" {
			return errors.New("free-text answer requires text")
		}
	}
	return nil
}

// GradeAnswerRequest is the payload for manually grading one answer.
type GradeAnswerRequest struct {
	PointsEarned float64 `json:"points_earned" binding:"min=0"`
	Feedback     *string `json:"feedback" binding:"omitempty,max=5000"`
}

/// PendingAnswer is one entry in the manual grading queue: an answer awaiting
// review joined with enough context to grade it.
type PendingAnswer struct {
	AnswerID       uuid.UUID    `json:"answer_id"`
	AttemptID      uuid.UUID    `json:"attempt_id"`
	AssessmentID   uuid.UUID    `json:"assessment_id"`
	AssessmentName string       `json:"assessment_name"`
	StudentID      int          `json:"student_id"`
	StudentName    string       `json:"student_name"`
	QuestionID     uuid.UUID    `json:"question_id"`
	QuestionType   QuestionType `json:"question_type"`
	QuestionText   string       `json:"question_text"`
	GradingRubric  string       `json:"grading_rubric,omitempty"`
	MaxPoints      float64      `json:"max_points"`
	AnswerText     string       `json:"answer_text"`
	SubmittedAt    time.Time    `json:"submitted_at"`
}
