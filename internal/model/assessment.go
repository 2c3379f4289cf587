package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Assessment represents a course-scoped, timed, multi-question assessment.
type Assessment struct {
	ID               uuid.UUID  `json:"id"`
	CourseID         uuid.UUID  `json:"course_id"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	TimeLimitMinutes int        `json:"time_limit_minutes"`
	PassingScore     float64    `json:"passing_score"`
	MaxAttempts      *int       `json:"max_attempts,omitempty"` // nil = unlimited
	StartDate        *time.Time `json:"start_date,omitempty"`
	EndDate          *time.Time `json:"end_date,omitempty"`
	IsActive         bool       `json:"is_active"`
	CreatedBy        int        `json:"created_by"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// AvailableAt reports whether the assessment may be attempted at the given
// instant: it must be active and, when a window is set, now must fall
// inside [StartDate, EndDate].
func (a *Assessment) AvailableAt(now time.Time) bool {
	if !a.IsActive {
		return false
	}
	if a.StartDate != nil && now.Before(*a.StartDate) {
		return false
	}
	if a.EndDate != nil && now.After(*a.EndDate) {
		return false
	}
	return true
}

// ValidateWindow enforces the availability-window invariant: a start date
// requires an end date strictly after it.
func (a *Assessment) ValidateWindow() error {
	if a.StartDate == nil {
		return nil
	}
	if a.EndDate == nil {
		return errors.New("end_date is required when start_date is set")
	}
	if !a.EndDate.After(*a.StartDate) {
		return errors.New("end_date must be after start_date")
	}
	return nil
}

// PrerequisiteType enumerates the kinds of assessment prerequisites.
type PrerequisiteType string

const (
	PrerequisiteQuizCompletion   PrerequisiteType = "quiz_completion"
	PrerequisiteMinimumProgress  PrerequisiteType = "minimum_progress"
	PrerequisiteLessonCompletion PrerequisiteType = "lesson_completion"
)

// AssessmentPrerequisite is a single gate a student must clear before
// starting an attempt. Data is type-shaped and decoded on demand.
type AssessmentPrerequisite struct {
	ID               uuid.UUID        `json:"id"`
	AssessmentID     uuid.UUID        `json:"assessment_id"`
	PrerequisiteType PrerequisiteType `json:"prerequisite_type"`
	Data             json.RawMessage  `json:"prerequisite_data"`
}

// MinimumProgressData is the payload for minimum_progress prerequisites.
type MinimumProgressData struct {
	MinimumPercentage float64 `json:"minimum_percentage"`
}

// LessonCompletionData is the payload for lesson_completion prerequisites.
type LessonCompletionData struct {
	LessonIDs []uuid.UUID `json:"lesson_ids"`
}

// DecodeMinimumProgress parses the prerequisite data as a minimum_progress
// payload.
func (p *AssessmentPrerequisite) DecodeMinimumProgress() (*MinimumProgressData, error) {
	if p.PrerequisiteType != PrerequisiteMinimumProgress {
		return nil, fmt.Errorf("prerequisite is %s, not %s", p.PrerequisiteType, PrerequisiteMinimumProgress)
	}
	var d MinimumProgressData
	if err := json.Unmarshal(p.Data, &d); err != nil {
		return nil, fmt.Errorf("decode minimum_progress data: %w", err)
	}
	return &d, nil
}

// DecodeLessonCompletion parses the prerequisite data as a lesson_completion
// payload.
func (p *AssessmentPrerequisite) DecodeLessonCompletion() (*LessonCompletionData, error) {
	if p.PrerequisiteType != PrerequisiteLessonCompletion {
		return nil, fmt.Errorf("prerequisite is %s, not %s", p.PrerequisiteType, PrerequisiteLessonCompletion)
	}
	var d LessonCompletionData
	if err := json.Unmarshal(p.Data, &d); err != nil {
		return nil, fmt.Errorf("decode lesson_completion data: %w", err)
	}
	return &d, nil
}

// UnmetPrerequisite describes a prerequisite a student has not satisfied.
// It is carried inside the start-attempt failure so the frontend can list
// exactly what is missing.
type UnmetPrerequisite struct {
	PrerequisiteType PrerequisiteType `json:"prerequisite_type"`
	Detail           string           `json:"detail"`
}

// CreateAssessmentRequest is the payload for creating a new assessment.
type CreateAssessmentRequest struct {
	CourseID         uuid.UUID  `json:"course_id" binding:"required"`
	Title            string     `json:"title" binding:"required,min=3,max=255"`
	Description      string     `json:"description" binding:"omitempty,max=5000"`
	TimeLimitMinutes int        `json:"time_limit_minutes" binding:"required,min=1,max=480"`
	PassingScore     float64    `json:"passing_score" binding:"min=0,max=100"`
	MaxAttempts      *int       `json:"max_attempts" binding:"omitempty,min=1"`
	StartDate        *time.Time `json:"start_date" binding:"omitempty"`
	EndDate          *time.Time `json:"end_date" binding:"omitempty,gtfield=StartDate"`
}

// AddPrerequisiteRequest is the payload for attaching a prerequisite.
type AddPrerequisiteRequest struct {
	PrerequisiteType string          `json:"prerequisite_type" binding:"required,oneof=quiz_completion minimum_progress lesson_completion"`
	Data             json.RawMessage `json:"prerequisite_data" binding:"omitempty"`
}
