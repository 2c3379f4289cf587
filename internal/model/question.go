package model

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// QuestionType enumerates the four supported question kinds.
type QuestionType string

const (
	QuestionTypeMultipleChoice QuestionType = "multiple_choice"
	QuestionTypeTrueFalse      QuestionType = "true_false"
	QuestionTypeShortAnswer    QuestionType = "short_answer"
	QuestionTypeEssay          QuestionType = "essay"
)

// AutoGradable reports whether answers of this type are scored by machine.
// Short-answer and essay questions always route to manual review.
func (t QuestionType) AutoGradable() bool {
	return t == QuestionTypeMultipleChoice || t == QuestionTypeTrueFalse
}

// Question represents a single assessment question. Payload is type-shaped:
// multiple_choice carries options plus the correct option id, true_false a
// correct boolean, short_answer/essay an optional grading rubric.
type Question struct {
	ID           uuid.UUID       `json:"id"`
	AssessmentID uuid.UUID       `json:"assessment_id"`
	QuestionType QuestionType    `json:"question_type"`
	QuestionText string          `json:"question_text"`
	Payload      json.RawMessage `json:"payload"`
	Points       float64         `json:"points"`
	OrderNum     int             `json:"order_num"`
}

// QuestionOption is one selectable choice in a multiple_choice question.
// IsCorrect is accepted on input as a legacy representation; after decoding,
// CorrectOptionID on the payload is the single source of truth.
type QuestionOption struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct,omitempty"`
}

// MultipleChoicePayload is the decoded payload of a multiple_choice question.
type MultipleChoicePayload struct {
	Options         []QuestionOption `json:"options"`
	CorrectOptionID string           `json:"correct_option_id"`
}

// TrueFalsePayload is the decoded payload of a true_false question.
type TrueFalsePayload struct {
	CorrectAnswer bool `json:"correct_answer"`
}

// RubricPayload is the decoded payload of a short_answer or essay question.
type RubricPayload struct {
	GradingRubric string `json:"grading_rubric,omitempty"`
}

// DecodeMultipleChoice parses and validates the payload of a multiple_choice
// question. Two historical representations exist: a correct_option_id field,
// or an is_correct flag on exactly one option. Both are normalized to
// CorrectOptionID here so the rest of the system sees one canonical form.
func (q *Question) DecodeMultipleChoice() (*MultipleChoicePayload, error) {
	if q.QuestionType != QuestionTypeMultipleChoice {
		return nil, fmt.Errorf("question is %s, not %s", q.QuestionType, QuestionTypeMultipleChoice)
	}

	var p MultipleChoicePayload
	if err := json.Unmarshal(q.Payload, &p); err != nil {
		return nil, fmt.Errorf("decode multiple_choice payload: %w", err)
	}

	if len(p.Options) < 2 {
		return nil, errors.New("multiple_choice requires at least two options")
	}

	if p.CorrectOptionID == "" {
		for _, opt := range p.Options {
			if opt.IsCorrect {
				if p.CorrectOptionID != "" {
					return nil, errors.New("multiple_choice has more than one option marked correct")
				}
				p.CorrectOptionID = opt.ID
			}
		}
	}
	if p.CorrectOptionID == "" {
		return nil, errors.New("multiple_choice has no correct option")
	}

	found := false
	for _, opt := range p.Options {
		if opt.ID == p.CorrectOptionID {
			found = true
			break
		}
	}
	if !found {
		return nil, errors.New("correct_option_id does not match any option")
	}

	return &p, nil
}

// DecodeTrueFalse parses the payload of a true_false question.
func (q *Question) DecodeTrueFalse() (*TrueFalsePayload, error) {
	if q.QuestionType != QuestionTypeTrueFalse {
		return nil, fmt.Errorf("question is %s, not %s", q.QuestionType, QuestionTypeTrueFalse)
	}
	var p TrueFalsePayload
	if err := json.Unmarshal(q.Payload, &p); err != nil {
		return nil, fmt.Errorf("decode true_false payload: %w", err)
	}
	return &p, nil
}

// DecodeRubric parses the payload of a short_answer or essay question.
func (q *Question) DecodeRubric() (*RubricPayload, error) {
	if q.QuestionType != QuestionTypeShortAnswer && q.QuestionType != QuestionTypeEssay {
		return nil, fmt.Errorf("question type %s carries no rubric payload", q.QuestionType)
	}
	var p RubricPayload
	if len(q.Payload) > 0 {
		if err := json.Unmarshal(q.Payload, &p); err != nil {
			return nil, fmt.Errorf("decode rubric payload: %w", err)
		}
	}
	return &p, nil
}

// ValidatePayload checks that the raw payload is well-formed for the
// question's type. Called at the creation boundary so malformed payloads
// never reach grading.
func (q *Question) ValidatePayload() error {
	switch q.QuestionType {
	case QuestionTypeMultipleChoice:
		_, err := q.DecodeMultipleChoice()
		return err
	case QuestionTypeTrueFalse:
		_, err := q.DecodeTrueFalse()
		return err
	case QuestionTypeShortAnswer, QuestionTypeEssay:
		_, err := q.DecodeRubric()
		return err
	default:
		return fmt.Errorf("unknown question type %q", q.QuestionType)
	}
}

// ForStudent strips grading information from the question payload so the
// correct answer is never sent to a student taking the assessment.
func (q *Question) ForStudent() (*QuestionForStudent, error) {
	out := &QuestionForStudent{
		ID:           q.ID,
		QuestionType: q.QuestionType,
		QuestionText: q.QuestionText,
		Points:       q.Points,
		OrderNum:     q.OrderNum,
	}

	if q.QuestionType == QuestionTypeMultipleChoice {
		p, err := q.DecodeMultipleChoice()
		if err != nil {
			return nil, err
		}
		out.Options = make([]QuestionOption, len(p.Options))
		for i, opt := range p.Options {
			out.Options[i] = QuestionOption{ID: opt.ID, Text: opt.Text}
		}
	}

	return out, nil
}

// QuestionForStudent is a question without grading data, sent to students.
type QuestionForStudent struct {
	ID           uuid.UUID        `json:"id"`
	QuestionType QuestionType     `json:"question_type"`
	QuestionText string           `json:"question_text"`
	Options      []QuestionOption `json:"options,omitempty"`
	Points       float64          `json:"points"`
	OrderNum     int              `json:"order_num"`
}

// AddQuestionRequest is the payload for adding a question to an assessment.
type AddQuestionRequest struct {
	QuestionType string          `json:"question_type" binding:"required,oneof=multiple_choice true_false short_answer essay"`
	QuestionText string          `json:"question_text" binding:"required,min=1,max=5000"`
	Payload      json.RawMessage `json:"payload" binding:"omitempty"`
	Points       float64         `json:"points" binding:"required,gt=0"`
	OrderNum     int             `json:"order_num" binding:"required,min=1"`
}
