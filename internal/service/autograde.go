package service

import (
	"encoding/json"
	"fmt"

	"github.com/akademix/lms-backend/internal/model"
)

// GradeAnswer grades one submitted answer as far as machine grading allows.
// Multiple-choice and true/false answers get full points when correct and
// zero otherwise; free-text answers are stored ungraded and routed to
// manual review. The returned answer carries the raw submission JSON plus
// the grading outcome fields.
func GradeAnswer(q *model.Question, sub *model.SubmittedAnswer) (*model.AssessmentAnswer, error) {
	if err := sub.ValidateFor(q.QuestionType); err != nil {
		return nil, err
	}

	raw, err := json.Marshal(sub)
	if err != nil {
		return nil, fmt.Errorf("encode answer: %w", err)
	}

	ans := &model.AssessmentAnswer{
		QuestionID: q.ID,
		Answer:     raw,
	}

	switch q.QuestionType {
	case model.QuestionTypeMultipleChoice:
		payload, err := q.DecodeMultipleChoice()
		if err != nil {
			return nil, err
		}
		correct := *sub.SelectedOptionID == payload.CorrectOptionID
		applyAutoGrade(ans, correct, q.Points)

	case model.QuestionTypeTrueFalse:
		payload, err := q.DecodeTrueFalse()
		if err != nil {
			return nil, err
		}
		correct := *sub.BoolAnswer == payload.CorrectAnswer
		applyAutoGrade(ans, correct, q.Points)

	case model.QuestionTypeShortAnswer, model.QuestionTypeEssay:
		ans.GradingStatus = model.GradingStatusPendingReview

	default:
		return nil, fmt.Errorf("unknown question type %q", q.QuestionType)
	}

	return ans, nil
}

// applyAutoGrade sets the all-or-nothing outcome on an auto-gradable answer.
func applyAutoGrade(ans *model.AssessmentAnswer, correct bool, points float64) {
	earned := 0.0
	if correct {
		earned = points
	}
	ans.IsCorrect = &correct
	ans.PointsEarned = &earned
	ans.GradingStatus = model.GradingStatusAutoGraded
}
