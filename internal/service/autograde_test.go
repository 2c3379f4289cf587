package service

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"

	"github.com/akademix/lms-backend/internal/model"
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestGradeAnswer_MultipleChoice(t *testing.T) {
	q := &model.Question{
		ID:           uuid.New(),
		QuestionType: model.QuestionTypeMultipleChoice,
		Payload:      json.RawMessage(`{"options":[{"id":"a","text":"3"},{"id":"b","text":"4"}],"correct_option_id":"b"}`),
		Points:       10,
	}

	tests := []struct {
		name        string
		selected    *string
		wantErr     bool
		wantCorrect bool
		wantEarned  float64
	}{
		{name: "correct option full points", selected: strPtr("b"), wantCorrect: true, wantEarned: 10},
		{name: "wrong option zero points", selected: strPtr("a"), wantCorrect: false, wantEarned: 0},
		{name: "nonexistent option zero points", selected: strPtr("z"), wantCorrect: false, wantEarned: 0},
		{name: "missing selection rejected", selected: nil, wantErr: true},
		{name: "empty selection rejected", selected: strPtr(""), wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sub := &model.SubmittedAnswer{QuestionID: q.ID, SelectedOptionID: tc.selected}
			got, err := GradeAnswer(q, sub)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			assertAutoGraded(t, got, tc.wantCorrect, tc.wantEarned)
		})
	}
}

func TestGradeAnswer_TrueFalse(t *testing.T) {
	q := &model.Question{
		ID:           uuid.New(),
		QuestionType: model.QuestionTypeTrueFalse,
		Payload:      json.RawMessage(`{"correct_answer":false}`),
		Points:       4,
	}

	tests := []struct {
		name        string
		answer      *bool
		wantErr     bool
		wantCorrect bool
		wantEarned  float64
	}{
		{name: "correct false", answer: boolPtr(false), wantCorrect: true, wantEarned: 4},
		{name: "wrong true", answer: boolPtr(true), wantCorrect: false, wantEarned: 0},
		{name: "missing answer rejected", answer: nil, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sub := &model.SubmittedAnswer{QuestionID: q.ID, BoolAnswer: tc.answer}
			got, err := GradeAnswer(q, sub)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			assertAutoGraded(t, got, tc.wantCorrect, tc.wantEarned)
		})
	}
}

func TestGradeAnswer_FreeTextRoutesToReview(t *testing.T) {
	for _, qType := range []model.QuestionType{model.QuestionTypeShortAnswer, model.QuestionTypeEssay} {
		t.Run(string(qType), func(t *testing.T) {
			q := &model.Question{ID: uuid.New(), QuestionType: qType, Points: 20}
			sub := &model.SubmittedAnswer{QuestionID: q.ID, Text: "the industrial revolution"}

			got, err := GradeAnswer(q, sub)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.GradingStatus != model.GradingStatusPendingReview {
				t.Fatalf("expected pending_review, got %s", got.GradingStatus)
			}
			if got.IsCorrect != nil || got.PointsEarned != nil {
				t.Fatal("ungraded answer must not carry grading outcome")
			}
		})
	}
}

func TestGradeAnswer_EmptyTextRejected(t *testing.T) {
	q := &model.Question{ID: uuid.New(), QuestionType: model.QuestionTypeEssay, Points: 20}
	if _, err := GradeAnswer(q, &model.SubmittedAnswer{QuestionID: q.ID}); err == nil {
		t.Fatal("expected error for empty free-text answer")
	}
}

func TestGradeAnswer_PreservesSubmission(t *testing.T) {
	q := &model.Question{
		ID:           uuid.New(),
		QuestionType: model.QuestionTypeMultipleChoice,
		Payload:      json.RawMessage(`{"options":[{"id":"a","text":"x"},{"id":"b","text":"y"}],"correct_option_id":"a"}`),
		Points:       1,
	}
	sub := &model.SubmittedAnswer{QuestionID: q.ID, SelectedOptionID: strPtr("b")}

	got, err := GradeAnswer(q, sub)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var stored model.SubmittedAnswer
	if err := json.Unmarshal(got.Answer, &stored); err != nil {
		t.Fatalf("stored answer is not valid JSON: %v", err)
	}
	if stored.SelectedOptionID == nil || *stored.SelectedOptionID != "b" {
		t.Fatalf("stored answer lost the selection: %s", got.Answer)
	}
}

func assertAutoGraded(t *testing.T, ans *model.AssessmentAnswer, correct bool, earned float64) {
	t.Helper()
	if ans.GradingStatus != model.GradingStatusAutoGraded {
		t.Fatalf("expected auto_graded, got %s", ans.GradingStatus)
	}
	if ans.IsCorrect == nil || *ans.IsCorrect != correct {
		t.Fatalf("expected is_correct=%v, got=%v", correct, ans.IsCorrect)
	}
	if ans.PointsEarned == nil || *ans.PointsEarned != earned {
		t.Fatalf("expected points_earned=%v, got=%v", earned, ans.PointsEarned)
	}
}
