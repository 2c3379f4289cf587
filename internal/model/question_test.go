package model

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestDecodeMultipleChoice(t *testing.T) {
	tests := []struct {
		name        string
		payload     string
		wantCorrect string
		wantErr     string
	}{
		{
			name:        "canonical correct_option_id",
			payload:     `{"options":[{"id":"a","text":"3"},{"id":"b","text":"4"}],"correct_option_id":"b"}`,
			wantCorrect: "b",
		},
		{
			name:        "legacy is_correct flag normalized",
			payload:     `{"options":[{"id":"a","text":"3"},{"id":"b","text":"4","is_correct":true}]}`,
			wantCorrect: "b",
		},
		{
			name:        "correct_option_id wins over flags",
			payload:     `{"options":[{"id":"a","text":"3","is_correct":true},{"id":"b","text":"4"}],"correct_option_id":"b"}`,
			wantCorrect: "b",
		},
		{
			name:    "two options flagged correct",
			payload: `{"options":[{"id":"a","text":"3","is_correct":true},{"id":"b","text":"4","is_correct":true}]}`,
			wantErr: "more than one option",
		},
		{
			name:    "no correct option",
			payload: `{"options":[{"id":"a","text":"3"},{"id":"b","text":"4"}]}`,
			wantErr: "no correct option",
		},
		{
			name:    "correct_option_id not among options",
			payload: `{"options":[{"id":"a","text":"3"},{"id":"b","text":"4"}],"correct_option_id":"z"}`,
			wantErr: "does not match any option",
		},
		{
			name:    "fewer than two options",
			payload: `{"options":[{"id":"a","text":"3"}],"correct_option_id":"a"}`,
			wantErr: "at least two options",
		},
		{
			name:    "malformed json",
			payload: `{"options":`,
			wantErr: "decode multiple_choice payload",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			q := &Question{
				QuestionType: QuestionTypeMultipleChoice,
				Payload:      json.RawMessage(tc.payload),
			}
			p, err := q.DecodeMultipleChoice()
			if tc.wantErr != "" {
				if err == nil {
					t.Fatalf("expected error containing %q, got nil", tc.wantErr)
				}
				if !strings.Contains(err.Error(), tc.wantErr) {
					t.Fatalf("expected error containing %q, got %q", tc.wantErr, err.Error())
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.CorrectOptionID != tc.wantCorrect {
				t.Fatalf("expected correct_option_id=%s, got=%s", tc.wantCorrect, p.CorrectOptionID)
			}
		})
	}
}

func TestDecodeMultipleChoice_WrongType(t *testing.T) {
	q := &Question{QuestionType: QuestionTypeEssay, Payload: json.RawMessage(`{}`)}
	if _, err := q.DecodeMultipleChoice(); err == nil {
		t.Fatal("expected type mismatch error")
	}
}

func TestValidatePayload(t *testing.T) {
	tests := []struct {
		name    string
		qType   QuestionType
		payload string
		wantErr bool
	}{
		{name: "valid multiple choice", qType: QuestionTypeMultipleChoice, payload: `{"options":[{"id":"a","text":"x"},{"id":"b","text":"y"}],"correct_option_id":"a"}`},
		{name: "invalid multiple choice", qType: QuestionTypeMultipleChoice, payload: `{"options":[]}`, wantErr: true},
		{name: "valid true false", qType: QuestionTypeTrueFalse, payload: `{"correct_answer":true}`},
		{name: "valid essay rubric", qType: QuestionTypeEssay, payload: `{"grading_rubric":"cover both causes"}`},
		{name: "essay empty payload", qType: QuestionTypeEssay, payload: ``},
		{name: "short answer empty payload", qType: QuestionTypeShortAnswer, payload: `{}`},
		{name: "unknown type", qType: QuestionType("matching"), payload: `{}`, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			q := &Question{QuestionType: tc.qType, Payload: json.RawMessage(tc.payload)}
			err := q.ValidatePayload()
			if tc.wantErr && err == nil {
				t.Fatal("expected error, got nil")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestForStudent_StripsGradingData(t *testing.T) {
	q := &Question{
		QuestionType: QuestionTypeMultipleChoice,
		QuestionText: "pick one",
		Payload:      json.RawMessage(`{"options":[{"id":"a","text":"3","is_correct":false},{"id":"b","text":"4","is_correct":true}]}`),
		Points:       5,
		OrderNum:     1,
	}
	out, err := q.ForStudent()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Options) != 2 {
		t.Fatalf("expected 2 options, got %d", len(out.Options))
	}
	for _, opt := range out.Options {
		if opt.IsCorrect {
			t.Fatalf("option %s leaks is_correct", opt.ID)
		}
	}

	raw, err := json.Marshal(out)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(raw), "correct") {
		t.Fatalf("student view leaks grading data: %s", raw)
	}
}

func TestForStudent_FreeTextHasNoOptions(t *testing.T) {
	q := &Question{QuestionType: QuestionTypeEssay, QuestionText: "discuss", Points: 10, OrderNum: 2}
	out, err := q.ForStudent()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Options != nil {
		t.Fatalf("expected no options, got %v", out.Options)
	}
}

func TestAutoGradable(t *testing.T) {
	tests := []struct {
		qType QuestionType
		want  bool
	}{
		{QuestionTypeMultipleChoice, true},
		{QuestionTypeTrueFalse, true},
		{QuestionTypeShortAnswer, false},
		{QuestionTypeEssay, false},
	}
	for _, tc := range tests {
		if got := tc.qType.AutoGradable(); got != tc.want {
			t.Errorf("%s: expected %v, got %v", tc.qType, tc.want, got)
		}
	}
}
