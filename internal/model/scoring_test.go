package model

import "testing"

func floatPtr(v float64) *float64 { return &v }

func TestAggregateScore(t *testing.T) {
	questions := []Question{
		{Points: 10},
		{Points: 5},
		{Points: 5},
	}

	tests := []struct {
		name         string
		earned       []*float64
		passingScore float64
		wantScore    float64
		wantPct      float64
		wantPassed   bool
		wantComplete bool
	}{
		{
			name:         "all graded full marks",
			earned:       []*float64{floatPtr(10), floatPtr(5), floatPtr(5)},
			passingScore: 60,
			wantScore:    20, wantPct: 100, wantPassed: true, wantComplete: true,
		},
		{
			name:         "all graded partial",
			earned:       []*float64{floatPtr(10), floatPtr(0), floatPtr(0)},
			passingScore: 60,
			wantScore:    10, wantPct: 50, wantPassed: false, wantComplete: true,
		},
		{
			name:         "exactly at passing boundary",
			earned:       []*float64{floatPtr(10), floatPtr(2), floatPtr(0)},
			passingScore: 60,
			wantScore:    12, wantPct: 60, wantPassed: true, wantComplete: true,
		},
		{
			name:         "one answer ungraded",
			earned:       []*float64{floatPtr(10), nil, floatPtr(5)},
			passingScore: 60,
			wantComplete: false,
		},
		{
			name:         "zero passing score always passes when complete",
			earned:       []*float64{floatPtr(0), floatPtr(0), floatPtr(0)},
			passingScore: 0,
			wantScore:    0, wantPct: 0, wantPassed: true, wantComplete: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			answers := make([]AssessmentAnswer, len(tc.earned))
			for i, e := range tc.earned {
				answers[i] = AssessmentAnswer{PointsEarned: e}
			}

			got := AggregateScore(questions, answers, tc.passingScore)
			if got.MaxScore != 20 {
				t.Fatalf("expected max_score=20, got=%v", got.MaxScore)
			}
			if got.Complete != tc.wantComplete {
				t.Fatalf("expected complete=%v, got=%v", tc.wantComplete, got.Complete)
			}
			if !tc.wantComplete {
				if got.Score != 0 {
					t.Fatalf("incomplete aggregate must zero the score, got=%v", got.Score)
				}
				return
			}
			if got.Score != tc.wantScore {
				t.Fatalf("expected score=%v, got=%v", tc.wantScore, got.Score)
			}
			if got.Percentage != tc.wantPct {
				t.Fatalf("expected percentage=%v, got=%v", tc.wantPct, got.Percentage)
			}
			if got.Passed != tc.wantPassed {
				t.Fatalf("expected passed=%v, got=%v", tc.wantPassed, got.Passed)
			}
		})
	}
}

func TestAggregateScore_Idempotent(t *testing.T) {
	questions := []Question{{Points: 10}, {Points: 10}}
	answers := []AssessmentAnswer{
		{PointsEarned: floatPtr(7)},
		{PointsEarned: floatPtr(10)},
	}

	first := AggregateScore(questions, answers, 80)
	second := AggregateScore(questions, answers, 80)
	if first != second {
		t.Fatalf("repeated aggregation diverged: %+v vs %+v", first, second)
	}
}

func TestAggregateScore_NoQuestions(t *testing.T) {
	got := AggregateScore(nil, nil, 50)
	if !got.Complete {
		t.Fatal("empty attempt should aggregate as complete")
	}
	if got.MaxScore != 0 || got.Percentage != 0 {
		t.Fatalf("expected zero max and percentage, got %+v", got)
	}
}
