package model

// ScoreSummary is the result of aggregating an attempt's answers.
// Complete is false while any answer still has nil points_earned; in that
// case Score/Percentage/Passed carry no meaning and must not be persisted.
type ScoreSummary struct {
	Score      float64
	MaxScore   float64
	Percentage float64
	Passed     bool
	Complete   bool
}

// AggregateScore recomputes an attempt's score from its questions and
// answers. MaxScore is the sum of all question points. Score is the sum of
// earned points once every answer is graded; until then only MaxScore is
// meaningful. The function is idempotent: repeated calls over unchanged
// input yield identical output.
func AggregateScore(questions []Question, answers []AssessmentAnswer, passingScore float64) ScoreSummary {
	var sum ScoreSummary
	for _, q := range questions {
		sum.MaxScore += q.Points
	}

	sum.Complete = true
	for _, ans := range answers {
		if ans.PointsEarned == nil {
			sum.Complete = false
			continue
		}
		sum.Score += *ans.PointsEarned
	}

	if !sum.Complete {
		sum.Score = 0
		return sum
	}

	if sum.MaxScore > 0 {
		sum.Percentage = sum.Score / sum.MaxScore * 100
	}
	sum.Passed = sum.Percentage >= passingScore
	return sum
}
