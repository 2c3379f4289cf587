package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/akademix/lms-backend/internal/model"
	"github.com/akademix/lms-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Manual grading errors.
var (
	ErrAlreadyGraded    = errors.New("answer has already been graded")
	ErrPointsOutOfRange = errors.New("points exceed the question's maximum")
	ErrNotManualType    = errors.New("answer is auto-graded and cannot be graded manually")
)

// GradingService serves the manual grading queue: listing answers awaiting
// review and applying one-shot instructor grades.
type GradingService struct {
	attempts *repository.AttemptRepository
	log      zerolog.Logger
}

// NewGradingService creates a new GradingService.
func NewGradingService(attempts *repository.AttemptRepository, log zerolog.Logger) *GradingService {
	return &GradingService{
		attempts: attempts,
		log:      log.With().Str("component", "grading_service").Logger(),
	}
}

// ListPending returns the manual grading queue, oldest submission first.
func (s *GradingService) ListPending(ctx context.Context, page, perPage int) ([]model.PendingAnswer, int64, error) {
	return s.attempts.ListPendingAnswers(ctx, page, perPage)
}

// Grade applies an instructor's grade to one pending answer and reports the
// attempt-level outcome. Grading is one-shot: a second grade on the same
// answer fails with ErrAlreadyGraded.
func (s *GradingService) Grade(ctx context.Context, answerID uuid.UUID, graderID int, req *model.GradeAnswerRequest) (*repository.GradeOutcome, error) {
	ac, err := s.attempts.GetAnswerContext(ctx, answerID)
	if err != nil {
		return nil, err
	}

	if ac.QuestionType.AutoGradable() {
		return nil, ErrNotManualType
	}
	if req.PointsEarned < 0 || req.PointsEarned > ac.QuestionMax {
		return nil, fmt.Errorf("%w: %.2f > %.2f", ErrPointsOutOfRange, req.PointsEarned, ac.QuestionMax)
	}

	outcome, err := s.attempts.ApplyGrade(ctx, answerID, req.PointsEarned, req.Feedback, graderID)
	if err != nil {
		if errors.Is(err, repository.ErrAnswerNotPending) {
			return nil, ErrAlreadyGraded
		}
		return nil, err
	}

	s.log.Info().
		Str("answer_id", answerID.String()).
		Int("graded_by", graderID).
		Float64("points", req.PointsEarned).
		Bool("attempt_finalized", outcome.AttemptFinalized).
		Msg("answer graded")

	return outcome, nil
}
