package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/akademix/lms-backend/internal/config"
	"github.com/akademix/lms-backend/internal/model"
	"github.com/akademix/lms-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Attempt lifecycle errors, mapped to response codes at the handler layer.
var (
	ErrNotEnrolled            = errors.New("student is not enrolled in the course")
	ErrAssessmentNotAvailable = errors.New("assessment is not available")
	ErrMaxAttemptsExceeded    = errors.New("maximum attempts exceeded")
	ErrAlreadySubmitted       = errors.New("attempt has already been submitted")
	ErrTimeLimitExceeded      = errors.New("time limit exceeded")
	ErrNotYourAttempt         = errors.New("attempt belongs to another student")
	ErrUnknownQuestion        = errors.New("answer references a question not in this assessment")
)

// PrerequisiteError reports which prerequisites a student has not met. It is
// carried to the client so the frontend can list exactly what is missing.
type PrerequisiteError struct {
	Unmet []model.UnmetPrerequisite
}

func (e *PrerequisiteError) Error() string {
	return fmt.Sprintf("%d prerequisite(s) not met", len(e.Unmet))
}

// questionCacheTTL bounds how stale the cached student-facing question
// payload may get after an instructor edits the assessment.
const questionCacheTTL = 5 * time.Minute

// submitGrace absorbs clock skew and network latency on live submissions
// arriving right at the deadline.
const submitGrace = 5 * time.Second

// AttemptService orchestrates the attempt lifecycle: the start gate, timed
// progression, submission with auto-grading, and score aggregation.
type AttemptService struct {
	cfg         *config.Config
	rdb         *redis.Client
	attempts    *repository.AttemptRepository
	assessments *repository.AssessmentRepository
	enrollments *repository.EnrollmentRepository
	log         zerolog.Logger
}

// NewAttemptService creates a new AttemptService.
func NewAttemptService(
	cfg *config.Config,
	rdb *redis.Client,
	attempts *repository.AttemptRepository,
	assessments *repository.AssessmentRepository,
	enrollments *repository.EnrollmentRepository,
	log zerolog.Logger,
) *AttemptService {
	return &AttemptService{
		cfg:         cfg,
		rdb:         rdb,
		attempts:    attempts,
		assessments: assessments,
		enrollments: enrollments,
		log:         log.With().Str("component", "attempt_service").Logger(),
	}
}

// Start opens a new attempt for the student, enforcing the full start gate:
// enrollment, availability window, attempt limit, and prerequisites. All
// gate failures return typed errors; a prerequisite failure carries the
// complete unmet list.
func (s *AttemptService) Start(ctx context.Context, assessmentID uuid.UUID, studentID int) (*model.AssessmentAttempt, error) {
	assessment, err := s.assessments.GetByID(ctx, assessmentID)
	if err != nil {
		return nil, err
	}

	enrolled, err := s.enrollments.IsEnrolled(ctx, studentID, assessment.CourseID)
	if err != nil {
		return nil, fmt.Errorf("check enrollment: %w", err)
	}
	if !enrolled {
		return nil, ErrNotEnrolled
	}

	if !assessment.AvailableAt(time.Now()) {
		return nil, ErrAssessmentNotAvailable
	}

	count, err := s.attempts.CountForStudent(ctx, assessmentID, studentID)
	if err != nil {
		return nil, fmt.Errorf("count attempts: %w", err)
	}
	if assessment.MaxAttempts != nil && count >= *assessment.MaxAttempts {
		return nil, ErrMaxAttemptsExceeded
	}

	unmet, err := s.checkPrerequisites(ctx, assessment, studentID)
	if err != nil {
		return nil, err
	}
	if len(unmet) > 0 {
		return nil, &PrerequisiteError{Unmet: unmet}
	}

	attempt := &model.AssessmentAttempt{
		AssessmentID:  assessmentID,
		StudentID:     studentID,
		AttemptNumber: count + 1,
		Status:        model.AttemptStatusInProgress,
	}
	if err := s.attempts.Create(ctx, attempt); err != nil {
		return nil, fmt.Errorf("create attempt: %w", err)
	}

	// Cache the deadline so the frontend countdown survives reconnects
	// without recomputing from the attempt row. Best effort.
	deadline := model.AttemptDeadline(attempt.StartTime, assessment.TimeLimitMinutes)
	ttl := time.Until(deadline) + time.Hour
	if err := s.rdb.Set(ctx, config.CacheKey.AttemptDeadlineKey(attempt.ID.String()),
		deadline.Format(time.RFC3339), ttl).Err(); err != nil {
		s.log.Warn().Err(err).Str("attempt_id", attempt.ID.String()).Msg("cache deadline failed")
	}

	s.log.Info().
		Str("attempt_id", attempt.ID.String()).
		Str("assessment_id", assessmentID.String()).
		Int("student_id", studentID).
		Int("attempt_number", attempt.AttemptNumber).
		Msg("attempt started")

	return attempt, nil
}

// checkPrerequisites evaluates every prerequisite and collects the unmet
// ones. All gates are checked so the student sees the full list at once.
func (s *AttemptService) checkPrerequisites(ctx context.Context, assessment *model.Assessment, studentID int) ([]model.UnmetPrerequisite, error) {
	prereqs, err := s.assessments.ListPrerequisites(ctx, assessment.ID)
	if err != nil {
		return nil, fmt.Errorf("list prerequisites: %w", err)
	}

	var unmet []model.UnmetPrerequisite
	for _, p := range prereqs {
		switch p.PrerequisiteType {
		case model.PrerequisiteQuizCompletion:
			passed, err := s.enrollments.HasPassedAllQuizzes(ctx, studentID, assessment.CourseID)
			if err != nil {
				return nil, fmt.Errorf("check quiz completion: %w", err)
			}
			if !passed {
				unmet = append(unmet, model.UnmetPrerequisite{
					PrerequisiteType: p.PrerequisiteType,
					Detail:           "all course quizzes must be passed",
				})
			}

		case model.PrerequisiteMinimumProgress:
			data, err := p.DecodeMinimumProgress()
			if err != nil {
				return nil, err
			}
			progress, err := s.enrollments.ProgressPercentage(ctx, studentID, assessment.CourseID)
			if err != nil {
				return nil, fmt.Errorf("check progress: %w", err)
			}
			if progress < data.MinimumPercentage {
				unmet = append(unmet, model.UnmetPrerequisite{
					PrerequisiteType: p.PrerequisiteType,
					Detail:           fmt.Sprintf("course progress %.0f%% is below required %.0f%%", progress, data.MinimumPercentage),
				})
			}

		case model.PrerequisiteLessonCompletion:
			data, err := p.DecodeLessonCompletion()
			if err != nil {
				return nil, err
			}
			done, err := s.enrollments.HasCompletedLessons(ctx, studentID, data.LessonIDs)
			if err != nil {
				return nil, fmt.Errorf("check lesson completion: %w", err)
			}
			if !done {
				unmet = append(unmet, model.UnmetPrerequisite{
					PrerequisiteType: p.PrerequisiteType,
					Detail:           fmt.Sprintf("%d required lesson(s) must be completed", len(data.LessonIDs)),
				})
			}
		}
	}
	return unmet, nil
}

// Questions returns the assessment's questions stripped of grading data,
// cached in Redis so repeated loads during an attempt don't hit Postgres.
func (s *AttemptService) Questions(ctx context.Context, assessmentID uuid.UUID) ([]model.QuestionForStudent, error) {
	cacheKey := config.CacheKey.AssessmentQuestionsKey(assessmentID.String())

	if cached, err := s.rdb.Get(ctx, cacheKey).Result(); err == nil {
		var out []model.QuestionForStudent
		if err := json.Unmarshal([]byte(cached), &out); err == nil {
			return out, nil
		}
	}

	questions, err := s.assessments.ListQuestions(ctx, assessmentID)
	if err != nil {
		return nil, err
	}

	out := make([]model.QuestionForStudent, 0, len(questions))
	for i := range questions {
		q, err := questions[i].ForStudent()
		if err != nil {
			return nil, fmt.Errorf("question %s: %w", questions[i].ID, err)
		}
		out = append(out, *q)
	}

	if raw, err := json.Marshal(out); err == nil {
		if err := s.rdb.Set(ctx, cacheKey, raw, questionCacheTTL).Err(); err != nil {
			s.log.Warn().Err(err).Msg("cache questions failed")
		}
	}

	return out, nil
}

// submitRejection maps a non-in_progress attempt status to the student-facing
// error: a timed-out attempt reads as an expiry, not a duplicate submission.
func submitRejection(status model.AttemptStatus) error {
	if status == model.AttemptStatusTimedOut {
		return ErrTimeLimitExceeded
	}
	return ErrAlreadySubmitted
}

// Submit grades and finalizes an in-progress attempt. Auto-gradable answers
// are scored immediately; free-text answers route to manual review, in which
// case the attempt lands in grading_pending with no score. Submissions past
// the deadline (plus a small grace) time the attempt out and are rejected
// with ErrTimeLimitExceeded.
func (s *AttemptService) Submit(ctx context.Context, attemptID uuid.UUID, studentID int, req *model.SubmitAttemptRequest) (*model.AssessmentAttempt, error) {
	attempt, err := s.attempts.GetByID(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.StudentID != studentID {
		return nil, ErrNotYourAttempt
	}
	if attempt.Status != model.AttemptStatusInProgress {
		return nil, submitRejection(attempt.Status)
	}

	assessment, err := s.assessments.GetByID(ctx, attempt.AssessmentID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	deadline := model.AttemptDeadline(attempt.StartTime, assessment.TimeLimitMinutes)
	if now.After(deadline.Add(submitGrace)) {
		if err := s.attempts.MarkTimedOut(ctx, attemptID); err != nil &&
			!errors.Is(err, repository.ErrAttemptNotInProgress) {
			return nil, fmt.Errorf("time out attempt: %w", err)
		}
		s.log.Info().Str("attempt_id", attemptID.String()).Msg("late submission rejected")
		return nil, ErrTimeLimitExceeded
	}

	questions, err := s.assessments.ListQuestions(ctx, attempt.AssessmentID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	byID := make(map[uuid.UUID]*model.Question, len(questions))
	for i := range questions {
		byID[questions[i].ID] = &questions[i]
	}

	answers := make([]model.AssessmentAnswer, 0, len(req.Answers))
	needsReview := false
	for i := range req.Answers {
		sub := &req.Answers[i]
		q, ok := byID[sub.QuestionID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownQuestion, sub.QuestionID)
		}
		ans, err := GradeAnswer(q, sub)
		if err != nil {
			return nil, fmt.Errorf("question %s: %w", q.ID, err)
		}
		ans.AttemptID = attemptID
		if ans.GradingStatus == model.GradingStatusPendingReview {
			needsReview = true
		}
		answers = append(answers, *ans)
	}

	summary := model.AggregateScore(questions, answers, assessment.PassingScore)

	attempt.CompletionTime = &now
	taken := int(now.Sub(attempt.StartTime).Seconds())
	attempt.TimeTakenSeconds = &taken
	attempt.MaxScore = &summary.MaxScore

	next := model.AttemptStatusCompleted
	if needsReview {
		next = model.AttemptStatusGradingPending
	}
	if !attempt.Status.CanTransitionTo(next) {
		return nil, submitRejection(attempt.Status)
	}
	attempt.Status = next
	if !needsReview {
		attempt.Score = &summary.Score
		attempt.Percentage = &summary.Percentage
		attempt.Passed = &summary.Passed
	}

	if err := s.attempts.Submit(ctx, attempt, answers); err != nil {
		if errors.Is(err, repository.ErrAttemptNotInProgress) {
			// Lost a race with another submitter or the timeout sweep;
			// re-read to report the right rejection.
			if cur, gerr := s.attempts.GetByID(ctx, attemptID); gerr == nil {
				return nil, submitRejection(cur.Status)
			}
			return nil, ErrAlreadySubmitted
		}
		return nil, err
	}

	// The countdown cache is no longer needed.
	if err := s.rdb.Del(ctx, config.CacheKey.AttemptDeadlineKey(attemptID.String())).Err(); err != nil {
		s.log.Warn().Err(err).Msg("clear deadline cache failed")
	}

	s.log.Info().
		Str("attempt_id", attemptID.String()).
		Str("status", string(attempt.Status)).
		Int("answers", len(answers)).
		Msg("attempt submitted")

	return attempt, nil
}

// Get returns an attempt with its answers, for the owning student.
func (s *AttemptService) Get(ctx context.Context, attemptID uuid.UUID, studentID int) (*model.AssessmentAttempt, []model.AssessmentAnswer, error) {
	attempt, err := s.attempts.GetByID(ctx, attemptID)
	if err != nil {
		return nil, nil, err
	}
	if attempt.StudentID != studentID {
		return nil, nil, ErrNotYourAttempt
	}

	answers, err := s.attempts.ListAnswers(ctx, attemptID)
	if err != nil {
		return nil, nil, err
	}
	return attempt, answers, nil
}

// ListMine returns the student's attempts for one assessment.
func (s *AttemptService) ListMine(ctx context.Context, assessmentID uuid.UUID, studentID int) ([]model.AssessmentAttempt, error) {
	return s.attempts.ListForStudent(ctx, assessmentID, studentID)
}
