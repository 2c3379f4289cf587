package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/akademix/lms-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Guard errors for state-machine transitions. A guarded UPDATE that matches
// zero rows means the row was not in the state the transition requires.
var (
	ErrAttemptNotInProgress = errors.New("attempt is not in progress")
	ErrAnswerNotPending     = errors.New("answer is not pending review")
)

// AttemptRepository handles attempt and answer data access. The submit and
// manual-grade paths run as single transactions so the attempt's aggregate
// score can never go out of step with its answers' earned points.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

// CountForStudent returns how many attempts the student already has for the
// assessment, regardless of their state.
func (r *AttemptRepository) CountForStudent(ctx context.Context, assessmentID uuid.UUID, studentID int) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM assessment_attempts
		 WHERE assessment_id = $1 AND student_id = $2`, assessmentID, studentID,
	).Scan(&count)
	return count, err
}

// Create inserts a new in-progress attempt. The unique constraint on
// (assessment_id, student_id, attempt_number) rejects concurrent starts
// racing for the same attempt number.
func (r *AttemptRepository) Create(ctx context.Context, a *model.AssessmentAttempt) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO assessment_attempts (assessment_id, student_id, attempt_number, status)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, start_time`,
		a.AssessmentID, a.StudentID, a.AttemptNumber, model.AttemptStatusInProgress,
	).Scan(&a.ID, &a.StartTime)
}

// GetByID retrieves an attempt.
func (r *AttemptRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.AssessmentAttempt, error) {
	a := &model.AssessmentAttempt{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, assessment_id, student_id, attempt_number, status, start_time,
		        completion_time, time_taken_seconds, score, max_score, percentage, passed
		 FROM assessment_attempts
		 WHERE id = $1`, id,
	).Scan(&a.ID, &a.AssessmentID, &a.StudentID, &a.AttemptNumber, &a.Status, &a.StartTime,
		&a.CompletionTime, &a.TimeTakenSeconds, &a.Score, &a.MaxScore, &a.Percentage, &a.Passed)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// ListForStudent retrieves a student's attempts for one assessment, newest
// first.
func (r *AttemptRepository) ListForStudent(ctx context.Context, assessmentID uuid.UUID, studentID int) ([]model.AssessmentAttempt, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, assessment_id, student_id, attempt_number, status, start_time,
		        completion_time, time_taken_seconds, score, max_score, percentage, passed
		 FROM assessment_attempts
		 WHERE assessment_id = $1 AND student_id = $2
		 ORDER BY attempt_number DESC`, assessmentID, studentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAttempts(rows)
}

// ListAnswers retrieves all answers for an attempt.
func (r *AttemptRepository) ListAnswers(ctx context.Context, attemptID uuid.UUID) ([]model.AssessmentAnswer, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, attempt_id, question_id, answer, is_correct, points_earned,
		        grading_status, grader_feedback, graded_by, graded_at
		 FROM assessment_answers
		 WHERE attempt_id = $1`, attemptID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAnswers(rows)
}

// Submit persists the attempt's terminal submission state and all its
// answers as one atomic unit. The attempt must still be in progress;
// ErrAttemptNotInProgress is returned otherwise and nothing is written.
func (r *AttemptRepository) Submit(ctx context.Context, a *model.AssessmentAttempt, answers []model.AssessmentAnswer) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin submit tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE assessment_attempts
		 SET status = $2, completion_time = $3, time_taken_seconds = $4,
		     score = $5, max_score = $6, percentage = $7, passed = $8
		 WHERE id = $1 AND status = $9`,
		a.ID, a.Status, a.CompletionTime, a.TimeTakenSeconds,
		a.Score, a.MaxScore, a.Percentage, a.Passed, model.AttemptStatusInProgress)
	if err != nil {
		return fmt.Errorf("update attempt: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAttemptNotInProgress
	}

	for i := range answers {
		ans := &answers[i]
		err := tx.QueryRow(ctx,
			`INSERT INTO assessment_answers (attempt_id, question_id, answer, is_correct,
			                                 points_earned, grading_status)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 RETURNING id`,
			ans.AttemptID, ans.QuestionID, ans.Answer, ans.IsCorrect,
			ans.PointsEarned, ans.GradingStatus,
		).Scan(&ans.ID)
		if err != nil {
			return fmt.Errorf("insert answer: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// MarkTimedOut transitions an in-progress attempt to timed_out without
// persisting any answers or score. Used by the sweep worker and by a live
// submission that arrives past the deadline.
func (r *AttemptRepository) MarkTimedOut(ctx context.Context, attemptID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE assessment_attempts
		 SET status = $2, completion_time = NOW(),
		     time_taken_seconds = EXTRACT(EPOCH FROM (NOW() - start_time))::int
		 WHERE id = $1 AND status = $3`,
		attemptID, model.AttemptStatusTimedOut, model.AttemptStatusInProgress)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAttemptNotInProgress
	}
	return nil
}

// ListExpiredInProgress returns the ids of in-progress attempts whose
// deadline has passed, for the sweep worker to time out.
func (r *AttemptRepository) ListExpiredInProgress(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT a.id
		 FROM assessment_attempts a
		 JOIN assessments s ON s.id = a.assessment_id
		 WHERE a.status = $1
		   AND a.start_time + make_interval(mins => s.time_limit_minutes) < $2`,
		model.AttemptStatusInProgress, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AnswerContext is an answer joined with the grading context a manual grade
// needs: the question's point cap and the owning attempt.
type AnswerContext struct {
	Answer       model.AssessmentAnswer
	AttemptID    uuid.UUID
	QuestionMax  float64
	QuestionType model.QuestionType
}

// GetAnswerContext retrieves one answer with its question's point cap.
func (r *AttemptRepository) GetAnswerContext(ctx context.Context, answerID uuid.UUID) (*AnswerContext, error) {
	ac := &AnswerContext{}
	a := &ac.Answer
	err := r.pool.QueryRow(ctx,
		`SELECT ans.id, ans.attempt_id, ans.question_id, ans.answer, ans.is_correct,
		        ans.points_earned, ans.grading_status, ans.grader_feedback, ans.graded_by, ans.graded_at,
		        q.points, q.question_type
		 FROM assessment_answers ans
		 JOIN assessment_questions q ON q.id = ans.question_id
		 WHERE ans.id = $1`, answerID,
	).Scan(&a.ID, &a.AttemptID, &a.QuestionID, &a.Answer, &a.IsCorrect,
		&a.PointsEarned, &a.GradingStatus, &a.GraderFeedback, &a.GradedBy, &a.GradedAt,
		&ac.QuestionMax, &ac.QuestionType)
	if err != nil {
		return nil, err
	}
	ac.AttemptID = a.AttemptID
	return ac, nil
}

// GradeOutcome reports the attempt-level effect of one manual grade.
type GradeOutcome struct {
	AttemptFinalized bool
	Summary          model.ScoreSummary
}

// ApplyGrade records a manual grade on one answer and recomputes the parent
// attempt inside a single transaction. The attempt row is locked first so
// concurrent grades on sibling answers serialize; the answer update is
// guarded on pending_review, making grading one-shot. When the grade was the
// last one outstanding, the attempt flips from grading_pending to completed
// with its final score.
func (r *AttemptRepository) ApplyGrade(ctx context.Context, answerID uuid.UUID, pointsEarned float64, feedback *string, gradedBy int) (*GradeOutcome, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin grade tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var attemptID, assessmentID uuid.UUID
	var status model.AttemptStatus
	var passingScore float64
	err = tx.QueryRow(ctx,
		`SELECT a.id, a.assessment_id, a.status, s.passing_score
		 FROM assessment_answers ans
		 JOIN assessment_attempts a ON a.id = ans.attempt_id
		 JOIN assessments s ON s.id = a.assessment_id
		 WHERE ans.id = $1
		 FOR UPDATE OF a`, answerID,
	).Scan(&attemptID, &assessmentID, &status, &passingScore)
	if err != nil {
		return nil, fmt.Errorf("lock attempt: %w", err)
	}

	tag, err := tx.Exec(ctx,
		`UPDATE assessment_answers
		 SET points_earned = $2, grading_status = $3, grader_feedback = $4,
		     graded_by = $5, graded_at = NOW()
		 WHERE id = $1 AND grading_status = $6`,
		answerID, pointsEarned, model.GradingStatusManuallyGraded, feedback,
		gradedBy, model.GradingStatusPendingReview)
	if err != nil {
		return nil, fmt.Errorf("update answer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrAnswerNotPending
	}

	questions, err := r.listQuestionsTx(ctx, tx, assessmentID)
	if err != nil {
		return nil, err
	}
	answers, err := r.listAnswersTx(ctx, tx, attemptID)
	if err != nil {
		return nil, err
	}

	outcome := &GradeOutcome{
		Summary: model.AggregateScore(questions, answers, passingScore),
	}

	if outcome.Summary.Complete && status == model.AttemptStatusGradingPending {
		_, err = tx.Exec(ctx,
			`UPDATE assessment_attempts
			 SET status = $2, score = $3, max_score = $4, percentage = $5, passed = $6
			 WHERE id = $1`,
			attemptID, model.AttemptStatusCompleted,
			outcome.Summary.Score, outcome.Summary.MaxScore,
			outcome.Summary.Percentage, outcome.Summary.Passed)
		if err != nil {
			return nil, fmt.Errorf("finalize attempt: %w", err)
		}
		outcome.AttemptFinalized = true
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit grade tx: %w", err)
	}
	return outcome, nil
}

// ListPendingAnswers retrieves answers awaiting manual review across all
// assessments, oldest submission first.
func (r *AttemptRepository) ListPendingAnswers(ctx context.Context, page, perPage int) ([]model.PendingAnswer, int64, error) {
	var total int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM assessment_answers WHERE grading_status = $1`,
		model.GradingStatusPendingReview,
	).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * perPage
	rows, err := r.pool.Query(ctx,
		`SELECT ans.id, ans.attempt_id, s.id, s.title, a.student_id, st.name,
		        q.id, q.question_type, q.question_text,
		        COALESCE(q.payload->>'grading_rubric', ''), q.points,
		        COALESCE(ans.answer->>'text', ''), a.completion_time
		 FROM assessment_answers ans
		 JOIN assessment_attempts a ON a.id = ans.attempt_id
		 JOIN assessments s ON s.id = a.assessment_id
		 JOIN assessment_questions q ON q.id = ans.question_id
		 JOIN students st ON st.id = a.student_id
		 WHERE ans.grading_status = $1
		 ORDER BY a.completion_time ASC
		 LIMIT $2 OFFSET $3`,
		model.GradingStatusPendingReview, perPage, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var pending []model.PendingAnswer
	for rows.Next() {
		var p model.PendingAnswer
		if err := rows.Scan(&p.AnswerID, &p.AttemptID, &p.AssessmentID, &p.AssessmentName,
			&p.StudentID, &p.StudentName, &p.QuestionID, &p.QuestionType, &p.QuestionText,
			&p.GradingRubric, &p.MaxPoints, &p.AnswerText, &p.SubmittedAt); err != nil {
			return nil, 0, err
		}
		pending = append(pending, p)
	}
	return pending, total, rows.Err()
}

// AssessmentStats is the read-side rollup for one assessment.
type AssessmentStats struct {
	AssessmentID   uuid.UUID       `json:"assessment_id"`
	AttemptCount   int64           `json:"attempt_count"`
	CompletedCount int64           `json:"completed_count"`
	AverageScore   *float64        `json:"average_score,omitempty"`
	PassRate       *float64        `json:"pass_rate,omitempty"`
	Questions      []QuestionStats `json:"questions"`
}

// QuestionStats aggregates per-question answer outcomes.
type QuestionStats struct {
	QuestionID    uuid.UUID `json:"question_id"`
	AnswerCount   int64     `json:"answer_count"`
	CorrectCount  int64     `json:"correct_count"`
	AveragePoints *float64  `json:"average_points,omitempty"`
}

// Stats computes attempt and per-question statistics for an assessment.
func (r *AttemptRepository) Stats(ctx context.Context, assessmentID uuid.UUID) (*AssessmentStats, error) {
	stats := &AssessmentStats{AssessmentID: assessmentID}

	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE status = 'completed'),
		        AVG(score) FILTER (WHERE status = 'completed'),
		        AVG(CASE WHEN passed THEN 1.0 ELSE 0.0 END) FILTER (WHERE status = 'completed')
		 FROM assessment_attempts
		 WHERE assessment_id = $1`, assessmentID,
	).Scan(&stats.AttemptCount, &stats.CompletedCount, &stats.AverageScore, &stats.PassRate)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT q.id,
		        COUNT(ans.id),
		        COUNT(ans.id) FILTER (WHERE ans.is_correct),
		        AVG(ans.points_earned)
		 FROM assessment_questions q
		 LEFT JOIN assessment_answers ans ON ans.question_id = q.id
		 WHERE q.assessment_id = $1
		 GROUP BY q.id, q.order_num
		 ORDER BY q.order_num ASC`, assessmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var qs QuestionStats
		if err := rows.Scan(&qs.QuestionID, &qs.AnswerCount, &qs.CorrectCount, &qs.AveragePoints); err != nil {
			return nil, err
		}
		stats.Questions = append(stats.Questions, qs)
	}
	return stats, rows.Err()
}

// ────────────────────────────────────────────────────────────────────────────
// Internal helpers
// ────────────────────────────────────────────────────────────────────────────

func (r *AttemptRepository) listQuestionsTx(ctx context.Context, tx pgx.Tx, assessmentID uuid.UUID) ([]model.Question, error) {
	rows, err := tx.Query(ctx,
		`SELECT id, assessment_id, question_type, question_text, payload, points, order_num
		 FROM assessment_questions
		 WHERE assessment_id = $1
		 ORDER BY order_num ASC`, assessmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.AssessmentID, &q.QuestionType, &q.QuestionText, &q.Payload, &q.Points, &q.OrderNum); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

func (r *AttemptRepository) listAnswersTx(ctx context.Context, tx pgx.Tx, attemptID uuid.UUID) ([]model.AssessmentAnswer, error) {
	rows, err := tx.Query(ctx,
		`SELECT id, attempt_id, question_id, answer, is_correct, points_earned,
		        grading_status, grader_feedback, graded_by, graded_at
		 FROM assessment_answers
		 WHERE attempt_id = $1`, attemptID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAnswers(rows)
}

func scanAttempts(rows pgx.Rows) ([]model.AssessmentAttempt, error) {
	var attempts []model.AssessmentAttempt
	for rows.Next() {
		var a model.AssessmentAttempt
		if err := rows.Scan(&a.ID, &a.AssessmentID, &a.StudentID, &a.AttemptNumber, &a.Status, &a.StartTime,
			&a.CompletionTime, &a.TimeTakenSeconds, &a.Score, &a.MaxScore, &a.Percentage, &a.Passed); err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

func scanAnswers(rows pgx.Rows) ([]model.AssessmentAnswer, error) {
	var answers []model.AssessmentAnswer
	for rows.Next() {
		var a model.AssessmentAnswer
		if err := rows.Scan(&a.ID, &a.AttemptID, &a.QuestionID, &a.Answer, &a.IsCorrect, &a.PointsEarned,
			&a.GradingStatus, &a.GraderFeedback, &a.GradedBy, &a.GradedAt); err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}
