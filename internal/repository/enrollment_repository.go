package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EnrollmentRepository backs the enrollment, progress and completion lookups
// the attempt gate consults. The course catalog itself is managed elsewhere.
type EnrollmentRepository struct {
	pool *pgxpool.Pool
}

// NewEnrollmentRepository creates a new EnrollmentRepository.
func NewEnrollmentRepository(pool *pgxpool.Pool) *EnrollmentRepository {
	return &EnrollmentRepository{pool: pool}
}

// IsEnrolled reports whether the student is enrolled in the course.
func (r *EnrollmentRepository) IsEnrolled(ctx context.Context, studentID int, courseID uuid.UUID) (bool, error) {
	var enrolled bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM enrollments WHERE student_id = $1 AND course_id = $2)`,
		studentID, courseID,
	).Scan(&enrolled)
	return enrolled, err
}

// ProgressPercentage returns the student's course progress, 0 when not
// enrolled.
func (r *EnrollmentRepository) ProgressPercentage(ctx context.Context, studentID int, courseID uuid.UUID) (float64, error) {
	var progress float64
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(
		   (SELECT progress_percentage FROM enrollments WHERE student_id = $1 AND course_id = $2), 0)`,
		studentID, courseID,
	).Scan(&progress)
	return progress, err
}

// HasPassedAllQuizzes reports whether the student has a passing result for
// every quiz in the course. A course with no quizzes counts as passed.
func (r *EnrollmentRepository) HasPassedAllQuizzes(ctx context.Context, studentID int, courseID uuid.UUID) (bool, error) {
	var allPassed bool
	err := r.pool.QueryRow(ctx,
		`SELECT NOT EXISTS (
		   SELECT 1 FROM quizzes q
		   WHERE q.course_id = $2
		     AND NOT EXISTS (
		       SELECT 1 FROM quiz_results qr
		       WHERE qr.quiz_id = q.id AND qr.student_id = $1 AND qr.passed
		     )
		 )`,
		studentID, courseID,
	).Scan(&allPassed)
	return allPassed, err
}

// HasCompletedLessons reports whether the student has completed every one of
// the listed lessons.
func (r *EnrollmentRepository) HasCompletedLessons(ctx context.Context, studentID int, lessonIDs []uuid.UUID) (bool, error) {
	if len(lessonIDs) == 0 {
		return true, nil
	}
	var completed int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM lesson_completions
		 WHERE student_id = $1 AND lesson_id = ANY($2)`,
		studentID, lessonIDs,
	).Scan(&completed)
	if err != nil {
		return false, err
	}
	return completed == len(lessonIDs), nil
}
