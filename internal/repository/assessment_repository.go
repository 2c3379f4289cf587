package repository

import (
	"context"

	"github.com/akademix/lms-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AssessmentRepository handles assessment, question and prerequisite data
// access.
type AssessmentRepository struct {
	pool *pgxpool.Pool
}

// NewAssessmentRepository creates a new AssessmentRepository.
func NewAssessmentRepository(pool *pgxpool.Pool) *AssessmentRepository {
	return &AssessmentRepository{pool: pool}
}

// Create inserts a new assessment.
func (r *AssessmentRepository) Create(ctx context.Context, a *model.Assessment) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO assessments (course_id, title, description, time_limit_minutes, passing_score,
		                          max_attempts, start_date, end_date, is_active, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id, created_at, updated_at`,
		a.CourseID, a.Title, a.Description, a.TimeLimitMinutes, a.PassingScore,
		a.MaxAttempts, a.StartDate, a.EndDate, a.IsActive, a.CreatedBy,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
}

// GetByID retrieves an assessment.
func (r *AssessmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Assessment, error) {
	a := &model.Assessment{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, course_id, title, description, time_limit_minutes, passing_score,
		        max_attempts, start_date, end_date, is_active, created_by, created_at, updated_at
		 FROM assessments
		 WHERE id = $1`, id,
	).Scan(&a.ID, &a.CourseID, &a.Title, &a.Description, &a.TimeLimitMinutes, &a.PassingScore,
		&a.MaxAttempts, &a.StartDate, &a.EndDate, &a.IsActive, &a.CreatedBy, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// ListByCourse retrieves all assessments for a course, newest first.
func (r *AssessmentRepository) ListByCourse(ctx context.Context, courseID uuid.UUID) ([]model.Assessment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, course_id, title, description, time_limit_minutes, passing_score,
		        max_attempts, start_date, end_date, is_active, created_by, created_at, updated_at
		 FROM assessments
		 WHERE course_id = $1
		 ORDER BY created_at DESC`, courseID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assessments []model.Assessment
	for rows.Next() {
		var a model.Assessment
		if err := rows.Scan(&a.ID, &a.CourseID, &a.Title, &a.Description, &a.TimeLimitMinutes, &a.PassingScore,
			&a.MaxAttempts, &a.StartDate, &a.EndDate, &a.IsActive, &a.CreatedBy, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		assessments = append(assessments, a)
	}
	return assessments, rows.Err()
}

// AddQuestion inserts a question into an assessment.
func (r *AssessmentRepository) AddQuestion(ctx context.Context, q *model.Question) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO assessment_questions (assessment_id, question_type, question_text, payload, points, order_num)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		q.AssessmentID, q.QuestionType, q.QuestionText, q.Payload, q.Points, q.OrderNum,
	).Scan(&q.ID)
}

// ListQuestions retrieves an assessment's questions in display order.
func (r *AssessmentRepository) ListQuestions(ctx context.Context, assessmentID uuid.UUID) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, assessment_id, question_type, question_text, payload, points, order_num
		 FROM assessment_questions
		 WHERE assessment_id = $1
		 ORDER BY order_num ASC`, assessmentID,
	)
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

// AddPrerequisite attaches a prerequisite to an assessment.
func (r *AssessmentRepository) AddPrerequisite(ctx context.Context, p *model.AssessmentPrerequisite) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO assessment_prerequisites (assessment_id, prerequisite_type, prerequisite_data)
		 VALUES ($1, $2, $3)
		 RETURNING id`,
		p.AssessmentID, p.PrerequisiteType, p.Data,
	).Scan(&p.ID)
}

// ListPrerequisites retrieves an assessment's prerequisites.
func (r *AssessmentRepository) ListPrerequisites(ctx context.Context, assessmentID uuid.UUID) ([]model.AssessmentPrerequisite, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, assessment_id, prerequisite_type, prerequisite_data
		 FROM assessment_prerequisites
		 WHERE assessment_id = $1`, assessmentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var prereqs []model.AssessmentPrerequisite
	for rows.Next() {
		var p model.AssessmentPrerequisite
		if err := rows.Scan(&p.ID, &p.AssessmentID, &p.PrerequisiteType, &p.Data); err != nil {
			return nil, err
		}
		prereqs = append(prereqs, p)
	}
	return prereqs, rows.Err()
}
