package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/akademix/lms-backend/internal/config"
	"github.com/akademix/lms-backend/internal/model"
	"github.com/akademix/lms-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// AssessmentService handles assessment authoring: creation, question
// management, and prerequisite attachment.
type AssessmentService struct {
	rdb         *redis.Client
	assessments *repository.AssessmentRepository
	attempts    *repository.AttemptRepository
}

// NewAssessmentService creates a new AssessmentService.
func NewAssessmentService(rdb *redis.Client, assessments *repository.AssessmentRepository, attempts *repository.AttemptRepository) *AssessmentService {
	return &AssessmentService{rdb: rdb, assessments: assessments, attempts: attempts}
}

// Create validates and stores a new assessment. New assessments start
// active.
func (s *AssessmentService) Create(ctx context.Context, instructorID int, req *model.CreateAssessmentRequest) (*model.Assessment, error) {
	assessment := &model.Assessment{
		CourseID:         req.CourseID,
		Title:            req.Title,
		Description:      req.Description,
		TimeLimitMinutes: req.TimeLimitMinutes,
		PassingScore:     req.PassingScore,
		MaxAttempts:      req.MaxAttempts,
		StartDate:        req.StartDate,
		EndDate:          req.EndDate,
		IsActive:         true,
		CreatedBy:        instructorID,
	}
	if err := assessment.ValidateWindow(); err != nil {
		return nil, err
	}
	if err := s.assessments.Create(ctx, assessment); err != nil {
		return nil, fmt.Errorf("create assessment: %w", err)
	}
	return assessment, nil
}

// Get returns an assessment with its questions and prerequisites.
func (s *AssessmentService) Get(ctx context.Context, id uuid.UUID) (*model.Assessment, []model.Question, []model.AssessmentPrerequisite, error) {
	assessment, err := s.assessments.GetByID(ctx, id)
	if err != nil {
		return nil, nil, nil, err
	}
	questions, err := s.assessments.ListQuestions(ctx, id)
	if err != nil {
		return nil, nil, nil, err
	}
	prereqs, err := s.assessments.ListPrerequisites(ctx, id)
	if err != nil {
		return nil, nil, nil, err
	}
	return assessment, questions, prereqs, nil
}

// ListByCourse returns a course's assessments.
func (s *AssessmentService) ListByCourse(ctx context.Context, courseID uuid.UUID) ([]model.Assessment, error) {
	return s.assessments.ListByCourse(ctx, courseID)
}

// AddQuestion validates the type-shaped payload and appends a question.
// The malformed-payload check runs here so bad data never reaches grading.
func (s *AssessmentService) AddQuestion(ctx context.Context, assessmentID uuid.UUID, req *model.AddQuestionRequest) (*model.Question, error) {
	if _, err := s.assessments.GetByID(ctx, assessmentID); err != nil {
		return nil, err
	}

	question := &model.Question{
		AssessmentID: assessmentID,
		QuestionType: model.QuestionType(req.QuestionType),
		QuestionText: req.QuestionText,
		Payload:      req.Payload,
		Points:       req.Points,
		OrderNum:     req.OrderNum,
	}
	if question.Payload == nil {
		question.Payload = json.RawMessage(`{}`)
	}
	if err := question.ValidatePayload(); err != nil {
		return nil, err
	}

	if err := s.assessments.AddQuestion(ctx, question); err != nil {
		return nil, fmt.Errorf("add question: %w", err)
	}

	s.invalidateQuestionCache(ctx, assessmentID)
	return question, nil
}

// AddPrerequisite validates and attaches a prerequisite gate.
func (s *AssessmentService) AddPrerequisite(ctx context.Context, assessmentID uuid.UUID, req *model.AddPrerequisiteRequest) (*model.AssessmentPrerequisite, error) {
	if _, err := s.assessments.GetByID(ctx, assessmentID); err != nil {
		return nil, err
	}

	prereq := &model.AssessmentPrerequisite{
		AssessmentID:     assessmentID,
		PrerequisiteType: model.PrerequisiteType(req.PrerequisiteType),
		Data:             req.Data,
	}
	if prereq.Data == nil {
		prereq.Data = json.RawMessage(`{}`)
	}

	// Decode once up front so malformed data fails here, not at the
	// start gate.
	switch prereq.PrerequisiteType {
	case model.PrerequisiteMinimumProgress:
		if _, err := prereq.DecodeMinimumProgress(); err != nil {
			return nil, err
		}
	case model.PrerequisiteLessonCompletion:
		if _, err := prereq.DecodeLessonCompletion(); err != nil {
			return nil, err
		}
	}

	if err := s.assessments.AddPrerequisite(ctx, prereq); err != nil {
		return nil, fmt.Errorf("add prerequisite: %w", err)
	}
	return prereq, nil
}

// Stats returns the attempt and per-question rollup for an assessment.
func (s *AssessmentService) Stats(ctx context.Context, assessmentID uuid.UUID) (*repository.AssessmentStats, error) {
	if _, err := s.assessments.GetByID(ctx, assessmentID); err != nil {
		return nil, err
	}
	return s.attempts.Stats(ctx, assessmentID)
}

func (s *AssessmentService) invalidateQuestionCache(ctx context.Context, assessmentID uuid.UUID) {
	_ = s.rdb.Del(ctx, config.CacheKey.AssessmentQuestionsKey(assessmentID.String())).Err()
}
