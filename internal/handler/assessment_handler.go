package handler

import (
	"errors"
	"net/http"

	"github.com/akademix/lms-backend/internal/middleware"
	"github.com/akademix/lms-backend/internal/model"
	"github.com/akademix/lms-backend/internal/response"
	"github.com/akademix/lms-backend/internal/service"
	"github.com/akademix/lms-backend/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// AssessmentHandler handles assessment authoring endpoints (staff only).
type AssessmentHandler struct {
	assessmentService *service.AssessmentService
}

// NewAssessmentHandler creates a new AssessmentHandler.
func NewAssessmentHandler(assessmentService *service.AssessmentService) *AssessmentHandler {
	return &AssessmentHandler{assessmentService: assessmentService}
}

// CreateAssessment godoc
// POST /api/v1/staff/assessments
func (h *AssessmentHandler) CreateAssessment(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.CreateAssessmentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	assessment, err := h.assessmentService.Create(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation,
			map[string]string{"detail": err.Error()})
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"assessment": assessment})
}

// GetAssessment godoc
// GET /api/v1/staff/assessments/:assessment_id
// Returns the assessment with full questions (answers included) and
// prerequisites.
func (h *AssessmentHandler) GetAssessment(c *gin.Context) {
	assessmentID, err := uuid.Parse(c.Param("assessment_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	assessment, questions, prereqs, err := h.assessmentService.Get(c.Request.Context(), assessmentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"assessment":    assessment,
		"questions":     questions,
		"prerequisites": prereqs,
	})
}

// ListAssessments godoc
// GET /api/v1/staff/courses/:course_id/assessments
func (h *AssessmentHandler) ListAssessments(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("course_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	assessments, err := h.assessmentService.ListByCourse(c.Request.Context(), courseID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"assessments": assessments})
}

// AddQuestion godoc
// POST /api/v1/staff/assessments/:assessment_id/questions
func (h *AssessmentHandler) AddQuestion(c *gin.Context) {
	assessmentID, err := uuid.Parse(c.Param("assessment_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.AddQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	question, err := h.assessmentService.AddQuestion(c.Request.Context(), assessmentID, &req)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidPayload,
			map[string]string{"detail": err.Error()})
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"question": question})
}

// AddPrerequisite godoc
// POST /api/v1/staff/assessments/:assessment_id/prerequisites
func (h *AssessmentHandler) AddPrerequisite(c *gin.Context) {
	assessmentID, err := uuid.Parse(c.Param("assessment_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.AddPrerequisiteRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	prereq, err := h.assessmentService.AddPrerequisite(c.Request.Context(), assessmentID, &req)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidPayload,
			map[string]string{"detail": err.Error()})
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"prerequisite": prereq})
}

// GetStats godoc
// GET /api/v1/staff/assessments/:assessment_id/stats
func (h *AssessmentHandler) GetStats(c *gin.Context) {
	assessmentID, err := uuid.Parse(c.Param("assessment_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	stats, err := h.assessmentService.Stats(c.Request.Context(), assessmentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"stats": stats})
}
