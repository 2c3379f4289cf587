package handler

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/akademix/lms-backend/internal/middleware"
	"github.com/akademix/lms-backend/internal/model"
	"github.com/akademix/lms-backend/internal/response"
	"github.com/akademix/lms-backend/internal/service"
	"github.com/akademix/lms-backend/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// GradingHandler handles the manual grading queue endpoints (staff only).
type GradingHandler struct {
	gradingService *service.GradingService
}

// NewGradingHandler creates a new GradingHandler.
func NewGradingHandler(gradingService *service.GradingService) *GradingHandler {
	return &GradingHandler{gradingService: gradingService}
}

// ListPending godoc
// GET /api/v1/staff/grading/pending
// Lists answers awaiting manual review, oldest submission first.
func (h *GradingHandler) ListPending(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	pending, total, err := h.gradingService.ListPending(c.Request.Context(), page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	pagination := &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: int(total),
		TotalPages: int(math.Ceil(float64(total) / float64(perPage))),
	}
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"pending": pending}, pagination)
}

// GradeAnswer godoc
// POST /api/v1/staff/grading/answers/:answer_id
// Applies a one-shot manual grade; reports whether the attempt finalized.
func (h *GradingHandler) GradeAnswer(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	answerID, err := uuid.Parse(c.Param("answer_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.GradeAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	outcome, err := h.gradingService.Grade(c.Request.Context(), answerID, claims.UserID, &req)
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, service.ErrAlreadyGraded):
			response.Fail(c, http.StatusConflict, response.ErrAlreadyGraded)
		case errors.Is(err, service.ErrPointsOutOfRange), errors.Is(err, service.ErrNotManualType):
			response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidGradingData,
				map[string]string{"detail": err.Error()})
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	data := gin.H{"attempt_finalized": outcome.AttemptFinalized}
	if outcome.AttemptFinalized {
		data["score"] = outcome.Summary.Score
		data["max_score"] = outcome.Summary.MaxScore
		data["percentage"] = outcome.Summary.Percentage
		data["passed"] = outcome.Summary.Passed
	}
	response.Success(c, http.StatusOK, data)
}
