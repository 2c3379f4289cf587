package handler

import (
	"errors"
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

// UploadHandler handles chunked video upload endpoints (staff only).
type UploadHandler struct {
	uploadService *service.UploadService
}

// NewUploadHandler creates a new UploadHandler.
func NewUploadHandler(uploadService *service.UploadService) *UploadHandler {
	return &UploadHandler{uploadService: uploadService}
}

// CreateSession godoc
// POST /api/v1/staff/uploads
func (h *UploadHandler) CreateSession(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.CreateUploadSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	session, err := h.uploadService.CreateSession(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"session": session})
}

// UploadChunk godoc
// PUT /api/v1/staff/uploads/:session_id/chunks/:chunk_number
// The chunk bytes are the raw request body.
func (h *UploadHandler) UploadChunk(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}
	chunkNumber, err := strconv.Atoi(c.Param("chunk_number"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidChunk)
		return
	}

	session, err := h.uploadService.ReceiveChunk(c.Request.Context(), sessionID, claims.UserID,
		chunkNumber, c.Request.ContentLength, c.Request.Body)
	if err != nil {
		h.failUpload(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"received": len(session.ReceivedChunks),
		"total":    session.TotalChunks,
		"missing":  session.MissingChunks(),
	})
}

// FinalizeUpload godoc
// POST /api/v1/staff/uploads/:session_id/finalize
// Verifies completeness, then queues assembly. If chunks are missing, the
// full missing list is returned in the error details.
func (h *UploadHandler) FinalizeUpload(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.uploadService.Finalize(c.Request.Context(), sessionID, claims.UserID); err != nil {
		h.failUpload(c, err)
		return
	}

	response.Success(c, http.StatusAccepted, gin.H{"status": "assembly_queued"})
}

// GetSession godoc
// GET /api/v1/staff/uploads/:session_id
func (h *UploadHandler) GetSession(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	session, err := h.uploadService.Get(c.Request.Context(), sessionID, claims.UserID)
	if err != nil {
		h.failUpload(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"session": session,
		"missing": session.MissingChunks(),
	})
}

// failUpload maps upload service errors to response codes.
func (h *UploadHandler) failUpload(c *gin.Context, err error) {
	var incomplete *service.IncompleteUploadError
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrNotYourSession):
		response.Fail(c, http.StatusForbidden, response.ErrForbidden)
	case errors.Is(err, service.ErrSessionNotOpen):
		response.Fail(c, http.StatusConflict, response.ErrInvalidSession)
	case errors.Is(err, service.ErrSessionExpired):
		response.Fail(c, http.StatusGone, response.ErrExpiredSession)
	case errors.Is(err, service.ErrChunkOutOfRange):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidChunk)
	case errors.Is(err, service.ErrChunkTooLarge):
		response.Fail(c, http.StatusRequestEntityTooLarge, response.ErrChunkTooLarge)
	case errors.As(err, &incomplete):
		response.FailWithDetails(c, http.StatusConflict, response.ErrIncompleteUpload,
			gin.H{"missing_chunks": incomplete.Missing})
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
