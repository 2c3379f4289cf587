package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/akademix/lms-backend/internal/config"
	"github.com/akademix/lms-backend/internal/model"
	"github.com/akademix/lms-backend/internal/repository"
	"github.com/akademix/lms-backend/internal/storage"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Chunked upload errors.
var (
	ErrSessionExpired  = errors.New("upload session has expired")
	ErrSessionNotOpen  = errors.New("upload session is not open")
	ErrChunkOutOfRange = errors.New("chunk number out of range")
	ErrChunkTooLarge   = errors.New("chunk exceeds the maximum size")
	ErrNotYourSession  = errors.New("upload session belongs to another user")
)

// IncompleteUploadError reports exactly which chunks finalization found
// missing.
type IncompleteUploadError struct {
	Missing []int
}

func (e *IncompleteUploadError) Error() string {
	return fmt.Sprintf("upload incomplete: %d chunk(s) missing", len(e.Missing))
}

// AssembleJob is the queue payload handed to the assembly worker.
type AssembleJob struct {
	SessionID string `json:"session_id"`
}

// UploadService tracks chunked video uploads: session lifecycle, per-chunk
// receipt, and the finalization handoff to the assembly pipeline.
type UploadService struct {
	cfg     *config.Config
	rdb     *redis.Client
	uploads *repository.UploadRepository
	chunks  *storage.ChunkStore
	log     zerolog.Logger
}

// NewUploadService creates a new UploadService.
func NewUploadService(cfg *config.Config, rdb *redis.Client, uploads *repository.UploadRepository, chunks *storage.ChunkStore, log zerolog.Logger) *UploadService {
	return &UploadService{
		cfg:     cfg,
		rdb:     rdb,
		uploads: uploads,
		chunks:  chunks,
		log:     log.With().Str("component", "upload_service").Logger(),
	}
}

// CreateSession opens a chunked upload session with the configured TTL.
func (s *UploadService) CreateSession(ctx context.Context, uploadedBy int, req *model.CreateUploadSessionRequest) (*model.UploadSession, error) {
	session := &model.UploadSession{
		UploadedBy:  uploadedBy,
		Filename:    req.Filename,
		Title:       req.Title,
		TotalChunks: req.TotalChunks,
		Status:      model.UploadStatusInProgress,
		ExpiresAt:   time.Now().Add(s.cfg.UploadSessionTTL),
	}
	if err := s.uploads.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create upload session: %w", err)
	}

	s.log.Info().
		Str("session_id", session.ID.String()).
		Int("total_chunks", session.TotalChunks).
		Msg("upload session opened")

	return session, nil
}

// ReceiveChunk stores one chunk's bytes and records its receipt. Receiving
// the same chunk again overwrites the bytes and leaves the received set
// unchanged. Returns the session with its updated received set.
func (s *UploadService) ReceiveChunk(ctx context.Context, sessionID uuid.UUID, uploadedBy, chunkNumber int, size int64, r io.Reader) (*model.UploadSession, error) {
	session, err := s.uploads.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.UploadedBy != uploadedBy {
		return nil, ErrNotYourSession
	}
	if session.Status != model.UploadStatusInProgress {
		return nil, ErrSessionNotOpen
	}
	if session.Expired(time.Now()) {
		return nil, ErrSessionExpired
	}
	if chunkNumber < 0 || chunkNumber >= session.TotalChunks {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrChunkOutOfRange, chunkNumber, session.TotalChunks)
	}
	if size > s.cfg.MaxChunkBytes {
		return nil, ErrChunkTooLarge
	}

	// Bytes land on scratch disk first; only then is the chunk recorded
	// as received, so the tracker never claims bytes that aren't there.
	if _, err := s.chunks.SaveChunk(sessionID.String(), chunkNumber, io.LimitReader(r, s.cfg.MaxChunkBytes)); err != nil {
		return nil, fmt.Errorf("store chunk: %w", err)
	}

	received, err := s.uploads.RecordChunk(ctx, sessionID, chunkNumber)
	if err != nil {
		return nil, fmt.Errorf("record chunk: %w", err)
	}
	session.ReceivedChunks = received
	return session, nil
}

// Finalize verifies the session is complete and hands it to the assembly
// worker. The receipt tracker is cross-checked against the bytes actually
// on scratch disk; any gap fails finalization with the full missing list.
// The session stays in_progress until the worker's atomic commit.
func (s *UploadService) Finalize(ctx context.Context, sessionID uuid.UUID, uploadedBy int) error {
	session, err := s.uploads.GetByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.UploadedBy != uploadedBy {
		return ErrNotYourSession
	}
	if session.Status != model.UploadStatusInProgress {
		return ErrSessionNotOpen
	}
	if session.Expired(time.Now()) {
		return ErrSessionExpired
	}

	missing := session.MissingChunks()
	for _, n := range session.ReceivedChunks {
		if !s.chunks.HasChunk(sessionID.String(), n) {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return &IncompleteUploadError{Missing: missing}
	}

	job, err := json.Marshal(AssembleJob{SessionID: sessionID.String()})
	if err != nil {
		return fmt.Errorf("encode assemble job: %w", err)
	}
	if err := s.rdb.RPush(ctx, config.WorkerKey.AssembleUploadQueue, job).Err(); err != nil {
		return fmt.Errorf("enqueue assemble job: %w", err)
	}

	s.log.Info().Str("session_id", sessionID.String()).Msg("upload finalized, assembly queued")
	return nil
}

// Get returns an upload session for its owner.
func (s *UploadService) Get(ctx context.Context, sessionID uuid.UUID, uploadedBy int) (*model.UploadSession, error) {
	session, err := s.uploads.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.UploadedBy != uploadedBy {
		return nil, ErrNotYourSession
	}
	return session, nil
}
