package repository

import (
	"context"
	"errors"
	"time"

	"github.com/akademix/lms-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrSessionNotOpen is returned by guarded updates touching a session that
// is no longer in progress.
var ErrSessionNotOpen = errors.New("upload session is not open")

// UploadRepository handles upload session data access. The received chunk
// set lives in a Postgres int array; chunk bytes live on scratch disk.
type UploadRepository struct {
	pool *pgxpool.Pool
}

// NewUploadRepository creates a new UploadRepository.
func NewUploadRepository(pool *pgxpool.Pool) *UploadRepository {
	return &UploadRepository{pool: pool}
}

// Create inserts a new upload session.
func (r *UploadRepository) Create(ctx context.Context, s *model.UploadSession) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO upload_sessions (uploaded_by, filename, title, total_chunks, status, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		s.UploadedBy, s.Filename, s.Title, s.TotalChunks, model.UploadStatusInProgress, s.ExpiresAt,
	).Scan(&s.ID, &s.CreatedAt)
}

// GetByID retrieves an upload session.
func (r *UploadRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.UploadSession, error) {
	s := &model.UploadSession{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, uploaded_by, filename, title, total_chunks, received_chunks, status, created_at, expires_at
		 FROM upload_sessions
		 WHERE id = $1`, id,
	).Scan(&s.ID, &s.UploadedBy, &s.Filename, &s.Title, &s.TotalChunks, &s.ReceivedChunks, &s.Status, &s.CreatedAt, &s.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// RecordChunk adds a chunk number to the session's received set. Re-receiving
// a chunk is a no-op on the set (the bytes on disk are overwritten by the
// caller). Returns the updated set.
func (r *UploadRepository) RecordChunk(ctx context.Context, id uuid.UUID, chunkNumber int) ([]int, error) {
	var received []int
	err := r.pool.QueryRow(ctx,
		`UPDATE upload_sessions
		 SET received_chunks = CASE
		     WHEN $2 = ANY(received_chunks) THEN received_chunks
		     ELSE array_append(received_chunks, $2)
		   END
		 WHERE id = $1 AND status = $3
		 RETURNING received_chunks`,
		id, chunkNumber, model.UploadStatusInProgress,
	).Scan(&received)
	if err != nil {
		return nil, err
	}
	return received, nil
}

// SetStatus transitions an in-progress session to completed or failed.
func (r *UploadRepository) SetStatus(ctx context.Context, id uuid.UUID, status model.UploadStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE upload_sessions SET status = $2 WHERE id = $1 AND status = $3`,
		id, status, model.UploadStatusInProgress)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotOpen
	}
	return nil
}

// ListExpiredInProgress returns in-progress sessions whose TTL has elapsed,
// for the sweep worker to fail.
func (r *UploadRepository) ListExpiredInProgress(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id FROM upload_sessions WHERE status = $1 AND expires_at < $2`,
		model.UploadStatusInProgress, now)
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
