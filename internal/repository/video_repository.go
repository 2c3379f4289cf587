package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/akademix/lms-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// VideoRepository handles video and per-quality rendition data access.
type VideoRepository struct {
	pool *pgxpool.Pool
}

// NewVideoRepository creates a new VideoRepository.
func NewVideoRepository(pool *pgxpool.Pool) *VideoRepository {
	return &VideoRepository{pool: pool}
}

// CommitAssembly applies the assembly pipeline's atomic commit: create the
// video record and mark the upload session completed, in one transaction.
// The unique constraint on upload_session_id makes the commit idempotent —
// a crashed-and-retried assembly finds the existing video instead of
// creating a duplicate.
func (r *VideoRepository) CommitAssembly(ctx context.Context, v *model.Video) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin assembly tx: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO videos (upload_session_id, title, source_path, status)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (upload_session_id) DO NOTHING
		 RETURNING id, created_at, updated_at`,
		v.UploadSessionID, v.Title, v.SourcePath, model.VideoStatusPending,
	).Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		// A previous run already committed — reuse its video record.
		err = tx.QueryRow(ctx,
			`SELECT id, source_path, created_at, updated_at FROM videos WHERE upload_session_id = $1`,
			v.UploadSessionID,
		).Scan(&v.ID, &v.SourcePath, &v.CreatedAt, &v.UpdatedAt)
	}
	if err != nil {
		return fmt.Errorf("insert video: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE upload_sessions SET status = $2 WHERE id = $1`,
		v.UploadSessionID, model.UploadStatusCompleted)
	if err != nil {
		return fmt.Errorf("complete session: %w", err)
	}

	return tx.Commit(ctx)
}

// GetByID retrieves a video.
func (r *VideoRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Video, error) {
	v := &model.Video{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, upload_session_id, title, source_path, duration_seconds, width, height,
		        codec, format, status, processing_progress, thumbnail_path, error_message,
		        created_at, updated_at
		 FROM videos
		 WHERE id = $1`, id,
	).Scan(&v.ID, &v.UploadSessionID, &v.Title, &v.SourcePath, &v.DurationSeconds, &v.Width, &v.Height,
		&v.Codec, &v.Format, &v.Status, &v.ProcessingProgress, &v.ThumbnailPath, &v.ErrorMessage,
		&v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// SetMetadata records the probed media metadata and moves the video to
// processing.
func (r *VideoRepository) SetMetadata(ctx context.Context, id uuid.UUID, duration float64, width, height int, codec, format string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE videos
		 SET duration_seconds = $2, width = $3, height = $4, codec = $5, format = $6,
		     status = $7, updated_at = NOW()
		 WHERE id = $1`,
		id, duration, width, height, codec, format, model.VideoStatusProcessing)
	return err
}

// MarkFailed records a terminal failure on the video itself, e.g. when
// metadata extraction fails before any rendition exists.
func (r *VideoRepository) MarkFailed(ctx context.Context, id uuid.UUID, message string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE videos
		 SET status = $2, error_message = $3, processing_progress = 100, updated_at = NOW()
		 WHERE id = $1`,
		id, model.VideoStatusFailed, message)
	return err
}

// SetThumbnail records the generated thumbnail path.
func (r *VideoRepository) SetThumbnail(ctx context.Context, id uuid.UUID, path string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE videos SET thumbnail_path = $2, updated_at = NOW() WHERE id = $1`,
		id, path)
	return err
}

// CreateQualities inserts one pending rendition row per target tier.
// Idempotent on retry via the (video_id, tier) unique constraint.
func (r *VideoRepository) CreateQualities(ctx context.Context, videoID uuid.UUID, tiers []model.QualityTier) error {
	for _, tier := range tiers {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO video_qualities (video_id, tier, status)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (video_id, tier) DO NOTHING`,
			videoID, tier, model.VideoStatusPending)
		if err != nil {
			return fmt.Errorf("insert quality %s: %w", tier, err)
		}
	}
	return nil
}

// GetQuality retrieves one rendition by video and tier.
func (r *VideoRepository) GetQuality(ctx context.Context, videoID uuid.UUID, tier model.QualityTier) (*model.VideoQuality, error) {
	q := &model.VideoQuality{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, video_id, tier, status, processing_progress, output_path,
		        file_size_bytes, error_message, attempts
		 FROM video_qualities
		 WHERE video_id = $1 AND tier = $2`, videoID, tier,
	).Scan(&q.ID, &q.VideoID, &q.Tier, &q.Status, &q.ProcessingProgress, &q.OutputPath,
		&q.FileSizeBytes, &q.ErrorMessage, &q.Attempts)
	if err != nil {
		return nil, err
	}
	return q, nil
}

// ListQualities retrieves all renditions of a video, lowest tier first.
func (r *VideoRepository) ListQualities(ctx context.Context, videoID uuid.UUID) ([]model.VideoQuality, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, video_id, tier, status, processing_progress, output_path,
		        file_size_bytes, error_message, attempts
		 FROM video_qualities
		 WHERE video_id = $1`, videoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var qualities []model.VideoQuality
	for rows.Next() {
		var q model.VideoQuality
		if err := rows.Scan(&q.ID, &q.VideoID, &q.Tier, &q.Status, &q.ProcessingProgress, &q.OutputPath,
			&q.FileSizeBytes, &q.ErrorMessage, &q.Attempts); err != nil {
			return nil, err
		}
		qualities = append(qualities, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	model.SortQualitiesByTier(qualities)
	return qualities, nil
}

// BeginQualityAttempt moves a rendition to processing and burns one attempt
// from its retry budget.
func (r *VideoRepository) BeginQualityAttempt(ctx context.Context, qualityID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE video_qualities
		 SET status = $2, processing_progress = 0, attempts = attempts + 1
		 WHERE id = $1`,
		qualityID, model.VideoStatusProcessing)
	return err
}

// UpdateQualityProgress records rendition progress. Progress only moves
// forward; stale updates from an out-of-order callback are dropped.
func (r *VideoRepository) UpdateQualityProgress(ctx context.Context, qualityID uuid.UUID, progress int) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE video_qualities
		 SET processing_progress = GREATEST(processing_progress, $2)
		 WHERE id = $1 AND status = $3`,
		qualityID, progress, model.VideoStatusProcessing)
	return err
}

// CompleteQuality records a successful rendition.
func (r *VideoRepository) CompleteQuality(ctx context.Context, qualityID uuid.UUID, outputPath string, fileSize int64) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE video_qualities
		 SET status = $2, processing_progress = 100, output_path = $3,
		     file_size_bytes = $4, error_message = NULL
		 WHERE id = $1`,
		qualityID, model.VideoStatusCompleted, outputPath, fileSize)
	return err
}

// FailQuality records a terminal rendition failure after the retry budget
// is exhausted, keeping the tool diagnostics for inspection.
func (r *VideoRepository) FailQuality(ctx context.Context, qualityID uuid.UUID, message string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE video_qualities
		 SET status = $2, error_message = $3
		 WHERE id = $1`,
		qualityID, model.VideoStatusFailed, message)
	return err
}

// FinalizeIfTerminal finalizes the video if and only if every rendition has
// reached a terminal state. The video row is locked for the duration of the
// check so two renditions finishing simultaneously cannot both (or neither)
// finalize: whichever transaction wins the lock sees all terminal rows and
// commits the final status; the other observes the already-terminal video
// and no-ops. Returns the video's current status and whether this call
// performed the finalization.
func (r *VideoRepository) FinalizeIfTerminal(ctx context.Context, videoID uuid.UUID) (model.VideoStatus, bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return "", false, fmt.Errorf("begin finalize tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var current model.VideoStatus
	err = tx.QueryRow(ctx,
		`SELECT status FROM videos WHERE id = $1 FOR UPDATE`, videoID,
	).Scan(&current)
	if err != nil {
		return "", false, fmt.Errorf("lock video: %w", err)
	}

	if current.Terminal() {
		return current, false, nil
	}

	rows, err := tx.Query(ctx,
		`SELECT id, video_id, tier, status, processing_progress, output_path,
		        file_size_bytes, error_message, attempts
		 FROM video_qualities
		 WHERE video_id = $1`, videoID)
	if err != nil {
		return "", false, err
	}
	var qualities []model.VideoQuality
	for rows.Next() {
		var q model.VideoQuality
		if err := rows.Scan(&q.ID, &q.VideoID, &q.Tier, &q.Status, &q.ProcessingProgress, &q.OutputPath,
			&q.FileSizeBytes, &q.ErrorMessage, &q.Attempts); err != nil {
			rows.Close()
			return "", false, err
		}
		qualities = append(qualities, q)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return "", false, err
	}

	final, ready := model.ResolveVideoStatus(qualities)
	if !ready {
		return current, false, nil
	}

	_, err = tx.Exec(ctx,
		`UPDATE videos
		 SET status = $2, processing_progress = 100, updated_at = NOW()
		 WHERE id = $1`,
		videoID, final)
	if err != nil {
		return "", false, fmt.Errorf("finalize video: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return "", false, fmt.Errorf("commit finalize tx: %w", err)
	}
	return final, true, nil
}
