package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/akademix/lms-backend/internal/config"
	"github.com/akademix/lms-backend/internal/media"
	"github.com/akademix/lms-backend/internal/repository"
	"github.com/akademix/lms-backend/internal/storage"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const thumbnailPollTimeout = 1 * time.Second

// ThumbnailWorker extracts a single poster frame per video. Thumbnails are
// best effort: a failure is logged and swallowed, never affecting the
// video's pipeline state.
type ThumbnailWorker struct {
	cfg    *config.Config
	rdb    *redis.Client
	videos *repository.VideoRepository
	blob   storage.BlobStore
	tool   media.Tool
	log    zerolog.Logger
}

// NewThumbnailWorker creates a new ThumbnailWorker.
func NewThumbnailWorker(
	cfg *config.Config,
	rdb *redis.Client,
	videos *repository.VideoRepository,
	blob storage.BlobStore,
	tool media.Tool,
	log zerolog.Logger,
) *ThumbnailWorker {
	return &ThumbnailWorker{
		cfg:    cfg,
		rdb:    rdb,
		videos: videos,
		blob:   blob,
		tool:   tool,
		log:    log.With().Str("component", "thumbnail_worker").Logger(),
	}
}

// Start runs the consume loop until ctx is cancelled.
func (w *ThumbnailWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ThumbnailWorker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("ThumbnailWorker stopped")
			return
		default:
			item, err := w.rdb.BLPop(ctx, thumbnailPollTimeout, config.WorkerKey.ThumbnailQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}
			if len(item) < 2 {
				continue
			}

			var job ThumbnailJob
			if err := json.Unmarshal([]byte(item[1]), &job); err != nil {
				w.log.Error().Err(err).Msg("invalid thumbnail job payload")
				continue
			}

			if err := w.process(ctx, &job); err != nil && ctx.Err() == nil {
				w.log.Warn().Err(err).Str("video_id", job.VideoID).Msg("thumbnail skipped")
			}
		}
	}
}

func (w *ThumbnailWorker) process(ctx context.Context, job *ThumbnailJob) error {
	videoID, err := uuid.Parse(job.VideoID)
	if err != nil {
		return fmt.Errorf("parse video id: %w", err)
	}

	workDir, err := os.MkdirTemp(w.cfg.ChunkScratchDir, "thumb-*")
	if err != nil {
		return fmt.Errorf("create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	localIn := filepath.Join(workDir, "source")
	if err := w.blob.GetFile(ctx, job.SourcePath, localIn); err != nil {
		return fmt.Errorf("fetch source: %w", err)
	}

	// Grab the frame a tenth of the way in; skips black lead-ins on short
	// clips without seeking past tiny sources.
	at := job.DurationSeconds / 10
	localOut := filepath.Join(workDir, "thumb.jpg")
	if err := w.tool.Thumbnail(localIn, localOut, at); err != nil {
		return err
	}

	thumbKey := fmt.Sprintf("videos/%s/thumbnail.jpg", videoID)
	if err := w.blob.PutFile(ctx, thumbKey, localOut, "image/jpeg"); err != nil {
		return fmt.Errorf("upload thumbnail: %w", err)
	}

	if err := w.videos.SetThumbnail(ctx, videoID, thumbKey); err != nil {
		return fmt.Errorf("store thumbnail path: %w", err)
	}

	w.log.Info().Str("video_id", job.VideoID).Msg("thumbnail stored")
	return nil
}
