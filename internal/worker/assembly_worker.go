package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/akademix/lms-backend/internal/config"
	"github.com/akademix/lms-backend/internal/media"
	"github.com/akademix/lms-backend/internal/model"
	"github.com/akademix/lms-backend/internal/repository"
	"github.com/akademix/lms-backend/internal/service"
	"github.com/akademix/lms-backend/internal/storage"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const assemblyPollTimeout = 1 * time.Second

// TranscodeJob is the queue payload for one per-tier transcode unit.
type TranscodeJob struct {
	VideoID string            `json:"video_id"`
	Tier    model.QualityTier `json:"tier"`
}

// ThumbnailJob is the queue payload for best-effort thumbnail extraction.
type ThumbnailJob struct {
	VideoID         string  `json:"video_id"`
	SourcePath      string  `json:"source_path"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// AssemblyWorker consumes finalized upload sessions: it concatenates the
// chunks into the source file, pushes it to the blob store, commits the
// video record atomically with the session completion, probes metadata,
// and fans the video out to the transcode and thumbnail queues.
type AssemblyWorker struct {
	cfg     *config.Config
	rdb     *redis.Client
	uploads *repository.UploadRepository
	videos  *repository.VideoRepository
	chunks  *storage.ChunkStore
	blob    storage.BlobStore
	tool    media.Tool
	log     zerolog.Logger
}

// NewAssemblyWorker creates a new AssemblyWorker.
func NewAssemblyWorker(
	cfg *config.Config,
	rdb *redis.Client,
	uploads *repository.UploadRepository,
	videos *repository.VideoRepository,
	chunks *storage.ChunkStore,
	blob storage.BlobStore,
	tool media.Tool,
	log zerolog.Logger,
) *AssemblyWorker {
	return &AssemblyWorker{
		cfg:     cfg,
		rdb:     rdb,
		uploads: uploads,
		videos:  videos,
		chunks:  chunks,
		blob:    blob,
		tool:    tool,
		log:     log.With().Str("component", "assembly_worker").Logger(),
	}
}

// Start runs the consume loop until ctx is cancelled.
func (w *AssemblyWorker) Start(ctx context.Context) {
	w.log.Info().Msg("AssemblyWorker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("AssemblyWorker stopped")
			return
		default:
			item, err := w.rdb.BLPop(ctx, assemblyPollTimeout, config.WorkerKey.AssembleUploadQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}
			if len(item) < 2 {
				continue
			}

			var job service.AssembleJob
			if err := json.Unmarshal([]byte(item[1]), &job); err != nil {
				w.log.Error().Err(err).Msg("invalid assemble job payload")
				continue
			}

			if err := w.process(ctx, job.SessionID); err != nil {
				w.log.Error().Err(err).Str("session_id", job.SessionID).Msg("assembly failed")
			}
		}
	}
}

// process runs one session through assembly. Failures before the atomic
// commit mark the session failed and keep the chunks on scratch disk for
// inspection; failures after the commit mark the video failed.
func (w *AssemblyWorker) process(ctx context.Context, rawSessionID string) error {
	sessionID, err := uuid.Parse(rawSessionID)
	if err != nil {
		return fmt.Errorf("parse session id: %w", err)
	}

	session, err := w.uploads.GetByID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if session.Status == model.UploadStatusFailed {
		w.log.Warn().Str("session_id", rawSessionID).Msg("session already failed, skipping")
		return nil
	}

	if missing := session.MissingChunks(); len(missing) > 0 {
		w.failSession(ctx, sessionID)
		return fmt.Errorf("session has %d missing chunk(s)", len(missing))
	}

	assembledPath, err := w.chunks.Assemble(rawSessionID, session.TotalChunks)
	if err != nil {
		w.failSession(ctx, sessionID)
		return fmt.Errorf("assemble chunks: %w", err)
	}

	// The object key is derived from the session id, so re-running a
	// crashed job overwrites the same object instead of leaking copies.
	sourceKey := fmt.Sprintf("videos/%s/source%s", rawSessionID, filepath.Ext(session.Filename))
	if err := w.blob.PutFile(ctx, sourceKey, assembledPath, "video/mp4"); err != nil {
		w.failSession(ctx, sessionID)
		return fmt.Errorf("upload source: %w", err)
	}

	video := &model.Video{
		UploadSessionID: sessionID,
		Title:           session.Title,
		SourcePath:      sourceKey,
	}
	if err := w.videos.CommitAssembly(ctx, video); err != nil {
		w.failSession(ctx, sessionID)
		return fmt.Errorf("commit assembly: %w", err)
	}

	w.log.Info().
		Str("session_id", rawSessionID).
		Str("video_id", video.ID.String()).
		Msg("assembly committed")

	// Probe before the scratch cleanup; the assembled file is the only
	// local copy.
	meta, err := w.tool.Probe(assembledPath)
	if err != nil {
		if markErr := w.videos.MarkFailed(ctx, video.ID, err.Error()); markErr != nil {
			w.log.Error().Err(markErr).Str("video_id", video.ID.String()).Msg("mark video failed")
		}
		_ = w.chunks.RemoveSession(rawSessionID)
		return fmt.Errorf("probe source: %w", err)
	}

	if err := w.videos.SetMetadata(ctx, video.ID, meta.DurationSeconds, meta.Width, meta.Height, meta.Codec, meta.Format); err != nil {
		return fmt.Errorf("store metadata: %w", err)
	}

	tiers := model.TargetTiers(meta.Height)
	if err := w.videos.CreateQualities(ctx, video.ID, tiers); err != nil {
		return fmt.Errorf("create qualities: %w", err)
	}

	for _, tier := range tiers {
		raw, _ := json.Marshal(TranscodeJob{VideoID: video.ID.String(), Tier: tier})
		if err := w.rdb.RPush(ctx, config.WorkerKey.TranscodeQueue, raw).Err(); err != nil {
			return fmt.Errorf("enqueue transcode %s: %w", tier, err)
		}
	}

	raw, _ := json.Marshal(ThumbnailJob{
		VideoID:         video.ID.String(),
		SourcePath:      sourceKey,
		DurationSeconds: meta.DurationSeconds,
	})
	if err := w.rdb.RPush(ctx, config.WorkerKey.ThumbnailQueue, raw).Err(); err != nil {
		w.log.Warn().Err(err).Msg("enqueue thumbnail failed")
	}

	if err := w.chunks.RemoveSession(rawSessionID); err != nil {
		w.log.Warn().Err(err).Str("session_id", rawSessionID).Msg("scratch cleanup failed")
	}

	w.log.Info().
		Str("video_id", video.ID.String()).
		Int("height", meta.Height).
		Int("tiers", len(tiers)).
		Msg("video fanned out to transcode queue")

	return nil
}

func (w *AssemblyWorker) failSession(ctx context.Context, sessionID uuid.UUID) {
	err := w.uploads.SetStatus(ctx, sessionID, model.UploadStatusFailed)
	if err != nil && !errors.Is(err, repository.ErrSessionNotOpen) {
		w.log.Error().Err(err).Str("session_id", sessionID.String()).Msg("mark session failed")
	}
}
