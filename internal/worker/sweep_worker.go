package worker

import (
	"context"
	"errors"
	"time"

	"github.com/akademix/lms-backend/internal/config"
	"github.com/akademix/lms-backend/internal/model"
	"github.com/akademix/lms-backend/internal/repository"
	"github.com/akademix/lms-backend/internal/storage"
	"github.com/rs/zerolog"
)

// SweepWorker periodically times out abandoned attempts and expires stale
// upload sessions. It is the liveness guarantee for both state machines:
// nothing a client walks away from stays in_progress forever.
type SweepWorker struct {
	cfg      *config.Config
	attempts *repository.AttemptRepository
	uploads  *repository.UploadRepository
	chunks   *storage.ChunkStore
	log      zerolog.Logger
}

// NewSweepWorker creates a new SweepWorker.
func NewSweepWorker(
	cfg *config.Config,
	attempts *repository.AttemptRepository,
	uploads *repository.UploadRepository,
	chunks *storage.ChunkStore,
	log zerolog.Logger,
) *SweepWorker {
	return &SweepWorker{
		cfg:      cfg,
		attempts: attempts,
		uploads:  uploads,
		chunks:   chunks,
		log:      log.With().Str("component", "sweep_worker").Logger(),
	}
}

// Start runs the sweep loop until ctx is cancelled.
func (w *SweepWorker) Start(ctx context.Context) {
	w.log.Info().Dur("interval", w.cfg.SweepInterval).Msg("SweepWorker started")

	ticker := time.NewTicker(w.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("SweepWorker stopped")
			return
		case <-ticker.C:
			w.sweepAttempts(ctx)
			w.sweepUploads(ctx)
		}
	}
}

// sweepAttempts times out every in-progress attempt whose deadline has
// passed. No answers are graded and no score is recorded.
func (w *SweepWorker) sweepAttempts(ctx context.Context) {
	ids, err := w.attempts.ListExpiredInProgress(ctx, time.Now())
	if err != nil {
		w.log.Error().Err(err).Msg("list expired attempts")
		return
	}

	for _, id := range ids {
		err := w.attempts.MarkTimedOut(ctx, id)
		if err != nil {
			// A live submission can race the sweep and win; the guard
			// reports it as not-in-progress, which is fine.
			if errors.Is(err, repository.ErrAttemptNotInProgress) {
				continue
			}
			w.log.Error().Err(err).Str("attempt_id", id.String()).Msg("time out attempt")
			continue
		}
		w.log.Info().Str("attempt_id", id.String()).Msg("attempt timed out")
	}
}

// sweepUploads fails every in-progress upload session past its TTL and
// reclaims its scratch chunks.
func (w *SweepWorker) sweepUploads(ctx context.Context) {
	ids, err := w.uploads.ListExpiredInProgress(ctx, time.Now())
	if err != nil {
		w.log.Error().Err(err).Msg("list expired uploads")
		return
	}

	for _, id := range ids {
		err := w.uploads.SetStatus(ctx, id, model.UploadStatusFailed)
		if err != nil {
			if errors.Is(err, repository.ErrSessionNotOpen) {
				continue
			}
			w.log.Error().Err(err).Str("session_id", id.String()).Msg("expire session")
			continue
		}
		if err := w.chunks.RemoveSession(id.String()); err != nil {
			w.log.Warn().Err(err).Str("session_id", id.String()).Msg("scratch cleanup failed")
		}
		w.log.Info().Str("session_id", id.String()).Msg("upload session expired")
	}
}
