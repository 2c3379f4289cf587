package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/akademix/lms-backend/internal/config"
	"github.com/akademix/lms-backend/internal/media"
	"github.com/akademix/lms-backend/internal/model"
	"github.com/akademix/lms-backend/internal/repository"
	"github.com/akademix/lms-backend/internal/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	transcodePollTimeout  = 1 * time.Second
	transcodeRequeueDelay = 5 * time.Second
)

// errDropJob marks a popped job that can never succeed (unparseable
// payload); such jobs are logged and discarded instead of requeued.
var errDropJob = errors.New("unprocessable transcode job")

// TranscodeWorker consumes per-tier transcode units. Tiers of the same
// video process independently, possibly in parallel across consumers; one
// tier's failure never touches its siblings. Each unit carries a bounded
// retry budget and a hard wall-clock timeout; after every terminal
// transition the worker runs the completion check that may finalize the
// parent video.
type TranscodeWorker struct {
	cfg    *config.Config
	rdb    *redis.Client
	videos *repository.VideoRepository
	blob   storage.BlobStore
	tool   media.Tool
	log    zerolog.Logger
}

// NewTranscodeWorker creates a new TranscodeWorker.
func NewTranscodeWorker(
	cfg *config.Config,
	rdb *redis.Client,
	videos *repository.VideoRepository,
	blob storage.BlobStore,
	tool media.Tool,
	log zerolog.Logger,
) *TranscodeWorker {
	return &TranscodeWorker{
		cfg:    cfg,
		rdb:    rdb,
		videos: videos,
		blob:   blob,
		tool:   tool,
		log:    log.With().Str("component", "transcode_worker").Logger(),
	}
}

// Start runs cfg.TranscodeWorkers parallel consumers until ctx is cancelled.
func (w *TranscodeWorker) Start(ctx context.Context) {
	w.log.Info().Int("consumers", w.cfg.TranscodeWorkers).Msg("TranscodeWorker started")

	var wg sync.WaitGroup
	for i := 0; i < w.cfg.TranscodeWorkers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			w.consume(ctx, id)
		}(i)
	}
	wg.Wait()
	w.log.Info().Msg("TranscodeWorker stopped")
}

func (w *TranscodeWorker) consume(ctx context.Context, consumerID int) {
	log := w.log.With().Int("consumer", consumerID).Logger()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			item, err := w.rdb.BLPop(ctx, transcodePollTimeout, config.WorkerKey.TranscodeQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}
			if len(item) < 2 {
				continue
			}

			var job TranscodeJob
			if err := json.Unmarshal([]byte(item[1]), &job); err != nil {
				log.Error().Err(err).Msg("invalid transcode job payload")
				continue
			}

			if err := w.process(ctx, &job); err != nil {
				// BLPop delivers at most once, so a unit that failed for
				// any reason other than its own exhausted retry budget
				// must go back on the queue or the quality row is stuck
				// non-terminal forever.
				if shouldRequeue(ctx, err) {
					w.pushBack(item[1])
					if ctx.Err() == nil {
						time.Sleep(transcodeRequeueDelay)
					}
				}
				if ctx.Err() == nil {
					log.Error().Err(err).
						Str("video_id", job.VideoID).
						Str("tier", string(job.Tier)).
						Msg("transcode unit failed")
				}
			}
		}
	}
}

// process runs one tier through its remaining retry budget.
func (w *TranscodeWorker) process(ctx context.Context, job *TranscodeJob) error {
	videoID, err := uuid.Parse(job.VideoID)
	if err != nil {
		return fmt.Errorf("%w: parse video id: %v", errDropJob, err)
	}

	video, err := w.videos.GetByID(ctx, videoID)
	if err != nil {
		return fmt.Errorf("load video: %w", err)
	}
	quality, err := w.videos.GetQuality(ctx, videoID, job.Tier)
	if err != nil {
		return fmt.Errorf("load quality: %w", err)
	}

	// A redelivered job for an already-terminal unit only re-runs the
	// completion check.
	if quality.Status.Terminal() {
		return w.finalize(ctx, videoID)
	}

	workDir, err := os.MkdirTemp(w.cfg.ChunkScratchDir, "transcode-*")
	if err != nil {
		return fmt.Errorf("create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	localIn := filepath.Join(workDir, "source")
	if err := w.blob.GetFile(ctx, video.SourcePath, localIn); err != nil {
		return fmt.Errorf("fetch source: %w", err)
	}

	duration := 0.0
	if video.DurationSeconds != nil {
		duration = *video.DurationSeconds
	}

	var lastErr error
	for quality.Attempts < w.cfg.TranscodeMaxAttempts {
		if err := w.videos.BeginQualityAttempt(ctx, quality.ID); err != nil {
			return fmt.Errorf("begin attempt: %w", err)
		}
		quality.Attempts++

		lastErr = w.runAttempt(ctx, video, quality, localIn, workDir, duration)
		if lastErr == nil {
			return w.finalize(ctx, videoID)
		}
		if ctx.Err() != nil {
			// Shutdown, not a real failure; the unit stays processing
			// and a redelivery resumes it.
			return lastErr
		}

		w.log.Warn().Err(lastErr).
			Str("video_id", job.VideoID).
			Str("tier", string(job.Tier)).
			Int("attempt", quality.Attempts).
			Msg("transcode attempt failed")
	}

	// Retry budget exhausted. The diagnostic output rides along in the
	// error message.
	if err := w.videos.FailQuality(ctx, quality.ID, exhaustedDiagnostic(lastErr)); err != nil {
		return fmt.Errorf("fail quality: %w", err)
	}
	w.publish(ctx, videoID, quality.Tier, model.VideoStatusFailed, 100)
	return w.finalize(ctx, videoID)
}

// shouldRequeue reports whether a failed unit goes back on the queue.
// Shutdown mid-unit and transient storage or database trouble are
// redelivered; poison payloads and rows that no longer exist are dropped,
// since no retry can heal them.
func shouldRequeue(ctx context.Context, err error) bool {
	if err == nil {
		return false
	}
	if ctx.Err() != nil {
		return true
	}
	if errors.Is(err, errDropJob) || errors.Is(err, pgx.ErrNoRows) {
		return false
	}
	return true
}

// exhaustedDiagnostic is the failure text recorded on a quality whose retry
// budget is spent. lastErr is nil when a redelivered job arrives with
// attempts already at the cap, so the retry loop never ran.
func exhaustedDiagnostic(lastErr error) string {
	if lastErr == nil {
		return "retry budget exhausted before a completed attempt"
	}
	return lastErr.Error()
}

// pushBack requeues a raw job payload. Runs on its own context because the
// worker's context is already cancelled on the shutdown path.
func (w *TranscodeWorker) pushBack(raw string) {
	pushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := w.rdb.RPush(pushCtx, config.WorkerKey.TranscodeQueue, raw).Err(); err != nil {
		w.log.Error().Err(err).Msg("requeue transcode job failed")
	}
}

// runAttempt performs a single transcode try under the hard timeout, then
// uploads the rendition and records completion.
func (w *TranscodeWorker) runAttempt(ctx context.Context, video *model.Video, quality *model.VideoQuality, localIn, workDir string, duration float64) error {
	attemptCtx, cancel := context.WithTimeout(ctx, w.cfg.TranscodeTimeout)
	defer cancel()

	localOut := filepath.Join(workDir, fmt.Sprintf("%s.mp4", quality.Tier))
	onProgress := func(pct int) {
		if err := w.videos.UpdateQualityProgress(ctx, quality.ID, pct); err != nil {
			return
		}
		w.publish(ctx, video.ID, quality.Tier, model.VideoStatusProcessing, pct)
	}

	if err := w.tool.Transcode(attemptCtx, localIn, localOut, quality.Tier, duration, onProgress); err != nil {
		return err
	}

	info, err := os.Stat(localOut)
	if err != nil {
		return fmt.Errorf("stat rendition: %w", err)
	}

	outputKey := fmt.Sprintf("videos/%s/%s.mp4", video.ID, quality.Tier)
	if err := w.blob.PutFile(ctx, outputKey, localOut, "video/mp4"); err != nil {
		return fmt.Errorf("upload rendition: %w", err)
	}

	if err := w.videos.CompleteQuality(ctx, quality.ID, outputKey, info.Size()); err != nil {
		return fmt.Errorf("complete quality: %w", err)
	}

	w.publish(ctx, video.ID, quality.Tier, model.VideoStatusCompleted, 100)
	w.log.Info().
		Str("video_id", video.ID.String()).
		Str("tier", string(quality.Tier)).
		Int64("bytes", info.Size()).
		Msg("rendition completed")
	return nil
}

// finalize runs the exactly-once completion check and, when this call wins
// it, publishes the video's terminal event.
func (w *TranscodeWorker) finalize(ctx context.Context, videoID uuid.UUID) error {
	status, didFinalize, err := w.videos.FinalizeIfTerminal(ctx, videoID)
	if err != nil {
		return fmt.Errorf("finalize video: %w", err)
	}
	if !didFinalize {
		return nil
	}

	w.log.Info().
		Str("video_id", videoID.String()).
		Str("status", string(status)).
		Msg("video finalized")

	raw, _ := json.Marshal(model.VideoProgressEvent{
		VideoID:         videoID,
		OverallStatus:   status,
		OverallProgress: 100,
	})
	if err := w.rdb.Publish(ctx, config.CacheKey.VideoProgressChannel(videoID.String()), raw).Err(); err != nil {
		w.log.Warn().Err(err).Msg("publish final event failed")
	}
	return nil
}

// publish emits one per-tier progress event on the video's channel. Best
// effort; subscribers reconcile from the database anyway.
func (w *TranscodeWorker) publish(ctx context.Context, videoID uuid.UUID, tier model.QualityTier, status model.VideoStatus, progress int) {
	qualities, err := w.videos.ListQualities(ctx, videoID)
	if err != nil {
		return
	}

	raw, _ := json.Marshal(model.VideoProgressEvent{
		VideoID:         videoID,
		Tier:            tier,
		TierStatus:      status,
		TierProgress:    progress,
		OverallStatus:   model.VideoStatusProcessing,
		OverallProgress: model.OverallProgress(qualities),
	})
	if err := w.rdb.Publish(ctx, config.CacheKey.VideoProgressChannel(videoID.String()), raw).Err(); err != nil {
		w.log.Warn().Err(err).Msg("publish progress failed")
	}
}
