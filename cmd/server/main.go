package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/akademix/lms-backend/internal/config"
	"github.com/akademix/lms-backend/internal/database"
	"github.com/akademix/lms-backend/internal/handler"
	"github.com/akademix/lms-backend/internal/logger"
	"github.com/akademix/lms-backend/internal/media"
	"github.com/akademix/lms-backend/internal/repository"
	"github.com/akademix/lms-backend/internal/router"
	"github.com/akademix/lms-backend/internal/service"
	"github.com/akademix/lms-backend/internal/storage"
	"github.com/akademix/lms-backend/internal/validator"
	"github.com/akademix/lms-backend/internal/worker"
	"github.com/rs/zerolog"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting Akademix Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Connect to Blob Storage ───────────────────────────────────────
	blob, err := storage.NewMinioStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to MinIO")
	}

	chunks := storage.NewChunkStore(cfg.ChunkScratchDir)
	tool := media.NewFFmpeg()

	// ─── Initialize Repositories ───────────────────────────────────────
	accountRepo := repository.NewAccountRepository(pool)
	assessmentRepo := repository.NewAssessmentRepository(pool)
	attemptRepo := repository.NewAttemptRepository(pool)
	enrollmentRepo := repository.NewEnrollmentRepository(pool)
	uploadRepo := repository.NewUploadRepository(pool)
	videoRepo := repository.NewVideoRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, rdb, accountRepo)
	assessmentService := service.NewAssessmentService(rdb, assessmentRepo, attemptRepo)
	attemptService := service.NewAttemptService(cfg, rdb, attemptRepo, assessmentRepo, enrollmentRepo, log)
	gradingService := service.NewGradingService(attemptRepo, log)
	uploadService := service.NewUploadService(cfg, rdb, uploadRepo, chunks, log)
	videoService := service.NewVideoService(videoRepo)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:       handler.NewAuthHandler(authService),
		Assessment: handler.NewAssessmentHandler(assessmentService),
		Attempt:    handler.NewAttemptHandler(attemptService),
		Grading:    handler.NewGradingHandler(gradingService),
		Upload:     handler.NewUploadHandler(uploadService),
		Video:      handler.NewVideoHandler(videoService),
		WS:         handler.NewWSHandler(rdb, videoService, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	assemblyWorker := worker.NewAssemblyWorker(cfg, rdb, uploadRepo, videoRepo, chunks, blob, tool, log)
	transcodeWorker := worker.NewTranscodeWorker(cfg, rdb, videoRepo, blob, tool, log)
	thumbnailWorker := worker.NewThumbnailWorker(cfg, rdb, videoRepo, blob, tool, log)
	sweepWorker := worker.NewSweepWorker(cfg, attemptRepo, uploadRepo, chunks, log)

	go assemblyWorker.Start(workerCtx)
	go transcodeWorker.Start(workerCtx)
	go thumbnailWorker.Start(workerCtx)
	go sweepWorker.Start(workerCtx)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers and wait for in-flight jobs to settle.
	workerCancel()
	time.Sleep(2 * time.Second)

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
