package router

import (
	"net/http"
	"time"

	"github.com/akademix/lms-backend/internal/config"
	"github.com/akademix/lms-backend/internal/handler"
	"github.com/akademix/lms-backend/internal/middleware"
	"github.com/akademix/lms-backend/internal/response"
	"github.com/akademix/lms-backend/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth       *handler.AuthHandler
	Assessment *handler.AssessmentHandler
	Attempt    *handler.AttemptHandler
	Grading    *handler.GradingHandler
	Upload     *handler.UploadHandler
	Video      *handler.VideoHandler
	WS         *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Apply brotli middleware globally. Chunk uploads skip it: their
	// responses are tiny and the raw-body route must stay untouched.
	router.Use(middleware.BrotliWithConfig(middleware.BrotliConfig{
		Skipper: func(c *gin.Context) bool {
			return c.Request.Method == http.MethodPut
		},
	}))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for auth routes (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/student/login", handlers.Auth.StudentLogin)
		auth.POST("/instructor/login", handlers.Auth.InstructorLogin)
	}

	// ─── 2. Student Group (JWT + Single Device) ────────────────────────
	studentAPI := router.Group("/api/v1/student")
	studentAPI.Use(
		middleware.RequireStudentJWT(authService),
		middleware.CheckSingleDeviceSession(authService),
	)
	{
		studentAPI.POST("/logout", handlers.Auth.StudentLogout)
		studentAPI.GET("/me", handlers.Auth.Me)

		studentAPI.GET("/assessments/:assessment_id/questions", handlers.Attempt.GetQuestions)
		studentAPI.POST("/assessments/:assessment_id/attempts", handlers.Attempt.StartAttempt)
		studentAPI.GET("/assessments/:assessment_id/attempts", handlers.Attempt.ListMyAttempts)
		studentAPI.GET("/attempts/:attempt_id", handlers.Attempt.GetAttempt)
		studentAPI.POST("/attempts/:attempt_id/submit", handlers.Attempt.SubmitAttempt)

		studentAPI.GET("/videos/:video_id", handlers.Video.GetVideo)
	}

	// ─── 3. Staff Group (Instructor JWT) ───────────────────────────────
	staffAPI := router.Group("/api/v1/staff")
	staffAPI.Use(middleware.RequireStaffJWT(authService))
	{
		staffAPI.GET("/me", handlers.Auth.Me)

		staffAPI.POST("/assessments", handlers.Assessment.CreateAssessment)
		staffAPI.GET("/assessments/:assessment_id", handlers.Assessment.GetAssessment)
		staffAPI.GET("/courses/:course_id/assessments", handlers.Assessment.ListAssessments)
		staffAPI.POST("/assessments/:assessment_id/questions", handlers.Assessment.AddQuestion)
		staffAPI.POST("/assessments/:assessment_id/prerequisites", handlers.Assessment.AddPrerequisite)
		staffAPI.GET("/assessments/:assessment_id/stats", handlers.Assessment.GetStats)

		staffAPI.GET("/grading/pending", handlers.Grading.ListPending)
		staffAPI.POST("/grading/answers/:answer_id", handlers.Grading.GradeAnswer)

		staffAPI.POST("/uploads", handlers.Upload.CreateSession)
		staffAPI.GET("/uploads/:session_id", handlers.Upload.GetSession)
		staffAPI.PUT("/uploads/:session_id/chunks/:chunk_number", handlers.Upload.UploadChunk)
		staffAPI.POST("/uploads/:session_id/finalize", handlers.Upload.FinalizeUpload)

		staffAPI.GET("/videos/:video_id", handlers.Video.GetVideo)
	}

	// ─── 4. WebSocket Group (Token via query param) ────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireWSAuth(authService))
	{
		ws.GET("/videos/:video_id/progress", handlers.WS.VideoProgressStream)
	}

	return router
}
