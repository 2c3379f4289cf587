package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/akademix/lms-backend/internal/config"
	"github.com/akademix/lms-backend/internal/model"
	"github.com/akademix/lms-backend/internal/service"
	ws "github.com/akademix/lms-backend/internal/websocket"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams video processing progress over WebSocket.
type WSHandler struct {
	rdb          *redis.Client
	videoService *service.VideoService
	log          zerolog.Logger
	upgrader     websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(rdb *redis.Client, videoService *service.VideoService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		rdb:          rdb,
		videoService: videoService,
		log:          log.With().Str("component", "ws_handler").Logger(),
		upgrader:     buildUpgrader(allowedOrigins),
	}
}

// VideoProgressStream godoc
// WS /ws/v1/videos/:video_id/progress
// Sends a state snapshot on connect, then relays pipeline progress events
// published by the transcode workers until the video reaches a terminal
// state or the client disconnects.
func (h *WSHandler) VideoProgressStream(c *gin.Context) {
	videoID, err := uuid.Parse(c.Param("video_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid video ID"})
		return
	}

	video, err := h.videoService.Get(c.Request.Context(), videoID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "video not found"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().Str("video_id", videoID.String()).Logger()
	wsLog.Info().Msg("progress stream connected")

	// Snapshot first, so the client renders current state before any event
	// arrives. Events between the DB read and the subscribe are covered by
	// the snapshot being a full dump and events being self-contained.
	if err := ws.WriteTyped(conn, ws.SnapshotResponse{
		Event:     ws.EventSnapshot,
		Status:    video.Status,
		Progress:  video.ProcessingProgress,
		Qualities: video.Qualities,
	}); err != nil {
		return
	}

	if video.Status.Terminal() {
		_ = ws.WriteTyped(conn, ws.DoneResponse{Event: ws.EventDone, Status: video.Status})
		return
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	sub := h.rdb.Subscribe(ctx, config.CacheKey.VideoProgressChannel(videoID.String()))
	defer sub.Close()

	// Drain client frames to observe disconnects.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			wsLog.Debug().Msg("progress stream closed")
			return
		case msg, ok := <-sub.Channel():
			if !ok {
				_ = ws.WriteError(conn, "progress feed interrupted")
				return
			}

			var event model.VideoProgressEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				wsLog.Warn().Err(err).Msg("invalid progress event payload")
				continue
			}

			if err := ws.WriteTyped(conn, ws.ProgressResponse{Event: ws.EventProgress, Data: event}); err != nil {
				return
			}

			if event.OverallStatus.Terminal() {
				_ = ws.WriteTyped(conn, ws.DoneResponse{Event: ws.EventDone, Status: event.OverallStatus})
				wsLog.Info().Str("status", string(event.OverallStatus)).Msg("progress stream finished")
				return
			}
		}
	}
}
