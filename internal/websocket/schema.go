package websocket

import "github.com/akademix/lms-backend/internal/model"

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	// EventSnapshot carries the full pipeline state sent once on connect.
	EventSnapshot Event = "snapshot"
	// EventProgress carries an incremental rendition progress update.
	EventProgress Event = "progress"
	// EventDone closes the stream once the video reaches a terminal state.
	EventDone  Event = "done"
	EventError Event = "error"
)

// SnapshotResponse is the initial state dump for a video stream.
type SnapshotResponse struct {
	Event     Event                `json:"event"`
	Status    model.VideoStatus    `json:"status"`
	Progress  int                  `json:"progress"`
	Qualities []model.VideoQuality `json:"qualities"`
}

// ProgressResponse relays one pipeline progress event.
type ProgressResponse struct {
	Event Event                    `json:"event"`
	Data  model.VideoProgressEvent `json:"data"`
}

// DoneResponse is the terminal message of a video stream.
type DoneResponse struct {
	Event  Event             `json:"event"`
	Status model.VideoStatus `json:"status"`
}

// ErrorResponse reports a stream-level failure to the client.
type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}
