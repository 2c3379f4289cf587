package model

import (
	"time"

	"github.com/google/uuid"
)

// UploadStatus enumerates chunked upload session states.
type UploadStatus string

const (
	UploadStatusInProgress UploadStatus = "in_progress"
	UploadStatusCompleted  UploadStatus = "completed"
	UploadStatusFailed     UploadStatus = "failed"
)

// UploadSession tracks one chunked upload. Chunks are 0-indexed;
// ReceivedChunks is a set (no duplicates, order irrelevant).
type UploadSession struct {
	ID             uuid.UUID    `json:"id"`
	UploadedBy     int          `json:"uploaded_by"`
	Filename       string       `json:"filename"`
	Title          string       `json:"title"`
	TotalChunks    int          `json:"total_chunks"`
	ReceivedChunks []int        `json:"received_chunks"`
	Status         UploadStatus `json:"status"`
	CreatedAt      time.Time    `json:"created_at"`
	ExpiresAt      time.Time    `json:"expires_at"`
}

// IsComplete reports whether every chunk in [0, TotalChunks) has been
// received.
func (s *UploadSession) IsComplete() bool {
	return len(s.MissingChunks()) == 0
}

// MissingChunks returns the sorted list of chunk numbers not yet received.
func (s *UploadSession) MissingChunks() []int {
	received := make(map[int]bool, len(s.ReceivedChunks))
	for _, n := range s.ReceivedChunks {
		received[n] = true
	}
	missing := []int{}
	for i := 0; i < s.TotalChunks; i++ {
		if !received[i] {
			missing = append(missing, i)
		}
	}
	return missing
}

// Expired reports whether the session TTL has elapsed.
func (s *UploadSession) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// CreateUploadSessionRequest is the payload for opening an upload session.
type CreateUploadSessionRequest struct {
	Filename    string `json:"filename" binding:"required,min=1,max=255"`
	Title       string `json:"title" binding:"required,min=1,max=255"`
	TotalChunks int    `json:"total_chunks" binding:"required,min=1,max=10000"`
}
