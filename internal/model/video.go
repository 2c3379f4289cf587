package model

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// VideoStatus enumerates the processing states of a video and of each of its
// quality renditions.
type VideoStatus string

const (
	VideoStatusPending    VideoStatus = "pending"
	VideoStatusProcessing VideoStatus = "processing"
	VideoStatusCompleted  VideoStatus = "completed"
	VideoStatusFailed     VideoStatus = "failed"
)

// Terminal reports whether the status is final.
func (s VideoStatus) Terminal() bool {
	return s == VideoStatusCompleted || s == VideoStatusFailed
}

// QualityTier is one target output profile for a transcoded video.
type QualityTier string

const (
	Quality360p  QualityTier = "360p"
	Quality480p  QualityTier = "480p"
	Quality720p  QualityTier = "720p"
	Quality1080p QualityTier = "1080p"
)

// allTiers is ordered lowest to highest.
var allTiers = []QualityTier{Quality360p, Quality480p, Quality720p, Quality1080p}

// Height returns the vertical resolution of the tier.
func (t QualityTier) Height() int {
	switch t {
	case Quality360p:
		return 360
	case Quality480p:
		return 480
	case Quality720p:
		return 720
	case Quality1080p:
		return 1080
	}
	return 0
}

// TargetTiers returns the tiers to produce for a source of the given height:
// every tier not exceeding the source, and always at least the lowest tier
// so even tiny sources get one rendition.
func TargetTiers(sourceHeight int) []QualityTier {
	var tiers []QualityTier
	for _, t := range allTiers {
		if t.Height() <= sourceHeight {
			tiers = append(tiers, t)
		}
	}
	if len(tiers) == 0 {
		tiers = []QualityTier{allTiers[0]}
	}
	return tiers
}

// Video is one uploaded video and the aggregate state of its renditions.
type Video struct {
	ID                 uuid.UUID   `json:"id"`
	UploadSessionID    uuid.UUID   `json:"upload_session_id"`
	Title              string      `json:"title"`
	SourcePath         string      `json:"source_path"`
	DurationSeconds    *float64    `json:"duration_seconds,omitempty"`
	Width              *int        `json:"width,omitempty"`
	Height             *int        `json:"height,omitempty"`
	Codec              *string     `json:"codec,omitempty"`
	Format             *string     `json:"format,omitempty"`
	Status             VideoStatus `json:"status"`
	ProcessingProgress int         `json:"processing_progress"`
	ThumbnailPath      *string     `json:"thumbnail_path,omitempty"`
	ErrorMessage       *string     `json:"error_message,omitempty"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
}

// VideoQuality is one per-tier transcode unit's state.
type VideoQuality struct {
	ID                 uuid.UUID   `json:"id"`
	VideoID            uuid.UUID   `json:"video_id"`
	Tier               QualityTier `json:"tier"`
	Status             VideoStatus `json:"status"`
	ProcessingProgress int         `json:"processing_progress"`
	OutputPath         *string     `json:"output_path,omitempty"`
	FileSizeBytes      *int64      `json:"file_size_bytes,omitempty"`
	ErrorMessage       *string     `json:"error_message,omitempty"`
	Attempts           int         `json:"attempts"`
}

// SortQualitiesByTier orders renditions lowest tier first. Tier names sort
// wrong lexicographically (1080p before 360p), so ordering goes by height.
func SortQualitiesByTier(qs []VideoQuality) {
	sort.Slice(qs, func(i, j int) bool {
		return qs[i].Tier.Height() < qs[j].Tier.Height()
	})
}

// ResolveVideoStatus computes the video's terminal status from its quality
// renditions. The second return value is false while any rendition is still
// pending or processing — finalization must not fire yet. Once every
// rendition is terminal, the video is completed if at least one rendition
// completed, failed otherwise.
func ResolveVideoStatus(qualities []VideoQuality) (VideoStatus, bool) {
	if len(qualities) == 0 {
		return "", false
	}
	anyCompleted := false
	for _, q := range qualities {
		if !q.Status.Terminal() {
			return "", false
		}
		if q.Status == VideoStatusCompleted {
			anyCompleted = true
		}
	}
	if anyCompleted {
		return VideoStatusCompleted, true
	}
	return VideoStatusFailed, true
}

// OverallProgress averages per-rendition progress into a 0–100 video-level
// figure. Terminal renditions count as 100 regardless of outcome, so a video
// whose last rendition failed still reports 100.
func OverallProgress(qualities []VideoQuality) int {
	if len(qualities) == 0 {
		return 0
	}
	total := 0
	for _, q := range qualities {
		if q.Status.Terminal() {
			total += 100
		} else {
			total += q.ProcessingProgress
		}
	}
	return total / len(qualities)
}

// VideoProgressEvent is published on the per-video Redis channel whenever a
// rendition's progress or status changes.
type VideoProgressEvent struct {
	VideoID         uuid.UUID   `json:"video_id"`
	Tier            QualityTier `json:"tier,omitempty"`
	TierStatus      VideoStatus `json:"tier_status,omitempty"`
	TierProgress    int         `json:"tier_progress"`
	OverallStatus   VideoStatus `json:"overall_status"`
	OverallProgress int         `json:"overall_progress"`
}
