package service

import (
	"context"

	"github.com/akademix/lms-backend/internal/model"
	"github.com/akademix/lms-backend/internal/repository"
	"github.com/google/uuid"
)

// VideoWithQualities is a video joined with the state of each rendition.
type VideoWithQualities struct {
	model.Video
	Qualities []model.VideoQuality `json:"qualities"`
}

// VideoService serves the read side of the video pipeline.
type VideoService struct {
	videos *repository.VideoRepository
}

// NewVideoService creates a new VideoService.
func NewVideoService(videos *repository.VideoRepository) *VideoService {
	return &VideoService{videos: videos}
}

// Get returns a video with all its renditions. The video-level
// processing_progress averages the per-tier progress so clients get one
// number to render.
func (s *VideoService) Get(ctx context.Context, id uuid.UUID) (*VideoWithQualities, error) {
	video, err := s.videos.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	qualities, err := s.videos.ListQualities(ctx, id)
	if err != nil {
		return nil, err
	}

	out := &VideoWithQualities{Video: *video, Qualities: qualities}
	if !video.Status.Terminal() && len(qualities) > 0 {
		out.ProcessingProgress = model.OverallProgress(qualities)
	}
	return out, nil
}
