package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// StudentSessionKey returns the cache key for a student's login session
func (r *CacheKeyStruct) StudentSessionKey(studentID int) string {
	return fmt.Sprintf("login:student:%d", studentID)
}

// AttemptDeadlineKey returns the cache key for an attempt's submission deadline
func (r *CacheKeyStruct) AttemptDeadlineKey(attemptID string) string {
	return fmt.Sprintf("attempt:%s:deadline", attemptID)
}

// AssessmentQuestionsKey returns the cache key for an assessment's question payload
func (r *CacheKeyStruct) AssessmentQuestionsKey(assessmentID string) string {
	return fmt.Sprintf("assessment:%s:questions", assessmentID)
}

// VideoProgressChannel returns the Redis PubSub channel for a video's
// processing progress updates
func (r *CacheKeyStruct) VideoProgressChannel(videoID string) string {
	return fmt.Sprintf("video:%s:progress", videoID)
}

var CacheKey = NewCacheKeyStruct()
