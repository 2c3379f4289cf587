package model

import (
	"reflect"
	"testing"
)

func TestTargetTiers(t *testing.T) {
	tests := []struct {
		name         string
		sourceHeight int
		want         []QualityTier
	}{
		{name: "1080p source gets full ladder", sourceHeight: 1080, want: []QualityTier{Quality360p, Quality480p, Quality720p, Quality1080p}},
		{name: "4k source capped at 1080p", sourceHeight: 2160, want: []QualityTier{Quality360p, Quality480p, Quality720p, Quality1080p}},
		{name: "720p source excludes 1080p", sourceHeight: 720, want: []QualityTier{Quality360p, Quality480p, Quality720p}},
		{name: "719 rounds down to 480p", sourceHeight: 719, want: []QualityTier{Quality360p, Quality480p}},
		{name: "tiny source still gets lowest tier", sourceHeight: 144, want: []QualityTier{Quality360p}},
		{name: "zero height still gets lowest tier", sourceHeight: 0, want: []QualityTier{Quality360p}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := TargetTiers(tc.sourceHeight)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestResolveVideoStatus(t *testing.T) {
	tests := []struct {
		name     string
		statuses []VideoStatus
		want     VideoStatus
		terminal bool
	}{
		{name: "no qualities", statuses: nil, terminal: false},
		{name: "one still pending", statuses: []VideoStatus{VideoStatusCompleted, VideoStatusPending}, terminal: false},
		{name: "one still processing", statuses: []VideoStatus{VideoStatusFailed, VideoStatusProcessing}, terminal: false},
		{name: "all completed", statuses: []VideoStatus{VideoStatusCompleted, VideoStatusCompleted}, want: VideoStatusCompleted, terminal: true},
		{name: "mixed terminal with one success", statuses: []VideoStatus{VideoStatusCompleted, VideoStatusFailed, VideoStatusFailed}, want: VideoStatusCompleted, terminal: true},
		{name: "all failed", statuses: []VideoStatus{VideoStatusFailed, VideoStatusFailed}, want: VideoStatusFailed, terminal: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			qualities := make([]VideoQuality, len(tc.statuses))
			for i, s := range tc.statuses {
				qualities[i] = VideoQuality{Status: s}
			}
			got, terminal := ResolveVideoStatus(qualities)
			if terminal != tc.terminal {
				t.Fatalf("expected terminal=%v, got=%v", tc.terminal, terminal)
			}
			if terminal && got != tc.want {
				t.Fatalf("expected status=%s, got=%s", tc.want, got)
			}
		})
	}
}

func TestOverallProgress(t *testing.T) {
	tests := []struct {
		name      string
		qualities []VideoQuality
		want      int
	}{
		{name: "no qualities", qualities: nil, want: 0},
		{
			name: "averages in-flight progress",
			qualities: []VideoQuality{
				{Status: VideoStatusProcessing, ProcessingProgress: 50},
				{Status: VideoStatusProcessing, ProcessingProgress: 30},
			},
			want: 40,
		},
		{
			name: "terminal renditions count as 100",
			qualities: []VideoQuality{
				{Status: VideoStatusCompleted, ProcessingProgress: 100},
				{Status: VideoStatusFailed, ProcessingProgress: 40},
			},
			want: 100,
		},
		{
			name: "mixed terminal and pending",
			qualities: []VideoQuality{
				{Status: VideoStatusCompleted},
				{Status: VideoStatusPending, ProcessingProgress: 0},
			},
			want: 50,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := OverallProgress(tc.qualities); got != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, got)
			}
		})
	}
}

func TestVideoStatusTerminal(t *testing.T) {
	if VideoStatusPending.Terminal() || VideoStatusProcessing.Terminal() {
		t.Error("pending/processing must not be terminal")
	}
	if !VideoStatusCompleted.Terminal() || !VideoStatusFailed.Terminal() {
		t.Error("completed/failed must be terminal")
	}
}

func TestSortQualitiesByTier(t *testing.T) {
	// Lexicographic ordering would put 1080p first; the sort must go by
	// resolution instead.
	qs := []VideoQuality{
		{Tier: Quality1080p},
		{Tier: Quality360p},
		{Tier: Quality720p},
		{Tier: Quality480p},
	}
	SortQualitiesByTier(qs)

	want := []QualityTier{Quality360p, Quality480p, Quality720p, Quality1080p}
	for i, tier := range want {
		if qs[i].Tier != tier {
			t.Fatalf("position %d: expected %s, got %s", i, tier, qs[i].Tier)
		}
	}
}
