package model

import (
	"reflect"
	"testing"
	"time"
)

func TestMissingChunks(t *testing.T) {
	tests := []struct {
		name     string
		total    int
		received []int
		want     []int
	}{
		{name: "nothing received", total: 3, received: nil, want: []int{0, 1, 2}},
		{name: "out of order receipts", total: 4, received: []int{3, 0}, want: []int{1, 2}},
		{name: "duplicates collapse", total: 3, received: []int{1, 1, 1}, want: []int{0, 2}},
		{name: "all received", total: 3, received: []int{2, 1, 0}, want: []int{}},
		{name: "single chunk", total: 1, received: []int{0}, want: []int{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := &UploadSession{TotalChunks: tc.total, ReceivedChunks: tc.received}
			got := s.MissingChunks()
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
			if s.IsComplete() != (len(tc.want) == 0) {
				t.Fatalf("IsComplete disagrees with MissingChunks")
			}
		})
	}
}

func TestUploadSessionExpired(t *testing.T) {
	now := time.Now()
	s := &UploadSession{ExpiresAt: now.Add(time.Hour)}
	if s.Expired(now) {
		t.Error("session should not be expired before its deadline")
	}
	if !s.Expired(now.Add(time.Hour + time.Second)) {
		t.Error("session should be expired after its deadline")
	}
}
