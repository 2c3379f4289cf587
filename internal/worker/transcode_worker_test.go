package worker

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
)

func TestShouldRequeue(t *testing.T) {
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name string
		ctx  context.Context
		err  error
		want bool
	}{
		{"no error", context.Background(), nil, false},
		{"shutdown mid unit", cancelled, context.Canceled, true},
		{"shutdown wraps any error", cancelled, errors.New("copy interrupted"), true},
		{"transient load failure", context.Background(), fmt.Errorf("load video: %w", errors.New("connection refused")), true},
		{"fetch source failure", context.Background(), fmt.Errorf("fetch source: %w", errors.New("minio unreachable")), true},
		{"video row gone", context.Background(), fmt.Errorf("load video: %w", pgx.ErrNoRows), false},
		{"quality row gone", context.Background(), fmt.Errorf("load quality: %w", pgx.ErrNoRows), false},
		{"poison payload", context.Background(), fmt.Errorf("%w: parse video id: bad uuid", errDropJob), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := shouldRequeue(tt.ctx, tt.err); got != tt.want {
				t.Errorf("shouldRequeue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExhaustedDiagnostic(t *testing.T) {
	if got := exhaustedDiagnostic(errors.New("ffmpeg exit 1: no such filter")); got != "ffmpeg exit 1: no such filter" {
		t.Errorf("exhaustedDiagnostic() = %q, want the underlying error text", got)
	}

	// A redelivered job can arrive with the budget already burned, so the
	// retry loop is skipped and there is no attempt error to report.
	if got := exhaustedDiagnostic(nil); got == "" {
		t.Error("exhaustedDiagnostic(nil) must still produce a failure message")
	}
}
