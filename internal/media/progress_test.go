package media

import (
	"strings"
	"testing"
)

func TestProgressParser_ReportsMonotonePercent(t *testing.T) {
	var reported []int
	p := newProgressParser(100, func(pct int) { reported = append(reported, pct) })

	lines := []string{
		"frame=  100 fps= 25 time=00:00:10.00 bitrate=1000kbits/s\n",
		"frame=  200 fps= 25 time=00:00:25.50 bitrate=1000kbits/s\n",
		// Stale report must not move progress backwards.
		"frame=  150 fps= 25 time=00:00:20.00 bitrate=1000kbits/s\n",
		"frame=  500 fps= 25 time=00:01:30.00 bitrate=1000kbits/s\n",
	}
	for _, line := range lines {
		if _, err := p.Write([]byte(line)); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	want := []int{10, 25, 90}
	if len(reported) != len(want) {
		t.Fatalf("expected reports %v, got %v", want, reported)
	}
	for i := range want {
		if reported[i] != want[i] {
			t.Fatalf("expected reports %v, got %v", want, reported)
		}
	}
}

func TestProgressParser_CapsAt99(t *testing.T) {
	var last int
	p := newProgressParser(60, func(pct int) { last = pct })

	// Past the known duration ffmpeg may still report larger times.
	if _, err := p.Write([]byte("time=00:02:00.00 ")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if last != 99 {
		t.Fatalf("expected cap at 99, got %d", last)
	}
}

func TestProgressParser_HoursComponent(t *testing.T) {
	var last int
	p := newProgressParser(2*3600, func(pct int) { last = pct })

	if _, err := p.Write([]byte("time=01:00:00.00 ")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if last != 50 {
		t.Fatalf("expected 50, got %d", last)
	}
}

func TestProgressParser_IgnoresNoise(t *testing.T) {
	called := false
	p := newProgressParser(100, func(int) { called = true })

	noise := "Stream #0:0: Video: h264, yuv420p, 1920x1080\nPress [q] to stop\n"
	if _, err := p.Write([]byte(noise)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if called {
		t.Fatal("non-progress output must not trigger the callback")
	}
}

func TestProgressParser_ZeroDuration(t *testing.T) {
	p := newProgressParser(0, func(int) { t.Fatal("callback must not fire with unknown duration") })
	if _, err := p.Write([]byte("time=00:00:10.00 ")); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestProgressParser_TailKeepsRecentOutput(t *testing.T) {
	p := newProgressParser(0, nil)

	old := strings.Repeat("x", diagTailSize)
	if _, err := p.Write([]byte(old)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := p.Write([]byte("recent error detail")); err != nil {
		t.Fatalf("write: %v", err)
	}

	tail := p.Tail()
	if len(tail) > diagTailSize {
		t.Fatalf("tail exceeds cap: %d", len(tail))
	}
	if !strings.HasSuffix(tail, "recent error detail") {
		t.Fatal("tail lost the most recent output")
	}
}
