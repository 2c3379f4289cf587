package media

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/akademix/lms-backend/internal/model"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// Metadata is the probed description of a media file.
type Metadata struct {
	DurationSeconds float64 `json:"duration_seconds"`
	Width           int     `json:"width"`
	Height          int     `json:"height"`
	Codec           string  `json:"codec"`
	Format          string  `json:"format"`
}

// ToolError wraps a media-tool failure with the tool's captured diagnostic
// output, so terminal failures keep enough context to debug.
type ToolError struct {
	Op     string
	Output string
	Err    error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("%s: %v: %s", e.Op, e.Err, e.Output)
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// Tool is the media adapter the pipeline consumes: metadata probing,
// per-tier transcoding with progress, and thumbnail extraction.
type Tool interface {
	Probe(path string) (*Metadata, error)
	Transcode(ctx context.Context, inputPath, outputPath string, tier model.QualityTier, durationSeconds float64, onProgress func(int)) error
	Thumbnail(inputPath, outputPath string, atSeconds float64) error
}

// FFmpeg implements Tool on top of the ffmpeg/ffprobe binaries.
type FFmpeg struct{}

// NewFFmpeg returns the ffmpeg-backed media tool.
func NewFFmpeg() *FFmpeg {
	return &FFmpeg{}
}

// Probe extracts duration, resolution, codec and container format.
func (f *FFmpeg) Probe(path string) (*Metadata, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("stat media file: %w", err)
	}

	raw, err := ffmpeg.Probe(path)
	if err != nil {
		return nil, &ToolError{Op: "probe", Output: raw, Err: err}
	}

	var result struct {
		Streams []struct {
			CodecType string `json:"codec_type"`
			CodecName string `json:"codec_name"`
			Width     int    `json:"width"`
			Height    int    `json:"height"`
		} `json:"streams"`
		Format struct {
			Duration string `json:"duration"`
			Format   string `json:"format_name"`
		} `json:"format"`
	}
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("parse probe output: %w", err)
	}

	meta := &Metadata{}
	for _, stream := range result.Streams {
		if stream.CodecType == "video" {
			meta.Width = stream.Width
			meta.Height = stream.Height
			meta.Codec = stream.CodecName
			break
		}
	}
	if meta.Width == 0 || meta.Height == 0 {
		return nil, &ToolError{Op: "probe", Output: raw, Err: fmt.Errorf("no video stream found")}
	}

	meta.DurationSeconds, _ = strconv.ParseFloat(result.Format.Duration, 64)

	if parts := strings.Split(result.Format.Format, ","); len(parts) > 0 && parts[0] != "" {
		meta.Format = parts[0]
	}

	return meta, nil
}

// Transcode produces one rendition at the tier's resolution. Progress is
// parsed from ffmpeg's stderr time= reports against the known source
// duration; the callback only ever reports up to 99 — 100 is the caller's
// completion signal. Cancelling ctx kills the process.
func (f *FFmpeg) Transcode(ctx context.Context, inputPath, outputPath string, tier model.QualityTier, durationSeconds float64, onProgress func(int)) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	cmd := ffmpeg.Input(inputPath).
		Output(outputPath, ffmpeg.KwArgs{
			"vf":       fmt.Sprintf("scale=-2:%d", tier.Height()),
			"c:v":      "libx264",
			"preset":   "medium",
			"crf":      "23",
			"c:a":      "aac",
			"b:a":      "128k",
			"movflags": "+faststart",
		}).
		OverWriteOutput().
		Compile()

	parser := newProgressParser(durationSeconds, onProgress)
	cmd.Stderr = parser

	if err := runWithContext(ctx, cmd); err != nil {
		return &ToolError{Op: "transcode", Output: parser.Tail(), Err: err}
	}
	return nil
}

// Thumbnail grabs a single frame at the given offset.
func (f *FFmpeg) Thumbnail(inputPath, outputPath string, atSeconds float64) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("create thumbnail dir: %w", err)
	}

	err := ffmpeg.Input(inputPath, ffmpeg.KwArgs{
		"ss": fmt.Sprintf("%.2f", atSeconds),
	}).
		Output(outputPath, ffmpeg.KwArgs{
			"vframes": "1",
			"q:v":     "2",
		}).
		OverWriteOutput().
		Run()
	if err != nil {
		return &ToolError{Op: "thumbnail", Err: err}
	}
	return nil
}

// runWithContext runs a compiled command, killing it when ctx is cancelled
// or times out.
func runWithContext(ctx context.Context, cmd *exec.Cmd) error {
	if err := cmd.Start(); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case <-ctx.Done():
		_ = cmd.Process.Kill()
		<-done
		return ctx.Err()
	case err := <-done:
		return err
	}
}

// ────────────────────────────────────────────────────────────────────────────
// Progress parsing
// ────────────────────────────────────────────────────────────────────────────

var timeRe = regexp.MustCompile(`time=(\d+):(\d+):(\d+(?:\.\d+)?)`)

const diagTailSize = 8 * 1024

// progressParser is an io.Writer for ffmpeg's stderr. It keeps the last
// chunk of output for diagnostics and converts time= reports into a
// monotonically increasing 0–99 percentage.
type progressParser struct {
	mu         sync.Mutex
	duration   float64
	onProgress func(int)
	last       int
	tail       []byte
}

func newProgressParser(durationSeconds float64, onProgress func(int)) *progressParser {
	return &progressParser{duration: durationSeconds, onProgress: onProgress}
}

func (p *progressParser) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.tail = append(p.tail, b...)
	if len(p.tail) > diagTailSize {
		p.tail = p.tail[len(p.tail)-diagTailSize:]
	}

	if p.onProgress == nil || p.duration <= 0 {
		return len(b), nil
	}

	for _, m := range timeRe.FindAllStringSubmatch(string(b), -1) {
		hours, _ := strconv.ParseFloat(m[1], 64)
		minutes, _ := strconv.ParseFloat(m[2], 64)
		seconds, _ := strconv.ParseFloat(m[3], 64)
		elapsed := hours*3600 + minutes*60 + seconds

		pct := int(elapsed / p.duration * 100)
		if pct > 99 {
			pct = 99
		}
		if pct > p.last {
			p.last = pct
			p.onProgress(pct)
		}
	}
	return len(b), nil
}

// Tail returns the captured end of the tool's output for diagnostics.
func (p *progressParser) Tail() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return string(p.tail)
}
