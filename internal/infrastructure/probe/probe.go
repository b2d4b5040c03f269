// Package probe wraps the external format-probing binary (ffprobe). Probing
// is a blocking subprocess invocation; every call carries its own timeout
// and failures surface as errors for the caller to record, never as crashes.
package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// MediaInfo is the distilled answer of a probe run.
type MediaInfo struct {
	HasAudio   bool
	HasVideo   bool
	SampleRate int
	Width      int
	Height     int
	Duration   float64
}

// Tools shells out to ffprobe for stream introspection.
type Tools struct {
	logger      *logrus.Logger
	ffprobePath string
	timeout     time.Duration
}

// Option configures the probe tools.
type Option func(*Tools)

// WithBinary overrides the ffprobe binary path.
func WithBinary(path string) Option {
	return func(t *Tools) {
		if path != "" {
			t.ffprobePath = path
		}
	}
}

// WithTimeout overrides the per-invocation timeout.
func WithTimeout(d time.Duration) Option {
	return func(t *Tools) {
		if d > 0 {
			t.timeout = d
		}
	}
}

// New builds the probe tools with defaults suitable for a worker runtime.
func New(logger *logrus.Logger, opts ...Option) *Tools {
	t := &Tools{
		logger:      logger,
		ffprobePath: "ffprobe",
		timeout:     30 * time.Second,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// AssertReady verifies the probe binary is reachable in PATH.
func (t *Tools) AssertReady() error {
	if _, err := exec.LookPath(t.ffprobePath); err != nil {
		return fmt.Errorf("missing required binary %q in PATH: %w", t.ffprobePath, err)
	}
	return nil
}

type ffprobeOutput struct {
	Streams []struct {
		CodecType  string `json:"codec_type"`
		SampleRate string `json:"sample_rate"`
		Width      int    `json:"width"`
		Height     int    `json:"height"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Probe inspects the file's streams. The context bounds the subprocess via
// exec.CommandContext on top of the configured timeout.
func (t *Tools) Probe(ctx context.Context, path string) (MediaInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, t.ffprobePath,
		"-v", "error",
		"-print_format", "json",
		"-show_streams",
		"-show_format",
		path,
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		return MediaInfo{}, fmt.Errorf("ffprobe %s: %w; stderr=%s", path, err, stderr.String())
	}
	t.logger.WithFields(logrus.Fields{
		"component": "probe",
		"path":      path,
		"elapsed":   time.Since(start).String(),
	}).Debug("probed media file")

	var out ffprobeOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		return MediaInfo{}, fmt.Errorf("parse ffprobe output for %s: %w", path, err)
	}

	var info MediaInfo
	for _, stream := range out.Streams {
		switch stream.CodecType {
		case "audio":
			info.HasAudio = true
			if rate, err := strconv.Atoi(stream.SampleRate); err == nil && rate > info.SampleRate {
				info.SampleRate = rate
			}
		case "video":
			info.HasVideo = true
			if stream.Width > info.Width {
				info.Width = stream.Width
			}
			if stream.Height > info.Height {
				info.Height = stream.Height
			}
		}
	}
	if out.Format.Duration != "" {
		if d, err := strconv.ParseFloat(out.Format.Duration, 64); err == nil {
			info.Duration = d
		}
	}
	return info, nil
}
