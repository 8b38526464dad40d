// Package ffmpeg adapts the ffmpeg and ffprobe binaries to the engine's
// stream interfaces. All codec work happens in child processes; this package
// only moves raw RGBA frames across pipes.
package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/watusiii/tool-stopmotion/internal/retime"
)

type probeOutput struct {
	Streams []struct {
		Width      int    `json:"width"`
		Height     int    `json:"height"`
		RFrameRate string `json:"r_frame_rate"`
		NBFrames   string `json:"nb_frames"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Probe reads the video metadata of the file at path with ffprobe.
func Probe(ctx context.Context, path string) (retime.Metadata, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return retime.Metadata{}, fmt.Errorf("%w: video %s", retime.ErrNotFound, path)
	}

	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height,r_frame_rate,nb_frames",
		"-show_entries", "format=duration",
		"-of", "json",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return retime.Metadata{}, fmt.Errorf("%w: ffprobe %s: %v", retime.ErrDecode, path, err)
	}
	return parseProbe(out)
}

func parseProbe(data []byte) (retime.Metadata, error) {
	var po probeOutput
	if err := json.Unmarshal(data, &po); err != nil {
		return retime.Metadata{}, fmt.Errorf("%w: parse ffprobe output: %v", retime.ErrDecode, err)
	}
	if len(po.Streams) == 0 {
		return retime.Metadata{}, fmt.Errorf("%w: no video stream", retime.ErrDecode)
	}
	s := po.Streams[0]

	fps, err := parseRational(s.RFrameRate)
	if err != nil {
		return retime.Metadata{}, fmt.Errorf("%w: frame rate %q: %v", retime.ErrDecode, s.RFrameRate, err)
	}
	if s.Width < 1 || s.Height < 1 {
		return retime.Metadata{}, fmt.Errorf("%w: bad dimensions %dx%d", retime.ErrDecode, s.Width, s.Height)
	}

	meta := retime.Metadata{FPS: fps, Width: s.Width, Height: s.Height}

	// nb_frames is absent for some containers; fall back to duration * fps.
	if n, err := strconv.Atoi(s.NBFrames); err == nil {
		meta.FrameCount = n
	} else if d, err := strconv.ParseFloat(po.Format.Duration, 64); err == nil {
		meta.FrameCount = int(math.Round(d * fps))
	}
	return meta, nil
}

// parseRational evaluates ffprobe rate strings like "30000/1001" or "25".
func parseRational(s string) (float64, error) {
	num, den, found := strings.Cut(s, "/")
	n, err := strconv.ParseFloat(strings.TrimSpace(num), 64)
	if err != nil {
		return 0, err
	}
	if !found {
		return n, nil
	}
	d, err := strconv.ParseFloat(strings.TrimSpace(den), 64)
	if err != nil {
		return 0, err
	}
	if d == 0 {
		return 0, fmt.Errorf("zero denominator in %q", s)
	}
	return n / d, nil
}
