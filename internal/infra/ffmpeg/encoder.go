package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"

	"github.com/watusiii/tool-stopmotion/internal/retime"
)

// Encoder feeds raw RGBA frames into an ffmpeg child process that writes an
// H.264 file at the requested container frame rate. It implements
// retime.FrameSink. Close finalizes the file and must be called before the
// output is read.
type Encoder struct {
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stderr    *bytes.Buffer
	frameSize int
	path      string
}

func NewEncoder(ctx context.Context, path string, meta retime.Metadata, frameRate float64) (*Encoder, error) {
	if frameRate <= 0 {
		return nil, fmt.Errorf("%w: output frame rate must be positive, got %v", retime.ErrInvalidInput, frameRate)
	}
	if meta.Width < 1 || meta.Height < 1 {
		return nil, fmt.Errorf("%w: bad frame dimensions %dx%d", retime.ErrInvalidInput, meta.Width, meta.Height)
	}

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-v", "error",
		"-y",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", meta.Width, meta.Height),
		"-r", strconv.FormatFloat(frameRate, 'f', -1, 64),
		"-i", "pipe:0",
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		path,
	)
	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: open encode pipe: %v", retime.ErrEncode, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: start ffmpeg for %s: %v", retime.ErrEncode, path, err)
	}

	return &Encoder{
		cmd:       cmd,
		stdin:     stdin,
		stderr:    stderr,
		frameSize: meta.Width * meta.Height * 4,
		path:      path,
	}, nil
}

func (e *Encoder) WriteFrame(pix []byte) error {
	if e.cmd == nil {
		return fmt.Errorf("%w: encoder is closed", retime.ErrEncode)
	}
	if len(pix) != e.frameSize {
		return fmt.Errorf("%w: frame is %d bytes, want %d", retime.ErrEncode, len(pix), e.frameSize)
	}
	if _, err := e.stdin.Write(pix); err != nil {
		return fmt.Errorf("%w: write to encoder: %v (ffmpeg: %s)",
			retime.ErrEncode, err, strings.TrimSpace(e.stderr.String()))
	}
	return nil
}

// Close drains the pipe and waits for ffmpeg to finalize the file.
func (e *Encoder) Close() error {
	if e.cmd == nil {
		return nil
	}
	cmd := e.cmd
	e.cmd = nil

	if err := e.stdin.Close(); err != nil {
		_ = cmd.Wait()
		return fmt.Errorf("%w: close encode pipe: %v", retime.ErrEncode, err)
	}
	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("%w: finalize %s: %v (ffmpeg: %s)",
			retime.ErrEncode, e.path, err, strings.TrimSpace(e.stderr.String()))
	}
	return nil
}
