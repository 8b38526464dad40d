package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"github.com/watusiii/tool-stopmotion/internal/retime"
)

// Decoder streams RGBA frames out of a video file through an ffmpeg child
// process. It implements retime.FrameSource. The pipe only moves forward:
// forward seeks drain it, backward seeks restart the child at the target
// frame. A decoder must not be shared between renders.
type Decoder struct {
	path   string
	meta   retime.Metadata
	logger *zap.Logger
	ctx    context.Context

	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr *bytes.Buffer
	pos    int // source index of the next frame on the pipe
}

func NewDecoder(ctx context.Context, path string, meta retime.Metadata, logger *zap.Logger) (*Decoder, error) {
	if meta.Width < 1 || meta.Height < 1 {
		return nil, fmt.Errorf("%w: bad frame dimensions %dx%d", retime.ErrInvalidInput, meta.Width, meta.Height)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Decoder{path: path, meta: meta, logger: logger, ctx: ctx}
	if err := d.start(0); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Decoder) start(from int) error {
	d.stop()

	args := []string{"-v", "error", "-i", d.path}
	if from > 0 {
		args = append(args, "-vf", fmt.Sprintf("select=gte(n\\,%d)", from), "-vsync", "0")
	}
	args = append(args, "-f", "rawvideo", "-pix_fmt", "rgba", "pipe:1")

	cmd := exec.CommandContext(d.ctx, "ffmpeg", args...)
	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("%w: open decode pipe: %v", retime.ErrDecode, err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: start ffmpeg for %s: %v", retime.ErrDecode, d.path, err)
	}

	d.cmd, d.stdout, d.stderr, d.pos = cmd, stdout, stderr, from
	return nil
}

func (d *Decoder) stop() {
	if d.cmd == nil {
		return
	}
	d.stdout.Close()
	if d.cmd.Process != nil {
		_ = d.cmd.Process.Kill()
	}
	_ = d.cmd.Wait()
	d.cmd = nil
}

func (d *Decoder) Metadata() retime.Metadata { return d.meta }

// Next reads one frame off the pipe and advances the cursor.
func (d *Decoder) Next() (*retime.Frame, error) {
	if d.cmd == nil {
		return nil, fmt.Errorf("%w: decoder is closed", retime.ErrDecode)
	}

	pix := make([]byte, d.meta.Width*d.meta.Height*4)
	if _, err := io.ReadFull(d.stdout, pix); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("%w: read frame %d: %v (ffmpeg: %s)",
			retime.ErrDecode, d.pos, err, strings.TrimSpace(d.stderr.String()))
	}

	f := &retime.Frame{Index: d.pos, Width: d.meta.Width, Height: d.meta.Height, Pix: pix}
	d.pos++
	return f, nil
}

// Seek repositions the cursor. Forward seeks read and discard intermediate
// frames; backward seeks restart the decode at the target index.
func (d *Decoder) Seek(index int) error {
	if index < 0 {
		return fmt.Errorf("%w: negative seek index %d", retime.ErrInvalidInput, index)
	}
	if index == d.pos {
		return nil
	}
	if index > d.pos {
		for d.pos < index {
			if _, err := d.Next(); err != nil {
				return err
			}
		}
		return nil
	}

	d.logger.Debug("restarting decode for backward seek",
		zap.Int("from", d.pos),
		zap.Int("to", index),
	)
	return d.start(index)
}

func (d *Decoder) Close() error {
	d.stop()
	return nil
}
