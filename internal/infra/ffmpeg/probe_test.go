package ffmpeg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watusiii/tool-stopmotion/internal/retime"
)

func TestParseRational(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"30/1", 30, false},
		{"30000/1001", 29.97002997002997, false},
		{"25", 25, false},
		{"24000/1001", 23.976023976023978, false},
		{"0/0", 0, true},
		{"N/A", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := parseRational(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.InDelta(t, tt.want, got, 1e-12, tt.in)
	}
}

func TestParseProbe(t *testing.T) {
	data := []byte(`{
		"streams": [{"width": 640, "height": 480, "r_frame_rate": "30/1", "nb_frames": "90"}],
		"format": {"duration": "3.000000"}
	}`)

	meta, err := parseProbe(data)
	require.NoError(t, err)
	assert.Equal(t, retime.Metadata{FPS: 30, FrameCount: 90, Width: 640, Height: 480}, meta)
	assert.InDelta(t, 3.0, meta.Duration(), 1e-9)
}

func TestParseProbeFrameCountFallback(t *testing.T) {
	// Some containers report no nb_frames; the count comes from duration.
	data := []byte(`{
		"streams": [{"width": 320, "height": 240, "r_frame_rate": "24000/1001", "nb_frames": "N/A"}],
		"format": {"duration": "2.002000"}
	}`)

	meta, err := parseProbe(data)
	require.NoError(t, err)
	assert.Equal(t, 48, meta.FrameCount)
}

func TestParseProbeNoVideoStream(t *testing.T) {
	_, err := parseProbe([]byte(`{"streams": [], "format": {"duration": "1.0"}}`))
	assert.ErrorIs(t, err, retime.ErrDecode)
}

func TestParseProbeBadDimensions(t *testing.T) {
	_, err := parseProbe([]byte(`{"streams": [{"width": 0, "height": 480, "r_frame_rate": "30/1"}]}`))
	assert.ErrorIs(t, err, retime.ErrDecode)
}
