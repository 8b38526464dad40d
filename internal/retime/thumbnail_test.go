package retime

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/jpeg"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dataURIPrefix = "data:image/jpeg;base64,"

func decodeThumbnail(t *testing.T, uri string) image.Image {
	t.Helper()
	require.True(t, strings.HasPrefix(uri, dataURIPrefix))
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, dataURIPrefix))
	require.NoError(t, err)
	img, err := jpeg.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	return img
}

func TestThumbnailerRejectsBadWidth(t *testing.T) {
	_, err := NewThumbnailer(0)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestThumbnailPreservesAspectRatio(t *testing.T) {
	tn, err := NewThumbnailer(16)
	require.NoError(t, err)

	uri, err := tn.DataURI(testFrame(0, 64, 32))
	require.NoError(t, err)

	img := decodeThumbnail(t, uri)
	assert.Equal(t, 16, img.Bounds().Dx())
	assert.Equal(t, 8, img.Bounds().Dy())
}

func TestThumbnailDeterministic(t *testing.T) {
	tn, err := NewThumbnailer(12)
	require.NoError(t, err)

	f := testFrame(9, 48, 36)
	a, err := tn.DataURI(f)
	require.NoError(t, err)
	b, err := tn.DataURI(f)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestThumbnailVeryWideFrame(t *testing.T) {
	tn, err := NewThumbnailer(10)
	require.NoError(t, err)

	// 100:1 aspect would round the height to zero; it is clamped to one row.
	uri, err := tn.DataURI(testFrame(0, 400, 4))
	require.NoError(t, err)
	img := decodeThumbnail(t, uri)
	assert.Equal(t, 1, img.Bounds().Dy())
}

func TestThumbnailMalformedFrame(t *testing.T) {
	tn, err := NewThumbnailer(10)
	require.NoError(t, err)

	_, err = tn.DataURI(&Frame{Width: 4, Height: 4, Pix: make([]byte, 7)})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = tn.DataURI(&Frame{Width: 0, Height: 4})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
