package storage

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	return buf.Bytes()
}

func TestDetectImage(t *testing.T) {
	ct, ext, err := DetectImage(pngBytes(t))
	require.NoError(t, err)
	assert.Equal(t, "image/png", ct)
	assert.Equal(t, ".png", ext)

	_, _, err = DetectImage([]byte("%PDF-1.4 not an image"))
	assert.ErrorIs(t, err, ErrNotImage)

	_, _, err = DetectImage(make([]byte, MaxImageSize+1))
	assert.ErrorIs(t, err, ErrImageTooLarge)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "captures/42/abc.jpg", CaptureKey("42", "abc"))
	assert.Equal(t, "captures/x/abc.jpg", CaptureKey("../x", "abc"))
	assert.Equal(t, "portraits/u1/p.png", PortraitKey("u1", "p", ".png"))
}
