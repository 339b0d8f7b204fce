package attendance

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"

	"github.com/treeplant/web/pkg/backend"
)

// DefaultJPEGQuality is the quality frames are re-encoded at.
const DefaultJPEGQuality = 80

// MaxFrameSize caps an uploaded frame.
const MaxFrameSize = 8 * 1024 * 1024

var ErrInvalidFrame = errors.New("Failed to capture image.")

// NormalizeJPEG decodes a captured frame (JPEG or PNG) and re-encodes it as JPEG.
func NormalizeJPEG(frame []byte, quality int) ([]byte, error) {
	if len(frame) == 0 || len(frame) > MaxFrameSize {
		return nil, ErrInvalidFrame
	}
	if quality <= 0 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	img, _, err := image.Decode(bytes.NewReader(frame))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFrame, err)
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// MarkForm builds the face matching request. username and name are sent even when empty.
func MarkForm(claim Claim, jpegData []byte) *backend.Form {
	return backend.NewForm().
		Set("username", claim.Username).
		Set("name", claim.SpokenName).
		Set("event_id", claim.EventID).
		File("face_image", "face.jpg", "image/jpeg", jpegData)
}
