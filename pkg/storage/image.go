package storage

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// MaxImageSize is the upload limit for event, profile and portrait pictures (5MB).
const MaxImageSize = 5 * 1024 * 1024

var (
	ErrNotImage      = errors.New("Please select a valid image file")
	ErrImageTooLarge = errors.New("image must be less than 5MB")
)

// DetectImage sniffs data and returns its MIME type and extension.
// The declared content type from the browser is ignored.
func DetectImage(data []byte) (contentType, ext string, err error) {
	if len(data) > MaxImageSize {
		return "", "", ErrImageTooLarge
	}
	m := mimetype.Detect(data)
	if !strings.HasPrefix(m.String(), "image/") {
		return "", "", ErrNotImage
	}
	return m.String(), m.Extension(), nil
}

// ReadUpload reads an uploaded file and checks it with DetectImage.
func ReadUpload(fh *multipart.FileHeader) (data []byte, contentType string, err error) {
	if fh.Size > MaxImageSize {
		return nil, "", ErrImageTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return nil, "", fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()
	data, err = io.ReadAll(io.LimitReader(f, MaxImageSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("read upload: %w", err)
	}
	contentType, _, err = DetectImage(data)
	if err != nil {
		return nil, "", err
	}
	return data, contentType, nil
}
