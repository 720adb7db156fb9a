// Package service contains the media services and the background processing
// of the application
package service

import (
	"bytes"
	"fmt"
	"io"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"
)

const (
	thumbSize    = 320
	thumbQuality = 80
)

// Thumbnail is a JPEG preview of an image along with the source dimensions
type Thumbnail struct {
	Data   []byte
	Width  int
	Height int
}

// MakeThumbnail decodes an image, honoring its EXIF orientation, and fits it
// into a thumbSize square
func MakeThumbnail(r io.Reader) (*Thumbnail, error) {
	zap.L().Debug("Creating thumbnail for image")

	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image, %w", err)
	}

	bounds := img.Bounds()
	thumb := imaging.Fit(img, thumbSize, thumbSize, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(thumbQuality)); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail, %w", err)
	}

	return &Thumbnail{
		Data:   buf.Bytes(),
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}
