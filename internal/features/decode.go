// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package features extracts visual signals from paper-cut images: pixel
// statistics computed locally and a coarse category from an external
// classifier.
package features

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ImageDecodeError reports input that could not be decoded as an image.
type ImageDecodeError struct {
	Err error
}

func (e *ImageDecodeError) Error() string {
	return fmt.Sprintf("decoding image: %v", e.Err)
}

func (e *ImageDecodeError) Unwrap() error { return e.Err }

var errEmptyImage = errors.New("image has no pixels")

// Decode reads a PNG, JPEG, GIF, BMP, TIFF or WebP image. Every failure is
// an *ImageDecodeError.
func Decode(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, &ImageDecodeError{Err: err}
	}
	if b := img.Bounds(); b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, &ImageDecodeError{Err: errEmptyImage}
	}
	return img, nil
}

// EncodePNG encodes img as PNG. HTTP backends send images in this form.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding png: %w", err)
	}
	return buf.Bytes(), nil
}
