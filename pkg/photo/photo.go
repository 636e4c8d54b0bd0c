// Package photo prepares uploaded portrait images for embedding in the
// family graph.
//
// A photo is an opaque string payload on a person record. This package
// produces that payload: the source image is decoded, downscaled so its
// width never exceeds [MaxWidth], re-encoded as JPEG and wrapped in a data
// URI. Photo processing is best-effort by design - callers log failures as
// warnings and keep the person without a photo, they never fail the edit.
package photo

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/kintreehq/kintree/pkg/kterrors"
)

// MaxWidth is the upper bound on embedded photo width, in pixels.
// Wider images are scaled down preserving aspect ratio; images at or below
// the bound keep their dimensions.
const MaxWidth = 512

// jpegQuality balances payload size against visible artifacts for small
// portrait renditions.
const jpegQuality = 85

// dataURIPrefix precedes the base64 payload in every processed photo.
const dataURIPrefix = "data:image/jpeg;base64,"

// Process reads an image in any supported format (JPEG, PNG, GIF, TIFF,
// BMP), caps its width at [MaxWidth] and returns the re-encoded JPEG as a
// data URI.
func Process(r io.Reader) (string, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return "", kterrors.Wrap(kterrors.ErrCodeInvalidPhoto, err, "decoding image")
	}

	if img.Bounds().Dx() > MaxWidth {
		img = imaging.Resize(img, MaxWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return "", kterrors.Wrap(kterrors.ErrCodeInvalidPhoto, err, "encoding JPEG")
	}

	return dataURIPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// ProcessFile is Process over a file on disk.
func ProcessFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", kterrors.Wrap(kterrors.ErrCodeFileNotFound, err, "opening %s", path)
	}
	defer f.Close()
	return Process(f)
}

// Decode extracts the JPEG bytes from a processed photo payload.
func Decode(payload string) ([]byte, error) {
	raw, ok := strings.CutPrefix(payload, dataURIPrefix)
	if !ok {
		return nil, kterrors.New(kterrors.ErrCodeInvalidPhoto, "payload is not a photo data URI")
	}
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, kterrors.Wrap(kterrors.ErrCodeInvalidPhoto, err, "decoding photo payload")
	}
	return data, nil
}

// Size reports the decoded payload size in bytes, for logging.
func Size(payload string) int {
	raw, ok := strings.CutPrefix(payload, dataURIPrefix)
	if !ok {
		return 0
	}
	return base64.StdEncoding.DecodedLen(len(raw))
}

// Describe renders a short human-readable description of a payload, used
// by the CLI when listing people.
func Describe(payload string) string {
	if payload == "" {
		return "no photo"
	}
	return fmt.Sprintf("photo (%d bytes)", Size(payload))
}
