package rimage

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"image/png"
	"os"

	"github.com/lmittmann/ppm"
	"github.com/pkg/errors"
	"github.com/xfmoulet/qoi"

	"go.viam.com/depthcapture/utils"
)

// EncodeImage encodes img with the given mime type.
func EncodeImage(ctx context.Context, img image.Image, mimeType string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	var err error
	switch mimeType {
	case utils.MimeTypePNG:
		err = png.Encode(&buf, img)
	case utils.MimeTypeJPEG:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 75})
	case utils.MimeTypePPM:
		err = ppm.Encode(&buf, img)
	case utils.MimeTypeQOI:
		err = qoi.Encode(&buf, img)
	default:
		return nil, errors.Errorf("do not know how to encode %q", mimeType)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to encode %s", mimeType)
	}
	return buf.Bytes(), nil
}

// WriteImageToFile encodes img according to the extension of path and writes it there.
func WriteImageToFile(ctx context.Context, path string, img image.Image) error {
	mimeType := utils.MimeTypeFromPath(path)
	if mimeType == "" {
		return errors.Errorf("unsupported image file extension for %q", path)
	}
	encoded, err := EncodeImage(ctx, img, mimeType)
	if err != nil {
		return err
	}
	//nolint:gosec
	return os.WriteFile(path, encoded, 0o644)
}
