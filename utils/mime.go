package utils

import (
	"path/filepath"
	"strings"
)

const (
	// MimeTypeRawDepth is a raw rimage.DepthMap.
	MimeTypeRawDepth = "image/raw-depth"

	// MimeTypeRawRGB is packed 8-bit RGB, as delivered by color streams.
	MimeTypeRawRGB = "image/raw-rgb"

	// MimeTypeJPEG is regular jpgs.
	MimeTypeJPEG = "image/jpeg"

	// MimeTypePNG is regular pngs.
	MimeTypePNG = "image/png"

	// MimeTypePPM is for binary .ppm portable pixmaps.
	MimeTypePPM = "image/x-portable-pixmap"

	// MimeTypeQOI is for .qoi "Quite OK Image" for lossless, fast encoding/decoding.
	MimeTypeQOI = "image/qoi"
)

// MimeTypeFromPath returns the image mime type implied by a file extension, or "" if the
// extension is not an image format we encode.
func MimeTypeFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return MimeTypeJPEG
	case ".png":
		return MimeTypePNG
	case ".ppm":
		return MimeTypePPM
	case ".qoi":
		return MimeTypeQOI
	default:
		return ""
	}
}
