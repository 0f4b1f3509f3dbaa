// Package imgmeta probes the pixel dimensions of scanned page images.
//
// Standard formats (PNG, JPEG, TIFF) are read through image.DecodeConfig,
// which only parses headers. JPEG 2000 has no decoder in the Go ecosystem
// worth carrying for a header read, so the jp2 container and raw codestream
// headers are walked directly; callers that need actual pixels must use an
// external converter.
package imgmeta

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/tiff"
)

// Dimensions returns the pixel width and height of the image at path.
func Dimensions(path string) (width, height int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	if strings.ToLower(filepath.Ext(path)) == ".jp2" {
		width, height, err = jp2Dimensions(f)
		if err != nil {
			return 0, 0, fmt.Errorf("%s: %w", path, err)
		}
		return width, height, nil
	}

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("%s: failed to read image header: %w", path, err)
	}
	return cfg.Width, cfg.Height, nil
}
