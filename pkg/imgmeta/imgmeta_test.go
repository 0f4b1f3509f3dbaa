package imgmeta

import (
	"encoding/binary"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/tiff"
)

func writeImage(t *testing.T, path string, w, h int, encode func(f *os.File, img image.Image) error) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := encode(f, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
}

func TestDimensionsStandardFormats(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name   string
		encode func(f *os.File, img image.Image) error
	}{
		{"page.png", func(f *os.File, img image.Image) error { return png.Encode(f, img) }},
		{"page.jpg", func(f *os.File, img image.Image) error { return jpeg.Encode(f, img, nil) }},
		{"page.tif", func(f *os.File, img image.Image) error { return tiff.Encode(f, img, nil) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name)
			writeImage(t, path, 120, 180, tt.encode)

			w, h, err := Dimensions(path)
			if err != nil {
				t.Fatalf("Dimensions failed: %v", err)
			}
			if w != 120 || h != 180 {
				t.Errorf("dimensions = %dx%d, want 120x180", w, h)
			}
		})
	}
}

// box builds a jp2 box with a 4-byte length header.
func box(boxType string, content []byte) []byte {
	out := make([]byte, 8, 8+len(content))
	binary.BigEndian.PutUint32(out[0:4], uint32(8+len(content)))
	copy(out[4:8], boxType)
	return append(out, content...)
}

func TestDimensionsJP2Container(t *testing.T) {
	ihdr := make([]byte, 14)
	binary.BigEndian.PutUint32(ihdr[0:4], 1500) // height
	binary.BigEndian.PutUint32(ihdr[4:8], 1000) // width

	var data []byte
	data = append(data, jp2Signature...)
	data = append(data, box("ftyp", []byte("jp2 \x00\x00\x00\x00jp2 "))...)
	data = append(data, box("jp2h", box("ihdr", ihdr))...)

	path := filepath.Join(t.TempDir(), "page.jp2")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	w, h, err := Dimensions(path)
	if err != nil {
		t.Fatalf("Dimensions failed: %v", err)
	}
	if w != 1000 || h != 1500 {
		t.Errorf("dimensions = %dx%d, want 1000x1500", w, h)
	}
}

func TestDimensionsRawCodestream(t *testing.T) {
	data := []byte{0xFF, 0x4F, 0xFF, 0x51, 0x00, 0x29, 0x00, 0x00}
	siz := make([]byte, 16)
	binary.BigEndian.PutUint32(siz[0:4], 1002) // Xsiz
	binary.BigEndian.PutUint32(siz[4:8], 1503) // Ysiz
	binary.BigEndian.PutUint32(siz[8:12], 2)   // XOsiz
	binary.BigEndian.PutUint32(siz[12:16], 3)  // YOsiz
	data = append(data, siz...)

	path := filepath.Join(t.TempDir(), "page.jp2")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	w, h, err := Dimensions(path)
	if err != nil {
		t.Fatalf("Dimensions failed: %v", err)
	}
	if w != 1000 || h != 1500 {
		t.Errorf("dimensions = %dx%d, want 1000x1500", w, h)
	}
}

func TestDimensionsNotJP2(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.jp2")
	if err := os.WriteFile(path, []byte("definitely not jpeg2000"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := Dimensions(path); err == nil {
		t.Error("garbage jp2 did not fail")
	}
}

func TestDimensionsUnreadable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.png")
	if err := os.WriteFile(path, []byte("not a png"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := Dimensions(path); err != nil {
		// Expected: header parse failure.
		return
	}
	t.Error("corrupt png did not fail")
}

func TestDimensionsMissingFile(t *testing.T) {
	if _, _, err := Dimensions(filepath.Join(t.TempDir(), "absent.png")); err == nil {
		t.Error("missing file did not fail")
	}
}
