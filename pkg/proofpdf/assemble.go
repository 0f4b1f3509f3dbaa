// Package proofpdf assembles a searchable proof PDF from scanned page
// images and their corrected hOCR transcriptions.
//
// Each PDF page is sized to the hOCR page extent, carries the scan image,
// and gets a text layer with the corrected word texts positioned at the
// word bounding boxes. The text is invisible in normal view but fully
// searchable and selectable; with Debug enabled it renders in red with box
// outlines for positioning checks.
package proofpdf

import (
	"bytes"
	"fmt"
	"image"
	"strings"

	_ "image/jpeg"
	_ "image/png"

	"codeberg.org/go-pdf/fpdf"

	"github.com/mkarlsen/hocrproof/pkg/hocr"
)

// PageInput is one page to assemble: the parsed transcription, the scan
// image bytes, and the effective word texts (overrides applied) keyed by
// word id. Words absent from Text keep their parsed text.
type PageInput struct {
	Doc   *hocr.Document
	Image []byte
	Text  map[string]string
}

// Assemble builds a PDF from the given pages in order.
func Assemble(pages []PageInput, config Config) ([]byte, error) {
	if len(pages) == 0 {
		return nil, fmt.Errorf("no pages to assemble")
	}

	pdf := fpdf.New("P", "pt", "A4", "")

	for i, page := range pages {
		if page.Doc == nil {
			return nil, fmt.Errorf("page %d has no transcription", i+1)
		}
		if len(page.Image) == 0 {
			return nil, fmt.Errorf("page %d has no image data", i+1)
		}
		imageType, err := detectImageType(page.Image)
		if err != nil {
			return nil, fmt.Errorf("page %d has invalid image format: %w", i+1, err)
		}

		w := float64(page.Doc.Page.BBox.Width())
		h := float64(page.Doc.Page.BBox.Height())
		pdf.AddPageFormat("P", fpdf.SizeType{Wd: w, Ht: h})

		imageName := fmt.Sprintf("img%d", i)
		opts := fpdf.ImageOptions{ReadDpi: false, ImageType: imageType}
		pdf.RegisterImageOptionsReader(imageName, opts, bytes.NewReader(page.Image))
		pdf.ImageOptions(imageName, 0, 0, w, h, false, opts, 0, "")

		if err := drawTextLayer(pdf, page, i+1, config); err != nil {
			return nil, fmt.Errorf("failed to draw text layer for page %d: %w", i+1, err)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// detectImageType tries to figure out whether the data is PNG, JPEG, etc.
func detectImageType(data []byte) (string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to decode image config: %w", err)
	}
	return strings.ToUpper(format), nil
}
