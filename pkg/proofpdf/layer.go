package proofpdf

import (
	"fmt"

	"codeberg.org/go-pdf/fpdf"
	"golang.org/x/text/encoding/charmap"

	"github.com/mkarlsen/hocrproof/pkg/hocr"
)

// drawTextLayer draws the page's effective word texts onto a named layer.
// The pageNum parameter is used to create unique layer names for each page.
func drawTextLayer(pdf *fpdf.Fpdf, page PageInput, pageNum int, config Config) error {
	layer := pdf.AddLayer(fmt.Sprintf("%s (Page %d)", config.LayerName, pageNum), true)
	pdf.BeginLayer(layer)
	pdf.SetFont(config.Font.Name, config.Font.Style, config.Font.Size)

	if config.Debug {
		pdf.SetTextColor(255, 0, 0) // highlight text in red
	} else {
		pdf.SetAlpha(0.0, "Normal") // hide text from normal view
	}

	encodingErrors := 0
	wordCount := 0

	for _, line := range page.Doc.Page.Lines {
		for _, word := range line.Words {
			text := word.Text
			if t, ok := page.Text[word.ID]; ok {
				text = t
			}
			if text == "" {
				continue
			}
			drawWord(pdf, word.BBox, text, config, &encodingErrors)
			wordCount++
		}
	}

	pdf.EndLayer()

	// Report encoding errors if more than a threshold
	if wordCount > 0 && encodingErrors > 0 && encodingErrors > wordCount/10 {
		return fmt.Errorf("character encoding issues in %d of %d words",
			encodingErrors, wordCount)
	}

	return nil
}

// drawWord renders a single word at its bounding box position, scaling the
// font so the string width matches the box width.
func drawWord(pdf *fpdf.Fpdf, bbox hocr.BoundingBox, text string, config Config, encodingErrors *int) {
	x := float64(bbox.X1)
	y := float64(bbox.Y1)
	wordWidth := float64(bbox.Width())

	// Convert text to ISO-8859-1 to avoid PDF encoding issues
	latin1, err := charmap.ISO8859_1.NewEncoder().String(text)
	if err != nil {
		// Track encoding errors but continue
		*encodingErrors++
		latin1 = text // fallback to raw text
	}

	strWidth := pdf.GetStringWidth(latin1)
	if strWidth > 0 {
		scale := wordWidth / strWidth
		pdf.SetFontSize(config.Font.Size * scale)
	}

	fontSize, _ := pdf.GetFontSize()
	y += fontSize * config.Font.AscentRatio

	pdf.Text(x, y, latin1)
	pdf.SetFontSize(config.Font.Size)

	if config.Debug {
		pdf.Rect(x, y-(fontSize*config.Font.AscentRatio), wordWidth, float64(bbox.Height()), "D")
	}
}
