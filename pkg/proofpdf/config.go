package proofpdf

// Config holds user options for assembling a proof PDF.
type Config struct {
	Debug     bool   // Render the text layer visibly with box outlines
	LayerName string // Base name of the text layer (page number is appended)
	Font      FontConfig
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Debug:     false,
		LayerName: "Corrected Text", // Formatted as "Corrected Text (Page X)" in the final PDF
		Font:      DefaultFont,
	}
}

// FontConfig contains font settings for the text layer.
type FontConfig struct {
	Name        string  // Font name (e.g., "Helvetica")
	Style       string  // Font style ("", "B", "I", "BI")
	Size        float64 // Default font size
	AscentRatio float64 // Vertical positioning ratio
}

// DefaultFont sets the default font to Helvetica which is tried and tested
// for invisible text layers.
var DefaultFont = FontConfig{
	Name:        "Helvetica",
	Style:       "",
	Size:        10,
	AscentRatio: 0.718,
}
