// hocrproof is a command-line front end for proofreading OCR output.
//
// It loads a directory of scanned page images with their hOCR
// transcriptions, cross-checks the transcriptions against each other and
// against the image dimensions, applies corrections from an edits file,
// and exports corrected hOCR, a merged whole-book hOCR file, plain text,
// or a searchable proof PDF.
//
// Usage:
//
//	hocrproof -dir pages/ [options]
//
// Required flags:
//
//	-dir string        Directory to load (flat page files or batch subdirectories)
//
// Processing options:
//
//	-config string     Path to a YAML settings file (bbox tolerances, quota)
//	-edits string      Path to a YAML edits file applied before export
//	-report            Print the per-unit validation report
//	-skip-matching     Omit fully matching units from the report
//
// Output options:
//
//	-export-dir string Directory to write corrected hOCR for edited units
//	-merged string     Path to write a single merged hOCR file for all units
//	-text string       Path to write the corrected plain text
//	-pdf string        Path to write a searchable proof PDF
//	-pdf-debug         Render the PDF text layer visibly for position checks
//
// The edits file lists word corrections:
//
//	edits:
//	  - unit: 0
//	    word: word_1_7
//	    text: "chief"
//	    variant: 0
//
// Example:
//
//	hocrproof -dir scans/ -report -skip-matching
//	hocrproof -dir scans/ -edits fixes.yml -export-dir out/ -merged book.hocr
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/mkarlsen/hocrproof/pkg/hocr"
	"github.com/mkarlsen/hocrproof/pkg/proofpdf"
	"github.com/mkarlsen/hocrproof/pkg/proofread"
)

type editsFile struct {
	Edits []struct {
		Unit    int    `yaml:"unit"`
		Word    string `yaml:"word"`
		Text    string `yaml:"text"`
		Variant int    `yaml:"variant"`
	} `yaml:"edits"`
}

func main() {
	dirPath := flag.String("dir", "", "Directory of page images and hOCR files (required)")
	configPath := flag.String("config", "", "Path to YAML settings file")
	editsPath := flag.String("edits", "", "Path to YAML edits file")
	report := flag.Bool("report", false, "Print the validation report")
	skipMatching := flag.Bool("skip-matching", false, "Omit fully matching units from the report")
	exportDir := flag.String("export-dir", "", "Directory to write corrected hOCR for edited units")
	mergedPath := flag.String("merged", "", "Path to write a merged whole-book hOCR file")
	textPath := flag.String("text", "", "Path to write corrected plain text")
	pdfPath := flag.String("pdf", "", "Path to write a searchable proof PDF")
	pdfDebug := flag.Bool("pdf-debug", false, "Render the PDF text layer visibly")
	flag.Parse()

	if *dirPath == "" {
		fmt.Fprintln(os.Stderr, "Error: -dir flag is required")
		flag.PrintDefaults()
		os.Exit(1)
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg := proofread.DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = proofread.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
	}

	session, err := proofread.NewLoader(cfg, log).Load(*dirPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load %s: %v\n", *dirPath, err)
		os.Exit(1)
	}

	if session.TotalBytes() > cfg.MaxUploadSizeBytes() {
		log.Warn("working set exceeds configured size quota",
			"bytes", session.TotalBytes(), "quota", cfg.MaxUploadSizeBytes())
	}
	for _, problem := range session.Problems() {
		log.Warn("load problem", "unit", problem.Unit, "path", problem.Path, "error", problem.Err)
	}

	if *editsPath != "" {
		applyEdits(session, *editsPath, log)
	}

	if *report {
		printReport(session, cfg, *skipMatching)
	}

	exporter := proofread.NewExporter()

	if *exportDir != "" {
		files, err := exporter.ExportAll(session)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Export failed: %v\n", err)
			os.Exit(1)
		}
		for _, file := range files {
			out := filepath.Join(*exportDir, filepath.FromSlash(file.RelPath))
			if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
				fmt.Fprintf(os.Stderr, "Failed to create %s: %v\n", filepath.Dir(out), err)
				os.Exit(1)
			}
			if err := os.WriteFile(out, file.Data, 0o644); err != nil {
				fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", out, err)
				os.Exit(1)
			}
			fmt.Println("Exported:", out)
		}
		if len(files) == 0 {
			fmt.Println("No edited units to export.")
		}
	}

	if *mergedPath != "" {
		data, err := exporter.ExportMerged(session)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Merged export failed: %v\n", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*mergedPath, data, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", *mergedPath, err)
			os.Exit(1)
		}
		fmt.Println("Exported merged hOCR:", *mergedPath)
	}

	if *textPath != "" {
		if err := writeText(session, *textPath); err != nil {
			fmt.Fprintf(os.Stderr, "Text export failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Exported text:", *textPath)
	}

	if *pdfPath != "" {
		if err := writeProofPDF(session, *pdfPath, *pdfDebug, log); err != nil {
			fmt.Fprintf(os.Stderr, "PDF export failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Exported proof PDF:", *pdfPath)
	}
}

// applyEdits loads the YAML edits file and records each correction on the
// session. Individual failures are logged, not fatal.
func applyEdits(session *proofread.Session, path string, log *slog.Logger) {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read edits file: %v\n", err)
		os.Exit(1)
	}
	var edits editsFile
	if err := yaml.Unmarshal(data, &edits); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse edits file: %v\n", err)
		os.Exit(1)
	}

	applied := 0
	for _, edit := range edits.Edits {
		warn, err := session.SetOverride(edit.Unit, edit.Word, edit.Text, edit.Variant)
		if err != nil {
			log.Error("edit rejected", "unit", edit.Unit, "word", edit.Word, "error", err)
			continue
		}
		if warn != nil {
			log.Warn("suspicious edit", "unit", edit.Unit, "word", warn.WordID,
				"length", warn.Length, "original", warn.OriginalLength)
		}
		applied++
	}
	log.Info("applied edits", "applied", applied, "total", len(edits.Edits))
}

// printReport renders each unit's validation findings.
func printReport(session *proofread.Session, cfg proofread.Config, skipMatching bool) {
	validator := proofread.NewValidator(cfg)

	for i, unit := range session.Units() {
		rep := validator.Validate(unit)
		if skipMatching && rep.AllMatching() && rep.MaxSeverity() == proofread.SeverityOK {
			continue
		}

		fmt.Printf("Unit %d: %s (%d transcriptions)\n", i, unit.Basename, len(unit.Documents))
		for _, check := range rep.PageChecks {
			if check.Severity == proofread.SeverityOK {
				continue
			}
			fmt.Printf("  [%s] %s: page bbox %dx%d vs image %dx%d (delta %dx%d)\n",
				check.Severity, check.File,
				check.PageWidth, check.PageHeight,
				check.ImageWidth, check.ImageHeight,
				check.WidthDelta, check.HeightDelta)
		}
		for _, id := range rep.WordIDs() {
			wm := rep.Words[id]
			if wm.Severity == proofread.SeverityOK {
				continue
			}
			fmt.Printf("  [%s] %s: geometry %s, text %s\n", wm.Severity, id, wm.Geometry, wm.Text)
			for _, delta := range wm.Deltas {
				if !delta.Present {
					fmt.Printf("    %s: missing\n", delta.File)
				} else if delta.MaxDiff > 0 {
					fmt.Printf("    %s: max difference %dpx\n", delta.File, delta.MaxDiff)
				}
			}
		}
	}
}

// writeText dumps the corrected plain text of every unit, pages separated
// by blank lines.
func writeText(session *proofread.Session, path string) error {
	var out []byte
	for i, unit := range session.Units() {
		primary := unit.Primary()
		if primary == nil {
			continue
		}
		out = append(out, hocr.ExtractText(primary, session.OverridesFor(i))...)
		out = append(out, '\n')
	}
	return os.WriteFile(path, out, 0o644)
}

// writeProofPDF assembles a searchable PDF from every unit that has both
// an image and a transcription.
func writeProofPDF(session *proofread.Session, path string, debug bool, log *slog.Logger) error {
	var pages []proofpdf.PageInput
	for i, unit := range session.Units() {
		primary := unit.Primary()
		if primary == nil || unit.ImagePath == "" {
			log.Warn("skipping unit in PDF output", "unit", unit.Basename, "reason", "missing image or transcription")
			continue
		}
		imgData, err := os.ReadFile(unit.ImagePath)
		if err != nil {
			return fmt.Errorf("reading %s: %w", unit.ImagePath, err)
		}
		pages = append(pages, proofpdf.PageInput{
			Doc:   primary,
			Image: imgData,
			Text:  session.OverridesFor(i),
		})
	}

	config := proofpdf.DefaultConfig()
	config.Debug = debug
	data, err := proofpdf.Assemble(pages, config)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
