package proofread

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mkarlsen/hocrproof/pkg/hocr"
	"github.com/mkarlsen/hocrproof/pkg/imgmeta"
)

// Recognized page image extensions. JP2 decoding beyond the header is
// delegated to external tooling; the core only needs pixel dimensions.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".tif":  true,
	".tiff": true,
	".jp2":  true,
}

const hocrExtension = ".hocr"

// Loader scans a directory tree and correlates images with their hOCR
// transcriptions into proofreading units.
//
// Two layouts are supported. Flat: images and transcriptions side by side,
// grouped by shared basename. Batch: one subdirectory per page, each
// holding one image and any number of transcriptions. A root that mixes
// both is rejected as ambiguous.
type Loader struct {
	cfg Config
	log *slog.Logger
}

// NewLoader creates a loader. A nil logger falls back to slog.Default.
func NewLoader(cfg Config, log *slog.Logger) *Loader {
	if log == nil {
		log = slog.Default()
	}
	return &Loader{cfg: cfg, log: log}
}

// Load builds a session from the directory at root. Loading is best-effort
// per unit: transcriptions that fail to parse or units lacking an image are
// recorded as problems on the session, not fatal errors. Only structural
// ambiguity at the root (or an empty root) aborts the load.
func Load(root string) (*Session, error) {
	return NewLoader(DefaultConfig(), nil).Load(root)
}

// Load builds a session from the directory at root. See the package-level
// Load for error semantics.
func (l *Loader) Load(root string) (*Session, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		// A file selection means "load its directory".
		root = filepath.Dir(root)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	var subdirs []string
	var pageFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() {
			subdirs = append(subdirs, name)
			continue
		}
		ext := strings.ToLower(filepath.Ext(name))
		if imageExtensions[ext] || ext == hocrExtension {
			pageFiles = append(pageFiles, name)
		}
	}

	if len(pageFiles) > 0 && len(subdirs) > 0 {
		return nil, fmt.Errorf("%s: %w", root, ErrAmbiguousStructure)
	}

	var units []*Unit
	var problems []UnitProblem
	switch {
	case len(subdirs) > 0:
		l.log.Info("detected batch directory structure", "root", root, "subdirectories", len(subdirs))
		units, problems = l.loadBatches(root, subdirs)
	case len(pageFiles) > 0:
		l.log.Info("detected flat directory structure", "root", root, "files", len(pageFiles))
		units, problems = l.loadFlat(root, pageFiles)
	default:
		return nil, fmt.Errorf("%s: %w", root, ErrNoUnits)
	}

	if len(units) == 0 {
		return nil, fmt.Errorf("%s: %w", root, ErrNoUnits)
	}

	totalBytes, err := totalSize(root)
	if err != nil {
		return nil, err
	}

	l.log.Info("loaded proofreading units", "units", len(units), "problems", len(problems), "bytes", totalBytes)

	s := NewSession(units)
	s.problems = problems
	s.totalBytes = totalBytes
	return s, nil
}

// loadFlat groups the root's page files by basename into units.
func (l *Loader) loadFlat(root string, names []string) ([]*Unit, []UnitProblem) {
	type group struct {
		images []string
		hocrs  []string
	}
	groups := make(map[string]*group)
	for _, name := range names {
		base := unitBasename(name)
		g := groups[base]
		if g == nil {
			g = &group{}
			groups[base] = g
		}
		path := filepath.Join(root, name)
		if strings.ToLower(filepath.Ext(name)) == hocrExtension {
			g.hocrs = append(g.hocrs, path)
		} else {
			g.images = append(g.images, path)
		}
	}

	basenames := make([]string, 0, len(groups))
	for base := range groups {
		basenames = append(basenames, base)
	}
	sort.Strings(basenames)

	var units []*Unit
	var problems []UnitProblem
	for _, base := range basenames {
		g := groups[base]
		unit := l.buildUnit(base, "", g.images, g.hocrs, &problems)
		units = append(units, unit)
	}
	return units, problems
}

// loadBatches builds one unit per subdirectory.
func (l *Loader) loadBatches(root string, subdirs []string) ([]*Unit, []UnitProblem) {
	sort.Strings(subdirs)

	var units []*Unit
	var problems []UnitProblem
	for _, subdir := range subdirs {
		subpath := filepath.Join(root, subdir)
		entries, err := os.ReadDir(subpath)
		if err != nil {
			problems = append(problems, UnitProblem{Unit: subdir, Path: subpath, Err: err})
			continue
		}

		var images, hocrs []string
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			ext := strings.ToLower(filepath.Ext(entry.Name()))
			path := filepath.Join(subpath, entry.Name())
			if imageExtensions[ext] {
				images = append(images, path)
			} else if ext == hocrExtension {
				hocrs = append(hocrs, path)
			}
		}

		if len(images) == 0 && len(hocrs) == 0 {
			l.log.Warn("subdirectory holds no page files, skipping", "subdirectory", subdir)
			continue
		}

		base := subdir
		if len(images) > 0 {
			sort.Strings(images)
			base = unitBasename(filepath.Base(images[0]))
		}
		unit := l.buildUnit(base, subdir, images, hocrs, &problems)
		units = append(units, unit)
	}
	return units, problems
}

// buildUnit assembles one unit from its discovered files, recording any
// per-unit failures instead of failing the load.
func (l *Loader) buildUnit(base, subdir string, images, hocrs []string, problems *[]UnitProblem) *Unit {
	unitKey := base
	if subdir != "" {
		unitKey = subdir
	}

	unit := &Unit{Basename: base, Subdirectory: subdir}

	sort.Strings(images)
	sort.Strings(hocrs)

	if len(images) == 0 {
		if len(hocrs) > 0 {
			*problems = append(*problems, UnitProblem{
				Unit: unitKey,
				Err:  fmt.Errorf("transcriptions present but no image file"),
			})
		}
	} else {
		if len(images) > 1 {
			l.log.Warn("multiple images for unit, using first", "unit", unitKey, "image", images[0])
		}
		unit.ImagePath = images[0]
		unit.ImageFilename = filepath.Base(images[0])
		w, h, err := imgmeta.Dimensions(unit.ImagePath)
		if err != nil {
			*problems = append(*problems, UnitProblem{Unit: unitKey, Path: unit.ImagePath, Err: err})
		} else {
			unit.ImageWidth = w
			unit.ImageHeight = h
		}
	}

	for _, path := range hocrs {
		doc, err := hocr.ParseFile(path)
		if err != nil {
			l.log.Error("failed to parse transcription", "unit", unitKey, "path", path, "error", err)
			*problems = append(*problems, UnitProblem{Unit: unitKey, Path: path, Err: err})
			continue
		}
		unit.Documents = append(unit.Documents, doc)
	}
	unit.sortDocuments()

	if len(unit.Documents) == 0 && unit.ImagePath != "" {
		l.log.Warn("no usable transcriptions for unit", "unit", unitKey)
	}
	return unit
}

// unitBasename strips the extension and well-known revision suffixes, so
// 'page_001-proofread.hocr' groups with 'page_001.jpg'.
func unitBasename(filename string) string {
	name := strings.TrimSuffix(filename, filepath.Ext(filename))
	for _, suffix := range []string{"-proofread", "_proofread", "-ocr", "_ocr"} {
		if strings.HasSuffix(name, suffix) {
			name = strings.TrimSuffix(name, suffix)
			break
		}
	}
	return name
}

// totalSize sums the byte size of every file under root. The caller uses it
// for quota decisions; the core only reports.
func totalSize(root string) (int64, error) {
	var total int64
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			info, err := d.Info()
			if err != nil {
				return err
			}
			total += info.Size()
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}
