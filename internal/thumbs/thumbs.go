// Package thumbs extracts the preview images embedded in sliced resin
// print files (.goo, .ctb) and caches them as PNGs, so files can be
// previewed before upload without a server round-trip.
package thumbs

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
)

// RotateAuto picks the rotation from the image content: previews stored
// landscape are turned a quarter turn counter-clockwise.
const RotateAuto = -1

// previewPair holds the two embedded previews of a slicer file.
type previewPair struct {
	small *image.NRGBA
	big   *image.NRGBA
}

// Result points at the cached PNGs written for one slicer file.
type Result struct {
	SmallPath string
	BigPath   string
}

// ScanResult summarizes a batch extraction.
type ScanResult struct {
	Total     int
	Extracted int
	Failed    int
}

// Extractor writes extracted previews into a cache directory using the
// server's naming scheme: <base>_small.png and <base>_big.png.
type Extractor struct {
	cacheDir string
}

// NewExtractor returns an Extractor caching into dir.
func NewExtractor(dir string) *Extractor {
	return &Extractor{cacheDir: dir}
}

// CacheDir returns the directory extracted previews are written to.
func (e *Extractor) CacheDir() string {
	return e.cacheDir
}

// Supported reports whether previews can be extracted from the file.
// The .prz format embeds no preview images.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".goo", ".ctb":
		return true
	default:
		return false
	}
}

// Extract pulls both previews out of the slicer file, auto-detects the
// orientation, and writes them to the cache. Existing cached PNGs for the
// same file are reused.
func (e *Extractor) Extract(path string) (Result, error) {
	return e.ExtractRotated(path, RotateAuto)
}

// ExtractRotated is Extract with an explicit rotation of 0, 90, 180 or 270
// degrees clockwise; RotateAuto detects it from the content.
func (e *Extractor) ExtractRotated(path string, rotation int) (Result, error) {
	result := e.cachePaths(path)
	if rotation == RotateAuto && exists(result.SmallPath) && exists(result.BigPath) {
		return result, nil
	}

	var (
		pair previewPair
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".goo":
		pair, err = extractGoo(path)
	case ".ctb":
		pair, err = extractCTB(path)
	default:
		return Result{}, fmt.Errorf("extract %s: no preview support for this file type", filepath.Base(path))
	}
	if err != nil {
		return Result{}, err
	}

	if rotation == RotateAuto {
		rotation = detectRotation(pair.big)
	}
	pair.small = rotate(pair.small, rotation)
	pair.big = rotate(pair.big, rotation)

	if err := os.MkdirAll(e.cacheDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("create cache dir: %w", err)
	}
	if err := writePNG(result.SmallPath, pair.small); err != nil {
		return Result{}, err
	}
	if err := writePNG(result.BigPath, pair.big); err != nil {
		return Result{}, err
	}
	return result, nil
}

// Scan extracts previews for every supported path, counting failures
// instead of stopping on them.
func (e *Extractor) Scan(paths []string) ScanResult {
	result := ScanResult{Total: len(paths)}
	for _, path := range paths {
		if !Supported(path) {
			result.Failed++
			continue
		}
		if _, err := e.Extract(path); err != nil {
			result.Failed++
			continue
		}
		result.Extracted++
	}
	return result
}

func (e *Extractor) cachePaths(path string) Result {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return Result{
		SmallPath: filepath.Join(e.cacheDir, base+"_small.png"),
		BigPath:   filepath.Join(e.cacheDir, base+"_big.png"),
	}
}

func writePNG(path string, img *image.NRGBA) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
