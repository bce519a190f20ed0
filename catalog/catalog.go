package catalog

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// ErrEmptyCatalog indicates a source directory with no usable images
var ErrEmptyCatalog = errors.New("no usable images in directory")

// Asset is one usable image discovered in the source directory. Raw
// bytes are read at encode time, not at scan time.
type Asset struct {
	Path   string
	Format string // decoder name from the header: "jpeg" or "png"
	Width  int
	Height int
}

// Catalog is an immutable, filename-ordered set of image assets. The
// order is stable across runs on the same directory contents.
type Catalog struct {
	dir    string
	assets []Asset
}

// Scan builds a catalog from the images directly inside dir (no
// recursion). Candidates are matched by extension (.jpg, .jpeg, .png,
// case-insensitive), then their headers are decoded to verify the format
// and record dimensions. Files that fail the header check are skipped
// with a warning. Scan fails with ErrEmptyCatalog when nothing usable
// remains.
func Scan(dir string) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read image directory %s: %w", dir, err)
	}

	// ReadDir returns entries sorted by filename, which gives the
	// catalog its stable order for free.
	var assets []Asset
	for _, entry := range entries {
		if entry.IsDir() || !supportedExt(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		asset, err := probe(path)
		if err != nil {
			slog.Warn("skipping unusable image", "path", path, "error", err)
			continue
		}
		assets = append(assets, asset)
	}

	if len(assets) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyCatalog, dir)
	}
	return &Catalog{dir: dir, assets: assets}, nil
}

func supportedExt(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png":
		return true
	}
	return false
}

// probe decodes just the image header for dimensions and the real format
func probe(path string) (Asset, error) {
	f, err := os.Open(path)
	if err != nil {
		return Asset{}, err
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return Asset{}, err
	}
	return Asset{Path: path, Format: format, Width: cfg.Width, Height: cfg.Height}, nil
}

// Dir returns the scanned directory
func (c *Catalog) Dir() string {
	return c.dir
}

// Len returns the number of usable assets
func (c *Catalog) Len() int {
	return len(c.assets)
}

// Asset returns the asset at index i in catalog order
func (c *Catalog) Asset(i int) Asset {
	return c.assets[i]
}

// Assets returns the full asset list in catalog order. Callers must not
// modify it.
func (c *Catalog) Assets() []Asset {
	return c.assets
}
