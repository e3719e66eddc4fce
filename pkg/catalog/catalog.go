// Package catalog enumerates the regular files of a directory tree
package catalog

import (
	"context"
	"fmt"

	"github.com/sdejongh/dirlink/pkg/logging"
	"github.com/sdejongh/dirlink/pkg/models"
	"github.com/sdejongh/dirlink/pkg/storage"
)

// Options controls which files are cataloged
type Options struct {
	Side            models.Side
	SearchPatterns  []string // empty selects all files
	ExcludePatterns []string
}

// SkippedEntry is an entry left out of the catalog because it could not be read
type SkippedEntry struct {
	Path string
	Err  error
}

// Catalog maps absolute paths of regular files to their entries.
// It is built once and read-only afterwards.
type Catalog struct {
	root    string
	side    models.Side
	entries []models.FileEntry
	index   map[string]int
	skipped []SkippedEntry
}

// Build walks the backend root and records every regular file selected by opts.
// Symlinks and other non-regular entries are never recorded. A missing root
// fails with PathNotFound; unreadable entries are logged and skipped.
func Build(ctx context.Context, backend storage.Backend, opts Options, logger logging.Logger) (*Catalog, error) {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	if err := ValidatePatterns(opts.SearchPatterns); err != nil {
		return nil, err
	}
	if err := ValidatePatterns(opts.ExcludePatterns); err != nil {
		return nil, err
	}

	infos, err := backend.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to catalog %s directory: %w", opts.Side, err)
	}

	c := &Catalog{
		root:  backend.Root(),
		side:  opts.Side,
		index: make(map[string]int, len(infos)),
	}

	for _, info := range infos {
		if info.Err != nil {
			c.skipped = append(c.skipped, SkippedEntry{Path: info.Path, Err: info.Err})
			logger.Warn(ctx, "Skipping unreadable entry", logging.Fields{
				"side":  string(opts.Side),
				"path":  info.Path,
				"error": info.Err.Error(),
			})
			continue
		}
		if !info.IsRegular() {
			if info.IsSymlink {
				logger.Debug(ctx, "Ignoring symlink", logging.Fields{"side": string(opts.Side), "path": info.Path})
			}
			continue
		}
		if isExcluded(info.RelativePath, opts.ExcludePatterns) {
			logger.Debug(ctx, "Excluded", logging.Fields{"side": string(opts.Side), "path": info.Path})
			continue
		}
		if !matchesSearch(info.RelativePath, opts.SearchPatterns) {
			continue
		}

		c.index[info.Path] = len(c.entries)
		c.entries = append(c.entries, models.FileEntry{
			Path:         info.Path,
			RelativePath: info.RelativePath,
			Size:         uint64(info.Size),
		})
	}

	logger.Info(ctx, "Catalog built", logging.Fields{
		"side":    string(opts.Side),
		"root":    c.root,
		"files":   len(c.entries),
		"skipped": len(c.skipped),
	})

	return c, nil
}

// Root returns the absolute root of the cataloged tree
func (c *Catalog) Root() string {
	return c.root
}

// Side returns the tree side this catalog belongs to
func (c *Catalog) Side() models.Side {
	return c.side
}

// Len returns the number of cataloged files
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Entries returns the cataloged files in enumeration order
func (c *Catalog) Entries() []models.FileEntry {
	return c.entries
}

// Get looks up an entry by absolute path
func (c *Catalog) Get(path string) (models.FileEntry, bool) {
	i, ok := c.index[path]
	if !ok {
		return models.FileEntry{}, false
	}
	return c.entries[i], true
}

// Skipped returns the entries that could not be read
func (c *Catalog) Skipped() []SkippedEntry {
	return c.skipped
}

// TotalBytes returns the combined size of all entries
func (c *Catalog) TotalBytes() uint64 {
	var total uint64
	for _, e := range c.entries {
		total += e.Size
	}
	return total
}

// BySize groups entries by size, keeping enumeration order within each group
func (c *Catalog) BySize() map[uint64][]models.FileEntry {
	groups := make(map[uint64][]models.FileEntry)
	for _, e := range c.entries {
		groups[e.Size] = append(groups[e.Size], e)
	}
	return groups
}
