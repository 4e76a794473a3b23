package filewalker

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// SupportedExtensions lists file types handled by the tool.
var SupportedExtensions = map[string]bool{
	".msbt": true,
}

// Walker discovers message files under a root path.
type Walker struct {
	extensions map[string]bool
}

// NewWalker creates a Walker for SupportedExtensions.
func NewWalker() *Walker {
	return &Walker{extensions: SupportedExtensions}
}

// FileEntry represents a discovered file ready for processing.
type FileEntry struct {
	Path string
	// Rel is Path relative to the walk root, using forward slashes.
	Rel string
}

// Walk returns every supported file under root in lexical order.
// If root is itself a file it is returned alone, whatever its extension.
func (w *Walker) Walk(root string) ([]FileEntry, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root path: %w", err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return []FileEntry{{Path: root, Rel: filepath.Base(root)}}, nil
	}

	var entries []FileEntry

	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Error walking path")
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !w.extensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		entries = append(entries, FileEntry{Path: path, Rel: filepath.ToSlash(rel)})
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}

	log.Info().Int("count", len(entries)).Str("root", root).Msg("Discovered files")
	return entries, nil
}
