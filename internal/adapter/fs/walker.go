package fs

import (
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"doclookup/internal/port"
)

// Walker lists the documents directly inside a folder. Subdirectories are
// not descended into.
type Walker struct {
	includes []string
	excludes []string
}

func NewWalker(includes, excludes []string) *Walker {
	if len(includes) == 0 {
		includes = []string{"*"}
	}
	return &Walker{
		includes: includes,
		excludes: excludes,
	}
}

// Walk returns the regular files in root ordered by filename. os.ReadDir
// sorts by name, and that order is what assigns index ordinals, so two
// builds over the same folder produce the same mapping.
func (w *Walker) Walk(root string) ([]port.FileInfo, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	var files []port.FileInfo
	for _, entry := range entries {
		name := entry.Name()
		if !w.shouldInclude(name) || w.shouldExclude(name) {
			continue
		}

		path := filepath.Join(root, name)
		// Stat follows symlinks so a linked document is indexed like a plain one.
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}

		files = append(files, port.FileInfo{
			Name: name,
			Path: path,
			Size: info.Size(),
		})
	}

	return files, nil
}

func (w *Walker) shouldInclude(name string) bool {
	for _, pattern := range w.includes {
		matched, err := doublestar.Match(pattern, name)
		if err == nil && matched {
			return true
		}
	}
	return false
}

func (w *Walker) shouldExclude(name string) bool {
	for _, pattern := range w.excludes {
		matched, err := doublestar.Match(pattern, name)
		if err == nil && matched {
			return true
		}
	}
	return false
}
