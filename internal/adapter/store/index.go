package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"doclookup/internal/domain"
	"doclookup/internal/port"
)

const (
	BackendFlat   = "flat"
	BackendQdrant = "qdrant"
)

// DefaultIndexFilename is used when the index path names a directory.
func DefaultIndexFilename(backend string) string {
	if backend == BackendQdrant {
		return "index.qdrant.yaml"
	}
	return "index.flat"
}

// IndexFile resolves the file an index is stored in. An existing directory
// gets the backend's default filename inside it.
func IndexFile(path, backend string) string {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return filepath.Join(path, DefaultIndexFilename(backend))
	}
	return path
}

// QdrantOptions holds connection settings for the qdrant backend.
type QdrantOptions struct {
	Addr       string
	Collection string
	Timeout    time.Duration
}

// Builder returns a function creating empty indexes for the backend. The
// qdrant builder resets its collection before returning.
func Builder(backend string, qopts QdrantOptions) (func(dimension int, info IndexInfo) (port.SimilarityIndex, error), error) {
	switch backend {
	case BackendFlat, "":
		return func(dimension int, info IndexInfo) (port.SimilarityIndex, error) {
			idx := NewFlatIndex(dimension)
			idx.Info = info
			return idx, nil
		}, nil
	case BackendQdrant:
		return func(dimension int, info IndexInfo) (port.SimilarityIndex, error) {
			q, err := NewQdrantIndex(qopts.Addr, qopts.Collection, dimension, qopts.Timeout)
			if err != nil {
				return nil, err
			}
			q.Info = info
			if err := q.Reset(); err != nil {
				q.Close()
				return nil, err
			}
			return q, nil
		}, nil
	default:
		return nil, fmt.Errorf("unsupported index backend: %s", backend)
	}
}

// LoadIndex opens a persisted index and its mapping sidecar. The two are
// only valid together, so a mismatch between them is an error.
func LoadIndex(path, backend string, timeout time.Duration) (port.SimilarityIndex, IndexInfo, domain.FileMapping, error) {
	file := IndexFile(path, backend)

	var (
		idx  port.SimilarityIndex
		info IndexInfo
	)
	switch backend {
	case BackendFlat, "":
		flat, err := LoadFlatIndex(file)
		if err != nil {
			return nil, info, nil, err
		}
		idx, info = flat, flat.Info
	case BackendQdrant:
		q, err := LoadQdrantIndex(file, timeout)
		if err != nil {
			return nil, info, nil, err
		}
		idx, info = q, q.Info
	default:
		return nil, info, nil, fmt.Errorf("unsupported index backend: %s", backend)
	}

	mapping, err := LoadMapping(MappingPath(file))
	if err != nil {
		return nil, info, nil, err
	}
	if err := CheckMapping(mapping, idx.Len()); err != nil {
		return nil, info, nil, err
	}
	return idx, info, mapping, nil
}
