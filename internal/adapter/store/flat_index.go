package store

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"go.etcd.io/bbolt"

	"doclookup/internal/domain"
)

var (
	bucketMeta    = []byte("meta")
	bucketVectors = []byte("vectors")

	keyDimension = []byte("dimension")
	keyCount     = []byte("count")
	keyBuildID   = []byte("build_id")
	keyModel     = []byte("model")
)

// IndexInfo describes how an index was built.
type IndexInfo struct {
	BuildID string
	Model   string
}

// FlatIndex is an exact L2 nearest-neighbor index over vectors held in
// memory. Every search scans all vectors; nothing is approximated.
// It persists to a single BoltDB file.
type FlatIndex struct {
	dimension int
	vectors   [][]float32
	Info      IndexInfo
}

// NewFlatIndex creates an empty index for vectors of the given dimension.
func NewFlatIndex(dimension int) *FlatIndex {
	return &FlatIndex{dimension: dimension}
}

// Add appends vectors in order; the first one gets ordinal Len().
func (f *FlatIndex) Add(vectors [][]float32) error {
	for i, v := range vectors {
		if len(v) != f.dimension {
			return fmt.Errorf("vector %d dimension mismatch: expected %d, got %d", i, f.dimension, len(v))
		}
	}
	for _, v := range vectors {
		cp := make([]float32, len(v))
		copy(cp, v)
		f.vectors = append(f.vectors, cp)
	}
	return nil
}

// Search returns the k vectors with the smallest squared L2 distance to
// query. Ties are broken by ordinal.
func (f *FlatIndex) Search(query []float32, k int) ([]domain.Neighbor, error) {
	// an empty index answers nothing, whatever the query width
	if len(f.vectors) == 0 {
		return nil, nil
	}
	if len(query) != f.dimension {
		return nil, fmt.Errorf("query dimension mismatch: expected %d, got %d", f.dimension, len(query))
	}
	if k <= 0 {
		return nil, nil
	}

	neighbors := make([]domain.Neighbor, len(f.vectors))
	for i, v := range f.vectors {
		neighbors[i] = domain.Neighbor{Ordinal: i, Distance: squaredL2(query, v)}
	}

	sort.SliceStable(neighbors, func(i, j int) bool {
		return neighbors[i].Distance < neighbors[j].Distance
	})

	if k > len(neighbors) {
		k = len(neighbors)
	}
	return neighbors[:k], nil
}

func (f *FlatIndex) Len() int {
	return len(f.vectors)
}

func (f *FlatIndex) Dimension() int {
	return f.dimension
}

// Vector returns the stored vector for ordinal.
func (f *FlatIndex) Vector(ordinal int) ([]float32, bool) {
	if ordinal < 0 || ordinal >= len(f.vectors) {
		return nil, false
	}
	return f.vectors[ordinal], true
}

// Save writes the index to path, replacing any existing file.
func (f *FlatIndex) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove old index: %w", err)
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return fmt.Errorf("failed to open bolt db: %w", err)
	}
	defer db.Close()

	return db.Update(func(tx *bbolt.Tx) error {
		meta, err := tx.CreateBucket(bucketMeta)
		if err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucketMeta, err)
		}
		vectors, err := tx.CreateBucket(bucketVectors)
		if err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucketVectors, err)
		}

		if err := meta.Put(keyDimension, []byte(strconv.Itoa(f.dimension))); err != nil {
			return err
		}
		if err := meta.Put(keyCount, []byte(strconv.Itoa(len(f.vectors)))); err != nil {
			return err
		}
		if err := meta.Put(keyBuildID, []byte(f.Info.BuildID)); err != nil {
			return err
		}
		if err := meta.Put(keyModel, []byte(f.Info.Model)); err != nil {
			return err
		}

		for i, v := range f.vectors {
			if err := vectors.Put(ordinalKey(i), encodeVector(v)); err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadFlatIndex reads an index written by Save.
func LoadFlatIndex(path string) (*FlatIndex, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("index not found: %w", err)
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second, ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}
	defer db.Close()

	idx := &FlatIndex{}
	err = db.View(func(tx *bbolt.Tx) error {
		meta := tx.Bucket(bucketMeta)
		vectors := tx.Bucket(bucketVectors)
		if meta == nil || vectors == nil {
			return fmt.Errorf("not a flat index file")
		}

		dim, err := strconv.Atoi(string(meta.Get(keyDimension)))
		if err != nil {
			return fmt.Errorf("invalid dimension: %w", err)
		}
		count, err := strconv.Atoi(string(meta.Get(keyCount)))
		if err != nil {
			return fmt.Errorf("invalid count: %w", err)
		}
		idx.dimension = dim
		idx.Info = IndexInfo{
			BuildID: string(meta.Get(keyBuildID)),
			Model:   string(meta.Get(keyModel)),
		}
		idx.vectors = make([][]float32, 0, count)

		// Keys are big-endian ordinals, so cursor order is ordinal order.
		c := vectors.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			ordinal := int(binary.BigEndian.Uint64(k))
			if ordinal != len(idx.vectors) {
				return fmt.Errorf("missing vector for ordinal %d", len(idx.vectors))
			}
			vec, err := decodeVector(v, dim)
			if err != nil {
				return fmt.Errorf("ordinal %d: %w", ordinal, err)
			}
			idx.vectors = append(idx.vectors, vec)
		}

		if len(idx.vectors) != count {
			return fmt.Errorf("expected %d vectors, found %d", count, len(idx.vectors))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return idx, nil
}

func squaredL2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

func ordinalKey(ordinal int) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(ordinal))
	return key
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(x))
	}
	return buf
}

func decodeVector(data []byte, dim int) ([]float32, error) {
	if len(data) != 4*dim {
		return nil, fmt.Errorf("vector has %d bytes, expected %d", len(data), 4*dim)
	}
	v := make([]float32, dim)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[4*i:]))
	}
	return v, nil
}
