package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"doclookup/internal/domain"
)

// MappingFilename is the sidecar written next to every index file.
const MappingFilename = "index_file_mapping.json"

// NewMapping assigns ordinals to names by position.
func NewMapping(names []string) domain.FileMapping {
	m := make(domain.FileMapping, len(names))
	for i, name := range names {
		m[i] = name
	}
	return m
}

// MappingPath returns the sidecar path for an index file.
func MappingPath(indexFile string) string {
	return filepath.Join(filepath.Dir(indexFile), MappingFilename)
}

// SaveMapping writes m as a JSON object keyed by decimal ordinal strings.
func SaveMapping(path string, m domain.FileMapping) error {
	out := make(map[string]string, len(m))
	for ordinal, name := range m {
		out[strconv.Itoa(ordinal)] = name
	}
	data, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("mapping: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("mapping: write %s: %w", path, err)
	}
	return nil
}

// LoadMapping reads a mapping written by SaveMapping. Keys must parse as
// integers.
func LoadMapping(path string) (domain.FileMapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("mapping: read %s: %w", path, err)
	}
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("mapping: parse %s: %w", path, err)
	}

	m := make(domain.FileMapping, len(raw))
	for key, name := range raw {
		ordinal, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("mapping: invalid ordinal key %q: %w", key, err)
		}
		m[ordinal] = name
	}
	return m, nil
}

// CheckMapping verifies the mapping covers exactly ordinals 0..n-1.
func CheckMapping(m domain.FileMapping, n int) error {
	if len(m) != n {
		return fmt.Errorf("mapping: has %d entries, index has %d vectors", len(m), n)
	}
	for i := 0; i < n; i++ {
		if _, ok := m[i]; !ok {
			return fmt.Errorf("mapping: no entry for ordinal %d", i)
		}
	}
	return nil
}
