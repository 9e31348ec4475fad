package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestMapping_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), MappingFilename)
	m := NewMapping([]string{"a.txt", "b.txt", "c.txt"})

	if err := SaveMapping(path, m); err != nil {
		t.Fatalf("SaveMapping: %v", err)
	}

	loaded, err := LoadMapping(path)
	if err != nil {
		t.Fatalf("LoadMapping: %v", err)
	}
	if len(loaded) != 3 || loaded[0] != "a.txt" || loaded[1] != "b.txt" || loaded[2] != "c.txt" {
		t.Errorf("unexpected mapping %v", loaded)
	}
}

func TestMapping_WireFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), MappingFilename)
	if err := SaveMapping(path, NewMapping([]string{"x.md", "y.md"})); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("mapping is not a JSON object of strings: %v", err)
	}
	if raw["0"] != "x.md" || raw["1"] != "y.md" {
		t.Errorf("unexpected wire mapping %v", raw)
	}
}

func TestLoadMapping_InvalidKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), MappingFilename)
	if err := os.WriteFile(path, []byte(`{"0":"a.txt","one":"b.txt"}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadMapping(path); err == nil {
		t.Error("expected error for non-integer key")
	}
}

func TestCheckMapping(t *testing.T) {
	m := NewMapping([]string{"a", "b"})
	if err := CheckMapping(m, 2); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := CheckMapping(m, 3); err == nil {
		t.Error("expected size mismatch error")
	}
	if err := CheckMapping(map[int]string{0: "a", 2: "c"}, 2); err == nil {
		t.Error("expected gap error")
	}
}

func TestMappingPath(t *testing.T) {
	got := MappingPath(filepath.Join("/data", "idx", "index.flat"))
	if got != filepath.Join("/data", "idx", MappingFilename) {
		t.Errorf("unexpected mapping path %s", got)
	}
}
