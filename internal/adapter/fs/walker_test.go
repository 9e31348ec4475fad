package fs

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestWalker_SortedRegularFiles(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"c.txt":   "cherry",
		"a.txt":   "apple",
		"b.md":    "banana",
		".hidden": "secret",
	})
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0755); err != nil {
		t.Fatal(err)
	}

	files, err := NewWalker(nil, []string{".*"}).Walk(dir)
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}

	want := []string{"a.txt", "b.md", "c.txt"}
	if len(files) != len(want) {
		t.Fatalf("expected %d files, got %d: %+v", len(want), len(files), files)
	}
	for i, name := range want {
		if files[i].Name != name {
			t.Errorf("position %d: expected %s, got %s", i, name, files[i].Name)
		}
		if files[i].Path != filepath.Join(dir, name) {
			t.Errorf("position %d: unexpected path %s", i, files[i].Path)
		}
	}
}

func TestWalker_IncludePatterns(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"a.txt": "apple",
		"b.md":  "banana",
		"c.txt": "cherry",
	})

	files, err := NewWalker([]string{"*.txt"}, nil).Walk(dir)
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if len(files) != 2 || files[0].Name != "a.txt" || files[1].Name != "c.txt" {
		t.Errorf("unexpected files %+v", files)
	}
}

func TestWalker_MissingFolder(t *testing.T) {
	if _, err := NewWalker(nil, nil).Walk(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing folder")
	}
}
