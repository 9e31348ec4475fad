package config

import (
	"os"
	"path/filepath"
	"testing"

	"doclookup/internal/adapter/fs"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Retrieve.TopK != 3 {
		t.Errorf("expected TopK=3, got %d", cfg.Retrieve.TopK)
	}
	if cfg.Index.Backend != "flat" {
		t.Errorf("expected Backend=flat, got %s", cfg.Index.Backend)
	}
	if cfg.Retrieve.OutputDir != "retrieved_documents" {
		t.Errorf("expected OutputDir=retrieved_documents, got %s", cfg.Retrieve.OutputDir)
	}
	if cfg.Retrieve.SourceDir != "uploaded_documents" {
		t.Errorf("expected SourceDir=uploaded_documents, got %s", cfg.Retrieve.SourceDir)
	}
	if cfg.Judge.RequestsPerSecond != 0 {
		t.Errorf("expected unlimited judge rate, got %f", cfg.Judge.RequestsPerSecond)
	}
}

func TestLoad_NonExistent(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	if err != nil {
		t.Errorf("expected no error for non-existent file, got %v", err)
	}
	if cfg == nil {
		t.Error("expected default config, got nil")
	}
}

func TestLoad_ValidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "doclookup.yaml")

	content := `
index:
  backend: qdrant
retrieve:
  top_k: 5
embedding:
  provider: ollama
  model: nomic-embed-text
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Index.Backend != "qdrant" {
		t.Errorf("expected Backend=qdrant, got %s", cfg.Index.Backend)
	}
	if cfg.Retrieve.TopK != 5 {
		t.Errorf("expected TopK=5, got %d", cfg.Retrieve.TopK)
	}
	if cfg.Embedding.BaseURL != "http://localhost:11434/v1" {
		t.Errorf("expected ollama base url default, got %q", cfg.Embedding.BaseURL)
	}
	if cfg.Embedding.Dimension != 0 {
		t.Errorf("expected default dimension cleared for another model, got %d", cfg.Embedding.Dimension)
	}
	// untouched sections keep their defaults
	if cfg.Retrieve.OutputDir != "retrieved_documents" {
		t.Errorf("expected default OutputDir, got %s", cfg.Retrieve.OutputDir)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "doclookup.yaml")
	if err := os.WriteFile(configPath, []byte("retrieve: [oops"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(configPath); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestLoadFromDir(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(tmpDir, ".doclookup"), 0755); err != nil {
		t.Fatal(err)
	}
	content := `
judge:
  requests_per_second: 2
`
	if err := os.WriteFile(filepath.Join(tmpDir, ".doclookup", "config.yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromDir(tmpDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Judge.RequestsPerSecond != 2 {
		t.Errorf("expected RequestsPerSecond=2, got %f", cfg.Judge.RequestsPerSecond)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doclookup.yaml")
	cfg := DefaultConfig()
	cfg.Retrieve.TopK = 7

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Retrieve.TopK != 7 {
		t.Errorf("expected TopK=7, got %d", loaded.Retrieve.TopK)
	}
}

func TestResolve(t *testing.T) {
	if got := Resolve("/work", "docs"); got != filepath.Join("/work", "docs") {
		t.Errorf("unexpected %s", got)
	}
	if got := Resolve("/work", "/abs/docs"); got != "/abs/docs" {
		t.Errorf("unexpected %s", got)
	}
	if got := Resolve("/work", ""); got != "" {
		t.Errorf("unexpected %s", got)
	}
}

func TestLoad_ExplicitDimensionKept(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "doclookup.yaml")
	content := `
embedding:
  provider: ollama
  model: nomic-embed-text
  dimension: 512
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Embedding.Dimension != 512 {
		t.Errorf("expected Dimension=512, got %d", cfg.Embedding.Dimension)
	}
}

func TestDefaultConfig_IndexesDotfiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{".notes.txt", "a.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(name), 0644); err != nil {
			t.Fatal(err)
		}
	}

	cfg := DefaultConfig()
	files, err := fs.NewWalker(cfg.Index.Includes, cfg.Index.Excludes).Walk(dir)
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if len(files) != 2 || files[0].Name != ".notes.txt" || files[1].Name != "a.txt" {
		t.Errorf("expected [.notes.txt a.txt], got %v", files)
	}
}
