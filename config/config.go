package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the doclookup tool.
type Config struct {
	Index     IndexConfig     `yaml:"index"`
	Retrieve  RetrieveConfig  `yaml:"retrieve"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Judge     JudgeConfig     `yaml:"judge"`
	Qdrant    QdrantConfig    `yaml:"qdrant"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// IndexConfig holds indexing configuration.
type IndexConfig struct {
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
	Path     string   `yaml:"path"`    // file or directory for the persisted index
	Backend  string   `yaml:"backend"` // "flat", "qdrant"
}

// RetrieveConfig holds retrieval configuration.
type RetrieveConfig struct {
	TopK      int    `yaml:"top_k"`
	SourceDir string `yaml:"source_dir"`
	OutputDir string `yaml:"output_dir"`
}

// EmbeddingConfig holds embedding configuration.
type EmbeddingConfig struct {
	Provider    string `yaml:"provider"` // "openai", "ollama", "hash"
	Model       string `yaml:"model"`
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Dimension   int    `yaml:"dimension"`
	BatchSize   int    `yaml:"batch_size"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// JudgeConfig holds relevance judge configuration.
type JudgeConfig struct {
	Provider          string  `yaml:"provider"` // "openai", "ollama", "always"
	Model             string  `yaml:"model"`
	BaseURL           string  `yaml:"base_url"`
	APIKeyEnv         string  `yaml:"api_key_env"`
	TimeoutSecs       int     `yaml:"timeout_secs"`
	RequestsPerSecond float64 `yaml:"requests_per_second"` // 0 = unlimited
}

// QdrantConfig holds connection details for the qdrant index backend.
type QdrantConfig struct {
	Addr        string `yaml:"addr"`
	Collection  string `yaml:"collection"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Index: IndexConfig{
			Includes: []string{"*"},
			Excludes: []string{".*"},
			Path:     ".doclookup",
			Backend:  "flat",
		},
		Retrieve: RetrieveConfig{
			TopK:      3,
			SourceDir: "uploaded_documents",
			OutputDir: "retrieved_documents",
		},
		Embedding: EmbeddingConfig{
			Provider:    "openai",
			Model:       "text-embedding-3-small",
			APIKeyEnv:   "OPENAI_API_KEY",
			Dimension:   1536,
			BatchSize:   100,
			TimeoutSecs: 60,
		},
		Judge: JudgeConfig{
			Provider:    "openai",
			Model:       "gpt-4o-mini",
			APIKeyEnv:   "OPENAI_API_KEY",
			TimeoutSecs: 60,
		},
		Qdrant: QdrantConfig{
			Addr:        "localhost:6334",
			Collection:  "doclookup",
			TimeoutSecs: 10,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for doclookup.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "doclookup.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".doclookup", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Resolve makes p absolute relative to dir unless it already is.
func Resolve(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

// applyDefaults fills zero values left by a partial YAML file.
func applyDefaults(cfg *Config) {
	def := DefaultConfig()
	if cfg.Index.Backend == "" {
		cfg.Index.Backend = def.Index.Backend
	}
	if cfg.Index.Path == "" {
		cfg.Index.Path = def.Index.Path
	}
	if cfg.Retrieve.TopK <= 0 {
		cfg.Retrieve.TopK = def.Retrieve.TopK
	}
	// the default dimension belongs to the default model; any other model
	// gets its own known dimension, or the width of its first vector
	if cfg.Embedding.Dimension == def.Embedding.Dimension &&
		(cfg.Embedding.Provider != def.Embedding.Provider || cfg.Embedding.Model != def.Embedding.Model) {
		cfg.Embedding.Dimension = 0
	}
	if cfg.Embedding.BatchSize <= 0 {
		cfg.Embedding.BatchSize = def.Embedding.BatchSize
	}
	if cfg.Embedding.Provider == "ollama" && cfg.Embedding.BaseURL == "" {
		cfg.Embedding.BaseURL = "http://localhost:11434/v1"
	}
	if cfg.Judge.Provider == "ollama" && cfg.Judge.BaseURL == "" {
		cfg.Judge.BaseURL = "http://localhost:11434/v1"
	}
}
