package embedding

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const defaultBatchSize = 100

// OpenAIEmbedder talks to any OpenAI-compatible embeddings endpoint.
type OpenAIEmbedder struct {
	client    *openai.Client
	model     string
	dimension int
	batchSize int
	timeout   time.Duration
}

// Options configures an OpenAIEmbedder.
type Options struct {
	APIKeyEnv string
	Model     string
	BaseURL   string
	Dimension int
	BatchSize int
	Timeout   time.Duration
}

func NewOpenAIEmbedder(opts Options) (*OpenAIEmbedder, error) {
	apiKey := os.Getenv(opts.APIKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("API key not found in environment variable: %s", opts.APIKeyEnv)
	}
	return newEmbedder(apiKey, opts), nil
}

// NewOllamaEmbedder uses Ollama's OpenAI-compatible API, which needs no key.
func NewOllamaEmbedder(opts Options) (*OpenAIEmbedder, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = "http://localhost:11434/v1"
	}
	return newEmbedder("ollama", opts), nil
}

func newEmbedder(apiKey string, opts Options) *OpenAIEmbedder {
	cfg := openai.DefaultConfig(apiKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	cfg.HTTPClient = &http.Client{Timeout: timeout}

	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	dimension := opts.Dimension
	if dimension <= 0 {
		dimension = knownDimension(opts.Model)
	}

	return &OpenAIEmbedder{
		client:    openai.NewClientWithConfig(cfg),
		model:     opts.Model,
		dimension: dimension,
		batchSize: batchSize,
		timeout:   timeout,
	}
}

func knownDimension(model string) int {
	switch model {
	case "text-embedding-3-large":
		return 3072
	case "nomic-embed-text":
		return 768
	case "mxbai-embed-large":
		return 1024
	case "all-minilm", "paraphrase-MiniLM-L6-v2":
		return 384
	default:
		return 1536
	}
}

func (e *OpenAIEmbedder) Embed(texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	all := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += e.batchSize {
		end := i + e.batchSize
		if end > len(texts) {
			end = len(texts)
		}

		embeddings, err := e.embedBatch(texts[i:end])
		if err != nil {
			return nil, err
		}
		all = append(all, embeddings...)
	}

	return all, nil
}

func (e *OpenAIEmbedder) embedBatch(texts []string) ([][]float32, error) {
	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, fmt.Errorf("embeddings request failed: %w", err)
	}

	// Data may come back in any order; Index ties each vector to its input.
	embeddings := make([][]float32, len(texts))
	for _, data := range resp.Data {
		if data.Index < 0 || data.Index >= len(embeddings) {
			return nil, fmt.Errorf("embedding index %d out of range", data.Index)
		}
		embeddings[data.Index] = data.Embedding
	}
	for i, v := range embeddings {
		if v == nil {
			return nil, fmt.Errorf("no embedding returned for input %d", i)
		}
	}

	return embeddings, nil
}

// Dimension returns the configured or model-default dimension. The API is
// authoritative; the index is sized from the first returned vector.
func (e *OpenAIEmbedder) Dimension() int {
	return e.dimension
}

func (e *OpenAIEmbedder) ModelName() string {
	return e.model
}
