package cli

import (
	"fmt"
	"time"

	"doclookup/config"
	"doclookup/internal/adapter/embedding"
	"doclookup/internal/adapter/judge"
	"doclookup/internal/adapter/llm"
	"doclookup/internal/adapter/store"
	"doclookup/internal/port"
	"doclookup/internal/usecase"
)

// newEmbedder creates the embedder selected by cfg.
func newEmbedder(cfg config.EmbeddingConfig) (port.Embedder, error) {
	opts := embedding.Options{
		APIKeyEnv: cfg.APIKeyEnv,
		Model:     cfg.Model,
		BaseURL:   cfg.BaseURL,
		Dimension: cfg.Dimension,
		BatchSize: cfg.BatchSize,
		Timeout:   seconds(cfg.TimeoutSecs),
	}

	var (
		emb *embedding.OpenAIEmbedder
		err error
	)
	switch cfg.Provider {
	case "openai", "":
		emb, err = embedding.NewOpenAIEmbedder(opts)
	case "ollama":
		emb, err = embedding.NewOllamaEmbedder(opts)
	case "hash":
		return embedding.NewHashEmbedder(cfg.Dimension), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	return emb, nil
}

// newJudge creates the relevance judge selected by cfg.
func newJudge(cfg config.JudgeConfig) (port.RelevanceJudge, error) {
	opts := llm.Options{
		APIKeyEnv: cfg.APIKeyEnv,
		Model:     cfg.Model,
		BaseURL:   cfg.BaseURL,
		Timeout:   seconds(cfg.TimeoutSecs),
	}

	var (
		model port.LLM
		err   error
	)
	switch cfg.Provider {
	case "openai", "":
		model, err = llm.NewOpenAIChat(opts)
	case "ollama":
		model, err = llm.NewOllamaChat(opts)
	case "always":
		return judge.AcceptAll{}, nil
	default:
		return nil, fmt.Errorf("unsupported judge provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create judge model: %w", err)
	}
	return judge.NewLLMJudge(model, cfg.RequestsPerSecond), nil
}

func indexOptions(cfg *config.Config) usecase.IndexOptions {
	return usecase.IndexOptions{
		Backend:   cfg.Index.Backend,
		Qdrant:    qdrantOptions(cfg.Qdrant),
		BatchSize: cfg.Embedding.BatchSize,
	}
}

func qdrantOptions(cfg config.QdrantConfig) store.QdrantOptions {
	return store.QdrantOptions{
		Addr:       cfg.Addr,
		Collection: cfg.Collection,
		Timeout:    seconds(cfg.TimeoutSecs),
	}
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
