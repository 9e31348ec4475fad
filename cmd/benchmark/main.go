package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"doclookup/config"
	"doclookup/internal/adapter/embedding"
	"doclookup/internal/adapter/fs"
	"doclookup/internal/adapter/store"
	"doclookup/internal/domain"
	"doclookup/internal/port"
)

func main() {
	dir := flag.String("dir", ".", "Directory holding doclookup.yaml")
	query := flag.String("q", "", "Query to test")
	topK := flag.Int("k", 5, "Number of neighbors")
	flag.Parse()

	if *query == "" {
		fmt.Println("Usage: go run cmd/benchmark/main.go -dir . -q \"query\"")
		fmt.Println("\nTests:")
		fmt.Println("  1. Index load (index file, mapping sidecar)")
		fmt.Println("  2. Nearest neighbors for the query, no judge")
		fmt.Println("  3. Self-retrieval: every source document finds itself first")
		os.Exit(1)
	}

	cfg, err := config.LoadFromDir(*dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	idx, info, mapping, err := store.LoadIndex(config.Resolve(*dir, cfg.Index.Path), cfg.Index.Backend,
		time.Duration(cfg.Qdrant.TimeoutSecs)*time.Second)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening index: %v\n", err)
		os.Exit(1)
	}

	embedder, err := setupEmbedding(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Embedder not available: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("SIMILARITY SEARCH BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Vectors indexed: %d\n", idx.Len())
	fmt.Printf("Index model: %s, query model: %s (%s)\n", info.Model, embedder.ModelName(), cfg.Embedding.Provider)
	fmt.Printf("Dimension: %d\n", idx.Dimension())
	fmt.Println()

	fmt.Printf("Query: \"%s\"\n", *query)
	fmt.Println(strings.Repeat("-", 70))

	start := time.Now()
	queryVec, err := embedder.Embed([]string{*query})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Embedding error: %v\n", err)
		os.Exit(1)
	}
	embedTime := time.Since(start)

	start = time.Now()
	results, err := idx.Search(queryVec[0], *topK)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search error: %v\n", err)
		os.Exit(1)
	}
	searchTime := time.Since(start)

	fmt.Printf("Top %d neighbors (embed %s, search %s):\n\n", len(results), embedTime, searchTime)
	for i, r := range results {
		fmt.Printf("%d. [%d] %-40s distance %.4f\n", i+1, r.Ordinal, mapping[r.Ordinal], r.Distance)
	}

	fmt.Println()
	fmt.Println(strings.Repeat("=", 70))
	hits, total := selfRetrieval(idx, embedder, mapping, config.Resolve(*dir, cfg.Retrieve.SourceDir))
	fmt.Printf("QUALITY METRICS:\n")
	if total == 0 {
		fmt.Println("  Self-retrieval: no source documents found")
		return
	}
	recall := float64(hits) / float64(total)
	fmt.Printf("  Self-retrieval@1: %d/%d (%.3f)\n", hits, total, recall)

	if recall == 1 {
		fmt.Println("  Status: GOOD - index and mapping agree")
	} else if recall > 0.9 {
		fmt.Println("  Status: OK - some documents embed identically")
	} else {
		fmt.Println("  Status: POOR - index is stale or built with another model")
	}
}

// selfRetrieval counts the mapped documents whose own content is their
// nearest neighbor.
func selfRetrieval(idx port.SimilarityIndex, embedder port.Embedder, mapping domain.FileMapping, sourceDir string) (int, int) {
	hits, total := 0, 0
	for ordinal, name := range mapping {
		content, err := fs.ReadFileWithFallback(filepath.Join(sourceDir, name))
		if err != nil {
			continue
		}
		vecs, err := embedder.Embed([]string{content})
		if err != nil {
			continue
		}
		nearest, err := idx.Search(vecs[0], 1)
		if err != nil || len(nearest) == 0 {
			continue
		}
		total++
		if nearest[0].Ordinal == ordinal {
			hits++
		}
	}
	return hits, total
}

func setupEmbedding(cfg *config.Config) (port.Embedder, error) {
	opts := embedding.Options{
		APIKeyEnv: cfg.Embedding.APIKeyEnv,
		Model:     cfg.Embedding.Model,
		BaseURL:   cfg.Embedding.BaseURL,
		Dimension: cfg.Embedding.Dimension,
		Timeout:   time.Duration(cfg.Embedding.TimeoutSecs) * time.Second,
	}

	switch cfg.Embedding.Provider {
	case "hash":
		return embedding.NewHashEmbedder(cfg.Embedding.Dimension), nil
	case "ollama":
		emb, err := embedding.NewOllamaEmbedder(opts)
		if err != nil {
			return nil, fmt.Errorf("embedder init failed: %w", err)
		}
		return emb, nil
	case "openai", "":
		emb, err := embedding.NewOpenAIEmbedder(opts)
		if err != nil {
			return nil, fmt.Errorf("embedder init failed: %w", err)
		}
		return emb, nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Embedding.Provider)
	}
}
