package usecase

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"

	"doclookup/internal/domain"
	"doclookup/internal/port"
)

// DefaultTopK is the number of neighbors fetched when k is not positive.
const DefaultTopK = 3

// RetrieveOptions locates the source documents and the output directory.
type RetrieveOptions struct {
	SourceDir string
	OutputDir string
}

// RetrieveUseCase finds documents similar to a query, asks a judge whether
// each is relevant, and copies the accepted ones to the output directory.
type RetrieveUseCase struct {
	index    port.SimilarityIndex
	embedder port.Embedder
	mapping  domain.FileMapping
	judge    port.RelevanceJudge
	opts     RetrieveOptions
	logger   *slog.Logger
}

// NewRetrieveUseCase creates a new retrieve use case. The embedder must be
// the one the index was built with; that is not checked here.
func NewRetrieveUseCase(
	index port.SimilarityIndex,
	embedder port.Embedder,
	mapping domain.FileMapping,
	judge port.RelevanceJudge,
	opts RetrieveOptions,
	logger *slog.Logger,
) *RetrieveUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &RetrieveUseCase{
		index:    index,
		embedder: embedder,
		mapping:  mapping,
		judge:    judge,
		opts:     opts,
		logger:   logger,
	}
}

// Retrieve runs the query and returns the paths of accepted copies, in
// search rank order. Failures are logged and reported in the result's Err
// rather than returned, and never panic out of this call.
func (u *RetrieveUseCase) Retrieve(query string, k int) (res domain.RetrievalResult) {
	log := u.logger.With("run_id", uuid.NewString())
	res.Query = query

	defer func() {
		if r := recover(); r != nil {
			res.Paths = nil
			res.Err = fmt.Errorf("retrieve: panic: %v", r)
			log.Error("error retrieving documents", "err", res.Err)
		}
	}()

	paths, err := u.retrieve(log, query, k)
	if err != nil {
		log.Error("error retrieving documents", "err", err)
		res.Err = err
		return res
	}
	res.Paths = paths
	log.Info("retrieval finished", "count", len(paths), "paths", paths)
	return res
}

// RetrievePaths is Retrieve with errors collapsed into an empty list.
func (u *RetrieveUseCase) RetrievePaths(query string, k int) []string {
	res := u.Retrieve(query, k)
	if res.Err != nil || res.Paths == nil {
		return []string{}
	}
	return res.Paths
}

func (u *RetrieveUseCase) retrieve(log *slog.Logger, query string, k int) ([]string, error) {
	if k <= 0 {
		k = DefaultTopK
	}
	log.Info("retrieving documents", "query", query, "k", k)

	embeddings, err := u.embedder.Embed([]string{query})
	if err != nil {
		return nil, fmt.Errorf("retrieve: embed query: %w", err)
	}
	if len(embeddings) != 1 {
		return nil, fmt.Errorf("retrieve: embed query: expected 1 vector, got %d", len(embeddings))
	}

	neighbors, err := u.index.Search(embeddings[0], k)
	if err != nil {
		return nil, fmt.Errorf("retrieve: search: %w", err)
	}

	outDir, err := filepath.Abs(u.opts.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("retrieve: output dir: %w", err)
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("retrieve: create output dir: %w", err)
	}

	paths := []string{}
	for _, n := range neighbors {
		path, err := u.handle(log, query, n.Ordinal, outDir)
		if err != nil {
			return nil, err
		}
		if path != "" {
			paths = append(paths, path)
		}
	}
	return paths, nil
}

// handle processes one search hit and returns the output path when the
// document was accepted, or "" when it was skipped or rejected.
func (u *RetrieveUseCase) handle(log *slog.Logger, query string, ordinal int, outDir string) (string, error) {
	name, ok := u.mapping[ordinal]
	if !ok || name == "" {
		log.Info("no filename found for ordinal", "ordinal", ordinal)
		return "", nil
	}

	src := filepath.Join(u.opts.SourceDir, name)
	if _, err := os.Stat(src); err != nil {
		log.Info("document not found", "path", src)
		return "", nil
	}

	content, err := os.ReadFile(src)
	if err != nil {
		return "", fmt.Errorf("retrieve: read %s: %w", src, err)
	}

	relevant, err := u.judge.Judge(query, content)
	if err != nil {
		return "", fmt.Errorf("retrieve: judge %s: %w", name, err)
	}
	log.Info("judged document", "path", src, "relevant", relevant)
	if !relevant {
		return "", nil
	}

	dest := filepath.Join(outDir, strconv.Itoa(ordinal)+filepath.Ext(name))
	if err := os.Remove(dest); err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("retrieve: remove %s: %w", dest, err)
	}
	if err := os.WriteFile(dest, content, 0644); err != nil {
		return "", fmt.Errorf("retrieve: write %s: %w", dest, err)
	}
	log.Info("saved document", "path", dest)
	return dest, nil
}
