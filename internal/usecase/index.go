package usecase

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"doclookup/internal/adapter/store"
	"doclookup/internal/domain"
	"doclookup/internal/port"
)

const defaultEmbedBatch = 100

// ProgressFunc is called as files are read and as embedding batches finish.
type ProgressFunc func(done, total int, stage string)

// IndexOptions selects the index backend and embedding batch size.
type IndexOptions struct {
	Backend   string
	Qdrant    store.QdrantOptions
	BatchSize int
}

// IndexUseCase builds a similarity index over a folder of documents.
type IndexUseCase struct {
	walker    port.FileWalker
	reader    port.FileReader
	embedder  port.Embedder
	backend   string
	build     func(dimension int, info store.IndexInfo) (port.SimilarityIndex, error)
	batchSize int
	logger    *slog.Logger
}

// NewIndexUseCase creates a new index use case.
func NewIndexUseCase(
	walker port.FileWalker,
	reader port.FileReader,
	embedder port.Embedder,
	opts IndexOptions,
	logger *slog.Logger,
) (*IndexUseCase, error) {
	build, err := store.Builder(opts.Backend, opts.Qdrant)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = defaultEmbedBatch
	}
	return &IndexUseCase{
		walker:    walker,
		reader:    reader,
		embedder:  embedder,
		backend:   opts.Backend,
		build:     build,
		batchSize: batchSize,
		logger:    logger,
	}, nil
}

// IndexResult contains the results of an indexing operation.
type IndexResult struct {
	BuildID     string
	Documents   []domain.Document
	Mapping     domain.FileMapping
	Skipped     []string
	IndexFile   string
	MappingFile string
}

// Index reads every document in folder, embeds it, and persists the index
// and its ordinal mapping under indexPath. Unreadable files are skipped; any
// other failure aborts the run, and files already written under indexPath
// must then be treated as invalid.
func (u *IndexUseCase) Index(folder, indexPath string, progress ProgressFunc) (port.SimilarityIndex, *IndexResult, error) {
	buildID := uuid.NewString()
	log := u.logger.With("run_id", buildID)
	if progress == nil {
		progress = func(int, int, string) {}
	}

	fail := func(step string, err error) error {
		wrapped := fmt.Errorf("index: %s: %w", step, err)
		log.Error("error during indexing", "err", wrapped)
		return wrapped
	}

	log.Info("starting document indexing", "folder", folder)

	files, err := u.walker.Walk(folder)
	if err != nil {
		return nil, nil, fail("list documents", err)
	}

	result := &IndexResult{BuildID: buildID}
	for i, file := range files {
		content, err := u.reader.ReadFile(file.Path)
		if err != nil {
			log.Warn("error reading file, skipping", "file", file.Name, "err", err)
			result.Skipped = append(result.Skipped, file.Name)
		} else {
			// ordinal = position among readable documents, which is also
			// the order vectors are added to the index
			result.Documents = append(result.Documents, domain.Document{
				Ordinal: len(result.Documents),
				Name:    file.Name,
				Path:    file.Path,
				Content: content,
			})
		}
		progress(i+1, len(files), "read")
	}
	log.Info("loaded documents", "count", len(result.Documents), "skipped", len(result.Skipped))

	log.Info("embedding and indexing documents", "model", u.embedder.ModelName())
	vectors, err := u.embedAll(result.Documents, progress)
	if err != nil {
		return nil, nil, fail("embed documents", err)
	}

	dimension := u.embedder.Dimension()
	if len(vectors) > 0 {
		dimension = len(vectors[0])
	}

	idx, err := u.build(dimension, store.IndexInfo{BuildID: buildID, Model: u.embedder.ModelName()})
	if err != nil {
		return nil, nil, fail("create index", err)
	}
	// releases the qdrant connection on failure
	abort := func(step string, err error) error {
		if closer, ok := idx.(io.Closer); ok {
			closer.Close()
		}
		return fail(step, err)
	}
	if err := idx.Add(vectors); err != nil {
		return nil, nil, abort("add vectors", err)
	}

	names := make([]string, len(result.Documents))
	for i, doc := range result.Documents {
		names[i] = doc.Name
	}
	result.Mapping = store.NewMapping(names)

	result.IndexFile = store.IndexFile(indexPath, u.backend)
	result.MappingFile = store.MappingPath(result.IndexFile)
	if err := idx.Save(result.IndexFile); err != nil {
		return nil, nil, abort("save index", err)
	}
	if err := store.SaveMapping(result.MappingFile, result.Mapping); err != nil {
		return nil, nil, abort("save mapping", err)
	}

	log.Info("indexing completed", "index", result.IndexFile, "mapping", result.MappingFile, "vectors", idx.Len())
	return idx, result, nil
}

// embedAll embeds document contents in batches, preserving order.
func (u *IndexUseCase) embedAll(docs []domain.Document, progress ProgressFunc) ([][]float32, error) {
	vectors := make([][]float32, 0, len(docs))
	for i := 0; i < len(docs); i += u.batchSize {
		end := i + u.batchSize
		if end > len(docs) {
			end = len(docs)
		}

		texts := make([]string, 0, end-i)
		for _, doc := range docs[i:end] {
			texts = append(texts, doc.Content)
		}

		batch, err := u.embedder.Embed(texts)
		if err != nil {
			return nil, err
		}
		if len(batch) != len(texts) {
			return nil, fmt.Errorf("embedder returned %d vectors for %d documents", len(batch), len(texts))
		}
		vectors = append(vectors, batch...)
		progress(end, len(docs), "embed")
	}
	return vectors, nil
}
