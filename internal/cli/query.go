package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"doclookup/config"
	"doclookup/internal/adapter/store"
	"doclookup/internal/usecase"
)

var (
	queryText  string
	queryTopK  int
	queryIndex string
	queryJSON  bool
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Retrieve documents relevant to a question",
	Long: `Search the index for the documents nearest to the question, ask the judge
model whether each one is relevant, and copy the accepted ones into
retrieve.output_dir as {ordinal}{ext}.

Examples:
  doclookup query -q "how do I reset my password"
  doclookup query -q "shipping costs" -k 5 --json`,
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVarP(&queryText, "query", "q", "", "question (required)")
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of neighbors to judge (default from config)")
	queryCmd.Flags().StringVar(&queryIndex, "index", "", "index file or directory (default from config)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output as JSON")
	queryCmd.MarkFlagRequired("query")
}

// queryOutput is the --json shape.
type queryOutput struct {
	Query string   `json:"query"`
	Paths []string `json:"paths"`
	Error string   `json:"error,omitempty"`
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	rootDir := GetRootDir()
	logger := GetLogger()

	indexPath := cfg.Index.Path
	if queryIndex != "" {
		indexPath = queryIndex
	}
	indexPath = config.Resolve(rootDir, indexPath)

	idx, info, mapping, err := store.LoadIndex(indexPath, cfg.Index.Backend, seconds(cfg.Qdrant.TimeoutSecs))
	if err != nil {
		return fmt.Errorf("failed to open index (run 'doclookup index' first): %w", err)
	}
	if closer, ok := idx.(io.Closer); ok {
		defer closer.Close()
	}

	embedder, err := newEmbedder(cfg.Embedding)
	if err != nil {
		return err
	}
	if info.Model != "" && info.Model != embedder.ModelName() {
		logger.Warn("query embedder differs from the one the index was built with",
			"index_model", info.Model, "model", embedder.ModelName())
	}

	relevance, err := newJudge(cfg.Judge)
	if err != nil {
		return err
	}

	retrieveUC := usecase.NewRetrieveUseCase(idx, embedder, mapping, relevance, usecase.RetrieveOptions{
		SourceDir: config.Resolve(rootDir, cfg.Retrieve.SourceDir),
		OutputDir: config.Resolve(rootDir, cfg.Retrieve.OutputDir),
	}, logger)

	topK := cfg.Retrieve.TopK
	if queryTopK > 0 {
		topK = queryTopK
	}

	res := retrieveUC.Retrieve(queryText, topK)

	if queryJSON {
		out := queryOutput{Query: queryText, Paths: res.Paths}
		if out.Paths == nil {
			out.Paths = []string{}
		}
		if res.Err != nil {
			out.Error = res.Err.Error()
		}
		output, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(output))
	} else if res.Err == nil {
		if len(res.Paths) == 0 {
			fmt.Println("No relevant documents found.")
			return nil
		}
		fmt.Printf("Found %d relevant documents for: %s\n\n", len(res.Paths), queryText)
		for _, p := range res.Paths {
			fmt.Println(p)
		}
	}

	if res.Err != nil {
		return fmt.Errorf("retrieval failed: %w", res.Err)
	}
	return nil
}
