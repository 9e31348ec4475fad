package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"doclookup/config"
	"doclookup/internal/adapter/fs"
	"doclookup/internal/usecase"
)

var indexOut string

var indexCmd = &cobra.Command{
	Use:   "index [folder]",
	Short: "Index documents for retrieval",
	Long: `Embed every document directly inside the folder and store an exact L2
index plus its ordinal-to-filename mapping. The folder defaults to
retrieve.source_dir, the index location to index.path.

Examples:
  doclookup index                              # Index ./uploaded_documents
  doclookup index docs --out .doclookup        # Index ./docs into .doclookup/
  doclookup index docs --out vectors/docs.flat # Write the index to a file`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().StringVarP(&indexOut, "out", "o", "", "index file or directory (default from config)")
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	rootDir := GetRootDir()
	logger := GetLogger()

	folder := config.Resolve(rootDir, cfg.Retrieve.SourceDir)
	if len(args) > 0 {
		var err error
		folder, err = filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("invalid path: %w", err)
		}
	}

	info, err := os.Stat(folder)
	if err != nil {
		return fmt.Errorf("path does not exist: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", folder)
	}

	out := cfg.Index.Path
	if indexOut != "" {
		out = indexOut
	}
	out = config.Resolve(rootDir, out)
	if looksLikeDir(out) {
		if err := os.MkdirAll(out, 0755); err != nil {
			return fmt.Errorf("failed to create index directory: %w", err)
		}
	}

	embedder, err := newEmbedder(cfg.Embedding)
	if err != nil {
		return err
	}

	indexUC, err := usecase.NewIndexUseCase(
		fs.NewWalker(cfg.Index.Includes, cfg.Index.Excludes),
		fs.FallbackReader{},
		embedder,
		indexOptions(cfg),
		logger,
	)
	if err != nil {
		return err
	}

	fmt.Printf("Scanning %s...\n", folder)

	idx, result, err := indexUC.Index(folder, out, newProgress())
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}
	if closer, ok := idx.(io.Closer); ok {
		defer closer.Close()
	}

	fmt.Printf("\nIndexing complete:\n")
	fmt.Printf("  Documents indexed: %d\n", len(result.Documents))
	fmt.Printf("  Files skipped:     %d (unreadable)\n", len(result.Skipped))
	fmt.Printf("  Dimension:         %d\n", idx.Dimension())
	fmt.Printf("  Model:             %s\n", embedder.ModelName())

	if len(result.Skipped) > 0 {
		fmt.Printf("\nWarnings:\n")
		for _, name := range result.Skipped {
			fmt.Printf("  - could not read %s\n", name)
		}
	}

	fmt.Printf("\nIndex stored at:   %s\n", result.IndexFile)
	fmt.Printf("Mapping stored at: %s\n", result.MappingFile)
	return nil
}

// looksLikeDir reports whether an index path without an extension names a
// directory. A leading dot does not count as one, so ".doclookup" is a directory.
func looksLikeDir(path string) bool {
	return !strings.Contains(strings.TrimPrefix(filepath.Base(path), "."), ".")
}

// newProgress renders indexing progress, one bar per stage.
func newProgress() usecase.ProgressFunc {
	var (
		bar       *progressbar.ProgressBar
		stage     string
		startTime time.Time
	)

	return func(done, total int, current string) {
		if bar == nil || current != stage {
			if bar != nil {
				bar.Finish()
			}
			stage = current
			startTime = time.Now()
			bar = progressbar.NewOptions(total,
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowBytes(false),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription(stageLabel(stage)),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					fmt.Println()
				}),
			)
		}

		bar.Set(done)

		if done > 0 && done < total {
			elapsed := time.Since(startTime)
			rate := float64(done) / elapsed.Seconds()
			if rate > 0 {
				eta := time.Duration(float64(total-done)/rate) * time.Second
				bar.Describe(fmt.Sprintf("%s ETA: %s", stageLabel(stage), formatDuration(eta)))
			}
		}
	}
}

func stageLabel(stage string) string {
	switch stage {
	case "read":
		return "[cyan]Reading[reset]"
	case "embed":
		return "[cyan]Embedding[reset]"
	}
	return "[cyan]" + stage + "[reset]"
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}
