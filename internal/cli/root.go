package cli

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"doclookup/config"
)

var (
	cfgFile string
	cfg     *config.Config
	rootDir string
	verbose bool
	logger  *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "doclookup",
	Short: "Document lookup - index a folder and retrieve relevant documents",
	Long: `doclookup builds an exact L2 vector index over a folder of documents and,
given a question, copies the nearest documents that a language model judges
relevant into an output directory.

Example usage:
  doclookup index uploaded_documents          # Build the index
  doclookup query -q "what is the refund policy" -k 3`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		// API keys may live in a .env file next to the documents
		if err := godotenv.Load(config.Resolve(rootDir, ".env")); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to load .env: %w", err)
		}

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		logger, err = newLogger(cfg.Logging.Level, verbose)
		if err != nil {
			return err
		}
		slog.SetDefault(logger)

		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./doclookup.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "root directory (default is current directory)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// newLogger builds the process logger: charmbracelet/log on stderr behind
// the slog API every component takes.
func newLogger(level string, verbose bool) (*slog.Logger, error) {
	lvl := log.InfoLevel
	if level != "" {
		parsed, err := log.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid logging level %q: %w", level, err)
		}
		lvl = parsed
	}
	if verbose {
		lvl = log.DebugLevel
	}

	handler := log.NewWithOptions(os.Stderr, log.Options{
		Level:           lvl,
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
	})
	return slog.New(handler), nil
}

func GetConfig() *config.Config {
	return cfg
}

func GetRootDir() string {
	return rootDir
}

func GetLogger() *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
