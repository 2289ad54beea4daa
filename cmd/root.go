package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Yates-Labs/medrag/internal/chain"
	"github.com/Yates-Labs/medrag/internal/config"
	"github.com/Yates-Labs/medrag/internal/logging"
	"github.com/Yates-Labs/medrag/internal/rag"
)

var (
	configFile string
	envFile    string

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "medrag",
	Short: "medrag - Medical question answering over indexed PDFs",
	Long: `medrag answers medical questions from a vector index of reference PDFs.

It retrieves the single most relevant chunk for a question, places it in a
fixed prompt, and asks a hosted language model for a short answer.

Configuration is read from medrag.yaml, a .env file, MEDRAG_* environment
variables (plus HF_TOKEN, HUGGINGFACE_REPO_ID, OPENAI_API_KEY, GEMINI_API_KEY),
and flags, each overriding the last.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "Config file (default: ./medrag.yaml if present)")
	flags.StringVar(&envFile, "env-file", ".env", "Environment file loaded before reading variables")
	flags.String("log-level", "info", "Log level: debug, info, warn, error")
	flags.String("log-format", "console", "Log format: console or json")
	flags.String("provider", "huggingface", "LLM provider: huggingface, openai, gemini")
	flags.String("endpoint", "", "Model repository or endpoint id (default: HUGGINGFACE_REPO_ID)")
	flags.String("backend", "milvus", "Vector store backend: milvus or pgvector")
}

// setup loads and validates configuration and builds the logger shared by every command.
func setup(cmd *cobra.Command, args []string) error {
	c, err := config.Load(config.Options{
		ConfigFile: configFile,
		EnvFile:    envFile,
		Flags:      cmd.Flags(),
	})
	if err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		return err
	}

	l, err := logging.New(c.Log.Level, c.Log.Format)
	if err != nil {
		return err
	}

	cfg, logger = c, l
	return nil
}

// Execute runs the root command
func Execute() {
	err := rootCmd.Execute()
	if logger != nil {
		_ = logger.Sync()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newChainBuilder wires the configured embedder, vector store, and model into a chain builder.
func newChainBuilder(ctx context.Context) (*chain.Builder, error) {
	embedder, err := rag.NewEmbedder(ctx, cfg.EmbedderConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	b := chain.NewBuilder(cfg.StoreConfig(), cfg.ModelConfig(), embedder, logger)
	b.Config = cfg.ChainConfig()
	return b, nil
}
