package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Yates-Labs/medrag/internal/ingest/pdf"
	"github.com/Yates-Labs/medrag/internal/rag"
)

var forceReindex bool

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the vector index from a directory of PDFs",
	Long: `Load every PDF under the data directory, split pages into overlapping
chunks, embed them, and store them in the configured vector store. The
collection or table is created when missing.

Examples:
  medrag index --data ./data
  medrag index --data ./data --backend pgvector --force`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().String("data", "data", "Directory of PDF files to index")
	indexCmd.Flags().BoolVar(&forceReindex, "force", false, "Replace chunks previously indexed from the same files")
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, contextStyle.Render(fmt.Sprintf("→ Loading PDFs from %s...", cfg.Data.Path)))
	pages, err := pdf.LoadDirectory(ctx, cfg.Data.Path, logger)
	if err != nil {
		return fmt.Errorf("%s %w", errorStyle.Render("Error:"), err)
	}

	splitter, err := rag.NewSplitter(cfg.Data.ChunkSize, cfg.Data.ChunkOverlap)
	if err != nil {
		return fmt.Errorf("%s %w", errorStyle.Render("Error:"), err)
	}
	chunks := rag.ChunkDocuments(pages, splitter)
	fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✓ Split %d pages into %d chunks", len(pages), len(chunks))))

	embedder, err := rag.NewEmbedder(ctx, cfg.EmbedderConfig())
	if err != nil {
		return fmt.Errorf("%s failed to create embedder: %w", errorStyle.Render("Error:"), err)
	}

	store, err := rag.OpenVectorStore(ctx, cfg.StoreConfig(), true)
	if err != nil {
		return fmt.Errorf("%s failed to open vector store: %w", errorStyle.Render("Error:"), err)
	}
	defer store.Close()

	fmt.Fprintln(out, contextStyle.Render("→ Embedding and storing chunks..."))
	n, err := rag.IndexDocuments(ctx, chunks, embedder, store, cfg.IndexOptions(forceReindex), logger)
	if err != nil {
		logger.Error("Indexing stopped", zap.Int("indexed", n), zap.Error(err))
		return fmt.Errorf("%s indexing failed after %d chunks: %w", errorStyle.Render("Error:"), n, err)
	}

	fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✓ Indexed %d chunks into %s", n, cfg.Store.Backend)))
	return nil
}
