package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Yates-Labs/medrag/internal/chain"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a medical question from the indexed documents",
	Long: `Answer a medical question using retrieval-augmented generation.

This command:
1. Loads the vector index built by "medrag index"
2. Binds the configured language model
3. Retrieves the most relevant chunk for your question
4. Generates a short answer grounded in that chunk

Required environment variables:
  HF_TOKEN             - Hugging Face access token
  HUGGINGFACE_REPO_ID  - Model repository (e.g. mistralai/Mistral-7B-Instruct-v0.3)
  MILVUS_ADDRESS       - Milvus server address (default: localhost:19530)

Examples:
  medrag ask "What are the symptoms of hypertension?"
  medrag ask "How is type 2 diabetes treated?" --sources
  medrag ask "What causes anemia?" --backend pgvector`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().Int("k", 1, "Number of chunks to retrieve as context")
	askCmd.Flags().Bool("sources", false, "Show the retrieved source chunks")
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.Join(args, " ")
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	fmt.Fprintln(out)
	fmt.Fprintln(out, headerStyle.Render("Question:"))
	fmt.Fprintln(out, questionStyle.Render(question))
	fmt.Fprintln(out)

	builder, err := newChainBuilder(ctx)
	if err != nil {
		return fmt.Errorf("%s %w", errorStyle.Render("Error:"), err)
	}

	fmt.Fprintln(out, contextStyle.Render("→ Building QA chain..."))
	qa, err := builder.Build(ctx)
	if err != nil {
		return fmt.Errorf("%s no QA chain available: %w", errorStyle.Render("Error:"), err)
	}
	defer qa.Close()

	fmt.Fprintln(out, contextStyle.Render("→ Retrieving context and generating answer..."))
	result, err := qa.Invoke(ctx, question)
	if err != nil {
		return fmt.Errorf("%s %w", errorStyle.Render("Error:"), err)
	}

	printResult(out, result)
	return nil
}

func printResult(out io.Writer, result *chain.Result) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, headerStyle.Render("Answer:"))
	fmt.Fprintln(out)
	fmt.Fprintln(out, answerStyle.Render(strings.TrimSpace(result.Answer)))
	fmt.Fprintln(out)

	if len(result.SourceDocuments) == 0 {
		return
	}

	fmt.Fprintln(out, headerStyle.Render("Sources:"))
	for _, doc := range result.SourceDocuments {
		label := doc.Source
		if doc.Page > 0 {
			label = fmt.Sprintf("%s, page %d", doc.Source, doc.Page)
		}
		fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✓ %s (score %.3f)", label, doc.Score)))
		fmt.Fprintln(out, sourceStyle.Render(doc.Content))
	}
	fmt.Fprintln(out)
}
