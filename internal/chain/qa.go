// Package chain composes a loaded model and a vector store retriever into a
// single question-answering pipeline over the medical index.
package chain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Yates-Labs/medrag/internal/llm"
	"github.com/Yates-Labs/medrag/internal/rag"
)

var (
	ErrEmptyQuestion = errors.New("question cannot be empty")
	ErrAnswerFailed  = errors.New("failed to answer question")
)

// Result is the full output of one chain invocation.
type Result struct {
	Query           string         `json:"query"`
	Answer          string         `json:"answer"`
	SourceDocuments []rag.Document `json:"source_documents,omitempty"`
}

// QAChain answers questions from the single best-matching chunk of the index.
// It is immutable once built and safe for concurrent use; each call performs
// its own retrieval and generation round trips.
type QAChain struct {
	model     llm.LLM
	store     rag.VectorStore
	retriever *rag.Retriever
	template  *PromptTemplate
	config    Config
	logger    *zap.Logger
}

// Config returns the configuration the chain was built with.
func (c *QAChain) Config() Config {
	return c.config
}

// Retriever returns the retrieval view the chain reads context from.
func (c *QAChain) Retriever() *rag.Retriever {
	return c.retriever
}

// Answer returns the generated answer text for question.
func (c *QAChain) Answer(ctx context.Context, question string) (string, error) {
	result, err := c.Invoke(ctx, question)
	if err != nil {
		return "", err
	}
	return result.Answer, nil
}

// Invoke retrieves context for question, stuffs it into the prompt, and
// generates an answer. Source documents are included only when the chain was
// built with ReturnSourceDocuments.
func (c *QAChain) Invoke(ctx context.Context, question string) (*Result, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	docs, err := c.retriever.Retrieve(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAnswerFailed, err)
	}

	prompt, err := c.template.Format(map[string]string{
		"context":  StuffDocuments(docs, c.config.DocumentSeparator),
		"question": question,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAnswerFailed, err)
	}

	answer, err := c.model.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAnswerFailed, err)
	}

	c.logger.Debug("Answered question",
		zap.Int("context_chunks", len(docs)),
		zap.Int("answer_length", len(answer)),
	)

	result := &Result{
		Query:  question,
		Answer: strings.TrimSpace(answer),
	}
	if c.config.ReturnSourceDocuments {
		result.SourceDocuments = docs
	}
	return result, nil
}

// Close releases the vector store the chain was built over.
func (c *QAChain) Close() error {
	return c.store.Close()
}
