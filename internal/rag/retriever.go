package rag

import (
	"context"
	"fmt"
)

// RetrieverOptions configures a retrieval view over a vector store.
type RetrieverOptions struct {
	// K is the number of chunks returned per query, ranked across the whole store
	K int

	// ReturnSourceDocuments keeps chunk metadata (id, source, page) in results
	ReturnSourceDocuments bool
}

// Retriever provides semantic retrieval of document chunks for a free-text query.
// It is an immutable view: the store is borrowed, never closed or written.
type Retriever struct {
	embedder    Embedder
	vectorStore VectorStore
	opts        RetrieverOptions
}

// NewRetriever creates a new Retriever instance.
func NewRetriever(embedder Embedder, vectorStore VectorStore, opts RetrieverOptions) (*Retriever, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder cannot be nil")
	}
	if vectorStore == nil {
		return nil, fmt.Errorf("vector store cannot be nil")
	}
	if opts.K <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", opts.K)
	}

	return &Retriever{
		embedder:    embedder,
		vectorStore: vectorStore,
		opts:        opts,
	}, nil
}

// Options returns the retrieval policy of this view.
func (r *Retriever) Options() RetrieverOptions {
	return r.opts
}

// Retrieve embeds the query and returns the K most similar chunks in the store.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]Document, error) {
	if query == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}

	embeddingRecords, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(embeddingRecords) == 0 {
		return nil, fmt.Errorf("no embedding generated for query")
	}

	// No source filter: ranking is global across every indexed document
	docs, err := r.vectorStore.Search(ctx, embeddingRecords[0].Embedding, r.opts.K, &SearchOptions{
		IncludeMetadata: r.opts.ReturnSourceDocuments,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search for query: %w", err)
	}

	if len(docs) > r.opts.K {
		docs = docs[:r.opts.K]
	}
	if !r.opts.ReturnSourceDocuments {
		for i := range docs {
			docs[i] = Document{Content: docs[i].Content, Score: docs[i].Score}
		}
	}

	return docs, nil
}
