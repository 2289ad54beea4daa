// Package rag holds the retrieval side of medrag: embedding models, vector
// store backends holding embedded medical document chunks, the splitter and
// indexer that build a store, and the retriever view the QA chain reads from.
package rag

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"unicode/utf8"
)

var (
	// ErrVectorStoreEmpty is returned when the index is missing or holds no chunks.
	ErrVectorStoreEmpty = errors.New("Vector store not present or empty")

	ErrCollectionNotFound = errors.New("collection not found")
)

// Column limits shared by the store schemas.
const (
	MaxDocumentIDLength = 256
	MaxSourceLength     = 1024
)

// Document is one embedded chunk of a source document.
type Document struct {
	ID       string            `json:"id,omitempty"`
	Content  string            `json:"content"`
	Source   string            `json:"source,omitempty"`
	Page     int               `json:"page,omitempty"`
	Score    float32           `json:"score,omitempty"` // Cosine similarity, higher is closer
	Metadata map[string]string `json:"metadata,omitempty"`
}

// SearchOptions controls what a similarity search returns
type SearchOptions struct {
	// IncludeMetadata fetches the chunk's source fields along with its content
	IncludeMetadata bool

	// Sources restricts the search to chunks from the given sources
	Sources []string
}

// VectorStore defines the interface for vector storage and similarity search.
// Implementations must be safe to call from multiple goroutines.
type VectorStore interface {
	// Insert stores documents with their embeddings; embeddings[i] belongs to docs[i]
	Insert(ctx context.Context, docs []Document, embeddings [][]float32) error

	// Search performs top-K similarity search with optional filtering
	Search(ctx context.Context, queryVector []float32, topK int, opts *SearchOptions) ([]Document, error)

	// Count returns the number of stored chunks
	Count(ctx context.Context) (int64, error)

	// Delete removes every chunk that came from the given sources
	Delete(ctx context.Context, sources []string) error

	// Close releases resources and closes connections
	Close() error
}

// IndexOptions provides configuration for document indexing
type IndexOptions struct {
	// BatchSize determines how many chunks to embed at once
	BatchSize int

	// ForceReindex deletes chunks from the same sources before inserting
	ForceReindex bool
}

// DefaultIndexOptions returns sensible defaults for indexing
func DefaultIndexOptions() IndexOptions {
	return IndexOptions{
		BatchSize:    32,
		ForceReindex: false,
	}
}

// boundID returns id unchanged when it fits MaxDocumentIDLength. Longer ids
// keep their tail, which carries the page and chunk suffix, behind a short
// hash of the full id so distinct ids stay distinct.
func boundID(id string) string {
	if len(id) <= MaxDocumentIDLength {
		return id
	}
	sum := sha256.Sum256([]byte(id))
	prefix := hex.EncodeToString(sum[:8]) + "~"

	start := len(id) - (MaxDocumentIDLength - len(prefix))
	for start < len(id) && !utf8.RuneStart(id[start]) {
		start++
	}
	return prefix + id[start:]
}
