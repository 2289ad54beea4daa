package rag

import (
	"context"
	"sync"
)

var (
	_ Embedder    = (*MockEmbedder)(nil)
	_ VectorStore = (*MockVectorStore)(nil)
)

// MockEmbedder returns a fixed-size vector derived from text length. For tests.
type MockEmbedder struct {
	Dimension int
	Error     error
}

// Embed returns one deterministic vector per text.
func (m *MockEmbedder) Embed(ctx context.Context, texts []string) ([]EmbeddingRecord, error) {
	if m.Error != nil {
		return nil, m.Error
	}
	if len(texts) == 0 {
		return nil, ErrEmptyTexts
	}
	records := make([]EmbeddingRecord, len(texts))
	for i, text := range texts {
		vec := make([]float32, m.GetDimension())
		for j := range vec {
			vec[j] = float32(len(text)%(j+2)) + 1
		}
		records[i] = EmbeddingRecord{Text: text, Embedding: vec, Index: i, Model: m.GetModel()}
	}
	return records, nil
}

// GetModel returns the mock model name
func (m *MockEmbedder) GetModel() string {
	return "mock-embedding"
}

// GetDimension returns the configured dimension, default 4
func (m *MockEmbedder) GetDimension() int {
	if m.Dimension <= 0 {
		return 4
	}
	return m.Dimension
}

// MockVectorStore serves canned search results and records how it was queried.
// Documents are returned in the order given, truncated to topK.
type MockVectorStore struct {
	Documents   []Document
	SearchError error
	CountError  error

	mu       sync.Mutex
	searches []MockSearch
	inserted []Document
	deleted  []string
	closed   bool
}

// MockSearch captures one Search call.
type MockSearch struct {
	TopK int
	Opts SearchOptions
}

// NewMockVectorStore creates a store pre-populated with docs.
func NewMockVectorStore(docs ...Document) *MockVectorStore {
	return &MockVectorStore{Documents: docs}
}

func (m *MockVectorStore) Insert(ctx context.Context, docs []Document, embeddings [][]float32) error {
	if len(docs) == 0 {
		return ErrEmptyRecords
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inserted = append(m.inserted, docs...)
	m.Documents = append(m.Documents, docs...)
	return nil
}

func (m *MockVectorStore) Search(ctx context.Context, queryVector []float32, topK int, opts *SearchOptions) ([]Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	call := MockSearch{TopK: topK}
	if opts != nil {
		call.Opts = *opts
	}
	m.searches = append(m.searches, call)

	if m.SearchError != nil {
		return nil, m.SearchError
	}

	n := topK
	if n > len(m.Documents) {
		n = len(m.Documents)
	}
	out := make([]Document, n)
	copy(out, m.Documents[:n])
	return out, nil
}

func (m *MockVectorStore) Count(ctx context.Context) (int64, error) {
	if m.CountError != nil {
		return 0, m.CountError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.Documents)), nil
}

func (m *MockVectorStore) Delete(ctx context.Context, sources []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, sources...)
	return nil
}

func (m *MockVectorStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Searches returns every recorded Search call.
func (m *MockVectorStore) Searches() []MockSearch {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockSearch(nil), m.searches...)
}

// Inserted returns every document passed to Insert.
func (m *MockVectorStore) Inserted() []Document {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Document(nil), m.inserted...)
}

// Deleted returns every source passed to Delete.
func (m *MockVectorStore) Deleted() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.deleted...)
}

// Closed reports whether Close was called.
func (m *MockVectorStore) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
