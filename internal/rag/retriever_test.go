package rag

import (
	"context"
	"errors"
	"testing"
)

func sampleDocuments() []Document {
	return []Document{
		{ID: "cardio#0", Content: "Hypertension is persistently elevated arterial blood pressure.", Source: "cardio.pdf", Page: 12, Score: 0.91, Metadata: map[string]string{"chapter": "4"}},
		{ID: "endo#3", Content: "Insulin lowers blood glucose.", Source: "endo.pdf", Page: 40, Score: 0.52},
	}
}

func TestNewRetriever_Validation(t *testing.T) {
	embedder := &MockEmbedder{}
	store := NewMockVectorStore()

	tests := []struct {
		name     string
		embedder Embedder
		store    VectorStore
		opts     RetrieverOptions
	}{
		{"nil embedder", nil, store, RetrieverOptions{K: 1}},
		{"nil store", embedder, nil, RetrieverOptions{K: 1}},
		{"zero k", embedder, store, RetrieverOptions{K: 0}},
		{"negative k", embedder, store, RetrieverOptions{K: -2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewRetriever(tt.embedder, tt.store, tt.opts); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestRetriever_TopOneWithoutMetadata(t *testing.T) {
	store := NewMockVectorStore(sampleDocuments()...)
	retriever, err := NewRetriever(&MockEmbedder{}, store, RetrieverOptions{K: 1})
	if err != nil {
		t.Fatalf("failed to create retriever: %v", err)
	}

	docs, err := retriever.Retrieve(context.Background(), "What is hypertension?")
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}

	searches := store.Searches()
	if len(searches) != 1 {
		t.Fatalf("expected 1 search, got %d", len(searches))
	}
	if searches[0].TopK != 1 {
		t.Errorf("requested topK = %d, want 1", searches[0].TopK)
	}
	if searches[0].Opts.IncludeMetadata {
		t.Error("source metadata must not be requested")
	}
	if len(searches[0].Opts.Sources) != 0 {
		t.Errorf("retrieval must be global, got source filter %v", searches[0].Opts.Sources)
	}

	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}
	got := docs[0]
	if got.Content != sampleDocuments()[0].Content {
		t.Errorf("Content = %q", got.Content)
	}
	if got.ID != "" || got.Source != "" || got.Page != 0 || got.Metadata != nil {
		t.Errorf("metadata leaked into result: %+v", got)
	}
}

func TestRetriever_WithSourceDocuments(t *testing.T) {
	store := NewMockVectorStore(sampleDocuments()...)
	retriever, err := NewRetriever(&MockEmbedder{}, store, RetrieverOptions{K: 2, ReturnSourceDocuments: true})
	if err != nil {
		t.Fatalf("failed to create retriever: %v", err)
	}

	docs, err := retriever.Retrieve(context.Background(), "blood")
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	if docs[0].Source != "cardio.pdf" || docs[0].Page != 12 {
		t.Errorf("expected metadata to be kept, got %+v", docs[0])
	}
	if !store.Searches()[0].Opts.IncludeMetadata {
		t.Error("metadata should be requested when sources are returned")
	}
	if opts := retriever.Options(); opts.K != 2 || !opts.ReturnSourceDocuments {
		t.Errorf("Options() = %+v", opts)
	}
}

func TestRetriever_Errors(t *testing.T) {
	embedErr := errors.New("embedding endpoint down")
	searchErr := errors.New("search backend down")

	tests := []struct {
		name     string
		embedder *MockEmbedder
		store    *MockVectorStore
		query    string
		wantErr  error
	}{
		{"empty query", &MockEmbedder{}, NewMockVectorStore(), "", nil},
		{"embed failure", &MockEmbedder{Error: embedErr}, NewMockVectorStore(), "q", embedErr},
		{"search failure", &MockEmbedder{}, &MockVectorStore{SearchError: searchErr}, "q", searchErr},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			retriever, err := NewRetriever(tt.embedder, tt.store, RetrieverOptions{K: 1})
			if err != nil {
				t.Fatalf("failed to create retriever: %v", err)
			}
			_, err = retriever.Retrieve(context.Background(), tt.query)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v in chain, got %v", tt.wantErr, err)
			}
		})
	}
}
