package rag

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"
)

func TestMilvusStore_EmptyRecords(t *testing.T) {
	store := &MilvusStore{config: DefaultMilvusConfig()}

	err := store.Insert(context.Background(), []Document{}, nil)
	if !errors.Is(err, ErrEmptyRecords) {
		t.Errorf("expected ErrEmptyRecords, got %v", err)
	}
}

func TestMilvusStore_InsertDimensionMismatch(t *testing.T) {
	store := &MilvusStore{config: DefaultMilvusConfig()}

	docs := []Document{{ID: "a#0", Content: "aspirin", Source: "a.pdf"}}
	err := store.Insert(context.Background(), docs, [][]float32{{0.1, 0.2}})
	if !errors.Is(err, ErrInvalidDimension) {
		t.Errorf("expected ErrInvalidDimension, got %v", err)
	}

	err = store.Insert(context.Background(), docs, nil)
	if !errors.Is(err, ErrInsertFailed) {
		t.Errorf("expected ErrInsertFailed for missing embeddings, got %v", err)
	}
}

func TestMilvusStore_InsertLengthLimits(t *testing.T) {
	store := &MilvusStore{config: DefaultMilvusConfig()}
	vec := [][]float32{make([]float32, store.config.Dimension)}

	tests := []struct {
		name string
		doc  Document
	}{
		{"long id", Document{ID: strings.Repeat("x", MaxDocumentIDLength+1), Content: "c", Source: "a.pdf"}},
		{"long source", Document{ID: "a#0", Content: "c", Source: strings.Repeat("s", MaxSourceLength+1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.Insert(context.Background(), []Document{tt.doc}, vec)
			if !errors.Is(err, ErrInsertFailed) {
				t.Errorf("expected ErrInsertFailed, got %v", err)
			}
		})
	}
}

func TestMilvusStore_SearchValidation(t *testing.T) {
	store := &MilvusStore{config: DefaultMilvusConfig()}

	if _, err := store.Search(context.Background(), []float32{1, 2}, 1, nil); !errors.Is(err, ErrInvalidDimension) {
		t.Errorf("expected ErrInvalidDimension, got %v", err)
	}

	vec := make([]float32, store.config.Dimension)
	if _, err := store.Search(context.Background(), vec, 0, nil); err == nil {
		t.Error("expected error for non-positive topK")
	}
}

func TestNewMilvusStore_InvalidDimension(t *testing.T) {
	config := DefaultMilvusConfig()
	config.Dimension = 0

	if _, err := NewMilvusStore(context.Background(), config); !errors.Is(err, ErrInvalidDimension) {
		t.Errorf("expected ErrInvalidDimension, got %v", err)
	}
}

func TestDefaultMilvusConfig(t *testing.T) {
	t.Setenv("MILVUS_ADDRESS", "")
	t.Setenv("MILVUS_COLLECTION", "")

	config := DefaultMilvusConfig()

	if config.Address != "localhost:19530" {
		t.Errorf("Expected localhost:19530, got %s", config.Address)
	}
	if config.CollectionName != "medical_chunks" {
		t.Errorf("Expected medical_chunks, got %s", config.CollectionName)
	}
	if config.Dimension != 384 {
		t.Errorf("Expected dimension 384, got %d", config.Dimension)
	}
	if config.IndexType != "HNSW" {
		t.Errorf("Expected index type HNSW, got %s", config.IndexType)
	}
	if config.MetricType != "COSINE" {
		t.Errorf("Expected metric type COSINE, got %s", config.MetricType)
	}
	if config.CreateIfMissing {
		t.Error("Expected CreateIfMissing to default to false")
	}
}

func TestDefaultMilvusConfig_Env(t *testing.T) {
	t.Setenv("MILVUS_ADDRESS", "milvus:19530")
	t.Setenv("MILVUS_COLLECTION", "cardiology")

	config := DefaultMilvusConfig()
	if config.Address != "milvus:19530" || config.CollectionName != "cardiology" {
		t.Errorf("env not applied: %+v", config)
	}
}

func TestOutputFields(t *testing.T) {
	tests := []struct {
		name string
		opts *SearchOptions
		want []string
	}{
		{"nil options", nil, []string{fieldText}},
		{"no metadata", &SearchOptions{}, []string{fieldText}},
		{"metadata", &SearchOptions{IncludeMetadata: true}, []string{fieldText, fieldDocID, fieldSource, fieldPage}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := outputFields(tt.opts)
			if fmt.Sprint(got) != fmt.Sprint(tt.want) {
				t.Errorf("outputFields() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSourceFilterExpr(t *testing.T) {
	tests := []struct {
		sources []string
		want    string
	}{
		{nil, ""},
		{[]string{"a.pdf"}, `source in ["a.pdf"]`},
		{[]string{"a.pdf", `b "quoted".pdf`}, `source in ["a.pdf", "b \"quoted\".pdf"]`},
	}

	for _, tt := range tests {
		if got := sourceFilterExpr(tt.sources); got != tt.want {
			t.Errorf("sourceFilterExpr(%v) = %q, want %q", tt.sources, got, tt.want)
		}
	}
}

func TestParseRowCount(t *testing.T) {
	tests := []struct {
		name    string
		stats   map[string]string
		want    int64
		wantErr bool
	}{
		{"missing", map[string]string{}, 0, false},
		{"zero", map[string]string{"row_count": "0"}, 0, false},
		{"populated", map[string]string{"row_count": "1250"}, 1250, false},
		{"garbage", map[string]string{"row_count": "many"}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseRowCount(tt.stats)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseRowCount() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseRowCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSearchEf(t *testing.T) {
	store := &MilvusStore{config: MilvusConfig{Ef: 8}}
	if got := store.searchEf(4); got != 8 {
		t.Errorf("searchEf(4) = %d, want 8", got)
	}
	if got := store.searchEf(20); got != 20 {
		t.Errorf("searchEf(20) = %d, want 20", got)
	}

	store.config.Ef = 0
	if got := store.searchEf(1); got != 64 {
		t.Errorf("searchEf(1) with unset Ef = %d, want 64", got)
	}
}

// Integration test: Insert, Search, Delete against a running Milvus
func TestMilvusStore_Integration_FullWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}
	if os.Getenv("MILVUS_ADDRESS") == "" {
		t.Skip("MILVUS_ADDRESS not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	embedder := &MockEmbedder{Dimension: 8}

	config := DefaultMilvusConfig()
	config.Dimension = embedder.GetDimension()
	config.CollectionName = "medrag_test_integration"
	config.CreateIfMissing = true

	store, err := NewMilvusStore(ctx, config)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer store.Close()

	_ = store.Delete(ctx, []string{"integration.pdf"})

	docs := []Document{
		{ID: "integration#0", Content: "Hypertension is high blood pressure.", Source: "integration.pdf", Page: 1},
		{ID: "integration#1", Content: "Insulin regulates blood glucose.", Source: "integration.pdf", Page: 2},
	}
	n, err := IndexDocuments(ctx, docs, embedder, store, DefaultIndexOptions(), nil)
	if err != nil {
		t.Fatalf("IndexDocuments failed: %v", err)
	}
	if n != len(docs) {
		t.Fatalf("indexed %d chunks, want %d", n, len(docs))
	}

	retriever, err := NewRetriever(embedder, store, RetrieverOptions{K: 1, ReturnSourceDocuments: true})
	if err != nil {
		t.Fatalf("failed to create retriever: %v", err)
	}

	results, err := retriever.Retrieve(ctx, "What is hypertension?")
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Source != "integration.pdf" {
		t.Errorf("expected source metadata, got %+v", results[0])
	}

	if err := store.Delete(ctx, []string{"integration.pdf"}); err != nil {
		t.Errorf("Delete failed: %v", err)
	}
}
