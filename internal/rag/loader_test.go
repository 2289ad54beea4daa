package rag

import (
	"context"
	"testing"
)

func TestDefaultStoreConfig(t *testing.T) {
	config := DefaultStoreConfig()
	if config.Backend != BackendMilvus {
		t.Errorf("Backend = %q, want %q", config.Backend, BackendMilvus)
	}
	if config.Milvus.Dimension != config.PgVector.Dimension {
		t.Errorf("backend dimensions disagree: %d vs %d", config.Milvus.Dimension, config.PgVector.Dimension)
	}
}

func TestLoadVectorStore_UnknownBackend(t *testing.T) {
	store, err := LoadVectorStore(context.Background(), StoreConfig{Backend: "faiss"}, nil)
	if err == nil {
		t.Fatal("expected error for unknown backend")
	}
	if store != nil {
		t.Error("store must be nil on failure")
	}
}

func TestOpenVectorStore_InvalidDimension(t *testing.T) {
	config := DefaultStoreConfig()
	config.Backend = BackendPgVector
	config.PgVector.Dimension = 0

	if _, err := OpenVectorStore(context.Background(), config, false); err == nil {
		t.Error("expected error for zero dimension")
	}
}
