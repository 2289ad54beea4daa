package rag

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Yates-Labs/medrag/internal/logging"
)

// Backend names a vector store implementation.
type Backend string

const (
	BackendMilvus   Backend = "milvus"
	BackendPgVector Backend = "pgvector"
)

// StoreConfig selects and configures the vector store backend.
type StoreConfig struct {
	Backend  Backend
	Milvus   MilvusConfig
	PgVector PgVectorConfig
}

// DefaultStoreConfig returns a Milvus-backed configuration.
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		Backend:  BackendMilvus,
		Milvus:   DefaultMilvusConfig(),
		PgVector: DefaultPgVectorConfig(),
	}
}

// OpenVectorStore connects to the configured backend. With create set the
// collection or table is created when missing, as the indexer needs.
func OpenVectorStore(ctx context.Context, config StoreConfig, create bool) (VectorStore, error) {
	switch config.Backend {
	case BackendMilvus, "":
		mc := config.Milvus
		mc.CreateIfMissing = create
		store, err := NewMilvusStore(ctx, mc)
		if err != nil {
			return nil, err
		}
		return store, nil
	case BackendPgVector:
		pc := config.PgVector
		pc.CreateIfMissing = create
		store, err := NewPgVectorStore(ctx, pc)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown vector store backend %q", config.Backend)
	}
}

// LoadVectorStore opens a previously built index for querying. A missing or
// empty index yields ErrVectorStoreEmpty; the returned store is never empty.
func LoadVectorStore(ctx context.Context, config StoreConfig, logger *zap.Logger) (VectorStore, error) {
	logger = logging.OrNop(logger)

	store, err := OpenVectorStore(ctx, config, false)
	if err != nil {
		if errors.Is(err, ErrCollectionNotFound) {
			return nil, fmt.Errorf("%w: %w", ErrVectorStoreEmpty, err)
		}
		return nil, err
	}

	n, err := store.Count(ctx)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	if n == 0 {
		_ = store.Close()
		return nil, ErrVectorStoreEmpty
	}

	logger.Info("Vector store loaded", zap.String("backend", string(config.Backend)), zap.Int64("chunks", n))
	return store, nil
}
