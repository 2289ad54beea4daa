package rag

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Yates-Labs/medrag/internal/logging"
)

// IndexDocuments embeds document chunks in batches and stores them in the vector store.
// With opts.ForceReindex, chunks from the same sources are deleted first so a
// re-run replaces rather than duplicates them.
func IndexDocuments(
	ctx context.Context,
	docs []Document,
	embedder Embedder,
	vectorStore VectorStore,
	opts IndexOptions,
	logger *zap.Logger,
) (int, error) {
	logger = logging.OrNop(logger)

	if len(docs) == 0 {
		return 0, nil
	}
	if embedder == nil {
		return 0, fmt.Errorf("embedder cannot be nil")
	}
	if vectorStore == nil {
		return 0, fmt.Errorf("vector store cannot be nil")
	}

	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultIndexOptions().BatchSize
	}

	if opts.ForceReindex {
		sources := uniqueSources(docs)
		if err := vectorStore.Delete(ctx, sources); err != nil {
			return 0, fmt.Errorf("failed to delete existing chunks: %w", err)
		}
		logger.Info("Removed previous chunks", zap.Int("sources", len(sources)))
	}

	indexed := 0
	for batchStart := 0; batchStart < len(docs); batchStart += batchSize {
		batchEnd := batchStart + batchSize
		if batchEnd > len(docs) {
			batchEnd = len(docs)
		}
		batch := docs[batchStart:batchEnd]

		texts := make([]string, len(batch))
		for i, doc := range batch {
			texts[i] = doc.Content
		}

		records, err := embedder.Embed(ctx, texts)
		if err != nil {
			return indexed, fmt.Errorf("failed to generate embeddings for batch starting at %d: %w", batchStart, err)
		}
		if len(records) != len(batch) {
			return indexed, fmt.Errorf("embedder returned %d vectors for %d chunks", len(records), len(batch))
		}

		embeddings := make([][]float32, len(records))
		for _, rec := range records {
			if rec.Index < 0 || rec.Index >= len(batch) {
				return indexed, fmt.Errorf("embedding index %d out of range for batch of %d", rec.Index, len(batch))
			}
			embeddings[rec.Index] = rec.Embedding
		}

		if err := vectorStore.Insert(ctx, batch, embeddings); err != nil {
			return indexed, fmt.Errorf("failed to insert batch starting at %d: %w", batchStart, err)
		}

		indexed += len(batch)
		logger.Debug("Indexed batch", zap.Int("start", batchStart), zap.Int("size", len(batch)))
	}

	logger.Info("Indexed document chunks", zap.Int("chunks", indexed))
	return indexed, nil
}

// ChunkDocuments splits each document's content and returns one Document per chunk.
// Chunk ids are derived from the parent id and fit MaxDocumentIDLength.
func ChunkDocuments(docs []Document, splitter *Splitter) []Document {
	var chunks []Document
	for _, doc := range docs {
		for i, text := range splitter.Split(doc.Content) {
			chunks = append(chunks, Document{
				ID:       boundID(fmt.Sprintf("%s#%d", doc.ID, i)),
				Content:  text,
				Source:   doc.Source,
				Page:     doc.Page,
				Metadata: doc.Metadata,
			})
		}
	}
	return chunks
}

func uniqueSources(docs []Document) []string {
	seen := make(map[string]struct{}, len(docs))
	var sources []string
	for _, doc := range docs {
		if _, ok := seen[doc.Source]; ok {
			continue
		}
		seen[doc.Source] = struct{}{}
		sources = append(sources, doc.Source)
	}
	return sources
}
