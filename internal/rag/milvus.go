package rag

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

// Common errors for Milvus operations
var (
	ErrInvalidDimension = errors.New("invalid vector dimension")
	ErrEmptyRecords     = errors.New("no records provided for insertion")
	ErrConnectionFailed = errors.New("failed to connect to Milvus")
	ErrInsertFailed     = errors.New("failed to insert records")
	ErrSearchFailed     = errors.New("failed to search vectors")
)

// Milvus field names
const (
	fieldDocID     = "doc_id"
	fieldSource    = "source"
	fieldPage      = "page"
	fieldText      = "text"
	fieldEmbedding = "embedding"
)

// MilvusConfig holds configuration for Milvus connection and collection
type MilvusConfig struct {
	Address        string // Milvus server address (e.g., "localhost:19530")
	APIKey         string // Token for managed Milvus deployments
	CollectionName string // Name of the collection
	Dimension      int    // Vector dimension (e.g., 384 for all-MiniLM-L6-v2)
	IndexType      string // Index type (default: "HNSW")
	MetricType     string // Similarity metric (default: "COSINE")

	// HNSW index parameters
	M              int // HNSW M parameter (default: 16)
	EfConstruction int // HNSW efConstruction (default: 256)
	Ef             int // HNSW search ef (default: 64)

	// CreateIfMissing creates the collection and index when absent
	CreateIfMissing bool
}

// DefaultMilvusConfig returns default configuration from environment variables
func DefaultMilvusConfig() MilvusConfig {
	address := os.Getenv("MILVUS_ADDRESS")
	if address == "" {
		address = "localhost:19530"
	}

	collection := os.Getenv("MILVUS_COLLECTION")
	if collection == "" {
		collection = "medical_chunks"
	}

	return MilvusConfig{
		Address:        address,
		APIKey:         os.Getenv("MILVUS_API_KEY"),
		CollectionName: collection,
		Dimension:      384, // all-MiniLM-L6-v2
		IndexType:      "HNSW",
		MetricType:     "COSINE",
		M:              16,
		EfConstruction: 256,
		Ef:             64,
	}
}

// MilvusStore implements VectorStore interface using Milvus
type MilvusStore struct {
	client client.Client
	config MilvusConfig
}

// NewMilvusStore connects to Milvus and loads the collection into memory.
// A missing collection is created when config.CreateIfMissing is set and
// reported as ErrCollectionNotFound otherwise.
func NewMilvusStore(ctx context.Context, config MilvusConfig) (*MilvusStore, error) {
	if config.Dimension <= 0 {
		return nil, ErrInvalidDimension
	}

	c, err := client.NewClient(ctx, client.Config{
		Address: config.Address,
		APIKey:  config.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}

	store := &MilvusStore{
		client: c,
		config: config,
	}

	if err := store.ensureCollection(ctx); err != nil {
		c.Close()
		return nil, err
	}

	return store, nil
}

// ensureCollection creates the collection with schema if it doesn't exist
func (m *MilvusStore) ensureCollection(ctx context.Context) error {
	has, err := m.client.HasCollection(ctx, m.config.CollectionName)
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}

	if !has {
		if !m.config.CreateIfMissing {
			return fmt.Errorf("%w: %s", ErrCollectionNotFound, m.config.CollectionName)
		}
		if err := m.createCollection(ctx); err != nil {
			return err
		}
	}

	// Load collection into memory
	if err := m.client.LoadCollection(ctx, m.config.CollectionName, false); err != nil {
		return fmt.Errorf("failed to load collection: %w", err)
	}

	return nil
}

func (m *MilvusStore) createCollection(ctx context.Context) error {
	schema := &entity.Schema{
		CollectionName: m.config.CollectionName,
		Description:    "Embedded medical document chunks",
		AutoID:         true,
		Fields: []*entity.Field{
			{
				Name:       "id",
				DataType:   entity.FieldTypeInt64,
				PrimaryKey: true,
				AutoID:     true,
			},
			{
				Name:     fieldDocID,
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": strconv.Itoa(MaxDocumentIDLength),
				},
			},
			{
				Name:     fieldSource,
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": strconv.Itoa(MaxSourceLength),
				},
			},
			{
				Name:     fieldPage,
				DataType: entity.FieldTypeInt64,
			},
			{
				Name:     fieldText,
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "65535",
				},
			},
			{
				Name:     fieldEmbedding,
				DataType: entity.FieldTypeFloatVector,
				TypeParams: map[string]string{
					"dim": strconv.Itoa(m.config.Dimension),
				},
			},
		},
	}

	if err := m.client.CreateCollection(ctx, schema, entity.DefaultShardNumber); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	// Create HNSW index on embedding field
	idx, err := entity.NewIndexHNSW(m.metricType(), m.config.M, m.config.EfConstruction)
	if err != nil {
		return fmt.Errorf("failed to create index config: %w", err)
	}

	if err := m.client.CreateIndex(ctx, m.config.CollectionName, fieldEmbedding, idx, false); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	return nil
}

func (m *MilvusStore) metricType() entity.MetricType {
	switch strings.ToUpper(m.config.MetricType) {
	case "L2":
		return entity.L2
	case "IP":
		return entity.IP
	default:
		return entity.COSINE
	}
}

// Insert adds document chunks and their embeddings to Milvus
func (m *MilvusStore) Insert(ctx context.Context, docs []Document, embeddings [][]float32) error {
	if len(docs) == 0 {
		return ErrEmptyRecords
	}
	if len(docs) != len(embeddings) {
		return fmt.Errorf("%w: %d documents but %d embeddings", ErrInsertFailed, len(docs), len(embeddings))
	}

	docIDs := make([]string, len(docs))
	sources := make([]string, len(docs))
	pages := make([]int64, len(docs))
	texts := make([]string, len(docs))
	for i, doc := range docs {
		if len(embeddings[i]) != m.config.Dimension {
			return fmt.Errorf("%w: expected %d, got %d", ErrInvalidDimension, m.config.Dimension, len(embeddings[i]))
		}
		if len(doc.ID) > MaxDocumentIDLength || len(doc.Source) > MaxSourceLength {
			return fmt.Errorf("%w: chunk %q exceeds the id or source length limit", ErrInsertFailed, doc.ID)
		}
		docIDs[i] = doc.ID
		sources[i] = doc.Source
		pages[i] = int64(doc.Page)
		texts[i] = doc.Content
	}

	columns := []entity.Column{
		entity.NewColumnVarChar(fieldDocID, docIDs),
		entity.NewColumnVarChar(fieldSource, sources),
		entity.NewColumnInt64(fieldPage, pages),
		entity.NewColumnVarChar(fieldText, texts),
		entity.NewColumnFloatVector(fieldEmbedding, m.config.Dimension, embeddings),
	}

	if _, err := m.client.Insert(ctx, m.config.CollectionName, "", columns...); err != nil {
		return fmt.Errorf("%w: %v", ErrInsertFailed, err)
	}

	// Flush to ensure data is persisted
	if err := m.client.Flush(ctx, m.config.CollectionName, false); err != nil {
		return fmt.Errorf("failed to flush data: %w", err)
	}

	return nil
}

// Search performs top-K similarity search with optional filtering
func (m *MilvusStore) Search(ctx context.Context, queryVector []float32, topK int, opts *SearchOptions) ([]Document, error) {
	if len(queryVector) != m.config.Dimension {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrInvalidDimension, m.config.Dimension, len(queryVector))
	}
	if topK <= 0 {
		return nil, fmt.Errorf("topK must be positive, got %d", topK)
	}

	var expr string
	if opts != nil {
		expr = sourceFilterExpr(opts.Sources)
	}

	sp, err := entity.NewIndexHNSWSearchParam(m.searchEf(topK))
	if err != nil {
		return nil, fmt.Errorf("failed to create search params: %w", err)
	}

	vectors := []entity.Vector{entity.FloatVector(queryVector)}
	results, err := m.client.Search(
		ctx,
		m.config.CollectionName,
		nil, // partition names
		expr,
		outputFields(opts),
		vectors,
		fieldEmbedding,
		m.metricType(),
		topK,
		sp,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchFailed, err)
	}

	if len(results) == 0 {
		return []Document{}, nil
	}

	docs := make([]Document, 0, results[0].ResultCount)
	for i := 0; i < results[0].ResultCount; i++ {
		doc := Document{Score: results[0].Scores[i]}

		for _, field := range results[0].Fields {
			switch field.Name() {
			case fieldText:
				doc.Content = field.(*entity.ColumnVarChar).Data()[i]
			case fieldDocID:
				doc.ID = field.(*entity.ColumnVarChar).Data()[i]
			case fieldSource:
				doc.Source = field.(*entity.ColumnVarChar).Data()[i]
			case fieldPage:
				doc.Page = int(field.(*entity.ColumnInt64).Data()[i])
			}
		}

		docs = append(docs, doc)
	}

	return docs, nil
}

// searchEf keeps ef at or above topK as HNSW requires.
func (m *MilvusStore) searchEf(topK int) int {
	ef := m.config.Ef
	if ef <= 0 {
		ef = 64
	}
	if ef < topK {
		ef = topK
	}
	return ef
}

// outputFields lists the scalar fields to fetch; metadata only on request.
func outputFields(opts *SearchOptions) []string {
	if opts != nil && opts.IncludeMetadata {
		return []string{fieldText, fieldDocID, fieldSource, fieldPage}
	}
	return []string{fieldText}
}

// sourceFilterExpr builds a boolean expression matching any of the sources.
func sourceFilterExpr(sources []string) string {
	if len(sources) == 0 {
		return ""
	}
	quoted := make([]string, len(sources))
	for i, s := range sources {
		quoted[i] = strconv.Quote(s)
	}
	return fmt.Sprintf("%s in [%s]", fieldSource, strings.Join(quoted, ", "))
}

// Count returns the number of stored chunks
func (m *MilvusStore) Count(ctx context.Context) (int64, error) {
	stats, err := m.client.GetCollectionStatistics(ctx, m.config.CollectionName)
	if err != nil {
		return 0, fmt.Errorf("failed to get stats: %w", err)
	}

	return parseRowCount(stats)
}

func parseRowCount(stats map[string]string) (int64, error) {
	raw, ok := stats["row_count"]
	if !ok {
		return 0, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid row_count %q: %w", raw, err)
	}
	return n, nil
}

// Delete removes records by source
func (m *MilvusStore) Delete(ctx context.Context, sources []string) error {
	if len(sources) == 0 {
		return nil
	}

	if err := m.client.Delete(ctx, m.config.CollectionName, "", sourceFilterExpr(sources)); err != nil {
		return fmt.Errorf("failed to delete records: %w", err)
	}

	return nil
}

// Close releases resources and closes the Milvus connection
func (m *MilvusStore) Close() error {
	if m.client != nil {
		return m.client.Close()
	}
	return nil
}
