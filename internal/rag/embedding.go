package rag

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Common errors for embedding operations
var (
	ErrEmptyTexts      = errors.New("no texts provided for embedding")
	ErrMissingAPIKey   = errors.New("embedding API key not set")
	ErrEmbeddingFailed = errors.New("embedding generation failed")
)

// EmbeddingProvider names an embedding backend.
type EmbeddingProvider string

const (
	EmbeddingHuggingFace EmbeddingProvider = "huggingface"
	EmbeddingOpenAI      EmbeddingProvider = "openai"
	EmbeddingGemini      EmbeddingProvider = "gemini"
)

// EmbeddingRecord represents a single text embedding with metadata
type EmbeddingRecord struct {
	Text      string    `json:"text"`
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
	Model     string    `json:"model"`
}

// Embedder defines the interface for generating text embeddings
type Embedder interface {
	// Embed generates embeddings for the provided texts
	Embed(ctx context.Context, texts []string) ([]EmbeddingRecord, error)

	// GetModel returns the embedding model identifier
	GetModel() string

	// GetDimension returns the embedding vector dimension
	GetDimension() int
}

// EmbedderConfig selects and configures an embedding backend.
type EmbedderConfig struct {
	Provider  EmbeddingProvider
	Model     string
	Dimension int
	APIKey    string
	BaseURL   string
}

// DefaultEmbedderConfig returns the sentence-transformers model the medical index is built with.
func DefaultEmbedderConfig() EmbedderConfig {
	return EmbedderConfig{
		Provider:  EmbeddingHuggingFace,
		Model:     "sentence-transformers/all-MiniLM-L6-v2",
		Dimension: 384,
	}
}

// NewEmbedder builds the embedder named by config.Provider.
func NewEmbedder(ctx context.Context, config EmbedderConfig) (Embedder, error) {
	switch config.Provider {
	case EmbeddingHuggingFace, "":
		return NewHuggingFaceEmbedder(config)
	case EmbeddingOpenAI:
		return NewOpenAIEmbedder(config)
	case EmbeddingGemini:
		return NewGeminiEmbedder(ctx, config)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", config.Provider)
	}
}

// OpenAIEmbedder implements the Embedder interface using OpenAI's API
type OpenAIEmbedder struct {
	client    openai.Client
	model     string
	dimension int
}

// NewOpenAIEmbedder creates a new OpenAI embedder instance
func NewOpenAIEmbedder(config EmbedderConfig, opts ...option.RequestOption) (*OpenAIEmbedder, error) {
	apiKey := config.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: set OPENAI_API_KEY", ErrMissingAPIKey)
	}

	clientOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if config.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(withTrailingSlash(config.BaseURL)))
	}
	clientOpts = append(clientOpts, opts...)

	return &OpenAIEmbedder{
		client:    openai.NewClient(clientOpts...),
		model:     config.Model,
		dimension: config.Dimension,
	}, nil
}

// GetModel returns the embedding model identifier
func (e *OpenAIEmbedder) GetModel() string {
	return e.model
}

// GetDimension returns the embedding vector dimension
func (e *OpenAIEmbedder) GetDimension() int {
	return e.dimension
}

// Embed generates embeddings for the provided texts using OpenAI's API
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([]EmbeddingRecord, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyTexts
	}

	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: texts,
		},
		Model:          e.model,
		Dimensions:     openai.Int(int64(e.dimension)),
		EncodingFormat: openai.EmbeddingNewParamsEncodingFormatFloat,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}

	records := make([]EmbeddingRecord, len(resp.Data))
	for i, data := range resp.Data {
		// Convert []float64 to []float32
		embedding := make([]float32, len(data.Embedding))
		for j, val := range data.Embedding {
			embedding[j] = float32(val)
		}

		records[i] = EmbeddingRecord{
			Text:      texts[int(data.Index)],
			Embedding: embedding,
			Index:     int(data.Index),
			Model:     e.model,
		}
	}

	return records, nil
}

func withTrailingSlash(u string) string {
	if len(u) > 0 && u[len(u)-1] == '/' {
		return u
	}
	return u + "/"
}
