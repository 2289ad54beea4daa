package rag

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// DefaultHuggingFaceEmbeddingURL serves feature-extraction pipelines by repository id.
const DefaultHuggingFaceEmbeddingURL = "https://router.huggingface.co/hf-inference/models/"

// HuggingFaceEmbedder implements the Embedder interface with a hosted
// sentence-transformers feature-extraction pipeline.
type HuggingFaceEmbedder struct {
	client    openai.Client
	model     string
	dimension int
}

type hfFeatureExtractionRequest struct {
	Inputs  []string           `json:"inputs"`
	Options hfEmbeddingOptions `json:"options"`
}

type hfEmbeddingOptions struct {
	WaitForModel bool `json:"wait_for_model"`
}

// NewHuggingFaceEmbedder creates an embedder for the configured Hugging Face model.
func NewHuggingFaceEmbedder(config EmbedderConfig, opts ...option.RequestOption) (*HuggingFaceEmbedder, error) {
	apiKey := config.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("HF_TOKEN")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: set HF_TOKEN", ErrMissingAPIKey)
	}
	if config.Model == "" {
		return nil, fmt.Errorf("embedding model cannot be empty")
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = DefaultHuggingFaceEmbeddingURL
	}

	clientOpts := append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(withTrailingSlash(baseURL)),
	}, opts...)

	return &HuggingFaceEmbedder{
		client:    openai.NewClient(clientOpts...),
		model:     strings.Trim(config.Model, "/"),
		dimension: config.Dimension,
	}, nil
}

// GetModel returns the embedding model identifier
func (e *HuggingFaceEmbedder) GetModel() string {
	return e.model
}

// GetDimension returns the embedding vector dimension
func (e *HuggingFaceEmbedder) GetDimension() int {
	return e.dimension
}

// Embed runs the feature-extraction pipeline over texts.
func (e *HuggingFaceEmbedder) Embed(ctx context.Context, texts []string) ([]EmbeddingRecord, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyTexts
	}

	req := hfFeatureExtractionRequest{
		Inputs:  texts,
		Options: hfEmbeddingOptions{WaitForModel: true},
	}

	var vectors [][]float32
	if err := e.client.Post(ctx, e.model+"/pipeline/feature-extraction", req, &vectors); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: expected %d vectors, got %d", ErrEmbeddingFailed, len(texts), len(vectors))
	}

	records := make([]EmbeddingRecord, len(vectors))
	for i, vec := range vectors {
		if e.dimension > 0 && len(vec) != e.dimension {
			return nil, fmt.Errorf("%w: %w: expected %d, got %d", ErrEmbeddingFailed, ErrInvalidDimension, e.dimension, len(vec))
		}
		records[i] = EmbeddingRecord{
			Text:      texts[i],
			Embedding: vec,
			Index:     i,
			Model:     e.model,
		}
	}

	return records, nil
}
