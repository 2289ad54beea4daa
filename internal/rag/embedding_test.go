package rag

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/openai/openai-go/option"
)

func TestNewOpenAIEmbedder_MissingAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	_, err := NewOpenAIEmbedder(EmbedderConfig{Model: "text-embedding-3-small", Dimension: 1536})
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestNewHuggingFaceEmbedder_MissingAPIKey(t *testing.T) {
	t.Setenv("HF_TOKEN", "")

	_, err := NewHuggingFaceEmbedder(DefaultEmbedderConfig())
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestNewEmbedder_UnknownProvider(t *testing.T) {
	if _, err := NewEmbedder(context.Background(), EmbedderConfig{Provider: "word2vec"}); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestDefaultEmbedderConfig(t *testing.T) {
	config := DefaultEmbedderConfig()

	if config.Provider != EmbeddingHuggingFace {
		t.Errorf("Provider = %q, want %q", config.Provider, EmbeddingHuggingFace)
	}
	if config.Model != "sentence-transformers/all-MiniLM-L6-v2" {
		t.Errorf("Model = %q", config.Model)
	}
	if config.Dimension != 384 {
		t.Errorf("Dimension = %d, want 384", config.Dimension)
	}
}

func TestHuggingFaceEmbedder_Embed(t *testing.T) {
	var gotPath, gotAuth string
	var gotReq hfFeatureExtractionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([][]float32{{0.1, 0.2, 0.3}, {0.4, 0.5, 0.6}})
	}))
	defer srv.Close()

	embedder, err := NewHuggingFaceEmbedder(EmbedderConfig{
		Model:     "sentence-transformers/tiny",
		Dimension: 3,
		APIKey:    "hf_test",
		BaseURL:   srv.URL,
	}, option.WithMaxRetries(0))
	if err != nil {
		t.Fatalf("failed to create embedder: %v", err)
	}

	texts := []string{"fever", "headache"}
	records, err := embedder.Embed(context.Background(), texts)
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}

	if gotPath != "/sentence-transformers/tiny/pipeline/feature-extraction" {
		t.Errorf("unexpected path %q", gotPath)
	}
	if gotAuth != "Bearer hf_test" {
		t.Errorf("unexpected auth header %q", gotAuth)
	}
	if len(gotReq.Inputs) != 2 || !gotReq.Options.WaitForModel {
		t.Errorf("unexpected request %+v", gotReq)
	}

	if len(records) != len(texts) {
		t.Fatalf("expected %d records, got %d", len(texts), len(records))
	}
	for i, record := range records {
		if record.Text != texts[i] {
			t.Errorf("record[%d].Text = %q, want %q", i, record.Text, texts[i])
		}
		if record.Index != i {
			t.Errorf("record[%d].Index = %d", i, record.Index)
		}
		if len(record.Embedding) != 3 {
			t.Errorf("record[%d] embedding dimension = %d, want 3", i, len(record.Embedding))
		}
	}
}

func TestHuggingFaceEmbedder_DimensionMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([][]float32{{0.1, 0.2}})
	}))
	defer srv.Close()

	embedder, err := NewHuggingFaceEmbedder(EmbedderConfig{
		Model: "m", Dimension: 3, APIKey: "hf_test", BaseURL: srv.URL,
	}, option.WithMaxRetries(0))
	if err != nil {
		t.Fatalf("failed to create embedder: %v", err)
	}

	if _, err := embedder.Embed(context.Background(), []string{"x"}); !errors.Is(err, ErrInvalidDimension) {
		t.Errorf("expected ErrInvalidDimension, got %v", err)
	}
}

func TestHuggingFaceEmbedder_EmptyTexts(t *testing.T) {
	embedder, err := NewHuggingFaceEmbedder(EmbedderConfig{Model: "m", APIKey: "hf_test"})
	if err != nil {
		t.Fatalf("failed to create embedder: %v", err)
	}

	if _, err := embedder.Embed(context.Background(), nil); err != ErrEmptyTexts {
		t.Errorf("expected ErrEmptyTexts, got %v", err)
	}
}

func TestOpenAIEmbedder_Embed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"model":  "text-embedding-3-small",
			"data": []map[string]any{
				{"object": "embedding", "index": 1, "embedding": []float64{0.4, 0.5}},
				{"object": "embedding", "index": 0, "embedding": []float64{0.1, 0.2}},
			},
			"usage": map[string]any{"prompt_tokens": 2, "total_tokens": 2},
		})
	}))
	defer srv.Close()

	embedder, err := NewOpenAIEmbedder(EmbedderConfig{
		Model: "text-embedding-3-small", Dimension: 2, APIKey: "sk-test", BaseURL: srv.URL,
	}, option.WithMaxRetries(0))
	if err != nil {
		t.Fatalf("failed to create embedder: %v", err)
	}

	records, err := embedder.Embed(context.Background(), []string{"first", "second"})
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Text != "second" || records[0].Index != 1 {
		t.Errorf("record[0] = %+v, want text from index 1", records[0])
	}
	if embedder.GetModel() != "text-embedding-3-small" || embedder.GetDimension() != 2 {
		t.Errorf("unexpected model/dimension %s/%d", embedder.GetModel(), embedder.GetDimension())
	}
}

func TestOpenAIEmbedder_Live(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}
	if os.Getenv("OPENAI_API_KEY") == "" {
		t.Skip("OPENAI_API_KEY not set")
	}

	embedder, err := NewOpenAIEmbedder(EmbedderConfig{Model: "text-embedding-3-small", Dimension: 384})
	if err != nil {
		t.Fatalf("failed to create embedder: %v", err)
	}

	records, err := embedder.Embed(context.Background(), []string{"chest pain", "migraine"})
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	for i, record := range records {
		if len(record.Embedding) != 384 {
			t.Errorf("record[%d] embedding dimension = %d, want 384", i, len(record.Embedding))
		}
	}
}
