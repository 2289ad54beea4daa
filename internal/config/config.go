// Package config loads medrag settings from defaults, an optional YAML file,
// a .env file, the environment, and command-line flags, in increasing order of
// precedence.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/Yates-Labs/medrag/internal/chain"
	"github.com/Yates-Labs/medrag/internal/llm"
	"github.com/Yates-Labs/medrag/internal/rag"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the root configuration
type Config struct {
	LLM       LLMConfig       `mapstructure:"llm"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Store     StoreConfig     `mapstructure:"store"`
	Retrieval RetrievalConfig `mapstructure:"retrieval"`
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Data      DataConfig      `mapstructure:"data"`
}

// LLMConfig selects the inference endpoint and its generation parameters
type LLMConfig struct {
	Provider         string  `mapstructure:"provider"`
	EndpointID       string  `mapstructure:"endpoint_id"`
	Credential       string  `mapstructure:"credential"`
	BaseURL          string  `mapstructure:"base_url"`
	HubURL           string  `mapstructure:"hub_url"`
	VerifyCredential bool    `mapstructure:"verify_credential"`
	Temperature      float32 `mapstructure:"temperature"`
	MaxLength        int     `mapstructure:"max_length"`
	ReturnFullText   bool    `mapstructure:"return_full_text"`
}

// EmbeddingConfig selects the model that embeds chunks and questions
type EmbeddingConfig struct {
	Provider  string `mapstructure:"provider"`
	Model     string `mapstructure:"model"`
	Dimension int    `mapstructure:"dimension"`
	APIKey    string `mapstructure:"api_key"`
	BaseURL   string `mapstructure:"base_url"`
}

// StoreConfig selects the vector store backend
type StoreConfig struct {
	Backend  string         `mapstructure:"backend"`
	Milvus   MilvusConfig   `mapstructure:"milvus"`
	PgVector PgVectorConfig `mapstructure:"pgvector"`
}

type MilvusConfig struct {
	Address    string `mapstructure:"address"`
	APIKey     string `mapstructure:"api_key"`
	Collection string `mapstructure:"collection"`
}

type PgVectorConfig struct {
	DatabaseURL string `mapstructure:"database_url"`
	Table       string `mapstructure:"table"`
}

// RetrievalConfig is the chain's retrieval policy
type RetrievalConfig struct {
	K                     int  `mapstructure:"k"`
	ReturnSourceDocuments bool `mapstructure:"return_source_documents"`
}

// ServerConfig configures the HTTP surface
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// LogConfig configures the zap logger
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DataConfig configures PDF ingestion and indexing
type DataConfig struct {
	Path         string `mapstructure:"path"`
	ChunkSize    int    `mapstructure:"chunk_size"`
	ChunkOverlap int    `mapstructure:"chunk_overlap"`
	BatchSize    int    `mapstructure:"batch_size"`
}

// Validate reports settings that can never work. Credentials and endpoint ids
// are left to the providers, which reject them when binding.
func (c *Config) Validate() error {
	switch llm.Provider(c.LLM.Provider) {
	case llm.ProviderHuggingFace, llm.ProviderOpenAI, llm.ProviderGemini:
	default:
		return fmt.Errorf("%w: unknown llm provider %q", ErrInvalidConfig, c.LLM.Provider)
	}
	switch rag.EmbeddingProvider(c.Embedding.Provider) {
	case rag.EmbeddingHuggingFace, rag.EmbeddingOpenAI, rag.EmbeddingGemini:
	default:
		return fmt.Errorf("%w: unknown embedding provider %q", ErrInvalidConfig, c.Embedding.Provider)
	}
	switch rag.Backend(c.Store.Backend) {
	case rag.BackendMilvus, rag.BackendPgVector:
	default:
		return fmt.Errorf("%w: unknown vector store backend %q", ErrInvalidConfig, c.Store.Backend)
	}

	if c.Embedding.Dimension <= 0 {
		return fmt.Errorf("%w: embedding dimension must be positive, got %d", ErrInvalidConfig, c.Embedding.Dimension)
	}
	if c.Retrieval.K <= 0 {
		return fmt.Errorf("%w: retrieval k must be positive, got %d", ErrInvalidConfig, c.Retrieval.K)
	}
	if c.LLM.MaxLength <= 0 {
		return fmt.Errorf("%w: max_length must be positive, got %d", ErrInvalidConfig, c.LLM.MaxLength)
	}
	if c.LLM.Temperature < 0 {
		return fmt.Errorf("%w: temperature cannot be negative, got %v", ErrInvalidConfig, c.LLM.Temperature)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server port out of range: %d", ErrInvalidConfig, c.Server.Port)
	}
	if c.Data.ChunkSize <= 0 || c.Data.ChunkOverlap < 0 || c.Data.ChunkOverlap >= c.Data.ChunkSize {
		return fmt.Errorf("%w: chunk overlap %d must be in [0, chunk size %d)", ErrInvalidConfig, c.Data.ChunkOverlap, c.Data.ChunkSize)
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		return fmt.Errorf("%w: log format must be json or console, got %q", ErrInvalidConfig, c.Log.Format)
	}

	return nil
}

// ModelConfig returns the model loader settings
func (c *Config) ModelConfig() llm.ModelConfig {
	return llm.ModelConfig{
		Provider:         llm.Provider(c.LLM.Provider),
		EndpointID:       c.LLM.EndpointID,
		Credential:       c.LLM.Credential,
		BaseURL:          c.LLM.BaseURL,
		HubURL:           c.LLM.HubURL,
		VerifyCredential: c.LLM.VerifyCredential,
		Params: llm.GenerationParams{
			Temperature:    c.LLM.Temperature,
			MaxLength:      c.LLM.MaxLength,
			ReturnFullText: c.LLM.ReturnFullText,
		},
	}
}

// EmbedderConfig returns the embedding model settings
func (c *Config) EmbedderConfig() rag.EmbedderConfig {
	return rag.EmbedderConfig{
		Provider:  rag.EmbeddingProvider(c.Embedding.Provider),
		Model:     c.Embedding.Model,
		Dimension: c.Embedding.Dimension,
		APIKey:    c.Embedding.APIKey,
		BaseURL:   c.Embedding.BaseURL,
	}
}

// StoreConfig returns the vector store settings; both backends take their
// vector dimension from the embedding model.
func (c *Config) StoreConfig() rag.StoreConfig {
	defaults := rag.DefaultStoreConfig()

	mc := defaults.Milvus
	mc.Address = c.Store.Milvus.Address
	mc.APIKey = c.Store.Milvus.APIKey
	mc.CollectionName = c.Store.Milvus.Collection
	mc.Dimension = c.Embedding.Dimension

	pc := defaults.PgVector
	pc.DatabaseURL = c.Store.PgVector.DatabaseURL
	pc.Table = c.Store.PgVector.Table
	pc.Dimension = c.Embedding.Dimension

	return rag.StoreConfig{
		Backend:  rag.Backend(c.Store.Backend),
		Milvus:   mc,
		PgVector: pc,
	}
}

// ChainConfig returns the QA chain composition policy
func (c *Config) ChainConfig() chain.Config {
	config := chain.DefaultConfig()
	config.K = c.Retrieval.K
	config.ReturnSourceDocuments = c.Retrieval.ReturnSourceDocuments
	return config
}

// IndexOptions returns the indexer settings
func (c *Config) IndexOptions(force bool) rag.IndexOptions {
	return rag.IndexOptions{
		BatchSize:    c.Data.BatchSize,
		ForceReindex: force,
	}
}

// Addr returns the server listen address
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
