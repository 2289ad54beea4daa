package chain

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Yates-Labs/medrag/internal/llm"
	"github.com/Yates-Labs/medrag/internal/logging"
	"github.com/Yates-Labs/medrag/internal/rag"
)

var (
	ErrChainFailed    = errors.New("Failed to make a QA chain")
	ErrModelNotLoaded = errors.New("LLM not loaded")
)

// Config is the composition policy of a QA chain.
type Config struct {
	// Template is the prompt; it must declare the context and question slots
	Template *PromptTemplate

	// K is the number of chunks retrieved across the whole index per question
	K int

	// ReturnSourceDocuments exposes the retrieved chunks and their metadata in results
	ReturnSourceDocuments bool

	// DocumentSeparator joins chunks in the context slot
	DocumentSeparator string
}

// DefaultConfig returns the medical prompt with global top-1 retrieval and
// no source documents.
func DefaultConfig() Config {
	return Config{
		Template:              MedicalPrompt(),
		K:                     1,
		ReturnSourceDocuments: false,
		DocumentSeparator:     DefaultDocumentSeparator,
	}
}

// Builder assembles a QAChain from a vector store and a model. The loaders are
// called on every Build, so two builds yield two independent chains.
type Builder struct {
	// LoadVectorStore opens the index; nil, or an empty index, fails the build.
	// Build takes ownership of the returned store: it is closed when a later
	// step fails, and by QAChain.Close otherwise. A loader sharing one store
	// across builds must return a handle the chain may close.
	LoadVectorStore func(ctx context.Context) (rag.VectorStore, error)

	// LoadModel binds the language model
	LoadModel func(ctx context.Context) (llm.LLM, error)

	// Embedder embeds questions for retrieval
	Embedder rag.Embedder

	Config Config
	Logger *zap.Logger
}

// NewBuilder wires a Builder to the configured vector store backend and model
// endpoint, sharing logger with both loaders.
func NewBuilder(storeConfig rag.StoreConfig, modelConfig llm.ModelConfig, embedder rag.Embedder, logger *zap.Logger) *Builder {
	return &Builder{
		LoadVectorStore: func(ctx context.Context) (rag.VectorStore, error) {
			return rag.LoadVectorStore(ctx, storeConfig, logger)
		},
		LoadModel: func(ctx context.Context) (llm.LLM, error) {
			return llm.LoadModel(ctx, modelConfig, logger)
		},
		Embedder: embedder,
		Config:   DefaultConfig(),
		Logger:   logger,
	}
}

// Build runs the construction steps in order: vector store, model, retriever,
// composition. Any failure aborts the build, is logged once, and is returned
// wrapped in ErrChainFailed with a nil chain.
func (b *Builder) Build(ctx context.Context) (*QAChain, error) {
	logger := logging.OrNop(b.Logger)

	qa, err := b.build(ctx, logger)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrChainFailed, err)
		logger.Error("Failed to make a QA chain", zap.Error(err))
		return nil, err
	}

	logger.Info("Successfully created the QA chain",
		zap.Int("k", qa.config.K),
		zap.Bool("return_source_documents", qa.config.ReturnSourceDocuments),
	)
	return qa, nil
}

func (b *Builder) build(ctx context.Context, logger *zap.Logger) (*QAChain, error) {
	logger.Info("Loading vector store for context")
	store, err := b.loadVectorStore(ctx)
	if err != nil {
		return nil, err
	}

	model, err := b.loadModel(ctx)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	config, err := b.config()
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	retriever, err := rag.NewRetriever(b.Embedder, store, rag.RetrieverOptions{
		K:                     config.K,
		ReturnSourceDocuments: config.ReturnSourceDocuments,
	})
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to derive retriever: %w", err)
	}

	return &QAChain{
		model:     model,
		store:     store,
		retriever: retriever,
		template:  config.Template,
		config:    config,
		logger:    logger,
	}, nil
}

func (b *Builder) loadVectorStore(ctx context.Context) (rag.VectorStore, error) {
	if b.LoadVectorStore == nil {
		return nil, rag.ErrVectorStoreEmpty
	}
	store, err := b.LoadVectorStore(ctx)
	if err != nil {
		if errors.Is(err, rag.ErrVectorStoreEmpty) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", rag.ErrVectorStoreEmpty, err)
	}
	if store == nil {
		return nil, rag.ErrVectorStoreEmpty
	}
	return store, nil
}

func (b *Builder) loadModel(ctx context.Context) (llm.LLM, error) {
	if b.LoadModel == nil {
		return nil, ErrModelNotLoaded
	}
	model, err := b.LoadModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrModelNotLoaded, err)
	}
	if model == nil {
		return nil, ErrModelNotLoaded
	}
	return model, nil
}

// config fills unset fields from DefaultConfig and checks the template
// carries the context and question slots.
func (b *Builder) config() (Config, error) {
	config := b.Config
	defaults := DefaultConfig()
	if config.Template == nil {
		config.Template = defaults.Template
	}
	if config.K == 0 {
		config.K = defaults.K
	}
	if config.DocumentSeparator == "" {
		config.DocumentSeparator = defaults.DocumentSeparator
	}

	declared := make(map[string]bool)
	for _, v := range config.Template.Variables() {
		declared[v] = true
	}
	if !declared["context"] || !declared["question"] || len(declared) != 2 {
		return Config{}, fmt.Errorf("%w: QA prompt must declare exactly context and question, got %v",
			ErrInvalidTemplate, config.Template.Variables())
	}
	return config, nil
}
