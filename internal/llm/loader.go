package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Yates-Labs/medrag/internal/logging"
)

// displayName is the provider name used in log lines.
func (p Provider) displayName() string {
	switch p {
	case ProviderHuggingFace:
		return "HuggingFace"
	case ProviderOpenAI:
		return "OpenAI"
	case ProviderGemini:
		return "Gemini"
	default:
		return string(p)
	}
}

// LoadModel binds the configured endpoint and returns a ready-to-use LLM.
// Failures of any kind are wrapped in ErrLoadFailed, logged once at error
// level, and returned with a nil LLM.
func LoadModel(ctx context.Context, config ModelConfig, logger *zap.Logger) (LLM, error) {
	logger = logging.OrNop(logger)

	provider := config.Provider
	if provider == "" {
		provider = ProviderHuggingFace
	}

	logger.Info(fmt.Sprintf("Loading LLM from %s...", provider.displayName()),
		zap.String("endpoint", config.EndpointID),
		zap.Float32("temperature", config.Params.Temperature),
		zap.Int("max_length", config.Params.MaxLength),
		zap.Bool("return_full_text", config.Params.ReturnFullText),
	)

	model, err := bind(ctx, provider, config)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrLoadFailed, err)
		logger.Error("Failed to load an LLM",
			zap.String("provider", string(provider)),
			zap.String("endpoint", config.EndpointID),
			zap.Error(err),
		)
		return nil, err
	}

	logger.Info("LLM loaded successfully", zap.String("provider", string(provider)))
	return model, nil
}

func bind(ctx context.Context, provider Provider, config ModelConfig) (LLM, error) {
	switch provider {
	case ProviderHuggingFace:
		return NewHuggingFaceLLM(ctx, config)
	case ProviderOpenAI:
		return NewOpenAILLM(config)
	case ProviderGemini:
		return NewGeminiLLM(ctx, config)
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrInvalidConfig, provider)
	}
}
