// Package llm binds remote text-generation endpoints behind a provider-agnostic
// interface. Each provider is configured with a fixed set of generation
// parameters at load time; callers only ever see the LLM interface.
package llm

import (
	"context"
	"errors"
)

var (
	ErrLLMFailed     = errors.New("LLM request failed")
	ErrInvalidConfig = errors.New("invalid LLM configuration")
	ErrLoadFailed    = errors.New("Failed to load an LLM")
	ErrEmptyResponse = errors.New("model returned empty text")
)

// Provider names a remote inference backend.
type Provider string

const (
	ProviderHuggingFace Provider = "huggingface"
	ProviderOpenAI      Provider = "openai"
	ProviderGemini      Provider = "gemini"
)

// LLM defines the interface for interacting with language models.
// Implementations must be stateless and thread-safe.
type LLM interface {
	// Generate produces text from a prompt using the bound endpoint and parameters.
	Generate(ctx context.Context, prompt string) (string, error)
}

// GenerationParams is the fixed sampling configuration bound to a model at load time.
type GenerationParams struct {
	// Temperature controls sampling randomness (0.0 = deterministic)
	Temperature float32

	// MaxLength caps the number of generated tokens
	MaxLength int

	// ReturnFullText echoes the input prompt in front of the generated text when true
	ReturnFullText bool
}

// DefaultGenerationParams returns the parameters used for medical answers.
func DefaultGenerationParams() GenerationParams {
	return GenerationParams{
		Temperature:    0.3,
		MaxLength:      256,
		ReturnFullText: false,
	}
}

// ModelConfig identifies the endpoint to bind and how to authenticate with it.
type ModelConfig struct {
	// Provider selects the backend (default: huggingface)
	Provider Provider

	// EndpointID is the model or repository identifier (e.g. "mistralai/Mistral-7B-Instruct-v0.2")
	EndpointID string

	// Credential is the access token for the provider
	Credential string

	// BaseURL overrides the provider's inference URL
	BaseURL string

	// HubURL overrides the Hugging Face Hub URL used for credential checks
	HubURL string

	// VerifyCredential checks the credential against the provider while binding
	VerifyCredential bool

	// Params are the generation parameters bound to the model
	Params GenerationParams
}

// DefaultModelConfig returns a Hugging Face configuration with the default parameters.
func DefaultModelConfig() ModelConfig {
	return ModelConfig{
		Provider:         ProviderHuggingFace,
		EndpointID:       "mistralai/Mistral-7B-Instruct-v0.3",
		BaseURL:          DefaultHuggingFaceBaseURL,
		VerifyCredential: true,
		Params:           DefaultGenerationParams(),
	}
}
