package llm

import (
	"context"
	"fmt"
	"os"
	"strings"

	"google.golang.org/genai"
)

// GeminiLLM implements the LLM interface using Google's Gemini API.
type GeminiLLM struct {
	client *genai.Client
	model  string
	params GenerationParams
}

// NewGeminiLLM creates a Gemini-backed LLM implementation.
func NewGeminiLLM(ctx context.Context, config ModelConfig) (*GeminiLLM, error) {
	apiKey := config.Credential
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: missing API key (set GEMINI_API_KEY or provide in config)", ErrInvalidConfig)
	}
	if config.EndpointID == "" {
		return nil, fmt.Errorf("%w: missing model name", ErrInvalidConfig)
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: config.BaseURL}
	}

	c, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: create genai client: %w", ErrInvalidConfig, err)
	}

	return &GeminiLLM{
		client: c,
		model:  config.EndpointID,
		params: config.Params,
	}, nil
}

// Generate sends the prompt to Gemini and returns the generated text.
func (g *GeminiLLM) Generate(ctx context.Context, prompt string) (string, error) {
	if prompt == "" {
		return "", fmt.Errorf("%w: prompt cannot be empty", ErrInvalidConfig)
	}

	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(g.params.Temperature),
	}
	if g.params.MaxLength > 0 {
		cfg.MaxOutputTokens = int32(g.params.MaxLength)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrLLMFailed, err)
	}
	if resp == nil {
		return "", fmt.Errorf("%w: empty response from gemini", ErrLLMFailed)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return withPrompt(prompt, text, g.params), nil
}
