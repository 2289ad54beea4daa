package llm

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// OpenAILLM implements the LLM interface using OpenAI's chat completions API.
type OpenAILLM struct {
	client openai.Client
	model  string
	params GenerationParams
}

// NewOpenAILLM creates an OpenAI-backed LLM implementation.
// Returns an error if the API key or model name is missing.
func NewOpenAILLM(config ModelConfig, opts ...option.RequestOption) (*OpenAILLM, error) {
	// Use config API key or fall back to environment variable
	apiKey := config.Credential
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: missing API key (set OPENAI_API_KEY or provide in config)", ErrInvalidConfig)
	}
	if config.EndpointID == "" {
		return nil, fmt.Errorf("%w: missing model name", ErrInvalidConfig)
	}

	clientOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if config.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(withTrailingSlash(config.BaseURL)))
	}
	clientOpts = append(clientOpts, opts...)

	return &OpenAILLM{
		client: openai.NewClient(clientOpts...),
		model:  config.EndpointID,
		params: config.Params,
	}, nil
}

// Generate sends the prompt to OpenAI and returns the generated text.
func (o *OpenAILLM) Generate(ctx context.Context, prompt string) (string, error) {
	if prompt == "" {
		return "", fmt.Errorf("%w: prompt cannot be empty", ErrInvalidConfig)
	}

	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(float64(o.params.Temperature)),
	}
	if o.params.MaxLength > 0 {
		params.MaxTokens = openai.Int(int64(o.params.MaxLength))
	}

	completion, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrLLMFailed, err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("%w: no response generated", ErrLLMFailed)
	}

	text := strings.TrimSpace(completion.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return withPrompt(prompt, text, o.params), nil
}

// withPrompt echoes the prompt ahead of the answer for providers that never do it themselves.
func withPrompt(prompt, text string, params GenerationParams) string {
	if !params.ReturnFullText {
		return text
	}
	return prompt + text
}
