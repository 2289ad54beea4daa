package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	// DefaultHuggingFaceBaseURL serves text-generation for hosted models by repository id.
	DefaultHuggingFaceBaseURL = "https://router.huggingface.co/hf-inference/models/"

	// DefaultHuggingFaceHubURL answers credential checks.
	DefaultHuggingFaceHubURL = "https://huggingface.co/"
)

// HuggingFaceLLM implements the LLM interface against a Hugging Face
// text-generation endpoint. The openai-go client is used purely as an
// authenticated JSON transport: it supplies bearer auth, base-URL resolution,
// and the SDK's default retry policy.
type HuggingFaceLLM struct {
	client     openai.Client
	endpointID string
	hubURL     string
	params     GenerationParams
}

type hfTextGenerationRequest struct {
	Inputs     string                 `json:"inputs"`
	Parameters hfGenerationParameters `json:"parameters"`
	Options    hfRequestOptions       `json:"options"`
}

type hfGenerationParameters struct {
	Temperature    float32 `json:"temperature"`
	MaxLength      int     `json:"max_length"`
	MaxNewTokens   int     `json:"max_new_tokens"`
	ReturnFullText bool    `json:"return_full_text"`
}

type hfRequestOptions struct {
	WaitForModel bool `json:"wait_for_model"`
}

type hfGeneration struct {
	GeneratedText string `json:"generated_text"`
}

type hfWhoAmI struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// NewHuggingFaceLLM binds a Hugging Face endpoint with the configured generation parameters.
// When config.VerifyCredential is set the token is checked against the Hub before returning.
func NewHuggingFaceLLM(ctx context.Context, config ModelConfig, opts ...option.RequestOption) (*HuggingFaceLLM, error) {
	if config.Credential == "" {
		return nil, fmt.Errorf("%w: missing Hugging Face token (set HF_TOKEN or provide in config)", ErrInvalidConfig)
	}
	if config.EndpointID == "" {
		return nil, fmt.Errorf("%w: missing Hugging Face repository id", ErrInvalidConfig)
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = DefaultHuggingFaceBaseURL
	}
	hubURL := config.HubURL
	if hubURL == "" {
		hubURL = DefaultHuggingFaceHubURL
	}

	clientOpts := append([]option.RequestOption{
		option.WithAPIKey(config.Credential),
		option.WithBaseURL(withTrailingSlash(baseURL)),
	}, opts...)

	h := &HuggingFaceLLM{
		client:     openai.NewClient(clientOpts...),
		endpointID: strings.Trim(config.EndpointID, "/"),
		hubURL:     withTrailingSlash(hubURL),
		params:     config.Params,
	}

	if config.VerifyCredential {
		if err := h.verify(ctx); err != nil {
			return nil, err
		}
	}

	return h, nil
}

// verify resolves the identity behind the token; invalid tokens fail here.
func (h *HuggingFaceLLM) verify(ctx context.Context) error {
	var who hfWhoAmI
	if err := h.client.Get(ctx, "api/whoami-v2", nil, &who, option.WithBaseURL(h.hubURL)); err != nil {
		return fmt.Errorf("%w: credential check failed: %w", ErrInvalidConfig, err)
	}
	if who.Name == "" {
		return fmt.Errorf("%w: credential check returned no identity", ErrInvalidConfig)
	}
	return nil
}

// Generate sends the prompt to the bound endpoint and returns the generated text.
func (h *HuggingFaceLLM) Generate(ctx context.Context, prompt string) (string, error) {
	if prompt == "" {
		return "", fmt.Errorf("%w: prompt cannot be empty", ErrInvalidConfig)
	}

	req := hfTextGenerationRequest{
		Inputs: prompt,
		Parameters: hfGenerationParameters{
			Temperature:    h.params.Temperature,
			MaxLength:      h.params.MaxLength,
			MaxNewTokens:   h.params.MaxLength,
			ReturnFullText: h.params.ReturnFullText,
		},
		Options: hfRequestOptions{WaitForModel: true},
	}

	var generations []hfGeneration
	if err := h.client.Post(ctx, h.endpointID, req, &generations); err != nil {
		return "", fmt.Errorf("%w: %w", ErrLLMFailed, err)
	}
	if len(generations) == 0 {
		return "", fmt.Errorf("%w: no response generated", ErrLLMFailed)
	}

	text := strings.TrimSpace(generations[0].GeneratedText)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func withTrailingSlash(u string) string {
	if strings.HasSuffix(u, "/") {
		return u
	}
	return u + "/"
}
