package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/hammamikhairi/cookassist/internal/domain"
	"github.com/hammamikhairi/cookassist/internal/logger"
)

// Compile-time interface check.
var _ domain.RecipeGenerator = (*OpenAI)(nil)

// OpenAIOption configures the OpenAI generator.
type OpenAIOption func(*openAIConfig)

type openAIConfig struct {
	model    string
	endpoint string // Azure resource endpoint, empty for api.openai.com
	baseURL  string
}

// WithOpenAIModel overrides the model (or Azure deployment) name.
func WithOpenAIModel(model string) OpenAIOption {
	return func(c *openAIConfig) { c.model = model }
}

// WithAzureEndpoint switches the client to Azure OpenAI at endpoint,
// e.g. "https://<resource>.openai.azure.com".
func WithAzureEndpoint(endpoint string) OpenAIOption {
	return func(c *openAIConfig) { c.endpoint = endpoint }
}

// WithBaseURL points the client at an OpenAI-compatible server.
func WithBaseURL(url string) OpenAIOption {
	return func(c *openAIConfig) { c.baseURL = url }
}

// OpenAI generates recipes through the chat-completions API, either on
// OpenAI itself or an Azure OpenAI deployment.
type OpenAI struct {
	client *openai.Client
	model  string
	log    *logger.Logger
}

// NewOpenAI creates a chat-completions generator.
func NewOpenAI(apiKey string, log *logger.Logger, opts ...OpenAIOption) (*OpenAI, error) {
	if apiKey == "" {
		return nil, errors.New("openai: api key is required")
	}
	cfg := openAIConfig{model: openai.GPT4oMini}
	for _, opt := range opts {
		opt(&cfg)
	}

	var clientCfg openai.ClientConfig
	if cfg.endpoint != "" {
		clientCfg = openai.DefaultAzureConfig(apiKey, cfg.endpoint)
		log.Info("openai generator ready (azure, deployment=%s)", cfg.model)
	} else {
		clientCfg = openai.DefaultConfig(apiKey)
		log.Info("openai generator ready (model=%s)", cfg.model)
	}
	if cfg.baseURL != "" {
		clientCfg.BaseURL = cfg.baseURL
	}

	return &OpenAI{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.model,
		log:    log,
	}, nil
}

// Generate asks the model for a recipe. API errors surface their message
// to the user.
func (o *OpenAI) Generate(ctx context.Context, query domain.IngredientQuery) (string, error) {
	if err := checkQuery(query); err != nil {
		return "", err
	}

	o.log.Debug("openai: generating for %q", query)
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: recipePrompt(query)},
		},
		Temperature: DefaultTemperature,
		TopP:        DefaultTopP,
		MaxTokens:   DefaultMaxTokens,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", &domain.GenerationError{Message: apiErr.Message, Err: err}
		}
		return "", fmt.Errorf("openai: chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", &domain.GenerationError{Message: "The model returned an empty recipe"}
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", &domain.GenerationError{Message: "The model returned an empty recipe"}
	}
	o.log.Debug("openai: reply (%d chars): %s", len(text), truncate(text, 120))
	return text, nil
}
