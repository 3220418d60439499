package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/hammamikhairi/cookassist/internal/domain"
	"github.com/hammamikhairi/cookassist/internal/logger"
)

// Compile-time interface check.
var _ domain.RecipeGenerator = (*Gemini)(nil)

// DefaultGeminiModel is the model used when none is configured.
const DefaultGeminiModel = "gemini-1.5-flash"

// GeminiOption configures the Gemini generator.
type GeminiOption func(*Gemini)

// WithGeminiModel overrides the model name.
func WithGeminiModel(name string) GeminiOption {
	return func(g *Gemini) { g.modelName = name }
}

// Gemini generates recipes with Google's Gemini API.
type Gemini struct {
	client    *genai.Client
	model     *genai.GenerativeModel
	modelName string
	log       *logger.Logger
}

// NewGemini creates a Gemini client authenticated with apiKey. Call Close
// when done.
func NewGemini(ctx context.Context, apiKey string, log *logger.Logger, opts ...GeminiOption) (*Gemini, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: api key is required")
	}
	g := &Gemini{modelName: DefaultGeminiModel, log: log}
	for _, opt := range opts {
		opt(g)
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	g.client = client

	g.model = client.GenerativeModel(g.modelName)
	g.model.GenerationConfig.SetTemperature(DefaultTemperature)
	g.model.GenerationConfig.SetTopP(DefaultTopP)
	g.model.GenerationConfig.SetTopK(DefaultTopK)
	g.model.GenerationConfig.SetMaxOutputTokens(DefaultMaxTokens)

	log.Info("gemini generator ready (model=%s)", g.modelName)
	return g, nil
}

// Generate asks the model for a recipe.
func (g *Gemini) Generate(ctx context.Context, query domain.IngredientQuery) (string, error) {
	if err := checkQuery(query); err != nil {
		return "", err
	}

	g.log.Debug("gemini: generating for %q", query)
	resp, err := g.model.GenerateContent(ctx, genai.Text(recipePrompt(query)))
	if err != nil {
		return "", fmt.Errorf("gemini: generate: %w", err)
	}

	text := responseText(resp)
	if text == "" {
		return "", &domain.GenerationError{Message: "The model returned an empty recipe"}
	}
	g.log.Debug("gemini: reply (%d chars): %s", len(text), truncate(text, 120))
	return text, nil
}

// Close releases the underlying client.
func (g *Gemini) Close() error {
	return g.client.Close()
}

// responseText concatenates the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return strings.TrimSpace(b.String())
}
