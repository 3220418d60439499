package main

import (
	"context"
	"fmt"
	"os"

	"github.com/hammamikhairi/cookassist/internal/domain"
	"github.com/hammamikhairi/cookassist/internal/generator"
	"github.com/hammamikhairi/cookassist/internal/logger"
)

// Env var names for generator credentials.
const (
	envGeminiKey           = "GEMINI_API_KEY"
	envOpenAIKey           = "OPENAI_API_KEY"
	envAzureOpenAIKey      = "AZURE_OPENAI_KEY"
	envAzureOpenAIEndpoint = "AZURE_OPENAI_ENDPOINT"
	envBackendURL          = "RECIPE_BACKEND_URL"
)

// buildGenerator creates the generator named by -generator. The returned
// func releases its resources.
func buildGenerator(ctx context.Context, cfg config, log *logger.Logger) (domain.RecipeGenerator, func(), error) {
	noop := func() {}

	switch cfg.generator {
	case "simulated", "":
		log.Info("using simulated generator (delay=%s)", cfg.delay)
		return generator.NewSimulated(log, generator.WithDelay(cfg.delay)), noop, nil

	case "gemini":
		var opts []generator.GeminiOption
		if cfg.model != "" {
			opts = append(opts, generator.WithGeminiModel(cfg.model))
		}
		g, err := generator.NewGemini(ctx, os.Getenv(envGeminiKey), log, opts...)
		if err != nil {
			return nil, noop, fmt.Errorf("%w (set %s)", err, envGeminiKey)
		}
		return g, func() { g.Close() }, nil

	case "openai":
		var opts []generator.OpenAIOption
		if cfg.model != "" {
			opts = append(opts, generator.WithOpenAIModel(cfg.model))
		}
		key := os.Getenv(envOpenAIKey)
		if endpoint := os.Getenv(envAzureOpenAIEndpoint); endpoint != "" {
			key = os.Getenv(envAzureOpenAIKey)
			opts = append(opts, generator.WithAzureEndpoint(endpoint))
		}
		g, err := generator.NewOpenAI(key, log, opts...)
		if err != nil {
			return nil, noop, fmt.Errorf("%w (set %s, or %s and %s)", err, envOpenAIKey, envAzureOpenAIKey, envAzureOpenAIEndpoint)
		}
		return g, noop, nil

	case "backend":
		url := cfg.backendURL
		if url == "" {
			url = os.Getenv(envBackendURL)
		}
		g, err := generator.NewBackend(url, log)
		if err != nil {
			return nil, noop, fmt.Errorf("%w (use -backend-url or set %s)", err, envBackendURL)
		}
		return g, noop, nil
	}
	return nil, noop, fmt.Errorf("unknown generator %q", cfg.generator)
}
