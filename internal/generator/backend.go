package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hammamikhairi/cookassist/internal/domain"
	"github.com/hammamikhairi/cookassist/internal/logger"
)

// Compile-time interface check.
var _ domain.RecipeGenerator = (*Backend)(nil)

// BackendOption configures the Backend generator.
type BackendOption func(*Backend)

// WithBackendTimeout sets the HTTP client timeout.
func WithBackendTimeout(d time.Duration) BackendOption {
	return func(b *Backend) { b.http.Timeout = d }
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) BackendOption {
	return func(b *Backend) { b.http = c }
}

type backendRequest struct {
	Ingredients string `json:"ingredients"`
}

type backendResponse struct {
	Recipe string `json:"recipe"`
	Error  string `json:"error"`
}

// Backend posts the ingredient list to a recipe service.
type Backend struct {
	url  string
	http *http.Client
	log  *logger.Logger
}

// NewBackend creates a client for the recipe service at url.
func NewBackend(url string, log *logger.Logger, opts ...BackendOption) (*Backend, error) {
	if url == "" {
		return nil, errors.New("backend: url is required")
	}
	b := &Backend{
		url:  url,
		http: &http.Client{Timeout: 60 * time.Second},
		log:  log,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Generate sends {"ingredients": ...} and returns the "recipe" field. An
// "error" field in the reply becomes the user-facing message.
func (b *Backend) Generate(ctx context.Context, query domain.IngredientQuery) (string, error) {
	if err := checkQuery(query); err != nil {
		return "", err
	}

	body, err := json.Marshal(backendRequest{Ingredients: query.String()})
	if err != nil {
		return "", fmt.Errorf("backend: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("backend: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	b.log.Debug("backend: POST %s (%d bytes)", b.url, len(body))

	resp, err := b.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("backend: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("backend: read response: %w", err)
	}

	var result backendResponse
	decodeErr := json.Unmarshal(respBody, &result)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := fmt.Errorf("backend: %s", resp.Status)
		if decodeErr == nil && result.Error != "" {
			return "", &domain.GenerationError{Message: result.Error, Err: statusErr}
		}
		return "", statusErr
	}
	if decodeErr != nil {
		return "", fmt.Errorf("backend: unmarshal response: %w", decodeErr)
	}
	if result.Error != "" {
		return "", &domain.GenerationError{Message: result.Error}
	}

	recipe := strings.TrimSpace(result.Recipe)
	if recipe == "" {
		return "", errors.New("backend: empty recipe")
	}
	b.log.Debug("backend: reply (%d chars): %s", len(recipe), truncate(recipe, 120))
	return recipe, nil
}
