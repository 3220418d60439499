// Package generator provides recipe generators: a local simulation,
// LLM-backed clients and a remote recipe backend.
package generator

import (
	"fmt"
	"strings"

	"github.com/hammamikhairi/cookassist/internal/domain"
)

// Shared sampling parameters for the LLM generators.
const (
	DefaultTemperature = 0.7
	DefaultTopP        = 1.0
	DefaultTopK        = 1
	DefaultMaxTokens   = 1024
)

// recipePrompt is the single user prompt sent to every LLM backend.
func recipePrompt(query domain.IngredientQuery) string {
	return fmt.Sprintf(
		"Create a detailed cooking recipe using these ingredients: %s. "+
			"Include a title, short description, ingredient list, and step-by-step instructions.",
		strings.Join(query.Items(), ", "),
	)
}

// checkQuery rejects blank queries before any network call.
func checkQuery(query domain.IngredientQuery) error {
	if !query.Valid() {
		return domain.ErrEmptyQuery
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
