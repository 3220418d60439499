package generator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hammamikhairi/cookassist/internal/domain"
	"github.com/hammamikhairi/cookassist/internal/logger"
)

// Compile-time interface check.
var _ domain.RecipeGenerator = (*Simulated)(nil)

// SimulatedOption configures the Simulated generator.
type SimulatedOption func(*Simulated)

// WithDelay sets the artificial generation latency.
func WithDelay(d time.Duration) SimulatedOption {
	return func(s *Simulated) { s.delay = d }
}

// Simulated produces a fixed template recipe after a delay. It never
// touches the network and never fails except on cancellation.
type Simulated struct {
	delay time.Duration
	log   *logger.Logger
}

// NewSimulated creates a simulated generator with a 2s default delay.
func NewSimulated(log *logger.Logger, opts ...SimulatedOption) *Simulated {
	s := &Simulated{delay: 2 * time.Second, log: log}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate waits for the configured delay and returns the template
// recipe for query.
func (s *Simulated) Generate(ctx context.Context, query domain.IngredientQuery) (string, error) {
	if err := checkQuery(query); err != nil {
		return "", err
	}

	s.log.Debug("simulating generation for %q (%s)", query, s.delay)
	timer := time.NewTimer(s.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-timer.C:
	}

	return simulatedRecipe(query), nil
}

func simulatedRecipe(query domain.IngredientQuery) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Here's a delicious recipe using %s:\n\nIngredients:\n", query)
	for _, item := range query.Items() {
		fmt.Fprintf(&b, "- %s\n", item)
	}
	b.WriteString("- Salt and pepper to taste\n- Olive oil\n\n")
	b.WriteString("Instructions:\n")
	b.WriteString("1. Prepare all ingredients\n")
	b.WriteString("2. Heat oil in a pan\n")
	b.WriteString("3. Cook ingredients until tender\n")
	b.WriteString("4. Season and serve hot\n\n")
	b.WriteString("Enjoy your meal!")
	return b.String()
}
