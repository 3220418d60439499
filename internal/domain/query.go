package domain

import "strings"

// IngredientQuery is the comma-separated ingredient list the user typed or
// dictated.
type IngredientQuery string

// Valid reports whether the query may be submitted.
func (q IngredientQuery) Valid() bool {
	return strings.TrimSpace(string(q)) != ""
}

// Items splits the query on commas and trims each entry. Empty entries
// are dropped.
func (q IngredientQuery) Items() []string {
	var out []string
	for _, part := range strings.Split(string(q), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (q IngredientQuery) String() string { return string(q) }
