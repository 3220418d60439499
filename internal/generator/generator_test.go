package generator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/generative-ai-go/genai"

	"github.com/hammamikhairi/cookassist/internal/domain"
	"github.com/hammamikhairi/cookassist/internal/logger"
)

func quietLog() *logger.Logger { return logger.New(logger.LevelOff, nil) }

func TestSimulatedRecipe(t *testing.T) {
	g := NewSimulated(quietLog(), WithDelay(0))
	got, err := g.Generate(context.Background(), "chicken, garlic, lemon")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if !strings.HasPrefix(got, "Here's a delicious recipe using chicken, garlic, lemon:") {
		t.Errorf("unexpected opening: %q", strings.SplitN(got, "\n", 2)[0])
	}
	want := "Ingredients:\n- chicken\n- garlic\n- lemon\n- Salt and pepper to taste\n- Olive oil\n"
	if !strings.Contains(got, want) {
		t.Errorf("ingredient block missing, got:\n%s", got)
	}
	if !strings.HasSuffix(got, "4. Season and serve hot\n\nEnjoy your meal!") {
		t.Errorf("unexpected ending:\n%s", got)
	}
}

func TestSimulatedDropsEmptyItems(t *testing.T) {
	g := NewSimulated(quietLog(), WithDelay(0))
	got, err := g.Generate(context.Background(), "eggs,, ,rice")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.Contains(got, "Ingredients:\n- eggs\n- rice\n- Salt") {
		t.Fatalf("empty items should be dropped:\n%s", got)
	}
}

func TestSimulatedRespectsContext(t *testing.T) {
	g := NewSimulated(quietLog(), WithDelay(time.Hour))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := g.Generate(ctx, "rice"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestGeneratorsRejectBlankQuery(t *testing.T) {
	backend, err := NewBackend("http://127.0.0.1:1", quietLog())
	if err != nil {
		t.Fatal(err)
	}
	oa, err := NewOpenAI("key", quietLog(), WithBaseURL("http://127.0.0.1:1/v1"))
	if err != nil {
		t.Fatal(err)
	}

	gens := map[string]domain.RecipeGenerator{
		"simulated": NewSimulated(quietLog(), WithDelay(0)),
		"backend":   backend,
		"openai":    oa,
	}
	for name, g := range gens {
		t.Run(name, func(t *testing.T) {
			if _, err := g.Generate(context.Background(), "  "); !errors.Is(err, domain.ErrEmptyQuery) {
				t.Fatalf("expected ErrEmptyQuery, got %v", err)
			}
		})
	}
}

func TestRecipePrompt(t *testing.T) {
	got := recipePrompt(" tofu ,  ginger ")
	want := "Create a detailed cooking recipe using these ingredients: tofu, ginger. " +
		"Include a title, short description, ingredient list, and step-by-step instructions."
	if got != want {
		t.Fatalf("prompt =\n%q\nwant\n%q", got, want)
	}
}

func TestBackendGenerate(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    string
		wantMsg string // user-facing message when an error is expected
	}{
		{"recipe", http.StatusOK, `{"recipe":"Lemon chicken"}`, "Lemon chicken", ""},
		{"error field", http.StatusOK, `{"error":"Out of ideas"}`, "", "Out of ideas"},
		{"server error with payload", http.StatusInternalServerError, `{"error":"Model overloaded"}`, "", "Model overloaded"},
		{"server error without payload", http.StatusBadGateway, `<html>bad gateway</html>`, "", domain.DefaultErrorMessage},
		{"empty recipe", http.StatusOK, `{"recipe":"  "}`, "", domain.DefaultErrorMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotReq backendRequest
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("method = %s", r.Method)
				}
				if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
					t.Errorf("decode request: %v", err)
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			b, err := NewBackend(srv.URL, quietLog())
			if err != nil {
				t.Fatal(err)
			}
			got, err := b.Generate(context.Background(), "chicken, lemon")

			if gotReq.Ingredients != "chicken, lemon" {
				t.Errorf("ingredients sent = %q", gotReq.Ingredients)
			}
			if tt.wantMsg == "" {
				if err != nil {
					t.Fatalf("generate: %v", err)
				}
				if got != tt.want {
					t.Fatalf("recipe = %q, want %q", got, tt.want)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error, got recipe %q", got)
			}
			if msg := domain.ErrorMessage(err); msg != tt.wantMsg {
				t.Fatalf("ErrorMessage = %q, want %q", msg, tt.wantMsg)
			}
		})
	}
}

func TestOpenAIGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "application/json")

		if len(req.Messages) == 0 || !strings.Contains(req.Messages[0].Content, "basil") {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":{"message":"No basil, no recipe","type":"invalid_request_error"}}`))
			return
		}
		w.Write([]byte(`{"id":"1","object":"chat.completion","model":"` + req.Model +
			`","choices":[{"index":0,"message":{"role":"assistant","content":" Pesto pasta "},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	g, err := NewOpenAI("key", quietLog(), WithBaseURL(srv.URL+"/v1"))
	if err != nil {
		t.Fatal(err)
	}

	got, err := g.Generate(context.Background(), "basil, pine nuts")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if got != "Pesto pasta" {
		t.Fatalf("recipe = %q", got)
	}

	_, err = g.Generate(context.Background(), "rice")
	if msg := domain.ErrorMessage(err); msg != "No basil, no recipe" {
		t.Fatalf("ErrorMessage = %q (err %v)", msg, err)
	}
}

func TestGeminiResponseText(t *testing.T) {
	tests := []struct {
		name string
		resp *genai.GenerateContentResponse
		want string
	}{
		{"nil", nil, ""},
		{"no candidates", &genai.GenerateContentResponse{}, ""},
		{
			"text parts joined",
			&genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []genai.Part{genai.Text("Garlic "), genai.Text("bread\n")}},
			}}},
			"Garlic bread",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := responseText(tt.resp); got != tt.want {
				t.Fatalf("responseText = %q, want %q", got, tt.want)
			}
		})
	}
}
