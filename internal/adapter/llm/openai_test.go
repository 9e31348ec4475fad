package llm

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func chatServer(t *testing.T, reply string, choices bool) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Messages) != 1 {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		out := map[string]any{"id": "1", "object": "chat.completion", "model": req.Model}
		if choices {
			out["choices"] = []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": reply},
			}}
		} else {
			out["choices"] = []map[string]any{}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(out)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAIChat_Generate(t *testing.T) {
	srv := chatServer(t, " Yes ", true)

	c, err := NewOllamaChat(Options{Model: "judge", BaseURL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}
	got, err := c.Generate("is this relevant?")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != " Yes " {
		t.Errorf("expected raw reply, got %q", got)
	}
	if c.ModelName() != "judge" {
		t.Errorf("unexpected model %s", c.ModelName())
	}
}

func TestOpenAIChat_NoChoices(t *testing.T) {
	srv := chatServer(t, "", false)

	c, _ := NewOllamaChat(Options{Model: "judge", BaseURL: srv.URL})
	if _, err := c.Generate("prompt"); err == nil {
		t.Error("expected error when no choices are returned")
	}
}

func TestNewOpenAIChat_MissingKey(t *testing.T) {
	t.Setenv("DOCLOOKUP_TEST_EMPTY_KEY", "")
	if _, err := NewOpenAIChat(Options{APIKeyEnv: "DOCLOOKUP_TEST_EMPTY_KEY", Model: "m"}); err == nil {
		t.Error("expected error when API key is missing")
	}
}
