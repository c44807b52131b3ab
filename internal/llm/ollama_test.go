package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ppiankov/ctfscan/internal/model"
)

func ollamaServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func TestOllamaSummarize(t *testing.T) {
	server := ollamaServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req ollamaRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Stream {
			t.Errorf("streaming requested")
		}
		if !strings.Contains(req.Prompt, idMatch) {
			t.Errorf("prompt missing allowed ID")
		}

		_ = json.NewEncoder(w).Encode(ollamaResponse{
			Model:           "llama3.1:8b",
			Response:        "The scan found one condition, " + idMatch + ", whose derivation matched.",
			Done:            true,
			PromptEvalCount: 100,
			EvalCount:       40,
		})
	})

	p, err := NewOllamaProvider(Config{BaseURL: server.URL, Model: "llama3.1:8b"})
	if err != nil {
		t.Fatalf("NewOllamaProvider failed: %v", err)
	}

	resp, err := p.Summarize(context.Background(), SummarizeRequest{
		Report:     model.MarketReport{Markets: []model.Market{{ConditionID: idMatch, DerivationMatch: true}}},
		AllowedIDs: []string{idMatch},
	})
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if resp.TokensUsed != 140 {
		t.Errorf("TokensUsed = %d, want 140", resp.TokensUsed)
	}
	if len(resp.CitedIDs) != 1 || resp.CitedIDs[0] != idMatch {
		t.Errorf("CitedIDs = %v", resp.CitedIDs)
	}
}

func TestOllamaSummarize_CitationLeak(t *testing.T) {
	server := ollamaServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(ollamaResponse{
			Model:    "llama3.1:8b",
			Response: "Condition " + idLegacy + " was interesting.",
			Done:     true,
		})
	})

	p, _ := NewOllamaProvider(Config{BaseURL: server.URL, Model: "llama3.1:8b"})
	_, err := p.Summarize(context.Background(), SummarizeRequest{AllowedIDs: []string{idMatch}})
	if err == nil {
		t.Fatalf("expected citation leak to fail")
	}
	if !strings.Contains(err.Error(), idLegacy) {
		t.Errorf("error does not name the leaked ID: %v", err)
	}
}

func TestOllamaSummarize_APIError(t *testing.T) {
	server := ollamaServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(ollamaError{Error: "model not found"})
	})

	p, _ := NewOllamaProvider(Config{BaseURL: server.URL, Model: "missing"})
	_, err := p.Summarize(context.Background(), SummarizeRequest{})
	if err == nil || !strings.Contains(err.Error(), "model not found") {
		t.Errorf("expected API error to surface, got %v", err)
	}
}

func TestOllamaSummarize_MissingModel(t *testing.T) {
	p, _ := NewOllamaProvider(Config{})
	if _, err := p.Summarize(context.Background(), SummarizeRequest{}); err == nil {
		t.Errorf("expected error when no model is configured")
	}
}

func TestOllamaIsAvailable(t *testing.T) {
	server := ollamaServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	p, _ := NewOllamaProvider(Config{BaseURL: server.URL})
	if !p.IsAvailable(context.Background()) {
		t.Errorf("expected server to be available")
	}

	down, _ := NewOllamaProvider(Config{BaseURL: "http://127.0.0.1:1"})
	if down.IsAvailable(context.Background()) {
		t.Errorf("unreachable server reported available")
	}
}
