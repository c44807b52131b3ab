package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ppiankov/ctfscan/internal/model"
)

type stubProvider struct {
	resp *SummarizeResponse
	err  error

	gotAllowed []string
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error) {
	s.gotAllowed = req.AllowedIDs
	return s.resp, s.err
}

func (s *stubProvider) IsAvailable(ctx context.Context) bool { return true }

func TestSummarizer_Disabled(t *testing.T) {
	s, err := NewSummarizer(Config{})
	if err != nil {
		t.Fatalf("NewSummarizer failed: %v", err)
	}
	if s.IsEnabled() {
		t.Errorf("empty config should disable the summarizer")
	}

	summary, err := s.GenerateSummary(context.Background(), model.MarketReport{})
	if err != nil {
		t.Fatalf("GenerateSummary failed: %v", err)
	}
	if summary.Enabled {
		t.Errorf("disabled summarizer produced an enabled summary")
	}
}

func TestSummarizer_AllowlistFromReport(t *testing.T) {
	stub := &stubProvider{resp: &SummarizeResponse{Summary: "One match.", Model: "m"}}
	s := &Summarizer{provider: stub}

	report := model.MarketReport{Markets: []model.Market{
		{ConditionID: idMatch},
		{ConditionID: idLegacy},
	}}
	summary, err := s.GenerateSummary(context.Background(), report)
	if err != nil {
		t.Fatalf("GenerateSummary failed: %v", err)
	}

	if len(stub.gotAllowed) != 2 || stub.gotAllowed[0] != idMatch || stub.gotAllowed[1] != idLegacy {
		t.Errorf("allowlist = %v", stub.gotAllowed)
	}
	if !summary.Enabled || summary.Provider != "stub" || summary.Text != "One match." {
		t.Errorf("summary = %+v", summary)
	}
	if len(summary.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", summary.Warnings)
	}
}

func TestSummarizer_EmptyDigestWarns(t *testing.T) {
	stub := &stubProvider{resp: &SummarizeResponse{Summary: ""}}
	s := &Summarizer{provider: stub}

	summary, err := s.GenerateSummary(context.Background(), model.MarketReport{})
	if err != nil {
		t.Fatalf("GenerateSummary failed: %v", err)
	}
	if len(summary.Warnings) != 1 {
		t.Errorf("expected one warning, got %v", summary.Warnings)
	}
}

func TestSummarizer_ProviderError(t *testing.T) {
	stub := &stubProvider{err: errors.New("boom")}
	s := &Summarizer{provider: stub}

	if _, err := s.GenerateSummary(context.Background(), model.MarketReport{}); err == nil {
		t.Errorf("expected provider error to propagate")
	}
}

func TestRenderMarkdown(t *testing.T) {
	if md := RenderMarkdown(nil); md != "" {
		t.Errorf("nil summary rendered: %q", md)
	}
	if md := RenderMarkdown(&Summary{Enabled: false}); md != "" {
		t.Errorf("disabled summary rendered: %q", md)
	}

	md := RenderMarkdown(&Summary{
		Enabled:    true,
		Provider:   "ollama",
		Model:      "llama3.1:8b",
		Text:       "All derivations matched.",
		TokensUsed: 140,
		Warnings:   []string{"provider returned an empty digest"},
	})
	for _, want := range []string{
		"## Scan Digest",
		"All derivations matched.",
		"ollama/llama3.1:8b",
		"(140 tokens)",
		"> Warning:",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
}
