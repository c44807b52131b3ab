package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/ctfscan/internal/model"
)

// Summary is a verified digest attached to a scan. It never alters the
// scan results it describes.
type Summary struct {
	Enabled     bool      `json:"enabled"`
	Provider    string    `json:"provider,omitempty"`
	Model       string    `json:"model,omitempty"`
	Text        string    `json:"text,omitempty"`
	CitedIDs    []string  `json:"cited_ids,omitempty"`
	TokensUsed  int       `json:"tokens_used,omitempty"`
	GeneratedAt time.Time `json:"generated_at,omitempty"`
	Warnings    []string  `json:"warnings,omitempty"`
}

// Summarizer wraps a provider and produces Summary values.
type Summarizer struct {
	provider Provider
	config   Config
}

// NewSummarizer creates a summarizer from configuration. A disabled
// configuration yields a summarizer whose IsEnabled returns false.
func NewSummarizer(config Config) (*Summarizer, error) {
	provider, err := NewProvider(config)
	if err != nil {
		return nil, err
	}
	return &Summarizer{provider: provider, config: config}, nil
}

func (s *Summarizer) IsEnabled() bool {
	return s != nil && s.provider != nil
}

// GenerateSummary digests a market report. The provider may only cite
// condition IDs present in the report.
func (s *Summarizer) GenerateSummary(ctx context.Context, report model.MarketReport) (*Summary, error) {
	if !s.IsEnabled() {
		return &Summary{Enabled: false}, nil
	}

	allowed := make([]string, 0, len(report.Markets))
	for _, m := range report.Markets {
		allowed = append(allowed, m.ConditionID)
	}

	resp, err := s.provider.Summarize(ctx, SummarizeRequest{
		Report:     report,
		AllowedIDs: allowed,
		Model:      s.config.Model,
		MaxTokens:  s.config.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.provider.Name(), err)
	}

	summary := &Summary{
		Enabled:     true,
		Provider:    s.provider.Name(),
		Model:       resp.Model,
		Text:        resp.Summary,
		CitedIDs:    resp.CitedIDs,
		TokensUsed:  resp.TokensUsed,
		GeneratedAt: time.Now().UTC(),
	}
	if resp.Summary == "" {
		summary.Warnings = append(summary.Warnings, "provider returned an empty digest")
	}
	return summary, nil
}

// RenderMarkdown formats a summary as a standalone Markdown section.
// Disabled or nil summaries render to the empty string.
func RenderMarkdown(s *Summary) string {
	if s == nil || !s.Enabled || s.Text == "" {
		return ""
	}

	var b strings.Builder
	b.WriteString("## Scan Digest\n\n")
	b.WriteString(s.Text)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "_Generated by %s/%s", s.Provider, s.Model)
	if s.TokensUsed > 0 {
		fmt.Fprintf(&b, " (%d tokens)", s.TokensUsed)
	}
	b.WriteString("_\n")

	for _, w := range s.Warnings {
		fmt.Fprintf(&b, "\n> Warning: %s\n", w)
	}
	return b.String()
}
