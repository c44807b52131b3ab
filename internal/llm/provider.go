// Package llm generates optional natural-language digests of scan
// reports. The digest is strictly descriptive: providers may only
// reference condition IDs present in the report, and a response citing
// anything else is rejected.
package llm

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ppiankov/ctfscan/internal/model"
)

// Provider is a single LLM backend.
type Provider interface {
	Name() string

	// Summarize generates a digest of the report. Implementations must
	// reject responses that cite condition IDs outside req.AllowedIDs.
	Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error)

	// IsAvailable checks whether the backend is configured and reachable.
	IsAvailable(ctx context.Context) bool
}

// SummarizeRequest is the input for digest generation.
type SummarizeRequest struct {
	Report model.MarketReport

	// AllowedIDs is the allowlist of condition IDs the model may cite.
	// Any 32-byte hex value in the response outside this list fails the
	// request.
	AllowedIDs []string

	// Prompt overrides the default prompt when non-empty.
	Prompt string

	Model     string
	MaxTokens int
}

// SummarizeResponse is a verified digest.
type SummarizeResponse struct {
	Summary    string
	CitedIDs   []string
	Model      string
	TokensUsed int
}

// Config holds provider configuration.
type Config struct {
	// Provider name: "openai", "ollama", or "" for disabled.
	Provider string

	Model     string
	APIKey    string
	BaseURL   string
	Timeout   time.Duration
	MaxTokens int
}

// ConfigFromModel converts the file-level LLM section into a provider
// config.
func ConfigFromModel(cfg model.LLMConfig) Config {
	return Config{
		Provider:  cfg.Provider,
		Model:     cfg.Model,
		APIKey:    cfg.APIKey,
		BaseURL:   cfg.BaseURL,
		Timeout:   cfg.Timeout,
		MaxTokens: cfg.MaxTokens,
	}
}

// BuildPrompt constructs the default digest prompt. The allowlist is
// embedded so the model has no reason to invent IDs.
func BuildPrompt(report model.MarketReport, allowedIDs []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, `You are summarizing an on-chain scan of conditional-token markets. The scan cross-checks each emitted condition ID against a local derivation from the event's oracle, question ID and outcome slot count.

RULES:
1. You may ONLY reference condition IDs from this list:
%s

2. Do not speculate about oracle intent or market semantics.
3. Describe derivation mismatches factually: how many matched, how many did not, and whether mismatches reproduce under the padded legacy encoding.
4. If the report is empty, say so.

Report:
- Block range: %d-%d
- Conditions found: %d
`, joinIDs(allowedIDs), report.FromBlock, report.ToBlock, len(report.Markets))

	matched, legacy, unexplained := countDerivations(report.Markets)
	fmt.Fprintf(&b, "- Derivation matches: %d\n", matched)
	fmt.Fprintf(&b, "- Legacy-encoding mismatches: %d\n", legacy)
	fmt.Fprintf(&b, "- Unexplained mismatches: %d\n", unexplained)

	b.WriteString("\nProvide a 3-4 sentence digest of what the scan found.")
	return b.String()
}

func joinIDs(ids []string) string {
	if len(ids) == 0 {
		return "(no conditions in this report)"
	}
	var b strings.Builder
	for i, id := range ids {
		if i >= 20 {
			fmt.Fprintf(&b, "\n... and %d more", len(ids)-20)
			break
		}
		fmt.Fprintf(&b, "\n- %s", id)
	}
	return b.String()
}

func countDerivations(markets []model.Market) (matched, legacy, unexplained int) {
	for _, m := range markets {
		switch {
		case m.DerivationMatch:
			matched++
		case m.LegacyEncoding:
			legacy++
		default:
			unexplained++
		}
	}
	return
}

var hexIDPattern = regexp.MustCompile(`0x[0-9a-fA-F]{64}`)

// extractIDs pulls every 32-byte hex value out of a response,
// deduplicated in order of first appearance.
func extractIDs(text string) []string {
	matches := hexIDPattern.FindAllString(text, -1)
	seen := make(map[string]bool)
	var unique []string
	for _, id := range matches {
		key := strings.ToLower(id)
		if !seen[key] {
			seen[key] = true
			unique = append(unique, id)
		}
	}
	return unique
}

// checkCitations rejects any cited ID outside the allowlist. Hex case
// differences are not leaks.
func checkCitations(cited, allowed []string) error {
	for _, id := range cited {
		ok := false
		for _, a := range allowed {
			if strings.EqualFold(id, a) {
				ok = true
				break
			}
		}
		if !ok {
			return fmt.Errorf("response cited condition ID outside the report: %s", id)
		}
	}
	return nil
}
