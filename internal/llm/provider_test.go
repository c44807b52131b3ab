package llm

import (
	"strings"
	"testing"

	"github.com/ppiankov/ctfscan/internal/model"
)

const (
	idMatch  = "0x40c940e6c830e34f4d0d528b532a48eab95887047ebf058f397521f4bbfffe78"
	idLegacy = "0x84265b449289fe2d463eeaaa0e777ee8d34450e7e4e9f8e9265c81206f5426f4"
)

func TestExtractIDs(t *testing.T) {
	text := "Condition " + idMatch + " matched, while " + idLegacy +
		" did not. " + strings.ToUpper(idMatch[2:]) + " is not a new ID without the prefix. " +
		idMatch + " repeated."

	ids := extractIDs(text)
	if len(ids) != 2 {
		t.Fatalf("expected 2 unique IDs, got %d: %v", len(ids), ids)
	}
	if ids[0] != idMatch || ids[1] != idLegacy {
		t.Errorf("ids = %v", ids)
	}
}

func TestExtractIDs_IgnoresShortHex(t *testing.T) {
	if ids := extractIDs("tx 0xabcdef block 0x1234"); len(ids) != 0 {
		t.Errorf("short hex extracted as IDs: %v", ids)
	}
}

func TestCheckCitations(t *testing.T) {
	allowed := []string{idMatch}

	if err := checkCitations([]string{idMatch}, allowed); err != nil {
		t.Errorf("allowed citation rejected: %v", err)
	}
	// Hex case differences are not leaks.
	if err := checkCitations([]string{"0x" + strings.ToUpper(idMatch[2:])}, allowed); err != nil {
		t.Errorf("case-differing citation rejected: %v", err)
	}
	if err := checkCitations([]string{idLegacy}, allowed); err == nil {
		t.Errorf("expected citation outside the allowlist to be rejected")
	}
}

func TestBuildPrompt_CountsDerivations(t *testing.T) {
	report := model.MarketReport{
		FromBlock: 100,
		ToBlock:   200,
		Markets: []model.Market{
			{ConditionID: idMatch, DerivationMatch: true},
			{ConditionID: idLegacy, LegacyEncoding: true},
			{ConditionID: "0x" + strings.Repeat("11", 32)},
		},
	}

	prompt := BuildPrompt(report, []string{idMatch, idLegacy})
	for _, want := range []string{
		"Block range: 100-200",
		"Conditions found: 3",
		"Derivation matches: 1",
		"Legacy-encoding mismatches: 1",
		"Unexplained mismatches: 1",
		idMatch,
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildPrompt_EmptyReport(t *testing.T) {
	prompt := BuildPrompt(model.MarketReport{}, nil)
	if !strings.Contains(prompt, "(no conditions in this report)") {
		t.Errorf("empty allowlist not flagged in prompt")
	}
}

func TestNewProvider(t *testing.T) {
	if p, err := NewProvider(Config{}); err != nil || p != nil {
		t.Errorf("empty provider should be disabled, got %v, %v", p, err)
	}
	if _, err := NewProvider(Config{Provider: "openai"}); err == nil {
		t.Errorf("openai without API key should fail")
	}
	if p, err := NewProvider(Config{Provider: "ollama"}); err != nil || p == nil {
		t.Errorf("ollama provider failed: %v", err)
	}
	if _, err := NewProvider(Config{Provider: "gemini"}); err == nil {
		t.Errorf("unknown provider should fail")
	}
}
