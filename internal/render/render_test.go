package render

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/ppiankov/ctfscan/internal/model"
)

func sampleMarket() model.Market {
	return model.Market{
		ConditionID:        "0x40c940e6c830e34f4d0d528b532a48eab95887047ebf058f397521f4bbfffe78",
		QuestionID:         "0x6a0d290c8ce1536fba41988277acb17f5ee59df82f0ce52c4565c02e37bc4d09",
		Oracle:             "0x157Ce2d672854c848c9b79C49a8Cc6cc89176a49",
		OutcomeSlotCount:   2,
		CollateralToken:    "0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174",
		YesTokenID:         "0xa908c03c213194ef019e41f44f47c9ea7e73ab4ecc8074ca70cd71977e00da33",
		NoTokenID:          "0x40cf39db55c6094d5e1084359fa26dc72740d44b33540c53097d7f6977f1513a",
		BlockNumber:        66000010,
		TxHash:             "0x00000000000000000000000000000000000000000000000000000000000000aa",
		DerivedConditionID: "0x40c940e6c830e34f4d0d528b532a48eab95887047ebf058f397521f4bbfffe78",
		DerivationMatch:    true,
	}
}

func TestTrades_EmptyRange(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, false)
	err := r.Trades(&model.TradeReport{FromBlock: 100, ToBlock: 200})
	if err != nil {
		t.Fatalf("Trades failed: %v", err)
	}
	if !strings.Contains(buf.String(), "No OrderFilled events in blocks 100-200") {
		t.Errorf("unexpected output: %q", buf.String())
	}
}

func TestTrades_Table(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, false)
	report := &model.TradeReport{
		FromBlock: 100,
		ToBlock:   200,
		Trades: []model.Trade{{
			BlockNumber: 150,
			TxHash:      "0x1111111111111111111111111111111111111111111111111111111111111111",
			Side:        model.SideBuy,
			Price:       "0.500000",
			TokenID:     "0x3ade68b1",
			Maker:       "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
			Taker:       "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
		}},
	}
	if err := r.Trades(report); err != nil {
		t.Fatalf("Trades failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"BLOCK", "BUY", "0.500000", "0x3ade68b1", "1 fills in blocks 100-200"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	// Full hashes belong in JSON output, not table cells.
	if strings.Contains(out, "0x1111111111111111111111111111111111111111111111111111111111111111") {
		t.Errorf("tx hash not truncated:\n%s", out)
	}
}

func TestTrades_JSON(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, true)
	report := &model.TradeReport{FromBlock: 1, ToBlock: 2, Trades: []model.Trade{{Price: "0.250000"}}}
	if err := r.Trades(report); err != nil {
		t.Fatalf("Trades failed: %v", err)
	}

	var decoded model.TradeReport
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(decoded.Trades) != 1 || decoded.Trades[0].Price != "0.250000" {
		t.Errorf("round-tripped report = %+v", decoded)
	}
}

func TestMarkets_DerivationColumn(t *testing.T) {
	match := sampleMarket()

	legacy := sampleMarket()
	legacy.DerivationMatch = false
	legacy.LegacyEncoding = true

	unexplained := sampleMarket()
	unexplained.DerivationMatch = false

	var buf bytes.Buffer
	r := New(&buf, false)
	err := r.Markets(&model.MarketReport{
		FromBlock: 1,
		ToBlock:   2,
		Markets:   []model.Market{match, legacy, unexplained},
	})
	if err != nil {
		t.Fatalf("Markets failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "match") {
		t.Errorf("missing match label:\n%s", out)
	}
	if !strings.Contains(out, "MISMATCH (legacy abi.encode)") {
		t.Errorf("missing legacy label:\n%s", out)
	}
	if !strings.Contains(out, "3 conditions in blocks 1-2") {
		t.Errorf("missing summary line:\n%s", out)
	}
}

func TestMarket_Detail(t *testing.T) {
	m := sampleMarket()
	var buf bytes.Buffer
	r := New(&buf, false)
	if err := r.Market(&m); err != nil {
		t.Fatalf("Market failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		m.ConditionID,
		m.YesTokenID,
		m.NoTokenID,
		"Outcome slots:",
		"match",
		"Resolved:",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "payouts") {
		t.Errorf("payout row rendered for unresolved market:\n%s", out)
	}
}

func TestMarket_DetailResolved(t *testing.T) {
	m := sampleMarket()
	m.Resolution = &model.Resolution{
		PayoutNumerators: []string{"1", "0"},
		BlockNumber:      66000200,
		TxHash:           "0x0000000000000000000000000000000000000000000000000000000000000003",
	}

	var buf bytes.Buffer
	r := New(&buf, false)
	if err := r.Market(&m); err != nil {
		t.Fatalf("Market failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "payouts [1 0]") {
		t.Errorf("missing payout vector:\n%s", out)
	}
	if !strings.Contains(out, "(block 66000200)") {
		t.Errorf("missing resolution block:\n%s", out)
	}
}

func TestMarket_DetailOmitsEmptyTokens(t *testing.T) {
	m := sampleMarket()
	m.OutcomeSlotCount = 3
	m.YesTokenID = ""
	m.NoTokenID = ""

	var buf bytes.Buffer
	r := New(&buf, false)
	if err := r.Market(&m); err != nil {
		t.Fatalf("Market failed: %v", err)
	}
	if strings.Contains(buf.String(), "YES token") {
		t.Errorf("YES token row rendered for non-binary market:\n%s", buf.String())
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("0x1234", 12); got != "0x1234" {
		t.Errorf("truncate short = %q", got)
	}
	if got := truncate("0x123456789abcdef0", 6); got != "0x1234…" {
		t.Errorf("truncate long = %q", got)
	}
}
