package model

import "time"

// Market describes a condition prepared on the CTF contract, enriched
// with the derived binary outcome token IDs and the result of checking
// the local derivation against the event-carried condition ID.
type Market struct {
	ConditionID      string `json:"conditionId"`
	QuestionID       string `json:"questionId"`
	Oracle           string `json:"oracle"`
	OutcomeSlotCount uint64 `json:"outcomeSlotCount"`
	CollateralToken  string `json:"collateralToken"`
	YesTokenID       string `json:"yesTokenId,omitempty"`
	NoTokenID        string `json:"noTokenId,omitempty"`
	BlockNumber      uint64 `json:"blockNumber"`
	TxHash           string `json:"txHash"`

	// DerivedConditionID is recomputed from oracle, question ID and slot
	// count. The emitted ID is authoritative when they disagree.
	DerivedConditionID string `json:"derivedConditionId"`
	DerivationMatch    bool   `json:"derivationMatch"`
	// LegacyEncoding is set when a mismatch reproduces under the padded
	// abi.encode scheme, attributing it to the encoding rather than the
	// inputs.
	LegacyEncoding bool `json:"legacyEncoding,omitempty"`

	// Resolution is the oracle's payout report, when the condition has
	// been resolved. Filled on single-market lookups only.
	Resolution *Resolution `json:"resolution,omitempty"`
}

// Resolution is a decoded ConditionResolution event.
type Resolution struct {
	PayoutNumerators []string `json:"payoutNumerators"`
	BlockNumber      uint64   `json:"blockNumber"`
	TxHash           string   `json:"txHash"`
}

// MarketReport is a completed market scan, the unit the renderer and the
// optional digest provider operate on.
type MarketReport struct {
	FromBlock uint64    `json:"fromBlock"`
	ToBlock   uint64    `json:"toBlock"`
	ScannedAt time.Time `json:"scannedAt"`
	Markets   []Market  `json:"markets"`
}

// TradeReport is a completed trade scan.
type TradeReport struct {
	FromBlock uint64    `json:"fromBlock,omitempty"`
	ToBlock   uint64    `json:"toBlock,omitempty"`
	TxHash    string    `json:"txHash,omitempty"`
	ScannedAt time.Time `json:"scannedAt"`
	Trades    []Trade   `json:"trades"`
}
