package model

// TradeSide classifies an OrderFilled event from the maker's perspective:
// a maker paying collateral is buying outcome tokens.
type TradeSide string

const (
	SideBuy     TradeSide = "BUY"
	SideSell    TradeSide = "SELL"
	SideUnknown TradeSide = "UNKNOWN"
)

// Trade is a decoded, human-readable CTF Exchange fill.
// Numeric fields are decimal strings: amounts are 256-bit and token IDs
// are keccak outputs, neither fits a JSON number.
type Trade struct {
	TxHash            string    `json:"txHash"`
	LogIndex          uint64    `json:"logIndex"`
	BlockNumber       uint64    `json:"blockNumber"`
	Exchange          string    `json:"exchange"`
	Maker             string    `json:"maker"`
	Taker             string    `json:"taker"`
	MakerAssetID      string    `json:"makerAssetId"`
	TakerAssetID      string    `json:"takerAssetId"`
	MakerAmountFilled string    `json:"makerAmountFilled"`
	TakerAmountFilled string    `json:"takerAmountFilled"`
	MakerDecimals     uint8     `json:"makerDecimals"`
	TakerDecimals     uint8     `json:"takerDecimals"`
	Fee               string    `json:"fee,omitempty"`
	Price             string    `json:"price"`
	TokenID           string    `json:"tokenId"`
	Side              TradeSide `json:"side"`
}
