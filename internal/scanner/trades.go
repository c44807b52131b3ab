package scanner

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/core/types"

	"github.com/ppiankov/ctfscan/internal/ctf"
	"github.com/ppiankov/ctfscan/internal/model"
)

// decodeTrades parses OrderFilled logs and enriches them with resolved
// decimals and a computed price. Malformed logs are skipped; a scan is
// not aborted by one bad event.
func (s *Scanner) decodeTrades(ctx context.Context, logs []types.Log) []model.Trade {
	var trades []model.Trade
	for _, log := range logs {
		ev, err := ctf.ParseOrderFilled(log)
		if err != nil {
			continue
		}

		makerDec := s.decimals.resolve(ctx, ev.MakerAssetID, ev.MakerAmountFilled, ev.TxHash)
		takerDec := s.decimals.resolve(ctx, ev.TakerAssetID, ev.TakerAmountFilled, ev.TxHash)
		trades = append(trades, buildTrade(ev, makerDec, takerDec))
	}
	return trades
}

// buildTrade applies the side, price, and token conventions of the
// exchange: asset ID zero is the collateral leg, a maker paying
// collateral is buying, and the price is collateral per outcome token.
func buildTrade(ev *ctf.OrderFilled, makerDec, takerDec uint8) model.Trade {
	trade := model.Trade{
		TxHash:            ev.TxHash.Hex(),
		LogIndex:          uint64(ev.LogIndex),
		BlockNumber:       ev.BlockNumber,
		Exchange:          ev.Exchange.Hex(),
		Maker:             ev.Maker.Hex(),
		Taker:             ev.Taker.Hex(),
		MakerAssetID:      assetIDString(ev.MakerAssetID),
		TakerAssetID:      assetIDString(ev.TakerAssetID),
		MakerAmountFilled: ev.MakerAmountFilled.String(),
		TakerAmountFilled: ev.TakerAmountFilled.String(),
		MakerDecimals:     makerDec,
		TakerDecimals:     takerDec,
	}
	if ev.Fee.Sign() != 0 {
		trade.Fee = ev.Fee.String()
	}

	switch {
	case ev.MakerAssetID.Sign() == 0:
		trade.Side = model.SideBuy
		trade.TokenID = fmt.Sprintf("%#x", ev.TakerAssetID)
		trade.Price = price(ev.MakerAmountFilled, makerDec, ev.TakerAmountFilled, takerDec)
	case ev.TakerAssetID.Sign() == 0:
		trade.Side = model.SideSell
		trade.TokenID = fmt.Sprintf("%#x", ev.MakerAssetID)
		trade.Price = price(ev.TakerAmountFilled, takerDec, ev.MakerAmountFilled, makerDec)
	default:
		// Token-for-token fill; keep the maker perspective.
		trade.Side = model.SideSell
		trade.TokenID = fmt.Sprintf("%#x", ev.MakerAssetID)
		trade.Price = price(ev.MakerAmountFilled, makerDec, ev.TakerAmountFilled, takerDec)
	}
	return trade
}

func assetIDString(id *big.Int) string {
	if id.Sign() == 0 {
		return "0"
	}
	return fmt.Sprintf("%#x", id)
}

// price computes collateral per token to six decimal places.
func price(collateralAmt *big.Int, collateralDec uint8, tokenAmt *big.Int, tokenDec uint8) string {
	if tokenAmt.Sign() == 0 {
		return "0.000000"
	}

	num := scaled(collateralAmt, collateralDec)
	den := scaled(tokenAmt, tokenDec)
	return new(big.Float).Quo(num, den).Text('f', 6)
}

func scaled(v *big.Int, decimals uint8) *big.Float {
	f := new(big.Float).SetInt(v)
	div := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	return f.Quo(f, new(big.Float).SetInt(div))
}
