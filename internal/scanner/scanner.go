// Package scanner turns raw contract logs into decoded trades and
// markets. It is the on-chain counterpart of deriving identifiers
// locally: everything it reports comes from emitted events, with the
// local derivation used only as a cross-check.
package scanner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/ppiankov/ctfscan/internal/cache"
	"github.com/ppiankov/ctfscan/internal/chain"
	"github.com/ppiankov/ctfscan/internal/ctf"
	"github.com/ppiankov/ctfscan/internal/model"
)

// ErrMarketNotFound is returned when no ConditionPreparation event
// matches the lookup.
var ErrMarketNotFound = errors.New("market not found")

// Scanner reads CTF Exchange and conditional tokens events.
type Scanner struct {
	backend    chain.Backend
	exchange   common.Address
	ctf        common.Address
	collateral common.Address
	store      cache.Cache
	decimals   *decimalsResolver
}

// New creates a scanner for the given contract set.
func New(backend chain.Backend, cfg model.ChainConfig, store cache.Cache) (*Scanner, error) {
	if store == nil {
		store = cache.Nop{}
	}
	exchange, err := parseAddress("exchange", cfg.ExchangeAddress)
	if err != nil {
		return nil, err
	}
	ctfAddr, err := parseAddress("ctf", cfg.CTFAddress)
	if err != nil {
		return nil, err
	}
	collateral, err := parseAddress("collateral", cfg.CollateralAddress)
	if err != nil {
		return nil, err
	}

	return &Scanner{
		backend:    backend,
		exchange:   exchange,
		ctf:        ctfAddr,
		collateral: collateral,
		store:      store,
		decimals:   newDecimalsResolver(backend, store, collateral),
	}, nil
}

func parseAddress(name, s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%s address %q is not a hex address", name, s)
	}
	return common.HexToAddress(s), nil
}

// Head returns the current chain head.
func (s *Scanner) Head(ctx context.Context) (uint64, error) {
	return s.backend.BlockNumber(ctx)
}

// Trades returns the decoded OrderFilled events in [from, to].
func (s *Scanner) Trades(ctx context.Context, from, to uint64) ([]model.Trade, error) {
	logs, err := s.backend.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(to),
		Addresses: []common.Address{s.exchange},
		Topics:    [][]common.Hash{{ctf.OrderFilledTopic}},
	})
	if err != nil {
		return nil, fmt.Errorf("filter order logs: %w", err)
	}
	return s.decodeTrades(ctx, logs), nil
}

// TxTrades returns the decoded OrderFilled events of one transaction.
func (s *Scanner) TxTrades(ctx context.Context, txHash common.Hash) ([]model.Trade, error) {
	receipt, err := s.backend.TransactionReceipt(ctx, txHash)
	if err != nil {
		return nil, fmt.Errorf("receipt %s: %w", txHash, err)
	}

	var logs []types.Log
	for _, log := range receipt.Logs {
		if log.Address == s.exchange && len(log.Topics) > 0 && log.Topics[0] == ctf.OrderFilledTopic {
			logs = append(logs, *log)
		}
	}
	return s.decodeTrades(ctx, logs), nil
}

// Markets returns the markets prepared in [from, to], each reconciled
// against the local condition ID derivation.
func (s *Scanner) Markets(ctx context.Context, from, to uint64) ([]model.Market, error) {
	logs, err := s.backend.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(to),
		Addresses: []common.Address{s.ctf},
		Topics:    [][]common.Hash{{ctf.ConditionPreparationTopic}},
	})
	if err != nil {
		return nil, fmt.Errorf("filter preparation logs: %w", err)
	}

	var markets []model.Market
	for _, log := range logs {
		ev, err := ctf.ParseConditionPreparation(log)
		if err != nil {
			continue
		}
		markets = append(markets, s.buildMarket(ev))
	}
	return markets, nil
}

// MarketByCondition finds a market by its condition ID, scanning forward
// from fromBlock. Prepared conditions are immutable, so hits are cached.
func (s *Scanner) MarketByCondition(ctx context.Context, conditionID common.Hash, fromBlock uint64) (*model.Market, error) {
	key := cache.Key("market", conditionID.Hex())
	if data, found := s.store.Get(key); found {
		var m model.Market
		if err := json.Unmarshal(data, &m); err == nil {
			return &m, nil
		}
	}

	logs, err := s.backend.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		Addresses: []common.Address{s.ctf},
		Topics:    [][]common.Hash{{ctf.ConditionPreparationTopic}, {conditionID}},
	})
	if err != nil {
		return nil, fmt.Errorf("filter preparation logs: %w", err)
	}
	if len(logs) == 0 {
		return nil, fmt.Errorf("condition %s from block %d: %w", conditionID, fromBlock, ErrMarketNotFound)
	}

	ev, err := ctf.ParseConditionPreparation(logs[0])
	if err != nil {
		return nil, fmt.Errorf("decode preparation log: %w", err)
	}
	market := s.buildMarket(ev)

	if data, err := json.Marshal(market); err == nil {
		_ = s.store.Set(key, data, 0)
	}
	return &market, nil
}

// Resolution finds the oracle's payout report for a condition, scanning
// forward from fromBlock. Returns nil when the condition is unresolved.
func (s *Scanner) Resolution(ctx context.Context, conditionID common.Hash, fromBlock uint64) (*model.Resolution, error) {
	logs, err := s.backend.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		Addresses: []common.Address{s.ctf},
		Topics:    [][]common.Hash{{ctf.ConditionResolutionTopic}, {conditionID}},
	})
	if err != nil {
		return nil, fmt.Errorf("filter resolution logs: %w", err)
	}
	if len(logs) == 0 {
		return nil, nil
	}

	ev, err := ctf.ParseConditionResolution(logs[0])
	if err != nil {
		return nil, fmt.Errorf("decode resolution log: %w", err)
	}

	payouts := make([]string, len(ev.PayoutNumerators))
	for i, p := range ev.PayoutNumerators {
		payouts[i] = p.String()
	}
	return &model.Resolution{
		PayoutNumerators: payouts,
		BlockNumber:      ev.BlockNumber,
		TxHash:           ev.TxHash.Hex(),
	}, nil
}

// MarketByTx extracts the market prepared in the given transaction.
func (s *Scanner) MarketByTx(ctx context.Context, txHash common.Hash) (*model.Market, error) {
	receipt, err := s.backend.TransactionReceipt(ctx, txHash)
	if err != nil {
		return nil, fmt.Errorf("receipt %s: %w", txHash, err)
	}

	for _, log := range receipt.Logs {
		if log.Address != s.ctf || len(log.Topics) == 0 || log.Topics[0] != ctf.ConditionPreparationTopic {
			continue
		}
		ev, err := ctf.ParseConditionPreparation(*log)
		if err != nil {
			return nil, fmt.Errorf("decode preparation log: %w", err)
		}
		market := s.buildMarket(ev)
		return &market, nil
	}
	return nil, fmt.Errorf("tx %s: %w", txHash, ErrMarketNotFound)
}

// buildMarket assembles a Market from a preparation event. The emitted
// condition ID is authoritative; derivation results are reported beside
// it. Binary markets get YES/NO token IDs derived through the collection
// scheme.
func (s *Scanner) buildMarket(ev *ctf.ConditionPreparation) model.Market {
	rec := ev.Reconcile()

	m := model.Market{
		ConditionID:        ev.ConditionID.Hex(),
		QuestionID:         ev.QuestionID.Hex(),
		Oracle:             ev.Oracle.Hex(),
		OutcomeSlotCount:   ev.OutcomeSlotCount.Uint64(),
		CollateralToken:    s.collateral.Hex(),
		BlockNumber:        ev.BlockNumber,
		TxHash:             ev.TxHash.Hex(),
		DerivedConditionID: rec.Derived.Hex(),
		DerivationMatch:    rec.Match,
		LegacyEncoding:     rec.LegacyEncoding,
	}

	if m.OutcomeSlotCount == 2 {
		if yes, err := ctf.CollectionID(common.Hash{}, ev.ConditionID, big.NewInt(1)); err == nil {
			m.YesTokenID = fmt.Sprintf("%#x", ctf.PositionID(s.collateral, yes))
		}
		if no, err := ctf.CollectionID(common.Hash{}, ev.ConditionID, big.NewInt(2)); err == nil {
			m.NoTokenID = fmt.Sprintf("%#x", ctf.PositionID(s.collateral, no))
		}
	}
	return m
}
