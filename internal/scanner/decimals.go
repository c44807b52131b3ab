package scanner

import (
	"context"
	"math/big"
	"strconv"
	"sync"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"

	"github.com/ppiankov/ctfscan/internal/cache"
	"github.com/ppiankov/ctfscan/internal/chain"
	"github.com/ppiankov/ctfscan/internal/ctf"
)

const (
	collateralDecimals = 6
	defaultDecimals    = 18
)

// decimals() function selector.
var decimalsSelector = []byte{0x31, 0x3c, 0xe5, 0x67}

// decimalsResolver resolves the decimals of the token behind an asset
// ID. Exchange asset IDs are not addresses, so resolution is heuristic:
// try the low 20 bytes as a contract, then fall back to matching the
// fill amount against the transaction's ERC-20 Transfer logs.
type decimalsResolver struct {
	backend    chain.Backend
	store      cache.Cache
	collateral common.Address

	mu       sync.Mutex
	memo     map[common.Address]uint8
	receipts map[common.Hash]map[string]common.Address
}

func newDecimalsResolver(backend chain.Backend, store cache.Cache, collateral common.Address) *decimalsResolver {
	return &decimalsResolver{
		backend:    backend,
		store:      store,
		collateral: collateral,
		memo:       make(map[common.Address]uint8),
		receipts:   make(map[common.Hash]map[string]common.Address),
	}
}

// resolve returns the decimals for one leg of a fill. Never fails: an
// unresolvable token falls back to 18.
func (r *decimalsResolver) resolve(ctx context.Context, assetID, amount *big.Int, txHash common.Hash) uint8 {
	if assetID.Sign() == 0 {
		return collateralDecimals
	}

	if dec, ok := r.lookup(ctx, assetAddress(assetID)); ok {
		return dec
	}
	if token, ok := r.tokenForAmount(ctx, txHash, amount); ok {
		if dec, ok := r.lookup(ctx, token); ok {
			return dec
		}
	}
	return defaultDecimals
}

// lookup resolves decimals for a concrete address: memo, then cache,
// then an eth_call.
func (r *decimalsResolver) lookup(ctx context.Context, token common.Address) (uint8, bool) {
	r.mu.Lock()
	if dec, ok := r.memo[token]; ok {
		r.mu.Unlock()
		return dec, true
	}
	r.mu.Unlock()

	key := cache.Key("decimals", token.Hex())
	if data, found := r.store.Get(key); found {
		if n, err := strconv.ParseUint(string(data), 10, 8); err == nil {
			r.remember(token, uint8(n))
			return uint8(n), true
		}
	}

	dec, ok := r.call(ctx, token)
	if !ok {
		return 0, false
	}
	r.remember(token, dec)
	_ = r.store.Set(key, []byte(strconv.FormatUint(uint64(dec), 10)), 0)
	return dec, true
}

func (r *decimalsResolver) remember(token common.Address, dec uint8) {
	r.mu.Lock()
	r.memo[token] = dec
	r.mu.Unlock()
}

// call issues decimals() against the token contract. A failed or empty
// call means the address is not an ERC-20.
func (r *decimalsResolver) call(ctx context.Context, token common.Address) (uint8, bool) {
	result, err := r.backend.CallContract(ctx, ethereum.CallMsg{
		To:   &token,
		Data: decimalsSelector,
	}, nil)
	if err != nil || len(result) < 32 {
		return 0, false
	}
	return result[31], true
}

// tokenForAmount maps a fill amount to the ERC-20 contract that moved
// exactly that amount in the same transaction.
func (r *decimalsResolver) tokenForAmount(ctx context.Context, txHash common.Hash, amount *big.Int) (common.Address, bool) {
	r.mu.Lock()
	amounts, ok := r.receipts[txHash]
	r.mu.Unlock()

	if !ok {
		receipt, err := r.backend.TransactionReceipt(ctx, txHash)
		if err != nil {
			return common.Address{}, false
		}

		amounts = make(map[string]common.Address)
		for _, log := range receipt.Logs {
			// ERC-20 Transfer: value in data. The ERC-1155 events of the
			// conditional tokens contract have a different topic count.
			if len(log.Topics) == 3 && log.Topics[0] == ctf.TransferTopic && len(log.Data) >= 32 {
				value := new(big.Int).SetBytes(log.Data[:32])
				amounts[value.String()] = log.Address
			}
		}

		r.mu.Lock()
		r.receipts[txHash] = amounts
		r.mu.Unlock()
	}

	token, ok := amounts[amount.String()]
	return token, ok
}

// assetAddress interprets the low 20 bytes of an asset ID as an address.
func assetAddress(assetID *big.Int) common.Address {
	return common.BytesToAddress(common.BigToHash(assetID).Bytes()[12:])
}
