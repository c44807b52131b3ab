package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"

	"github.com/ppiankov/ctfscan/internal/model"
	"github.com/ppiankov/ctfscan/internal/scanner"
)

var txTimeout time.Duration

// txCmd represents the tx command
var txCmd = &cobra.Command{
	Use:   "tx <hash>",
	Short: "Decode conditional-token events in one transaction",
	Long: `Tx fetches a transaction receipt and decodes its conditional-token
events: exchange fills, or the condition prepared in it.

Example:
  ctfscan tx 0x69b2a9ec...`,
	Args: cobra.ExactArgs(1),
	RunE: runTx,
}

func init() {
	rootCmd.AddCommand(txCmd)
	txCmd.Flags().DurationVar(&txTimeout, "timeout", time.Minute, "lookup timeout")
	txCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the decimals/market cache")
}

func runTx(cmd *cobra.Command, args []string) error {
	hash, err := parseHash(args[0])
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if noCache {
		cfg.Cache.Enabled = false
	}

	ctx, cancel := context.WithTimeout(context.Background(), txTimeout)
	defer cancel()

	s, closeFn, err := newScanner(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	trades, err := s.TxTrades(ctx, hash)
	if err != nil {
		return fmt.Errorf("decode %s: %w", hash, err)
	}

	if len(trades) > 0 {
		return newRenderer().Trades(&model.TradeReport{
			TxHash:    hash.Hex(),
			ScannedAt: time.Now().UTC(),
			Trades:    trades,
		})
	}

	// No fills; the transaction may have prepared a condition instead.
	market, err := s.MarketByTx(ctx, hash)
	if err != nil {
		if errors.Is(err, scanner.ErrMarketNotFound) {
			fmt.Printf("No conditional-token events in %s\n", hash)
			return nil
		}
		return fmt.Errorf("decode %s: %w", hash, err)
	}
	return newRenderer().Market(market)
}

// parseHash accepts only 0x-prefixed 32-byte hex, so a raw string that
// happens to be 32 characters long is never mistaken for a hash.
func parseHash(s string) (common.Hash, error) {
	b, err := hexutil.Decode(s)
	if err != nil || len(b) != common.HashLength {
		return common.Hash{}, fmt.Errorf("invalid hash %q: want 0x-prefixed 32-byte hex", s)
	}
	return common.BytesToHash(b), nil
}
