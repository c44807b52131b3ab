package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/ctfscan/internal/scanner"
)

var (
	lookupFrom    uint64
	lookupTimeout time.Duration
)

// lookupCmd represents the lookup command
var lookupCmd = &cobra.Command{
	Use:   "lookup <conditionId>",
	Short: "Find the market behind a condition ID",
	Long: `Lookup searches the chain for the ConditionPreparation event carrying
the given condition ID and prints the market it defined, including the
derivation cross-check and, for binary markets, the YES/NO position IDs.

Example:
  ctfscan lookup 0x40c940e6c830e34f4d0d528b532a48eab95887047ebf058f397521f4bbfffe78`,
	Args: cobra.ExactArgs(1),
	RunE: runLookup,
}

func init() {
	rootCmd.AddCommand(lookupCmd)
	lookupCmd.Flags().Uint64Var(&lookupFrom, "from", 0, "first block to search")
	lookupCmd.Flags().DurationVar(&lookupTimeout, "timeout", 2*time.Minute, "lookup timeout")
	lookupCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the decimals/market cache")
}

func runLookup(cmd *cobra.Command, args []string) error {
	conditionID, err := parseHash(args[0])
	if err != nil {
		return fmt.Errorf("invalid condition ID: %s", args[0])
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if noCache {
		cfg.Cache.Enabled = false
	}

	ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
	defer cancel()

	s, closeFn, err := newScanner(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	market, err := s.MarketByCondition(ctx, conditionID, lookupFrom)
	if err != nil {
		if errors.Is(err, scanner.ErrMarketNotFound) {
			return fmt.Errorf("no preparation event found for %s", conditionID)
		}
		return err
	}

	// Resolution state is mutable until the oracle reports, so it is
	// fetched fresh rather than read from the cached market.
	resolution, err := s.Resolution(ctx, conditionID, market.BlockNumber)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: resolution lookup failed: %v\n", err)
	} else {
		market.Resolution = resolution
	}
	return newRenderer().Market(market)
}
