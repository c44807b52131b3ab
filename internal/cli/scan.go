package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/ctfscan/internal/model"
	"github.com/ppiankov/ctfscan/internal/worker"
)

var (
	scanFrom    uint64
	scanTo      uint64
	scanSpan    uint64
	scanChunk   uint64
	scanWorkers int
	scanTimeout time.Duration
	noCache     bool
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan a block range for exchange fills",
	Long: `Scan pulls OrderFilled events from the exchange contract over a block
range, decodes each fill, and prices it in collateral per outcome token.

Without --from/--to the scan covers the most recent blocks. Wide ranges
are split into chunks and fetched concurrently.

Example:
  ctfscan scan --from 66000000 --to 66010000
  ctfscan scan --range 5000 --json`,
	Args: cobra.NoArgs,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().Uint64Var(&scanFrom, "from", 0, "first block (default: head minus --range)")
	scanCmd.Flags().Uint64Var(&scanTo, "to", 0, "last block (default: chain head)")
	scanCmd.Flags().Uint64Var(&scanSpan, "range", 1000, "blocks to cover when --from is unset")
	scanCmd.Flags().Uint64Var(&scanChunk, "chunk-size", 0, "blocks per eth_getLogs call (0 = config value)")
	scanCmd.Flags().IntVar(&scanWorkers, "workers", 0, "concurrent chunk fetchers (0 = config value)")
	scanCmd.Flags().DurationVar(&scanTimeout, "timeout", 5*time.Minute, "overall scan timeout")
	scanCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the decimals/market cache")
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyScanFlags(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), scanTimeout)
	defer cancel()

	s, closeFn, err := newScanner(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	from, to, err := resolveRange(ctx, s, scanFrom, scanTo, scanSpan)
	if err != nil {
		return err
	}

	if cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "Scanning blocks %d-%d (%d blocks, chunk %d, %d workers)\n",
			from, to, to-from+1, cfg.Chain.ChunkSize, cfg.Concurrency.Workers)
	}

	trades, err := worker.ScanChunks(ctx, from, to, cfg.Chain.ChunkSize, cfg.Concurrency.Workers, s.Trades)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	return newRenderer().Trades(&model.TradeReport{
		FromBlock: from,
		ToBlock:   to,
		ScannedAt: time.Now().UTC(),
		Trades:    trades,
	})
}

func applyScanFlags(cfg *model.Config) {
	if scanChunk != 0 {
		cfg.Chain.ChunkSize = scanChunk
	}
	if scanWorkers != 0 {
		cfg.Concurrency.Workers = scanWorkers
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
}
