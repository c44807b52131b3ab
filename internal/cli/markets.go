package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/ctfscan/internal/llm"
	"github.com/ppiankov/ctfscan/internal/model"
	"github.com/ppiankov/ctfscan/internal/worker"
)

var (
	explain     bool
	llmProvider string
	llmModel    string
)

// marketsCmd represents the markets command
var marketsCmd = &cobra.Command{
	Use:   "markets",
	Short: "Scan a block range for prepared conditions",
	Long: `Markets pulls ConditionPreparation events from the conditional-token
contract over a block range. Each condition ID is re-derived locally and
compared against the emitted value; binary markets additionally get
their YES/NO position IDs derived.

With --explain an LLM digest of the findings is appended. The digest may
only cite condition IDs present in the scan and never changes results.

Example:
  ctfscan markets --from 66000000 --to 66010000
  ctfscan markets --range 5000 --explain --llm-provider ollama --llm-model llama3.1:8b`,
	Args: cobra.NoArgs,
	RunE: runMarkets,
}

func init() {
	rootCmd.AddCommand(marketsCmd)

	marketsCmd.Flags().Uint64Var(&scanFrom, "from", 0, "first block (default: head minus --range)")
	marketsCmd.Flags().Uint64Var(&scanTo, "to", 0, "last block (default: chain head)")
	marketsCmd.Flags().Uint64Var(&scanSpan, "range", 1000, "blocks to cover when --from is unset")
	marketsCmd.Flags().Uint64Var(&scanChunk, "chunk-size", 0, "blocks per eth_getLogs call (0 = config value)")
	marketsCmd.Flags().IntVar(&scanWorkers, "workers", 0, "concurrent chunk fetchers (0 = config value)")
	marketsCmd.Flags().DurationVar(&scanTimeout, "timeout", 5*time.Minute, "overall scan timeout")

	marketsCmd.Flags().BoolVar(&explain, "explain", false, "append an LLM digest of the scan")
	marketsCmd.Flags().StringVar(&llmProvider, "llm-provider", "", "LLM provider (openai, ollama; default: config value)")
	marketsCmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name (default: config value)")
}

func runMarkets(cmd *cobra.Command, args []string) error {
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
		fmt.Fprintf(os.Stderr, "Scanning blocks %d-%d for prepared conditions\n", from, to)
	}

	markets, err := worker.ScanChunks(ctx, from, to, cfg.Chain.ChunkSize, cfg.Concurrency.Workers, s.Markets)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	report := &model.MarketReport{
		FromBlock: from,
		ToBlock:   to,
		ScannedAt: time.Now().UTC(),
		Markets:   markets,
	}
	if err := newRenderer().Markets(report); err != nil {
		return err
	}

	if explain {
		return explainReport(ctx, cfg, report)
	}
	return nil
}

// explainReport generates and prints the LLM digest. Digest failures
// are reported but never fail the scan that already printed.
func explainReport(ctx context.Context, cfg *model.Config, report *model.MarketReport) error {
	if err := configureLLM(cfg); err != nil {
		return err
	}

	summarizer, err := llm.NewSummarizer(llm.ConfigFromModel(cfg.LLM))
	if err != nil {
		return fmt.Errorf("initialize LLM provider: %w", err)
	}
	if !summarizer.IsEnabled() {
		return fmt.Errorf("no LLM provider configured (set --llm-provider or the llm section of the config)")
	}

	summary, err := summarizer.GenerateSummary(ctx, *report)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: digest generation failed: %v\n", err)
		return nil
	}

	fmt.Println()
	fmt.Print(llm.RenderMarkdown(summary))
	return nil
}

// configureLLM resolves the provider and its credentials from flags,
// config and environment.
func configureLLM(cfg *model.Config) error {
	if llmProvider != "" {
		cfg.LLM.Provider = llmProvider
	}
	if llmModel != "" {
		cfg.LLM.Model = llmModel
	}

	switch cfg.LLM.Provider {
	case "openai":
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		if cfg.LLM.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	case "ollama":
		if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
			cfg.LLM.BaseURL = baseURL
		}
	}
	return nil
}
