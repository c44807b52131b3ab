package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/ctfscan/internal/cache"
	"github.com/ppiankov/ctfscan/internal/chain"
	"github.com/ppiankov/ctfscan/internal/model"
	"github.com/ppiankov/ctfscan/internal/render"
	"github.com/ppiankov/ctfscan/internal/scanner"
)

// loadConfig assembles the effective configuration: defaults, then the
// config file, then environment and global flags.
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()

	if path := viper.ConfigFileUsed(); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if endpoint := viper.GetString("rpc_url"); endpoint != "" {
		cfg.Chain.RPCURL = endpoint
	}
	if rpcURL != "" {
		cfg.Chain.RPCURL = rpcURL
	}
	if chunk := viper.GetUint64("chunk_size"); chunk > 0 {
		cfg.Chain.ChunkSize = chunk
	}
	if workers := viper.GetInt("workers"); workers > 0 {
		cfg.Concurrency.Workers = workers
	}
	if dir := viper.GetString("cache_dir"); dir != "" {
		cfg.Cache.Dir = dir
	}

	cfg.Output.Verbose = verbose || viper.GetBool("verbose")
	cfg.Output.JSON = asJSON
	return cfg, nil
}

// newScanner dials the RPC endpoint and wires a scanner on top of it.
// The caller must invoke the returned close function.
func newScanner(ctx context.Context, cfg *model.Config) (*scanner.Scanner, func(), error) {
	client, err := chain.Dial(ctx, cfg.Chain.RPCURL, cfg.RPC)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to %s: %w", cfg.Chain.RPCURL, err)
	}

	var store cache.Cache = cache.Nop{}
	if cfg.Cache.Enabled {
		store = cache.NewLayered(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL)
	}

	s, err := scanner.New(client, cfg.Chain, store)
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	return s, client.Close, nil
}

// resolveRange fills in an unset block range against the chain head.
// With neither bound set the scan covers the most recent span blocks;
// with only --from set it runs to the head.
func resolveRange(ctx context.Context, s *scanner.Scanner, from, to, span uint64) (uint64, uint64, error) {
	if from != 0 && to != 0 {
		if from > to {
			return 0, 0, fmt.Errorf("invalid range: from %d is past to %d", from, to)
		}
		return from, to, nil
	}

	head, err := s.Head(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("fetch chain head: %w", err)
	}

	if to == 0 {
		to = head
	}
	if from == 0 {
		if span >= to {
			from = 1
		} else {
			from = to - span + 1
		}
	}
	if from > to {
		return 0, 0, fmt.Errorf("invalid range: from %d is past to %d", from, to)
	}
	return from, to, nil
}

func newRenderer() *render.Renderer {
	return render.New(os.Stdout, asJSON)
}
