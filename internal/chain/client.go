// Package chain wraps the Ethereum RPC connection with the throttling
// and retry behavior public endpoints demand.
package chain

import (
	"context"
	"fmt"
	"math/big"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/ppiankov/ctfscan/internal/model"
	"github.com/ppiankov/ctfscan/internal/worker"
)

// Backend is the slice of the RPC surface the scanner depends on.
// Tests substitute a fake.
type Backend interface {
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	BlockNumber(ctx context.Context) (uint64, error)
}

// Client is a rate-limited, retrying Backend over ethclient.
type Client struct {
	eth      *ethclient.Client
	limiter  *worker.Limiter
	endpoint string
	retry    retryPolicy
}

// Dial connects to the RPC endpoint.
func Dial(ctx context.Context, endpoint string, cfg model.RPCConfig) (*Client, error) {
	eth, err := ethclient.DialContext(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", endpoint, err)
	}

	return &Client{
		eth:      eth,
		limiter:  worker.NewLimiter(cfg.RequestsPerSecond, cfg.Burst),
		endpoint: endpoint,
		retry: retryPolicy{
			maxAttempts: cfg.MaxRetries + 1,
			backoff:     cfg.RetryBackoff,
		},
	}, nil
}

// Close releases the underlying connection.
func (c *Client) Close() {
	c.eth.Close()
}

// Endpoint returns the RPC URL the client talks to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

func (c *Client) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	var logs []types.Log
	err := c.do(ctx, "eth_getLogs", func() error {
		var err error
		logs, err = c.eth.FilterLogs(ctx, q)
		return err
	})
	return logs, err
}

func (c *Client) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	var receipt *types.Receipt
	err := c.do(ctx, "eth_getTransactionReceipt", func() error {
		var err error
		receipt, err = c.eth.TransactionReceipt(ctx, txHash)
		return err
	})
	return receipt, err
}

func (c *Client) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	var out []byte
	err := c.do(ctx, "eth_call", func() error {
		var err error
		out, err = c.eth.CallContract(ctx, msg, blockNumber)
		return err
	})
	return out, err
}

func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	var head uint64
	err := c.do(ctx, "eth_blockNumber", func() error {
		var err error
		head, err = c.eth.BlockNumber(ctx)
		return err
	})
	return head, err
}

func (c *Client) do(ctx context.Context, op string, fn func() error) error {
	if err := c.limiter.Wait(ctx, c.endpoint); err != nil {
		return fmt.Errorf("%s: rate limit: %w", op, err)
	}
	if err := c.retry.run(ctx, fn); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
