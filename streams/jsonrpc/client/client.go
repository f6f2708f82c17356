package client

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/defistate/wasm-arb-go/engine"
	"github.com/defistate/wasm-arb-go/mempool"
	"github.com/defistate/wasm-arb-go/protocols/cosmostx"
	"github.com/ethereum/go-ethereum/rpc"
)

// Constants for reconnection logic
const (
	initialReconnectDelay = 1 * time.Second
	maxReconnectDelay     = 30 * time.Second

	MethodUnconfirmedTxs  = "unconfirmed_txs"
	MethodBroadcastTxSync = "broadcast_tx_sync"
	MethodABCIQuery       = "abci_query"

	PathSmartContractState = "/cosmwasm.wasm.v1.Query/SmartContractState"
	PathAccount            = "/cosmos.auth.v1beta1.Query/Account"
)

// ErrQuery is returned when the application rejects an ABCI query.
var ErrQuery = errors.New("abci query failed")

// Logger defines a standard interface for structured, leveled logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config holds the configuration for the client.
type Config struct {
	URL    string
	Logger Logger
	// MempoolLimit caps the transactions returned by UnconfirmedTxs; 0 uses the node default.
	MempoolLimit int
}

// validate checks if the configuration is valid.
func (c *Config) validate() error {
	if c.URL == "" {
		return errors.New("config: URL is required")
	}
	if c.Logger == nil {
		return errors.New("config: Logger is required")
	}
	if c.MempoolLimit < 0 {
		return errors.New("config: MempoolLimit must not be negative")
	}
	return nil
}

// Client talks to a CometBFT node over JSON-RPC.
type Client struct {
	rpc          *rpc.Client
	logger       Logger
	mempoolLimit int
}

// NewClient connects to the node, retrying with backoff until it succeeds or ctx is done.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	rpcClient, err := connect(ctx, cfg.URL, cfg.Logger)
	if err != nil {
		return nil, err
	}
	return &Client{rpc: rpcClient, logger: cfg.Logger, mempoolLimit: cfg.MempoolLimit}, nil
}

func connect(ctx context.Context, url string, logger Logger) (*rpc.Client, error) {
	reconnectDelay := initialReconnectDelay
	for {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		logger.Info("Attempting to connect to RPC server", "url", url)
		rpcClient, err := rpc.DialContext(ctx, url)
		if err == nil {
			logger.Info("Successfully connected to RPC server.")
			return rpcClient, nil
		}

		logger.Error("Failed to connect to RPC server, will retry...", "error", err, "delay", reconnectDelay)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(reconnectDelay):
		}
		reconnectDelay = min(reconnectDelay*2, maxReconnectDelay)
	}
}

func (c *Client) Close() {
	c.rpc.Close()
}

// UnconfirmedTxs returns the node's mempool.
func (c *Client) UnconfirmedTxs(ctx context.Context) (mempool.Mempool, error) {
	var (
		m   mempool.Mempool
		err error
	)
	if c.mempoolLimit > 0 {
		err = c.rpc.CallContext(ctx, &m, MethodUnconfirmedTxs, strconv.Itoa(c.mempoolLimit))
	} else {
		err = c.rpc.CallContext(ctx, &m, MethodUnconfirmedTxs)
	}
	if err != nil {
		return mempool.Mempool{}, fmt.Errorf("%s: %w", MethodUnconfirmedTxs, err)
	}
	return m, nil
}

// BroadcastTxSync submits tx and waits for CheckTx.
func (c *Client) BroadcastTxSync(ctx context.Context, tx []byte) (engine.BroadcastResult, error) {
	var res engine.BroadcastResult
	if err := c.rpc.CallContext(ctx, &res, MethodBroadcastTxSync, tx); err != nil {
		return engine.BroadcastResult{}, fmt.Errorf("%s: %w", MethodBroadcastTxSync, err)
	}
	c.logger.Debug("transaction broadcast", "hash", res.Hash, "code", res.Code)
	return res, nil
}

type abciQueryResult struct {
	Response struct {
		Code      uint32 `json:"code"`
		Log       string `json:"log"`
		Codespace string `json:"codespace"`
		Value     []byte `json:"value"`
	} `json:"response"`
}

func (c *Client) abciQuery(ctx context.Context, path string, data []byte) ([]byte, error) {
	var res abciQueryResult
	if err := c.rpc.CallContext(ctx, &res, MethodABCIQuery, path, hex.EncodeToString(data), "0", false); err != nil {
		return nil, fmt.Errorf("%s %s: %w", MethodABCIQuery, path, err)
	}
	if res.Response.Code != 0 {
		return nil, fmt.Errorf("%w: %s: code %d (%s): %s", ErrQuery, path, res.Response.Code, res.Response.Codespace, res.Response.Log)
	}
	return res.Response.Value, nil
}

// SmartQuery runs a CosmWasm smart query against contract and returns the JSON result.
func (c *Client) SmartQuery(ctx context.Context, contract string, query any) (json.RawMessage, error) {
	payload, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal smart query: %w", err)
	}
	value, err := c.abciQuery(ctx, PathSmartContractState, cosmostx.EncodeSmartQueryRequest(contract, payload))
	if err != nil {
		return nil, err
	}
	data, err := cosmostx.DecodeSmartQueryResponse(value)
	if err != nil {
		return nil, fmt.Errorf("smart query %s: %w", contract, err)
	}
	return data, nil
}

// Account returns the account number and sequence of address.
func (c *Client) Account(ctx context.Context, address string) (cosmostx.BaseAccount, error) {
	value, err := c.abciQuery(ctx, PathAccount, cosmostx.EncodeAccountRequest(address))
	if err != nil {
		return cosmostx.BaseAccount{}, err
	}
	acc, err := cosmostx.DecodeAccountResponse(value)
	if err != nil {
		return cosmostx.BaseAccount{}, fmt.Errorf("account %s: %w", address, err)
	}
	return acc, nil
}

func min(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
