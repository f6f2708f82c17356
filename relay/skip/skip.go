// Package skip submits transaction bundles to a Skip-style block auction relay.
package skip

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/defistate/wasm-arb-go/engine"
	"github.com/ethereum/go-ethereum/rpc"
)

const (
	MethodBroadcastBundleSync  = "broadcast_bundle_sync"
	MethodBroadcastBundleAsync = "broadcast_bundle_async"
)

// BundleSigner signs the bundle payload with the searcher identity key.
type BundleSigner interface {
	PubKey() []byte
	SignBytes(msg []byte) ([]byte, error)
}

// Logger defines a standard interface for structured, leveled logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type Config struct {
	URL    string
	Signer BundleSigner
	Logger Logger
}

func (c *Config) validate() error {
	if c.URL == "" {
		return errors.New("config: URL is required")
	}
	if c.Signer == nil {
		return errors.New("config: Signer is required")
	}
	if c.Logger == nil {
		return errors.New("config: Logger is required")
	}
	return nil
}

// Client implements engine.BundleRelay.
type Client struct {
	rpc    *rpc.Client
	signer BundleSigner
	logger Logger
}

func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	rpcClient, err := rpc.DialContext(ctx, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial relay: %w", err)
	}
	return &Client{rpc: rpcClient, signer: cfg.Signer, logger: cfg.Logger}, nil
}

func (c *Client) Close() {
	c.rpc.Close()
}

// SignBundle signs sha256 of the concatenated transactions. sender is only
// used for logging; the relay identifies the searcher by public key.
func (c *Client) SignBundle(txs [][]byte, sender string) (engine.Bundle, error) {
	if len(txs) == 0 {
		return engine.Bundle{}, errors.New("empty bundle")
	}
	sig, err := c.signer.SignBytes(bytes.Join(txs, nil))
	if err != nil {
		return engine.Bundle{}, fmt.Errorf("sign bundle: %w", err)
	}
	c.logger.Debug("signed bundle", "sender", sender, "txs", len(txs))
	return engine.Bundle{Txs: txs, PubKey: c.signer.PubKey(), Signature: sig}, nil
}

// SendBundle broadcasts bundle for desiredHeight; 0 targets the next block.
func (c *Client) SendBundle(ctx context.Context, bundle engine.Bundle, desiredHeight int64, sync bool) (engine.BundleResult, error) {
	method := MethodBroadcastBundleAsync
	if sync {
		method = MethodBroadcastBundleSync
	}

	var res bundleResponse
	err := c.rpc.CallContext(ctx, &res, method,
		bundle.Txs, strconv.FormatInt(desiredHeight, 10), bundle.PubKey, bundle.Signature)
	if err != nil {
		return engine.BundleResult{}, err
	}
	return res.toResult(), nil
}

// number accepts a JSON number or a numeric string.
type number int64

func (n *number) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		if s == "" {
			*n = 0
			return nil
		}
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return err
		}
		*n = number(v)
		return nil
	}
	var v int64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*n = number(v)
	return nil
}

type txResponse struct {
	Code number `json:"code"`
	Log  string `json:"log"`
}

type bundleResponse struct {
	DesiredHeight number       `json:"desired_height"`
	Code          number       `json:"code"`
	Error         string       `json:"error"`
	CheckTxs      []txResponse `json:"result_check_txs"`
	DeliverTxs    []txResponse `json:"result_deliver_txs"`
}

func (r bundleResponse) toResult() engine.BundleResult {
	return engine.BundleResult{
		DesiredHeight: int64(r.DesiredHeight),
		Code:          uint32(r.Code),
		Error:         r.Error,
		CheckTxs:      toTxResults(r.CheckTxs),
		DeliverTxs:    toTxResults(r.DeliverTxs),
	}
}

func toTxResults(in []txResponse) []engine.TxResult {
	if len(in) == 0 {
		return nil
	}
	out := make([]engine.TxResult, len(in))
	for i, tx := range in {
		out[i] = engine.TxResult{Code: uint32(tx.Code), Log: tx.Log}
	}
	return out
}
