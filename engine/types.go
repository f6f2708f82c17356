package engine

import (
	"context"

	"github.com/defistate/wasm-arb-go/arbitrage"
	"github.com/defistate/wasm-arb-go/mempool"
	"github.com/defistate/wasm-arb-go/notifier"
	"github.com/defistate/wasm-arb-go/protocols/amm"
	"github.com/defistate/wasm-arb-go/protocols/cosmostx"
)

// Logger defines a standard interface for structured, leveled logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// MempoolSource returns the node's current unconfirmed transaction set.
type MempoolSource interface {
	UnconfirmedTxs(ctx context.Context) (mempool.Mempool, error)
}

// Refresher replaces the reserves of the tracked pools with confirmed chain state and returns how many pools changed.
type Refresher interface {
	Refresh(ctx context.Context, pools []*amm.Pool) (int, error)
}

// MessageBuilder turns a trade into the chain messages that execute it.
type MessageBuilder interface {
	Build(trade *arbitrage.OptimalTrade, sender, router string) (msgs []cosmostx.Any, wasmCount int, err error)
}

// SignerData is the replay-protection state a transaction is signed with.
type SignerData struct {
	ChainID       string
	AccountNumber uint64
	Sequence      uint64
}

// Signer produces broadcastable TxRaw bytes.
type Signer interface {
	Sign(msgs []cosmostx.Any, fee cosmostx.Fee, memo string, data SignerData) ([]byte, error)
}

// BroadcastResult is the node's CheckTx answer to a broadcast.
type BroadcastResult struct {
	Code      uint32 `json:"code"`
	Log       string `json:"log"`
	Codespace string `json:"codespace"`
	Hash      string `json:"hash"`
}

// Broadcaster submits a single transaction to a node.
type Broadcaster interface {
	BroadcastTxSync(ctx context.Context, tx []byte) (BroadcastResult, error)
}

// Bundle is an ordered transaction set signed by the relay identity.
type Bundle struct {
	Txs       [][]byte
	PubKey    []byte
	Signature []byte
}

// TxResult is the outcome of one transaction of a bundle.
type TxResult struct {
	Code uint32 `json:"code"`
	Log  string `json:"log"`
}

// BundleResult is the relay's answer to a bundle.
type BundleResult struct {
	DesiredHeight int64
	Code          uint32
	Error         string
	CheckTxs      []TxResult
	DeliverTxs    []TxResult
}

// BundleRelay signs and submits bundles to a block builder.
type BundleRelay interface {
	SignBundle(txs [][]byte, sender string) (Bundle, error)
	SendBundle(ctx context.Context, bundle Bundle, desiredHeight int64, sync bool) (BundleResult, error)
}

// Notifier is the operator notification sink.
type Notifier interface {
	Notify(ctx context.Context, msg string, severity notifier.Severity)
}
