package mempool

import (
	"github.com/defistate/wasm-arb-go/protocols/cosmostx"
)

// Mempool is the node's unconfirmed transaction set. Counts arrive as JSON strings.
type Mempool struct {
	NTxs       int      `json:"n_txs,string"`
	Total      int      `json:"total,string"`
	TotalBytes int      `json:"total_bytes,string"`
	Txs        []string `json:"txs"`
}

// Entry is one pending transaction that has not been projected before.
type Entry struct {
	ID       string
	Raw      []byte
	Messages []cosmostx.ExecuteContract
}

// Logger defines a standard interface for structured, leveled logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}
