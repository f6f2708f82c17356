package cosmwasm

import (
	"github.com/defistate/wasm-arb-go/arbitrage"
	"github.com/defistate/wasm-arb-go/protocols/asset"
	"github.com/defistate/wasm-arb-go/protocols/cosmostx"
	"github.com/shopspring/decimal"
)

// PathFees maps the number of wasm messages a trade executes to its transaction fee and minimum profit.
type PathFees struct {
	TxFees           map[int]cosmostx.Fee
	ProfitThresholds map[int]decimal.Decimal
}

// SetPathFees assigns the tx fee and profit threshold of every path by the size of the message Build produces for
// it. Paths without a configured entry, or that cannot be routed, are logged and dropped.
func SetPathFees(paths []*arbitrage.Path, b *Builder, offer asset.Info, fees PathFees, logger Logger) []*arbitrage.Path {
	kept := paths[:0]
	for _, path := range paths {
		n, err := b.WasmCount(path, offer)
		if err != nil {
			logger.Warn("cannot route path", "pools", path.Addresses(), "error", err)
			continue
		}
		fee, hasFee := fees.TxFees[n]
		threshold, hasThreshold := fees.ProfitThresholds[n]
		if !hasFee || !hasThreshold {
			logger.Warn("cannot set tx fee or profit threshold for path", "pools", path.Addresses(), "wasm_msgs", n)
			continue
		}
		path.TxFee = fee
		path.ProfitThreshold = threshold
		kept = append(kept, path)
	}
	return kept
}
