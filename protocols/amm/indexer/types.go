package indexer

import (
	"github.com/defistate/wasm-arb-go/protocols/amm"
	"github.com/defistate/wasm-arb-go/protocols/asset"
)

// IndexedPools defines the methods for looking up tracked pools by address and by router.
type IndexedPools interface {
	GetByAddress(address string) (*amm.Pool, int, bool)
	FindByInfos(router string, a, b asset.Info) (*amm.Pool, int, bool)
	Len() int
	All() []*amm.Pool
}
