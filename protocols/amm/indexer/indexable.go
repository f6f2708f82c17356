package indexer

import (
	"github.com/defistate/wasm-arb-go/protocols/amm"
	"github.com/defistate/wasm-arb-go/protocols/asset"
)

// Indexer is a concrete implementation of the pool indexing used by the mempool projector.
type Indexer struct{}

// New creates a new Indexer.
func New() *Indexer {
	return &Indexer{}
}

// Index creates an indexed view over the tracked pools. The view holds the same *amm.Pool pointers, so
// reserve mutations through it are visible to every path that shares the pool.
func (i *Indexer) Index(pools []*amm.Pool) IndexedPools {
	return NewIndexablePools(pools)
}

// IndexablePools provides fast, indexed access to tracked pools.
type IndexablePools struct {
	byAddress map[string]int
	byRouter  map[string][]int
	all       []*amm.Pool
}

// NewIndexablePools creates the address and router indexes. Pool positions in the input slice are kept, so the
// returned index can be used to address a bitset over the pools.
func NewIndexablePools(pools []*amm.Pool) *IndexablePools {
	byAddress := make(map[string]int, len(pools))
	byRouter := make(map[string][]int)

	for idx, p := range pools {
		if _, exists := byAddress[p.Address]; !exists {
			byAddress[p.Address] = idx
		}
		if p.RouterAddress != "" {
			byRouter[p.RouterAddress] = append(byRouter[p.RouterAddress], idx)
		}
	}

	return &IndexablePools{
		byAddress: byAddress,
		byRouter:  byRouter,
		all:       pools,
	}
}

// GetByAddress retrieves a pool by its contract address.
func (ip *IndexablePools) GetByAddress(address string) (*amm.Pool, int, bool) {
	idx, ok := ip.byAddress[address]
	if !ok {
		return nil, 0, false
	}
	return ip.all[idx], idx, true
}

// FindByInfos returns the first pool behind the router whose sides are {a, b} in either order.
// When several tracked pools of one router trade the same pair, the first one in tracking order wins.
func (ip *IndexablePools) FindByInfos(router string, a, b asset.Info) (*amm.Pool, int, bool) {
	for _, idx := range ip.byRouter[router] {
		if ip.all[idx].MatchesPair(a, b) {
			return ip.all[idx], idx, true
		}
	}
	return nil, 0, false
}

func (ip *IndexablePools) Len() int {
	return len(ip.all)
}

// All returns a copy of the slice of tracked pools. The pools themselves are shared.
func (ip *IndexablePools) All() []*amm.Pool {
	allCopy := make([]*amm.Pool, len(ip.all))
	copy(allCopy, ip.all)
	return allCopy
}
