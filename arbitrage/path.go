package arbitrage

import (
	"errors"
	"fmt"

	"github.com/defistate/wasm-arb-go/protocols/amm"
	"github.com/defistate/wasm-arb-go/protocols/amm/calculator"
	"github.com/defistate/wasm-arb-go/protocols/asset"
	"github.com/defistate/wasm-arb-go/protocols/cosmostx"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

var (
	ErrBrokenRoute = errors.New("route does not chain")
	ErrNotCyclic   = errors.New("route does not return to the offer asset")
)

// Path is a cyclic route of pools starting and ending in the offer asset. Pools are shared with the pool system
// and mutated in place by mempool projection.
type Path struct {
	Pools []*amm.Pool
	// Cooldown is the number of loop steps the path stays ineligible after it was traded.
	Cooldown        int
	TxFee           cosmostx.Fee
	ProfitThreshold decimal.Decimal

	// order[i] holds the (in, out) asset indices of Pools[i] along the route.
	order [][2]int
}

func NewPath(pools ...*amm.Pool) *Path {
	return &Path{Pools: pools}
}

// SetAssetOrder caches the orientation of every pool along the route starting from offer.
func (p *Path) SetAssetOrder(offer asset.Info) error {
	order := make([][2]int, 0, len(p.Pools))
	next := offer
	for i, pool := range p.Pools {
		in, out, ok := calculator.AssetsOrder(pool, next)
		if !ok {
			return fmt.Errorf("%w: pool %d (%s) does not hold %s", ErrBrokenRoute, i, pool.Address, next)
		}
		order = append(order, [2]int{in, out})
		next = pool.Assets[out].Info
	}
	if !next.Equal(offer) {
		return fmt.Errorf("%w: ends in %s", ErrNotCyclic, next)
	}
	p.order = order
	return nil
}

// Oriented reports whether SetAssetOrder succeeded for the path.
func (p *Path) Oriented() bool {
	return len(p.order) == len(p.Pools) && len(p.Pools) > 0
}

// Balances returns the current reserves of Pools[i] oriented along the route.
func (p *Path) Balances(i int) (in, out uint256.Int) {
	o := p.order[i]
	return p.Pools[i].Assets[o[0]].Amount, p.Pools[i].Assets[o[1]].Amount
}

// Eligible reports whether the path is out of cooldown.
func (p *Path) Eligible() bool {
	return p.Cooldown <= 0
}

// Tick counts down one loop step of cooldown.
func (p *Path) Tick() {
	if p.Cooldown > 0 {
		p.Cooldown--
	}
}

// Addresses returns the pool addresses of the route, in order.
func (p *Path) Addresses() []string {
	addrs := make([]string, len(p.Pools))
	for i, pool := range p.Pools {
		addrs[i] = pool.Address
	}
	return addrs
}

// FindPaths enumerates every cycle of 2 to maxHops pools that starts and ends in offer without reusing a pool.
// Returned paths are oriented.
func FindPaths(pools []*amm.Pool, offer asset.Info, maxHops int) []*Path {
	var paths []*Path
	used := make([]bool, len(pools))
	route := make([]*amm.Pool, 0, maxHops)

	var walk func(current asset.Info)
	walk = func(current asset.Info) {
		for i, pool := range pools {
			if used[i] {
				continue
			}
			_, out, ok := calculator.AssetsOrder(pool, current)
			if !ok {
				continue
			}
			next := pool.Assets[out].Info
			route = append(route, pool)
			used[i] = true

			if next.Equal(offer) {
				if len(route) >= 2 {
					path := NewPath(append([]*amm.Pool(nil), route...)...)
					if path.SetAssetOrder(offer) == nil {
						paths = append(paths, path)
					}
				}
			} else if len(route) < maxHops {
				walk(next)
			}

			used[i] = false
			route = route[:len(route)-1]
		}
	}
	walk(offer)
	return paths
}

// RemoveUnusedPools returns the pools that appear in at least one path, in their original order.
func RemoveUnusedPools(pools []*amm.Pool, paths []*Path) []*amm.Pool {
	inUse := make(map[*amm.Pool]struct{})
	for _, path := range paths {
		for _, pool := range path.Pools {
			inUse[pool] = struct{}{}
		}
	}
	kept := make([]*amm.Pool, 0, len(inUse))
	for _, pool := range pools {
		if _, ok := inUse[pool]; ok {
			kept = append(kept, pool)
		}
	}
	return kept
}
