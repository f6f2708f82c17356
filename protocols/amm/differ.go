package amm

import "github.com/holiman/uint256"

// Reserves is an on-chain reserve snapshot of one pool, in the pool's own asset order.
type Reserves struct {
	Address  string
	Amounts  [2]uint256.Int
	HasShare bool
	Share    uint256.Int
}

// --- Diff Structures with Helper Methods ---

// PoolSystemDiff lists the pools whose simulated reserves drifted from a fresh snapshot.
type PoolSystemDiff struct {
	Updates []Reserves
	// Missing lists tracked pools the snapshot did not cover.
	Missing []string
}

// IsEmpty returns true if the diff contains no changes.
func (d PoolSystemDiff) IsEmpty() bool {
	return len(d.Updates) == 0
}

// Differ compares the live, simulated pools against an on-chain snapshot.
// 1. Index the snapshot by address for O(1) lookups.
// 2. Every live pool whose reserves differ from its snapshot entry becomes an update.
// 3. Live pools without a snapshot entry are reported as missing and left untouched.
func Differ(live []*Pool, snapshot []Reserves) PoolSystemDiff {
	snapshotMap := make(map[string]Reserves, len(snapshot))
	for _, r := range snapshot {
		snapshotMap[r.Address] = r
	}

	var diff PoolSystemDiff
	for _, pool := range live {
		fresh, exists := snapshotMap[pool.Address]
		if !exists {
			diff.Missing = append(diff.Missing, pool.Address)
			continue
		}
		if !pool.Assets[0].Amount.Eq(&fresh.Amounts[0]) || !pool.Assets[1].Amount.Eq(&fresh.Amounts[1]) {
			diff.Updates = append(diff.Updates, fresh)
		}
	}
	return diff
}
