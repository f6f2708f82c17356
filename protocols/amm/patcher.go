package amm

import "fmt"

// Patcher writes the reserve updates of a diff into the live pools in place, so that paths holding these
// pools observe the fresh state. It returns the number of pools patched.
func Patcher(live []*Pool, diff PoolSystemDiff) (int, error) {
	byAddress := make(map[string]*Pool, len(live))
	for _, pool := range live {
		byAddress[pool.Address] = pool
	}

	// Validate first so a bad diff leaves the state untouched.
	for _, update := range diff.Updates {
		if _, ok := byAddress[update.Address]; !ok {
			return 0, fmt.Errorf("%w: update for untracked pool %s", ErrInvalidPool, update.Address)
		}
	}

	for _, update := range diff.Updates {
		pool := byAddress[update.Address]
		pool.Assets[0].Amount = update.Amounts[0]
		pool.Assets[1].Amount = update.Amounts[1]
		if update.HasShare {
			pool.TotalShare = update.Share
		}
	}
	return len(diff.Updates), nil
}
