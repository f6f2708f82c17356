package arbitrage

import (
	"testing"

	"github.com/defistate/wasm-arb-go/protocols/amm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetAssetOrder(t *testing.T) {
	p1 := inputFeePool("juno1p1", juno, usdc, 100, 200)
	p2 := inputFeePool("juno1p2", juno, usdc, 300, 400)

	path := NewPath(p1, p2)
	require.NoError(t, path.SetAssetOrder(usdc))
	assert.True(t, path.Oriented())

	in, out := path.Balances(0)
	assert.Equal(t, uint64(200), in.Uint64())
	assert.Equal(t, uint64(100), out.Uint64())
	in, out = path.Balances(1)
	assert.Equal(t, uint64(300), in.Uint64())
	assert.Equal(t, uint64(400), out.Uint64())

	// balances follow in-place reserve updates
	p1.Assets[1].Amount.SetUint64(250)
	in, _ = path.Balances(0)
	assert.Equal(t, uint64(250), in.Uint64())

	t.Run("broken route", func(t *testing.T) {
		err := NewPath(p1, inputFeePool("juno1x", raw, usdc, 1, 1)).SetAssetOrder(usdc)
		assert.ErrorIs(t, err, ErrBrokenRoute)
	})

	t.Run("route that does not close", func(t *testing.T) {
		err := NewPath(p1, inputFeePool("juno1x", juno, raw, 1, 1)).SetAssetOrder(usdc)
		assert.ErrorIs(t, err, ErrNotCyclic)
	})
}

func TestCooldown(t *testing.T) {
	path := NewPath()
	assert.True(t, path.Eligible())

	path.Cooldown = 2
	assert.False(t, path.Eligible())
	path.Tick()
	path.Tick()
	assert.True(t, path.Eligible())
	path.Tick()
	assert.Equal(t, 0, path.Cooldown)
}

func TestFindPaths(t *testing.T) {
	ab := inputFeePool("juno1ab", juno, usdc, 1, 1)
	ab2 := inputFeePool("juno1ab2", usdc, juno, 1, 1)
	bc := inputFeePool("juno1bc", usdc, raw, 1, 1)
	ca := inputFeePool("juno1ca", raw, juno, 1, 1)
	pools := []*amm.Pool{ab, ab2, bc, ca}

	t.Run("two hops", func(t *testing.T) {
		paths := FindPaths(pools, juno, 2)
		require.Len(t, paths, 2)
		assert.Equal(t, []string{"juno1ab", "juno1ab2"}, paths[0].Addresses())
		assert.Equal(t, []string{"juno1ab2", "juno1ab"}, paths[1].Addresses())
		for _, p := range paths {
			assert.True(t, p.Oriented())
		}
	})

	t.Run("three hops", func(t *testing.T) {
		paths := FindPaths(pools, juno, 3)
		var routes [][]string
		for _, p := range paths {
			routes = append(routes, p.Addresses())
		}
		assert.ElementsMatch(t, [][]string{
			{"juno1ab", "juno1ab2"},
			{"juno1ab", "juno1bc", "juno1ca"},
			{"juno1ab2", "juno1ab"},
			{"juno1ab2", "juno1bc", "juno1ca"},
			{"juno1ca", "juno1bc", "juno1ab"},
			{"juno1ca", "juno1bc", "juno1ab2"},
		}, routes)
	})
}

func TestRemoveUnusedPools(t *testing.T) {
	ab := inputFeePool("juno1ab", juno, usdc, 1, 1)
	ab2 := inputFeePool("juno1ab2", usdc, juno, 1, 1)
	lonely := inputFeePool("juno1lonely", raw, usdc, 1, 1)

	kept := RemoveUnusedPools([]*amm.Pool{ab, lonely, ab2}, []*Path{NewPath(ab, ab2)})
	assert.Equal(t, []*amm.Pool{ab, ab2}, kept)
}
