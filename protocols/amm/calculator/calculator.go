package calculator

import (
	"github.com/defistate/wasm-arb-go/protocols/amm"
	"github.com/defistate/wasm-arb-go/protocols/asset"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

var one = decimal.NewFromInt(1)

// AssetsOrder returns the index of the side the offer asset enters (in) and the side that leaves the pool (out).
// ok is false when the offer asset matches neither side.
func AssetsOrder(pool *amm.Pool, offer asset.Info) (in, out int, ok bool) {
	switch {
	case pool.Assets[0].Info.Equal(offer):
		return 0, 1, true
	case pool.Assets[1].Info.Equal(offer):
		return 1, 0, true
	default:
		return 0, 0, false
	}
}

// InputRate returns r1 = 1 - inputFee/100.
func InputRate(pool *amm.Pool) decimal.Decimal {
	return one.Sub(pool.InputFee.Shift(-2))
}

// OutputRate returns r2 = 1 - outputFee/100.
func OutputRate(pool *amm.Pool) decimal.Decimal {
	return one.Sub(pool.OutputFee.Shift(-2))
}

// QuoteOutput returns the amount and asset a trader receives for offering the given asset to the pool, without
// mutating it. Input-fee pools deduct floor(offer*r1) before the constant-product step, output-fee pools scale
// the floored constant-product output by r2 and floor again. ok is false when the offer asset is not traded by
// the pool or the reserve product does not fit in 256 bits.
func QuoteOutput(pool *amm.Pool, offer asset.Asset) (amount uint256.Int, info asset.Info, ok bool) {
	in, out, ok := AssetsOrder(pool, offer.Info)
	if !ok {
		return uint256.Int{}, asset.Info{}, false
	}
	k, ok := constantProduct(pool)
	if !ok {
		return uint256.Int{}, asset.Info{}, false
	}
	aIn := &pool.Assets[in].Amount
	aOut := &pool.Assets[out].Amount

	if pool.ChargesInputFee() {
		amountInAfterFee := mulFloor(&offer.Amount, InputRate(pool))
		received, ok := grossOutput(&k, aIn, aOut, &amountInAfterFee)
		if !ok {
			return uint256.Int{}, asset.Info{}, false
		}
		return received, pool.Assets[out].Info, true
	}

	gross, ok := grossOutput(&k, aIn, aOut, &offer.Amount)
	if !ok {
		return uint256.Int{}, asset.Info{}, false
	}
	return mulFloor(&gross, OutputRate(pool)), pool.Assets[out].Info, true
}

// ApplyTrade moves the pool's reserves as if the offer had been swapped on chain. The part of the fee that
// belongs to liquidity providers (LPRatio) stays in the pool. It is a no-op returning false when the offer asset
// is not traded by the pool or the arithmetic would overflow.
func ApplyTrade(pool *amm.Pool, offer asset.Asset) bool {
	in, out, ok := AssetsOrder(pool, offer.Info)
	if !ok {
		return false
	}
	k, ok := constantProduct(pool)
	if !ok {
		return false
	}
	aIn := pool.Assets[in].Amount
	aOut := pool.Assets[out].Amount

	var newIn, newOut uint256.Int
	if pool.ChargesInputFee() {
		amountInAfterFee := mulFloor(&offer.Amount, InputRate(pool))

		var feeAmount uint256.Int
		feeAmount.Sub(&offer.Amount, &amountInAfterFee)
		lpFeeAmount := mulFloor(&feeAmount, pool.LPRatio)

		received, ok := grossOutput(&k, &aIn, &aOut, &amountInAfterFee)
		if !ok {
			return false
		}
		if _, overflow := newIn.AddOverflow(&aIn, &amountInAfterFee); overflow {
			return false
		}
		if _, overflow := newIn.AddOverflow(&newIn, &lpFeeAmount); overflow {
			return false
		}
		newOut.Sub(&aOut, &received)
	} else {
		// Only the protocol part of the output fee leaves the pool: with a 0.3% fee of which 2/3 go to LPs,
		// the outflow is reduced by 0.2%.
		outflowReducer := one.Sub(pool.OutputFee.Mul(pool.LPRatio).Shift(-2))

		gross, ok := grossOutput(&k, &aIn, &aOut, &offer.Amount)
		if !ok {
			return false
		}
		if _, overflow := newIn.AddOverflow(&aIn, &offer.Amount); overflow {
			return false
		}
		outflow := mulFloor(&gross, outflowReducer)
		if outflow.Gt(&aOut) {
			return false
		}
		newOut.Sub(&aOut, &outflow)
	}

	pool.Assets[in].Amount = newIn
	pool.Assets[out].Amount = newOut
	return true
}

// constantProduct returns k = reserve0 * reserve1. Uint128 reserves always fit.
func constantProduct(pool *amm.Pool) (uint256.Int, bool) {
	var k uint256.Int
	if _, overflow := k.MulOverflow(&pool.Assets[0].Amount, &pool.Assets[1].Amount); overflow {
		return uint256.Int{}, false
	}
	return k, true
}

// grossOutput returns floor(aOut - k/(aIn+amountIn)), computed exactly as aOut - ceil(k/(aIn+amountIn)).
func grossOutput(k, aIn, aOut, amountIn *uint256.Int) (uint256.Int, bool) {
	var denominator uint256.Int
	if _, overflow := denominator.AddOverflow(aIn, amountIn); overflow {
		return uint256.Int{}, false
	}
	if denominator.IsZero() {
		return uint256.Int{}, true
	}

	var quotient, remainder uint256.Int
	quotient.DivMod(k, &denominator, &remainder)
	if !remainder.IsZero() {
		quotient.AddUint64(&quotient, 1)
	}
	if quotient.Gt(aOut) {
		return uint256.Int{}, true
	}

	var received uint256.Int
	received.Sub(aOut, &quotient)
	return received, true
}

// mulFloor returns floor(amount * rate) for a rate in [0, 1].
func mulFloor(amount *uint256.Int, rate decimal.Decimal) uint256.Int {
	product := decimal.NewFromBigInt(amount.ToBig(), 0).Mul(rate).Floor()
	if product.Sign() <= 0 {
		return uint256.Int{}
	}
	v, overflow := uint256.FromBig(product.BigInt())
	if overflow {
		return *amount
	}
	return *v
}
