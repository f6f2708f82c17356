package arbitrage

import (
	"math/big"

	"github.com/defistate/wasm-arb-go/protocols/amm"
	"github.com/defistate/wasm-arb-go/protocols/amm/calculator"
	"github.com/defistate/wasm-arb-go/protocols/asset"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// precision of the folded reserves and the square root.
const precision = 256

// Params configures trade evaluation.
type Params struct {
	OfferInfo           asset.Info
	FlashloanFeePercent decimal.Decimal
	// BidRate is the share of raw profit kept by the bot; nil disables bidding.
	BidRate *decimal.Decimal
}

// Quote is the evaluation of one path at its optimal trade size.
type Quote struct {
	TradeSize uint256.Int
	RawProfit *big.Int
	NetProfit *big.Int
	// Bid is nil when bidding is disabled.
	Bid *big.Int
}

// OptimalTrade is the best trade found across a set of paths.
type OptimalTrade struct {
	OfferAsset asset.Asset
	Path       *Path
	Profit     *big.Int
	Bid        *big.Int
}

// FindBestTrade returns the eligible path with the strictly greatest positive net profit. Ties keep the earlier
// path.
func FindBestTrade(paths []*Path, params Params) (*OptimalTrade, bool) {
	var best *OptimalTrade
	for _, path := range paths {
		if !path.Eligible() {
			continue
		}
		q, ok := OptimalTradeForPath(path, params)
		if !ok || q.TradeSize.IsZero() || q.NetProfit.Sign() <= 0 {
			continue
		}
		if best != nil && q.NetProfit.Cmp(best.Profit) <= 0 {
			continue
		}
		best = &OptimalTrade{
			OfferAsset: asset.Asset{Info: params.OfferInfo, Amount: q.TradeSize},
			Path:       path,
			Profit:     q.NetProfit,
			Bid:        q.Bid,
		}
	}
	return best, best != nil
}

// OptimalTradeForPath computes the profit maximizing input of the route in closed form and evaluates it by
// quoting every hop. It reports false for routes with no positive optimum or a negative raw profit.
func OptimalTradeForPath(path *Path, params Params) (Quote, bool) {
	if !path.Oriented() {
		return Quote{}, false
	}
	delta, ok := optimalInput(path)
	if !ok {
		return Quote{}, false
	}

	offer := asset.Asset{Info: params.OfferInfo, Amount: delta}
	for _, pool := range path.Pools {
		out, info, ok := calculator.QuoteOutput(pool, offer)
		if !ok {
			return Quote{}, false
		}
		offer = asset.Asset{Info: info, Amount: out}
	}
	if !offer.Info.Equal(params.OfferInfo) {
		return Quote{}, false
	}

	raw := new(big.Int).Sub(offer.Amount.ToBig(), delta.ToBig())
	if raw.Sign() < 0 {
		return Quote{}, false
	}

	rawDec := decimal.NewFromBigInt(raw, 0)
	net := rawDec.
		Sub(params.FlashloanFeePercent.Shift(-2).Mul(decimal.NewFromBigInt(delta.ToBig(), 0))).
		Sub(path.ProfitThreshold)

	q := Quote{TradeSize: delta, RawProfit: raw}
	if params.BidRate != nil {
		bid := decimal.NewFromInt(1).Sub(*params.BidRate).Mul(rawDec).Ceil()
		net = net.Sub(bid)
		q.Bid = bid.BigInt()
	}
	q.NetProfit = net.Floor().BigInt()
	return q, true
}

// optimalInput folds the route onto the first pool and returns floor((sqrt(r1 r2 a'in a'out) - a'in) / r1).
func optimalInput(path *Path) (uint256.Int, bool) {
	in0, out0 := path.Balances(0)
	if in0.IsZero() || out0.IsZero() {
		return uint256.Int{}, false
	}
	aIn, aOut := toFloat(&in0), toFloat(&out0)
	r1First, r2First := rates(path.Pools[0])

	for i := 1; i < len(path.Pools); i++ {
		in, out := path.Balances(i)
		if in.IsZero() || out.IsZero() {
			return uint256.Int{}, false
		}
		r1, r2 := rates(path.Pools[i])
		aInI, aOutI := toFloat(&in), toFloat(&out)

		scaled := newFloat().Mul(r1, r2)
		scaled.Mul(scaled, aOut)
		den := newFloat().Add(aInI, scaled)

		aIn = newFloat().Quo(newFloat().Mul(aIn, aInI), den)
		aOut = newFloat().Quo(newFloat().Mul(scaled, aOutI), den)
	}

	root := newFloat().Mul(r1First, r2First)
	root.Mul(root, aIn)
	root.Mul(root, aOut)

	x := newFloat().Sub(newFloat().Sqrt(root), aIn)
	x.Quo(x, r1First)
	if x.Sign() <= 0 {
		return uint256.Int{}, false
	}
	delta, _ := x.Int(nil)
	if delta.Sign() <= 0 {
		return uint256.Int{}, false
	}
	d, overflow := uint256.FromBig(delta)
	if overflow {
		return uint256.Int{}, false
	}
	return *d, true
}

func newFloat() *big.Float {
	return new(big.Float).SetPrec(precision)
}

func toFloat(v *uint256.Int) *big.Float {
	return newFloat().SetInt(v.ToBig())
}

func decimalToFloat(d decimal.Decimal) *big.Float {
	f, _ := newFloat().SetString(d.String())
	return f
}

func rates(pool *amm.Pool) (r1, r2 *big.Float) {
	return decimalToFloat(calculator.InputRate(pool)), decimalToFloat(calculator.OutputRate(pool))
}
