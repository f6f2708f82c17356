package amm

import (
	"errors"
	"fmt"

	"github.com/defistate/wasm-arb-go/protocols/asset"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// DexName identifies the AMM implementation backing a pool. It decides the pool's state query shape,
// its swap message dialect and its fee-application policy.
type DexName string

const (
	DexDefault  DexName = "default"
	DexJunoswap DexName = "junoswap"
	DexWyndex   DexName = "wyndex"
)

var (
	// ErrFeePolicy is returned when a pool does not charge fees on exactly one side of a swap.
	ErrFeePolicy = errors.New("exactly one of input fee and output fee must be non-zero")
	// ErrInvalidPool is returned for structurally broken pools.
	ErrInvalidPool = errors.New("invalid pool")
)

// Pool is a two-sided constant-product pool. Assets[].Amount are the reserves and are mutated in place by
// simulation; TotalShare is informational once the pool is initialized.
type Pool struct {
	Assets     [2]asset.Asset
	TotalShare uint256.Int
	Address    string
	Dex        DexName

	// Fees are percentages, i.e. 0.3 for 0.3%.
	InputFee  decimal.Decimal
	OutputFee decimal.Decimal
	// LPRatio is the share of the fee that stays in the pool for liquidity providers.
	LPRatio decimal.Decimal

	FactoryAddress string
	RouterAddress  string
}

// ChargesInputFee reports whether the pool deducts its fee from the offer amount before the swap.
func (p *Pool) ChargesInputFee() bool {
	return p.InputFee.IsPositive()
}

// Validate checks the pool's structural invariants.
func (p *Pool) Validate() error {
	if p.Address == "" {
		return fmt.Errorf("%w: empty address", ErrInvalidPool)
	}
	if p.Assets[0].Info.IsZero() || p.Assets[1].Info.IsZero() {
		return fmt.Errorf("%w: pool %s has an empty asset info", ErrInvalidPool, p.Address)
	}
	if p.Assets[0].Info.Equal(p.Assets[1].Info) {
		return fmt.Errorf("%w: pool %s trades %s against itself", ErrInvalidPool, p.Address, p.Assets[0].Info)
	}
	if p.InputFee.IsNegative() || p.OutputFee.IsNegative() || p.LPRatio.IsNegative() {
		return fmt.Errorf("%w: pool %s has a negative fee parameter", ErrInvalidPool, p.Address)
	}
	if p.InputFee.IsPositive() == p.OutputFee.IsPositive() {
		return fmt.Errorf("%w: pool %s (input %s, output %s)", ErrFeePolicy, p.Address, p.InputFee, p.OutputFee)
	}
	return nil
}

// MatchesPair reports whether the pool's two sides are exactly {a, b}, in either order.
func (p *Pool) MatchesPair(a, b asset.Info) bool {
	return (p.Assets[0].Info.Equal(a) && p.Assets[1].Info.Equal(b)) ||
		(p.Assets[0].Info.Equal(b) && p.Assets[1].Info.Equal(a))
}
