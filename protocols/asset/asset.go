package asset

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
)

var (
	// ErrInvalidInfo is returned when an asset info object matches none of the known dialects.
	ErrInvalidInfo = errors.New("invalid asset info")
	// ErrInvalidAmount is returned when an amount is not a non-negative decimal integer that fits in 256 bits.
	ErrInvalidAmount = errors.New("invalid asset amount")
)

type NativeToken struct {
	Denom string `json:"denom"`
}

type Token struct {
	ContractAddr string `json:"contract_addr"`
}

// Info identifies a fungible asset. Exactly one of NativeToken and Token is set.
type Info struct {
	NativeToken *NativeToken `json:"native_token,omitempty"`
	Token       *Token       `json:"token,omitempty"`
}

// Native returns the info of a bank denom.
func Native(denom string) Info {
	return Info{NativeToken: &NativeToken{Denom: denom}}
}

// CW20 returns the info of a CW20 token contract.
func CW20(contractAddr string) Info {
	return Info{Token: &Token{ContractAddr: contractAddr}}
}

func (i Info) IsNative() bool {
	return i.NativeToken != nil
}

func (i Info) IsZero() bool {
	return i.NativeToken == nil && i.Token == nil
}

// Equal reports whether both infos carry the same tag and the same denom or address.
func (i Info) Equal(o Info) bool {
	switch {
	case i.NativeToken != nil && o.NativeToken != nil:
		return i.NativeToken.Denom == o.NativeToken.Denom
	case i.Token != nil && o.Token != nil:
		return i.Token.ContractAddr == o.Token.ContractAddr
	default:
		return false
	}
}

// Key returns a string usable as a map key; equal infos have equal keys.
func (i Info) Key() string {
	switch {
	case i.NativeToken != nil:
		return "native:" + i.NativeToken.Denom
	case i.Token != nil:
		return "cw20:" + i.Token.ContractAddr
	default:
		return ""
	}
}

func (i Info) String() string {
	return i.Key()
}

// UnmarshalJSON accepts the canonical {"native_token":{"denom"}} / {"token":{"contract_addr"}} shapes as well as
// the Wyndex ({"native":d} / {"token":addr}) and Junoswap ({"native":d} / {"cw20":addr}) dialects, and always
// normalizes to the canonical form.
func (i *Info) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInfo, err)
	}
	if len(raw) != 1 {
		return fmt.Errorf("%w: expected exactly one key, got %d", ErrInvalidInfo, len(raw))
	}

	for key, value := range raw {
		switch key {
		case "native_token":
			var n NativeToken
			if err := json.Unmarshal(value, &n); err != nil || n.Denom == "" {
				return fmt.Errorf("%w: bad native_token", ErrInvalidInfo)
			}
			*i = Native(n.Denom)
		case "token":
			var t Token
			if err := json.Unmarshal(value, &t); err == nil && t.ContractAddr != "" {
				*i = CW20(t.ContractAddr)
				return nil
			}
			var addr string
			if err := json.Unmarshal(value, &addr); err != nil || addr == "" {
				return fmt.Errorf("%w: bad token", ErrInvalidInfo)
			}
			*i = CW20(addr)
		case "native":
			var denom string
			if err := json.Unmarshal(value, &denom); err != nil || denom == "" {
				return fmt.Errorf("%w: bad native", ErrInvalidInfo)
			}
			*i = Native(denom)
		case "cw20":
			var addr string
			if err := json.Unmarshal(value, &addr); err != nil || addr == "" {
				return fmt.Errorf("%w: bad cw20", ErrInvalidInfo)
			}
			*i = CW20(addr)
		default:
			return fmt.Errorf("%w: unknown key %q", ErrInvalidInfo, key)
		}
	}
	return nil
}

// WyndexJSON returns the info in the Wyndex dialect.
func (i Info) WyndexJSON() map[string]string {
	if i.NativeToken != nil {
		return map[string]string{"native": i.NativeToken.Denom}
	}
	if i.Token != nil {
		return map[string]string{"token": i.Token.ContractAddr}
	}
	return nil
}

// Asset is an amount of a fungible asset.
type Asset struct {
	Info   Info
	Amount uint256.Int
}

// New returns an asset with a uint64 amount.
func New(info Info, amount uint64) Asset {
	a := Asset{Info: info}
	a.Amount.SetUint64(amount)
	return a
}

// FromBig returns an asset with the given amount. Negative or oversized amounts are rejected.
func FromBig(info Info, amount *big.Int) (Asset, error) {
	if amount == nil || amount.Sign() < 0 {
		return Asset{}, ErrInvalidAmount
	}
	v, overflow := uint256.FromBig(amount)
	if overflow {
		return Asset{}, fmt.Errorf("%w: %s overflows 256 bits", ErrInvalidAmount, amount)
	}
	return Asset{Info: info, Amount: *v}, nil
}

// ParseAmount parses a decimal integer string as sent on the wire (Uint128 values are strings).
func ParseAmount(s string) (uint256.Int, error) {
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return uint256.Int{}, fmt.Errorf("%w: %q: %v", ErrInvalidAmount, s, err)
	}
	return *v, nil
}

type assetJSON struct {
	Info   Info   `json:"info"`
	Amount string `json:"amount"`
}

func (a Asset) MarshalJSON() ([]byte, error) {
	return json.Marshal(assetJSON{Info: a.Info, Amount: a.Amount.Dec()})
}

func (a *Asset) UnmarshalJSON(data []byte) error {
	var aj assetJSON
	if err := json.Unmarshal(data, &aj); err != nil {
		return err
	}
	amount, err := ParseAmount(aj.Amount)
	if err != nil {
		return err
	}
	a.Info = aj.Info
	a.Amount = amount
	return nil
}

func (a Asset) String() string {
	return a.Amount.Dec() + " " + a.Info.String()
}
