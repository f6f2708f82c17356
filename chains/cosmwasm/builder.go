package cosmwasm

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/defistate/wasm-arb-go/arbitrage"
	"github.com/defistate/wasm-arb-go/protocols/amm"
	"github.com/defistate/wasm-arb-go/protocols/amm/calculator"
	"github.com/defistate/wasm-arb-go/protocols/asset"
	"github.com/defistate/wasm-arb-go/protocols/cosmostx"
)

const DefaultMaxSpread = "0.005"

var ErrUnroutable = errors.New("trade cannot be routed")

// Builder renders an arbitrage trade as a single flash-loan execution on the router. Every hop of the path becomes
// one wasm message inside the flash loan.
type Builder struct {
	MaxSpread string
}

func NewBuilder() *Builder {
	return &Builder{MaxSpread: DefaultMaxSpread}
}

type wasmMsg struct {
	Wasm struct {
		Execute wasmExecute `json:"execute"`
	} `json:"wasm"`
}

type wasmExecute struct {
	ContractAddr string          `json:"contract_addr"`
	Msg          []byte          `json:"msg"`
	Funds        []cosmostx.Coin `json:"funds"`
}

type flashLoanMsg struct {
	FlashLoan struct {
		Assets []asset.Asset `json:"assets"`
		Msgs   []wasmMsg     `json:"msgs"`
	} `json:"flash_loan"`
}

// Build returns the router execution and the number of wasm messages it carries.
func (b *Builder) Build(trade *arbitrage.OptimalTrade, sender, router string) ([]cosmostx.Any, int, error) {
	msgs, err := b.hops(trade.Path, trade.OfferAsset)
	if err != nil {
		return nil, 0, err
	}

	var flash flashLoanMsg
	flash.FlashLoan.Assets = []asset.Asset{trade.OfferAsset}
	flash.FlashLoan.Msgs = msgs
	payload, err := json.Marshal(flash)
	if err != nil {
		return nil, 0, err
	}

	exec := cosmostx.ExecuteContract{Sender: sender, Contract: router, Msg: payload}
	return []cosmostx.Any{exec.Any()}, len(msgs), nil
}

// WasmCount returns the number of wasm messages Build produces for path, independent of the traded amount.
func (b *Builder) WasmCount(path *arbitrage.Path, offer asset.Info) (int, error) {
	msgs, err := b.hops(path, asset.New(offer, 1000000))
	if err != nil {
		return 0, err
	}
	return len(msgs), nil
}

func (b *Builder) hops(path *arbitrage.Path, offer asset.Asset) ([]wasmMsg, error) {
	msgs := make([]wasmMsg, 0, len(path.Pools))
	for i, pool := range path.Pools {
		swap, err := b.swap(pool, offer)
		if err != nil {
			return nil, fmt.Errorf("%w: hop %d (%s): %v", ErrUnroutable, i, pool.Address, err)
		}
		msgs = append(msgs, swap...)

		amount, info, ok := calculator.QuoteOutput(pool, offer)
		if !ok {
			return nil, fmt.Errorf("%w: hop %d (%s) does not trade %s", ErrUnroutable, i, pool.Address, offer.Info)
		}
		offer = asset.Asset{Info: info, Amount: amount}
	}
	return msgs, nil
}

func (b *Builder) swap(pool *amm.Pool, offer asset.Asset) ([]wasmMsg, error) {
	switch pool.Dex {
	case amm.DexJunoswap:
		return b.junoSwap(pool, offer)
	case amm.DexWyndex:
		return b.poolSwap(pool, offer, offer.Info.WyndexJSON())
	default:
		return b.poolSwap(pool, offer, offer.Info)
	}
}

// poolSwap sends native offers as funds of a swap call and CW20 offers through the token's send hook.
func (b *Builder) poolSwap(pool *amm.Pool, offer asset.Asset, info any) ([]wasmMsg, error) {
	if offer.Info.IsNative() {
		payload, err := json.Marshal(map[string]any{
			"swap": map[string]any{
				"max_spread": b.MaxSpread,
				"offer_asset": map[string]any{
					"amount": offer.Amount.Dec(),
					"info":   info,
				},
			},
		})
		if err != nil {
			return nil, err
		}
		funds := []cosmostx.Coin{{Denom: offer.Info.NativeToken.Denom, Amount: offer.Amount.Dec()}}
		return []wasmMsg{execute(pool.Address, payload, funds)}, nil
	}

	hook, err := json.Marshal(map[string]any{"swap": map[string]any{"max_spread": b.MaxSpread}})
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(map[string]any{
		"send": map[string]any{
			"contract": pool.Address,
			"amount":   offer.Amount.Dec(),
			"msg":      hook,
		},
	})
	if err != nil {
		return nil, err
	}
	return []wasmMsg{execute(offer.Info.Token.ContractAddr, payload, nil)}, nil
}

// junoSwap names the input side instead of the asset. CW20 inputs need an allowance first.
func (b *Builder) junoSwap(pool *amm.Pool, offer asset.Asset) ([]wasmMsg, error) {
	in, _, ok := calculator.AssetsOrder(pool, offer.Info)
	if !ok {
		return nil, fmt.Errorf("pool does not trade %s", offer.Info)
	}
	side := "Token1"
	if in == 1 {
		side = "Token2"
	}
	payload, err := json.Marshal(map[string]any{
		"swap": map[string]any{
			"input_token":  side,
			"input_amount": offer.Amount.Dec(),
			"min_output":   "0",
		},
	})
	if err != nil {
		return nil, err
	}

	if offer.Info.IsNative() {
		funds := []cosmostx.Coin{{Denom: offer.Info.NativeToken.Denom, Amount: offer.Amount.Dec()}}
		return []wasmMsg{execute(pool.Address, payload, funds)}, nil
	}

	allowance, err := json.Marshal(map[string]any{
		"increase_allowance": map[string]any{
			"spender": pool.Address,
			"amount":  offer.Amount.Dec(),
		},
	})
	if err != nil {
		return nil, err
	}
	return []wasmMsg{
		execute(offer.Info.Token.ContractAddr, allowance, nil),
		execute(pool.Address, payload, nil),
	}, nil
}

func execute(contract string, msg []byte, funds []cosmostx.Coin) wasmMsg {
	if funds == nil {
		funds = []cosmostx.Coin{}
	}
	var m wasmMsg
	m.Wasm.Execute = wasmExecute{ContractAddr: contract, Msg: msg, Funds: funds}
	return m
}
