package swapmsg

import (
	"encoding/base64"
	"encoding/json"

	"github.com/defistate/wasm-arb-go/protocols/asset"
	"github.com/holiman/uint256"
)

type rawObject map[string]json.RawMessage

type parser func(payload rawObject) (Message, bool)

// priority resolves shapes that overlap: both swap variants share the "swap" key and both operations variants
// share "execute_swap_operations".
var priority = []parser{
	parseDefaultSwap,
	parseJunoSwap,
	parseSend,
	parseTFMSwapOperations,
	parseJunoSwapOperations,
	parseSwapOperations,
}

// Classify parses a contract-call payload into the first shape, in priority order, whose schema it satisfies.
// It returns nil for payloads that match no shape.
func Classify(payload []byte) Message {
	var obj rawObject
	if err := json.Unmarshal(payload, &obj); err != nil {
		return nil
	}
	for _, parse := range priority {
		if msg, ok := parse(obj); ok {
			return msg
		}
	}
	return nil
}

// KindOf is Classify reduced to the shape's Kind.
func KindOf(payload []byte) Kind {
	msg := Classify(payload)
	if msg == nil {
		return Unrecognized
	}
	return msg.Kind()
}

func object(obj rawObject, key string) (rawObject, bool) {
	raw, ok := obj[key]
	if !ok {
		return nil, false
	}
	var inner rawObject
	if err := json.Unmarshal(raw, &inner); err != nil || inner == nil {
		return nil, false
	}
	return inner, true
}

func str(obj rawObject, key string) (string, bool) {
	raw, ok := obj[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func amount(obj rawObject, key string) (uint256.Int, bool) {
	s, ok := str(obj, key)
	if !ok {
		return uint256.Int{}, false
	}
	v, err := asset.ParseAmount(s)
	if err != nil {
		return uint256.Int{}, false
	}
	return v, true
}

func info(obj rawObject, key string) (asset.Info, bool) {
	raw, ok := obj[key]
	if !ok {
		return asset.Info{}, false
	}
	var i asset.Info
	if err := json.Unmarshal(raw, &i); err != nil || i.IsZero() {
		return asset.Info{}, false
	}
	return i, true
}

func array(obj rawObject, key string) ([]rawObject, bool) {
	raw, ok := obj[key]
	if !ok {
		return nil, false
	}
	var items []rawObject
	if err := json.Unmarshal(raw, &items); err != nil || len(items) == 0 {
		return nil, false
	}
	for _, item := range items {
		if item == nil {
			return nil, false
		}
	}
	return items, true
}

func parseDefaultSwap(obj rawObject) (Message, bool) {
	swap, ok := object(obj, "swap")
	if !ok {
		return nil, false
	}
	raw, ok := swap["offer_asset"]
	if !ok {
		return nil, false
	}
	var offer asset.Asset
	if err := json.Unmarshal(raw, &offer); err != nil || offer.Info.IsZero() {
		return nil, false
	}
	return DefaultSwapMsg{OfferAsset: offer}, true
}

func parseJunoSwap(obj rawObject) (Message, bool) {
	swap, ok := object(obj, "swap")
	if !ok {
		return nil, false
	}
	token, ok := str(swap, "input_token")
	if !ok || !isJunoToken(token) {
		return nil, false
	}
	amt, ok := amount(swap, "input_amount")
	if !ok {
		return nil, false
	}
	return JunoSwapMsg{InputToken: token, InputAmount: amt}, true
}

func parseSend(obj rawObject) (Message, bool) {
	send, ok := object(obj, "send")
	if !ok {
		return nil, false
	}
	contract, ok := str(send, "contract")
	if !ok || contract == "" {
		return nil, false
	}
	amt, ok := amount(send, "amount")
	if !ok {
		return nil, false
	}
	encoded, ok := str(send, "msg")
	if !ok {
		return nil, false
	}

	msg := SendMsg{Contract: contract, Amount: amt}
	hook, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return msg, true
	}
	var inner rawObject
	if err := json.Unmarshal(hook, &inner); err != nil {
		return msg, true
	}
	if _, ok := object(inner, "swap"); ok {
		msg.SwapHook = true
	} else if ops, ok := parseSwapOperations(inner); ok {
		o := ops.(SwapOperationsMsg)
		msg.Operations = &o
	}
	return msg, true
}

func parseTFMSwapOperations(obj rawObject) (Message, bool) {
	exec, ok := object(obj, "execute_swap_operations")
	if !ok {
		return nil, false
	}
	offerAmount, ok := amount(exec, "offer_amount")
	if !ok {
		return nil, false
	}
	routes, ok := array(exec, "routes")
	if !ok {
		return nil, false
	}

	msg := TFMSwapOperationsMsg{OfferAmount: offerAmount}
	for _, route := range routes {
		ops, ok := array(route, "operations")
		if !ok {
			return nil, false
		}
		var hops []TFMOperation
		for _, op := range ops {
			swap, ok := object(op, "t_f_m_swap")
			if !ok {
				return nil, false
			}
			pair, ok := str(swap, "pair_contract")
			if !ok || pair == "" {
				return nil, false
			}
			offer, ok := info(swap, "offer_asset_info")
			if !ok {
				return nil, false
			}
			ask, ok := info(swap, "ask_asset_info")
			if !ok {
				return nil, false
			}
			hops = append(hops, TFMOperation{PairContract: pair, OfferInfo: offer, AskInfo: ask})
		}
		msg.Routes = append(msg.Routes, hops)
	}
	return msg, true
}

func parseJunoSwapOperations(obj rawObject) (Message, bool) {
	pass, ok := object(obj, "pass_through_swap")
	if !ok {
		return nil, false
	}
	token, ok := str(pass, "input_token")
	if !ok || !isJunoToken(token) {
		return nil, false
	}
	amt, ok := amount(pass, "input_token_amount")
	if !ok {
		return nil, false
	}
	output, ok := str(pass, "output_amm_address")
	if !ok || output == "" {
		return nil, false
	}
	return JunoSwapOperationsMsg{InputToken: token, InputTokenAmount: amt, OutputAMMAddress: output}, true
}

var dialects = []Dialect{DialectTerraswap, DialectAstroport, DialectWyndex}

// parseSwapOperations accepts a route whose operations all use the same dialect key.
func parseSwapOperations(obj rawObject) (Message, bool) {
	exec, ok := object(obj, "execute_swap_operations")
	if !ok {
		return nil, false
	}
	ops, ok := array(exec, "operations")
	if !ok {
		return nil, false
	}

	for _, dialect := range dialects {
		msg := SwapOperationsMsg{Dialect: dialect}
		for _, op := range ops {
			hop, ok := object(op, string(dialect))
			if !ok {
				break
			}
			offer, ok := info(hop, "offer_asset_info")
			if !ok {
				break
			}
			ask, ok := info(hop, "ask_asset_info")
			if !ok {
				break
			}
			msg.Operations = append(msg.Operations, Operation{OfferInfo: offer, AskInfo: ask})
		}
		if len(msg.Operations) == len(ops) {
			return msg, true
		}
	}
	return nil, false
}

func isJunoToken(s string) bool {
	return s == "Token1" || s == "Token2"
}

func junoSide(token string) int {
	if token == "Token2" {
		return 1
	}
	return 0
}
