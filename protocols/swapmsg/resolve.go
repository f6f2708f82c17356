package swapmsg

import (
	"github.com/defistate/wasm-arb-go/protocols/asset"
)

// Resolve normalizes a classified message sent to contract with the attached funds into the trade step it performs.
// It reports false when the message does not determine a trade, such as a router call without funds or a send whose
// hook is not a swap.
func Resolve(contract string, msg Message, funds []asset.Asset) (Plan, bool) {
	switch m := msg.(type) {
	case DefaultSwapMsg:
		return Plan{
			Amount:    m.OfferAsset.Amount,
			Offer:     m.OfferAsset.Info,
			OfferSide: -1,
			Legs:      []Leg{{Pool: contract}},
		}, true

	case JunoSwapMsg:
		return Plan{
			Amount:    m.InputAmount,
			OfferSide: junoSide(m.InputToken),
			Legs:      []Leg{{Pool: contract}},
		}, true

	case SendMsg:
		// the offered token is the CW20 contract receiving the send
		offer := asset.CW20(contract)
		switch {
		case m.SwapHook:
			return Plan{Amount: m.Amount, Offer: offer, OfferSide: -1, Legs: []Leg{{Pool: m.Contract}}}, true
		case m.Operations != nil:
			return Plan{
				Amount:    m.Amount,
				Offer:     m.Operations.Operations[0].OfferInfo,
				OfferSide: -1,
				Legs:      routerLegs(m.Contract, m.Operations.Operations),
			}, true
		}
		return Plan{}, false

	case TFMSwapOperationsMsg:
		route := m.Routes[0]
		legs := make([]Leg, 0, len(route))
		for _, op := range route {
			legs = append(legs, Leg{Pool: op.PairContract, Offer: op.OfferInfo, Ask: op.AskInfo})
		}
		return Plan{Amount: m.OfferAmount, Offer: route[0].OfferInfo, OfferSide: -1, Legs: legs}, true

	case JunoSwapOperationsMsg:
		return Plan{
			Amount:    m.InputTokenAmount,
			OfferSide: junoSide(m.InputToken),
			Legs:      []Leg{{Pool: contract}, {Pool: m.OutputAMMAddress}},
		}, true

	case SwapOperationsMsg:
		if len(funds) == 0 {
			return Plan{}, false
		}
		return Plan{
			Amount:    funds[0].Amount,
			Offer:     m.Operations[0].OfferInfo,
			OfferSide: -1,
			Legs:      routerLegs(contract, m.Operations),
		}, true
	}
	return Plan{}, false
}

func routerLegs(router string, ops []Operation) []Leg {
	legs := make([]Leg, 0, len(ops))
	for _, op := range ops {
		legs = append(legs, Leg{Router: router, Offer: op.OfferInfo, Ask: op.AskInfo})
	}
	return legs
}
