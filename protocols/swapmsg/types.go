package swapmsg

import (
	"github.com/defistate/wasm-arb-go/protocols/asset"
	"github.com/holiman/uint256"
)

// Kind identifies the wire shape of a contract-call payload.
type Kind int

const (
	Unrecognized Kind = iota
	DefaultSwap
	JunoSwap
	SendWrapped
	TFMSwapOperations
	JunoSwapOperations
	SwapOperations
)

func (k Kind) String() string {
	switch k {
	case DefaultSwap:
		return "default_swap"
	case JunoSwap:
		return "junoswap"
	case SendWrapped:
		return "send"
	case TFMSwapOperations:
		return "tfm_swap_operations"
	case JunoSwapOperations:
		return "junoswap_operations"
	case SwapOperations:
		return "swap_operations"
	default:
		return "unrecognized"
	}
}

// Dialect is the per-operation key of an execute_swap_operations router message.
type Dialect string

const (
	DialectTerraswap Dialect = "terra_swap"
	DialectAstroport Dialect = "astro_swap"
	DialectWyndex    Dialect = "wyndex_swap"
)

// Message is a classified payload.
type Message interface {
	Kind() Kind
}

// DefaultSwapMsg is {"swap":{"offer_asset":{...}}} sent directly to a pair contract.
type DefaultSwapMsg struct {
	OfferAsset asset.Asset
}

// JunoSwapMsg is {"swap":{"input_token":"Token1","input_amount":"..."}}.
type JunoSwapMsg struct {
	InputToken  string
	InputAmount uint256.Int
}

// SendMsg is a CW20 send whose hook payload carries a swap instruction.
type SendMsg struct {
	Contract string
	Amount   uint256.Int
	// SwapHook is set when the hook is {"swap":{...}} addressed to a pair contract.
	SwapHook bool
	// Operations is set when the hook is a router execute_swap_operations.
	Operations *SwapOperationsMsg
}

// TFMOperation is one hop of a TFM route.
type TFMOperation struct {
	PairContract string
	OfferInfo    asset.Info
	AskInfo      asset.Info
}

// TFMSwapOperationsMsg is a TFM aggregator route message.
type TFMSwapOperationsMsg struct {
	OfferAmount uint256.Int
	Routes      [][]TFMOperation
}

// JunoSwapOperationsMsg is a junoswap pass_through_swap.
type JunoSwapOperationsMsg struct {
	InputToken       string
	InputTokenAmount uint256.Int
	OutputAMMAddress string
}

// Operation is one hop of a router's execute_swap_operations.
type Operation struct {
	OfferInfo asset.Info
	AskInfo   asset.Info
}

// SwapOperationsMsg is a router execute_swap_operations message in one of the supported dialects.
type SwapOperationsMsg struct {
	Dialect    Dialect
	Operations []Operation
}

func (DefaultSwapMsg) Kind() Kind        { return DefaultSwap }
func (JunoSwapMsg) Kind() Kind           { return JunoSwap }
func (SendMsg) Kind() Kind               { return SendWrapped }
func (TFMSwapOperationsMsg) Kind() Kind  { return TFMSwapOperations }
func (JunoSwapOperationsMsg) Kind() Kind { return JunoSwapOperations }
func (SwapOperationsMsg) Kind() Kind     { return SwapOperations }

// Leg locates the pool of one hop. Either Pool is set, or Router with the Offer/Ask pair of the hop.
type Leg struct {
	Pool   string
	Router string
	Offer  asset.Info
	Ask    asset.Info
}

// Plan is the normalized trade step of a recognized message.
type Plan struct {
	Amount uint256.Int
	// Offer is the asset offered to the first leg. It is zero when OfferSide selects it from the first pool.
	Offer asset.Info
	// OfferSide is the index of the first pool's asset being offered, or -1.
	OfferSide int
	Legs      []Leg
}
