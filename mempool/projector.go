package mempool

import (
	"encoding/base64"

	"github.com/defistate/wasm-arb-go/bitset"
	"github.com/defistate/wasm-arb-go/protocols/amm"
	"github.com/defistate/wasm-arb-go/protocols/amm/calculator"
	"github.com/defistate/wasm-arb-go/protocols/amm/indexer"
	"github.com/defistate/wasm-arb-go/protocols/asset"
	"github.com/defistate/wasm-arb-go/protocols/cosmostx"
	"github.com/defistate/wasm-arb-go/protocols/swapmsg"
)

// Projector replays pending swap messages onto the tracked pools, at most once per transaction.
type Projector struct {
	pools   indexer.IndexedPools
	ledger  *Ledger
	touched bitset.BitSet
	logger  Logger
}

func NewProjector(pools indexer.IndexedPools, ledger *Ledger, logger Logger) *Projector {
	return &Projector{
		pools:   pools,
		ledger:  ledger,
		touched: bitset.NewBitSet(uint64(pools.Len())),
		logger:  logger,
	}
}

// Pending returns the transactions of m that are not yet in the ledger, in node order. Every returned or
// undecodable transaction is recorded in the ledger before it is decoded. Entries that are not base64 are
// recorded under their raw text.
func (p *Projector) Pending(m Mempool) []Entry {
	var entries []Entry
	for _, blob := range m.Txs {
		raw, err := base64.StdEncoding.DecodeString(blob)
		if err != nil {
			if p.ledger.Mark(blob) {
				p.logger.Debug("skipping non-base64 mempool entry", "error", err)
			}
			continue
		}
		id := cosmostx.TxHash(raw)
		if !p.ledger.Mark(id) {
			continue
		}
		msgs, err := cosmostx.DecodeTx(raw)
		if err != nil {
			p.logger.Debug("skipping undecodable transaction", "tx", id, "error", err)
			continue
		}
		entries = append(entries, Entry{ID: id, Raw: raw, Messages: msgs})
	}
	return entries
}

// Apply projects every swap message of e onto the tracked pools and returns the number of pool updates.
func (p *Projector) Apply(e Entry) int {
	applied := 0
	for _, msg := range e.Messages {
		classified := swapmsg.Classify(msg.Msg)
		if classified == nil {
			continue
		}
		plan, ok := swapmsg.Resolve(msg.Contract, classified, fundsOf(msg.Funds))
		if !ok {
			continue
		}
		n := p.replay(plan)
		if n > 0 {
			p.logger.Debug("projected mempool trade", "tx", e.ID, "kind", classified.Kind().String(), "updates", n)
		}
		applied += n
	}
	return applied
}

// Project applies every unseen transaction of m and returns the total number of pool updates.
func (p *Projector) Project(m Mempool) int {
	applied := 0
	for _, e := range p.Pending(m) {
		applied += p.Apply(e)
	}
	return applied
}

// Touched returns the pools updated since the last ResetTouched, by index.
func (p *Projector) Touched() bitset.BitSet {
	return p.touched
}

func (p *Projector) ResetTouched() {
	p.touched.Clear()
}

// replay walks the legs in order, feeding each leg's quoted output to the next. A leg whose pool is not tracked
// is skipped and the offer carries over unchanged.
func (p *Projector) replay(plan swapmsg.Plan) int {
	offer := asset.Asset{Info: plan.Offer, Amount: plan.Amount}
	applied := 0
	for i, leg := range plan.Legs {
		pool, idx, ok := p.locate(leg)
		if !ok {
			continue
		}
		if i == 0 && plan.OfferSide >= 0 {
			offer.Info = pool.Assets[plan.OfferSide].Info
		}

		out, outInfo, ok := calculator.QuoteOutput(pool, offer)
		if !ok {
			continue
		}
		if !calculator.ApplyTrade(pool, offer) {
			continue
		}
		p.touched.Set(uint64(idx))
		applied++
		offer = asset.Asset{Info: outInfo, Amount: out}
	}
	return applied
}

func (p *Projector) locate(leg swapmsg.Leg) (*amm.Pool, int, bool) {
	if leg.Pool != "" {
		return p.pools.GetByAddress(leg.Pool)
	}
	return p.pools.FindByInfos(leg.Router, leg.Offer, leg.Ask)
}

func fundsOf(coins []cosmostx.Coin) []asset.Asset {
	funds := make([]asset.Asset, 0, len(coins))
	for _, c := range coins {
		amount, err := asset.ParseAmount(c.Amount)
		if err != nil {
			continue
		}
		funds = append(funds, asset.Asset{Info: asset.Native(c.Denom), Amount: amount})
	}
	return funds
}
