package mempool

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/defistate/wasm-arb-go/protocols/amm"
	"github.com/defistate/wasm-arb-go/protocols/amm/indexer"
	"github.com/defistate/wasm-arb-go/protocols/asset"
	"github.com/defistate/wasm-arb-go/protocols/cosmostx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	juno = asset.Native("ujuno")
	usdc = asset.Native("ibc/usdc")
	raw  = asset.CW20("juno1raw")
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

func newPool(address, router string, a, b asset.Info, r0, r1 uint64) *amm.Pool {
	return &amm.Pool{
		Assets:        [2]asset.Asset{asset.New(a, r0), asset.New(b, r1)},
		Address:       address,
		Dex:           amm.DexDefault,
		InputFee:      decimal.RequireFromString("0.3"),
		OutputFee:     decimal.Zero,
		LPRatio:       decimal.RequireFromString("0.5"),
		RouterAddress: router,
	}
}

func encodeTx(msgs ...cosmostx.ExecuteContract) string {
	anys := make([]cosmostx.Any, 0, len(msgs))
	for _, m := range msgs {
		anys = append(anys, m.Any())
	}
	body := cosmostx.EncodeTxBody(anys, "")
	authInfo := cosmostx.EncodeAuthInfo([]byte{2, 7}, 1, cosmostx.Fee{GasLimit: 200000})
	return base64.StdEncoding.EncodeToString(cosmostx.EncodeTxRaw(body, authInfo, []byte("sig")))
}

func reserves(p *amm.Pool) [2]uint64 {
	return [2]uint64{p.Assets[0].Amount.Uint64(), p.Assets[1].Amount.Uint64()}
}

func setup(pools ...*amm.Pool) (*Projector, *Ledger) {
	ledger := NewLedger()
	return NewProjector(indexer.New().Index(pools), ledger, nopLogger{}), ledger
}

func TestProjectIsIdempotentPerTransaction(t *testing.T) {
	pool := newPool("juno1pool", "", juno, usdc, 1000, 2000)
	projector, ledger := setup(pool)

	tx := encodeTx(cosmostx.ExecuteContract{
		Sender:   "juno1trader",
		Contract: "juno1pool",
		Msg:      []byte(`{"swap":{"offer_asset":{"info":{"native_token":{"denom":"ujuno"}},"amount":"100"}}}`),
		Funds:    []cosmostx.Coin{{Denom: "ujuno", Amount: "100"}},
	})
	m := Mempool{NTxs: 1, Total: 1, TotalBytes: len(tx), Txs: []string{tx}}

	assert.Equal(t, 1, projector.Project(m))
	assert.Equal(t, [2]uint64{1099, 1820}, reserves(pool))
	assert.True(t, projector.Touched().IsSet(0))

	assert.Equal(t, 0, projector.Project(m), "a transaction is projected once")
	assert.Equal(t, [2]uint64{1099, 1820}, reserves(pool))
	assert.Equal(t, 1, ledger.Len())

	ledger.Flush()
	assert.Equal(t, 0, ledger.Len())
}

func TestPendingMarksBeforeDecode(t *testing.T) {
	projector, ledger := setup(newPool("juno1pool", "", juno, usdc, 1000, 2000))
	garbage := base64.StdEncoding.EncodeToString([]byte{0xff, 0xff})

	entries := projector.Pending(Mempool{Txs: []string{garbage, "%%%"}})
	assert.Empty(t, entries)
	assert.Equal(t, 2, ledger.Len())
	assert.True(t, ledger.Seen(cosmostx.TxHash([]byte{0xff, 0xff})))
	assert.True(t, ledger.Seen("%%%"))

	// already recorded entries are not decoded again
	assert.Empty(t, projector.Pending(Mempool{Txs: []string{garbage, "%%%"}}))
	assert.Equal(t, 2, ledger.Len())
}

func TestProjectRouterOperations(t *testing.T) {
	first := newPool("juno1a", "juno1router", juno, usdc, 1000, 2000)
	second := newPool("juno1b", "juno1router", usdc, raw, 5000, 5000)
	untouched := newPool("juno1c", "juno1other", juno, raw, 100, 100)
	projector, _ := setup(first, second, untouched)

	tx := encodeTx(cosmostx.ExecuteContract{
		Contract: "juno1router",
		Msg: []byte(`{"execute_swap_operations":{"operations":[` +
			`{"terra_swap":{"offer_asset_info":{"native_token":{"denom":"ujuno"}},"ask_asset_info":{"native_token":{"denom":"ibc/usdc"}}}},` +
			`{"terra_swap":{"offer_asset_info":{"native_token":{"denom":"ibc/usdc"}},"ask_asset_info":{"token":{"contract_addr":"juno1raw"}}}}]}}`),
		Funds: []cosmostx.Coin{{Denom: "ujuno", Amount: "100"}},
	})

	assert.Equal(t, 2, projector.Project(Mempool{Txs: []string{tx}}))
	assert.Equal(t, [2]uint64{1099, 1820}, reserves(first))
	assert.Equal(t, [2]uint64{5179, 4828}, reserves(second))
	assert.Equal(t, [2]uint64{100, 100}, reserves(untouched))
	assert.Equal(t, 2, projector.Touched().Count())

	projector.ResetTouched()
	assert.False(t, projector.Touched().Any())
}

func TestApply(t *testing.T) {
	t.Run("junoswap offers the selected side", func(t *testing.T) {
		pool := newPool("juno1pool", "", juno, usdc, 1000, 2000)
		projector, _ := setup(pool)
		n := projector.Apply(Entry{ID: "x", Messages: []cosmostx.ExecuteContract{{
			Contract: "juno1pool",
			Msg:      []byte(`{"swap":{"input_token":"Token2","input_amount":"50"}}`),
		}}})
		assert.Equal(t, 1, n)
		assert.Equal(t, [2]uint64{977, 2049}, reserves(pool))
	})

	t.Run("untracked contracts and unrecognized payloads are ignored", func(t *testing.T) {
		pool := newPool("juno1pool", "", juno, usdc, 1000, 2000)
		projector, _ := setup(pool)
		n := projector.Apply(Entry{ID: "y", Messages: []cosmostx.ExecuteContract{
			{Contract: "juno1elsewhere", Msg: []byte(`{"swap":{"offer_asset":{"info":{"native_token":{"denom":"ujuno"}},"amount":"100"}}}`)},
			{Contract: "juno1pool", Msg: []byte(`{"transfer":{}}`)},
			{Contract: "juno1pool", Msg: []byte(`not json`)},
		}})
		assert.Equal(t, 0, n)
		assert.Equal(t, [2]uint64{1000, 2000}, reserves(pool))
	})

	t.Run("send wrapped swap offers the cw20", func(t *testing.T) {
		pool := newPool("juno1pool", "", raw, usdc, 1000, 2000)
		projector, _ := setup(pool)
		hook := base64.StdEncoding.EncodeToString([]byte(`{"swap":{}}`))
		n := projector.Apply(Entry{ID: "z", Messages: []cosmostx.ExecuteContract{{
			Contract: "juno1raw",
			Msg:      []byte(`{"send":{"contract":"juno1pool","amount":"100","msg":"` + hook + `"}}`),
		}}})
		assert.Equal(t, 1, n)
		assert.Equal(t, [2]uint64{1099, 1820}, reserves(pool))
	})

	t.Run("a missing leg keeps the offer", func(t *testing.T) {
		pool := newPool("juno1b", "", juno, usdc, 1000, 2000)
		projector, _ := setup(pool)
		n := projector.Apply(Entry{ID: "w", Messages: []cosmostx.ExecuteContract{{
			Contract: "juno1missing",
			Msg:      []byte(`{"pass_through_swap":{"input_token":"Token1","input_token_amount":"100","output_amm_address":"juno1b"}}`),
		}}})
		// the first pool is untracked, so the offer info is never resolved and the second leg cannot match
		assert.Equal(t, 0, n)
		assert.Equal(t, [2]uint64{1000, 2000}, reserves(pool))
	})
}

func TestMempoolJSON(t *testing.T) {
	var m Mempool
	require.NoError(t, json.Unmarshal([]byte(`{"n_txs":"2","total":"2","total_bytes":"512","txs":["YQ==","Yg=="]}`), &m))
	assert.Equal(t, Mempool{NTxs: 2, Total: 2, TotalBytes: 512, Txs: []string{"YQ==", "Yg=="}}, m)
}
