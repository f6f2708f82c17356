package client

import (
	"context"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/defistate/wasm-arb-go/engine"
	"github.com/defistate/wasm-arb-go/mempool"
	"github.com/defistate/wasm-arb-go/protocols/cosmostx"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

// --- Test Setup: Mock CometBFT node ---

type mockUnconfirmed struct {
	mempool mempool.Mempool
	limits  []string
}

func (m *mockUnconfirmed) Txs(limit *string) (mempool.Mempool, error) {
	if limit != nil {
		m.limits = append(m.limits, *limit)
	}
	return m.mempool, nil
}

type mockBroadcast struct {
	received [][]byte
}

func (m *mockBroadcast) Tx_sync(tx []byte) (engine.BroadcastResult, error) {
	m.received = append(m.received, tx)
	return engine.BroadcastResult{Code: 0, Hash: cosmostx.TxHash(tx)}, nil
}

type queryResponse struct {
	Code  uint32 `json:"code"`
	Log   string `json:"log"`
	Value []byte `json:"value"`
}

type mockABCI struct {
	t        *testing.T
	contract string
	answer   []byte
}

func (m *mockABCI) Query(path, data, height string, prove bool) (map[string]queryResponse, error) {
	assert.Equal(m.t, "0", height)
	assert.False(m.t, prove)
	req, err := hex.DecodeString(data)
	if err != nil {
		return nil, err
	}

	switch path {
	case PathAccount:
		if string(req) != string(cosmostx.EncodeAccountRequest("juno1bot")) {
			return map[string]queryResponse{"response": {Code: 22, Log: "account not found"}}, nil
		}
		acc := cosmostx.BaseAccount{Address: "juno1bot", AccountNumber: 12, Sequence: 345}
		return map[string]queryResponse{"response": {Value: cosmostx.EncodeAccountResponse(acc)}}, nil
	case PathSmartContractState:
		want := cosmostx.EncodeSmartQueryRequest(m.contract, []byte(`{"pool":{}}`))
		if string(req) != string(want) {
			return nil, errors.New("unexpected smart query")
		}
		value := protowire.AppendTag(nil, 1, protowire.BytesType)
		value = protowire.AppendBytes(value, m.answer)
		return map[string]queryResponse{"response": {Value: value}}, nil
	}
	return nil, errors.New("unknown path")
}

type mockNode struct {
	unconfirmed *mockUnconfirmed
	broadcast   *mockBroadcast
	abci        *mockABCI
}

func newTestClient(t *testing.T, limit int) (*Client, *mockNode) {
	t.Helper()
	node := &mockNode{
		unconfirmed: &mockUnconfirmed{},
		broadcast:   &mockBroadcast{},
		abci:        &mockABCI{t: t, contract: "juno1pool", answer: []byte(`{"total_share":"10"}`)},
	}

	server := rpc.NewServer()
	require.NoError(t, server.RegisterName("unconfirmed", node.unconfirmed))
	require.NoError(t, server.RegisterName("broadcast", node.broadcast))
	require.NoError(t, server.RegisterName("abci", node.abci))
	httpServer := httptest.NewServer(server)
	t.Cleanup(func() {
		httpServer.Close()
		server.Stop()
	})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c, err := NewClient(context.Background(), Config{URL: httpServer.URL, Logger: logger, MempoolLimit: limit})
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c, node
}

func TestUnconfirmedTxs(t *testing.T) {
	t.Run("node default limit", func(t *testing.T) {
		c, node := newTestClient(t, 0)
		node.unconfirmed.mempool = mempool.Mempool{NTxs: 2, Total: 5, TotalBytes: 900, Txs: []string{"YQ==", "Yg=="}}

		m, err := c.UnconfirmedTxs(context.Background())
		require.NoError(t, err)
		assert.Equal(t, node.unconfirmed.mempool, m)
		assert.Empty(t, node.unconfirmed.limits)
	})

	t.Run("explicit limit", func(t *testing.T) {
		c, node := newTestClient(t, 100)
		_, err := c.UnconfirmedTxs(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"100"}, node.unconfirmed.limits)
	})
}

func TestBroadcastTxSync(t *testing.T) {
	c, node := newTestClient(t, 0)
	tx := []byte{0x0a, 0x01, 0x02}

	res, err := c.BroadcastTxSync(context.Background(), tx)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), res.Code)
	assert.Equal(t, cosmostx.TxHash(tx), res.Hash)
	assert.Equal(t, [][]byte{tx}, node.broadcast.received)
}

func TestAccount(t *testing.T) {
	c, _ := newTestClient(t, 0)

	acc, err := c.Account(context.Background(), "juno1bot")
	require.NoError(t, err)
	assert.Equal(t, cosmostx.BaseAccount{Address: "juno1bot", AccountNumber: 12, Sequence: 345}, acc)

	_, err = c.Account(context.Background(), "juno1ghost")
	assert.ErrorIs(t, err, ErrQuery)
}

func TestSmartQuery(t *testing.T) {
	c, _ := newTestClient(t, 0)

	data, err := c.SmartQuery(context.Background(), "juno1pool", map[string]struct{}{"pool": {}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"total_share":"10"}`, string(data))
}

func TestConfigValidate(t *testing.T) {
	_, err := NewClient(context.Background(), Config{})
	assert.EqualError(t, err, "config: URL is required")
}
