package skip

import (
	"context"
	"crypto/sha256"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/defistate/wasm-arb-go/engine"
	"github.com/defistate/wasm-arb-go/signer"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

type bundleCall struct {
	txs       [][]byte
	height    string
	pubKey    []byte
	signature []byte
}

type mockRelay struct {
	sync  []bundleCall
	async []bundleCall
}

func (m *mockRelay) Bundle_sync(txs [][]byte, height string, pubKey, signature []byte) map[string]any {
	m.sync = append(m.sync, bundleCall{txs, height, pubKey, signature})
	return map[string]any{
		"desired_height": "101",
		"code":           "0",
		"result_check_txs": []map[string]any{
			{"code": 0, "log": ""},
			{"code": "5", "log": "insufficient funds"},
		},
	}
}

func (m *mockRelay) Bundle_async(txs [][]byte, height string, pubKey, signature []byte) map[string]any {
	m.async = append(m.async, bundleCall{txs, height, pubKey, signature})
	return map[string]any{"desired_height": 0, "code": 9, "error": "auction closed"}
}

func newTestClient(t *testing.T) (*Client, *mockRelay) {
	t.Helper()
	mock := &mockRelay{}
	server := rpc.NewServer()
	require.NoError(t, server.RegisterName("broadcast", mock))
	httpServer := httptest.NewServer(server)
	t.Cleanup(func() {
		httpServer.Close()
		server.Stop()
	})

	key, err := signer.KeyFromHex(testKey)
	require.NoError(t, err)
	client, err := NewClient(context.Background(), Config{URL: httpServer.URL, Signer: key, Logger: slog.Default()})
	require.NoError(t, err)
	t.Cleanup(client.Close)
	return client, mock
}

func TestSignBundle(t *testing.T) {
	client, _ := newTestClient(t)

	bundle, err := client.SignBundle([][]byte{[]byte("race"), []byte("arb")}, "juno1bot")
	require.NoError(t, err)
	require.Len(t, bundle.Txs, 2)

	digest := sha256.Sum256([]byte("racearb"))
	assert.True(t, crypto.VerifySignature(bundle.PubKey, digest[:], bundle.Signature))

	_, err = client.SignBundle(nil, "juno1bot")
	assert.Error(t, err)
}

func TestSendBundle(t *testing.T) {
	client, mock := newTestClient(t)

	bundle, err := client.SignBundle([][]byte{[]byte("race"), []byte("arb")}, "juno1bot")
	require.NoError(t, err)

	t.Run("sync", func(t *testing.T) {
		res, err := client.SendBundle(context.Background(), bundle, 0, true)
		require.NoError(t, err)

		require.Len(t, mock.sync, 1)
		call := mock.sync[0]
		assert.Equal(t, "0", call.height)
		assert.Equal(t, bundle.Txs, call.txs)
		assert.Equal(t, bundle.PubKey, call.pubKey)
		assert.Equal(t, bundle.Signature, call.signature)

		assert.Equal(t, int64(101), res.DesiredHeight)
		assert.Equal(t, uint32(0), res.Code)
		assert.Equal(t, []engine.TxResult{{Code: 0}, {Code: 5, Log: "insufficient funds"}}, res.CheckTxs)
		assert.Nil(t, res.DeliverTxs)
	})

	t.Run("async", func(t *testing.T) {
		res, err := client.SendBundle(context.Background(), bundle, 250, false)
		require.NoError(t, err)

		require.Len(t, mock.async, 1)
		assert.Equal(t, "250", mock.async[0].height)
		assert.Equal(t, uint32(9), res.Code)
		assert.Equal(t, "auction closed", res.Error)
	})
}

func TestConfigValidate(t *testing.T) {
	key, err := signer.KeyFromHex(testKey)
	require.NoError(t, err)

	tests := []struct {
		name string
		cfg  Config
	}{
		{"missing url", Config{Signer: key, Logger: slog.Default()}},
		{"missing signer", Config{URL: "http://relay", Logger: slog.Default()}},
		{"missing logger", Config{URL: "http://relay", Signer: key}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.cfg.validate())
		})
	}
}
