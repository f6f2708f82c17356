package signer

import (
	"crypto/sha256"
	"testing"

	"github.com/defistate/wasm-arb-go/engine"
	"github.com/defistate/wasm-arb-go/protocols/cosmostx"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

const testKey = "0x4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

func TestKeyFromHex(t *testing.T) {
	key, err := KeyFromHex(testKey)
	require.NoError(t, err)
	assert.Len(t, key.PubKey(), 33)

	_, err = KeyFromHex("not-hex")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestSignBytes(t *testing.T) {
	key, err := KeyFromHex(testKey)
	require.NoError(t, err)

	msg := []byte("bundle")
	sig, err := key.SignBytes(msg)
	require.NoError(t, err)
	require.Len(t, sig, 64)

	digest := sha256.Sum256(msg)
	assert.True(t, crypto.VerifySignature(key.PubKey(), digest[:], sig))
}

func TestDirectSign(t *testing.T) {
	key, err := KeyFromHex(testKey)
	require.NoError(t, err)
	signer := NewDirect(key)

	exec := cosmostx.ExecuteContract{Sender: "juno1bot", Contract: "juno1flash", Msg: []byte(`{"flash_loan":{}}`)}
	fee := cosmostx.Fee{Amount: []cosmostx.Coin{{Denom: "ujuno", Amount: "5000"}}, GasLimit: 1000000}
	data := engine.SignerData{ChainID: "juno-1", AccountNumber: 7, Sequence: 3}

	txRaw, err := signer.Sign([]cosmostx.Any{exec.Any()}, fee, "memo", data)
	require.NoError(t, err)

	msgs, err := cosmostx.DecodeTx(txRaw)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "juno1flash", msgs[0].Contract)

	// the signature covers the sign doc rebuilt from the tx parts
	body := cosmostx.EncodeTxBody([]cosmostx.Any{exec.Any()}, "memo")
	authInfo := cosmostx.EncodeAuthInfo(key.PubKey(), 3, fee)
	digest := sha256.Sum256(cosmostx.EncodeSignDoc(body, authInfo, "juno-1", 7))
	assert.True(t, crypto.VerifySignature(key.PubKey(), digest[:], lastSignature(t, txRaw)))
}

func lastSignature(t *testing.T, txRaw []byte) []byte {
	t.Helper()
	var sig []byte
	for len(txRaw) > 0 {
		num, typ, n := protowire.ConsumeTag(txRaw)
		require.GreaterOrEqual(t, n, 0)
		txRaw = txRaw[n:]
		require.Equal(t, protowire.BytesType, typ)
		v, n := protowire.ConsumeBytes(txRaw)
		require.GreaterOrEqual(t, n, 0)
		txRaw = txRaw[n:]
		if num == 3 {
			sig = v
		}
	}
	return sig
}
