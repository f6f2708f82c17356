// Package signer signs Cosmos SDK transactions in direct mode with a secp256k1 key.
package signer

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"errors"
	"fmt"
	"strings"

	"github.com/defistate/wasm-arb-go/engine"
	"github.com/defistate/wasm-arb-go/protocols/cosmostx"
	"github.com/ethereum/go-ethereum/crypto"
)

var ErrInvalidKey = errors.New("invalid private key")

// Key is a secp256k1 private key.
type Key struct {
	priv   *ecdsa.PrivateKey
	pubKey []byte
}

// KeyFromHex parses a 32-byte hex private key, with or without 0x prefix.
func KeyFromHex(s string) (*Key, error) {
	priv, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(s), "0x"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return &Key{priv: priv, pubKey: crypto.CompressPubkey(&priv.PublicKey)}, nil
}

// PubKey returns the 33-byte compressed public key.
func (k *Key) PubKey() []byte {
	return k.pubKey
}

// SignBytes signs sha256(msg) and returns the 64-byte R||S signature.
func (k *Key) SignBytes(msg []byte) ([]byte, error) {
	digest := sha256.Sum256(msg)
	sig, err := crypto.Sign(digest[:], k.priv)
	if err != nil {
		return nil, err
	}
	return sig[:64], nil
}

// Direct builds and signs transactions with SIGN_MODE_DIRECT.
type Direct struct {
	key *Key
}

func NewDirect(key *Key) *Direct {
	return &Direct{key: key}
}

// Sign returns the TxRaw bytes of msgs signed for data.
func (d *Direct) Sign(msgs []cosmostx.Any, fee cosmostx.Fee, memo string, data engine.SignerData) ([]byte, error) {
	body := cosmostx.EncodeTxBody(msgs, memo)
	authInfo := cosmostx.EncodeAuthInfo(d.key.PubKey(), data.Sequence, fee)
	doc := cosmostx.EncodeSignDoc(body, authInfo, data.ChainID, data.AccountNumber)

	sig, err := d.key.SignBytes(doc)
	if err != nil {
		return nil, fmt.Errorf("sign doc: %w", err)
	}
	return cosmostx.EncodeTxRaw(body, authInfo, sig), nil
}
