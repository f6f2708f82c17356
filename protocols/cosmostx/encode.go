package cosmostx

import (
	"google.golang.org/protobuf/encoding/protowire"
)

// SignModeDirect is SIGN_MODE_DIRECT.
const SignModeDirect = 1

// MsgSend is a bank MsgSend.
type MsgSend struct {
	FromAddress string
	ToAddress   string
	Amount      []Coin
}

// Fee is the fee section of AuthInfo.
type Fee struct {
	Amount   []Coin
	GasLimit uint64
}

// zero values are omitted, matching the canonical proto3 encoding the chain re-derives for signature checks.
func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendBytes(b []byte, num protowire.Number, v []byte) []byte {
	if len(v) == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendMessage(b []byte, num protowire.Number, v []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func (c Coin) marshal() []byte {
	var b []byte
	b = appendString(b, 1, c.Denom)
	b = appendString(b, 2, c.Amount)
	return b
}

func (a Any) marshal() []byte {
	var b []byte
	b = appendString(b, 1, a.TypeURL)
	b = appendBytes(b, 2, a.Value)
	return b
}

// Any packs the message.
func (m MsgSend) Any() Any {
	var b []byte
	b = appendString(b, 1, m.FromAddress)
	b = appendString(b, 2, m.ToAddress)
	for _, c := range m.Amount {
		b = appendMessage(b, 3, c.marshal())
	}
	return Any{TypeURL: TypeURLSend, Value: b}
}

// Any packs the message.
func (m ExecuteContract) Any() Any {
	var b []byte
	b = appendString(b, 1, m.Sender)
	b = appendString(b, 2, m.Contract)
	b = appendBytes(b, 3, m.Msg)
	for _, c := range m.Funds {
		b = appendMessage(b, 5, c.marshal())
	}
	return Any{TypeURL: TypeURLExecuteContract, Value: b}
}

// EncodeTxBody encodes a TxBody carrying msgs.
func EncodeTxBody(msgs []Any, memo string) []byte {
	var b []byte
	for _, m := range msgs {
		b = appendMessage(b, 1, m.marshal())
	}
	return appendString(b, 2, memo)
}

// EncodeAuthInfo encodes an AuthInfo with a single secp256k1 signer in direct mode.
func EncodeAuthInfo(compressedPubKey []byte, sequence uint64, fee Fee) []byte {
	pubKey := Any{TypeURL: TypeURLSecp256k1PubKey, Value: appendBytes(nil, 1, compressedPubKey)}

	single := appendVarint(nil, 1, SignModeDirect)
	modeInfo := appendMessage(nil, 1, single)

	var signerInfo []byte
	signerInfo = appendMessage(signerInfo, 1, pubKey.marshal())
	signerInfo = appendMessage(signerInfo, 2, modeInfo)
	signerInfo = appendVarint(signerInfo, 3, sequence)

	var feeBytes []byte
	for _, c := range fee.Amount {
		feeBytes = appendMessage(feeBytes, 1, c.marshal())
	}
	feeBytes = appendVarint(feeBytes, 2, fee.GasLimit)

	var b []byte
	b = appendMessage(b, 1, signerInfo)
	b = appendMessage(b, 2, feeBytes)
	return b
}

// EncodeSignDoc encodes the SignDoc whose sha256 is signed in direct mode.
func EncodeSignDoc(body, authInfo []byte, chainID string, accountNumber uint64) []byte {
	var b []byte
	b = appendBytes(b, 1, body)
	b = appendBytes(b, 2, authInfo)
	b = appendString(b, 3, chainID)
	b = appendVarint(b, 4, accountNumber)
	return b
}

// EncodeTxRaw encodes the broadcastable transaction.
func EncodeTxRaw(body, authInfo []byte, signatures ...[]byte) []byte {
	var b []byte
	b = appendBytes(b, 1, body)
	b = appendBytes(b, 2, authInfo)
	for _, sig := range signatures {
		b = appendMessage(b, 3, sig)
	}
	return b
}

// EncodeSmartQueryRequest encodes a QuerySmartContractStateRequest.
func EncodeSmartQueryRequest(contract string, query []byte) []byte {
	var b []byte
	b = appendString(b, 1, contract)
	b = appendBytes(b, 2, query)
	return b
}

// EncodeAccountRequest encodes a QueryAccountRequest.
func EncodeAccountRequest(address string) []byte {
	return appendString(nil, 1, address)
}

// EncodeAccountResponse encodes a QueryAccountResponse holding acc. Used by test doubles of the query endpoint.
func EncodeAccountResponse(acc BaseAccount) []byte {
	var inner []byte
	inner = appendString(inner, 1, acc.Address)
	inner = appendVarint(inner, 3, acc.AccountNumber)
	inner = appendVarint(inner, 4, acc.Sequence)
	packed := Any{TypeURL: TypeURLBaseAccount, Value: inner}
	return appendMessage(nil, 1, packed.marshal())
}
