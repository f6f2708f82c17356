package cosmostx

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/protobuf/encoding/protowire"
)

const (
	TypeURLExecuteContract = "/cosmwasm.wasm.v1.MsgExecuteContract"
	TypeURLSend            = "/cosmos.bank.v1beta1.MsgSend"
	TypeURLSecp256k1PubKey = "/cosmos.crypto.secp256k1.PubKey"
	TypeURLBaseAccount     = "/cosmos.auth.v1beta1.BaseAccount"
)

var (
	// ErrDecode is returned for byte strings that are not a well-formed protobuf message of the expected type.
	ErrDecode = errors.New("malformed protobuf message")
	// ErrUnsupportedAccount is returned for account types other than BaseAccount.
	ErrUnsupportedAccount = errors.New("unsupported account type")
)

// Coin is an sdk.Coin; Amount is a decimal integer string.
type Coin struct {
	Denom  string `json:"denom"`
	Amount string `json:"amount"`
}

// Any is a packed protobuf message.
type Any struct {
	TypeURL string
	Value   []byte
}

// ExecuteContract is a decoded MsgExecuteContract.
type ExecuteContract struct {
	Sender   string
	Contract string
	Msg      []byte
	Funds    []Coin
}

// TxHash returns the CometBFT hash of a raw transaction: upper-case hex of its sha256.
func TxHash(raw []byte) string {
	sum := sha256.Sum256(raw)
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

type fieldFunc func(num protowire.Number, typ protowire.Type, bytesValue []byte, varintValue uint64) error

// walk calls fn for every top-level field of a protobuf message. Fixed-width fields are skipped.
func walk(b []byte, fn fieldFunc) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("%w: %v", ErrDecode, protowire.ParseError(n))
		}
		b = b[n:]

		switch typ {
		case protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return fmt.Errorf("%w: field %d: %v", ErrDecode, num, protowire.ParseError(n))
			}
			if err := fn(num, typ, v, 0); err != nil {
				return err
			}
			b = b[n:]
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return fmt.Errorf("%w: field %d: %v", ErrDecode, num, protowire.ParseError(n))
			}
			if err := fn(num, typ, nil, v); err != nil {
				return err
			}
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return fmt.Errorf("%w: field %d: %v", ErrDecode, num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	return nil
}

// DecodeTx returns the MsgExecuteContract messages of a raw transaction (TxRaw bytes), in order. Messages of other
// types are ignored and individual messages that fail to decode are skipped; only a malformed envelope is an
// error.
func DecodeTx(raw []byte) ([]ExecuteContract, error) {
	var body []byte
	bodyFound := false
	err := walk(raw, func(num protowire.Number, typ protowire.Type, v []byte, _ uint64) error {
		if num == 1 && typ == protowire.BytesType {
			body, bodyFound = v, true
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("tx raw: %w", err)
	}
	if !bodyFound {
		return nil, fmt.Errorf("%w: tx raw has no body", ErrDecode)
	}

	var anys []Any
	err = walk(body, func(num protowire.Number, typ protowire.Type, v []byte, _ uint64) error {
		if num != 1 || typ != protowire.BytesType {
			return nil
		}
		a, err := decodeAny(v)
		if err != nil {
			return err
		}
		anys = append(anys, a)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("tx body: %w", err)
	}

	var msgs []ExecuteContract
	for _, a := range anys {
		if a.TypeURL != TypeURLExecuteContract {
			continue
		}
		msg, err := DecodeExecuteContract(a.Value)
		if err != nil {
			continue
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

func decodeAny(b []byte) (Any, error) {
	var a Any
	err := walk(b, func(num protowire.Number, typ protowire.Type, v []byte, _ uint64) error {
		if typ != protowire.BytesType {
			return nil
		}
		switch num {
		case 1:
			a.TypeURL = string(v)
		case 2:
			a.Value = v
		}
		return nil
	})
	return a, err
}

// DecodeExecuteContract decodes a MsgExecuteContract.
func DecodeExecuteContract(b []byte) (ExecuteContract, error) {
	var msg ExecuteContract
	err := walk(b, func(num protowire.Number, typ protowire.Type, v []byte, _ uint64) error {
		if typ != protowire.BytesType {
			return nil
		}
		switch num {
		case 1:
			msg.Sender = string(v)
		case 2:
			msg.Contract = string(v)
		case 3:
			msg.Msg = v
		case 5:
			coin, err := decodeCoin(v)
			if err != nil {
				return err
			}
			msg.Funds = append(msg.Funds, coin)
		}
		return nil
	})
	if err != nil {
		return ExecuteContract{}, err
	}
	if msg.Contract == "" {
		return ExecuteContract{}, fmt.Errorf("%w: execute contract without contract address", ErrDecode)
	}
	return msg, nil
}

func decodeCoin(b []byte) (Coin, error) {
	var c Coin
	err := walk(b, func(num protowire.Number, typ protowire.Type, v []byte, _ uint64) error {
		if typ != protowire.BytesType {
			return nil
		}
		switch num {
		case 1:
			c.Denom = string(v)
		case 2:
			c.Amount = string(v)
		}
		return nil
	})
	return c, err
}

// DecodeSmartQueryResponse extracts the JSON result of a QuerySmartContractStateResponse.
func DecodeSmartQueryResponse(b []byte) ([]byte, error) {
	var data []byte
	err := walk(b, func(num protowire.Number, typ protowire.Type, v []byte, _ uint64) error {
		if num == 1 && typ == protowire.BytesType {
			data = v
		}
		return nil
	})
	return data, err
}

// BaseAccount holds the fields of an auth BaseAccount needed for signing.
type BaseAccount struct {
	Address       string
	AccountNumber uint64
	Sequence      uint64
}

// DecodeAccountResponse decodes a QueryAccountResponse holding a BaseAccount.
func DecodeAccountResponse(b []byte) (BaseAccount, error) {
	var packed Any
	err := walk(b, func(num protowire.Number, typ protowire.Type, v []byte, _ uint64) error {
		if num != 1 || typ != protowire.BytesType {
			return nil
		}
		var err error
		packed, err = decodeAny(v)
		return err
	})
	if err != nil {
		return BaseAccount{}, err
	}
	if packed.TypeURL != TypeURLBaseAccount {
		return BaseAccount{}, fmt.Errorf("%w: %q", ErrUnsupportedAccount, packed.TypeURL)
	}

	var acc BaseAccount
	err = walk(packed.Value, func(num protowire.Number, typ protowire.Type, v []byte, varint uint64) error {
		switch {
		case num == 1 && typ == protowire.BytesType:
			acc.Address = string(v)
		case num == 3 && typ == protowire.VarintType:
			acc.AccountNumber = varint
		case num == 4 && typ == protowire.VarintType:
			acc.Sequence = varint
		}
		return nil
	})
	return acc, err
}
