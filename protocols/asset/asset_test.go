package asset

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInfoUnmarshalDialects(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected Info
		wantErr  bool
	}{
		{name: "canonical native", input: `{"native_token":{"denom":"ujuno"}}`, expected: Native("ujuno")},
		{name: "canonical token", input: `{"token":{"contract_addr":"juno1raw"}}`, expected: CW20("juno1raw")},
		{name: "wyndex native", input: `{"native":"ujuno"}`, expected: Native("ujuno")},
		{name: "wyndex token", input: `{"token":"juno1raw"}`, expected: CW20("juno1raw")},
		{name: "junoswap cw20", input: `{"cw20":"juno1raw"}`, expected: CW20("juno1raw")},
		{name: "unknown key", input: `{"nft":"x"}`, wantErr: true},
		{name: "two keys", input: `{"native":"a","cw20":"b"}`, wantErr: true},
		{name: "empty denom", input: `{"native_token":{"denom":""}}`, wantErr: true},
		{name: "not an object", input: `"ujuno"`, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var info Info
			err := json.Unmarshal([]byte(tc.input), &info)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidInfo)
				return
			}
			require.NoError(t, err)
			assert.True(t, tc.expected.Equal(info), "expected %s, got %s", tc.expected, info)
		})
	}
}

func TestInfoEqual(t *testing.T) {
	assert.True(t, Native("ujuno").Equal(Native("ujuno")))
	assert.False(t, Native("ujuno").Equal(Native("uatom")))
	// same string, different tag
	assert.False(t, Native("juno1raw").Equal(CW20("juno1raw")))
	assert.False(t, Info{}.Equal(Info{}))
	assert.Equal(t, Native("ujuno").Key(), Native("ujuno").Key())
}

func TestAssetJSON(t *testing.T) {
	t.Run("amounts beyond 2^64 survive a round trip", func(t *testing.T) {
		input := `{"info":{"native_token":{"denom":"ujuno"}},"amount":"340282366920938463463374607431768211455"}`
		var a Asset
		require.NoError(t, json.Unmarshal([]byte(input), &a))

		expected, _ := new(big.Int).SetString("340282366920938463463374607431768211455", 10)
		assert.Zero(t, expected.Cmp(a.Amount.ToBig()))

		out, err := json.Marshal(a)
		require.NoError(t, err)
		assert.JSONEq(t, input, string(out))
	})

	t.Run("rejects non-numeric amounts", func(t *testing.T) {
		var a Asset
		err := json.Unmarshal([]byte(`{"info":{"native":"ujuno"},"amount":"12abc"}`), &a)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("FromBig rejects negatives", func(t *testing.T) {
		_, err := FromBig(Native("ujuno"), big.NewInt(-1))
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})
}
