package parser

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSwapCommand(t *testing.T) {
	tests := []struct {
		name    string
		command string
		want    SwapRequest
		wantErr bool
	}{
		{"basic", "1 WETH to USDC", SwapRequest{Amount: "1", SourceToken: "WETH", DestToken: "USDC"}, false},
		{"with swap prefix", "swap 1 WETH to USDC", SwapRequest{Amount: "1", SourceToken: "WETH", DestToken: "USDC"}, false},
		{"decimal amount", "1.5 WETH to WBNB", SwapRequest{Amount: "1.5", SourceToken: "WETH", DestToken: "WBNB"}, false},
		{"lowercase", "100 usdt to usdc", SwapRequest{Amount: "100", SourceToken: "USDT", DestToken: "USDC"}, false},
		{"alias normalized", "1 ETH to BNB", SwapRequest{Amount: "1", SourceToken: "WETH", DestToken: "WBNB"}, false},
		{"missing to", "1 WETH USDC", SwapRequest{}, true},
		{"missing amount", "WETH to USDC", SwapRequest{}, true},
		{"empty", "", SwapRequest{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSwapCommand(tt.command)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestToSmallestUnit(t *testing.T) {
	amount, err := ToSmallestUnit("1.5", 6)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1_500_000), amount)

	amount, err = ToSmallestUnit("1", 18)
	require.NoError(t, err)
	assert.Equal(t, new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil), amount)

	_, err = ToSmallestUnit("0.0000001", 6)
	assert.Error(t, err, "more precision than the token carries")

	_, err = ToSmallestUnit("0", 6)
	assert.Error(t, err)

	_, err = ToSmallestUnit("abc", 6)
	assert.Error(t, err)
}

func TestFromSmallestUnit(t *testing.T) {
	assert.Equal(t, "1.5", FromSmallestUnit(big.NewInt(1_500_000), 6))
	assert.Equal(t, "0.000001", FromSmallestUnit(big.NewInt(1), 6))
	assert.Equal(t, "0", FromSmallestUnit(nil, 6))
}
