// Package parser turns the CLI's natural swap phrasing into a request.
package parser

import (
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// SwapRequest is the parsed form of a swap command line, before token
// and chain resolution.
type SwapRequest struct {
	Amount      string
	SourceToken string
	DestToken   string
}

// ParseSwapCommand parses a natural language swap command.
// Examples:
//   - "swap 1 WETH to WBNB"
//   - "1.5 WETH to USDC"
//   - "100 USDT to USDC"
func ParseSwapCommand(command string) (*SwapRequest, error) {
	command = strings.TrimSpace(strings.ToUpper(command))
	command = strings.TrimPrefix(command, "SWAP ")

	// Pattern: <amount> <source_token> TO <dest_token>
	pattern := regexp.MustCompile(`^(\d+\.?\d*)\s+([A-Z0-9]+)\s+TO\s+([A-Z0-9]+)$`)

	matches := pattern.FindStringSubmatch(command)
	if matches == nil {
		return nil, fmt.Errorf("invalid swap command format. Expected: '<amount> <token> to <token>' (e.g., '1 WETH to USDC')")
	}

	return &SwapRequest{
		Amount:      matches[1],
		SourceToken: NormalizeTokenSymbol(matches[2]),
		DestToken:   NormalizeTokenSymbol(matches[3]),
	}, nil
}

// NormalizeTokenSymbol maps common aliases onto the wrapped forms the
// venues actually trade.
func NormalizeTokenSymbol(symbol string) string {
	symbol = strings.TrimSpace(strings.ToUpper(symbol))

	aliases := map[string]string{
		"ETH": "WETH",
		"BNB": "WBNB",
		"BTC": "WBTC",
	}

	if normalized, exists := aliases[symbol]; exists {
		return normalized
	}
	return symbol
}

// ToSmallestUnit converts a human-readable amount string into smallest
// units for a token with the given decimals.
func ToSmallestUnit(amount string, decimals uint8) (*big.Int, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	if d.Sign() <= 0 {
		return nil, fmt.Errorf("amount must be greater than 0")
	}

	scaled := d.Shift(int32(decimals))
	if !scaled.IsInteger() {
		return nil, fmt.Errorf("amount %s has more than %d decimal places", amount, decimals)
	}
	return scaled.BigInt(), nil
}

// FromSmallestUnit renders a smallest-unit amount as a human-readable
// decimal string.
func FromSmallestUnit(amount *big.Int, decimals uint8) string {
	if amount == nil {
		return "0"
	}
	return decimal.NewFromBigInt(amount, -int32(decimals)).String()
}
