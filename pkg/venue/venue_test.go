package venue

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPriceImpact(t *testing.T) {
	// 1:1 value at different decimal conventions is zero impact.
	oneEth := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	oneUsdc := big.NewInt(1_000_000)
	assert.InDelta(t, 0, priceImpact(oneEth, oneUsdc, 18, 6), 1e-9)

	// Getting 990 out for 1000 in is about a 1% deviation.
	impact := priceImpact(big.NewInt(1000_000_000), big.NewInt(990_000_000), 6, 6)
	assert.InDelta(t, 1.01, impact, 0.01)

	// A degenerate quote is treated as total impact.
	assert.Equal(t, 100.0, priceImpact(oneEth, big.NewInt(0), 18, 6))
	assert.Equal(t, 100.0, priceImpact(oneEth, nil, 18, 6))
}
