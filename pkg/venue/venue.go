// Package venue defines the adapter contract for same-chain trading
// venues and implements it for Uniswap-style DEX deployments.
package venue

import (
	"context"
	"errors"
	"math"
	"math/big"

	"crossroute/pkg/signer"
	"crossroute/pkg/types"
)

var (
	// ErrUnsupportedChain means the venue has no deployment on the
	// requested chain. Aggregation filters it silently.
	ErrUnsupportedChain = errors.New("chain not supported by venue")

	// ErrNoLiquidity means the venue's quoting call reverted or returned
	// a degenerate amount for the pair.
	ErrNoLiquidity = errors.New("no liquidity for pair")

	// ErrSlippageExceeded means the executed swap reverted because the
	// output fell below the quoted minimum.
	ErrSlippageExceeded = errors.New("slippage tolerance exceeded")
)

// Adapter quotes and executes a single same-chain swap on one venue.
// Implementations are safe for concurrent Quote calls; each call reads
// only its own params and the adapter's immutable connection.
type Adapter interface {
	// Name returns the venue identifier, e.g. "uniswap_v2".
	Name() string

	// Supports reports whether the venue serves the given chain.
	Supports(chainID uint64) bool

	// Quote fetches a live quote for the trade. Returns ErrUnsupportedChain
	// or ErrNoLiquidity as appropriate.
	Quote(ctx context.Context, params types.TradeParams) (*types.QuoteResult, error)

	// Execute performs the swap: reads the current allowance and submits an
	// approval only if insufficient, re-quotes immediately before
	// submission, submits the swap, and parses the on-chain confirmation
	// for the actual output amount. Up to two transactions are sent.
	Execute(ctx context.Context, params types.TradeParams, s signer.TxSigner) (*types.TradeResult, error)
}

// priceImpact is the coarse liquidity-depth heuristic used for ranking:
// the deviation of the decimal-normalized in/out ratio from 1, as a
// percentage. It is a confidence signal, not AMM curve math.
func priceImpact(amountIn, amountOut *big.Int, decimalsIn, decimalsOut uint8) float64 {
	if amountOut == nil || amountOut.Sign() == 0 {
		return 100
	}
	in := new(big.Float).Quo(new(big.Float).SetInt(amountIn), pow10f(decimalsIn))
	out := new(big.Float).Quo(new(big.Float).SetInt(amountOut), pow10f(decimalsOut))
	ratio, _ := new(big.Float).Quo(in, out).Float64()
	return math.Abs(ratio-1) * 100
}

func pow10f(decimals uint8) *big.Float {
	return new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
}
