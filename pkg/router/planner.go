package router

import (
	"context"
	"log/slog"
	"math/big"

	"crossroute/pkg/aggregator"
	"crossroute/pkg/types"
)

// sameChainBias is the fraction of the cross-chain estimate a same-chain
// alternative must beat before it is recommended. The bias is deliberate:
// cross-chain routing is what this engine exists to provide, so a
// same-chain route wins only when it is clearly competitive.
const sameChainBias = 0.95

// Recommendation says which option the comparator favors.
type Recommendation string

const (
	RecommendCrossChain Recommendation = "cross_chain"
	RecommendSameChain  Recommendation = "same_chain"
)

// SameChainOption is a native same-chain quote for the logical pair on
// one of the endpoint chains.
type SameChainOption struct {
	ChainID  uint64
	TokenIn  types.Token
	TokenOut types.Token
	Route    *aggregator.BestRoute
}

// Comparison is the comparator's full answer: the cross-chain plan, any
// native same-chain alternatives, and the recommendation.
type Comparison struct {
	CrossChain       *types.CrossChainSwapResult
	SameChain        []*SameChainOption
	Recommendation   Recommendation
	RecommendedChain uint64 // set when Recommendation is same_chain
}

// Planner compares a cross-chain plan against native same-chain
// alternatives for the same logical pair.
type Planner struct {
	composer *Composer
	quotes   *aggregator.Quotes
	tokens   map[uint64]map[string]types.Token // chain id -> symbol -> token
	logger   *slog.Logger
}

// NewPlanner creates a comparator. tokens is the configured token table
// used to find a pair's native twin deployments.
func NewPlanner(composer *Composer, quotes *aggregator.Quotes, tokens map[uint64]map[string]types.Token, logger *slog.Logger) *Planner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Planner{
		composer: composer,
		quotes:   quotes,
		tokens:   tokens,
		logger:   logger.With("component", "planner"),
	}
}

// CompareSwapOptions computes the cross-chain plan and, for each endpoint
// chain where the logical pair exists natively, a best same-chain quote.
// Same-chain is recommended only when its normalized output exceeds 95%
// of the cross-chain estimate.
func (p *Planner) CompareSwapOptions(ctx context.Context, params types.CrossChainSwapParams) (*Comparison, error) {
	crossChain, err := p.composer.CrossChainQuote(ctx, params)
	if err != nil {
		return nil, err
	}

	comparison := &Comparison{
		CrossChain:     crossChain,
		Recommendation: RecommendCrossChain,
	}

	crossOut := normalized(EstimatedOut(crossChain), params.TokenOut.Decimals)

	// Source chain: the pair exists natively when tokenOut has a twin
	// deployment there.
	if twin, ok := p.tokens[params.FromChain][params.TokenOut.Symbol]; ok {
		option := p.sameChainQuote(ctx, params.FromChain, params.TokenIn, twin, params.AmountIn, params.SlippageBps)
		if option != nil {
			comparison.SameChain = append(comparison.SameChain, option)
		}
	}

	// Destination chain: tokenIn's twin swapped into tokenOut, with the
	// input amount rescaled across decimals.
	if twin, ok := p.tokens[params.ToChain][params.TokenIn.Symbol]; ok {
		amount := rescale(params.AmountIn, params.TokenIn.Decimals, twin.Decimals)
		option := p.sameChainQuote(ctx, params.ToChain, twin, params.TokenOut, amount, params.SlippageBps)
		if option != nil {
			comparison.SameChain = append(comparison.SameChain, option)
		}
	}

	for _, option := range comparison.SameChain {
		out := normalized(option.Route.Quote.AmountOut, option.TokenOut.Decimals)
		threshold := new(big.Float).Mul(crossOut, big.NewFloat(sameChainBias))
		if out.Cmp(threshold) > 0 {
			comparison.Recommendation = RecommendSameChain
			comparison.RecommendedChain = option.ChainID
			break
		}
	}

	p.logger.Info("compared swap options",
		"alternatives", len(comparison.SameChain),
		"recommendation", comparison.Recommendation)
	return comparison, nil
}

// sameChainQuote fetches the best native quote for a pair on one chain,
// or nil when no venue can serve it.
func (p *Planner) sameChainQuote(ctx context.Context, chainID uint64, tokenIn, tokenOut types.Token, amount *big.Int, slippageBps uint16) *SameChainOption {
	best, err := p.quotes.FindBestRoute(ctx, types.TradeParams{
		TokenIn:     tokenIn,
		TokenOut:    tokenOut,
		AmountIn:    amount,
		SlippageBps: slippageBps,
	})
	if err != nil {
		p.logger.Debug("no native same-chain route",
			"chain", chainID,
			"pair", tokenIn.Symbol+"/"+tokenOut.Symbol,
			"error", err)
		return nil
	}
	return &SameChainOption{
		ChainID:  chainID,
		TokenIn:  tokenIn,
		TokenOut: tokenOut,
		Route:    best,
	}
}

// normalized converts a smallest-unit amount into a decimal-adjusted
// float for cross-token comparison.
func normalized(amount *big.Int, decimals uint8) *big.Float {
	if amount == nil {
		return big.NewFloat(0)
	}
	scale := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	return new(big.Float).Quo(new(big.Float).SetInt(amount), scale)
}

// rescale converts an amount between two decimal conventions.
func rescale(amount *big.Int, fromDecimals, toDecimals uint8) *big.Int {
	if fromDecimals == toDecimals {
		return amount
	}
	if toDecimals > fromDecimals {
		factor := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(toDecimals-fromDecimals)), nil)
		return new(big.Int).Mul(amount, factor)
	}
	factor := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(fromDecimals-toDecimals)), nil)
	return new(big.Int).Div(amount, factor)
}
