// Package aggregator fans quote requests out to every applicable venue
// adapter and bridge provider, ranks the survivors and picks winners.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sort"
	"sync"

	"crossroute/pkg/signer"
	"crossroute/pkg/types"
	"crossroute/pkg/venue"
)

var (
	// ErrNoQuotes means every venue failed or none serves the chain.
	ErrNoQuotes = errors.New("no quotes available")
)

// Confidence scoring: quotes start at 100 and lose points per price
// impact band, then gain the venue's reputation bonus.
const (
	confidenceBase = 100

	impactBandHigh   = 5.0
	impactBandMid    = 2.0
	impactBandLow    = 1.0
	penaltyHighBand  = 30
	penaltyMidBand   = 15
	penaltyLowBand   = 5
)

// AggregatedQuote is a venue quote annotated with its origin and a
// 0-100 ranking confidence.
type AggregatedQuote struct {
	types.QuoteResult
	VenueName       string
	Venue           venue.Adapter
	ConfidenceScore int
}

// BestRoute is the winning quote plus its advantage over the worst
// surviving alternative.
type BestRoute struct {
	Quote             *AggregatedQuote
	Savings           *big.Int // amountOut advantage over the worst survivor
	SavingsPercentage float64
	Alternatives      int // number of other venues that answered
}

// Quotes aggregates same-chain swap quotes across venue adapters. Built
// once at startup from the configured venue set and passed by reference.
type Quotes struct {
	adapters   []venue.Adapter
	reputation map[string]int // per-venue confidence bonus
	logger     *slog.Logger
}

// NewQuotes creates an aggregator over the given adapters. reputation
// maps venue names to a small fixed confidence bonus and may be nil.
func NewQuotes(adapters []venue.Adapter, reputation map[string]int, logger *slog.Logger) *Quotes {
	if logger == nil {
		logger = slog.Default()
	}
	return &Quotes{
		adapters:   adapters,
		reputation: reputation,
		logger:     logger.With("component", "quote_aggregator"),
	}
}

// GetAllQuotes fans the request out to every adapter serving the trade's
// chain, concurrently. A venue's failure is logged and excluded, never
// propagated; the call returns an empty slice when every venue fails.
// Results are sorted by AmountOut descending.
func (q *Quotes) GetAllQuotes(ctx context.Context, params types.TradeParams) []*AggregatedQuote {
	applicable := make([]venue.Adapter, 0, len(q.adapters))
	for _, a := range q.adapters {
		if a.Supports(params.TokenIn.ChainID) {
			applicable = append(applicable, a)
		}
	}

	results := make([]*AggregatedQuote, len(applicable))
	var wg sync.WaitGroup
	for i, a := range applicable {
		wg.Add(1)
		go func(i int, a venue.Adapter) {
			defer wg.Done()
			quote, err := a.Quote(ctx, params)
			if err != nil {
				q.logger.Warn("venue quote failed",
					"venue", a.Name(),
					"pair", params.TokenIn.String()+"/"+params.TokenOut.String(),
					"error", err)
				return
			}
			results[i] = &AggregatedQuote{
				QuoteResult:     *quote,
				VenueName:       a.Name(),
				Venue:           a,
				ConfidenceScore: q.confidence(a.Name(), quote.PriceImpactPct),
			}
		}(i, a)
	}
	wg.Wait()

	quotes := make([]*AggregatedQuote, 0, len(results))
	for _, r := range results {
		if r != nil {
			quotes = append(quotes, r)
		}
	}

	sort.SliceStable(quotes, func(i, j int) bool {
		return quotes[i].AmountOut.Cmp(quotes[j].AmountOut) > 0
	})
	return quotes
}

// confidence scores a quote from its price impact and the venue's
// reputation bonus, clamped to [0, 100].
func (q *Quotes) confidence(venueName string, impactPct float64) int {
	score := confidenceBase
	switch {
	case impactPct > impactBandHigh:
		score -= penaltyHighBand
	case impactPct > impactBandMid:
		score -= penaltyMidBand
	case impactPct > impactBandLow:
		score -= penaltyLowBand
	}
	score += q.reputation[venueName]

	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score
}

// FindBestRoute returns the top quote and its savings relative to the
// worst surviving quote. Fails with ErrNoQuotes when every venue failed.
func (q *Quotes) FindBestRoute(ctx context.Context, params types.TradeParams) (*BestRoute, error) {
	quotes := q.GetAllQuotes(ctx, params)
	if len(quotes) == 0 {
		return nil, fmt.Errorf("every venue failed for %s/%s on chain %d: %w",
			params.TokenIn.Symbol, params.TokenOut.Symbol, params.TokenIn.ChainID, ErrNoQuotes)
	}

	best := quotes[0]
	worst := quotes[len(quotes)-1]

	savings := new(big.Int).Sub(best.AmountOut, worst.AmountOut)
	savingsPct := 0.0
	if worst.AmountOut.Sign() > 0 {
		f, _ := new(big.Float).Quo(
			new(big.Float).SetInt(savings),
			new(big.Float).SetInt(worst.AmountOut),
		).Float64()
		savingsPct = f * 100
	}

	return &BestRoute{
		Quote:             best,
		Savings:           savings,
		SavingsPercentage: savingsPct,
		Alternatives:      len(quotes) - 1,
	}, nil
}

// ExecuteBestTrade finds the best route and delegates execution to the
// winning venue.
func (q *Quotes) ExecuteBestTrade(ctx context.Context, params types.TradeParams, s signer.TxSigner) (*types.TradeResult, *AggregatedQuote, error) {
	best, err := q.FindBestRoute(ctx, params)
	if err != nil {
		return nil, nil, err
	}

	q.logger.Info("executing trade on best venue",
		"venue", best.Quote.VenueName,
		"amountOut", best.Quote.AmountOut.String(),
		"confidence", best.Quote.ConfidenceScore)

	result, err := best.Quote.Venue.Execute(ctx, params, s)
	if err != nil {
		return nil, best.Quote, fmt.Errorf("execution on %s failed: %w", best.Quote.VenueName, err)
	}
	return result, best.Quote, nil
}
