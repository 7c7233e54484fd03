package aggregator

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crossroute/pkg/signer"
	"crossroute/pkg/types"
	"crossroute/pkg/venue"
)

type fakeAdapter struct {
	name     string
	chainID  uint64
	out      *big.Int
	impact   float64
	quoteErr error
	execErr  error
	executed bool
}

func (f *fakeAdapter) Name() string                 { return f.name }
func (f *fakeAdapter) Supports(chainID uint64) bool { return chainID == f.chainID }

func (f *fakeAdapter) Quote(ctx context.Context, params types.TradeParams) (*types.QuoteResult, error) {
	if f.quoteErr != nil {
		return nil, f.quoteErr
	}
	return &types.QuoteResult{
		AmountOut:        new(big.Int).Set(f.out),
		PriceImpactPct:   f.impact,
		MinimumAmountOut: types.MinimumOut(f.out, params.SlippageBps),
		GasEstimate:      150_000,
	}, nil
}

func (f *fakeAdapter) Execute(ctx context.Context, params types.TradeParams, s signer.TxSigner) (*types.TradeResult, error) {
	if f.execErr != nil {
		return nil, f.execErr
	}
	f.executed = true
	return &types.TradeResult{
		TxHash:    "0xabc",
		AmountIn:  params.AmountIn,
		AmountOut: new(big.Int).Set(f.out),
	}, nil
}

func testTradeParams() types.TradeParams {
	return types.TradeParams{
		TokenIn:     types.Token{Symbol: "WETH", Decimals: 18, ChainID: 1},
		TokenOut:    types.Token{Symbol: "USDC", Decimals: 6, ChainID: 1},
		AmountIn:    big.NewInt(1e18),
		SlippageBps: 50,
	}
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestGetAllQuotesFiltersAndSorts(t *testing.T) {
	low := &fakeAdapter{name: "low", chainID: 1, out: big.NewInt(900)}
	high := &fakeAdapter{name: "high", chainID: 1, out: big.NewInt(1100)}
	otherChain := &fakeAdapter{name: "other", chainID: 56, out: big.NewInt(9999)}
	broken := &fakeAdapter{name: "broken", chainID: 1, quoteErr: venue.ErrNoLiquidity}

	q := NewQuotes([]venue.Adapter{low, high, otherChain, broken}, nil, discard())
	quotes := q.GetAllQuotes(context.Background(), testTradeParams())

	require.Len(t, quotes, 2)
	assert.Equal(t, "high", quotes[0].VenueName)
	assert.Equal(t, "low", quotes[1].VenueName)
}

func TestGetAllQuotesEveryVenueFails(t *testing.T) {
	a := &fakeAdapter{name: "a", chainID: 1, quoteErr: errors.New("rpc down")}
	b := &fakeAdapter{name: "b", chainID: 1, quoteErr: venue.ErrNoLiquidity}

	q := NewQuotes([]venue.Adapter{a, b}, nil, discard())

	quotes := q.GetAllQuotes(context.Background(), testTradeParams())
	assert.Empty(t, quotes)

	_, err := q.FindBestRoute(context.Background(), testTradeParams())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoQuotes)
}

func TestFindBestRouteSavings(t *testing.T) {
	best := &fakeAdapter{name: "best", chainID: 1, out: big.NewInt(1000)}
	worst := &fakeAdapter{name: "worst", chainID: 1, out: big.NewInt(900)}

	q := NewQuotes([]venue.Adapter{best, worst}, nil, discard())
	route, err := q.FindBestRoute(context.Background(), testTradeParams())
	require.NoError(t, err)

	assert.Equal(t, "best", route.Quote.VenueName)
	assert.Equal(t, big.NewInt(100), route.Savings)
	assert.InDelta(t, 11.11, route.SavingsPercentage, 0.01)
	assert.Equal(t, 1, route.Alternatives)
}

func TestFindBestRouteSingleSurvivor(t *testing.T) {
	only := &fakeAdapter{name: "only", chainID: 1, out: big.NewInt(500)}
	dead := &fakeAdapter{name: "dead", chainID: 1, quoteErr: errors.New("timeout")}

	q := NewQuotes([]venue.Adapter{only, dead}, nil, discard())
	route, err := q.FindBestRoute(context.Background(), testTradeParams())
	require.NoError(t, err)

	assert.Equal(t, "only", route.Quote.VenueName)
	assert.Equal(t, 0, route.Savings.Sign())
	assert.Equal(t, 0, route.Alternatives)
}

func TestConfidenceScoring(t *testing.T) {
	q := NewQuotes(nil, map[string]int{"bonus": 5, "big": 50}, discard())

	tests := []struct {
		name   string
		venue  string
		impact float64
		want   int
	}{
		{"no impact", "plain", 0.5, 100},
		{"low band", "plain", 1.5, 95},
		{"mid band", "plain", 3.0, 85},
		{"high band", "plain", 7.0, 70},
		{"bonus applied", "bonus", 3.0, 90},
		{"clamped at 100", "big", 0.1, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, q.confidence(tt.venue, tt.impact))
		})
	}
}

func TestExecuteBestTradeDelegatesToWinner(t *testing.T) {
	winner := &fakeAdapter{name: "winner", chainID: 1, out: big.NewInt(1000)}
	loser := &fakeAdapter{name: "loser", chainID: 1, out: big.NewInt(800)}

	q := NewQuotes([]venue.Adapter{loser, winner}, nil, discard())
	result, quote, err := q.ExecuteBestTrade(context.Background(), testTradeParams(), nil)
	require.NoError(t, err)

	assert.True(t, winner.executed)
	assert.False(t, loser.executed)
	assert.Equal(t, "winner", quote.VenueName)
	assert.Equal(t, "0xabc", result.TxHash)
}

func TestExecuteBestTradeSurfacesVenueFailure(t *testing.T) {
	failing := &fakeAdapter{name: "failing", chainID: 1, out: big.NewInt(1000), execErr: venue.ErrSlippageExceeded}

	q := NewQuotes([]venue.Adapter{failing}, nil, discard())
	_, quote, err := q.ExecuteBestTrade(context.Background(), testTradeParams(), nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, venue.ErrSlippageExceeded)
	require.NotNil(t, quote)
	assert.Equal(t, "failing", quote.VenueName)
}
