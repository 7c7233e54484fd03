package aggregator

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crossroute/pkg/bridge"
	"crossroute/pkg/signer"
	"crossroute/pkg/types"
)

type fakeProvider struct {
	name     string
	chains   map[uint64]bool
	toAmount *big.Int
	eta      int
	quoteErr error
	execErr  error
	executed bool
	status   types.BridgeTxStatus
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) SupportsRoute(fromChain, toChain uint64) bool {
	return f.chains[fromChain] && f.chains[toChain]
}

func (f *fakeProvider) Quote(ctx context.Context, params types.BridgeParams) (*types.BridgeQuote, error) {
	if f.quoteErr != nil {
		return nil, f.quoteErr
	}
	return &types.BridgeQuote{
		Provider:             f.name,
		FromAmount:           params.Amount,
		ToAmount:             new(big.Int).Set(f.toAmount),
		EstimatedTimeMinutes: f.eta,
		ConfidenceScore:      90,
	}, nil
}

func (f *fakeProvider) Execute(ctx context.Context, params types.BridgeParams, s signer.TxSigner) (*types.BridgeResult, error) {
	if f.execErr != nil {
		return nil, f.execErr
	}
	f.executed = true
	return &types.BridgeResult{
		Provider:   f.name,
		TxHash:     "0xbridge",
		TrackingID: bridge.TrackingID(f.name, "0xbridge"),
		FromAmount: params.Amount,
		ToAmount:   new(big.Int).Set(f.toAmount),
		Status:     types.BridgePending,
	}, nil
}

func (f *fakeProvider) Status(ctx context.Context, ref string) (types.BridgeTxStatus, error) {
	if f.status == "" {
		return types.BridgePending, nil
	}
	return f.status, nil
}

func evmPair() map[uint64]bool { return map[uint64]bool{1: true, 56: true} }

func testBridgeParams() types.BridgeParams {
	return types.BridgeParams{
		FromChain: 1,
		ToChain:   56,
		FromToken: types.Token{Symbol: "USDC", Decimals: 6, ChainID: 1},
		ToToken:   types.Token{Symbol: "USDC", Decimals: 18, ChainID: 56},
		Amount:    big.NewInt(100_000_000),
	}
}

func TestBridgeQuotesSettleAll(t *testing.T) {
	good := &fakeProvider{name: "good", chains: evmPair(), toAmount: big.NewInt(99), eta: 10}
	broken := &fakeProvider{name: "broken", chains: evmPair(), quoteErr: bridge.ErrQuoteUnavailable}
	wrongRoute := &fakeProvider{name: "wrong", chains: map[uint64]bool{1: true}, toAmount: big.NewInt(100)}

	b := NewBridges([]bridge.Provider{good, broken, wrongRoute}, discard())
	quotes := b.GetAllQuotes(context.Background(), testBridgeParams())

	require.Len(t, quotes, 1)
	assert.Equal(t, "good", quotes[0].Provider)
}

func TestBridgeQuotesSortedByOutput(t *testing.T) {
	slow := &fakeProvider{name: "slow", chains: evmPair(), toAmount: big.NewInt(100), eta: 30}
	fast := &fakeProvider{name: "fast", chains: evmPair(), toAmount: big.NewInt(95), eta: 2}

	b := NewBridges([]bridge.Provider{fast, slow}, discard())
	quotes := b.GetAllQuotes(context.Background(), testBridgeParams())

	require.Len(t, quotes, 2)
	assert.Equal(t, "slow", quotes[0].Provider)
}

func TestFindBestBridgePrioritizeSpeed(t *testing.T) {
	slow := &fakeProvider{name: "slow", chains: evmPair(), toAmount: big.NewInt(100), eta: 30}
	mid := &fakeProvider{name: "mid", chains: evmPair(), toAmount: big.NewInt(97), eta: 12}
	fast := &fakeProvider{name: "fast", chains: evmPair(), toAmount: big.NewInt(95), eta: 2}
	b := NewBridges([]bridge.Provider{slow, mid, fast}, discard())

	best, err := b.FindBestRoute(context.Background(), testBridgeParams(), false)
	require.NoError(t, err)
	assert.Equal(t, "slow", best.Provider)

	best, err = b.FindBestRoute(context.Background(), testBridgeParams(), true)
	require.NoError(t, err)
	assert.Equal(t, "fast", best.Provider)
}

func TestFindBestBridgeNoProviders(t *testing.T) {
	down := &fakeProvider{name: "down", chains: evmPair(), quoteErr: errors.New("503")}
	b := NewBridges([]bridge.Provider{down}, discard())

	_, err := b.FindBestRoute(context.Background(), testBridgeParams(), false)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoBridgeQuotes)
}

func TestExecuteBestBridge(t *testing.T) {
	winner := &fakeProvider{name: "winner", chains: evmPair(), toAmount: big.NewInt(100), eta: 5}
	loser := &fakeProvider{name: "loser", chains: evmPair(), toAmount: big.NewInt(90), eta: 5}
	b := NewBridges([]bridge.Provider{loser, winner}, discard())

	result, err := b.ExecuteBestBridge(context.Background(), testBridgeParams(), false, nil)
	require.NoError(t, err)

	assert.True(t, winner.executed)
	assert.False(t, loser.executed)
	assert.Equal(t, "winner_0xbridge", result.TrackingID)
	assert.Equal(t, types.BridgePending, result.Status)
}
