package router

import (
	"context"
	"io"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"crossroute/pkg/aggregator"
	"crossroute/pkg/bridge"
	"crossroute/pkg/signer"
	"crossroute/pkg/types"
	"crossroute/pkg/venue"
)

// Shared fixtures for the router tests: a two-chain world with USDC as
// the common stablecoin.
var (
	weth1  = types.Token{Address: common.HexToAddress("0x01"), Symbol: "WETH", Decimals: 18, ChainID: 1}
	usdc1  = types.Token{Address: common.HexToAddress("0x02"), Symbol: "USDC", Decimals: 6, ChainID: 1}
	usdt1  = types.Token{Address: common.HexToAddress("0x03"), Symbol: "USDT", Decimals: 6, ChainID: 1}
	usdc56 = types.Token{Address: common.HexToAddress("0x04"), Symbol: "USDC", Decimals: 18, ChainID: 56}
	wbnb56 = types.Token{Address: common.HexToAddress("0x05"), Symbol: "WBNB", Decimals: 18, ChainID: 56}
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func exp10(n int64) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(n), nil)
}

// stubVenue answers quotes for one chain from a fixed pair table keyed
// by "IN->OUT" symbols.
type stubVenue struct {
	name     string
	chainID  uint64
	outs     map[string]*big.Int
	execErr  error
	executed []string
	execOut  *big.Int // overrides the quoted amount when set
}

func (s *stubVenue) Name() string                 { return s.name }
func (s *stubVenue) Supports(chainID uint64) bool { return chainID == s.chainID }

func (s *stubVenue) Quote(ctx context.Context, params types.TradeParams) (*types.QuoteResult, error) {
	out, ok := s.outs[params.TokenIn.Symbol+"->"+params.TokenOut.Symbol]
	if !ok {
		return nil, venue.ErrNoLiquidity
	}
	return &types.QuoteResult{
		AmountOut:        new(big.Int).Set(out),
		MinimumAmountOut: types.MinimumOut(out, params.SlippageBps),
		GasEstimate:      150_000,
	}, nil
}

func (s *stubVenue) Execute(ctx context.Context, params types.TradeParams, sg signer.TxSigner) (*types.TradeResult, error) {
	if s.execErr != nil {
		return nil, s.execErr
	}
	quote, err := s.Quote(ctx, params)
	if err != nil {
		return nil, err
	}
	out := quote.AmountOut
	if s.execOut != nil {
		out = new(big.Int).Set(s.execOut)
	}
	s.executed = append(s.executed, params.TokenIn.Symbol+"->"+params.TokenOut.Symbol)
	return &types.TradeResult{
		TxHash:    "0xswap_" + s.name,
		AmountIn:  params.AmountIn,
		AmountOut: out,
		Quote:     quote,
	}, nil
}

// stubBridge is a bridge provider with a fixed payout and controllable
// failure modes. It records the last params it executed with.
type stubBridge struct {
	name       string
	toAmount   *big.Int
	eta        int
	gas        uint64
	quoteErr   error
	execErr    error
	status     types.BridgeTxStatus
	statusErr  error
	lastExec   *types.BridgeParams
	statusRefs []string
}

func (s *stubBridge) Name() string                              { return s.name }
func (s *stubBridge) SupportsRoute(fromChain, toChain uint64) bool { return true }

func (s *stubBridge) Quote(ctx context.Context, params types.BridgeParams) (*types.BridgeQuote, error) {
	if s.quoteErr != nil {
		return nil, s.quoteErr
	}
	return &types.BridgeQuote{
		Provider:             s.name,
		FromAmount:           params.Amount,
		ToAmount:             new(big.Int).Set(s.toAmount),
		EstimatedTimeMinutes: s.eta,
		GasEstimate:          s.gas,
		ConfidenceScore:      90,
	}, nil
}

func (s *stubBridge) Execute(ctx context.Context, params types.BridgeParams, sg signer.TxSigner) (*types.BridgeResult, error) {
	if s.execErr != nil {
		return nil, s.execErr
	}
	p := params
	s.lastExec = &p
	return &types.BridgeResult{
		Provider:   s.name,
		TxHash:     "0xbridge_" + s.name,
		TrackingID: bridge.TrackingID(s.name, "0xbridge_"+s.name),
		FromAmount: params.Amount,
		ToAmount:   new(big.Int).Set(s.toAmount),
		Status:     types.BridgePending,
	}, nil
}

func (s *stubBridge) Status(ctx context.Context, ref string) (types.BridgeTxStatus, error) {
	s.statusRefs = append(s.statusRefs, ref)
	if s.statusErr != nil {
		return "", s.statusErr
	}
	return s.status, nil
}

func defaultStables() *StableTable {
	return NewStableTable([]string{"USDC", "USDT"}, []types.Token{usdc1, usdt1, usdc56})
}

func newTestComposer(venues []venue.Adapter, providers []bridge.Provider, stables *StableTable) (*Composer, *aggregator.Quotes, *aggregator.Bridges) {
	quotes := aggregator.NewQuotes(venues, nil, discard())
	bridges := aggregator.NewBridges(providers, discard())
	return NewComposer(quotes, bridges, stables, discard()), quotes, bridges
}
