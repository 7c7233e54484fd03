// Package router composes same-chain swaps and bridge transfers into
// ordered cross-chain plans, executes them and tracks their progress.
package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"crossroute/pkg/aggregator"
	"crossroute/pkg/types"
)

var (
	// ErrNoBridgeToken means no preferred stablecoin has a known address
	// on both endpoint chains.
	ErrNoBridgeToken = errors.New("no common bridge token for chain pair")

	// ErrNoRoute means a required sub-quote of the cross-chain plan could
	// not be obtained.
	ErrNoRoute = errors.New("no route available")
)

// swapStepMinutes is the assumed inclusion time of a single on-chain
// swap, used for plan ETA accumulation.
const swapStepMinutes = 1

// quotePlaceholderRecipient stands in for the recipient during pure
// quoting, before any account is involved.
var quotePlaceholderRecipient = common.HexToAddress("0x0000000000000000000000000000000000000001")

// StableTable holds the configured stablecoin deployments per chain and
// the preference order used for bridge-token selection.
type StableTable struct {
	preference []string
	tokens     map[string]map[uint64]types.Token // symbol -> chain id -> token
}

// NewStableTable builds a table from the configured deployments.
// preference lists symbols in selection order, e.g. ["USDC", "USDT"].
func NewStableTable(preference []string, deployments []types.Token) *StableTable {
	tokens := make(map[string]map[uint64]types.Token)
	for _, t := range deployments {
		byChain, ok := tokens[t.Symbol]
		if !ok {
			byChain = make(map[uint64]types.Token)
			tokens[t.Symbol] = byChain
		}
		byChain[t.ChainID] = t
	}
	return &StableTable{preference: preference, tokens: tokens}
}

// Token looks up a stablecoin deployment on a chain.
func (s *StableTable) Token(symbol string, chainID uint64) (types.Token, bool) {
	t, ok := s.tokens[symbol][chainID]
	return t, ok
}

// Composer builds direct or 3-step cross-chain plans through a bridge
// token.
type Composer struct {
	quotes  *aggregator.Quotes
	bridges *aggregator.Bridges
	stables *StableTable
	logger  *slog.Logger
}

// NewComposer creates a plan composer over the two aggregators.
func NewComposer(quotes *aggregator.Quotes, bridges *aggregator.Bridges, stables *StableTable, logger *slog.Logger) *Composer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Composer{
		quotes:  quotes,
		bridges: bridges,
		stables: stables,
		logger:  logger.With("component", "route_composer"),
	}
}

// FindBridgeToken selects the intermediate asset for a chain pair: the
// first stablecoin in preference order with a known address on both
// chains. Returns the deployment on each chain.
func (c *Composer) FindBridgeToken(fromChain, toChain uint64) (types.Token, types.Token, error) {
	for _, symbol := range c.stables.preference {
		fromTok, fromOK := c.stables.Token(symbol, fromChain)
		toTok, toOK := c.stables.Token(symbol, toChain)
		if fromOK && toOK {
			return fromTok, toTok, nil
		}
	}
	return types.Token{}, types.Token{}, fmt.Errorf("chains %d and %d share no preferred stablecoin: %w", fromChain, toChain, ErrNoBridgeToken)
}

// CrossChainQuote composes the ordered plan for a cross-chain swap:
// an optional source-chain swap into the bridge token, the bridge
// transfer, and an optional destination-chain swap out of it. The step
// count is 1, 2 or 3, determined by which endpoints equal the bridge
// token. Gas and time estimates accumulate additively.
func (c *Composer) CrossChainQuote(ctx context.Context, params types.CrossChainSwapParams) (*types.CrossChainSwapResult, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	bridgeFrom, bridgeTo, err := c.FindBridgeToken(params.FromChain, params.ToChain)
	if err != nil {
		return nil, err
	}

	result := &types.CrossChainSwapResult{}
	amount := params.AmountIn
	stepNumber := 1

	if !params.TokenIn.Equal(bridgeFrom) {
		best, err := c.quotes.FindBestRoute(ctx, types.TradeParams{
			TokenIn:     params.TokenIn,
			TokenOut:    bridgeFrom,
			AmountIn:    amount,
			SlippageBps: params.SlippageBps,
		})
		if err != nil {
			return nil, fmt.Errorf("source swap %s -> %s unavailable: %w", params.TokenIn, bridgeFrom, errors.Join(err, ErrNoRoute))
		}
		quote := best.Quote.QuoteResult
		result.SourceSwap = &quote
		result.TotalGasEstimate += quote.GasEstimate
		result.EstimatedTimeMinutes += swapStepMinutes
		result.Steps = append(result.Steps, &types.SwapStep{
			StepNumber:           stepNumber,
			Action:               types.ActionSwap,
			ChainID:              params.FromChain,
			Protocol:             best.Quote.VenueName,
			Status:               types.StepPending,
			EstimatedTimeMinutes: swapStepMinutes,
		})
		amount = quote.AmountOut
		stepNumber++
	}

	recipient := params.Recipient
	if recipient == (common.Address{}) {
		recipient = quotePlaceholderRecipient
	}

	bridgeQuote, err := c.bridges.FindBestRoute(ctx, types.BridgeParams{
		FromChain:   params.FromChain,
		ToChain:     params.ToChain,
		FromToken:   bridgeFrom,
		ToToken:     bridgeTo,
		Amount:      amount,
		Recipient:   recipient,
		SlippageBps: params.SlippageBps,
	}, params.PrioritizeSpeed)
	if err != nil {
		return nil, fmt.Errorf("bridge %s %d -> %d unavailable: %w", bridgeFrom.Symbol, params.FromChain, params.ToChain, errors.Join(err, ErrNoRoute))
	}
	result.Bridge = bridgeQuote
	result.TotalGasEstimate += bridgeQuote.GasEstimate
	result.EstimatedTimeMinutes += bridgeQuote.EstimatedTimeMinutes
	result.Steps = append(result.Steps, &types.SwapStep{
		StepNumber:           stepNumber,
		Action:               types.ActionBridge,
		ChainID:              0, // cross-chain
		Protocol:             bridgeQuote.Provider,
		Status:               types.StepPending,
		EstimatedTimeMinutes: bridgeQuote.EstimatedTimeMinutes,
	})
	amount = bridgeQuote.ToAmount
	stepNumber++

	if !params.TokenOut.Equal(bridgeTo) {
		best, err := c.quotes.FindBestRoute(ctx, types.TradeParams{
			TokenIn:     bridgeTo,
			TokenOut:    params.TokenOut,
			AmountIn:    amount,
			SlippageBps: params.SlippageBps,
		})
		if err != nil {
			return nil, fmt.Errorf("destination swap %s -> %s unavailable: %w", bridgeTo, params.TokenOut, errors.Join(err, ErrNoRoute))
		}
		quote := best.Quote.QuoteResult
		result.DestSwap = &quote
		result.TotalGasEstimate += quote.GasEstimate
		result.EstimatedTimeMinutes += swapStepMinutes
		result.Steps = append(result.Steps, &types.SwapStep{
			StepNumber:           stepNumber,
			Action:               types.ActionSwap,
			ChainID:              params.ToChain,
			Protocol:             best.Quote.VenueName,
			Status:               types.StepPending,
			EstimatedTimeMinutes: swapStepMinutes,
		})
	}

	c.logger.Info("composed cross-chain plan",
		"steps", len(result.Steps),
		"bridgeToken", bridgeFrom.Symbol,
		"etaMinutes", result.EstimatedTimeMinutes)
	return result, nil
}

// EstimatedOut returns the plan's final output estimate: the destination
// swap's output when present, otherwise the bridged amount.
func EstimatedOut(result *types.CrossChainSwapResult) *big.Int {
	if result.DestSwap != nil {
		return result.DestSwap.AmountOut
	}
	if result.Bridge != nil {
		return result.Bridge.ToAmount
	}
	return nil
}
