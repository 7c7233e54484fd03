package router

import (
	"context"
	"fmt"
	"log/slog"

	"crossroute/pkg/aggregator"
	"crossroute/pkg/signer"
	"crossroute/pkg/types"
)

// Executor runs cross-chain plans step by step, in strict order, because
// each step's input is the previous step's actual output.
type Executor struct {
	composer *Composer
	quotes   *aggregator.Quotes
	bridges  *aggregator.Bridges
	logger   *slog.Logger
}

// NewExecutor creates a plan executor.
func NewExecutor(composer *Composer, quotes *aggregator.Quotes, bridges *aggregator.Bridges, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		composer: composer,
		quotes:   quotes,
		bridges:  bridges,
		logger:   logger.With("component", "executor"),
	}
}

// ExecuteCrossChainSwap re-derives the plan from live quotes and executes
// it: source-chain swap (when present), then the bridge transfer. Each
// completed step gets its status and tx hash recorded in place.
//
// On failure execution stops immediately: the failing step is marked
// failed, the error propagates, and the partial step list stays intact so
// the caller knows exactly what already happened on-chain. Nothing is
// rolled back or retried.
//
// The destination-chain swap is never executed here: it needs a signer
// active on the destination chain, which this executor does not assume it
// holds. Completing step 3 is the caller's responsibility; the returned
// plan carries the quote to execute it against.
func (e *Executor) ExecuteCrossChainSwap(ctx context.Context, params types.CrossChainSwapParams, s signer.TxSigner) (*types.CrossChainSwapResult, error) {
	result, err := e.composer.CrossChainQuote(ctx, params)
	if err != nil {
		return nil, err
	}

	bridgeFrom, bridgeTo, err := e.composer.FindBridgeToken(params.FromChain, params.ToChain)
	if err != nil {
		return nil, err
	}

	bridgeAmount := params.AmountIn
	stepIdx := 0

	if result.SourceSwap != nil {
		step := result.Steps[stepIdx]
		tradeResult, winner, err := e.quotes.ExecuteBestTrade(ctx, types.TradeParams{
			TokenIn:     params.TokenIn,
			TokenOut:    bridgeFrom,
			AmountIn:    params.AmountIn,
			SlippageBps: params.SlippageBps,
		}, s)
		if err != nil {
			step.Status = types.StepFailed
			return result, fmt.Errorf("step %d (source swap) failed: %w", step.StepNumber, err)
		}
		step.Status = types.StepCompleted
		step.TxHash = tradeResult.TxHash
		if winner != nil {
			step.Protocol = winner.VenueName
		}
		bridgeAmount = tradeResult.AmountOut
		stepIdx++

		e.logger.Info("source swap completed",
			"venue", step.Protocol,
			"txHash", step.TxHash,
			"amountOut", bridgeAmount.String())
	}

	bridgeStep := result.Steps[stepIdx]
	bridgeResult, err := e.bridges.ExecuteBestBridge(ctx, types.BridgeParams{
		FromChain:   params.FromChain,
		ToChain:     params.ToChain,
		FromToken:   bridgeFrom,
		ToToken:     bridgeTo,
		Amount:      bridgeAmount,
		Recipient:   params.Recipient,
		SlippageBps: params.SlippageBps,
	}, params.PrioritizeSpeed, s)
	if err != nil {
		bridgeStep.Status = types.StepFailed
		return result, fmt.Errorf("step %d (bridge) failed: %w", bridgeStep.StepNumber, err)
	}
	bridgeStep.Status = types.StepCompleted
	bridgeStep.TxHash = bridgeResult.TxHash
	bridgeStep.Protocol = bridgeResult.Provider
	result.BridgeResult = bridgeResult

	e.logger.Info("bridge submitted",
		"provider", bridgeResult.Provider,
		"txHash", bridgeResult.TxHash,
		"trackingId", bridgeResult.TrackingID)

	return result, nil
}
