package aggregator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"crossroute/pkg/bridge"
	"crossroute/pkg/signer"
	"crossroute/pkg/types"
)

// ErrNoBridgeQuotes means every provider failed or none serves the route.
var ErrNoBridgeQuotes = errors.New("no bridge quotes available")

// Bridges aggregates cross-chain transfer quotes across bridge
// providers. Like Quotes, it is built once at startup.
type Bridges struct {
	providers []bridge.Provider
	logger    *slog.Logger
}

// NewBridges creates an aggregator over the given providers.
func NewBridges(providers []bridge.Provider, logger *slog.Logger) *Bridges {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridges{
		providers: providers,
		logger:    logger.With("component", "bridge_aggregator"),
	}
}

// Provider returns the named provider, used to route status polls back
// to the protocol that executed a transfer.
func (b *Bridges) Provider(name string) (bridge.Provider, bool) {
	for _, p := range b.providers {
		if p.Name() == name {
			return p, true
		}
	}
	return nil, false
}

// GetAllQuotes fans the request out to every provider serving both
// chains, concurrently with settle-all semantics. Sorted by ToAmount
// descending.
func (b *Bridges) GetAllQuotes(ctx context.Context, params types.BridgeParams) []*types.BridgeQuote {
	applicable := make([]bridge.Provider, 0, len(b.providers))
	for _, p := range b.providers {
		if p.SupportsRoute(params.FromChain, params.ToChain) {
			applicable = append(applicable, p)
		}
	}

	results := make([]*types.BridgeQuote, len(applicable))
	var wg sync.WaitGroup
	for i, p := range applicable {
		wg.Add(1)
		go func(i int, p bridge.Provider) {
			defer wg.Done()
			quote, err := p.Quote(ctx, params)
			if err != nil {
				b.logger.Warn("bridge quote failed",
					"provider", p.Name(),
					"route", fmt.Sprintf("%d -> %d", params.FromChain, params.ToChain),
					"error", err)
				return
			}
			results[i] = quote
		}(i, p)
	}
	wg.Wait()

	quotes := make([]*types.BridgeQuote, 0, len(results))
	for _, r := range results {
		if r != nil {
			quotes = append(quotes, r)
		}
	}

	sort.SliceStable(quotes, func(i, j int) bool {
		return quotes[i].ToAmount.Cmp(quotes[j].ToAmount) > 0
	})
	return quotes
}

// FindBestRoute picks the best bridge quote: highest ToAmount by
// default, or fastest estimated completion when prioritizeSpeed is set.
// This is the system's one caller-controlled optimization objective.
func (b *Bridges) FindBestRoute(ctx context.Context, params types.BridgeParams, prioritizeSpeed bool) (*types.BridgeQuote, error) {
	quotes := b.GetAllQuotes(ctx, params)
	if len(quotes) == 0 {
		return nil, fmt.Errorf("every provider failed for %d -> %d: %w", params.FromChain, params.ToChain, ErrNoBridgeQuotes)
	}

	if prioritizeSpeed {
		sort.SliceStable(quotes, func(i, j int) bool {
			return quotes[i].EstimatedTimeMinutes < quotes[j].EstimatedTimeMinutes
		})
	}
	return quotes[0], nil
}

// ExecuteBestBridge finds the best route and executes the transfer on
// its provider. The result carries a provider-namespaced tracking id.
func (b *Bridges) ExecuteBestBridge(ctx context.Context, params types.BridgeParams, prioritizeSpeed bool, s signer.TxSigner) (*types.BridgeResult, error) {
	best, err := b.FindBestRoute(ctx, params, prioritizeSpeed)
	if err != nil {
		return nil, err
	}

	provider, ok := b.Provider(best.Provider)
	if !ok {
		return nil, fmt.Errorf("winning provider %s not registered", best.Provider)
	}

	b.logger.Info("executing bridge on best provider",
		"provider", best.Provider,
		"toAmount", best.ToAmount.String(),
		"etaMinutes", best.EstimatedTimeMinutes)

	result, err := provider.Execute(ctx, params, s)
	if err != nil {
		return nil, fmt.Errorf("bridge execution on %s failed: %w", best.Provider, err)
	}
	return result, nil
}
