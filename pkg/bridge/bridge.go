// Package bridge defines the provider contract for cross-chain transfer
// protocols and implements it for the supported bridges.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"crossroute/pkg/signer"
	"crossroute/pkg/types"
)

var (
	// ErrUnsupportedRoute means the provider does not serve one of the
	// two chains. Aggregation filters it silently.
	ErrUnsupportedRoute = errors.New("route not supported by provider")

	// ErrQuoteUnavailable means the provider could not price the
	// transfer (no liquidity, asset not listed, provider outage).
	ErrQuoteUnavailable = errors.New("bridge quote unavailable")
)

// Provider quotes and executes a single cross-chain transfer on one
// bridge protocol. Quote calls are safe to run concurrently.
type Provider interface {
	// Name returns the provider identifier, e.g. "butter".
	Name() string

	// SupportsRoute reports whether the provider serves both chains.
	SupportsRoute(fromChain, toChain uint64) bool

	// Quote fetches a live transfer quote.
	Quote(ctx context.Context, params types.BridgeParams) (*types.BridgeQuote, error)

	// Execute submits the transfer's source-chain transaction. The
	// returned result carries a provider-namespaced tracking id for
	// later status polling.
	Execute(ctx context.Context, params types.BridgeParams, s signer.TxSigner) (*types.BridgeResult, error)

	// Status polls the provider for the state of an in-flight transfer,
	// identified by the provider-specific reference from the tracking id.
	Status(ctx context.Context, ref string) (types.BridgeTxStatus, error)
}

// TrackingID builds the provider-namespaced identifier recorded on a
// BridgeResult: "{provider}_{ref}".
func TrackingID(provider, ref string) string {
	return provider + "_" + ref
}

// SplitTrackingID splits a tracking id into its provider name and the
// provider-specific reference.
func SplitTrackingID(id string) (provider, ref string, err error) {
	parts := strings.SplitN(id, "_", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("malformed tracking id %q", id)
	}
	return parts[0], parts[1], nil
}
