package router

import (
	"context"
	"fmt"
	"log/slog"

	"crossroute/pkg/aggregator"
	"crossroute/pkg/bridge"
	"crossroute/pkg/types"
)

// Tracker polls bridge providers for in-flight transfer completion. Its
// methods are idempotent and have no side effects beyond the refreshed
// in-memory status.
type Tracker struct {
	bridges *aggregator.Bridges
	logger  *slog.Logger
}

// NewTracker creates a status tracker over the registered providers.
func NewTracker(bridges *aggregator.Bridges, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		bridges: bridges,
		logger:  logger.With("component", "tracker"),
	}
}

// TrackBridgeStatus resolves a provider-namespaced tracking id and polls
// the originating provider for the transfer's current status.
func (t *Tracker) TrackBridgeStatus(ctx context.Context, trackingID string) (types.BridgeTxStatus, error) {
	name, ref, err := bridge.SplitTrackingID(trackingID)
	if err != nil {
		return "", err
	}

	provider, ok := t.bridges.Provider(name)
	if !ok {
		return "", fmt.Errorf("unknown bridge provider %q in tracking id %q", name, trackingID)
	}

	status, err := provider.Status(ctx, ref)
	if err != nil {
		return "", fmt.Errorf("status poll on %s failed: %w", name, err)
	}
	return status, nil
}

// TrackCrossChainSwap refreshes an executed plan's bridge result and the
// matching step from the provider. A plan with no submitted bridge is
// left untouched.
func (t *Tracker) TrackCrossChainSwap(ctx context.Context, result *types.CrossChainSwapResult) error {
	if result.BridgeResult == nil {
		return nil
	}

	status, err := t.TrackBridgeStatus(ctx, result.BridgeResult.TrackingID)
	if err != nil {
		return err
	}
	result.BridgeResult.Status = status

	step := result.BridgeStep()
	if step == nil {
		return nil
	}
	switch status {
	case types.BridgeFailed, types.BridgeRefunded:
		step.Status = types.StepFailed
	case types.BridgeCompleted:
		step.Status = types.StepCompleted
	}

	t.logger.Debug("refreshed bridge status",
		"trackingId", result.BridgeResult.TrackingID,
		"status", status)
	return nil
}
