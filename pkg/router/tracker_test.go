package router

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crossroute/pkg/aggregator"
	"crossroute/pkg/bridge"
	"crossroute/pkg/types"
)

func newTestTracker(providers ...bridge.Provider) *Tracker {
	return NewTracker(aggregator.NewBridges(providers, discard()), discard())
}

func trackedResult(trackingID string) *types.CrossChainSwapResult {
	return &types.CrossChainSwapResult{
		BridgeResult: &types.BridgeResult{
			Provider:   "meson",
			TrackingID: trackingID,
			Status:     types.BridgePending,
		},
		Steps: []*types.SwapStep{
			{StepNumber: 1, Action: types.ActionBridge, Status: types.StepPending},
		},
	}
}

func TestTrackBridgeStatusRoutesToProvider(t *testing.T) {
	provider := &stubBridge{name: "meson", status: types.BridgeCompleted}
	tracker := newTestTracker(provider)

	status, err := tracker.TrackBridgeStatus(context.Background(), "meson_0xabc")
	require.NoError(t, err)
	assert.Equal(t, types.BridgeCompleted, status)
	assert.Equal(t, []string{"0xabc"}, provider.statusRefs)
}

func TestTrackBridgeStatusMalformedID(t *testing.T) {
	tracker := newTestTracker(&stubBridge{name: "meson"})

	_, err := tracker.TrackBridgeStatus(context.Background(), "nounderscore")
	require.Error(t, err)
}

func TestTrackBridgeStatusUnknownProvider(t *testing.T) {
	tracker := newTestTracker(&stubBridge{name: "meson"})

	_, err := tracker.TrackBridgeStatus(context.Background(), "nope_0xabc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown bridge provider")
}

func TestTrackCrossChainSwapCompletes(t *testing.T) {
	provider := &stubBridge{name: "meson", status: types.BridgeCompleted}
	tracker := newTestTracker(provider)

	result := trackedResult("meson_0xabc")
	require.NoError(t, tracker.TrackCrossChainSwap(context.Background(), result))

	assert.Equal(t, types.BridgeCompleted, result.BridgeResult.Status)
	assert.Equal(t, types.StepCompleted, result.Steps[0].Status)

	// Polling again is harmless.
	require.NoError(t, tracker.TrackCrossChainSwap(context.Background(), result))
	assert.Equal(t, types.StepCompleted, result.Steps[0].Status)
	assert.Len(t, provider.statusRefs, 2)
}

func TestTrackCrossChainSwapRefundMarksStepFailed(t *testing.T) {
	provider := &stubBridge{name: "meson", status: types.BridgeRefunded}
	tracker := newTestTracker(provider)

	result := trackedResult("meson_0xabc")
	require.NoError(t, tracker.TrackCrossChainSwap(context.Background(), result))

	assert.Equal(t, types.BridgeRefunded, result.BridgeResult.Status)
	assert.Equal(t, types.StepFailed, result.Steps[0].Status)
}

func TestTrackCrossChainSwapPendingLeavesStep(t *testing.T) {
	provider := &stubBridge{name: "meson", status: types.BridgePending}
	tracker := newTestTracker(provider)

	result := trackedResult("meson_0xabc")
	require.NoError(t, tracker.TrackCrossChainSwap(context.Background(), result))

	assert.Equal(t, types.BridgePending, result.BridgeResult.Status)
	assert.Equal(t, types.StepPending, result.Steps[0].Status)
}

func TestTrackCrossChainSwapNoBridgeIsNoop(t *testing.T) {
	tracker := newTestTracker(&stubBridge{name: "meson"})
	require.NoError(t, tracker.TrackCrossChainSwap(context.Background(), &types.CrossChainSwapResult{}))
}
