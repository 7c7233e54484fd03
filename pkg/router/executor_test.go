package router

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crossroute/pkg/bridge"
	"crossroute/pkg/types"
	"crossroute/pkg/venue"
)

var testRecipient = common.HexToAddress("0x00000000000000000000000000000000000000aa")

func newTestExecutor(venues []venue.Adapter, providers []bridge.Provider) *Executor {
	composer, quotes, bridges := newTestComposer(venues, providers, defaultStables())
	return NewExecutor(composer, quotes, bridges, discard())
}

func TestExecuteCrossChainSwapTwoSteps(t *testing.T) {
	// The swap settles for slightly less than quoted; the bridge must be
	// fed the actual output, not the quote.
	actualOut := big.NewInt(995_000_000)
	ethVenue := &stubVenue{
		name:    "uniswap_v2",
		chainID: 1,
		outs:    map[string]*big.Int{"WETH->USDC": big.NewInt(1_000_000_000)},
		execOut: actualOut,
	}
	provider := &stubBridge{name: "meson", toAmount: new(big.Int).Mul(big.NewInt(990), exp10(18)), eta: 10}

	executor := newTestExecutor([]venue.Adapter{ethVenue}, []bridge.Provider{provider})

	result, err := executor.ExecuteCrossChainSwap(context.Background(), types.CrossChainSwapParams{
		FromChain: 1,
		ToChain:   56,
		TokenIn:   weth1,
		TokenOut:  usdc56,
		AmountIn:  exp10(18),
		Recipient: testRecipient,
	}, nil)
	require.NoError(t, err)

	require.Len(t, result.Steps, 2)
	assert.Equal(t, types.StepCompleted, result.Steps[0].Status)
	assert.Equal(t, "0xswap_uniswap_v2", result.Steps[0].TxHash)
	assert.Equal(t, types.StepCompleted, result.Steps[1].Status)
	assert.Equal(t, "meson", result.Steps[1].Protocol)

	require.NotNil(t, result.BridgeResult)
	assert.Equal(t, "meson_0xbridge_meson", result.BridgeResult.TrackingID)

	require.NotNil(t, provider.lastExec)
	assert.Equal(t, actualOut, provider.lastExec.Amount)
	assert.Equal(t, testRecipient, provider.lastExec.Recipient)
}

func TestExecuteCrossChainSwapSourceSwapFails(t *testing.T) {
	ethVenue := &stubVenue{
		name:    "uniswap_v2",
		chainID: 1,
		outs:    map[string]*big.Int{"WETH->USDC": big.NewInt(1_000_000_000)},
		execErr: venue.ErrSlippageExceeded,
	}
	provider := &stubBridge{name: "meson", toAmount: new(big.Int).Mul(big.NewInt(990), exp10(18)), eta: 10}

	executor := newTestExecutor([]venue.Adapter{ethVenue}, []bridge.Provider{provider})

	result, err := executor.ExecuteCrossChainSwap(context.Background(), types.CrossChainSwapParams{
		FromChain: 1,
		ToChain:   56,
		TokenIn:   weth1,
		TokenOut:  usdc56,
		AmountIn:  exp10(18),
		Recipient: testRecipient,
	}, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, venue.ErrSlippageExceeded)

	// The partial result still reports exactly what happened.
	require.NotNil(t, result)
	assert.Equal(t, types.StepFailed, result.Steps[0].Status)
	assert.Equal(t, types.StepPending, result.Steps[1].Status)
	assert.Nil(t, result.BridgeResult)
	assert.Nil(t, provider.lastExec)
}

func TestExecuteCrossChainSwapBridgeFailsAfterSwap(t *testing.T) {
	ethVenue := &stubVenue{
		name:    "uniswap_v2",
		chainID: 1,
		outs:    map[string]*big.Int{"WETH->USDC": big.NewInt(1_000_000_000)},
	}
	provider := &stubBridge{
		name:     "meson",
		toAmount: new(big.Int).Mul(big.NewInt(990), exp10(18)),
		eta:      10,
		execErr:  errors.New("relayer rejected the transfer"),
	}

	executor := newTestExecutor([]venue.Adapter{ethVenue}, []bridge.Provider{provider})

	result, err := executor.ExecuteCrossChainSwap(context.Background(), types.CrossChainSwapParams{
		FromChain: 1,
		ToChain:   56,
		TokenIn:   weth1,
		TokenOut:  usdc56,
		AmountIn:  exp10(18),
		Recipient: testRecipient,
	}, nil)

	require.Error(t, err)
	require.NotNil(t, result)

	// The completed source swap keeps its record even though the plan
	// failed at step 2.
	assert.Equal(t, types.StepCompleted, result.Steps[0].Status)
	assert.Equal(t, "0xswap_uniswap_v2", result.Steps[0].TxHash)
	assert.Equal(t, types.StepFailed, result.Steps[1].Status)
	assert.Nil(t, result.BridgeResult)
}

func TestExecuteCrossChainSwapDirectBridge(t *testing.T) {
	provider := &stubBridge{name: "meson", toAmount: new(big.Int).Mul(big.NewInt(99), exp10(18)), eta: 10}
	executor := newTestExecutor(nil, []bridge.Provider{provider})

	amount := big.NewInt(100_000_000)
	result, err := executor.ExecuteCrossChainSwap(context.Background(), types.CrossChainSwapParams{
		FromChain: 1,
		ToChain:   56,
		TokenIn:   usdc1,
		TokenOut:  usdc56,
		AmountIn:  amount,
		Recipient: testRecipient,
	}, nil)
	require.NoError(t, err)

	require.Len(t, result.Steps, 1)
	assert.Equal(t, types.StepCompleted, result.Steps[0].Status)

	// With no source swap the full input goes straight to the bridge.
	require.NotNil(t, provider.lastExec)
	assert.Equal(t, amount, provider.lastExec.Amount)
}
