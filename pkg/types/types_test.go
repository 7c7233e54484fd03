package types

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	wethEth = Token{Address: common.HexToAddress("0x01"), Symbol: "WETH", Decimals: 18, ChainID: 1}
	usdcEth = Token{Address: common.HexToAddress("0x02"), Symbol: "USDC", Decimals: 6, ChainID: 1}
	usdcBsc = Token{Address: common.HexToAddress("0x03"), Symbol: "USDC", Decimals: 18, ChainID: 56}
)

func TestTokenIdentity(t *testing.T) {
	// Same symbol on two chains is two distinct tokens.
	assert.False(t, usdcEth.Equal(usdcBsc))
	assert.True(t, usdcEth.Equal(Token{Address: usdcEth.Address, ChainID: 1}))
	assert.Equal(t, "USDC@1", usdcEth.String())
}

func TestTradeParamsValidate(t *testing.T) {
	valid := TradeParams{TokenIn: wethEth, TokenOut: usdcEth, AmountIn: big.NewInt(1), SlippageBps: 50}
	require.NoError(t, valid.Validate())

	crossChain := valid
	crossChain.TokenOut = usdcBsc
	assert.Error(t, crossChain.Validate())

	sameToken := valid
	sameToken.TokenOut = wethEth
	assert.Error(t, sameToken.Validate())

	zeroAmount := valid
	zeroAmount.AmountIn = big.NewInt(0)
	assert.Error(t, zeroAmount.Validate())

	nilAmount := valid
	nilAmount.AmountIn = nil
	assert.Error(t, nilAmount.Validate())

	excessSlippage := valid
	excessSlippage.SlippageBps = 10001
	assert.Error(t, excessSlippage.Validate())
}

func TestMinimumOut(t *testing.T) {
	out := big.NewInt(10_000)

	// Zero tolerance keeps the full amount.
	assert.Equal(t, big.NewInt(10_000), MinimumOut(out, 0))

	// 50 bps shaves 0.5%.
	assert.Equal(t, big.NewInt(9_950), MinimumOut(out, 50))

	// Rounding is always down.
	assert.Equal(t, big.NewInt(994), MinimumOut(big.NewInt(999), 50))

	assert.Nil(t, MinimumOut(nil, 50))
}

func TestBridgeParamsValidate(t *testing.T) {
	recipient := common.HexToAddress("0xaa")
	valid := BridgeParams{FromChain: 1, ToChain: 56, FromToken: usdcEth, ToToken: usdcBsc, Amount: big.NewInt(1), Recipient: recipient}
	require.NoError(t, valid.Validate())

	sameChain := valid
	sameChain.ToChain = 1
	assert.Error(t, sameChain.Validate())

	noRecipient := valid
	noRecipient.Recipient = common.Address{}
	assert.Error(t, noRecipient.Validate())

	zeroAmount := valid
	zeroAmount.Amount = big.NewInt(0)
	assert.Error(t, zeroAmount.Validate())
}

func TestCrossChainSwapParamsValidate(t *testing.T) {
	valid := CrossChainSwapParams{FromChain: 1, ToChain: 56, TokenIn: wethEth, TokenOut: usdcBsc, AmountIn: big.NewInt(1)}
	require.NoError(t, valid.Validate())

	mismatchedIn := valid
	mismatchedIn.TokenIn = usdcBsc
	assert.Error(t, mismatchedIn.Validate())

	mismatchedOut := valid
	mismatchedOut.TokenOut = usdcEth
	assert.Error(t, mismatchedOut.Validate())

	sameChain := valid
	sameChain.ToChain = 1
	assert.Error(t, sameChain.Validate())
}

func TestBridgeTxStatusTerminal(t *testing.T) {
	assert.False(t, BridgePending.Terminal())
	assert.True(t, BridgeCompleted.Terminal())
	assert.True(t, BridgeFailed.Terminal())
	assert.True(t, BridgeRefunded.Terminal())
}

func TestBridgeStepLookup(t *testing.T) {
	result := &CrossChainSwapResult{Steps: []*SwapStep{
		{StepNumber: 1, Action: ActionSwap},
		{StepNumber: 2, Action: ActionBridge},
		{StepNumber: 3, Action: ActionSwap},
	}}
	step := result.BridgeStep()
	require.NotNil(t, step)
	assert.Equal(t, 2, step.StepNumber)

	assert.Nil(t, (&CrossChainSwapResult{}).BridgeStep())
}
