package venue

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"crossroute/pkg/signer"
	"crossroute/pkg/types"
)

const v3QuoterABI = `[
	{"inputs":[{"components":[{"name":"tokenIn","type":"address"},{"name":"tokenOut","type":"address"},{"name":"amountIn","type":"uint256"},{"name":"fee","type":"uint24"},{"name":"sqrtPriceLimitX96","type":"uint160"}],"name":"params","type":"tuple"}],"name":"quoteExactInputSingle","outputs":[{"name":"amountOut","type":"uint256"},{"name":"sqrtPriceX96After","type":"uint160"},{"name":"initializedTicksCrossed","type":"uint32"},{"name":"gasEstimate","type":"uint256"}],"stateMutability":"nonpayable","type":"function"}
]`

const v3RouterABI = `[
	{"inputs":[{"components":[{"name":"tokenIn","type":"address"},{"name":"tokenOut","type":"address"},{"name":"fee","type":"uint24"},{"name":"recipient","type":"address"},{"name":"deadline","type":"uint256"},{"name":"amountIn","type":"uint256"},{"name":"amountOutMinimum","type":"uint256"},{"name":"sqrtPriceLimitX96","type":"uint160"}],"name":"params","type":"tuple"}],"name":"exactInputSingle","outputs":[{"name":"amountOut","type":"uint256"}],"stateMutability":"payable","type":"function"}
]`

// DefaultV3FeeTier is the 0.30% pool tier, the deepest tier for most pairs.
const DefaultV3FeeTier = 3000

// V3Adapter trades against a Uniswap V3 deployment on one chain, quoting
// through QuoterV2 and executing through the swap router.
type V3Adapter struct {
	name    string
	chainID uint64
	client  *ethclient.Client
	quoter  common.Address
	router  common.Address
	feeTier uint32

	quoterABI abi.ABI
	routerABI abi.ABI
}

// NewV3Adapter creates an adapter for one V3 deployment. feeTier selects
// the pool fee in hundredths of a bip (e.g. 3000 = 0.30%).
func NewV3Adapter(name string, chainID uint64, client *ethclient.Client, quoter, router common.Address, feeTier uint32) (*V3Adapter, error) {
	quoterParsed, err := abi.JSON(strings.NewReader(v3QuoterABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse quoter ABI: %w", err)
	}
	routerParsed, err := abi.JSON(strings.NewReader(v3RouterABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse router ABI: %w", err)
	}
	if feeTier == 0 {
		feeTier = DefaultV3FeeTier
	}
	return &V3Adapter{
		name:      name,
		chainID:   chainID,
		client:    client,
		quoter:    quoter,
		router:    router,
		feeTier:   feeTier,
		quoterABI: quoterParsed,
		routerABI: routerParsed,
	}, nil
}

// Name returns the venue identifier.
func (a *V3Adapter) Name() string { return a.name }

// Supports reports whether this deployment serves the chain.
func (a *V3Adapter) Supports(chainID uint64) bool { return chainID == a.chainID }

// Quote fetches a live quote through QuoterV2. The quoter's own gas
// estimate return value feeds the result's GasEstimate.
func (a *V3Adapter) Quote(ctx context.Context, params types.TradeParams) (*types.QuoteResult, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if !a.Supports(params.TokenIn.ChainID) {
		return nil, fmt.Errorf("%s does not serve chain %d: %w", a.name, params.TokenIn.ChainID, ErrUnsupportedChain)
	}

	quoteParams := struct {
		TokenIn           common.Address
		TokenOut          common.Address
		AmountIn          *big.Int
		Fee               *big.Int
		SqrtPriceLimitX96 *big.Int
	}{
		TokenIn:           params.TokenIn.Address,
		TokenOut:          params.TokenOut.Address,
		AmountIn:          params.AmountIn,
		Fee:               big.NewInt(int64(a.feeTier)),
		SqrtPriceLimitX96: big.NewInt(0),
	}

	data, err := a.quoterABI.Pack("quoteExactInputSingle", quoteParams)
	if err != nil {
		return nil, fmt.Errorf("failed to pack quote data: %w", err)
	}

	result, err := a.client.CallContract(ctx, ethereum.CallMsg{To: &a.quoter, Data: data}, nil)
	if err != nil {
		// The quoter reverts when the pool does not exist or holds no
		// liquidity at this tier.
		return nil, fmt.Errorf("%s quote reverted: %v: %w", a.name, err, ErrNoLiquidity)
	}

	unpacked, err := a.quoterABI.Unpack("quoteExactInputSingle", result)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack quote result: %w", err)
	}
	amountOut, ok := unpacked[0].(*big.Int)
	if !ok || amountOut.Sign() == 0 {
		return nil, fmt.Errorf("%s quoted zero output: %w", a.name, ErrNoLiquidity)
	}

	gasEstimate := uint64(0)
	if ge, ok := unpacked[3].(*big.Int); ok {
		gasEstimate = ge.Uint64()
	}

	return &types.QuoteResult{
		AmountOut:        amountOut,
		PriceImpactPct:   priceImpact(params.AmountIn, amountOut, params.TokenIn.Decimals, params.TokenOut.Decimals),
		Route:            []common.Address{params.TokenIn.Address, params.TokenOut.Address},
		GasEstimate:      gasEstimate,
		MinimumAmountOut: types.MinimumOut(amountOut, params.SlippageBps),
	}, nil
}

// Execute approves the router if needed, re-quotes, submits
// exactInputSingle and parses the actual output from the receipt.
func (a *V3Adapter) Execute(ctx context.Context, params types.TradeParams, s signer.TxSigner) (*types.TradeResult, error) {
	if !a.Supports(params.TokenIn.ChainID) {
		return nil, fmt.Errorf("%s does not serve chain %d: %w", a.name, params.TokenIn.ChainID, ErrUnsupportedChain)
	}

	approvalTx, err := approveIfNeeded(ctx, a.client, a.chainID, params.TokenIn.Address, a.router, params.AmountIn, s)
	if err != nil {
		return nil, fmt.Errorf("approval failed: %w", err)
	}

	quote, err := a.Quote(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("pre-trade quote failed: %w", err)
	}

	recipient := params.Recipient
	if recipient == (common.Address{}) {
		recipient = s.Address()
	}
	deadline := time.Now().Add(defaultDeadline)
	if params.Deadline != nil {
		deadline = *params.Deadline
	}

	swapParams := struct {
		TokenIn           common.Address
		TokenOut          common.Address
		Fee               *big.Int
		Recipient         common.Address
		Deadline          *big.Int
		AmountIn          *big.Int
		AmountOutMinimum  *big.Int
		SqrtPriceLimitX96 *big.Int
	}{
		TokenIn:           params.TokenIn.Address,
		TokenOut:          params.TokenOut.Address,
		Fee:               big.NewInt(int64(a.feeTier)),
		Recipient:         recipient,
		Deadline:          big.NewInt(deadline.Unix()),
		AmountIn:          params.AmountIn,
		AmountOutMinimum:  quote.MinimumAmountOut,
		SqrtPriceLimitX96: big.NewInt(0),
	}

	data, err := a.routerABI.Pack("exactInputSingle", swapParams)
	if err != nil {
		return nil, fmt.Errorf("failed to pack swap data: %w", err)
	}

	tx, err := buildAndSignTx(ctx, a.client, a.chainID, a.router, big.NewInt(0), data, s)
	if err != nil {
		return nil, fmt.Errorf("failed to build swap: %w", err)
	}
	if err := a.client.SendTransaction(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to send swap: %w", err)
	}

	receipt, err := bind.WaitMined(ctx, a.client, tx)
	if err != nil {
		return nil, fmt.Errorf("failed waiting for swap %s: %w", tx.Hash().Hex(), err)
	}
	if receipt.Status != ethtypes.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("swap %s reverted: %w", tx.Hash().Hex(), ErrSlippageExceeded)
	}

	amountOut := receiptOutputAmount(receipt, params.TokenOut.Address, recipient)
	if amountOut == nil {
		amountOut = quote.AmountOut
	}

	return &types.TradeResult{
		TxHash:         tx.Hash().Hex(),
		ApprovalTxHash: approvalTx,
		AmountIn:       params.AmountIn,
		AmountOut:      amountOut,
		Quote:          quote,
	}, nil
}
