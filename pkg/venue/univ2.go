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

const v2RouterABI = `[
	{"constant":true,"inputs":[{"name":"amountIn","type":"uint256"},{"name":"path","type":"address[]"}],"name":"getAmountsOut","outputs":[{"name":"amounts","type":"uint256[]"}],"type":"function"},
	{"constant":false,"inputs":[{"name":"amountIn","type":"uint256"},{"name":"amountOutMin","type":"uint256"},{"name":"path","type":"address[]"},{"name":"to","type":"address"},{"name":"deadline","type":"uint256"}],"name":"swapExactTokensForTokens","outputs":[{"name":"amounts","type":"uint256[]"}],"type":"function"}
]`

// v2SwapGas is the typical gas cost of a single-hop V2 swap, reported in
// quotes where the router exposes no gas figure of its own.
const v2SwapGas = 150_000

// defaultDeadline bounds swap validity when the caller sets none.
const defaultDeadline = 20 * time.Minute

// V2Adapter trades against a Uniswap-V2-compatible router on one chain.
// The same type serves every V2 clone (Uniswap V2, PancakeSwap, ...);
// each deployment gets its own instance.
type V2Adapter struct {
	name    string
	chainID uint64
	client  *ethclient.Client
	router  common.Address
	abi     abi.ABI
}

// NewV2Adapter creates an adapter for one V2 router deployment.
func NewV2Adapter(name string, chainID uint64, client *ethclient.Client, router common.Address) (*V2Adapter, error) {
	parsed, err := abi.JSON(strings.NewReader(v2RouterABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse V2 router ABI: %w", err)
	}
	return &V2Adapter{
		name:    name,
		chainID: chainID,
		client:  client,
		router:  router,
		abi:     parsed,
	}, nil
}

// Name returns the venue identifier.
func (a *V2Adapter) Name() string { return a.name }

// Supports reports whether this deployment serves the chain.
func (a *V2Adapter) Supports(chainID uint64) bool { return chainID == a.chainID }

// Quote fetches a live getAmountsOut quote from the router contract.
func (a *V2Adapter) Quote(ctx context.Context, params types.TradeParams) (*types.QuoteResult, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if !a.Supports(params.TokenIn.ChainID) {
		return nil, fmt.Errorf("%s does not serve chain %d: %w", a.name, params.TokenIn.ChainID, ErrUnsupportedChain)
	}

	path := []common.Address{params.TokenIn.Address, params.TokenOut.Address}
	data, err := a.abi.Pack("getAmountsOut", params.AmountIn, path)
	if err != nil {
		return nil, fmt.Errorf("failed to pack getAmountsOut data: %w", err)
	}

	result, err := a.client.CallContract(ctx, ethereum.CallMsg{To: &a.router, Data: data}, nil)
	if err != nil {
		// getAmountsOut reverts when the pair has no reserves.
		return nil, fmt.Errorf("%s quote reverted: %v: %w", a.name, err, ErrNoLiquidity)
	}

	unpacked, err := a.abi.Unpack("getAmountsOut", result)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack getAmountsOut result: %w", err)
	}
	amounts, ok := unpacked[0].([]*big.Int)
	if !ok || len(amounts) < 2 {
		return nil, fmt.Errorf("%s returned malformed amounts: %w", a.name, ErrNoLiquidity)
	}

	amountOut := amounts[len(amounts)-1]
	if amountOut.Sign() == 0 {
		return nil, fmt.Errorf("%s quoted zero output: %w", a.name, ErrNoLiquidity)
	}

	return &types.QuoteResult{
		AmountOut:        amountOut,
		PriceImpactPct:   priceImpact(params.AmountIn, amountOut, params.TokenIn.Decimals, params.TokenOut.Decimals),
		Route:            path,
		GasEstimate:      v2SwapGas,
		MinimumAmountOut: types.MinimumOut(amountOut, params.SlippageBps),
	}, nil
}

// Execute approves the router if needed, re-quotes, submits the swap and
// parses the actual output from the receipt.
func (a *V2Adapter) Execute(ctx context.Context, params types.TradeParams, s signer.TxSigner) (*types.TradeResult, error) {
	if !a.Supports(params.TokenIn.ChainID) {
		return nil, fmt.Errorf("%s does not serve chain %d: %w", a.name, params.TokenIn.ChainID, ErrUnsupportedChain)
	}

	approvalTx, err := approveIfNeeded(ctx, a.client, a.chainID, params.TokenIn.Address, a.router, params.AmountIn, s)
	if err != nil {
		return nil, fmt.Errorf("approval failed: %w", err)
	}

	// Re-quote right before submission so the minimum reflects the
	// current block's price rather than a stale one.
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

	path := []common.Address{params.TokenIn.Address, params.TokenOut.Address}
	data, err := a.abi.Pack("swapExactTokensForTokens",
		params.AmountIn, quote.MinimumAmountOut, path, recipient, big.NewInt(deadline.Unix()))
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
