package types

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Token identifies an on-chain asset. Identity is (Address, ChainID);
// the same logical asset deployed on two chains is two distinct tokens.
type Token struct {
	Address  common.Address `json:"address"`
	Symbol   string         `json:"symbol"`
	Name     string         `json:"name"`
	Decimals uint8          `json:"decimals"`
	ChainID  uint64         `json:"chain_id"`
}

// Equal reports whether two tokens refer to the same on-chain asset.
func (t Token) Equal(other Token) bool {
	return t.Address == other.Address && t.ChainID == other.ChainID
}

// String returns a short human-readable identifier like "USDC@1".
func (t Token) String() string {
	return fmt.Sprintf("%s@%d", t.Symbol, t.ChainID)
}

// TradeParams describes a single same-chain swap request.
type TradeParams struct {
	TokenIn      Token          `json:"token_in"`
	TokenOut     Token          `json:"token_out"`
	AmountIn     *big.Int       `json:"amount_in"`      // smallest units of TokenIn
	SlippageBps  uint16         `json:"slippage_bps"`   // basis points, 100 = 1%
	Deadline     *time.Time     `json:"deadline,omitempty"`
	Recipient    common.Address `json:"recipient,omitempty"`
}

// Validate checks the trade parameters for internal consistency.
func (p *TradeParams) Validate() error {
	if p.TokenIn.ChainID != p.TokenOut.ChainID {
		return fmt.Errorf("tokenIn chain %d and tokenOut chain %d differ: same-chain trade required", p.TokenIn.ChainID, p.TokenOut.ChainID)
	}
	if p.TokenIn.Equal(p.TokenOut) {
		return fmt.Errorf("tokenIn and tokenOut are the same token")
	}
	if p.AmountIn == nil || p.AmountIn.Sign() <= 0 {
		return fmt.Errorf("amountIn must be greater than 0")
	}
	if p.SlippageBps > 10000 {
		return fmt.Errorf("slippage %d bps exceeds 100%%", p.SlippageBps)
	}
	return nil
}

// QuoteResult is a single venue's answer to a TradeParams request.
// It is ephemeral: valid only for a short venue-defined window.
type QuoteResult struct {
	AmountOut        *big.Int         `json:"amount_out"`
	PriceImpactPct   float64          `json:"price_impact_pct"`
	Route            []common.Address `json:"route"`
	GasEstimate      uint64           `json:"gas_estimate"`
	MinimumAmountOut *big.Int         `json:"minimum_amount_out"`
}

// MinimumOut applies a slippage tolerance to an output amount:
// amountOut * (1 - slippageBps/10000), rounded down.
func MinimumOut(amountOut *big.Int, slippageBps uint16) *big.Int {
	if amountOut == nil {
		return nil
	}
	min := new(big.Int).Mul(amountOut, big.NewInt(int64(10000-slippageBps)))
	return min.Div(min, big.NewInt(10000))
}

// TradeResult records an executed same-chain swap.
type TradeResult struct {
	TxHash         string       `json:"tx_hash"`
	ApprovalTxHash string       `json:"approval_tx_hash,omitempty"`
	AmountIn       *big.Int     `json:"amount_in"`
	AmountOut      *big.Int     `json:"amount_out"` // parsed from the swap event, or the quoted amount if unparseable
	Quote          *QuoteResult `json:"quote"`      // the quote the trade was executed against
}

// BridgeParams describes a cross-chain transfer request.
type BridgeParams struct {
	FromChain   uint64         `json:"from_chain"`
	ToChain     uint64         `json:"to_chain"`
	FromToken   Token          `json:"from_token"`
	ToToken     Token          `json:"to_token"`
	Amount      *big.Int       `json:"amount"` // smallest units of FromToken
	Recipient   common.Address `json:"recipient"`
	SlippageBps uint16         `json:"slippage_bps,omitempty"`
}

// Validate checks the bridge parameters for internal consistency.
func (p *BridgeParams) Validate() error {
	if p.FromChain == p.ToChain {
		return fmt.Errorf("fromChain and toChain are both %d: cross-chain transfer required", p.FromChain)
	}
	if p.Amount == nil || p.Amount.Sign() <= 0 {
		return fmt.Errorf("amount must be greater than 0")
	}
	if p.Recipient == (common.Address{}) {
		return fmt.Errorf("recipient is required")
	}
	return nil
}

// BridgeFees breaks down the cost of a bridge transfer.
type BridgeFees struct {
	BridgeFee   *big.Int        `json:"bridge_fee"` // smallest units of FromToken
	GasFee      *big.Int        `json:"gas_fee"`    // smallest units of the source chain's native token
	TotalFeeUSD decimal.Decimal `json:"total_fee_usd"`
}

// BridgeQuote is a single provider's answer to a BridgeParams request.
type BridgeQuote struct {
	Provider             string     `json:"provider"`
	FromAmount           *big.Int   `json:"from_amount"`
	ToAmount             *big.Int   `json:"to_amount"`
	EstimatedTimeMinutes int        `json:"estimated_time_minutes"`
	Fees                 BridgeFees `json:"fees"`
	Route                string     `json:"route"`
	ConfidenceScore      int        `json:"confidence_score"`
	GasEstimate          uint64     `json:"gas_estimate"`
}

// BridgeTxStatus is the provider-reported state of an in-flight transfer.
type BridgeTxStatus string

const (
	BridgePending   BridgeTxStatus = "pending"
	BridgeCompleted BridgeTxStatus = "completed"
	BridgeFailed    BridgeTxStatus = "failed"
	BridgeRefunded  BridgeTxStatus = "refunded"
)

// Terminal reports whether the transfer can no longer change state.
func (s BridgeTxStatus) Terminal() bool {
	return s == BridgeCompleted || s == BridgeFailed || s == BridgeRefunded
}

// BridgeResult records a submitted bridge transfer. TrackingID is
// provider-namespaced ("{provider}_{txHash}") so status polling can be
// routed back to the provider that executed the transfer.
type BridgeResult struct {
	Provider   string         `json:"provider"`
	TxHash     string         `json:"tx_hash"`
	TrackingID string         `json:"tracking_id"`
	FromAmount *big.Int       `json:"from_amount"`
	ToAmount   *big.Int       `json:"to_amount"` // estimated until the transfer completes
	Status     BridgeTxStatus `json:"status"`
}

// CrossChainSwapParams describes a swap whose endpoints live on
// different chains, routed through an intermediate bridge token.
type CrossChainSwapParams struct {
	FromChain       uint64         `json:"from_chain"`
	ToChain         uint64         `json:"to_chain"`
	TokenIn         Token          `json:"token_in"`
	TokenOut        Token          `json:"token_out"`
	AmountIn        *big.Int       `json:"amount_in"`
	SlippageBps     uint16         `json:"slippage_bps"`
	Recipient       common.Address `json:"recipient"`
	PrioritizeSpeed bool           `json:"prioritize_speed"`
}

// Validate checks the cross-chain swap parameters.
func (p *CrossChainSwapParams) Validate() error {
	if p.FromChain == p.ToChain {
		return fmt.Errorf("fromChain and toChain are both %d: use a same-chain trade instead", p.FromChain)
	}
	if p.TokenIn.ChainID != p.FromChain {
		return fmt.Errorf("tokenIn lives on chain %d, expected %d", p.TokenIn.ChainID, p.FromChain)
	}
	if p.TokenOut.ChainID != p.ToChain {
		return fmt.Errorf("tokenOut lives on chain %d, expected %d", p.TokenOut.ChainID, p.ToChain)
	}
	if p.AmountIn == nil || p.AmountIn.Sign() <= 0 {
		return fmt.Errorf("amountIn must be greater than 0")
	}
	return nil
}

// StepStatus is the execution state of a single plan step.
type StepStatus string

const (
	StepPending   StepStatus = "pending"
	StepCompleted StepStatus = "completed"
	StepFailed    StepStatus = "failed"
)

// StepAction identifies what a plan step does.
type StepAction string

const (
	ActionSwap   StepAction = "swap"
	ActionBridge StepAction = "bridge"
)

// SwapStep is one ordered step of a cross-chain plan. Steps are mutated
// in place as execution advances.
type SwapStep struct {
	StepNumber           int        `json:"step_number"`
	Action               StepAction `json:"action"`
	ChainID              uint64     `json:"chain_id"` // 0 for cross-chain (bridge) steps
	Protocol             string     `json:"protocol"`
	TxHash               string     `json:"tx_hash,omitempty"`
	Status               StepStatus `json:"status"`
	EstimatedTimeMinutes int        `json:"estimated_time_minutes"`
}

// CrossChainSwapResult is the composed plan for a cross-chain swap and,
// after execution, the record of what actually happened. Steps holds
// 1, 2 or 3 entries depending on which endpoints equal the bridge token.
type CrossChainSwapResult struct {
	SourceSwap           *QuoteResult `json:"source_swap,omitempty"`
	Bridge               *BridgeQuote `json:"bridge,omitempty"`
	DestSwap             *QuoteResult `json:"dest_swap,omitempty"`
	BridgeResult         *BridgeResult `json:"bridge_result,omitempty"`
	TotalGasEstimate     uint64       `json:"total_gas_estimate"`
	EstimatedTimeMinutes int          `json:"estimated_time_minutes"`
	Steps                []*SwapStep  `json:"steps"`
}

// BridgeStep returns the bridge step of the plan, or nil if absent.
func (r *CrossChainSwapResult) BridgeStep() *SwapStep {
	for _, s := range r.Steps {
		if s.Action == ActionBridge {
			return s
		}
	}
	return nil
}
