package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"

	"crossroute/pkg/signer"
	"crossroute/pkg/types"
)

const butterName = "butter"

// ButterProvider bridges through the Butter Network aggregation API. A
// route request returns both the priced route and the ready-to-submit
// source-chain transaction parameters.
type ButterProvider struct {
	baseURL string
	http    *http.Client
	chains  map[uint64]*ethclient.Client
}

// NewButterProvider creates a provider against the given API base URL.
// chains supplies the RPC connections used to submit transfers.
func NewButterProvider(baseURL string, chains map[uint64]*ethclient.Client) *ButterProvider {
	return &ButterProvider{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
		chains:  chains,
	}
}

// Name returns "butter".
func (p *ButterProvider) Name() string { return butterName }

// SupportsRoute reports whether both chains have an RPC connection
// configured; the API itself serves every chain it lists routes for.
func (p *ButterProvider) SupportsRoute(fromChain, toChain uint64) bool {
	_, fromOK := p.chains[fromChain]
	_, toOK := p.chains[toChain]
	return fromOK && toOK
}

// butterRoute is the priced-route section of the API envelope.
type butterRoute struct {
	BridgeFee struct {
		Amount string `json:"amount"`
	} `json:"bridgeFee"`
	GasFee struct {
		Amount string `json:"amount"`
		Symbol string `json:"symbol"`
	} `json:"gasFee"`
	GasEstimated  string `json:"gasEstimated"`
	TimeEstimated int    `json:"timeEstimated"`
	HasLiquidity  bool   `json:"hasLiquidity"`
	SrcChain      struct {
		TotalAmountOut string `json:"totalAmountOut"`
		Bridge         string `json:"bridge"`
	} `json:"srcChain"`
	MinAmountOut struct {
		Amount string `json:"amount"`
	} `json:"minAmountOut"`
	TotalAmountOut string `json:"totalAmountOut"`
	FeeUSD         string `json:"feeUsd"`
}

// butterEnvelope is the errno/message wrapper every endpoint responds with.
type butterEnvelope struct {
	Errno   int    `json:"errno"`
	Message string `json:"message"`
	Data    []struct {
		Route   butterRoute `json:"route"`
		TxParam []txParam   `json:"txParam"`
	} `json:"data"`
}

func (p *ButterProvider) fetchRoute(ctx context.Context, params types.BridgeParams) (*butterRoute, []txParam, error) {
	if !p.SupportsRoute(params.FromChain, params.ToChain) {
		return nil, nil, fmt.Errorf("butter does not serve %d -> %d: %w", params.FromChain, params.ToChain, ErrUnsupportedRoute)
	}

	slippage := params.SlippageBps
	if slippage == 0 {
		slippage = 100
	}

	q := url.Values{}
	q.Set("fromChainId", strconv.FormatUint(params.FromChain, 10))
	q.Set("toChainId", strconv.FormatUint(params.ToChain, 10))
	q.Set("tokenInAddress", params.FromToken.Address.Hex())
	q.Set("tokenOutAddress", params.ToToken.Address.Hex())
	q.Set("amount", params.Amount.String())
	q.Set("slippage", strconv.Itoa(int(slippage)))
	q.Set("receiver", params.Recipient.Hex())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/routeAndSwap?"+q.Encode(), nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build route request: %w", err)
	}

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("butter route request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read butter response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("butter API returned status %d: %s", resp.StatusCode, string(body))
	}

	var envelope butterEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, nil, fmt.Errorf("failed to decode butter response: %w", err)
	}
	if envelope.Errno != 0 {
		return nil, nil, fmt.Errorf("butter error %d: %s: %w", envelope.Errno, envelope.Message, ErrQuoteUnavailable)
	}
	if len(envelope.Data) == 0 {
		return nil, nil, fmt.Errorf("butter returned no routes: %w", ErrQuoteUnavailable)
	}

	route := envelope.Data[0].Route
	if !route.HasLiquidity {
		return nil, nil, fmt.Errorf("butter route has no liquidity: %w", ErrQuoteUnavailable)
	}
	return &route, envelope.Data[0].TxParam, nil
}

// Quote fetches a priced route from the aggregation API.
func (p *ButterProvider) Quote(ctx context.Context, params types.BridgeParams) (*types.BridgeQuote, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	route, _, err := p.fetchRoute(ctx, params)
	if err != nil {
		return nil, err
	}
	return p.toBridgeQuote(params, route)
}

func (p *ButterProvider) toBridgeQuote(params types.BridgeParams, route *butterRoute) (*types.BridgeQuote, error) {
	toAmount, err := scaledAmount(route.TotalAmountOut, params.ToToken.Decimals)
	if err != nil {
		return nil, fmt.Errorf("malformed totalAmountOut %q: %w", route.TotalAmountOut, ErrQuoteUnavailable)
	}

	bridgeFee, err := scaledAmount(route.BridgeFee.Amount, params.FromToken.Decimals)
	if err != nil {
		bridgeFee = big.NewInt(0)
	}
	gasFee, err := scaledAmount(route.GasFee.Amount, 18)
	if err != nil {
		gasFee = big.NewInt(0)
	}

	feeUSD := decimal.Zero
	if route.FeeUSD != "" {
		if parsed, err := decimal.NewFromString(route.FeeUSD); err == nil {
			feeUSD = parsed
		}
	}

	gasEstimate := uint64(0)
	if route.GasEstimated != "" {
		if parsed, err := strconv.ParseUint(route.GasEstimated, 10, 64); err == nil {
			gasEstimate = parsed
		}
	}

	minutes := route.TimeEstimated / 60
	if minutes < 1 {
		minutes = 1
	}

	return &types.BridgeQuote{
		Provider:             butterName,
		FromAmount:           params.Amount,
		ToAmount:             toAmount,
		EstimatedTimeMinutes: minutes,
		Fees: types.BridgeFees{
			BridgeFee:   bridgeFee,
			GasFee:      gasFee,
			TotalFeeUSD: feeUSD,
		},
		Route:           fmt.Sprintf("%s -> %s via %s", params.FromToken, params.ToToken, route.SrcChain.Bridge),
		ConfidenceScore: 85,
		GasEstimate:     gasEstimate,
	}, nil
}

// Execute fetches a fresh route and submits its source-chain transaction.
func (p *ButterProvider) Execute(ctx context.Context, params types.BridgeParams, s signer.TxSigner) (*types.BridgeResult, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	route, txParams, err := p.fetchRoute(ctx, params)
	if err != nil {
		return nil, err
	}
	if len(txParams) == 0 {
		return nil, fmt.Errorf("butter route carries no transaction: %w", ErrQuoteUnavailable)
	}

	quote, err := p.toBridgeQuote(params, route)
	if err != nil {
		return nil, err
	}

	txHash, err := submitTxParam(ctx, p.chains[params.FromChain], params.FromChain, txParams[0], s)
	if err != nil {
		return nil, err
	}

	return &types.BridgeResult{
		Provider:   butterName,
		TxHash:     txHash,
		TrackingID: TrackingID(butterName, txHash),
		FromAmount: params.Amount,
		ToAmount:   quote.ToAmount,
		Status:     types.BridgePending,
	}, nil
}

// Status polls the swap-status endpoint by source-chain tx hash.
func (p *ButterProvider) Status(ctx context.Context, ref string) (types.BridgeTxStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/swapStatus?hash="+url.QueryEscape(ref), nil)
	if err != nil {
		return "", fmt.Errorf("failed to build status request: %w", err)
	}

	resp, err := p.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("butter status request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("butter API returned status %d", resp.StatusCode)
	}

	var payload struct {
		Errno   int    `json:"errno"`
		Message string `json:"message"`
		Data    struct {
			Status string `json:"status"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to decode butter status: %w", err)
	}
	if payload.Errno != 0 {
		return "", fmt.Errorf("butter error %d: %s", payload.Errno, payload.Message)
	}

	switch payload.Data.Status {
	case "completed", "success":
		return types.BridgeCompleted, nil
	case "failed":
		return types.BridgeFailed, nil
	case "refunded":
		return types.BridgeRefunded, nil
	default:
		return types.BridgePending, nil
	}
}

// scaledAmount parses a human-readable decimal amount into smallest units.
func scaledAmount(amount string, decimals uint8) (*big.Int, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, err
	}
	return d.Shift(int32(decimals)).BigInt(), nil
}
