package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"

	"crossroute/pkg/signer"
	"crossroute/pkg/types"
)

const mesonName = "meson"

// MesonProvider bridges through the Meson relayer API, which moves
// stablecoins between chains through its own liquidity pools. Assets are
// addressed as "<chain-slug>:<symbol>".
type MesonProvider struct {
	baseURL string
	http    *http.Client
	slugs   map[uint64]string // chain id -> meson chain slug
	chains  map[uint64]*ethclient.Client
}

// NewMesonProvider creates a provider against the given relayer URL.
func NewMesonProvider(baseURL string, slugs map[uint64]string, chains map[uint64]*ethclient.Client) *MesonProvider {
	return &MesonProvider{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
		slugs:   slugs,
		chains:  chains,
	}
}

// Name returns "meson".
func (p *MesonProvider) Name() string { return mesonName }

// SupportsRoute reports whether both chains have a configured slug and
// RPC connection.
func (p *MesonProvider) SupportsRoute(fromChain, toChain uint64) bool {
	if _, ok := p.slugs[fromChain]; !ok {
		return false
	}
	if _, ok := p.slugs[toChain]; !ok {
		return false
	}
	_, fromOK := p.chains[fromChain]
	_, toOK := p.chains[toChain]
	return fromOK && toOK
}

type mesonPriceResponse struct {
	Result *struct {
		Converted   string `json:"converted"`   // human-readable output amount
		ServiceFee  string `json:"serviceFee"`  // human-readable, in the bridged token
		GasFee      string `json:"gasFee"`      // human-readable, in the bridged token
		TotalFeeUSD string `json:"totalFeeUsd"`
		Duration    int    `json:"duration"` // seconds
	} `json:"result"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Quote prices the transfer through the relayer's price endpoint.
func (p *MesonProvider) Quote(ctx context.Context, params types.BridgeParams) (*types.BridgeQuote, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if !p.SupportsRoute(params.FromChain, params.ToChain) {
		return nil, fmt.Errorf("meson does not serve %d -> %d: %w", params.FromChain, params.ToChain, ErrUnsupportedRoute)
	}

	reqBody := map[string]string{
		"from":      p.slugs[params.FromChain] + ":" + params.FromToken.Symbol,
		"to":        p.slugs[params.ToChain] + ":" + params.ToToken.Symbol,
		"amount":    humanAmount(params.Amount.String(), params.FromToken.Decimals),
		"fromAddress": signerPlaceholder,
	}

	var priceResp mesonPriceResponse
	if err := p.postJSON(ctx, "/price", reqBody, &priceResp); err != nil {
		return nil, err
	}
	if priceResp.Error != nil {
		return nil, fmt.Errorf("meson error %d: %s: %w", priceResp.Error.Code, priceResp.Error.Message, ErrQuoteUnavailable)
	}
	if priceResp.Result == nil {
		return nil, fmt.Errorf("empty meson price result: %w", ErrQuoteUnavailable)
	}

	toAmount, err := scaledAmount(priceResp.Result.Converted, params.ToToken.Decimals)
	if err != nil {
		return nil, fmt.Errorf("malformed converted amount %q: %w", priceResp.Result.Converted, ErrQuoteUnavailable)
	}

	bridgeFee, err := scaledAmount(priceResp.Result.ServiceFee, params.FromToken.Decimals)
	if err != nil {
		bridgeFee = decimal.Zero.BigInt()
	}
	gasFee, err := scaledAmount(priceResp.Result.GasFee, params.FromToken.Decimals)
	if err != nil {
		gasFee = decimal.Zero.BigInt()
	}

	feeUSD := decimal.Zero
	if parsed, err := decimal.NewFromString(priceResp.Result.TotalFeeUSD); err == nil {
		feeUSD = parsed
	}

	minutes := priceResp.Result.Duration / 60
	if minutes < 1 {
		minutes = 1
	}

	return &types.BridgeQuote{
		Provider:             mesonName,
		FromAmount:           params.Amount,
		ToAmount:             toAmount,
		EstimatedTimeMinutes: minutes,
		Fees: types.BridgeFees{
			BridgeFee:   bridgeFee,
			GasFee:      gasFee,
			TotalFeeUSD: feeUSD,
		},
		Route:           fmt.Sprintf("%s -> %s via meson pools", params.FromToken, params.ToToken),
		ConfidenceScore: 85,
		GasEstimate:     120_000,
	}, nil
}

type mesonSwapResponse struct {
	Result *struct {
		SwapID  string  `json:"swapId"`
		TxParam txParam `json:"txParam"`
	} `json:"result"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Execute encodes the swap through the relayer and submits the returned
// source-chain transaction.
func (p *MesonProvider) Execute(ctx context.Context, params types.BridgeParams, s signer.TxSigner) (*types.BridgeResult, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if !p.SupportsRoute(params.FromChain, params.ToChain) {
		return nil, fmt.Errorf("meson does not serve %d -> %d: %w", params.FromChain, params.ToChain, ErrUnsupportedRoute)
	}

	quote, err := p.Quote(ctx, params)
	if err != nil {
		return nil, err
	}

	reqBody := map[string]string{
		"from":        p.slugs[params.FromChain] + ":" + params.FromToken.Symbol,
		"to":          p.slugs[params.ToChain] + ":" + params.ToToken.Symbol,
		"amount":      humanAmount(params.Amount.String(), params.FromToken.Decimals),
		"fromAddress": s.Address().Hex(),
		"recipient":   params.Recipient.Hex(),
	}

	var swapResp mesonSwapResponse
	if err := p.postJSON(ctx, "/swap", reqBody, &swapResp); err != nil {
		return nil, err
	}
	if swapResp.Error != nil {
		return nil, fmt.Errorf("meson error %d: %s: %w", swapResp.Error.Code, swapResp.Error.Message, ErrQuoteUnavailable)
	}
	if swapResp.Result == nil {
		return nil, fmt.Errorf("empty meson swap result: %w", ErrQuoteUnavailable)
	}

	txHash, err := submitTxParam(ctx, p.chains[params.FromChain], params.FromChain, swapResp.Result.TxParam, s)
	if err != nil {
		return nil, err
	}

	return &types.BridgeResult{
		Provider:   mesonName,
		TxHash:     txHash,
		TrackingID: TrackingID(mesonName, txHash),
		FromAmount: params.Amount,
		ToAmount:   quote.ToAmount,
		Status:     types.BridgePending,
	}, nil
}

// Status polls the relayer for the swap keyed by source-chain tx hash.
func (p *MesonProvider) Status(ctx context.Context, ref string) (types.BridgeTxStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/swap?hash="+url.QueryEscape(ref), nil)
	if err != nil {
		return "", fmt.Errorf("failed to build status request: %w", err)
	}

	resp, err := p.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("meson status request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("meson API returned status %d", resp.StatusCode)
	}

	var payload struct {
		Result *struct {
			Status string `json:"status"` // RELEASED | EXECUTED | CANCELLED | LOCKED | ...
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to decode meson status: %w", err)
	}
	if payload.Result == nil {
		return types.BridgePending, nil
	}

	switch payload.Result.Status {
	case "RELEASED", "EXECUTED":
		return types.BridgeCompleted, nil
	case "CANCELLED", "EXPIRED":
		return types.BridgeFailed, nil
	default:
		return types.BridgePending, nil
	}
}

func (p *MesonProvider) postJSON(ctx context.Context, path string, body any, out any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.http.Do(req)
	if err != nil {
		return fmt.Errorf("meson request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read meson response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("meson API returned status %d: %s", resp.StatusCode, string(raw))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode meson response: %w", err)
	}
	return nil
}

// signerPlaceholder satisfies the price endpoint's fromAddress
// requirement for dry pricing, where no account is involved yet.
const signerPlaceholder = "0x0000000000000000000000000000000000000001"

// humanAmount renders a smallest-unit amount as the decimal string the
// relayer expects.
func humanAmount(amount string, decimals uint8) string {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return amount
	}
	return d.Shift(-int32(decimals)).String()
}
