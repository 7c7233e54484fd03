package bridge

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	oneclick "github.com/defuse-protocol/one-click-sdk-go"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"

	"crossroute/pkg/signer"
	"crossroute/pkg/types"
)

const intentsName = "intents"

// quoteDeadline bounds how long an intents deposit address stays valid.
const quoteDeadline = 24 * time.Hour

const erc20TransferABI = `[{"constant":false,"inputs":[{"name":"_to","type":"address"},{"name":"_value","type":"uint256"}],"name":"transfer","outputs":[{"name":"","type":"bool"}],"type":"function"}]`

// IntentsProvider bridges through the NEAR Intents 1Click API: a quote
// yields a deposit address on the source chain, the transfer is funded by
// an ordinary token transfer to it, and completion is polled by deposit
// address. Its tracking reference is therefore the deposit address, not a
// transaction hash.
type IntentsProvider struct {
	client      *oneclick.APIClient
	authCtx     context.Context
	blockchains map[uint64]string // chain id -> 1Click blockchain slug
	clients     map[uint64]*ethclient.Client
	transferABI abi.ABI
}

// NewIntentsProvider creates a provider authenticated with the given JWT.
// blockchains maps chain ids to the API's blockchain slugs (1 -> "eth");
// clients supplies the RPC connection used to fund deposits per chain.
func NewIntentsProvider(jwtToken string, blockchains map[uint64]string, clients map[uint64]*ethclient.Client) (*IntentsProvider, error) {
	parsed, err := abi.JSON(strings.NewReader(erc20TransferABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse transfer ABI: %w", err)
	}

	cfg := oneclick.NewConfiguration()
	authCtx := context.WithValue(context.Background(), oneclick.ContextAccessToken, jwtToken)

	return &IntentsProvider{
		client:      oneclick.NewAPIClient(cfg),
		authCtx:     authCtx,
		blockchains: blockchains,
		clients:     clients,
		transferABI: parsed,
	}, nil
}

// Name returns "intents".
func (p *IntentsProvider) Name() string { return intentsName }

// SupportsRoute reports whether both chains have a configured slug.
func (p *IntentsProvider) SupportsRoute(fromChain, toChain uint64) bool {
	_, fromOK := p.blockchains[fromChain]
	_, toOK := p.blockchains[toChain]
	return fromOK && toOK
}

// Quote prices the transfer with a dry quote (no deposit address created).
func (p *IntentsProvider) Quote(ctx context.Context, params types.BridgeParams) (*types.BridgeQuote, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	quote, err := p.requestQuote(ctx, params, true)
	if err != nil {
		return nil, err
	}
	return p.toBridgeQuote(params, quote)
}

func (p *IntentsProvider) requestQuote(ctx context.Context, params types.BridgeParams, dry bool) (*oneclick.Quote, error) {
	if !p.SupportsRoute(params.FromChain, params.ToChain) {
		return nil, fmt.Errorf("intents does not serve %d -> %d: %w", params.FromChain, params.ToChain, ErrUnsupportedRoute)
	}

	originAsset, err := p.findAsset(ctx, params.FromToken.Symbol, p.blockchains[params.FromChain])
	if err != nil {
		return nil, fmt.Errorf("origin asset: %w", err)
	}
	destAsset, err := p.findAsset(ctx, params.ToToken.Symbol, p.blockchains[params.ToChain])
	if err != nil {
		return nil, fmt.Errorf("destination asset: %w", err)
	}

	slippage := params.SlippageBps
	if slippage == 0 {
		slippage = 100
	}

	recipient := params.Recipient.Hex()
	deadline := time.Now().Add(quoteDeadline)

	quoteReq := oneclick.NewQuoteRequest(
		dry,
		"EXACT_INPUT",
		float32(slippage),
		originAsset,
		"ORIGIN_CHAIN",
		destAsset,
		params.Amount.String(),
		recipient, // refundTo: refunds return to the recipient's account
		"ORIGIN_CHAIN",
		recipient,
		"DESTINATION_CHAIN",
		deadline,
	)

	resp, httpResp, err := p.client.OneClickAPI.GetQuote(p.authCtx).QuoteRequest(*quoteReq).Execute()
	if err != nil {
		if httpResp != nil {
			defer httpResp.Body.Close()
			return nil, fmt.Errorf("intents quote failed (status %d): %w", httpResp.StatusCode, err)
		}
		return nil, fmt.Errorf("intents quote failed: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, fmt.Errorf("intents API returned status %d: %w", httpResp.StatusCode, ErrQuoteUnavailable)
	}
	if resp == nil {
		return nil, fmt.Errorf("empty intents quote: %w", ErrQuoteUnavailable)
	}

	quote := resp.GetQuote()
	return &quote, nil
}

// findAsset resolves a token symbol on a blockchain to the API asset id.
func (p *IntentsProvider) findAsset(ctx context.Context, symbol, blockchain string) (string, error) {
	tokens, httpResp, err := p.client.OneClickAPI.GetTokens(p.authCtx).Execute()
	if err != nil {
		return "", fmt.Errorf("failed to list intents tokens: %w", err)
	}
	defer httpResp.Body.Close()

	for _, token := range tokens {
		if strings.EqualFold(token.GetSymbol(), symbol) && strings.EqualFold(token.GetBlockchain(), blockchain) {
			return token.GetAssetId(), nil
		}
	}
	return "", fmt.Errorf("token %s not listed on %s: %w", symbol, blockchain, ErrQuoteUnavailable)
}

func (p *IntentsProvider) toBridgeQuote(params types.BridgeParams, quote *oneclick.Quote) (*types.BridgeQuote, error) {
	toAmount, ok := new(big.Int).SetString(quote.GetAmountOut(), 10)
	if !ok {
		return nil, fmt.Errorf("malformed amountOut %q: %w", quote.GetAmountOut(), ErrQuoteUnavailable)
	}

	minutes := int(quote.GetTimeEstimate()) / 60
	if minutes < 1 {
		minutes = 1
	}

	feeUSD := decimal.Zero
	if inUSD, err := decimal.NewFromString(quote.GetAmountInUsd()); err == nil {
		if outUSD, err := decimal.NewFromString(quote.GetAmountOutUsd()); err == nil && inUSD.GreaterThan(outUSD) {
			feeUSD = inUSD.Sub(outUSD)
		}
	}

	return &types.BridgeQuote{
		Provider:             intentsName,
		FromAmount:           params.Amount,
		ToAmount:             toAmount,
		EstimatedTimeMinutes: minutes,
		Fees: types.BridgeFees{
			BridgeFee:   big.NewInt(0), // folded into the quoted output
			GasFee:      big.NewInt(0),
			TotalFeeUSD: feeUSD,
		},
		Route:           fmt.Sprintf("%s -> %s via NEAR intents", params.FromToken, params.ToToken),
		ConfidenceScore: 90,
		GasEstimate:     65_000, // one ERC-20 transfer to the deposit address
	}, nil
}

// Execute requests a real quote for a deposit address, funds it with a
// token transfer on the source chain and notifies the API of the deposit.
func (p *IntentsProvider) Execute(ctx context.Context, params types.BridgeParams, s signer.TxSigner) (*types.BridgeResult, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	client, ok := p.clients[params.FromChain]
	if !ok {
		return nil, fmt.Errorf("no RPC client for chain %d: %w", params.FromChain, ErrUnsupportedRoute)
	}

	quote, err := p.requestQuote(ctx, params, false)
	if err != nil {
		return nil, err
	}
	depositAddress := quote.GetDepositAddress()
	if depositAddress == "" {
		return nil, fmt.Errorf("intents quote carries no deposit address: %w", ErrQuoteUnavailable)
	}

	txHash, err := p.sendDeposit(ctx, client, params, common.HexToAddress(depositAddress), s)
	if err != nil {
		return nil, fmt.Errorf("deposit failed: %w", err)
	}

	if err := p.submitDepositTx(depositAddress, txHash); err != nil {
		return nil, fmt.Errorf("deposit submitted (tx %s) but notification failed: %w", txHash, err)
	}

	bq, err := p.toBridgeQuote(params, quote)
	if err != nil {
		return nil, err
	}

	return &types.BridgeResult{
		Provider:   intentsName,
		TxHash:     txHash,
		TrackingID: TrackingID(intentsName, depositAddress),
		FromAmount: params.Amount,
		ToAmount:   bq.ToAmount,
		Status:     types.BridgePending,
	}, nil
}

// sendDeposit transfers the bridged token to the deposit address.
func (p *IntentsProvider) sendDeposit(ctx context.Context, client *ethclient.Client, params types.BridgeParams, to common.Address, s signer.TxSigner) (string, error) {
	data, err := p.transferABI.Pack("transfer", to, params.Amount)
	if err != nil {
		return "", fmt.Errorf("failed to pack transfer data: %w", err)
	}

	from := s.Address()
	token := params.FromToken.Address

	nonce, err := client.PendingNonceAt(ctx, from)
	if err != nil {
		return "", fmt.Errorf("failed to get nonce: %w", err)
	}
	gasPrice, err := client.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get gas price: %w", err)
	}
	gasLimit, err := client.EstimateGas(ctx, ethereum.CallMsg{From: from, To: &token, Data: data})
	if err != nil {
		return "", fmt.Errorf("failed to estimate gas: %w", err)
	}
	gasLimit = gasLimit * 120 / 100

	tx := ethtypes.NewTransaction(nonce, token, big.NewInt(0), gasLimit, gasPrice, data)
	signed, err := s.SignTx(new(big.Int).SetUint64(params.FromChain), tx)
	if err != nil {
		return "", err
	}
	if err := client.SendTransaction(ctx, signed); err != nil {
		return "", fmt.Errorf("failed to send deposit: %w", err)
	}

	return signed.Hash().Hex(), nil
}

func (p *IntentsProvider) submitDepositTx(depositAddress, txHash string) error {
	req := oneclick.NewSubmitDepositTxRequest(depositAddress, txHash)

	_, httpResp, err := p.client.OneClickAPI.SubmitDepositTx(p.authCtx).SubmitDepositTxRequest(*req).Execute()
	if err != nil {
		return fmt.Errorf("failed to submit deposit tx: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != 200 && httpResp.StatusCode != 201 {
		return fmt.Errorf("intents API returned status %d", httpResp.StatusCode)
	}
	return nil
}

// Status polls the execution status for a deposit address.
func (p *IntentsProvider) Status(ctx context.Context, ref string) (types.BridgeTxStatus, error) {
	resp, httpResp, err := p.client.OneClickAPI.GetExecutionStatus(p.authCtx).DepositAddress(ref).Execute()
	if err != nil {
		return "", fmt.Errorf("failed to get intents status: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != 200 {
		return "", fmt.Errorf("intents API returned status %d", httpResp.StatusCode)
	}

	switch resp.GetStatus() {
	case "SUCCESS", "COMPLETED":
		return types.BridgeCompleted, nil
	case "FAILED":
		return types.BridgeFailed, nil
	case "REFUNDED":
		return types.BridgeRefunded, nil
	default:
		return types.BridgePending, nil
	}
}
