package bridge

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"crossroute/pkg/signer"
)

// txParam is the calldata bundle REST bridges return for the
// source-chain transaction that initiates a transfer.
type txParam struct {
	To    string `json:"to"`
	Data  string `json:"data"`
	Value string `json:"value"`
}

// submitTxParam signs and submits a provider-built transaction on the
// source chain and returns its hash.
func submitTxParam(ctx context.Context, client *ethclient.Client, chainID uint64, param txParam, s signer.TxSigner) (string, error) {
	to := common.HexToAddress(param.To)

	value := big.NewInt(0)
	if param.Value != "" && param.Value != "0" {
		v, ok := new(big.Int).SetString(trimHexPrefix(param.Value), valueBase(param.Value))
		if !ok {
			return "", fmt.Errorf("malformed tx value %q", param.Value)
		}
		value = v
	}

	data, err := hexutil.Decode(param.Data)
	if err != nil {
		return "", fmt.Errorf("malformed tx data: %w", err)
	}

	from := s.Address()
	nonce, err := client.PendingNonceAt(ctx, from)
	if err != nil {
		return "", fmt.Errorf("failed to get nonce: %w", err)
	}
	gasPrice, err := client.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get gas price: %w", err)
	}
	gasLimit, err := client.EstimateGas(ctx, ethereum.CallMsg{From: from, To: &to, Value: value, Data: data})
	if err != nil {
		return "", fmt.Errorf("failed to estimate gas: %w", err)
	}
	gasLimit = gasLimit * 120 / 100

	tx := ethtypes.NewTransaction(nonce, to, value, gasLimit, gasPrice, data)
	signed, err := s.SignTx(new(big.Int).SetUint64(chainID), tx)
	if err != nil {
		return "", err
	}
	if err := client.SendTransaction(ctx, signed); err != nil {
		return "", fmt.Errorf("failed to send transaction: %w", err)
	}

	return signed.Hash().Hex(), nil
}

func trimHexPrefix(s string) string {
	if len(s) > 1 && (s[:2] == "0x" || s[:2] == "0X") {
		return s[2:]
	}
	return s
}

func valueBase(s string) int {
	if len(s) > 1 && (s[:2] == "0x" || s[:2] == "0X") {
		return 16
	}
	return 10
}
