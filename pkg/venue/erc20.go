package venue

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"crossroute/pkg/signer"
)

const erc20ABI = `[
	{"constant":true,"inputs":[{"name":"_owner","type":"address"},{"name":"_spender","type":"address"}],"name":"allowance","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":false,"inputs":[{"name":"_spender","type":"address"},{"name":"_value","type":"uint256"}],"name":"approve","outputs":[{"name":"","type":"bool"}],"type":"function"},
	{"constant":true,"inputs":[{"name":"_owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"balance","type":"uint256"}],"type":"function"}
]`

// transferTopic is the topic hash of the ERC-20 Transfer event, used to
// recover the actual output amount from a swap receipt.
var transferTopic = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))

func mustERC20ABI() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		panic(err)
	}
	return parsed
}

var erc20 = mustERC20ABI()

// erc20Allowance reads the spender's current allowance for owner's tokens.
func erc20Allowance(ctx context.Context, client *ethclient.Client, token, owner, spender common.Address) (*big.Int, error) {
	data, err := erc20.Pack("allowance", owner, spender)
	if err != nil {
		return nil, fmt.Errorf("failed to pack allowance data: %w", err)
	}

	result, err := client.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to call allowance: %w", err)
	}

	return new(big.Int).SetBytes(result), nil
}

// approveIfNeeded reads the current allowance and, only when it is below
// amount, submits an approval transaction and waits for it to be mined.
// The approval must be confirmed before the dependent swap is submitted;
// ordering is enforced by the account's nonce sequence.
// Returns the approval tx hash, or "" when no approval was required.
func approveIfNeeded(ctx context.Context, client *ethclient.Client, chainID uint64, token, spender common.Address, amount *big.Int, s signer.TxSigner) (string, error) {
	allowance, err := erc20Allowance(ctx, client, token, s.Address(), spender)
	if err != nil {
		return "", err
	}
	if allowance.Cmp(amount) >= 0 {
		return "", nil
	}

	data, err := erc20.Pack("approve", spender, amount)
	if err != nil {
		return "", fmt.Errorf("failed to pack approve data: %w", err)
	}

	tx, err := buildAndSignTx(ctx, client, chainID, token, big.NewInt(0), data, s)
	if err != nil {
		return "", fmt.Errorf("failed to build approval: %w", err)
	}

	if err := client.SendTransaction(ctx, tx); err != nil {
		return "", fmt.Errorf("failed to send approval: %w", err)
	}

	receipt, err := bind.WaitMined(ctx, client, tx)
	if err != nil {
		return "", fmt.Errorf("failed waiting for approval: %w", err)
	}
	if receipt.Status != ethtypes.ReceiptStatusSuccessful {
		return "", fmt.Errorf("approval transaction %s reverted", tx.Hash().Hex())
	}

	return tx.Hash().Hex(), nil
}

// buildAndSignTx assembles a legacy transaction with a live nonce, the
// suggested gas price and an estimated gas limit with a 20% buffer.
func buildAndSignTx(ctx context.Context, client *ethclient.Client, chainID uint64, to common.Address, value *big.Int, data []byte, s signer.TxSigner) (*ethtypes.Transaction, error) {
	from := s.Address()

	nonce, err := client.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("failed to get nonce: %w", err)
	}

	gasPrice, err := client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get gas price: %w", err)
	}

	gasLimit, err := client.EstimateGas(ctx, ethereum.CallMsg{
		From:  from,
		To:    &to,
		Value: value,
		Data:  data,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to estimate gas: %w", err)
	}
	gasLimit = gasLimit * 120 / 100

	tx := ethtypes.NewTransaction(nonce, to, value, gasLimit, gasPrice, data)
	return s.SignTx(new(big.Int).SetUint64(chainID), tx)
}

// receiptOutputAmount scans a swap receipt for the ERC-20 Transfer of
// token to recipient and returns the transferred amount. Returns nil when
// no matching log exists (the caller falls back to the quoted amount).
func receiptOutputAmount(receipt *ethtypes.Receipt, token, recipient common.Address) *big.Int {
	for i := len(receipt.Logs) - 1; i >= 0; i-- {
		log := receipt.Logs[i]
		if log.Address != token || len(log.Topics) != 3 || log.Topics[0] != transferTopic {
			continue
		}
		if common.BytesToAddress(log.Topics[2].Bytes()) != recipient {
			continue
		}
		return new(big.Int).SetBytes(log.Data)
	}
	return nil
}
