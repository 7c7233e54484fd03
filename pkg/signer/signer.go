// Package signer provides the transaction-signing capability consumed by
// venue adapters and bridge providers. The routing core never holds raw
// key material; callers hand it a TxSigner and keep custody themselves.
package signer

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// TxSigner signs EVM transactions for a single account.
type TxSigner interface {
	// Address returns the account the signer controls.
	Address() common.Address
	// SignTx signs a transaction for the given chain.
	SignTx(chainID *big.Int, tx *types.Transaction) (*types.Transaction, error)
}

// Local is a TxSigner backed by an in-process ECDSA key.
type Local struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
}

// NewLocal creates a signer from a private key.
func NewLocal(privateKey *ecdsa.PrivateKey) *Local {
	return &Local{
		privateKey: privateKey,
		address:    crypto.PubkeyToAddress(privateKey.PublicKey),
	}
}

// NewLocalFromHex creates a signer from a hexadecimal private key.
func NewLocalFromHex(hexKey string) (*Local, error) {
	hexKey = strings.TrimPrefix(strings.TrimSpace(hexKey), "0x")
	privateKey, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return NewLocal(privateKey), nil
}

// NewLocalFromEnv creates a signer from a hex key held in an environment
// variable.
func NewLocalFromEnv(envName string) (*Local, error) {
	hexKey := strings.TrimSpace(os.Getenv(envName))
	if hexKey == "" {
		return nil, fmt.Errorf("environment variable %s is not set", envName)
	}
	return NewLocalFromHex(hexKey)
}

// Address returns the signer's account address.
func (l *Local) Address() common.Address {
	return l.address
}

// SignTx signs the transaction with an EIP-155 signer for the chain.
func (l *Local) SignTx(chainID *big.Int, tx *types.Transaction) (*types.Transaction, error) {
	signed, err := types.SignTx(tx, types.NewEIP155Signer(chainID), l.privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}
	return signed, nil
}
