package signer

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// Account wraps an ECDSA key and produces the two signature kinds the
// publication network accepts: EIP-191 personal messages for login
// challenges and EIP-712 typed data for relayed publication operations.
type Account struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

// NewAccount parses a hex encoded private key.
func NewAccount(hexKey string) (*Account, error) {
	hexKey = strings.TrimPrefix(strings.TrimSpace(hexKey), "0x")
	if hexKey == "" {
		return nil, errors.New("未提供账户私钥")
	}
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("解析私钥失败: %w", err)
	}
	return &Account{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

// Address returns the checksummed account address.
func (a *Account) Address() string {
	return a.address.Hex()
}

// SignMessage signs a challenge text with the EIP-191 personal message
// prefix and returns the 65-byte signature hex encoded.
func (a *Account) SignMessage(text string) (string, error) {
	if a == nil || a.key == nil {
		return "", errors.New("账户未初始化")
	}
	hash := accounts.TextHash([]byte(text))
	sig, err := crypto.Sign(hash, a.key)
	if err != nil {
		return "", fmt.Errorf("签名挑战消息失败: %w", err)
	}
	// Recovery id goes on the wire as 27/28.
	sig[64] += 27
	return hexutil.Encode(sig), nil
}

// SignTypedData hashes EIP-712 typed data and signs the digest.
func (a *Account) SignTypedData(typedData apitypes.TypedData) (string, error) {
	if a == nil || a.key == nil {
		return "", errors.New("账户未初始化")
	}
	hash, _, err := apitypes.TypedDataAndHash(typedData)
	if err != nil {
		return "", fmt.Errorf("计算 typed data 摘要失败: %w", err)
	}
	sig, err := crypto.Sign(hash, a.key)
	if err != nil {
		return "", fmt.Errorf("签名 typed data 失败: %w", err)
	}
	sig[64] += 27
	return hexutil.Encode(sig), nil
}
