package chain

import (
	"crypto/ecdsa"
	"encoding/hex"
	"errors"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	gethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// HexToECDSA parses a hex private key with or without 0x.
func HexToECDSA(s string) (*ecdsa.PrivateKey, error) {
	h := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "0x"))
	if len(h) == 0 {
		return nil, errors.New("empty private key")
	}
	return gethcrypto.HexToECDSA(h)
}

// Build EIP-1559 transaction.
func buildDynamicTx(chain *big.Int, nonce uint64, to *common.Address, value *big.Int, gasLimit uint64, tip, feeCap *big.Int, data []byte) *types.Transaction {
	if value == nil {
		value = new(big.Int)
	}
	return types.NewTx(&types.DynamicFeeTx{
		ChainID:   chain,
		Nonce:     nonce,
		Gas:       gasLimit,
		GasTipCap: new(big.Int).Set(tip),
		GasFeeCap: new(big.Int).Set(feeCap),
		To:        to,
		Value:     new(big.Int).Set(value),
		Data:      data,
	})
}

// Sign transaction with latest signer for given chain ID.
func signTx(tx *types.Transaction, chain *big.Int, prv *ecdsa.PrivateKey) (*types.Transaction, error) {
	return types.SignTx(tx, types.LatestSignerForChainID(chain), prv)
}

// Hex-encode transaction.
func txAsHex(tx *types.Transaction) string {
	b, _ := tx.MarshalBinary()
	return "0x" + hex.EncodeToString(b)
}

func gweiToWei(g int64) *big.Int {
	x := new(big.Int).SetInt64(g)
	return x.Mul(x, big.NewInt(1_000_000_000))
}

func mulBig(a *big.Int, m int64) *big.Int {
	if a == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Mul(a, big.NewInt(m))
}

func addBig(a, b *big.Int) *big.Int {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return new(big.Int).Add(a, b)
}

// FmtGwei renders wei as gwei with 2 decimals.
func FmtGwei(x *big.Int) string {
	if x == nil {
		return "0"
	}
	r := new(big.Rat).SetFrac(new(big.Int).Set(x), big.NewInt(1_000_000_000))
	return r.FloatString(2)
}
