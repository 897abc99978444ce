package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	gethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/sirupsen/logrus"

	"github.com/ligun0805/x-faucet/internal/faucetcore"
)

// Backend is the node surface KeyWallet needs; *ethclient.Client has it all.
type Backend interface {
	bind.ContractCaller
	ChainID(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	FeeHistory(ctx context.Context, blockCount uint64, lastBlock *big.Int, rewardPercentiles []float64) (*ethereum.FeeHistory, error)
}

// TxPreview is what the user approves before a transaction is signed.
type TxPreview struct {
	From    common.Address
	To      common.Address
	Method  string
	Value   *big.Int
	Gas     uint64
	TipCap  *big.Int
	FeeCap  *big.Int
	MaxCost *big.Int // gas*feeCap + value
	ChainID *big.Int
	Nonce   uint64
}

// WalletOptions tune fees and receipt polling.
type WalletOptions struct {
	ChainID      *big.Int // nil = ask the node
	TipGwei      int64
	BasefeeMul   int64
	BufferPct    int64
	ReceiptEvery time.Duration
	// Confirm, when set, is asked before signing; false means the user declined.
	Confirm      func(TxPreview) bool
	Log          *logrus.Entry
}

// KeyWallet signs with a local private key and sends through Backend.
type KeyWallet struct {
	backend Backend
	key     *ecdsa.PrivateKey
	from    common.Address
	chainID *big.Int
	opts    WalletOptions
	abi     abi.ABI
	log     *logrus.Entry

	mu   sync.Mutex
	sent map[common.Hash]ethereum.CallMsg
}

var _ faucetcore.Wallet = (*KeyWallet)(nil)

func NewKeyWallet(ctx context.Context, backend Backend, keyHex string, opts WalletOptions) (*KeyWallet, error) {
	key, err := HexToECDSA(keyHex)
	if err != nil {
		return nil, fmt.Errorf("wallet key: %w", err)
	}
	if opts.ChainID == nil {
		id, err := backend.ChainID(ctx)
		if err != nil {
			return nil, fmt.Errorf("chain id: %w", err)
		}
		opts.ChainID = id
	}
	if opts.TipGwei <= 0 {
		opts.TipGwei = 2
	}
	if opts.BasefeeMul <= 0 {
		opts.BasefeeMul = 2
	}
	if opts.ReceiptEvery <= 0 {
		opts.ReceiptEvery = 1500 * time.Millisecond
	}
	if opts.Log == nil {
		opts.Log = logrus.NewEntry(logrus.StandardLogger())
	}
	from := gethcrypto.PubkeyToAddress(key.PublicKey)
	return &KeyWallet{
		backend: backend,
		key:     key,
		from:    from,
		chainID: opts.ChainID,
		opts:    opts,
		abi:     faucetABI,
		log:     opts.Log.WithFields(logrus.Fields{"component": "wallet", "from": from.Hex()}),
		sent:    map[common.Hash]ethereum.CallMsg{},
	}, nil
}

func (w *KeyWallet) Address() (common.Address, bool) { return w.from, true }

// SetConfirm replaces the approval hook.
func (w *KeyWallet) SetConfirm(fn func(TxPreview) bool) {
	w.mu.Lock()
	w.opts.Confirm = fn
	w.mu.Unlock()
}

// SubmitTransaction estimates, prices, asks for approval, signs and sends.
func (w *KeyWallet) SubmitTransaction(ctx context.Context, c faucetcore.Call) (common.Hash, error) {
	data, err := w.abi.Pack(c.Method, c.Args...)
	if err != nil {
		return common.Hash{}, fmt.Errorf("%w: pack %s: %v", faucetcore.ErrProviderError, c.Method, err)
	}
	value := new(big.Int)
	if c.Value != nil {
		value.Set(c.Value)
	}
	to := c.Contract
	msg := ethereum.CallMsg{From: w.from, To: &to, Value: value, Data: data}

	est, err := withRetry(ctx, func(ctx context.Context) (uint64, error) { return w.backend.EstimateGas(ctx, msg) })
	if err != nil {
		return common.Hash{}, fmt.Errorf("%w: estimate gas: %s", faucetcore.ErrProviderError, revertReason(err))
	}
	gas := bufferGas(est, w.opts.BufferPct)

	baseFee, err := nextBaseFee(ctx, w.backend)
	if err != nil {
		return common.Hash{}, fmt.Errorf("%w: base fee: %v", faucetcore.ErrProviderError, err)
	}
	tip := suggestTip(ctx, w.backend, gweiToWei(w.opts.TipGwei))
	maxFee := feeCap(baseFee, w.opts.BasefeeMul, tip)

	nonce, err := w.backend.PendingNonceAt(ctx, w.from)
	if err != nil {
		return common.Hash{}, fmt.Errorf("%w: nonce: %v", faucetcore.ErrProviderError, err)
	}

	preview := TxPreview{
		From: w.from, To: to, Method: c.Method, Value: value,
		Gas: gas, TipCap: tip, FeeCap: maxFee, ChainID: w.chainID, Nonce: nonce,
	}
	preview.MaxCost = addBig(mulBig(maxFee, int64(gas)), value)
	w.mu.Lock()
	confirm := w.opts.Confirm
	w.mu.Unlock()
	if confirm != nil && !confirm(preview) {
		w.log.WithField("method", c.Method).Info("user declined")
		return common.Hash{}, faucetcore.ErrUserRejected
	}

	tx := buildDynamicTx(w.chainID, nonce, &to, value, gas, tip, maxFee, data)
	signed, err := signTx(tx, w.chainID, w.key)
	if err != nil {
		return common.Hash{}, fmt.Errorf("%w: sign: %v", faucetcore.ErrProviderError, err)
	}
	if err := w.backend.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, fmt.Errorf("%w: send: %s", faucetcore.ErrProviderError, revertReason(err))
	}
	w.mu.Lock()
	w.sent[signed.Hash()] = msg
	w.mu.Unlock()
	w.log.WithFields(logrus.Fields{
		"tx": signed.Hash().Hex(), "method": c.Method, "nonce": nonce, "gas": gas,
		"tipGwei": FmtGwei(tip), "feeCapGwei": FmtGwei(maxFee),
	}).Info("transaction sent")
	w.log.WithField("raw", txAsHex(signed)).Debug("raw transaction")
	return signed.Hash(), nil
}

// callFor returns the message a hash was sent with, for revert replay.
func (w *KeyWallet) callFor(hash common.Hash) (ethereum.CallMsg, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	m, ok := w.sent[hash]
	return m, ok
}

func (w *KeyWallet) forget(hash common.Hash) {
	w.mu.Lock()
	delete(w.sent, hash)
	w.mu.Unlock()
}
