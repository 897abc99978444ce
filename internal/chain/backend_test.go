package chain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

// fakeBackend answers eth_call by ABI method and scripts the rest.
type fakeBackend struct {
	mu sync.Mutex

	chainID     *big.Int
	headBaseFee *big.Int
	nextBaseFee *big.Int
	feeHistErr  error
	tipCap      *big.Int
	estimate    uint64
	estimateErr error
	nonce       uint64
	sendErr     error
	sent        []*types.Transaction
	receipts    []*types.Receipt // nil entries mean "not found yet"
	replayErr   error

	// reads maps an ABI method name to its outputs or an error.
	reads     map[string][]any
	readErrs  map[string][]error
	readCalls map[string]int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		chainID:     big.NewInt(10143),
		headBaseFee: gweiToWei(8),
		nextBaseFee: gweiToWei(10),
		tipCap:      gweiToWei(1),
		estimate:    50_000,
		reads:       map[string][]any{},
		readErrs:    map[string][]error{},
		readCalls:   map[string]int{},
	}
}

func lookupMethod(data []byte) (*abi.Method, bool) {
	if len(data) < 4 {
		return nil, false
	}
	for _, a := range []abi.ABI{faucetABI, bindingABI} {
		for _, m := range a.Methods {
			if bytes.Equal(m.ID, data[:4]) {
				m := m
				return &m, true
			}
		}
	}
	return nil, false
}

func (b *fakeBackend) CodeAt(context.Context, common.Address, *big.Int) ([]byte, error) {
	return []byte{0x60}, nil
}

func (b *fakeBackend) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	m, ok := lookupMethod(msg.Data)
	if !ok {
		return nil, errors.New("unknown selector")
	}
	b.readCalls[m.Name]++
	if errs := b.readErrs[m.Name]; len(errs) > 0 {
		err := errs[0]
		b.readErrs[m.Name] = errs[1:]
		if err != nil {
			return nil, err
		}
	}
	if len(m.Outputs) == 0 {
		return nil, b.replayErr
	}
	out, ok := b.reads[m.Name]
	if !ok {
		return nil, fmt.Errorf("no scripted reply for %s", m.Name)
	}
	return m.Outputs.Pack(out...)
}

func (b *fakeBackend) ChainID(context.Context) (*big.Int, error) { return b.chainID, nil }

func (b *fakeBackend) HeaderByNumber(context.Context, *big.Int) (*types.Header, error) {
	return &types.Header{Number: big.NewInt(100), BaseFee: b.headBaseFee}, nil
}

func (b *fakeBackend) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	return b.nonce, nil
}

func (b *fakeBackend) SuggestGasTipCap(context.Context) (*big.Int, error) { return b.tipCap, nil }

func (b *fakeBackend) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	return b.estimate, b.estimateErr
}

func (b *fakeBackend) SendTransaction(_ context.Context, tx *types.Transaction) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sendErr != nil {
		return b.sendErr
	}
	b.sent = append(b.sent, tx)
	return nil
}

func (b *fakeBackend) TransactionReceipt(context.Context, common.Hash) (*types.Receipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.receipts) == 0 {
		return nil, ethereum.NotFound
	}
	r := b.receipts[0]
	b.receipts = b.receipts[1:]
	if r == nil {
		return nil, ethereum.NotFound
	}
	return r, nil
}

func (b *fakeBackend) FeeHistory(context.Context, uint64, *big.Int, []float64) (*ethereum.FeeHistory, error) {
	if b.feeHistErr != nil {
		return nil, b.feeHistErr
	}
	return &ethereum.FeeHistory{BaseFee: []*big.Int{b.headBaseFee, b.nextBaseFee}}, nil
}

func nullLog() *logrus.Entry {
	l, _ := test.NewNullLogger()
	return logrus.NewEntry(l)
}
