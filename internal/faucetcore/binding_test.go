package faucetcore

import (
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBindingWatcherFollowsRegistry(t *testing.T) {
	s, r, w := newManualSched(), newFakeReader(), newFakeWallet()
	b := NewBindingWatcher(s, r, w, testOptions(), testLog(), nil)
	var flips []bool
	b.OnChange(func(v bool) { flips = append(flips, v) })

	r.bound = true
	b.Start()
	s.Settle()
	require.True(t, b.IsBound())

	// errors keep the last answer
	r.errs[SourceBinding] = errors.New("timeout")
	s.Advance(3 * time.Second)
	s.Settle()
	assert.True(t, b.IsBound())

	// another wallet starts unbound until the registry says otherwise
	delete(r.errs, SourceBinding)
	r.bound = false
	w.addr = common.HexToAddress("0x00000000000000000000000000000000000000a9")
	s.Advance(3 * time.Second)
	assert.False(t, b.IsBound())
	s.Settle()
	assert.False(t, b.IsBound())
	assert.Equal(t, []bool{true, false}, flips)

	b.Close()
	assert.Equal(t, 0, s.ActiveTimers())
}

func TestBindingWatcherUnconfiguredRegistry(t *testing.T) {
	s, r, w := newManualSched(), newFakeReader(), newFakeWallet()
	opts := testOptions()
	opts.BindingAddress = ParseContractAddress("0x...")
	r.bound = true
	b := NewBindingWatcher(s, r, w, opts, testLog(), nil)
	b.Start()
	s.Advance(10 * time.Second)
	s.Settle()
	assert.False(t, b.IsBound())
	assert.Zero(t, r.calls[SourceBinding])
}

func TestParseContractAddress(t *testing.T) {
	assert.False(t, ContractConfigured(ParseContractAddress("")))
	assert.False(t, ContractConfigured(ParseContractAddress("0x...")))
	assert.False(t, ContractConfigured(ParseContractAddress("not-an-address")))
	assert.False(t, ContractConfigured(ParseContractAddress("0x0000000000000000000000000000000000000000")))
	assert.True(t, ContractConfigured(ParseContractAddress(" 0x00000000000000000000000000000000000000f1 ")))
}
