package chain

import (
	"context"
	"errors"
	"math"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	gethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	faucetAddr   = common.HexToAddress("0x00000000000000000000000000000000000000f1")
	registryAddr = common.HexToAddress("0x00000000000000000000000000000000000000b1")
	userAddr     = common.HexToAddress("0x00000000000000000000000000000000000000a1")
)

func TestFaucetReads(t *testing.T) {
	b := newFakeBackend()
	b.reads["canClaim"] = []any{true}
	b.reads["getUserInfo"] = []any{"alice", big.NewInt(1_700_000_000), false, big.NewInt(125)}
	b.reads["getFaucetStats"] = []any{gweiToWei(5e9), gweiToWei(42e9), big.NewInt(7), registryAddr}
	b.reads["CLAIM_AMOUNT"] = []any{gweiToWei(1e9)}
	b.reads["CLAIM_COOLDOWN"] = []any{big.NewInt(86400)}
	b.reads["isWalletBound"] = []any{true}
	f := NewFaucet(b, faucetAddr, registryAddr)
	ctx := context.Background()

	ok, err := f.CanClaim(ctx, userAddr)
	require.NoError(t, err)
	assert.True(t, ok)

	u, err := f.UserInfo(ctx, userAddr)
	require.NoError(t, err)
	assert.Equal(t, userAddr, u.Address)
	assert.Equal(t, "alice", u.BoundHandle)
	assert.Equal(t, int64(1_700_000_000), u.LastClaimTimestamp)
	assert.False(t, u.IsEligibleNow)
	assert.Equal(t, int64(125), u.SecondsUntilEligible)

	st, err := f.FaucetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, gweiToWei(5e9).Cmp(st.Balance))
	assert.Equal(t, int64(7), st.UniqueClaimants.Int64())
	assert.Equal(t, registryAddr, st.Registry)

	cp, err := f.ClaimParameters(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1000000000000000000", cp.ClaimAmount.String())
	assert.Equal(t, int64(86400), cp.CooldownSeconds)

	bound, err := f.IsWalletBound(ctx, userAddr)
	require.NoError(t, err)
	assert.True(t, bound)
}

func TestFaucetRetriesRateLimit(t *testing.T) {
	b := newFakeBackend()
	b.reads["canClaim"] = []any{true}
	b.readErrs["canClaim"] = []error{errors.New("429 Too Many Requests")}
	f := NewFaucet(b, faucetAddr, registryAddr)

	ok, err := f.CanClaim(context.Background(), userAddr)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, b.readCalls["canClaim"])
}

func TestFaucetDoesNotRetryRevert(t *testing.T) {
	b := newFakeBackend()
	b.readErrs["getFaucetStats"] = []error{errors.New("execution reverted: paused")}
	f := NewFaucet(b, faucetAddr, registryAddr)

	_, err := f.FaucetStats(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "getFaucetStats")
	assert.Equal(t, 1, b.readCalls["getFaucetStats"])
}

func TestFaucetWithoutRegistry(t *testing.T) {
	f := NewFaucet(newFakeBackend(), faucetAddr, common.Address{})
	_, err := f.IsWalletBound(context.Background(), userAddr)
	assert.Error(t, err)
}

func TestClampInt64(t *testing.T) {
	assert.Equal(t, int64(0), clampInt64(nil))
	assert.Equal(t, int64(0), clampInt64(big.NewInt(-4)))
	assert.Equal(t, int64(9), clampInt64(big.NewInt(9)))
	huge := new(big.Int).Lsh(big.NewInt(1), 200)
	assert.Equal(t, int64(math.MaxInt64), clampInt64(huge))
}

type dataErr struct{ data string }

func (e dataErr) Error() string          { return "execution reverted" }
func (e dataErr) ErrorData() interface{} { return e.data }

func TestRevertReason(t *testing.T) {
	assert.Equal(t, "", revertReason(nil))
	assert.Equal(t, "execution reverted: cooldown", revertReason(errors.New("rpc: execution reverted: cooldown")))
	assert.Equal(t, "boom", revertReason(errors.New("boom")))

	strT, err := abi.NewType("string", "", nil)
	require.NoError(t, err)
	packed, err := abi.Arguments{{Type: strT}}.Pack("Cooldown not finished")
	require.NoError(t, err)
	payload := append(gethcrypto.Keccak256([]byte("Error(string)"))[:4], packed...)
	got := revertReason(dataErr{data: "0x" + common.Bytes2Hex(payload)})
	assert.Equal(t, "execution reverted: Cooldown not finished", got)
}
