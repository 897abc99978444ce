package chain

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// FaucetABI is the subset of the faucet contract the client uses.
const FaucetABI = `[
  {"type":"function","name":"claimTokens","stateMutability":"nonpayable","inputs":[],"outputs":[]},
  {"type":"function","name":"fundFaucet","stateMutability":"payable","inputs":[],"outputs":[]},
  {"type":"function","name":"canClaim","stateMutability":"view","inputs":[{"name":"user","type":"address"}],"outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"getUserInfo","stateMutability":"view","inputs":[{"name":"user","type":"address"}],"outputs":[
    {"name":"xAccount","type":"string"},
    {"name":"lastClaim","type":"uint256"},
    {"name":"canClaimNow","type":"bool"},
    {"name":"timeUntilNextClaim","type":"uint256"}]},
  {"type":"function","name":"getFaucetStats","stateMutability":"view","inputs":[],"outputs":[
    {"name":"balance","type":"uint256"},
    {"name":"totalClaimedAmount","type":"uint256"},
    {"name":"totalUniqueUsers","type":"uint256"},
    {"name":"registryAddress","type":"address"}]},
  {"type":"function","name":"CLAIM_AMOUNT","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"CLAIM_COOLDOWN","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]}
]`

// BindingABI is the identity registry's wallet lookup.
const BindingABI = `[
  {"type":"function","name":"isWalletBound","stateMutability":"view","inputs":[{"name":"wallet","type":"address"}],"outputs":[{"name":"","type":"bool"}]}
]`

var (
	faucetABI  = mustABI(FaucetABI)
	bindingABI = mustABI(BindingABI)
)

func mustABI(s string) abi.ABI {
	a, err := abi.JSON(strings.NewReader(s))
	if err != nil {
		panic(err)
	}
	return a
}
