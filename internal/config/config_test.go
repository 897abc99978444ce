package config

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ligun0805/x-faucet/internal/faucetcore"
)

func TestLoadDefaults(t *testing.T) {
	st := Load()
	assert.Equal(t, int64(5000), st.EligibilityMS)
	assert.Equal(t, int64(10000), st.StatsMS)
	assert.Equal(t, int64(3000), st.BindingMS)
	assert.Equal(t, []string{"1", "5", "10", "20", "100"}, st.DonationPresets)
	assert.Equal(t, "MON", st.TokenSymbol)
	assert.ElementsMatch(t, []string{"FAUCET_CONTRACT_ADDRESS", "BINDING_CONTRACT_ADDRESS"}, st.Placeholders())
	require.NoError(t, st.Validate())
}

func TestLoadReadsBothCases(t *testing.T) {
	t.Setenv("FAUCET_CONTRACT_ADDRESS", "0x00000000000000000000000000000000000000f1")
	t.Setenv("binding_contract_address", "0x00000000000000000000000000000000000000b1")
	t.Setenv("STATS_POLL_MS", "2500")
	t.Setenv("CHAIN_ID", "10143")
	t.Setenv("DONATION_PRESETS", " 2, ,7 ")
	t.Setenv("LOCALE", "en")
	t.Setenv("TIP_GWEI", "not-a-number")

	st := Load()
	assert.Empty(t, st.Placeholders())
	assert.Equal(t, int64(2), st.TipGwei, "bad numbers fall back to the default")

	o := st.CoreOptions()
	assert.Equal(t, 2500*time.Millisecond, o.StatsEvery)
	assert.Equal(t, 180*time.Second, o.TxTimeout)
	assert.Equal(t, []string{"2", "7"}, o.Presets)
	assert.Equal(t, faucetcore.LocaleEN, o.Locale)
	assert.True(t, faucetcore.ContractConfigured(o.FaucetAddress))
	assert.Equal(t, "0.001", o.DonationMin.String())

	w := st.WalletOptions(nil)
	require.NotNil(t, w.ChainID)
	assert.Equal(t, int64(10143), w.ChainID.Int64())
	assert.Equal(t, 1500*time.Millisecond, w.ReceiptEvery)
	assert.Equal(t, int64(20), w.BufferPct)
}

func TestValidate(t *testing.T) {
	st := Load()
	st.DonationMin = "5"
	st.DonationMax = "1"
	st.DonationPresets = []string{"1", "1e3"}
	st.BindingMS = 0
	st.LogLevel = "loud"
	err := st.Validate()
	require.Error(t, err)
	for _, want := range []string{"donation bounds", "1e3", "BINDING_POLL_MS", "LOG_LEVEL"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestLogger(t *testing.T) {
	st := Load()
	st.LogLevel = "debug"
	st.LogFormat = "JSON"
	l := st.Logger()
	assert.Equal(t, logrus.DebugLevel, l.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, l.Formatter)
}

func TestMaskKey(t *testing.T) {
	assert.Equal(t, "0xabcd…6789", MaskKey(" 0xabcdef0123456789 "))
	assert.Equal(t, "***", MaskKey("0xabc"))
}
