package faucetcore

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDonation(t *testing.T) {
	lo, hi := decimal.RequireFromString("0.001"), decimal.NewFromInt(1000)
	cases := map[string]bool{
		"0.0005":  false,
		"0":       false,
		"0.000":   false,
		"1000":    true,
		"1000.00": true,
		"1000.01": false,
		"abc":     false,
		"":        false,
		"NaN":     false,
		"-5":      false,
		"0.001":   true,
		"10":      true,
		" 20 ":    true,
		"1e2":     false,
	}
	for in, want := range cases {
		got := ValidateDonation(in, lo, hi)
		assert.Equal(t, want, got.IsValid, "%q", in)
		if want {
			assert.NotNil(t, got.Amount)
			assert.NoError(t, got.Err)
		} else {
			assert.Nil(t, got.Amount)
			assert.ErrorIs(t, got.Err, ErrInvalidAmount, "%q", in)
		}
	}
}

func newTestForm() (*DonationForm, *orchFixture) {
	f := newOrchFixture()
	return NewDonationForm(f.o, testOptions()), f
}

func TestDonationPresetUsesTypingPath(t *testing.T) {
	form, _ := newTestForm()
	assert.Equal(t, []string{"1", "5", "10", "20", "100"}, form.Presets())

	in, err := form.Preset(2)
	require.NoError(t, err)
	typed := ValidateDonation("10", decimal.RequireFromString("0.001"), decimal.NewFromInt(1000))
	assert.Equal(t, typed.IsValid, in.IsValid)
	assert.Equal(t, 0, typed.Amount.Cmp(in.Amount))
	assert.Equal(t, "10", form.Input().RawText)

	_, err = form.Preset(9)
	assert.Error(t, err)
	assert.Equal(t, "10", form.Input().RawText)
}

func TestDonationSubmitGates(t *testing.T) {
	form, f := newTestForm()
	form.SetText("abc")
	assert.False(t, form.CanSubmit())
	_, err := form.Submit()
	assert.ErrorIs(t, err, ErrInvalidAmount)
	assert.Empty(t, f.s.pending, "invalid input never reaches the orchestrator")
	assert.NotEmpty(t, form.RangeHint())

	form.SetText("5")
	assert.True(t, form.CanSubmit())
	assert.Empty(t, form.RangeHint())

	_, err = f.o.Submit(ClaimAction(eth(1)))
	require.NoError(t, err)
	assert.False(t, form.CanSubmit(), "busy orchestrator disables submit")
	_, err = form.Submit()
	assert.ErrorIs(t, err, ErrBusy)
}

func TestDonationDialogLifecycle(t *testing.T) {
	form, f := newTestForm()
	f.w.statuses = []TxStatus{{Phase: TxMined}}
	form.Open()
	form.SetText("10")
	assert.Equal(t, "捐赠 10 MON", form.SubmitLabel())

	_, err := form.Submit()
	require.NoError(t, err)
	assert.Equal(t, "确认交易...", form.SubmitLabel())
	assert.False(t, form.Close(), "dialog stays open while signing")
	assert.True(t, form.IsOpen())

	f.s.Settle()
	assert.False(t, form.IsOpen())
	assert.Equal(t, "", form.Input().RawText)
	assert.False(t, form.Input().IsValid)
}

func TestDonationFailureKeepsInput(t *testing.T) {
	form, f := newTestForm()
	f.w.statuses = []TxStatus{{Phase: TxReverted}}
	form.Open()
	form.SetText("10")
	_, err := form.Submit()
	require.NoError(t, err)
	f.s.Settle()

	assert.True(t, form.IsOpen())
	assert.Equal(t, "10", form.Input().RawText)
	assert.True(t, form.Close())
	require.Len(t, f.n.notes, 1)
	assert.Equal(t, "捐款失败", f.n.notes[0].title)
}
