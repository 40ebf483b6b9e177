package commission

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(value string) decimal.Decimal {
	d, err := decimal.NewFromString(value)
	if err != nil {
		panic(err)
	}
	return d
}

func TestFinalCommission_RoundsHalfUp(t *testing.T) {
	cases := []struct {
		name  string
		price string
		rate  string
		want  string
	}{
		{name: "exact two decimals", price: "100.00", rate: "5", want: "5"},
		{name: "rounds up at half", price: "0.15", rate: "10", want: "0.02"},
		{name: "rounds down below half", price: "1.24", rate: "1", want: "0.01"},
		{name: "large order", price: "45000", rate: "2.5", want: "1125"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := FinalCommission(dec(tc.price), dec(tc.rate))
			assert.True(t, got.Equal(dec(tc.want)), "got %s want %s", got, tc.want)
		})
	}
}

func TestFinalCommission_DustCollapsesToZero(t *testing.T) {
	// 0.04 at 10% is 0.004, which rounds to 0.00 and stays below the minimum.
	got := FinalCommission(dec("0.04"), dec("10"))
	assert.True(t, got.IsZero(), "got %s", got)
}

func TestFinalCommission_NonPositiveInputs(t *testing.T) {
	assert.True(t, FinalCommission(dec("0"), dec("10")).IsZero())
	assert.True(t, FinalCommission(dec("-5"), dec("10")).IsZero())
	assert.True(t, FinalCommission(dec("100"), dec("0")).IsZero())
	assert.True(t, FinalCommission(dec("100"), dec("-1")).IsZero())
}

func TestFinalCommission_Stable(t *testing.T) {
	// Same inputs always produce the same amount; the calc carries no state.
	first := FinalCommission(dec("19.99"), dec("7.5"))
	second := FinalCommission(dec("19.99"), dec("7.5"))
	assert.True(t, first.Equal(second))
	assert.True(t, first.Equal(dec("1.50")), "got %s", first)
}
