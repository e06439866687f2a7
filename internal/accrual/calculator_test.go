package accrual

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestComputeBasic(t *testing.T) {
	got := Compute(dec("700"), nil, nil, dec("10"))
	if got.Cmp(dec("70")) != 0 {
		t.Fatalf("got=%s want=70", got)
	}
	if got.Exponent() != -2 {
		t.Fatalf("exponent=%d want=-2 (currency precision)", got.Exponent())
	}
}

func TestComputeBankersRounding(t *testing.T) {
	cases := []struct {
		principal string
		rate      string
		want      string
	}{
		// Half-to-even at the cent boundary.
		{"100.50", "1", "1.00"},   // 1.005 rounds down to even
		{"100.50", "3", "3.02"},   // 3.015 rounds up to even
		{"333.33", "7.5", "25.00"}, // 24.99975
	}
	for _, tc := range cases {
		rate := dec(tc.rate)
		got := Compute(dec(tc.principal), &rate, nil, dec("10"))
		if got.Cmp(dec(tc.want)) != 0 {
			t.Fatalf("principal=%s rate=%s got=%s want=%s", tc.principal, tc.rate, got, tc.want)
		}
	}
}

func TestEffectiveRateFallbackChain(t *testing.T) {
	invRate := dec("5")
	profRate := dec("12")
	def := dec("10")

	if got := EffectiveRate(&invRate, &profRate, def); got.Cmp(invRate) != 0 {
		t.Fatalf("investment rate must win, got=%s", got)
	}
	if got := EffectiveRate(nil, &profRate, def); got.Cmp(profRate) != 0 {
		t.Fatalf("profile rate must apply when investment rate is nil, got=%s", got)
	}
	if got := EffectiveRate(nil, nil, def); got.Cmp(def) != 0 {
		t.Fatalf("default must apply when both are nil, got=%s", got)
	}
}

func TestComputeZeroPrincipal(t *testing.T) {
	got := Compute(decimal.Zero, nil, nil, dec("10"))
	if !got.IsZero() {
		t.Fatalf("got=%s want=0", got)
	}
}
