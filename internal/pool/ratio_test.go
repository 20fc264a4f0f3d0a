package pool

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func ptr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func assertDecimal(t *testing.T, label string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Errorf("%s = %s, want %s", label, got, want)
	}
}

func TestEntryRatio(t *testing.T) {
	tests := []struct {
		name           string
		total, initial string
		want           string
	}{
		{"empty pool", "0", "0", "1"},
		{"zero initial with total", "1000", "0", "1"},
		{"negative initial", "1000", "-100", "1"},
		{"pool with gains", "11000", "10000", "1.1"},
		{"pool with losses", "9000", "10000", "0.9"},
		{"flat pool", "10000", "10000", "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertDecimal(t, "EntryRatio", EntryRatio(dec(tt.total), dec(tt.initial)), tt.want)
		})
	}
}

func TestCurrentRatio(t *testing.T) {
	tests := []struct {
		name           string
		total, initial string
		want           string
	}{
		{"empty pool", "0", "0", "1"},
		{"negative initial", "1000", "-100", "1"},
		{"above one", "12000", "10000", "1.2"},
		{"below one", "8000", "10000", "0.8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertDecimal(t, "CurrentRatio", CurrentRatio(dec(tt.total), dec(tt.initial)), tt.want)
		})
	}
}

func TestRatiosAgree(t *testing.T) {
	pairs := [][2]string{{"13200", "11000"}, {"0", "500"}, {"7", "3"}, {"100", "0"}}
	for _, p := range pairs {
		e := EntryRatio(dec(p[0]), dec(p[1]))
		c := CurrentRatio(dec(p[0]), dec(p[1]))
		if !e.Equal(c) {
			t.Errorf("EntryRatio(%s, %s) = %s, CurrentRatio = %s, want equal", p[0], p[1], e, c)
		}
	}
}
