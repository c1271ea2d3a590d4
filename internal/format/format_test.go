package format

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestFormatterNorwegian(t *testing.T) {
	f := Default
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"int", f.Int(26_800_000), "26 800 000"},
		{"kr", f.Kr(3_045_000), "3 045 000 kr"},
		{"negative kr", f.Kr(-3_654_000), "-3 654 000 kr"},
		{"kr decimal", f.KrDecimal(decimal.RequireFromString("3045454.5")), "3 045 455 kr"},
		{"signed positive", f.Signed(609), "+609"},
		{"signed zero", f.Signed(0), "0"},
		{"fixed two", f.Fixed(decimal.RequireFromString("20.7"), 2), "20,70"},
		{"fixed one", f.Fixed(decimal.RequireFromString("11.5"), 1), "11,5"},
		{"millions", f.MillionsInt(6_100_000), "6,1"},
		{"millions negative", f.MillionsInt(-1_500_000), "-1,5"},
		{"mnok", f.MNOK(decimal.RequireFromString("26.8"), 1), "26,8 MNOK"},
		{"percent", f.Percent(decimal.NewFromInt(4), 2), "4,00%"},
		{"thousands", f.Thousands(25_000), "25k"},
		{"compact whole", f.Compact(decimal.RequireFromString("230.00")), "230"},
		{"compact one", f.Compact(decimal.RequireFromString("250.50")), "250,5"},
		{"compact two", f.Compact(decimal.RequireFromString("4.25")), "4,25"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Plain(tt.got); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEditBuffer(t *testing.T) {
	m := decimal.NewFromInt(1_000_000)
	tests := []struct {
		raw  int64
		want string
	}{
		{230_000_000, "230.00"},
		{3_000_000, "3.00"},
		{2_450_000, "2.45"},
		{0, "0.00"},
	}
	for _, tt := range tests {
		if got := EditBuffer(tt.raw, m, 2); got != tt.want {
			t.Errorf("EditBuffer(%d) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestPlain(t *testing.T) {
	if got := Plain("1\u00a0234\u202f567 \u2212"); got != "1 234 567 -" {
		t.Fatalf("Plain = %q", got)
	}
}

func TestLocaleGrouping(t *testing.T) {
	if base, _ := Locale.Base(); base.String() != "nb" {
		t.Fatalf("Locale base = %s, want nb", base)
	}
	if got := Plain(New(Locale).Int(1_234_567)); got != "1 234 567" {
		t.Errorf("Int = %q, want space grouping", got)
	}
}
