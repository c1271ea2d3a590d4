// Package format renders amounts for display: thousands separators and
// decimal marks follow the configured locale, currency gets a " kr" suffix.
package format

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"kalkyle/internal/core"
)

// Formatter formats numbers for one locale. It is safe for concurrent use.
type Formatter struct {
	p *message.Printer
}

// New returns a formatter for the given locale.
func New(tag language.Tag) *Formatter {
	return &Formatter{p: message.NewPrinter(tag)}
}

// Locale is the display locale of the calculator.
var Locale = language.MustParse("nb-NO")

// Default formats for Locale.
var Default = New(Locale)

// Int renders a whole number with thousands separators.
func (f *Formatter) Int(v int64) string {
	return f.p.Sprintf("%d", v)
}

// Sprintf formats with the locale's number rules.
func (f *Formatter) Sprintf(format string, args ...any) string {
	return f.p.Sprintf(format, args...)
}

// Signed is Int with an explicit "+" for positive values.
func (f *Formatter) Signed(v int64) string {
	if v > 0 {
		return "+" + f.Int(v)
	}
	return f.Int(v)
}

// Kr renders a currency amount rounded to whole units.
func (f *Formatter) Kr(v int64) string {
	return f.Int(v) + " kr"
}

// KrDecimal rounds half up and renders as Kr.
func (f *Formatter) KrDecimal(d decimal.Decimal) string {
	return f.Kr(core.Round(d))
}

// Fixed renders d with exactly places fraction digits.
func (f *Formatter) Fixed(d decimal.Decimal, places int32) string {
	r := d.Round(places)
	return f.p.Sprint(number.Decimal(r.InexactFloat64(), number.Scale(int(places))))
}

// Compact renders d with up to two decimals and no trailing zeros.
func (f *Formatter) Compact(d decimal.Decimal) string {
	r := d.Round(2)
	var places int32
	switch {
	case !r.Equal(r.Round(1)):
		places = 2
	case !r.Equal(r.Round(0)):
		places = 1
	}
	return f.Fixed(r, places)
}

// Millions converts a raw amount to millions with one decimal.
func (f *Formatter) Millions(raw decimal.Decimal) string {
	return f.Fixed(raw.Div(core.Million), 1)
}

// MillionsInt is Millions for whole-unit amounts.
func (f *Formatter) MillionsInt(raw int64) string {
	return f.Millions(decimal.NewFromInt(raw))
}

// MNOK renders a value that is already in millions.
func (f *Formatter) MNOK(m decimal.Decimal, places int32) string {
	return f.Fixed(m, places) + " MNOK"
}

// Percent renders a percentage value (4 -> "4,00%").
func (f *Formatter) Percent(d decimal.Decimal, places int32) string {
	return f.Fixed(d, places) + "%"
}

// Thousands renders an axis tick as "25k".
func (f *Formatter) Thousands(v int64) string {
	return f.Int(core.Round(decimal.NewFromInt(v).Div(decimal.NewFromInt(1000)))) + "k"
}

// EditBuffer renders a raw amount the way a user types it back in: scaled
// down, fixed precision, plain "." separator and no grouping.
func EditBuffer(raw int64, scale decimal.Decimal, places int32) string {
	return decimal.NewFromInt(raw).Div(scale).StringFixed(places)
}

// Plain strips locale spacing so values compare in tests and plain-text
// output: every space-like rune becomes " " and the unicode minus becomes "-".
func Plain(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '\u00a0', '\u202f', '\u2009':
			return ' '
		case '\u2212':
			return '-'
		}
		return r
	}, s)
}
