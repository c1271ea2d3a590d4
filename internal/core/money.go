// Package core provides money parsing and handling utilities.
//
// This file contains the single parser used by every editable amount and the
// rounding rule applied to displayed currency values.
package core

import (
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

var half = decimal.NewFromFloat(0.5)

// ParseAmount converts user-typed text into a non-negative decimal.
//
// It accepts both dot (12.5) and comma (12,5) decimal separators and ignores
// grouping spaces, including the no-break spaces produced by the nb-NO number
// format. Signs, exponents and more than one separator are rejected.
//
// Examples:
//
//	ParseAmount("250.5")  -> 250.5, nil
//	ParseAmount("3,25")   -> 3.25, nil
//	ParseAmount(" 1 000") -> 1000, nil
//	ParseAmount("-5")     -> 0, ErrNegativeAmount
//	ParseAmount("abc")    -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	if strings.HasPrefix(s, "-") {
		return decimal.Zero, ErrNegativeAmount
	}
	if strings.HasPrefix(s, "+") {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")

	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return decimal.Zero, ErrInvalidAmount
	}
	digits := 0
	for _, p := range parts {
		for _, r := range p {
			if r < '0' || r > '9' {
				return decimal.Zero, ErrInvalidAmount
			}
			digits++
		}
	}
	if digits == 0 {
		return decimal.Zero, ErrInvalidAmount
	}
	if strings.HasPrefix(s, ".") {
		s = "0" + s
	}
	s = strings.TrimSuffix(s, ".")

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// MaxAmount bounds every stored currency amount. Sums of a few thousand such
// amounts still fit in an int64.
const MaxAmount int64 = 1_000_000_000_000_000

var (
	maxInt64 = decimal.NewFromInt(math.MaxInt64)
	minInt64 = decimal.NewFromInt(math.MinInt64)
)

// Round rounds to the nearest whole currency unit, with halves going towards
// positive infinity (-2.5 becomes -2, 2.5 becomes 3). Values outside the
// int64 range saturate.
func Round(d decimal.Decimal) int64 {
	r := d.Add(half).Floor()
	switch {
	case r.GreaterThan(maxInt64):
		return math.MaxInt64
	case r.LessThan(minInt64):
		return math.MinInt64
	}
	return r.IntPart()
}

// ToUnits rounds d like Round and rejects results outside
// [-MaxAmount, MaxAmount].
func ToUnits(d decimal.Decimal) (int64, error) {
	r := d.Add(half).Floor()
	if r.Abs().GreaterThan(decimal.NewFromInt(MaxAmount)) {
		return 0, fmt.Errorf("%w: %s", ErrAmountTooLarge, r)
	}
	return r.IntPart(), nil
}

// Millions converts an amount expressed in millions to raw currency units.
func Millions(m decimal.Decimal) decimal.Decimal {
	return m.Mul(Million)
}

// Million is the scale between raw currency units and the millions users
// type and read.
var Million = decimal.NewFromInt(1_000_000)
