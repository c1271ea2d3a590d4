// Package control maps user interaction to validated values. A Slider
// commits on every move; a Field buffers free text until it is committed or
// cancelled.
package control

import (
	"fmt"

	"github.com/shopspring/decimal"

	"kalkyle/internal/core"
)

var hundred = decimal.NewFromInt(100)

// Slider is a continuous control bound to [Min, Max] on a fixed Step grid.
type Slider struct {
	Min  decimal.Decimal
	Max  decimal.Decimal
	Step decimal.Decimal
}

// NewSlider validates the range and returns a slider.
func NewSlider(min, max, step decimal.Decimal) (Slider, error) {
	if !step.IsPositive() {
		return Slider{}, fmt.Errorf("slider step must be positive, got %s", step)
	}
	if max.LessThan(min) {
		return Slider{}, fmt.Errorf("slider max %s below min %s", max, min)
	}
	return Slider{Min: min, Max: max, Step: step}, nil
}

// Set clamps v into range and snaps it to the nearest step.
func (s Slider) Set(v decimal.Decimal) decimal.Decimal {
	v = s.clamp(v)
	steps := v.Sub(s.Min).Div(s.Step).Round(0)
	return s.clamp(s.Min.Add(steps.Mul(s.Step)))
}

// Contains reports whether v is a value the slider can hold.
func (s Slider) Contains(v decimal.Decimal) bool {
	return s.Set(v).Equal(v)
}

// Ticks returns the values labelled under the track: the two ends.
func (s Slider) Ticks() []decimal.Decimal {
	return []decimal.Decimal{s.Min, s.Max}
}

// Position is v's place along the track in percent, for rendering the fill.
func (s Slider) Position(v decimal.Decimal) decimal.Decimal {
	span := s.Max.Sub(s.Min)
	if span.IsZero() {
		return decimal.Zero
	}
	return s.clamp(v).Sub(s.Min).Mul(hundred).Div(span).Round(2)
}

func (s Slider) clamp(v decimal.Decimal) decimal.Decimal {
	if v.LessThan(s.Min) {
		return s.Min
	}
	if v.GreaterThan(s.Max) {
		return s.Max
	}
	return v
}

func mustSlider(min, max, step string) Slider {
	s, err := NewSlider(decimal.RequireFromString(min), decimal.RequireFromString(max), decimal.RequireFromString(step))
	if err != nil {
		panic(err)
	}
	return s
}

var (
	investmentSlider = mustSlider("50", "350", "5")
	rateSlider       = mustSlider("2", "8", "0.25")
)

// InvestmentSlider covers the investment range in millions.
func InvestmentSlider() Slider { return investmentSlider }

// RateSlider covers the interest rate range in percent.
func RateSlider() Slider { return rateSlider }

// CheckDefaults reports whether a model's starting assumptions are values
// the sliders can hold. Models from files or databases are checked with it
// before a session can start from them.
func CheckDefaults(a core.Assumptions) error {
	if !investmentSlider.Contains(a.Investment) {
		return fmt.Errorf("%w: investment %s not on [%s, %s] step %s", ErrOutOfBounds,
			a.Investment, investmentSlider.Min, investmentSlider.Max, investmentSlider.Step)
	}
	if !rateSlider.Contains(a.Rate) {
		return fmt.Errorf("%w: rate %s not on [%s, %s] step %s", ErrOutOfBounds,
			a.Rate, rateSlider.Min, rateSlider.Max, rateSlider.Step)
	}
	return nil
}
