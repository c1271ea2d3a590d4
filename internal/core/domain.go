package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type (
	// DriftItem is one named operating-cost line. Amount is in raw currency
	// units, not millions.
	DriftItem struct {
		Key    string `json:"key" yaml:"key"`
		Name   string `json:"name" yaml:"name"`
		Amount int64  `json:"amount" yaml:"amount"`
		Color  string `json:"color,omitempty" yaml:"color,omitempty"`
	}

	// Assumptions is the full set of user-adjustable inputs. It is a value:
	// every change produces a new Assumptions, never an in-place edit.
	Assumptions struct {
		Investment    decimal.Decimal `json:"investment"` // millions
		Rate          decimal.Decimal `json:"rate"`       // percent
		Drift         []DriftItem     `json:"drift"`
		TicketRevenue int64           `json:"ticket_revenue"`
	}

	// Municipality holds the population constants the burden is spread over.
	Municipality struct {
		Adults     int64 `json:"adults" yaml:"adults"`
		Population int64 `json:"population" yaml:"population"`
		Households int64 `json:"households" yaml:"households"`
	}
)

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrNegativeAmount    = errors.New("negative amount")
	ErrAmountTooLarge    = errors.New("amount too large")
	ErrEmptyHousehold    = errors.New("household has no members")
	ErrNegativeCount     = errors.New("negative member count")
	ErrDuplicateType     = errors.New("duplicate household type")
	ErrMissingPassPrice  = errors.New("missing pass price")
	ErrUnknownDriftItem  = errors.New("unknown drift item")
	ErrInvalidPopulation = errors.New("invalid population")
)

// Clone returns a deep copy, so the drift slice is never shared between
// snapshots.
func (a Assumptions) Clone() Assumptions {
	out := a
	out.Drift = append([]DriftItem(nil), a.Drift...)
	return out
}

// WithInvestment returns a copy with the investment replaced.
func (a Assumptions) WithInvestment(v decimal.Decimal) Assumptions {
	out := a.Clone()
	out.Investment = v
	return out
}

// WithRate returns a copy with the interest rate replaced.
func (a Assumptions) WithRate(v decimal.Decimal) Assumptions {
	out := a.Clone()
	out.Rate = v
	return out
}

// WithTicketRevenue returns a copy with the ticket revenue replaced.
func (a Assumptions) WithTicketRevenue(v int64) Assumptions {
	out := a.Clone()
	out.TicketRevenue = v
	return out
}

// WithDrift returns a copy with the amount of the named drift line replaced.
func (a Assumptions) WithDrift(key string, amount int64) (Assumptions, error) {
	out := a.Clone()
	for i := range out.Drift {
		if out.Drift[i].Key == key {
			out.Drift[i].Amount = amount
			return out, nil
		}
	}
	return a, fmt.Errorf("%w: %s", ErrUnknownDriftItem, key)
}

// DriftAmount looks up a drift line by key.
func (a Assumptions) DriftAmount(key string) (int64, bool) {
	for _, d := range a.Drift {
		if d.Key == key {
			return d.Amount, true
		}
	}
	return 0, false
}

// Equal reports whether two snapshots hold the same values.
func (a Assumptions) Equal(b Assumptions) bool {
	if !a.Investment.Equal(b.Investment) || !a.Rate.Equal(b.Rate) || a.TicketRevenue != b.TicketRevenue {
		return false
	}
	if len(a.Drift) != len(b.Drift) {
		return false
	}
	for i := range a.Drift {
		if a.Drift[i] != b.Drift[i] {
			return false
		}
	}
	return true
}

// Validate checks the bounds the derivation engine relies on.
func (a Assumptions) Validate() error {
	if a.Investment.IsNegative() {
		return fmt.Errorf("investment: %w", ErrNegativeAmount)
	}
	if a.Rate.IsNegative() {
		return fmt.Errorf("rate: %w", ErrNegativeAmount)
	}
	if a.TicketRevenue < 0 {
		return fmt.Errorf("ticket revenue: %w", ErrNegativeAmount)
	}
	if a.TicketRevenue > MaxAmount {
		return fmt.Errorf("ticket revenue: %w", ErrAmountTooLarge)
	}
	seen := make(map[string]bool, len(a.Drift))
	for _, d := range a.Drift {
		if strings.TrimSpace(d.Key) == "" {
			return errors.New("drift item with empty key")
		}
		if seen[d.Key] {
			return fmt.Errorf("duplicate drift item %q", d.Key)
		}
		seen[d.Key] = true
		if d.Amount < 0 {
			return fmt.Errorf("drift %s: %w", d.Key, ErrNegativeAmount)
		}
		if d.Amount > MaxAmount {
			return fmt.Errorf("drift %s: %w", d.Key, ErrAmountTooLarge)
		}
	}
	return nil
}

func (m Municipality) Validate() error {
	if m.Adults <= 0 {
		return fmt.Errorf("%w: adults must be positive, got %d", ErrInvalidPopulation, m.Adults)
	}
	if m.Population < m.Adults {
		return fmt.Errorf("%w: population %d below adults %d", ErrInvalidPopulation, m.Population, m.Adults)
	}
	if m.Households < 0 {
		return fmt.Errorf("%w: negative households", ErrInvalidPopulation)
	}
	return nil
}
