package core

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Model bundles the static inputs of the calculator: the household catalog,
// the municipality constants, the amortisation period and the default
// assumptions a session starts from.
type Model struct {
	Catalog           Catalog
	Municipality      Municipality
	AmortizationYears int
	Defaults          Assumptions
}

// NewModel validates the parts and returns a ready Model.
func NewModel(cat Catalog, m Municipality, years int, defaults Assumptions) (Model, error) {
	if cat.Len() == 0 {
		return Model{}, errors.New("model: empty household catalog")
	}
	if err := m.Validate(); err != nil {
		return Model{}, fmt.Errorf("model: %w", err)
	}
	if years <= 0 {
		return Model{}, fmt.Errorf("model: amortization years must be positive, got %d", years)
	}
	if err := defaults.Validate(); err != nil {
		return Model{}, fmt.Errorf("model defaults: %w", err)
	}
	return Model{
		Catalog:           cat,
		Municipality:      m,
		AmortizationYears: years,
		Defaults:          defaults.Clone(),
	}, nil
}

// DefaultAssumptions are the values a session starts with.
func DefaultAssumptions() Assumptions {
	return Assumptions{
		Investment: decimal.NewFromInt(230),
		Rate:       decimal.NewFromInt(4),
		Drift: []DriftItem{
			{Key: "strom", Name: "Strøm", Amount: 3_000_000, Color: "accent"},
			{Key: "bad", Name: "Badevakter", Amount: 2_400_000, Color: "cyan"},
			{Key: "tilsette", Name: "Andre tilsette", Amount: 4_200_000, Color: "amber"},
			{Key: "kjemi", Name: "Kjemikaliar mm", Amount: 500_000, Color: "lime"},
		},
		TicketRevenue: 4_000_000,
	}
}

// DefaultMunicipality holds the population figures of the municipality.
func DefaultMunicipality() Municipality {
	return Municipality{Adults: 8800, Population: 11000, Households: 5200}
}

// DefaultAmortizationYears is the depreciation period of the investment.
const DefaultAmortizationYears = 20

// DefaultModel builds the built-in model. The built-in data is known to be
// valid, so construction errors are programming errors.
func DefaultModel() Model {
	cat, err := NewCatalog(DefaultHouseholds(), DefaultPassPrices())
	if err != nil {
		panic(fmt.Sprintf("default catalog: %v", err))
	}
	m, err := NewModel(cat, DefaultMunicipality(), DefaultAmortizationYears, DefaultAssumptions())
	if err != nil {
		panic(fmt.Sprintf("default model: %v", err))
	}
	return m
}
