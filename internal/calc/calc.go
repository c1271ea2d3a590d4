// Package calc derives the full cost and subsidy breakdown from a set of
// assumptions. Everything here is pure: the same inputs always give the same
// Result, and nothing is cached or mutated between calls.
package calc

import (
	"fmt"

	"github.com/shopspring/decimal"

	"kalkyle/internal/core"
)

var hundred = decimal.NewFromInt(100)

// Household is the breakdown for one archetype. Money fields are rounded to
// whole currency units; TaxShareExact keeps the unrounded value.
type Household struct {
	Type                string          `json:"type"`
	Adults              int             `json:"adults"`
	Children            int             `json:"children"`
	Persons             int             `json:"persons"`
	PassPrice           int64           `json:"pass_price"`
	TaxShare            int64           `json:"tax_share"`
	TaxShareExact       decimal.Decimal `json:"tax_share_exact"`
	InterestPart        int64           `json:"interest_part"`
	DepreciationPart    int64           `json:"depreciation_part"`
	NetDriftPart        int64           `json:"net_drift_part"`
	Total               int64           `json:"total"`
	SubsidyPerPerson    int64           `json:"subsidy_per_person"`
	SubsidyPerHousehold int64           `json:"subsidy_per_household"`
}

// Result is the derived value set. It is always replaced as a whole.
type Result struct {
	InterestCost       decimal.Decimal `json:"interest_cost"`     // millions/year
	DepreciationCost   decimal.Decimal `json:"depreciation_cost"` // millions/year
	CapitalCost        decimal.Decimal `json:"capital_cost"`      // millions/year
	GrossDrift         int64           `json:"gross_drift"`
	TicketRevenue      int64           `json:"ticket_revenue"`
	NetDrift           int64           `json:"net_drift"`
	TotalBurden        decimal.Decimal `json:"total_burden"`
	PerAdultShare      decimal.Decimal `json:"per_adult_share"`
	FlatPerCapitaShare decimal.Decimal `json:"flat_per_capita_share"`
	Households         []Household     `json:"households"`

	AmortizationYears int               `json:"amortization_years"`
	Municipality      core.Municipality `json:"municipality"`
}

// Engine binds the derivation to a model (catalog, municipality, period).
type Engine struct {
	model core.Model
}

// NewEngine returns an engine for the given model.
func NewEngine(m core.Model) *Engine {
	return &Engine{model: m}
}

// Model returns the model the engine derives against.
func (e *Engine) Model() core.Model {
	return e.model
}

var defaultEngine = NewEngine(core.DefaultModel())

// Calculate derives the result for the built-in model.
func Calculate(investment, rate decimal.Decimal, drift []core.DriftItem, ticketRevenue int64) Result {
	return defaultEngine.Calculate(core.Assumptions{
		Investment:    investment,
		Rate:          rate,
		Drift:         drift,
		TicketRevenue: ticketRevenue,
	})
}

// Calculate derives every value in one pass. Bounds are not enforced here;
// the controls feeding the assumptions do that.
func (e *Engine) Calculate(a core.Assumptions) Result {
	m := e.model
	years := decimal.NewFromInt(int64(m.AmortizationYears))
	adults := decimal.NewFromInt(m.Municipality.Adults)
	population := decimal.NewFromInt(m.Municipality.Population)

	interest := a.Investment.Mul(a.Rate).Div(hundred)
	depreciation := a.Investment.Div(years)
	capital := interest.Add(depreciation)

	var gross int64
	for _, d := range a.Drift {
		gross += d.Amount
	}
	net := gross - a.TicketRevenue
	netDec := decimal.NewFromInt(net)

	interestRaw := core.Millions(interest)
	depreciationRaw := core.Millions(depreciation)
	total := core.Millions(capital).Add(netDec)

	perAdult := total.Div(adults)
	flat := total.Div(population)

	r := Result{
		InterestCost:       interest,
		DepreciationCost:   depreciation,
		CapitalCost:        capital,
		GrossDrift:         gross,
		TicketRevenue:      a.TicketRevenue,
		NetDrift:           net,
		TotalBurden:        total,
		PerAdultShare:      perAdult,
		FlatPerCapitaShare: flat,
		AmortizationYears:  m.AmortizationYears,
		Municipality:       m.Municipality,
	}

	for _, h := range m.Catalog.Archetypes() {
		n := decimal.NewFromInt(int64(h.Adults))
		persons := decimal.NewFromInt(int64(h.Persons()))
		taxShare := n.Mul(perAdult)

		// Each part is this household's adults' share of the matching
		// component of the total burden: taxShare * component / totalBurden.
		interestPart := n.Mul(interestRaw).Div(adults)
		depreciationPart := n.Mul(depreciationRaw).Div(adults)
		driftPart := n.Mul(netDec).Div(adults)

		r.Households = append(r.Households, Household{
			Type:                h.Type,
			Adults:              h.Adults,
			Children:            h.Children,
			Persons:             h.Persons(),
			PassPrice:           h.PassPrice,
			TaxShare:            core.Round(taxShare),
			TaxShareExact:       taxShare,
			InterestPart:        core.Round(interestPart),
			DepreciationPart:    core.Round(depreciationPart),
			NetDriftPart:        core.Round(driftPart),
			Total:               core.Round(taxShare.Add(decimal.NewFromInt(h.PassPrice))),
			SubsidyPerPerson:    core.Round(taxShare.Div(persons).Sub(flat)),
			SubsidyPerHousehold: core.Round(taxShare.Sub(flat.Mul(persons))),
		})
	}
	return r
}

// Household returns the breakdown for a type.
func (r Result) Household(householdType string) (Household, bool) {
	for _, h := range r.Households {
		if h.Type == householdType {
			return h, true
		}
	}
	return Household{}, false
}

// GrossCost is the capital cost plus gross operating cost, in raw units.
func (r Result) GrossCost() decimal.Decimal {
	return core.Millions(r.CapitalCost).Add(decimal.NewFromInt(r.GrossDrift))
}

// Verify checks the reconciliation invariants between the aggregate, the
// per-household and the subsidy views. Rounded parts may be off by one
// currency unit each.
func (r Result) Verify() error {
	if !r.CapitalCost.Equal(r.InterestCost.Add(r.DepreciationCost)) {
		return fmt.Errorf("capital cost %s != interest %s + depreciation %s", r.CapitalCost, r.InterestCost, r.DepreciationCost)
	}
	if r.NetDrift != r.GrossDrift-r.TicketRevenue {
		return fmt.Errorf("net drift %d != gross %d - revenue %d", r.NetDrift, r.GrossDrift, r.TicketRevenue)
	}
	adults := decimal.NewFromInt(r.Municipality.Adults)
	for _, h := range r.Households {
		parts := h.InterestPart + h.DepreciationPart + h.NetDriftPart
		if diff := abs(parts - h.TaxShare); diff > 3 {
			return fmt.Errorf("%s: parts %d differ from tax share %d by %d", h.Type, parts, h.TaxShare, diff)
		}
		if h.Adults == 0 {
			continue
		}
		// Scale the household's exact share back up to the whole adult
		// population; it must give the total burden.
		back := h.TaxShareExact.Mul(adults).Div(decimal.NewFromInt(int64(h.Adults)))
		if back.Sub(r.TotalBurden).Abs().GreaterThan(decimal.NewFromInt(1)) {
			return fmt.Errorf("%s: tax share scales to %s, total burden is %s", h.Type, back, r.TotalBurden)
		}
		wantHH := h.TaxShareExact.Sub(r.FlatPerCapitaShare.Mul(decimal.NewFromInt(int64(h.Persons))))
		if abs(h.SubsidyPerHousehold-core.Round(wantHH)) > 0 {
			return fmt.Errorf("%s: subsidy per household %d inconsistent", h.Type, h.SubsidyPerHousehold)
		}
	}
	return nil
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
