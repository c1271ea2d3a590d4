// Package view turns one snapshot of assumptions and derived values into the
// data the four tabs render. Builders are pure; they never recompute.
package view

import (
	"strings"

	"github.com/shopspring/decimal"

	"kalkyle/internal/calc"
	"kalkyle/internal/chart"
	"kalkyle/internal/control"
	"kalkyle/internal/core"
	"kalkyle/internal/format"
)

// Tab identifiers.
const (
	TabOverview  = "overview"
	TabHousehold = "household"
	TabCosts     = "costs"
	TabSubsidy   = "subsidy"
)

// Slot names shared by the controls and the views.
const (
	SlotInvestment    = "investment"
	SlotRate          = "rate"
	SlotTicketRevenue = "ticket-revenue"
	DriftSlotPrefix   = "drift:"
)

// DriftSlot is the slot name of a drift line.
func DriftSlot(key string) string { return DriftSlotPrefix + key }

// Tab is one entry of the tab bar.
type Tab struct {
	ID     string
	Label  string
	Active bool
}

var tabs = []Tab{
	{ID: TabOverview, Label: "Nøkkeltal"},
	{ID: TabHousehold, Label: "Husstandstypar"},
	{ID: TabCosts, Label: "Kostnadar"},
	{ID: TabSubsidy, Label: "Subsidie"},
}

// ValidTab reports whether id names a tab.
func ValidTab(id string) bool {
	for _, t := range tabs {
		if t.ID == id {
			return true
		}
	}
	return false
}

// Snapshot is everything a render reads. All four views read the same
// snapshot, so they cannot disagree.
type Snapshot struct {
	Assumptions core.Assumptions
	Result      calc.Result
	Palette     chart.Palette
	// Selected is the household type whose detail panel is open.
	Selected string
	// Editing maps slots in editing state to their text buffer.
	Editing   map[string]string
	IsDefault bool
	Format    *format.Formatter
}

func (s Snapshot) fmt() *format.Formatter {
	if s.Format != nil {
		return s.Format
	}
	return format.Default
}

// Card is a labelled figure. Tone names a palette color.
type Card struct {
	Label string
	Value string
	Sub   string
	Tone  string
}

// SliderView is the render data of one slider.
type SliderView struct {
	Slot     string
	Label    string
	Value    string
	Display  string
	Min      string
	Max      string
	Step     string
	Ticks    []string
	Position string
	Tone     string
	Field    FieldView
}

// FieldView is the render data of one click-to-edit field.
type FieldView struct {
	Slot    string
	Name    string
	Tone    string
	Display string
	Editing bool
	Buffer  string
	Income  bool
}

// Controls is the assumption panel above the tabs.
type Controls struct {
	Investment    SliderView
	Rate          SliderView
	Strip         []Card
	ResetDisabled bool
}

// Page is the full render of the calculator for the active tab. Only the
// active tab's view is populated.
type Page struct {
	Tab        string
	Tabs       []Tab
	Controls   Controls
	Overview   *Overview
	Households *Households
	Costs      *Costs
	Subsidy    *Subsidy
	Footnote   string
}

// Build renders the page for tab. Unknown tabs fall back to the overview.
func Build(s Snapshot, tab string, notes *Notes) Page {
	if !ValidTab(tab) {
		tab = TabOverview
	}
	p := Page{
		Tab:      tab,
		Tabs:     make([]Tab, len(tabs)),
		Controls: BuildControls(s),
		Footnote: Footnote(s),
	}
	for i, t := range tabs {
		t.Active = t.ID == tab
		p.Tabs[i] = t
	}
	switch tab {
	case TabOverview:
		v := BuildOverview(s, notes)
		p.Overview = &v
	case TabHousehold:
		v := BuildHouseholds(s, notes)
		p.Households = &v
	case TabCosts:
		v := BuildCosts(s, notes)
		p.Costs = &v
	case TabSubsidy:
		v := BuildSubsidy(s, notes)
		p.Subsidy = &v
	}
	return p
}

// Charts returns the chart descriptions of a tab.
func Charts(s Snapshot, tab string) []chart.Chart {
	switch tab {
	case TabOverview:
		return []chart.Chart{TotalsChart(s)}
	case TabCosts:
		return []chart.Chart{CostPieChart(s)}
	case TabSubsidy:
		pp, ph := SubsidyCharts(s)
		return []chart.Chart{pp, ph}
	default:
		return nil
	}
}

// BuildControls renders the sliders and the capital cost strip.
func BuildControls(s Snapshot) Controls {
	f := s.fmt()
	a, r := s.Assumptions, s.Result
	inv, rate := control.InvestmentSlider(), control.RateSlider()
	mnok := func(d decimal.Decimal) string { return f.Compact(d) + " MNOK" }
	pct := func(d decimal.Decimal) string { return f.Percent(d, 2) }

	investment := sliderView(inv, SlotInvestment, "Investeringskost (MNOK, ex mva og spelemidlar)", a.Investment, mnok, "amber")
	investment.Field = s.field(SlotInvestment, "Investeringskost", "amber", mnok(a.Investment), false)

	return Controls{
		Investment: investment,
		Rate:       sliderView(rate, SlotRate, "Rente (%)", a.Rate, pct, "red"),
		Strip: []Card{
			{Label: "Rentekostnad/år", Value: f.MNOK(r.InterestCost, 2), Tone: "red"},
			{Label: f.Sprintf("Avskriving/år (%d år)", r.AmortizationYears), Value: f.MNOK(r.DepreciationCost, 2), Tone: "amber"},
			{Label: "Total kapitalkost/år", Value: f.MNOK(r.CapitalCost, 2), Tone: "text"},
		},
		ResetDisabled: s.IsDefault,
	}
}

// Field returns the edit field of slot as the page renders it.
func Field(s Snapshot, slot string) (FieldView, bool) {
	switch {
	case slot == SlotInvestment:
		return BuildControls(s).Investment.Field, true
	case slot == SlotTicketRevenue:
		return revenueField(s), true
	case strings.HasPrefix(slot, DriftSlotPrefix):
		for _, d := range s.Assumptions.Drift {
			if DriftSlot(d.Key) == slot {
				return driftField(s, d), true
			}
		}
	}
	return FieldView{}, false
}

func sliderView(sl control.Slider, slot, label string, v decimal.Decimal, display func(decimal.Decimal) string, tone string) SliderView {
	var ticks []string
	for _, t := range sl.Ticks() {
		ticks = append(ticks, display(t))
	}
	return SliderView{
		Slot:     slot,
		Label:    label,
		Value:    v.String(),
		Display:  display(v),
		Min:      sl.Min.String(),
		Max:      sl.Max.String(),
		Step:     sl.Step.String(),
		Ticks:    ticks,
		Position: sl.Position(v).String(),
		Tone:     tone,
	}
}

func (s Snapshot) field(slot, name, tone, display string, income bool) FieldView {
	buf, editing := s.Editing[slot]
	return FieldView{
		Slot:    slot,
		Name:    name,
		Tone:    tone,
		Display: display,
		Editing: editing,
		Buffer:  buf,
		Income:  income,
	}
}

// Footnote summarises every assumption behind the figures.
func Footnote(s Snapshot) string {
	f := s.fmt()
	a, r := s.Assumptions, s.Result
	m := r.Municipality
	return "Kjelde: Eigen kalkyle. Investeringskost " + f.Compact(a.Investment) + " MNOK ex mva og spelemidlar. " +
		"Rente " + f.Percent(a.Rate, 2) + ", avskrivingstid " + f.Int(int64(r.AmortizationYears)) + " år. " +
		"Driftskostnadar " + f.MillionsInt(r.GrossDrift) + " MNOK, billettsal " + f.MillionsInt(r.TicketRevenue) + " MNOK, " +
		"netto drift " + f.MillionsInt(r.NetDrift) + " MNOK. " +
		f.Int(m.Population) + " innbyggarar, " + f.Int(m.Adults) + " vaksne, " + f.Int(m.Households) + " husstandar."
}
