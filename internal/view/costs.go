package view

import (
	"html/template"

	"github.com/shopspring/decimal"

	"kalkyle/internal/chart"
	"kalkyle/internal/core"
)

// pieLabelMin is the smallest slice share, in percent, that gets a label.
var pieLabelMin = decimal.NewFromInt(6)

// CapitalRow is one line of the capital cost card.
type CapitalRow struct {
	Label       string
	Value       string
	PerResident string
	Share       string
	Color       string
}

// Slice is one legend entry of the cost pie.
type Slice struct {
	Name    string
	Value   string
	Percent string
	Color   string
}

// Costs is the cost-structure tab.
type Costs struct {
	Note         template.HTML
	Capital      []CapitalRow
	CapitalTotal string
	Drift        []FieldView
	GrossDrift   string
	Revenue      FieldView
	NetDrift     string
	BurdenDetail string
	TotalBurden  string
	PieIntro     string
	Pie          chart.Chart
	Slices       []Slice
	GrossTotal   string
	RevenueTotal string
}

// BuildCosts renders the capital and operating cost cards, the editable
// lines and the gross cost pie.
func BuildCosts(s Snapshot, notes *Notes) Costs {
	f := s.fmt()
	a, r, p := s.Assumptions, s.Result, s.Palette
	population := decimal.NewFromInt(r.Municipality.Population)

	share := func(part decimal.Decimal) string {
		if r.CapitalCost.IsZero() {
			return "0%"
		}
		return f.Int(core.Round(part.Mul(decimal.NewFromInt(100)).Div(r.CapitalCost))) + "%"
	}
	perResident := func(part decimal.Decimal) string {
		return f.Int(core.Round(core.Millions(part).Div(population))) + " kr/innb."
	}

	out := Costs{
		Note: notes.Render(TabCosts, nil),
		Capital: []CapitalRow{
			{Label: "Renter", Value: f.MNOK(r.InterestCost, 1), PerResident: perResident(r.InterestCost),
				Share: share(r.InterestCost), Color: p.Red},
			{Label: f.Sprintf("Avskriving (%d år)", r.AmortizationYears), Value: f.MNOK(r.DepreciationCost, 1),
				PerResident: perResident(r.DepreciationCost), Share: share(r.DepreciationCost), Color: p.Amber},
		},
		CapitalTotal: f.MNOK(r.CapitalCost, 2),
		GrossDrift:   f.MillionsInt(r.GrossDrift) + " MNOK",
		Revenue:      revenueField(s),
		NetDrift:     f.MillionsInt(r.NetDrift) + " MNOK",
		BurdenDetail: "Kapital " + f.MNOK(r.CapitalCost, 1) + " + netto drift " + f.MillionsInt(r.NetDrift) + " MNOK",
		TotalBurden:  f.Millions(r.TotalBurden) + " MNOK/år",
		GrossTotal:   f.Millions(r.GrossCost()) + " MNOK",
		RevenueTotal: f.MillionsInt(r.TicketRevenue) + " MNOK",
	}
	out.PieIntro = "Viser kapital og drift som del av totale bruttokostnadar (" + out.GrossTotal + "). " +
		"Billettsal på " + out.RevenueTotal + " kjem til frå og reduserer netto belastning."

	for _, d := range a.Drift {
		out.Drift = append(out.Drift, driftField(s, d))
	}

	out.Pie = CostPieChart(s)
	total := out.Pie.Sum("value")
	for _, rec := range out.Pie.Data {
		v := rec.Values["value"]
		out.Slices = append(out.Slices, Slice{
			Name:    rec.Label,
			Value:   f.MillionsInt(v) + " MNOK",
			Percent: "(" + f.Int(core.Round(percentOf(v, total))) + "%)",
			Color:   rec.Color,
		})
	}
	return out
}

func revenueField(s Snapshot) FieldView {
	return s.field(SlotTicketRevenue, "Billettsal (inntekt)", "green", s.fmt().MillionsInt(s.Assumptions.TicketRevenue), true)
}

func driftField(s Snapshot, d core.DriftItem) FieldView {
	return s.field(DriftSlot(d.Key), d.Name, d.Color, s.fmt().MillionsInt(d.Amount), false)
}

// CostPieChart splits the gross cost (capital plus operating lines) into
// slices. Ticket revenue is income and is not a slice.
func CostPieChart(s Snapshot) chart.Chart {
	a, r, p := s.Assumptions, s.Result, s.Palette
	c := chart.Chart{
		ID:    "cost-split",
		Title: "Kostnadsfordeling (brutto, ex. billettsal)",
		Kind:  chart.Pie,
		Axes:  chart.Axes{X: "name", Y: []chart.Series{{Key: "value", Name: "Kostnad"}}},
	}
	add := func(name string, v int64, color string) {
		c.Data = append(c.Data, chart.Record{Label: name, Values: map[string]int64{"value": v}, Color: color})
	}
	add("Renter", core.Round(core.Millions(r.InterestCost)), p.Red)
	add("Avskriving", core.Round(core.Millions(r.DepreciationCost)), p.Amber)
	for _, d := range a.Drift {
		add(d.Name, d.Amount, p.Color(d.Color))
	}

	total := c.Sum("value")
	for i := range c.Data {
		pct := percentOf(c.Data[i].Values["value"], total)
		if pct.GreaterThan(pieLabelMin) {
			c.Data[i].Annotation = s.fmt().Int(core.Round(pct)) + "%"
		}
	}
	return c
}

func percentOf(v, total int64) decimal.Decimal {
	if total == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(v).Mul(decimal.NewFromInt(100)).Div(decimal.NewFromInt(total))
}
