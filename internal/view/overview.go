package view

import (
	"html/template"

	"kalkyle/internal/chart"
	"kalkyle/internal/core"
)

// OverviewYMax keeps the totals chart axis fixed so bars are comparable
// between scenarios.
const OverviewYMax = 25_000

// Overview is the key-figures tab.
type Overview struct {
	Note  template.HTML
	Cards []Card
	Chart chart.Chart
}

// BuildOverview renders the key figures and the totals chart.
func BuildOverview(s Snapshot, notes *Notes) Overview {
	f := s.fmt()
	a, r := s.Assumptions, s.Result
	m := r.Municipality
	return Overview{
		Note: notes.Render(TabOverview, nil),
		Cards: []Card{
			{Label: "Investeringskost", Value: f.Compact(a.Investment) + " MNOK", Sub: "Ex mva og spelemidlar", Tone: "amber"},
			{Label: "Kapitalkost/år", Value: f.MNOK(r.CapitalCost, 1),
				Sub: "Renter " + f.Fixed(r.InterestCost, 1) + " + avskr. " + f.Fixed(r.DepreciationCost, 1), Tone: "red"},
			{Label: "Netto driftsunderskot/år", Value: f.MillionsInt(r.NetDrift) + " MNOK",
				Sub: "Drift " + f.MillionsInt(r.GrossDrift) + " − billettsal " + f.MillionsInt(r.TicketRevenue), Tone: "purple"},
			{Label: "Total skattebelasting/år", Value: f.Millions(r.TotalBurden) + " MNOK", Sub: "Kapital + netto drift", Tone: "text"},
			{Label: "Per vaksen/år (skatt)", Value: f.Kr(core.Round(r.PerAdultShare)), Sub: f.Int(m.Adults) + " vaksne", Tone: "accent"},
			{Label: "Flat per innbyggar/år", Value: f.Kr(core.Round(r.FlatPerCapitaShare)),
				Sub: "Om fordelt på " + f.Int(m.Population) + " innb.", Tone: "green"},
		},
		Chart: TotalsChart(s),
	}
}

// TotalsChart stacks each household's tax parts and pass price.
func TotalsChart(s Snapshot) chart.Chart {
	f := s.fmt()
	p := s.Palette
	c := chart.Chart{
		ID:       "household-totals",
		Title:    "Total kostnad per husstandstype (kr/år)",
		Subtitle: "Nedste tre delar = skatt (betalast uansett). Blå = brukarbetaling for dei som badar. Y-aksen er fast.",
		Kind:     chart.StackedBar,
		Axes: chart.Axes{
			X: "type",
			Y: []chart.Series{
				{Key: "interest", Name: "Renter (skatt)", Color: p.Red},
				{Key: "depreciation", Name: "Avskriving (skatt)", Color: p.Amber},
				{Key: "drift", Name: "Netto drift (skatt)", Color: p.Purple},
				{Key: "pass", Name: "Brukarbetaling", Color: p.Accent},
			},
			YMax:  OverviewYMax,
			Ticks: "thousands",
		},
	}
	for _, h := range s.Result.Households {
		c.Data = append(c.Data, chart.Record{
			Label: h.Type,
			Values: map[string]int64{
				"interest":     h.InterestPart,
				"depreciation": h.DepreciationPart,
				"drift":        h.NetDriftPart,
				"pass":         h.PassPrice,
			},
			Annotation: f.Int(h.Total),
		})
	}
	return c
}
