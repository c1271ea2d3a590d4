package view

import (
	"html/template"

	"kalkyle/internal/chart"
	"kalkyle/internal/core"
)

// Sign classes of a subsidy delta.
const (
	PaysMore = "betalar meir"
	Saves    = "sparer"
	Even     = "lik"
)

// Verdict classifies a subsidy delta: positive pays more than a flat split,
// negative saves.
func Verdict(v int64) string {
	switch {
	case v > 0:
		return PaysMore
	case v < 0:
		return Saves
	default:
		return Even
	}
}

// SubsidyRow is one line of the subsidy table.
type SubsidyRow struct {
	Type           string
	TaxShare       string
	FlatPerPerson  string
	PerPerson      string
	PerHousehold   string
	PersonVerdict  string
	HouseVerdict   string
	PersonSentence string
}

// Subsidy is the subsidy-analysis tab.
type Subsidy struct {
	Note         template.HTML
	PerPerson    chart.Chart
	PerHousehold chart.Chart
	Rows         []SubsidyRow
}

// BuildSubsidy renders the two delta charts and the comparison table.
func BuildSubsidy(s Snapshot, notes *Notes) Subsidy {
	f := s.fmt()
	r := s.Result
	flat := f.Int(core.Round(r.FlatPerCapitaShare))
	out := Subsidy{
		Note: notes.Render(TabSubsidy, struct {
			Adults, Population, FlatPerPerson, PerAdult string
		}{
			Adults:        f.Int(r.Municipality.Adults),
			Population:    f.Int(r.Municipality.Population),
			FlatPerPerson: flat,
			PerAdult:      f.Int(core.Round(r.PerAdultShare)),
		}),
	}
	out.PerPerson, out.PerHousehold = SubsidyCharts(s)
	for _, h := range r.Households {
		out.Rows = append(out.Rows, SubsidyRow{
			Type:           h.Type,
			TaxShare:       f.Int(h.TaxShare),
			FlatPerPerson:  flat,
			PerPerson:      f.Signed(h.SubsidyPerPerson),
			PerHousehold:   f.Signed(h.SubsidyPerHousehold),
			PersonVerdict:  Verdict(h.SubsidyPerPerson),
			HouseVerdict:   Verdict(h.SubsidyPerHousehold),
			PersonSentence: sentence(s, h.SubsidyPerPerson, "per pers"),
		})
	}
	return out
}

func sentence(s Snapshot, v int64, unit string) string {
	f := s.fmt()
	abs := v
	if abs < 0 {
		abs = -abs
	}
	switch Verdict(v) {
	case PaysMore:
		return "Betalar " + f.Kr(abs) + " meir " + unit + " enn flat fordeling"
	case Saves:
		return "Sparer " + f.Kr(abs) + " " + unit + " vs flat fordeling"
	default:
		return "Lik flat fordeling"
	}
}

// SubsidyCharts returns the per-person and per-household delta charts. Bars
// are red where the household pays more than a flat split, green where it
// saves.
func SubsidyCharts(s Snapshot) (perPerson, perHousehold chart.Chart) {
	p := s.Palette
	build := func(id, title, subtitle, name, unit string, value func(i int) int64) chart.Chart {
		c := chart.Chart{
			ID:       id,
			Title:    title,
			Subtitle: subtitle,
			Kind:     chart.Bar,
			Axes: chart.Axes{
				X:        "type",
				Y:        []chart.Series{{Key: "subsidy", Name: name, Color: p.Muted}},
				ZeroLine: true,
				Ticks:    "grouped",
			},
		}
		for i, h := range s.Result.Households {
			v := value(i)
			c.Data = append(c.Data, chart.Record{
				Label:      h.Type,
				Values:     map[string]int64{"subsidy": v},
				Color:      p.Sign(v),
				Annotation: sentence(s, v, unit),
			})
		}
		return c
	}
	hh := s.Result.Households
	perPerson = build("subsidy-person", "Subsidie per person (kr/år)",
		"Raudt = betalar meir enn flat fordeling. Grønt = subsidiert.", "Subsidie per person", "per pers",
		func(i int) int64 { return hh[i].SubsidyPerPerson })
	perHousehold = build("subsidy-household", "Subsidie per husstand (kr/år)",
		"Totalt avvik frå flat fordeling for heile husstanden.", "Subsidie per husstand", "per husstand",
		func(i int) int64 { return hh[i].SubsidyPerHousehold })
	return perPerson, perHousehold
}
