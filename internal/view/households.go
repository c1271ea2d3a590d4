package view

import (
	"html/template"

	"kalkyle/internal/core"
)

// HouseholdCard is one archetype in the card grid.
type HouseholdCard struct {
	Type      string
	Persons   string
	Figures   []string
	TaxShare  string
	PassPrice string
	Total     string
	Selected  bool
}

// Detail is the expanded breakdown of the selected archetype.
type Detail struct {
	Type  string
	Items []Card
}

// Households is the per-household tab.
type Households struct {
	Note   template.HTML
	Cards  []HouseholdCard
	Detail *Detail
}

// BuildHouseholds renders the archetype cards and, if one is selected, its
// detail panel.
func BuildHouseholds(s Snapshot, notes *Notes) Households {
	f := s.fmt()
	out := Households{
		Note: notes.Render(TabHousehold, struct{ Adults string }{f.Int(s.Result.Municipality.Adults)}),
	}
	for _, h := range s.Result.Households {
		persons := f.Int(int64(h.Persons)) + " person"
		if h.Persons > 1 {
			persons += "ar"
		}
		arch := core.Archetype{Type: h.Type, Adults: h.Adults, Children: h.Children}
		out.Cards = append(out.Cards, HouseholdCard{
			Type:      h.Type,
			Persons:   persons,
			Figures:   arch.Figures(),
			TaxShare:  f.Kr(h.TaxShare),
			PassPrice: f.Kr(h.PassPrice),
			Total:     f.Kr(h.Total),
			Selected:  h.Type == s.Selected,
		})
		if h.Type == s.Selected {
			out.Detail = &Detail{
				Type: h.Type,
				Items: []Card{
					{Label: "Rentedel (skatt)", Value: f.Kr(h.InterestPart), Tone: "red"},
					{Label: "Avskrivingsdel (skatt)", Value: f.Kr(h.DepreciationPart), Tone: "amber"},
					{Label: "Driftsandel (skatt)", Value: f.Kr(h.NetDriftPart), Tone: "purple"},
					{Label: "Sum skattebelasting", Value: f.Kr(h.TaxShare), Tone: "text"},
					{Label: "Brukarbetaling (årskort)", Value: f.Kr(h.PassPrice), Tone: "accent"},
					{Label: "Total om du badar", Value: f.Kr(h.Total), Tone: "text"},
				},
			}
		}
	}
	return out
}
