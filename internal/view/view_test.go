package view

import (
	"strings"
	"testing"

	"kalkyle/internal/calc"
	"kalkyle/internal/chart"
	"kalkyle/internal/core"
	"kalkyle/internal/format"
)

func defaultSnapshot(t *testing.T) Snapshot {
	t.Helper()
	a := core.DefaultAssumptions()
	return Snapshot{
		Assumptions: a,
		Result:      calc.NewEngine(core.DefaultModel()).Calculate(a),
		Palette:     chart.Dark,
		IsDefault:   true,
	}
}

func mustNotes(t *testing.T) *Notes {
	t.Helper()
	n, err := NewNotes()
	if err != nil {
		t.Fatalf("NewNotes: %v", err)
	}
	return n
}

func TestBuildOverview(t *testing.T) {
	s := defaultSnapshot(t)
	o := BuildOverview(s, mustNotes(t))

	want := map[string]string{
		"Investeringskost":         "230 MNOK",
		"Kapitalkost/år":           "20,7 MNOK",
		"Netto driftsunderskot/år": "6,1 MNOK",
		"Total skattebelasting/år": "26,8 MNOK",
		"Per vaksen/år (skatt)":    "3 045 kr",
		"Flat per innbyggar/år":    "2 436 kr",
	}
	if len(o.Cards) != len(want) {
		t.Fatalf("cards = %d", len(o.Cards))
	}
	for _, c := range o.Cards {
		if got := format.Plain(c.Value); got != want[c.Label] {
			t.Errorf("%s = %q, want %q", c.Label, got, want[c.Label])
		}
	}
	if o.Chart.Axes.YMax != OverviewYMax || o.Chart.Kind != chart.StackedBar {
		t.Errorf("chart axes = %+v", o.Chart.Axes)
	}
	if err := o.Chart.Validate(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(o.Note), "<strong>kommunebudsjettet</strong>") {
		t.Errorf("note not rendered: %s", o.Note)
	}
}

func TestTotalsChartMatchesHouseholds(t *testing.T) {
	s := defaultSnapshot(t)
	c := TotalsChart(s)
	for _, h := range s.Result.Households {
		stack, ok := c.Stack(h.Type)
		if !ok {
			t.Fatalf("no bar for %s", h.Type)
		}
		if d := stack - h.Total; d < -3 || d > 3 {
			t.Errorf("%s: stacked %d vs total %d", h.Type, stack, h.Total)
		}
	}
}

func TestBuildHouseholdsSelection(t *testing.T) {
	s := defaultSnapshot(t)
	notes := mustNotes(t)

	v := BuildHouseholds(s, notes)
	if v.Detail != nil {
		t.Fatal("detail shown without selection")
	}
	if len(v.Cards) != 8 {
		t.Fatalf("cards = %d", len(v.Cards))
	}
	if v.Cards[0].Persons != "1 person" || v.Cards[2].Persons != "2 personar" {
		t.Errorf("persons labels: %q %q", v.Cards[0].Persons, v.Cards[2].Persons)
	}
	if strings.Join(v.Cards[3].Figures, ",") != "adult,adult,child" {
		t.Errorf("figures = %v", v.Cards[3].Figures)
	}
	if !strings.Contains(format.Plain(string(v.Note)), "8 800 vaksne") {
		t.Errorf("note = %s", v.Note)
	}

	s.Selected = "2 vaksne"
	v = BuildHouseholds(s, notes)
	if v.Detail == nil || v.Detail.Type != "2 vaksne" {
		t.Fatalf("detail = %+v", v.Detail)
	}
	if got := format.Plain(v.Detail.Items[5].Value); got != "10 771 kr" {
		t.Errorf("total = %q", got)
	}
	if !v.Cards[1].Selected || v.Cards[0].Selected {
		t.Error("selection flag")
	}
}

func TestBuildCosts(t *testing.T) {
	s := defaultSnapshot(t)
	s.Editing = map[string]string{DriftSlot("bad"): "2,9"}
	c := BuildCosts(s, nil)

	if got := format.Plain(c.CapitalTotal); got != "20,70 MNOK" {
		t.Errorf("capital total = %q", got)
	}
	if c.Capital[0].Share != "44%" || c.Capital[1].Share != "56%" {
		t.Errorf("shares = %s / %s", c.Capital[0].Share, c.Capital[1].Share)
	}
	if len(c.Drift) != 4 {
		t.Fatalf("drift rows = %d", len(c.Drift))
	}
	bad := c.Drift[1]
	if !bad.Editing || bad.Buffer != "2,9" || c.Drift[0].Editing {
		t.Errorf("editing state = %+v", bad)
	}
	if !c.Revenue.Income || c.Revenue.Slot != SlotTicketRevenue {
		t.Errorf("revenue = %+v", c.Revenue)
	}
	if got := format.Plain(c.TotalBurden); got != "26,8 MNOK/år" {
		t.Errorf("total burden = %q", got)
	}
	if got := format.Plain(c.GrossTotal); got != "30,8 MNOK" {
		t.Errorf("gross total = %q", got)
	}
	if c.Note != "" {
		t.Error("nil notes should render empty")
	}
}

func TestCostPieLabels(t *testing.T) {
	s := defaultSnapshot(t)
	pie := CostPieChart(s)
	if len(pie.Data) != 6 {
		t.Fatalf("slices = %d", len(pie.Data))
	}
	want := map[string]string{
		"Renter":         "30%",
		"Avskriving":     "37%",
		"Strøm":          "10%",
		"Badevakter":     "8%",
		"Andre tilsette": "14%",
		"Kjemikaliar mm": "",
	}
	for _, r := range pie.Data {
		if r.Annotation != want[r.Label] {
			t.Errorf("%s annotation = %q, want %q", r.Label, r.Annotation, want[r.Label])
		}
	}
	if got := pie.Sum("value"); got != 30_800_000 {
		t.Errorf("gross = %d", got)
	}
}

func TestBuildSubsidy(t *testing.T) {
	s := defaultSnapshot(t)
	v := BuildSubsidy(s, mustNotes(t))
	rows := map[string]SubsidyRow{}
	for _, r := range v.Rows {
		rows[r.Type] = r
	}
	if r := rows["Singel"]; r.PersonVerdict != PaysMore || r.PerPerson != "+609" {
		t.Errorf("Singel = %+v", r)
	}
	if r := rows["2v+2b"]; r.PersonVerdict != Saves || r.HouseVerdict != Saves {
		t.Errorf("2v+2b = %+v", r)
	}
	if !strings.HasPrefix(rows["2v+2b"].PersonSentence, "Sparer") {
		t.Errorf("sentence = %q", rows["2v+2b"].PersonSentence)
	}
	for _, r := range v.PerPerson.Data {
		if r.Values["subsidy"] < 0 && r.Color != chart.Dark.Green {
			t.Errorf("%s: negative bar not green", r.Label)
		}
	}
	if !v.PerHousehold.Axes.ZeroLine {
		t.Error("zero line missing")
	}
}

func TestVerdict(t *testing.T) {
	if Verdict(1) != PaysMore || Verdict(-1) != Saves || Verdict(0) != Even {
		t.Fatal("verdicts")
	}
}

func TestViewsAgree(t *testing.T) {
	s := defaultSnapshot(t)
	hh := BuildHouseholds(s, nil)
	sub := BuildSubsidy(s, nil)
	for i := range hh.Cards {
		if format.Plain(hh.Cards[i].TaxShare) != format.Plain(sub.Rows[i].TaxShare)+" kr" {
			t.Errorf("%s: %q vs %q", hh.Cards[i].Type, hh.Cards[i].TaxShare, sub.Rows[i].TaxShare)
		}
	}
}

func TestBuildPage(t *testing.T) {
	s := defaultSnapshot(t)
	p := Build(s, "nope", nil)
	if p.Tab != TabOverview || p.Overview == nil || p.Costs != nil {
		t.Fatalf("fallback page = %+v", p)
	}
	p = Build(s, TabSubsidy, nil)
	if p.Subsidy == nil || p.Overview != nil {
		t.Fatal("subsidy page")
	}
	active := 0
	for _, tab := range p.Tabs {
		if tab.Active {
			active++
		}
	}
	if active != 1 {
		t.Errorf("active tabs = %d", active)
	}
	if !p.Controls.ResetDisabled {
		t.Error("reset should be disabled at defaults")
	}
	if got := format.Plain(p.Controls.Rate.Display); got != "4,00%" {
		t.Errorf("rate display = %q", got)
	}
	if got := format.Plain(p.Controls.Strip[0].Value); got != "9,20 MNOK" {
		t.Errorf("interest strip = %q", got)
	}
}

func TestFootnote(t *testing.T) {
	got := format.Plain(Footnote(defaultSnapshot(t)))
	for _, want := range []string{
		"Investeringskost 230 MNOK",
		"Rente 4,00%",
		"avskrivingstid 20 år",
		"netto drift 6,1 MNOK",
		"11 000 innbyggarar",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("footnote %q missing %q", got, want)
		}
	}
}

func TestCharts(t *testing.T) {
	s := defaultSnapshot(t)
	if n := len(Charts(s, TabSubsidy)); n != 2 {
		t.Errorf("subsidy charts = %d", n)
	}
	if n := len(Charts(s, TabHousehold)); n != 0 {
		t.Errorf("household charts = %d", n)
	}
	for _, c := range Charts(s, TabOverview) {
		if err := c.Validate(); err != nil {
			t.Error(err)
		}
	}
}

func TestField(t *testing.T) {
	s := defaultSnapshot(t)
	s.Editing = map[string]string{DriftSlot("strom"): "3,00"}

	tests := []struct {
		slot    string
		name    string
		editing bool
		income  bool
	}{
		{SlotInvestment, "Investeringskost", false, false},
		{SlotTicketRevenue, "Billettsal (inntekt)", false, true},
		{DriftSlot("strom"), "Strøm", true, false},
	}
	for _, tt := range tests {
		t.Run(tt.slot, func(t *testing.T) {
			f, ok := Field(s, tt.slot)
			if !ok {
				t.Fatalf("Field(%q) not found", tt.slot)
			}
			if f.Slot != tt.slot || f.Name != tt.name || f.Editing != tt.editing || f.Income != tt.income {
				t.Errorf("Field(%q) = %+v", tt.slot, f)
			}
		})
	}

	for _, slot := range []string{SlotRate, DriftSlot("nope"), ""} {
		if _, ok := Field(s, slot); ok {
			t.Errorf("Field(%q) found", slot)
		}
	}
}
