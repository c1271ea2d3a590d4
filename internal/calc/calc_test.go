package calc

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"

	"kalkyle/internal/core"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func defaultResult() Result {
	d := core.DefaultAssumptions()
	return Calculate(d.Investment, d.Rate, d.Drift, d.TicketRevenue)
}

func TestCalculateDefaults(t *testing.T) {
	r := defaultResult()

	checks := []struct {
		name string
		got  decimal.Decimal
		want string
	}{
		{"interest", r.InterestCost, "9.2"},
		{"depreciation", r.DepreciationCost, "11.5"},
		{"capital", r.CapitalCost, "20.7"},
		{"total burden", r.TotalBurden, "26800000"},
	}
	for _, c := range checks {
		if !c.got.Equal(dec(c.want)) {
			t.Errorf("%s = %s, want %s", c.name, c.got, c.want)
		}
	}
	if r.GrossDrift != 10_100_000 {
		t.Errorf("gross drift = %d", r.GrossDrift)
	}
	if r.NetDrift != 6_100_000 {
		t.Errorf("net drift = %d", r.NetDrift)
	}
	if got := core.Round(r.PerAdultShare); got != 3045 {
		t.Errorf("per adult = %d", got)
	}
	if got := core.Round(r.FlatPerCapitaShare); got != 2436 {
		t.Errorf("flat per capita = %d", got)
	}
	if len(r.Households) != 8 {
		t.Fatalf("households = %d", len(r.Households))
	}
	if err := r.Verify(); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestHouseholdBreakdownDefaults(t *testing.T) {
	r := defaultResult()
	tests := []struct {
		typ                           string
		taxShare, total               int64
		interest, depreciation, drift int64
		perPerson, perHousehold       int64
	}{
		{"Singel", 3045, 6645, 1045, 1307, 693, 609, 609},
		{"2 vaksne", 6091, 10771, 2091, 2614, 1386, 609, 1218},
		{"2v+2b", 6091, 12771, 2091, 2614, 1386, -914, -3655},
	}
	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			h, ok := r.Household(tt.typ)
			if !ok {
				t.Fatalf("missing household %s", tt.typ)
			}
			if h.TaxShare != tt.taxShare || h.Total != tt.total {
				t.Errorf("tax share/total = %d/%d, want %d/%d", h.TaxShare, h.Total, tt.taxShare, tt.total)
			}
			if h.InterestPart != tt.interest || h.DepreciationPart != tt.depreciation || h.NetDriftPart != tt.drift {
				t.Errorf("parts = %d/%d/%d, want %d/%d/%d", h.InterestPart, h.DepreciationPart, h.NetDriftPart,
					tt.interest, tt.depreciation, tt.drift)
			}
			if h.SubsidyPerPerson != tt.perPerson || h.SubsidyPerHousehold != tt.perHousehold {
				t.Errorf("subsidy = %d/%d, want %d/%d", h.SubsidyPerPerson, h.SubsidyPerHousehold, tt.perPerson, tt.perHousehold)
			}
		})
	}
}

func TestTwoAdultHouseholdShare(t *testing.T) {
	r := defaultResult()
	h, _ := r.Household("2 vaksne")
	perAdult := r.TotalBurden.Div(decimal.NewFromInt(8800))
	want := perAdult.Mul(decimal.NewFromInt(2))
	if !h.TaxShareExact.Equal(want) {
		t.Fatalf("tax share = %s, want %s", h.TaxShareExact, want)
	}
	if h.Total != core.Round(want.Add(decimal.NewFromInt(h.PassPrice))) {
		t.Fatalf("total = %d", h.Total)
	}
}

func TestCapitalCostExactAcrossSliderRange(t *testing.T) {
	drift := core.DefaultAssumptions().Drift
	for inv := int64(50); inv <= 350; inv += 5 {
		for rate := dec("2"); rate.LessThanOrEqual(dec("8")); rate = rate.Add(dec("0.25")) {
			r := Calculate(decimal.NewFromInt(inv), rate, drift, 4_000_000)
			if !r.CapitalCost.Equal(r.InterestCost.Add(r.DepreciationCost)) {
				t.Fatalf("inv=%d rate=%s: capital %s != %s + %s", inv, rate, r.CapitalCost, r.InterestCost, r.DepreciationCost)
			}
			if err := r.Verify(); err != nil {
				t.Fatalf("inv=%d rate=%s: %v", inv, rate, err)
			}
		}
	}
}

func TestNetDriftNegativeWhenRevenueExceedsCost(t *testing.T) {
	drift := []core.DriftItem{{Key: "a", Amount: 1_000_000}, {Key: "b", Amount: 500_000}}
	r := Calculate(dec("50"), dec("2"), drift, 3_000_000)
	if r.GrossDrift != 1_500_000 {
		t.Fatalf("gross drift = %d", r.GrossDrift)
	}
	if r.NetDrift != -1_500_000 {
		t.Fatalf("net drift = %d, want -1500000", r.NetDrift)
	}
	for _, h := range r.Households {
		if h.NetDriftPart >= 0 {
			t.Errorf("%s: expected negative drift part, got %d", h.Type, h.NetDriftPart)
		}
	}
	if err := r.Verify(); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestTotalBurdenNegativeIsFinite(t *testing.T) {
	r := Calculate(dec("50"), dec("0"), nil, 10_000_000)
	if !r.TotalBurden.IsNegative() {
		t.Fatalf("expected negative burden, got %s", r.TotalBurden)
	}
	if err := r.Verify(); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestZeroBurdenDoesNotPanic(t *testing.T) {
	// capital 2.5M (depreciation only) exactly offset by revenue.
	r := Calculate(dec("50"), dec("0"), nil, 2_500_000)
	if !r.TotalBurden.IsZero() {
		t.Fatalf("expected zero burden, got %s", r.TotalBurden)
	}
	for _, h := range r.Households {
		if h.TaxShare != 0 || h.InterestPart+h.DepreciationPart+h.NetDriftPart > 1 {
			t.Errorf("%s: %+v", h.Type, h)
		}
	}
}

func TestCalculateIdempotent(t *testing.T) {
	d := core.DefaultAssumptions()
	a, _ := json.Marshal(Calculate(d.Investment, d.Rate, d.Drift, d.TicketRevenue))
	b, _ := json.Marshal(Calculate(d.Investment, d.Rate, d.Drift, d.TicketRevenue))
	if string(a) != string(b) {
		t.Fatalf("results differ:\n%s\n%s", a, b)
	}
}

func TestCalculateDoesNotMutateInput(t *testing.T) {
	d := core.DefaultAssumptions()
	before := d.Clone()
	_ = Calculate(d.Investment, d.Rate, d.Drift, d.TicketRevenue)
	if !before.Equal(d) {
		t.Fatal("input assumptions mutated")
	}
}

func TestPartsReconcileToTaxShare(t *testing.T) {
	inputs := []core.Assumptions{
		core.DefaultAssumptions(),
		core.DefaultAssumptions().WithInvestment(dec("345")).WithRate(dec("7.75")),
		core.DefaultAssumptions().WithInvestment(dec("55")).WithRate(dec("2.25")).WithTicketRevenue(0),
	}
	for _, a := range inputs {
		r := Calculate(a.Investment, a.Rate, a.Drift, a.TicketRevenue)
		for _, h := range r.Households {
			parts := []int64{h.InterestPart, h.DepreciationPart, h.NetDriftPart}
			var sum int64
			for _, p := range parts {
				sum += p
			}
			if d := sum - h.TaxShare; d < -int64(len(parts)) || d > int64(len(parts)) {
				t.Errorf("inv=%s %s: parts sum %d vs tax share %d", a.Investment, h.Type, sum, h.TaxShare)
			}
		}
	}
}

func TestSingleAdultNeverDividesByZero(t *testing.T) {
	cat, err := core.NewCatalog(
		[]core.HouseholdSpec{{Type: "solo", Adults: 1}, {Type: "child", Children: 1}},
		map[string]int64{"solo": 100, "child": 50},
	)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	m, err := core.NewModel(cat, core.DefaultMunicipality(), 20, core.DefaultAssumptions())
	if err != nil {
		t.Fatalf("model: %v", err)
	}
	r := NewEngine(m).Calculate(core.DefaultAssumptions())
	solo, _ := r.Household("solo")
	if solo.Persons != 1 || solo.SubsidyPerPerson != solo.SubsidyPerHousehold {
		t.Fatalf("solo: %+v", solo)
	}
	child, _ := r.Household("child")
	if child.TaxShare != 0 || child.SubsidyPerPerson >= 0 {
		t.Fatalf("child-only household should pay no tax and be subsidised: %+v", child)
	}
	if err := r.Verify(); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}
