package backend

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"kalkyle/internal/core"
)

// modelDocument is the on-disk layout of a model file. Investment and rate
// are strings so no precision is lost to float parsing.
type modelDocument struct {
	Municipality      core.Municipality `yaml:"municipality"`
	AmortizationYears int               `yaml:"amortization_years"`
	Households        []householdEntry  `yaml:"households"`
	PassPrices        map[string]int64  `yaml:"pass_prices"`
	Defaults          defaultsEntry     `yaml:"defaults"`
}

type householdEntry struct {
	Type     string `yaml:"type"`
	Adults   int    `yaml:"adults"`
	Children int    `yaml:"children"`
}

type defaultsEntry struct {
	Investment    string           `yaml:"investment"`
	Rate          string           `yaml:"rate"`
	TicketRevenue int64            `yaml:"ticket_revenue"`
	Drift         []core.DriftItem `yaml:"drift"`
}

// LoadYAMLFile reads a model file.
func LoadYAMLFile(path string) (core.Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return core.Model{}, err
	}
	defer f.Close()
	return ParseYAML(f)
}

// ParseYAML decodes and validates a model document. Unknown keys are errors.
func ParseYAML(r io.Reader) (core.Model, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc modelDocument
	if err := dec.Decode(&doc); err != nil {
		return core.Model{}, fmt.Errorf("decode model: %w", err)
	}

	investment, err := decimal.NewFromString(doc.Defaults.Investment)
	if err != nil {
		return core.Model{}, fmt.Errorf("defaults.investment %q: %w", doc.Defaults.Investment, err)
	}
	rate, err := decimal.NewFromString(doc.Defaults.Rate)
	if err != nil {
		return core.Model{}, fmt.Errorf("defaults.rate %q: %w", doc.Defaults.Rate, err)
	}

	specs := make([]core.HouseholdSpec, len(doc.Households))
	for i, h := range doc.Households {
		specs[i] = core.HouseholdSpec{Type: h.Type, Adults: h.Adults, Children: h.Children}
	}
	catalog, err := core.NewCatalog(specs, doc.PassPrices)
	if err != nil {
		return core.Model{}, fmt.Errorf("households: %w", err)
	}

	return core.NewModel(catalog, doc.Municipality, doc.AmortizationYears, core.Assumptions{
		Investment:    investment,
		Rate:          rate,
		Drift:         doc.Defaults.Drift,
		TicketRevenue: doc.Defaults.TicketRevenue,
	})
}

// MarshalYAML writes m in the layout ParseYAML reads.
func MarshalYAML(m core.Model) ([]byte, error) {
	doc := modelDocument{
		Municipality:      m.Municipality,
		AmortizationYears: m.AmortizationYears,
		PassPrices:        make(map[string]int64),
		Defaults: defaultsEntry{
			Investment:    m.Defaults.Investment.String(),
			Rate:          m.Defaults.Rate.String(),
			TicketRevenue: m.Defaults.TicketRevenue,
			Drift:         m.Defaults.Drift,
		},
	}
	for _, a := range m.Catalog.Archetypes() {
		doc.Households = append(doc.Households, householdEntry{Type: a.Type, Adults: a.Adults, Children: a.Children})
		doc.PassPrices[a.Type] = a.PassPrice
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
