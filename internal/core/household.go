package core

import "fmt"

// Archetype is a named household composition used to segment the cost
// allocation.
type Archetype struct {
	Type      string `json:"type" yaml:"type"`
	Adults    int    `json:"adults" yaml:"adults"`
	Children  int    `json:"children" yaml:"children"`
	PassPrice int64  `json:"pass_price" yaml:"pass_price"`
}

// Persons is the household size. Always at least 1 for a catalog entry.
func (a Archetype) Persons() int {
	return a.Adults + a.Children
}

// Figures lists the household members for icon rendering, adults first.
func (a Archetype) Figures() []string {
	out := make([]string, 0, a.Persons())
	for i := 0; i < a.Adults; i++ {
		out = append(out, "adult")
	}
	for i := 0; i < a.Children; i++ {
		out = append(out, "child")
	}
	return out
}

// Catalog is the ordered, immutable list of household archetypes.
type Catalog struct {
	archetypes []Archetype
	passPrices map[string]int64
}

// HouseholdSpec describes an archetype before its pass price is attached.
type HouseholdSpec struct {
	Type     string
	Adults   int
	Children int
}

// NewCatalog validates the archetypes and attaches each one's flat annual pass
// price from the lookup.
func NewCatalog(specs []HouseholdSpec, passPrices map[string]int64) (Catalog, error) {
	c := Catalog{
		archetypes: make([]Archetype, 0, len(specs)),
		passPrices: make(map[string]int64, len(passPrices)),
	}
	for k, v := range passPrices {
		c.passPrices[k] = v
	}
	seen := make(map[string]bool, len(specs))
	for _, s := range specs {
		if s.Adults < 0 || s.Children < 0 {
			return Catalog{}, fmt.Errorf("%s: %w", s.Type, ErrNegativeCount)
		}
		if s.Adults+s.Children < 1 {
			return Catalog{}, fmt.Errorf("%s: %w", s.Type, ErrEmptyHousehold)
		}
		if seen[s.Type] {
			return Catalog{}, fmt.Errorf("%s: %w", s.Type, ErrDuplicateType)
		}
		seen[s.Type] = true
		price, ok := passPrices[s.Type]
		if !ok {
			return Catalog{}, fmt.Errorf("%s: %w", s.Type, ErrMissingPassPrice)
		}
		if price < 0 {
			return Catalog{}, fmt.Errorf("%s pass price: %w", s.Type, ErrNegativeAmount)
		}
		c.archetypes = append(c.archetypes, Archetype{
			Type:      s.Type,
			Adults:    s.Adults,
			Children:  s.Children,
			PassPrice: price,
		})
	}
	return c, nil
}

// Archetypes returns the archetypes in display order.
func (c Catalog) Archetypes() []Archetype {
	return append([]Archetype(nil), c.archetypes...)
}

// Len returns the number of archetypes.
func (c Catalog) Len() int {
	return len(c.archetypes)
}

// PassPriceOf returns the flat annual pass price for a household type.
func (c Catalog) PassPriceOf(householdType string) (int64, bool) {
	p, ok := c.passPrices[householdType]
	return p, ok
}

// Lookup finds an archetype by type.
func (c Catalog) Lookup(householdType string) (Archetype, bool) {
	for _, a := range c.archetypes {
		if a.Type == householdType {
			return a, true
		}
	}
	return Archetype{}, false
}

// DefaultPassPrices is the annual pass price list of the facility.
func DefaultPassPrices() map[string]int64 {
	return map[string]int64{
		"Singel":      3600,
		"2 vaksne":    4680,
		"Vaksen+barn": 4680,
		"2v+1b":       5680,
		"2v+2b":       6680,
		"2v+3b":       7280,
		"2v+4b":       7880,
		"2v+5b":       8480,
	}
}

// DefaultHouseholds lists the household compositions shown by the calculator.
func DefaultHouseholds() []HouseholdSpec {
	return []HouseholdSpec{
		{Type: "Singel", Adults: 1, Children: 0},
		{Type: "2 vaksne", Adults: 2, Children: 0},
		{Type: "Vaksen+barn", Adults: 1, Children: 1},
		{Type: "2v+1b", Adults: 2, Children: 1},
		{Type: "2v+2b", Adults: 2, Children: 2},
		{Type: "2v+3b", Adults: 2, Children: 3},
		{Type: "2v+4b", Adults: 2, Children: 4},
		{Type: "2v+5b", Adults: 2, Children: 5},
	}
}
