package backend

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"kalkyle/internal/config"
	"kalkyle/internal/control"
	"kalkyle/internal/core"
	applog "kalkyle/internal/log"
)

const smallModel = `
municipality:
  adults: 100
  population: 150
  households: 60
amortization_years: 10
households:
  - type: Singel
    adults: 1
    children: 0
  - type: Par
    adults: 2
    children: 0
pass_prices:
  Singel: 1000
  Par: 1500
defaults:
  investment: "100"
  rate: "3.25"
  ticket_revenue: 50000
  drift:
    - key: strom
      name: Strøm
      amount: 200000
`

func TestParseYAML(t *testing.T) {
	m, err := ParseYAML(strings.NewReader(smallModel))
	if err != nil {
		t.Fatalf("ParseYAML: %v", err)
	}
	if m.Municipality.Adults != 100 || m.AmortizationYears != 10 {
		t.Errorf("model = %+v", m)
	}
	if p, ok := m.Catalog.PassPriceOf("Par"); !ok || p != 1500 {
		t.Errorf("Par pass price = %d, %v", p, ok)
	}
	if m.Defaults.Investment.String() != "100" || m.Defaults.Rate.String() != "3.25" {
		t.Errorf("defaults = %s %s", m.Defaults.Investment, m.Defaults.Rate)
	}
	if len(m.Defaults.Drift) != 1 || m.Defaults.Drift[0].Amount != 200000 {
		t.Errorf("drift = %+v", m.Defaults.Drift)
	}
}

func TestParseYAMLErrors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr error
		substr  string
	}{
		{
			name:   "unknown key",
			doc:    strings.Replace(smallModel, "amortization_years", "amortisation_years", 1),
			substr: "amortisation_years",
		},
		{
			name:    "missing pass price",
			doc:     strings.Replace(smallModel, "  Par: 1500\n", "", 1),
			wantErr: core.ErrMissingPassPrice,
		},
		{
			name:    "empty household",
			doc:     strings.Replace(smallModel, "adults: 1\n    children: 0", "adults: 0\n    children: 0", 1),
			wantErr: core.ErrEmptyHousehold,
		},
		{
			name:   "bad rate",
			doc:    strings.Replace(smallModel, `rate: "3.25"`, `rate: "tre"`, 1),
			substr: "defaults.rate",
		},
		{
			name:    "adults above population",
			doc:     strings.Replace(smallModel, "population: 150", "population: 50", 1),
			wantErr: core.ErrInvalidPopulation,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseYAML(strings.NewReader(tt.doc))
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			if tt.substr != "" && !strings.Contains(err.Error(), tt.substr) {
				t.Errorf("error = %v, want it to mention %q", err, tt.substr)
			}
		})
	}
}

func TestMarshalYAMLReadsBack(t *testing.T) {
	want := core.DefaultModel()
	data, err := MarshalYAML(want)
	if err != nil {
		t.Fatalf("MarshalYAML: %v", err)
	}
	got, err := ParseYAML(strings.NewReader(string(data)))
	if err != nil {
		t.Fatalf("ParseYAML: %v\n%s", err, data)
	}
	if !reflect.DeepEqual(got.Catalog.Archetypes(), want.Catalog.Archetypes()) {
		t.Errorf("archetypes differ:\n%s", data)
	}
	if !got.Defaults.Equal(want.Defaults) {
		t.Errorf("defaults differ:\n%s", data)
	}
}

func TestFactoryLoadModel(t *testing.T) {
	dir := t.TempDir()
	modelFile := filepath.Join(dir, "model.yaml")
	if err := os.WriteFile(modelFile, []byte(smallModel), 0644); err != nil {
		t.Fatal(err)
	}
	f := NewFactory(applog.Discard())
	ctx := context.Background()

	tests := []struct {
		name   string
		config Config
		adults int64
	}{
		{"embedded", Config{Type: EmbeddedSource}, 8800},
		{"yaml", Config{Type: YAMLSource, ModelFile: modelFile}, 100},
		{"sqlite", Config{Type: SQLiteSource, SQLiteDBPath: filepath.Join(dir, "db", "kalkyle.db")}, 8800},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := f.LoadModel(ctx, tt.config)
			if err != nil {
				t.Fatalf("LoadModel: %v", err)
			}
			defer res.Close()
			if res.Source != tt.config.Type {
				t.Errorf("Source = %s, want %s", res.Source, tt.config.Type)
			}
			if res.Model.Municipality.Adults != tt.adults {
				t.Errorf("adults = %d, want %d", res.Model.Municipality.Adults, tt.adults)
			}
		})
	}
}

func TestFactoryRejectsBadConfig(t *testing.T) {
	f := NewFactory(applog.Discard())
	for _, c := range []Config{
		{Type: "sheets"},
		{Type: YAMLSource},
		{Type: SQLiteSource},
		{Type: YAMLSource, ModelFile: filepath.Join(t.TempDir(), "missing.yaml")},
	} {
		if _, err := f.LoadModel(context.Background(), c); err == nil {
			t.Errorf("LoadModel(%+v) succeeded", c)
		}
	}
}

func TestFactoryRejectsDefaultsOffSlider(t *testing.T) {
	dir := t.TempDir()
	f := NewFactory(applog.Discard())
	for name, doc := range map[string]string{
		"investment": strings.Replace(smallModel, `investment: "100"`, `investment: "100.5"`, 1),
		"rate":       strings.Replace(smallModel, `rate: "3.25"`, `rate: "12"`, 1),
	} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".yaml")
			if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
				t.Fatal(err)
			}
			_, err := f.LoadModel(context.Background(), Config{Type: YAMLSource, ModelFile: path})
			if !errors.Is(err, control.ErrOutOfBounds) {
				t.Errorf("LoadModel = %v, want out of bounds", err)
			}
		})
	}
}

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("nil config accepted")
	}
	c, err := FromAppConfig(&config.Config{ModelSource: "sqlite", SQLiteDBPath: "x.db"})
	if err != nil {
		t.Fatal(err)
	}
	if c.Type != SQLiteSource || c.SQLiteDBPath != "x.db" {
		t.Errorf("config = %+v", c)
	}
	if _, err := FromAppConfig(&config.Config{ModelSource: "memory"}); err == nil {
		t.Error("unknown source accepted")
	}
	_, err = FromAppConfig(&config.Config{ModelSource: "memory"})
	if err == nil || !strings.Contains(err.Error(), "embedded, yaml, sqlite") {
		t.Errorf("error should list the valid sources: %v", err)
	}
}
