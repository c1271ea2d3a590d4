package storage

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"kalkyle/internal/core"
)

func newTestRepo(t *testing.T) (*SQLiteRepository, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "kalkyle.db")
	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo, path
}

func exec(t *testing.T, path, query string, args ...any) {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	if _, err := db.Exec(query, args...); err != nil {
		t.Fatalf("exec %q: %v", query, err)
	}
}

func TestLoadModelMatchesBuiltIn(t *testing.T) {
	repo, _ := newTestRepo(t)

	got, err := repo.LoadModel(context.Background())
	if err != nil {
		t.Fatalf("LoadModel: %v", err)
	}
	want := core.DefaultModel()

	if !reflect.DeepEqual(got.Catalog.Archetypes(), want.Catalog.Archetypes()) {
		t.Errorf("archetypes = %+v\nwant %+v", got.Catalog.Archetypes(), want.Catalog.Archetypes())
	}
	if got.Municipality != want.Municipality {
		t.Errorf("municipality = %+v, want %+v", got.Municipality, want.Municipality)
	}
	if got.AmortizationYears != want.AmortizationYears {
		t.Errorf("years = %d, want %d", got.AmortizationYears, want.AmortizationYears)
	}
	if !got.Defaults.Equal(want.Defaults) {
		t.Errorf("defaults = %+v, want %+v", got.Defaults, want.Defaults)
	}
	for i, d := range got.Defaults.Drift {
		if d != want.Defaults.Drift[i] {
			t.Errorf("drift[%d] = %+v, want %+v", i, d, want.Defaults.Drift[i])
		}
	}
}

func TestReopenKeepsData(t *testing.T) {
	repo, path := newTestRepo(t)
	repo.Close()

	exec(t, path, `UPDATE pass_prices SET price = 3900 WHERE household_type = 'Singel'`)
	exec(t, path, `UPDATE default_assumptions SET investment = '180.5'`)

	again, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer again.Close()

	m, err := again.LoadModel(context.Background())
	if err != nil {
		t.Fatalf("LoadModel: %v", err)
	}
	if p, _ := m.Catalog.PassPriceOf("Singel"); p != 3900 {
		t.Errorf("Singel pass price = %d, want 3900", p)
	}
	if m.Defaults.Investment.String() != "180.5" {
		t.Errorf("default investment = %s, want 180.5", m.Defaults.Investment)
	}
}

func TestLoadModelRejectsMissingPassPrice(t *testing.T) {
	repo, path := newTestRepo(t)
	exec(t, path, `DELETE FROM pass_prices WHERE household_type = '2v+5b'`)

	_, err := repo.LoadModel(context.Background())
	if !errors.Is(err, core.ErrMissingPassPrice) {
		t.Fatalf("LoadModel error = %v, want ErrMissingPassPrice", err)
	}
}

func TestLoadModelRejectsBadDecimal(t *testing.T) {
	repo, path := newTestRepo(t)
	exec(t, path, `UPDATE default_assumptions SET rate = 'fire'`)

	if _, err := repo.LoadModel(context.Background()); err == nil {
		t.Fatal("expected error for non-numeric rate")
	}
}
