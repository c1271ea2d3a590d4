package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"

	"kalkyle/internal/core"
	applog "kalkyle/internal/log"

	_ "modernc.org/sqlite"
)

// SQLiteRepository reads the calculator model from a SQLite database whose
// schema and seed data come from the embedded migrations.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	logger  *applog.Logger
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := migrateSchema(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	logger := applog.Default(applog.ComponentStorage)
	logger.Debug("Model database ready", "path", dbPath, "schema_version", version)
	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		logger:  logger,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// LoadModel reads the whole model in one read transaction and validates it
// through the same constructors as the built-in model.
func (r *SQLiteRepository) LoadModel(ctx context.Context) (core.Model, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Model{}, fmt.Errorf("begin read: %w", err)
	}
	defer tx.Rollback()
	q := r.queries.WithTx(tx)

	muni, err := q.GetMunicipality(ctx)
	if err != nil {
		return core.Model{}, fmt.Errorf("get municipality: %w", err)
	}

	households, err := q.ListHouseholds(ctx)
	if err != nil {
		return core.Model{}, fmt.Errorf("list households: %w", err)
	}
	specs := make([]core.HouseholdSpec, len(households))
	for i, h := range households {
		specs[i] = core.HouseholdSpec{Type: h.Type, Adults: int(h.Adults), Children: int(h.Children)}
	}

	prices, err := q.ListPassPrices(ctx)
	if err != nil {
		return core.Model{}, fmt.Errorf("list pass prices: %w", err)
	}
	passPrices := make(map[string]int64, len(prices))
	for _, p := range prices {
		passPrices[p.HouseholdType] = p.Price
	}

	drift, err := q.ListDriftItems(ctx)
	if err != nil {
		return core.Model{}, fmt.Errorf("list drift items: %w", err)
	}
	defaults, err := q.GetDefaultAssumptions(ctx)
	if err != nil {
		return core.Model{}, fmt.Errorf("get default assumptions: %w", err)
	}

	investment, err := decimal.NewFromString(defaults.Investment)
	if err != nil {
		return core.Model{}, fmt.Errorf("default investment %q: %w", defaults.Investment, err)
	}
	rate, err := decimal.NewFromString(defaults.Rate)
	if err != nil {
		return core.Model{}, fmt.Errorf("default rate %q: %w", defaults.Rate, err)
	}
	assumptions := core.Assumptions{
		Investment:    investment,
		Rate:          rate,
		Drift:         make([]core.DriftItem, len(drift)),
		TicketRevenue: defaults.TicketRevenue,
	}
	for i, d := range drift {
		assumptions.Drift[i] = core.DriftItem{Key: d.Key, Name: d.Name, Amount: d.Amount, Color: d.Color}
	}

	catalog, err := core.NewCatalog(specs, passPrices)
	if err != nil {
		return core.Model{}, fmt.Errorf("catalog: %w", err)
	}
	model, err := core.NewModel(catalog,
		core.Municipality{Adults: muni.Adults, Population: muni.Population, Households: muni.Households},
		int(muni.AmortizationYears), assumptions)
	if err != nil {
		return core.Model{}, err
	}

	r.logger.DebugContext(ctx, "Model loaded from SQLite",
		"households", len(specs),
		"drift_items", len(drift))
	return model, nil
}
