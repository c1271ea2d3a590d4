package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type Municipality struct {
	Adults            int64
	Population        int64
	Households        int64
	AmortizationYears int64
}

const getMunicipality = `SELECT adults, population, households, amortization_years FROM municipality WHERE id = 1`

func (q *Queries) GetMunicipality(ctx context.Context) (Municipality, error) {
	var m Municipality
	err := q.db.QueryRowContext(ctx, getMunicipality).Scan(&m.Adults, &m.Population, &m.Households, &m.AmortizationYears)
	return m, err
}

type Household struct {
	Type     string
	Adults   int64
	Children int64
}

const listHouseholds = `SELECT type, adults, children FROM households ORDER BY position`

func (q *Queries) ListHouseholds(ctx context.Context) ([]Household, error) {
	rows, err := q.db.QueryContext(ctx, listHouseholds)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Household
	for rows.Next() {
		var h Household
		if err := rows.Scan(&h.Type, &h.Adults, &h.Children); err != nil {
			return nil, err
		}
		items = append(items, h)
	}
	return items, rows.Err()
}

type PassPrice struct {
	HouseholdType string
	Price         int64
}

const listPassPrices = `SELECT household_type, price FROM pass_prices`

func (q *Queries) ListPassPrices(ctx context.Context) ([]PassPrice, error) {
	rows, err := q.db.QueryContext(ctx, listPassPrices)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PassPrice
	for rows.Next() {
		var p PassPrice
		if err := rows.Scan(&p.HouseholdType, &p.Price); err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

type DriftItem struct {
	Key    string
	Name   string
	Amount int64
	Color  string
}

const listDriftItems = `SELECT key, name, amount, color FROM drift_items ORDER BY position`

func (q *Queries) ListDriftItems(ctx context.Context) ([]DriftItem, error) {
	rows, err := q.db.QueryContext(ctx, listDriftItems)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []DriftItem
	for rows.Next() {
		var d DriftItem
		if err := rows.Scan(&d.Key, &d.Name, &d.Amount, &d.Color); err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	return items, rows.Err()
}

type DefaultAssumptions struct {
	Investment    string
	Rate          string
	TicketRevenue int64
}

const getDefaultAssumptions = `SELECT investment, rate, ticket_revenue FROM default_assumptions WHERE id = 1`

func (q *Queries) GetDefaultAssumptions(ctx context.Context) (DefaultAssumptions, error) {
	var d DefaultAssumptions
	err := q.db.QueryRowContext(ctx, getDefaultAssumptions).Scan(&d.Investment, &d.Rate, &d.TicketRevenue)
	return d, err
}
