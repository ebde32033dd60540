package reportstore

import (
	"context"
	"database/sql"
	"time"

	"precoradar/services/compare"

	"github.com/shopspring/decimal"

	_ "embed"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var Schema string

// Store keeps a history of comparison runs in sqlite, one row per run
// plus its best offers and unmatched products. It satisfies compare.Sink
// so a run can feed the history directly.
type Store struct {
	db *sql.DB
}

func NewStore(database *sql.DB) Store {
	return Store{db: database}
}

// Open opens (and initializes) a report history database at path. Use
// ":memory:" for a throwaway store.
func Open(path string) (Store, error) {
	database, err := sql.Open("sqlite", path)
	if err != nil {
		return Store{}, err
	}
	_, err = database.Exec(Schema)
	if err != nil {
		database.Close()
		return Store{}, err
	}
	return NewStore(database), nil
}

func (s Store) Close() error {
	return s.db.Close()
}

func (s Store) Store(ctx context.Context, report compare.Report) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(
		ctx,
		`INSERT INTO run (generated_at, total_spend) VALUES (?, ?)`,
		report.GeneratedAt.Unix(),
		report.TotalSpend.String(),
	)
	if err != nil {
		return err
	}
	runId, err := res.LastInsertId()
	if err != nil {
		return err
	}

	for _, offer := range report.BestOffers {
		_, err = tx.ExecContext(
			ctx,
			`INSERT INTO best_offer
				(run_id, product_query, retailer, display_name, price, weight_kg, price_per_kg)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
			runId,
			offer.Query,
			offer.Retailer,
			offer.DisplayName,
			offer.Price.String(),
			offer.WeightKg.String(),
			offer.PricePerKg.String(),
		)
		if err != nil {
			return err
		}
	}
	for _, u := range report.Unmatched {
		_, err = tx.ExecContext(
			ctx,
			`INSERT INTO unmatched (run_id, product_query, timed_out) VALUES (?, ?, ?)`,
			runId,
			u.Query,
			u.TimedOut,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// PricePoint is one historical observation of a product's winning offer.
type PricePoint struct {
	Time       time.Time
	Retailer   string
	PricePerKg decimal.Decimal
}

// History returns the winning price-per-kg series for one catalog query,
// oldest first.
func (s Store) History(ctx context.Context, query string) ([]PricePoint, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT run.generated_at, best_offer.retailer, best_offer.price_per_kg
			FROM best_offer
			JOIN run ON run.id = best_offer.run_id
			WHERE best_offer.product_query = ?
			ORDER BY run.generated_at ASC`,
		query,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []PricePoint
	for rows.Next() {
		var unix int64
		var retailerId, pricePerKg string
		err = rows.Scan(&unix, &retailerId, &pricePerKg)
		if err != nil {
			return nil, err
		}
		value, err := decimal.NewFromString(pricePerKg)
		if err != nil {
			return nil, err
		}
		points = append(points, PricePoint{
			Time:       time.Unix(unix, 0),
			Retailer:   retailerId,
			PricePerKg: value,
		})
	}
	return points, rows.Err()
}
