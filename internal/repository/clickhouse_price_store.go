package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"CallAudit/internal/domain/models"
	"CallAudit/internal/domain/repository"
)

// ClickHousePriceStore persists price observations and answers historical
// price lookups from the same table. It implements both QuoteSink and
// PriceSource, so stored stream data becomes the simulation price series.
type ClickHousePriceStore struct {
	db    *sql.DB
	table string
}

// NewClickHousePriceStore creates a ClickHouse-backed price store.
func NewClickHousePriceStore(db *sql.DB, table string) *ClickHousePriceStore {
	return &ClickHousePriceStore{db: db, table: table}
}

var _ repository.QuoteSink = (*ClickHousePriceStore)(nil)
var _ repository.PriceSource = (*ClickHousePriceStore)(nil)

func (s *ClickHousePriceStore) Store(ctx context.Context, obs *models.PriceObservation) error {
	q := fmt.Sprintf("INSERT INTO %s (ts, ticker, price) VALUES (?, ?, ?)", s.table)
	_, err := s.db.ExecContext(ctx, q, obs.Timestamp, obs.Ticker, obs.Price)
	return err
}

func (s *ClickHousePriceStore) StoreBatch(ctx context.Context, obs []*models.PriceObservation) error {
	if len(obs) == 0 {
		return nil
	}
	// Batch insert using VALUES multi-row to reduce round-trips.
	const chunkSize = 2000
	for start := 0; start < len(obs); start += chunkSize {
		end := start + chunkSize
		if end > len(obs) {
			end = len(obs)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*3)
		for _, o := range obs[start:end] {
			if o == nil || o.Ticker == "" || o.Timestamp.IsZero() {
				continue
			}
			values = append(values, "(?, ?, ?)")
			args = append(args, o.Timestamp, o.Ticker, o.Price)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (ts, ticker, price) VALUES %s", s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	return nil
}

// PriceAt returns the stored price nearest the instant, within a one hour
// window on either side. A ticker with no rows in the window is treated as
// unavailable rather than unsupported: the table may simply not have caught
// up yet.
func (s *ClickHousePriceStore) PriceAt(ctx context.Context, ticker string, at time.Time) (float64, error) {
	q := fmt.Sprintf(
		"SELECT price FROM %s WHERE ticker = ? AND ts >= ? AND ts <= ? ORDER BY abs(toUnixTimestamp(ts) - ?) ASC LIMIT 1",
		s.table,
	)
	row := s.db.QueryRowContext(ctx, q, ticker, at.Add(-time.Hour), at.Add(time.Hour), at.Unix())

	var price float64
	if err := row.Scan(&price); err != nil {
		if err == sql.ErrNoRows {
			return 0, fmt.Errorf("%s at %s: %w", ticker, at.Format(time.RFC3339), models.ErrPriceUnavailable)
		}
		return 0, err
	}
	return price, nil
}

func (s *ClickHousePriceStore) PricePath(ctx context.Context, ticker string, from, to time.Time) ([]models.PriceObservation, error) {
	q := fmt.Sprintf(
		"SELECT ticker, ts, price FROM %s WHERE ticker = ? AND ts >= ? AND ts <= ? ORDER BY ts ASC",
		s.table,
	)
	rows, err := s.db.QueryContext(ctx, q, ticker, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var path []models.PriceObservation
	for rows.Next() {
		var obs models.PriceObservation
		if err := rows.Scan(&obs.Ticker, &obs.Timestamp, &obs.Price); err != nil {
			return nil, err
		}
		path = append(path, obs)
	}
	return path, rows.Err()
}

func (s *ClickHousePriceStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
