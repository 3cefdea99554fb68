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

// ClickHouseResultStore persists simulation outcomes and validation records
// for later accuracy aggregation.
type ClickHouseResultStore struct {
	db            *sql.DB
	outcomesTable string
	recordsTable  string
}

// NewClickHouseResultStore creates a ClickHouse-backed result store.
func NewClickHouseResultStore(db *sql.DB, outcomesTable, recordsTable string) *ClickHouseResultStore {
	return &ClickHouseResultStore{db: db, outcomesTable: outcomesTable, recordsTable: recordsTable}
}

var _ repository.ResultStore = (*ClickHouseResultStore)(nil)

func (s *ClickHouseResultStore) Init(ctx context.Context) error {
	return nil // Schema init in pkg
}

func (s *ClickHouseResultStore) StoreOutcomes(ctx context.Context, outcomes []models.PositionOutcome) error {
	if len(outcomes) == 0 {
		return nil
	}
	const chunkSize = 2000
	for start := 0; start < len(outcomes); start += chunkSize {
		end := start + chunkSize
		if end > len(outcomes) {
			end = len(outcomes)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*12)
		for _, o := range outcomes[start:end] {
			sig := o.Signal
			if sig.Ticker == "" {
				continue
			}
			if !o.OK() {
				values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
				args = append(args,
					sig.Timestamp, sig.Account, sig.Ticker, string(sig.Sentiment),
					sig.EffectiveLeverage(), 0.0, 0.0, "", 0, 0.0, 0.0, o.Error,
				)
				continue
			}
			r := o.Result
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				sig.Timestamp, sig.Account, sig.Ticker, string(sig.Sentiment),
				r.Leverage, r.EntryPrice, r.ExitPrice, string(r.ExitReason),
				r.TakeProfitsHit, r.PnLDollar, r.PnLPercent, "",
			)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf(
			"INSERT INTO %s (signal_ts, account, ticker, sentiment, leverage, entry_price, exit_price, exit_reason, take_profits_hit, pnl_dollar, pnl_percent, error) VALUES %s",
			s.outcomesTable, strings.Join(values, ","),
		)
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	return nil
}

func (s *ClickHouseResultStore) StoreRecords(ctx context.Context, records []models.ValidationRecord) error {
	if len(records) == 0 {
		return nil
	}
	const chunkSize = 2000
	for start := 0; start < len(records); start += chunkSize {
		end := start + chunkSize
		if end > len(records) {
			end = len(records)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*11)
		for _, r := range records[start:end] {
			if r.Ticker == "" {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				r.SignalTime, r.Account, r.Ticker, string(r.Horizon),
				r.PriceAtSignal, r.PriceAtHorizon, r.PercentChange,
				string(r.PredictedDirection), string(r.RealizedDirection),
				boolToUInt8(r.IsCorrect), r.AccuracyScore,
			)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf(
			"INSERT INTO %s (signal_ts, account, ticker, horizon, price_at_signal, price_at_horizon, percent_change, predicted, realized, is_correct, accuracy_score) VALUES %s",
			s.recordsTable, strings.Join(values, ","),
		)
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	return nil
}

func (s *ClickHouseResultStore) RecordsByAccount(ctx context.Context, account string, from, to time.Time) ([]models.ValidationRecord, error) {
	q := fmt.Sprintf(
		"SELECT signal_ts, account, ticker, horizon, price_at_signal, price_at_horizon, percent_change, predicted, realized, is_correct, accuracy_score FROM %s WHERE account = ? AND signal_ts >= ? AND signal_ts <= ? ORDER BY signal_ts ASC",
		s.recordsTable,
	)
	rows, err := s.db.QueryContext(ctx, q, account, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.ValidationRecord
	for rows.Next() {
		var (
			r         models.ValidationRecord
			horizon   string
			predicted string
			realized  string
			correct   uint8
		)
		if err := rows.Scan(&r.SignalTime, &r.Account, &r.Ticker, &horizon,
			&r.PriceAtSignal, &r.PriceAtHorizon, &r.PercentChange,
			&predicted, &realized, &correct, &r.AccuracyScore); err != nil {
			return nil, err
		}
		r.Horizon = models.Horizon(horizon)
		r.PredictedDirection = models.Direction(predicted)
		r.RealizedDirection = models.Direction(realized)
		r.IsCorrect = correct == 1
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *ClickHouseResultStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseResultStore) Close() error {
	return nil // Managed by pkg
}

func boolToUInt8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
