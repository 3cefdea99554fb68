package repository

import (
	"context"
	"time"

	"CallAudit/internal/domain/models"
)

// PriceSource answers "price of ticker T at time t" questions. PriceAt
// returns the observation nearest the instant; PricePath returns the
// observations in [from, to] ordered by timestamp. Implementations return
// models.ErrUnsupportedAsset for unknown tickers rather than a zero price.
type PriceSource interface {
	PriceAt(ctx context.Context, ticker string, at time.Time) (float64, error)
	PricePath(ctx context.Context, ticker string, from, to time.Time) ([]models.PriceObservation, error)
}

// QuoteStream is a live feed of price observations.
type QuoteStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.PriceObservation, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// QuoteSink persists live price observations.
type QuoteSink interface {
	Store(ctx context.Context, obs *models.PriceObservation) error
	StoreBatch(ctx context.Context, obs []*models.PriceObservation) error
}

// ResultStore persists simulation and validation outcomes.
type ResultStore interface {
	Init(ctx context.Context) error
	StoreOutcomes(ctx context.Context, outcomes []models.PositionOutcome) error
	StoreRecords(ctx context.Context, records []models.ValidationRecord) error
	RecordsByAccount(ctx context.Context, account string, from, to time.Time) ([]models.ValidationRecord, error)
	Health(ctx context.Context) error
	Close() error
}

// ReportPublisher ships finished reports downstream.
type ReportPublisher interface {
	PublishPortfolio(ctx context.Context, res *models.PortfolioResult) error
	PublishAccuracy(ctx context.Context, rep *models.AccountAccuracyReport) error
	Close() error
}

// Metrics records operational measurements.
type Metrics interface {
	RecordSimulation(ticker string, reason string)
	RecordValidation(ticker string, horizon string, correct bool)
	RecordError(kind string)
	RecordLastPrice(ticker string, price float64)
	RecordLatency(op string, seconds float64)
}
