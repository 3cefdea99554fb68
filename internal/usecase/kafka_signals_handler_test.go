package usecase

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CallAudit/internal/domain/models"
)

type memResultStore struct {
	outcomes []models.PositionOutcome
	records  []models.ValidationRecord
}

func (m *memResultStore) Init(context.Context) error { return nil }

func (m *memResultStore) StoreOutcomes(_ context.Context, outcomes []models.PositionOutcome) error {
	m.outcomes = append(m.outcomes, outcomes...)
	return nil
}

func (m *memResultStore) StoreRecords(_ context.Context, records []models.ValidationRecord) error {
	m.records = append(m.records, records...)
	return nil
}

func (m *memResultStore) RecordsByAccount(_ context.Context, account string, _, _ time.Time) ([]models.ValidationRecord, error) {
	var out []models.ValidationRecord
	for _, r := range m.records {
		if r.Account == account {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memResultStore) Health(context.Context) error { return nil }
func (m *memResultStore) Close() error                 { return nil }

type memPublisher struct {
	portfolios []*models.PortfolioResult
	reports    []*models.AccountAccuracyReport
}

func (m *memPublisher) PublishPortfolio(_ context.Context, res *models.PortfolioResult) error {
	m.portfolios = append(m.portfolios, res)
	return nil
}

func (m *memPublisher) PublishAccuracy(_ context.Context, rep *models.AccountAccuracyReport) error {
	m.reports = append(m.reports, rep)
	return nil
}

func (m *memPublisher) Close() error { return nil }

func newSignalsHandler(src *fakeSource, store *memResultStore, pub *memPublisher) *KafkaSignalsHandler {
	sim := NewPositionSimulator(src, nopMetrics{}, 2)
	val := NewSentimentValidator(src, nopMetrics{}, fixedNow(testT0.Add(8*24*time.Hour)))
	return NewKafkaSignalsHandler("signals", sim, val, store, pub, nopMetrics{}, 100, 24*time.Hour)
}

func TestSignalsHandlerProcessesBatch(t *testing.T) {
	src := newFakeSource()
	src.script("BTC", testT0, 100, 105, 110)
	src.scriptAt("BTC", testT0.Add(time.Hour), 105)

	store := &memResultStore{}
	pub := &memPublisher{}
	h := newSignalsHandler(src, store, pub)

	payload, err := json.Marshal(map[string]interface{}{
		"account": "trader_a",
		"signals": []models.Signal{
			{Ticker: "BTC", Sentiment: models.SentimentLong, EntryPrice: 100, Timestamp: testT0},
			{Ticker: "BTC", Sentiment: models.SentimentBullish, Timestamp: testT0},
		},
	})
	require.NoError(t, err)

	require.NoError(t, h.Handle(context.Background(), payload))

	// One executable signal simulated, both validated (the long counts as a
	// directional call too).
	require.Len(t, store.outcomes, 1)
	assert.Equal(t, "trader_a", store.outcomes[0].Signal.Account, "batch account is stamped onto signals")
	assert.NotEmpty(t, store.records)

	require.Len(t, pub.portfolios, 1)
	assert.Equal(t, 1, pub.portfolios[0].TotalCount)
	require.Len(t, pub.reports, 1)
	assert.Equal(t, "trader_a", pub.reports[0].Account)
}

func TestSignalsHandlerWithoutStore(t *testing.T) {
	src := newFakeSource()
	src.script("BTC", testT0, 100, 105, 110)
	src.scriptAt("BTC", testT0.Add(time.Hour), 105)

	pub := &memPublisher{}
	sim := NewPositionSimulator(src, nopMetrics{}, 2)
	val := NewSentimentValidator(src, nopMetrics{}, fixedNow(testT0.Add(8*24*time.Hour)))
	h := NewKafkaSignalsHandler("signals", sim, val, nil, pub, nopMetrics{}, 100, 24*time.Hour)

	payload, err := json.Marshal(map[string]interface{}{
		"account": "trader_a",
		"signals": []models.Signal{
			{Ticker: "BTC", Sentiment: models.SentimentLong, EntryPrice: 100, Timestamp: testT0},
		},
	})
	require.NoError(t, err)

	// No result storage configured: the batch must still process and the
	// reports must still go out.
	require.NoError(t, h.Handle(context.Background(), payload))
	require.Len(t, pub.portfolios, 1)
	require.Len(t, pub.reports, 1)
}

func TestSignalsHandlerBadPayload(t *testing.T) {
	h := newSignalsHandler(newFakeSource(), &memResultStore{}, &memPublisher{})
	assert.Error(t, h.Handle(context.Background(), []byte("{not json")))
}

func TestSignalsHandlerEmptyBatchIsNoop(t *testing.T) {
	store := &memResultStore{}
	pub := &memPublisher{}
	h := newSignalsHandler(newFakeSource(), store, pub)

	require.NoError(t, h.Handle(context.Background(), []byte(`{"account":"trader_a","signals":[]}`)))
	assert.Empty(t, store.outcomes)
	assert.Empty(t, pub.portfolios)
}

func TestSignalsHandlerBadSignalDoesNotFailBatch(t *testing.T) {
	src := newFakeSource()
	src.script("BTC", testT0, 100, 110)
	src.scriptAt("BTC", testT0.Add(time.Hour), 103)

	store := &memResultStore{}
	h := newSignalsHandler(src, store, &memPublisher{})

	payload, err := json.Marshal(map[string]interface{}{
		"account": "trader_a",
		"signals": []models.Signal{
			{Ticker: "NOPE", Sentiment: models.SentimentLong, EntryPrice: 1, Timestamp: testT0},
			{Ticker: "BTC", Sentiment: models.SentimentLong, EntryPrice: 100, Timestamp: testT0},
		},
	})
	require.NoError(t, err)

	require.NoError(t, h.Handle(context.Background(), payload), "bad data is isolated, not retried")
	require.Len(t, store.outcomes, 2)
	assert.NotEmpty(t, store.outcomes[0].Error)
	assert.True(t, store.outcomes[1].OK())
}
