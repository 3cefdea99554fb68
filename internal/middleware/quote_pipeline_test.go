package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CallAudit/internal/domain/models"
)

type nopMetrics struct{}

func (nopMetrics) RecordSimulation(string, string)       {}
func (nopMetrics) RecordValidation(string, string, bool) {}
func (nopMetrics) RecordError(string)                    {}
func (nopMetrics) RecordLastPrice(string, float64)       {}
func (nopMetrics) RecordLatency(string, float64)         {}

type stubProc struct {
	mu   sync.Mutex
	got  []*models.PriceObservation
	fail bool
}

func (p *stubProc) Process(_ context.Context, obs *models.PriceObservation) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("downstream down")
	}
	p.got = append(p.got, obs)
	return nil
}

func (p *stubProc) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.got)
}

func obsAt(ticker string, price float64, at time.Time) *models.PriceObservation {
	return &models.PriceObservation{Ticker: ticker, Price: price, Timestamp: at}
}

func TestPipelineRejectsInvalidObservations(t *testing.T) {
	proc := &stubProc{}
	p := NewQuotePipeline(proc, nopMetrics{})

	now := time.Now()
	assert.Error(t, p.Process(context.Background(), nil))
	assert.Error(t, p.Process(context.Background(), obsAt("", 1, now)))
	assert.Error(t, p.Process(context.Background(), obsAt("BTC", 0, now)))
	assert.Error(t, p.Process(context.Background(), &models.PriceObservation{Ticker: "BTC", Price: 1}))
	assert.Equal(t, 0, proc.count())
}

func TestPipelineForwardsValidObservations(t *testing.T) {
	proc := &stubProc{}
	p := NewQuotePipeline(proc, nopMetrics{})

	require.NoError(t, p.Process(context.Background(), obsAt("BTC", 63500, time.Now())))
	assert.Equal(t, 1, proc.count())
}

func TestPipelineThrottlesPerTicker(t *testing.T) {
	proc := &stubProc{}
	p := NewQuotePipeline(proc, nopMetrics{}, WithMaxRPS(1))

	now := time.Now()
	require.NoError(t, p.Process(context.Background(), obsAt("BTC", 63500, now)))
	// Second observation lands inside the same one second window: dropped
	// silently, not an error.
	require.NoError(t, p.Process(context.Background(), obsAt("BTC", 63501, now)))
	assert.Equal(t, 1, proc.count())

	// A different ticker has its own budget.
	require.NoError(t, p.Process(context.Background(), obsAt("ETH", 3000, now)))
	assert.Equal(t, 2, proc.count())
}

func TestPipelineBuffersOnDownstreamFailure(t *testing.T) {
	proc := &stubProc{fail: true}
	p := NewQuotePipeline(proc, nopMetrics{}, WithBufferSize(10))

	err := p.Process(context.Background(), obsAt("BTC", 63500, time.Now()))
	assert.Error(t, err)
	assert.Equal(t, 0, proc.count())

	// Downstream recovers; the background flusher delivers the buffered
	// observation.
	proc.mu.Lock()
	proc.fail = false
	proc.mu.Unlock()

	p.Start(context.Background())
	defer p.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for proc.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	assert.Equal(t, 1, proc.count())
}

func TestPipelineRestartsAfterStop(t *testing.T) {
	proc := &stubProc{}
	p := NewQuotePipeline(proc, nopMetrics{}, WithBufferSize(10))

	p.Start(context.Background())
	p.Stop()

	// Buffer an observation while downstream is failing, then restart the
	// flusher: a stopped pipeline must come back, not run on a dead channel.
	proc.mu.Lock()
	proc.fail = true
	proc.mu.Unlock()
	assert.Error(t, p.Process(context.Background(), obsAt("BTC", 63500, time.Now())))

	proc.mu.Lock()
	proc.fail = false
	proc.mu.Unlock()

	p.Start(context.Background())
	defer p.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for proc.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	assert.Equal(t, 1, proc.count())
}

func TestPipelineTransformHook(t *testing.T) {
	proc := &stubProc{}
	p := NewQuotePipeline(proc, nopMetrics{}, WithTransform(func(o *models.PriceObservation) *models.PriceObservation {
		o.Ticker = "X:" + o.Ticker
		return o
	}))

	require.NoError(t, p.Process(context.Background(), obsAt("BTC", 63500, time.Now())))
	require.Equal(t, 1, proc.count())
	assert.Equal(t, "X:BTC", proc.got[0].Ticker)
}
