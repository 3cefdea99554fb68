package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"CallAudit/internal/domain/models"
	drepo "CallAudit/internal/domain/repository"
	mid "CallAudit/internal/middleware"
)

// QuoteProcessor batches observations and flushes them to the price store.
// A flush happens when the batch fills or when the timeout elapses,
// whichever comes first.
type QuoteProcessor struct {
	sink    drepo.QuoteSink
	metrics drepo.Metrics
	batchSz int
	batchTO time.Duration

	mu    sync.Mutex
	batch []*models.PriceObservation
	timer *time.Timer
}

// NewQuoteProcessor creates a new QuoteProcessor instance.
func NewQuoteProcessor(sink drepo.QuoteSink, metrics drepo.Metrics, batchSz int, batchTO time.Duration) *QuoteProcessor {
	if batchSz <= 0 {
		batchSz = 100
	}
	if batchTO <= 0 {
		batchTO = time.Second
	}
	return &QuoteProcessor{
		sink:    sink,
		metrics: metrics,
		batchSz: batchSz,
		batchTO: batchTO,
		batch:   make([]*models.PriceObservation, 0, batchSz),
	}
}

// Process appends one observation to the pending batch, flushing when full.
func (p *QuoteProcessor) Process(ctx context.Context, obs *models.PriceObservation) error {
	if obs == nil {
		return fmt.Errorf("observation is nil")
	}

	p.mu.Lock()
	p.batch = append(p.batch, obs)
	if len(p.batch) >= p.batchSz {
		batch := p.takeBatchLocked()
		p.mu.Unlock()
		return p.flush(ctx, batch)
	}
	if p.timer == nil {
		p.timer = time.AfterFunc(p.batchTO, func() {
			p.mu.Lock()
			batch := p.takeBatchLocked()
			p.mu.Unlock()
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = p.flush(ctx, batch)
		})
	}
	p.mu.Unlock()
	return nil
}

func (p *QuoteProcessor) takeBatchLocked() []*models.PriceObservation {
	batch := p.batch
	p.batch = make([]*models.PriceObservation, 0, p.batchSz)
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	return batch
}

func (p *QuoteProcessor) flush(ctx context.Context, batch []*models.PriceObservation) error {
	if len(batch) == 0 {
		return nil
	}
	start := time.Now()
	if err := p.sink.StoreBatch(ctx, batch); err != nil {
		p.metrics.RecordError("quote_store_batch")
		return fmt.Errorf("store quote batch: %w", err)
	}
	p.metrics.RecordLatency("quote_store_batch", time.Since(start).Seconds())
	return nil
}

// Close flushes whatever is pending.
func (p *QuoteProcessor) Close() {
	p.mu.Lock()
	batch := p.takeBatchLocked()
	p.mu.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = p.flush(ctx, batch)
}

// QuoteRecorder drains the live quote stream through the pipeline into the
// price store, so simulations run against observed market data.
type QuoteRecorder struct {
	stream  drepo.QuoteStream
	proc    *QuoteProcessor
	metrics drepo.Metrics
	pipe    *mid.QuotePipeline
}

// NewQuoteRecorder creates a new QuoteRecorder instance.
func NewQuoteRecorder(stream drepo.QuoteStream, proc *QuoteProcessor, metrics drepo.Metrics, pipe *mid.QuotePipeline) *QuoteRecorder {
	return &QuoteRecorder{stream: stream, proc: proc, metrics: metrics, pipe: pipe}
}

// IsConnected returns true if the quote stream is connected.
func (c *QuoteRecorder) IsConnected() bool {
	return c.stream.IsConnected()
}

func (c *QuoteRecorder) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	if c.pipe != nil {
		c.pipe.Start(ctx)
	}
	obsCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, obsCh, errCh)
	return nil
}

func (c *QuoteRecorder) consume(ctx context.Context, obsCh <-chan *models.PriceObservation, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-errCh:
			if err != nil {
				c.metrics.RecordError("stream")
				_ = c.stream.Reconnect(ctx)
			}
		case obs := <-obsCh:
			if obs == nil {
				continue
			}
			if c.pipe != nil {
				_ = c.pipe.Process(ctx, obs)
			} else {
				_ = c.proc.Process(ctx, obs)
				c.metrics.RecordLastPrice(obs.Ticker, obs.Price)
			}
		}
	}
}

// Processor returns the underlying QuoteProcessor for lifecycle management.
func (c *QuoteRecorder) Processor() *QuoteProcessor { return c.proc }

// Shutdown stops the pipeline, flushes pending writes, and closes the stream.
func (c *QuoteRecorder) Shutdown(ctx context.Context) error {
	if c.pipe != nil {
		c.pipe.Stop()
	}
	if c.proc != nil {
		c.proc.Close()
	}
	return c.stream.Close()
}
