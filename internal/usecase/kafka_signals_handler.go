package usecase

import (
	"context"
	"encoding/json"
	"time"

	"CallAudit/internal/domain/models"
	domrepo "CallAudit/internal/domain/repository"
	pkgkafka "CallAudit/pkg/kafka"
	applogger "CallAudit/pkg/logger"
)

// KafkaSignalsHandler consumes extracted signal batches, runs them through
// the simulator and the validator, and persists what comes out. A bad
// signal inside a batch only fails its own slot; the handler returns an
// error only when the whole batch cannot be decoded or persisted, so the
// consumer's retry/DLQ machinery applies to infrastructure faults rather
// than to bad data.
type KafkaSignalsHandler struct {
	topic     string
	simulator *PositionSimulator
	validator *SentimentValidator
	store     domrepo.ResultStore
	reports   domrepo.ReportPublisher
	metrics   domrepo.Metrics
	l         *applogger.Logger

	defaultCapital float64
	defaultHorizon time.Duration
}

// NewKafkaSignalsHandler creates the handler for the signals topic.
func NewKafkaSignalsHandler(
	topic string,
	simulator *PositionSimulator,
	validator *SentimentValidator,
	store domrepo.ResultStore,
	reports domrepo.ReportPublisher,
	metrics domrepo.Metrics,
	defaultCapital float64,
	defaultHorizon time.Duration,
) *KafkaSignalsHandler {
	if defaultCapital <= 0 {
		defaultCapital = 100
	}
	if defaultHorizon <= 0 {
		defaultHorizon = 24 * time.Hour
	}
	return &KafkaSignalsHandler{
		topic:          topic,
		simulator:      simulator,
		validator:      validator,
		store:          store,
		reports:        reports,
		metrics:        metrics,
		defaultCapital: defaultCapital,
		defaultHorizon: defaultHorizon,
	}
}

// SetLogger injects a structured logger.
func (h *KafkaSignalsHandler) SetLogger(l *applogger.Logger) { h.l = l }

func (h *KafkaSignalsHandler) Topic() string { return h.topic }

// signalsEnvelope is the wire schema produced by the extraction pipeline.
type signalsEnvelope struct {
	Account            string          `json:"account"`
	CapitalPerPosition float64         `json:"capital_per_position"`
	HorizonHours       int             `json:"horizon_hours"`
	Signals            []models.Signal `json:"signals"`
}

func (h *KafkaSignalsHandler) Handle(ctx context.Context, b []byte) error {
	var env signalsEnvelope
	if err := json.Unmarshal(b, &env); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	if len(env.Signals) == 0 {
		return nil
	}
	for i := range env.Signals {
		if env.Signals[i].Account == "" {
			env.Signals[i].Account = env.Account
		}
	}

	capital := env.CapitalPerPosition
	if capital <= 0 {
		capital = h.defaultCapital
	}
	horizon := time.Duration(env.HorizonHours) * time.Hour
	if horizon <= 0 {
		horizon = h.defaultHorizon
	}

	portfolio := h.simulator.SimulateBatch(ctx, env.Signals, capital, horizon)
	records := FlattenRecords(h.validator.ValidateBatch(ctx, env.Signals))

	// Storage may be absent outside the standard configuration; reports are
	// still published so the batch is not lost to the retry machinery.
	if h.store != nil {
		if err := h.store.StoreOutcomes(ctx, portfolio.Outcomes); err != nil {
			h.metrics.RecordError("consumer_store_outcomes")
			return err
		}
		if err := h.store.StoreRecords(ctx, records); err != nil {
			h.metrics.RecordError("consumer_store_records")
			return err
		}
	}

	if h.reports != nil {
		if err := h.reports.PublishPortfolio(ctx, portfolio); err != nil {
			h.metrics.RecordError("consumer_publish_portfolio")
			if h.l != nil {
				h.l.Warn("portfolio report publish failed", applogger.Error(err))
			}
		}
		if env.Account != "" && len(records) > 0 {
			rep := AggregateAccuracy(env.Account, records)
			if err := h.reports.PublishAccuracy(ctx, rep); err != nil {
				h.metrics.RecordError("consumer_publish_accuracy")
				if h.l != nil {
					h.l.Warn("accuracy report publish failed", applogger.Error(err))
				}
			}
		}
	}

	if h.l != nil {
		h.l.Info("signal batch processed",
			applogger.String("account", env.Account),
			applogger.Int("signals", len(env.Signals)),
			applogger.Int("simulated", portfolio.SuccessfulCount),
			applogger.Int("records", len(records)),
		)
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaSignalsHandler)(nil)
