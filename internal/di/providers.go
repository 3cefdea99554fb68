package di

import (
	"context"
	"fmt"
	"time"

	"CallAudit/internal/domain/repository"
	"CallAudit/internal/handler/api"
	mid "CallAudit/internal/middleware"
	internalrepo "CallAudit/internal/repository"
	icache "CallAudit/internal/service/cache"
	"CallAudit/internal/service/prices"
	"CallAudit/internal/service/quotes"
	"CallAudit/internal/usecase"
	pkgch "CallAudit/pkg/clickhouse"
	"CallAudit/pkg/config"
	pkgkafka "CallAudit/pkg/kafka"
	applogger "CallAudit/pkg/logger"
	"CallAudit/pkg/metrics"
	"CallAudit/pkg/server"
)

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	level := cfg.Logging.Level
	if level == "" {
		level = "info"
	}
	format := cfg.Logging.Format
	if format == "" {
		format = "console"
	}
	output := cfg.Logging.Output
	if output == "" {
		output = "stdout"
	}
	return applogger.New(&applogger.Config{Level: level, Format: format, Output: output})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideClickHouseClient creates a ClickHouse client and prepares the
// schema. Returns nil when ClickHouse is disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db := cfg.ClickHouse.Database
	if db == "" {
		db = "callaudit"
	}
	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS " + db,
		"CREATE TABLE IF NOT EXISTS " + db + ".price_ticks (ts DateTime64(3), ticker String, price Float64) ENGINE=MergeTree ORDER BY (ticker, ts)",
		"CREATE TABLE IF NOT EXISTS " + db + ".sim_outcomes (signal_ts DateTime, account String, ticker String, sentiment String, leverage Float64, entry_price Float64, exit_price Float64, exit_reason String, take_profits_hit UInt8, pnl_dollar Float64, pnl_percent Float64, error String) ENGINE=MergeTree ORDER BY (account, signal_ts)",
		"CREATE TABLE IF NOT EXISTS " + db + ".validation_records (signal_ts DateTime, account String, ticker String, horizon String, price_at_signal Float64, price_at_horizon Float64, percent_change Float64, predicted String, realized String, is_correct UInt8, accuracy_score Float64) ENGINE=MergeTree ORDER BY (account, signal_ts)",
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvidePriceStore creates the ClickHouse-backed price store. Nil when
// ClickHouse is disabled.
func ProvidePriceStore(chClient *pkgch.Client, cfg *config.Config) *internalrepo.ClickHousePriceStore {
	if chClient == nil {
		return nil
	}
	return internalrepo.NewClickHousePriceStore(chClient.DB(), cfg.ClickHouse.Database+".price_ticks")
}

// ProvideResultStore creates the ClickHouse-backed result store. Nil when
// ClickHouse is disabled.
func ProvideResultStore(chClient *pkgch.Client, cfg *config.Config) repository.ResultStore {
	if chClient == nil {
		return nil
	}
	return internalrepo.NewClickHouseResultStore(
		chClient.DB(),
		cfg.ClickHouse.Database+".sim_outcomes",
		cfg.ClickHouse.Database+".validation_records",
	)
}

// ProvideBytesCache picks the cache backend: redis when configured,
// otherwise the in-process TTL cache.
func ProvideBytesCache(cfg *config.Config) icache.BytesCache {
	if cfg.Redis.Enabled {
		return icache.NewRedisCache(icache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	return icache.NewTTLCache()
}

// ProvidePriceSource builds the configured price source, optionally wrapped
// with the point-lookup cache.
func ProvidePriceSource(cfg *config.Config, priceStore *internalrepo.ClickHousePriceStore, cache icache.BytesCache) (repository.PriceSource, error) {
	var src repository.PriceSource
	switch cfg.Prices.Mode {
	case "mock":
		src = prices.NewMock()
	case "coincap":
		opts := []prices.CoinCapOption{}
		if cfg.Prices.BaseURL != "" {
			opts = append(opts, prices.WithBaseURL(cfg.Prices.BaseURL))
		}
		if cfg.Prices.Retry.Attempts > 0 {
			opts = append(opts, prices.WithRetry(cfg.Prices.Retry.Attempts, cfg.Prices.Retry.Backoff))
		}
		if cfg.Prices.HTTPTimeout > 0 {
			opts = append(opts, prices.WithHTTPTimeout(cfg.Prices.HTTPTimeout))
		}
		src = prices.NewCoinCap(cfg.Prices.APIKey, opts...)
	case "clickhouse":
		if priceStore == nil {
			return nil, fmt.Errorf("prices.mode=clickhouse requires clickhouse.enabled")
		}
		src = priceStore
	default:
		return nil, fmt.Errorf("unknown prices mode: %s", cfg.Prices.Mode)
	}

	if cfg.Prices.Cache.Enabled {
		src = prices.NewCached(src, cache, cfg.Prices.Cache.TTL)
	}
	return src, nil
}

// ProvideSimulator creates the position simulator use case.
func ProvideSimulator(src repository.PriceSource, m repository.Metrics, cfg *config.Config, l *applogger.Logger) *usecase.PositionSimulator {
	sim := usecase.NewPositionSimulator(src, m, cfg.Simulation.Workers)
	sim.SetLogger(l)
	return sim
}

// ProvideValidator creates the sentiment validator use case.
func ProvideValidator(src repository.PriceSource, m repository.Metrics, l *applogger.Logger) *usecase.SentimentValidator {
	v := usecase.NewSentimentValidator(src, m, nil)
	v.SetLogger(l)
	return v
}

// ProvideKafkaProducer creates a Kafka producer. Nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.BatchTimeout),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideReportPublisher wraps the producer for the reports topic. Nil when
// reports are not configured.
func ProvideReportPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.ReportPublisher {
	if producer == nil || cfg.Kafka.ReportsTopic == "" {
		return nil
	}
	return internalrepo.NewKafkaReportPublisher(producer, cfg.Kafka.ReportsTopic)
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML. Nil
// when Kafka is disabled.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideSignalsHandler registers the handler for the signals topic.
func ProvideSignalsHandler(
	simulator *usecase.PositionSimulator,
	validator *usecase.SentimentValidator,
	store repository.ResultStore,
	reports repository.ReportPublisher,
	m repository.Metrics,
	cfg *config.Config,
	l *applogger.Logger,
) *usecase.KafkaSignalsHandler {
	h := usecase.NewKafkaSignalsHandler(
		cfg.Kafka.SignalsTopic,
		simulator,
		validator,
		store,
		reports,
		m,
		cfg.Simulation.CapitalPerPosition,
		time.Duration(cfg.Simulation.HorizonHours)*time.Hour,
	)
	h.SetLogger(l)
	return h
}

// ProvideQuoteRecorder wires stream -> pipeline -> price store. Nil when
// quote recording is disabled.
func ProvideQuoteRecorder(
	cfg *config.Config,
	priceStore *internalrepo.ClickHousePriceStore,
	m repository.Metrics,
) *usecase.QuoteRecorder {
	if !cfg.Quotes.Enabled || priceStore == nil {
		return nil
	}
	stream := quotes.New(
		cfg.Quotes.APIKey,
		cfg.Quotes.WebSocketURL,
		cfg.Quotes.Tickers,
		cfg.Quotes.ReconnectDelay,
		cfg.Quotes.PingInterval,
	)
	proc := usecase.NewQuoteProcessor(priceStore, m, cfg.Quotes.BatchSize, cfg.Quotes.BatchTimeout)
	pipe := mid.NewQuotePipeline(proc, m,
		mid.WithMaxRPS(cfg.Quotes.MaxRPS),
		mid.WithBufferSize(cfg.Quotes.BufferSize),
	)
	return usecase.NewQuoteRecorder(stream, proc, m, pipe)
}

// ProvideHTTPHandler creates the audit API handler.
func ProvideHTTPHandler(
	l *applogger.Logger,
	simulator *usecase.PositionSimulator,
	validator *usecase.SentimentValidator,
	store repository.ResultStore,
) *api.AuditEchoHandler {
	return api.NewAuditEchoHandler(l, simulator, validator, store)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	recorder *usecase.QuoteRecorder,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaSignalsHandler,
	chClient *pkgch.Client,
	handler *api.AuditEchoHandler,
	producer *pkgkafka.Producer,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	var rec server.QuoteRecorder
	if recorder != nil {
		rec = recorder
	}
	app := server.New(cfg, l, rec, consumer, kh, chClient)
	app.SetHTTPHandler(handler)
	if producer != nil {
		// Error logs are deduped and shipped to the errors topic so storms
		// from a flapping provider show up as one aggregated report.
		if cfg.Kafka.ErrorsTopic != "" {
			l.AddCollector(&applogger.CollectionConfig{
				TimeInterval:   30 * time.Second,
				CountThreshold: 100,
				Topic:          cfg.Kafka.ErrorsTopic,
				Publisher:      producer,
			})
			app.AddCloser(func() error {
				l.RemoveCollector()
				return nil
			})
		}
		app.AddCloser(producer.Close)
	}
	return app
}
