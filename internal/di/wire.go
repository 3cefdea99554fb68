//go:build wireinject
// +build wireinject

package di

import (
	"CallAudit/pkg/config"
	"CallAudit/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideBytesCache,

		// Repositories
		ProvidePriceStore,
		ProvideResultStore,
		ProvideReportPublisher,
		ProvidePriceSource,

		// Use cases
		ProvideSimulator,
		ProvideValidator,
		ProvideSignalsHandler,
		ProvideQuoteRecorder,

		// Transport
		ProvideHTTPHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
