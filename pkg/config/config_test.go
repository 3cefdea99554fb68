package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	c := &Config{}
	c.Environment = "test"
	c.Prices.Mode = "mock"
	return c
}

func TestValidateMinimal(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateRequiresEnvironment(t *testing.T) {
	c := validConfig()
	c.Environment = ""
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for missing environment")
	}
}

func TestValidateRejectsUnknownPricesMode(t *testing.T) {
	c := validConfig()
	c.Prices.Mode = "oracle"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for unknown prices mode")
	}
}

func TestValidateCoinCapNeedsAPIKey(t *testing.T) {
	c := validConfig()
	c.Prices.Mode = "coincap"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for coincap without api key")
	}
	c.Prices.APIKey = "k"
	if err := c.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateKafkaNeedsClickHouse(t *testing.T) {
	c := validConfig()
	c.Kafka.Enabled = true
	c.Kafka.Brokers = []string{"localhost:9092"}
	c.Kafka.SignalsTopic = "signals"

	err := c.Validate()
	if err == nil {
		t.Fatalf("expected error: kafka consumer persists to clickhouse")
	}
	if !strings.Contains(err.Error(), "clickhouse") {
		t.Fatalf("unexpected error: %v", err)
	}

	c.ClickHouse.Enabled = true
	if err := c.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateKafkaNeedsBrokersAndTopic(t *testing.T) {
	c := validConfig()
	c.Kafka.Enabled = true
	c.ClickHouse.Enabled = true
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for missing brokers")
	}
	c.Kafka.Brokers = []string{"localhost:9092"}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for missing signals topic")
	}
}

func TestValidateQuotesNeedClickHouse(t *testing.T) {
	c := validConfig()
	c.Quotes.Enabled = true
	c.Quotes.WebSocketURL = "wss://example"
	c.Quotes.Tickers = []string{"BTC"}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error: quote recording persists to clickhouse")
	}
	c.ClickHouse.Enabled = true
	if err := c.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
