package repository

import (
	"context"

	"CallAudit/internal/domain/models"
	"CallAudit/internal/domain/repository"
	pkgkafka "CallAudit/pkg/kafka"
)

// KafkaReportPublisher ships finished reports to a Kafka topic. Portfolio
// results are keyed by the first outcome's account so one account's reports
// stay ordered on a partition.
type KafkaReportPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaReportPublisher creates a Kafka report publisher.
func NewKafkaReportPublisher(producer *pkgkafka.Producer, topic string) repository.ReportPublisher {
	return &KafkaReportPublisher{producer: producer, topic: topic}
}

func (p *KafkaReportPublisher) PublishPortfolio(ctx context.Context, res *models.PortfolioResult) error {
	var key []byte
	for _, o := range res.Outcomes {
		if o.Signal.Account != "" {
			key = []byte(o.Signal.Account)
			break
		}
	}
	return p.producer.Publish(ctx, p.topic, key, map[string]interface{}{
		"type":   "portfolio",
		"report": res,
	})
}

func (p *KafkaReportPublisher) PublishAccuracy(ctx context.Context, rep *models.AccountAccuracyReport) error {
	return p.producer.Publish(ctx, p.topic, []byte(rep.Account), map[string]interface{}{
		"type":   "accuracy",
		"report": rep,
	})
}

func (p *KafkaReportPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
