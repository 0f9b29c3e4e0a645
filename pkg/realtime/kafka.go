package realtime

import (
	"context"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"liyu1981.xyz/sos-response-service/pkg/common"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher appends every event to one topic keyed by the realtime topic, so events of one
// incident stay in order on their partition.
type KafkaPublisher struct {
	writer messageWriter
	logger *zap.Logger
}

func NewKafkaPublisher(cfg common.KafkaConfig) *KafkaPublisher {
	logger := common.GetLoggerWith(common.LoggerNameRealtime, zap.String("transport", "kafka"))
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.TopicEvents,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			Async:        true,
			Completion: func(messages []kafka.Message, err error) {
				if err != nil {
					logger.Warn("Kafka delivery failed", zap.Int("messages", len(messages)), zap.Error(err))
				}
			},
		},
		logger: logger,
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, topic, event string, payload any) {
	data, err := encode(topic, event, payload)
	if err != nil {
		p.logger.Error("Could not encode event", zap.String("event", event), zap.Error(err))
		return
	}
	msg := kafka.Message{
		Key:     []byte(topic),
		Value:   data,
		Headers: []kafka.Header{{Key: "event", Value: []byte(event)}},
	}
	if err := p.writer.WriteMessages(context.WithoutCancel(ctx), msg); err != nil {
		p.logger.Warn("Kafka publish failed", zap.String("topic", topic), zap.Error(err))
	}
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
