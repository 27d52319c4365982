package mq

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Writer kafka.Writer 的子集，便于测试替换
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaProducer 领域事件生产者
type KafkaProducer struct {
	writer Writer
	logger *zap.Logger
}

// NewKafkaProducer 写入指定 broker/topic
func NewKafkaProducer(brokers []string, topic string, logger *zap.Logger) *KafkaProducer {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	return NewKafkaProducerWithWriter(w, logger)
}

func NewKafkaProducerWithWriter(w Writer, logger *zap.Logger) *KafkaProducer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KafkaProducer{writer: w, logger: logger}
}

// Publish value 序列化为 JSON，同一 key 落在同一分区
func (p *KafkaProducer) Publish(ctx context.Context, key string, value interface{}) error {
	b, err := json.Marshal(value)
	if err != nil {
		p.logger.Warn("Failed to marshal kafka value", zap.String("key", key), zap.Error(err))
		return err
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: b}); err != nil {
		p.logger.Warn("Kafka write failed", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}

func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}
