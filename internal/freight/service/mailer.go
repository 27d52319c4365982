package service

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
)

// QueuePublisher 消息队列发布（RabbitMQ）
type QueuePublisher interface {
	Publish(ctx context.Context, queueName string, body []byte) error
}

// QueueMailer 把邮件投递到队列，由 mailer 进程异步发送
type QueueMailer struct {
	publisher QueuePublisher
	queue     string
}

func NewQueueMailer(publisher QueuePublisher, queue string) *QueueMailer {
	return &QueueMailer{publisher: publisher, queue: queue}
}

func (m *QueueMailer) Send(ctx context.Context, email Email) error {
	if email.To == "" {
		return fmt.Errorf("email recipient is empty")
	}
	body, err := json.Marshal(email)
	if err != nil {
		return fmt.Errorf("marshal email job: %w", err)
	}
	return m.publisher.Publish(ctx, m.queue, body)
}

// LogMailer 未配置消息队列时只记录日志
type LogMailer struct {
	logger *zap.Logger
}

func NewLogMailer(logger *zap.Logger) *LogMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(ctx context.Context, email Email) error {
	m.logger.Info("Email (not delivered, no mail queue configured)",
		zap.String("to", email.To),
		zap.String("subject", email.Subject))
	return nil
}
