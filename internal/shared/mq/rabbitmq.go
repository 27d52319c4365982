package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitClient 单连接单 channel 的 RabbitMQ 客户端
type RabbitClient struct {
	conn *amqp.Connection
	chn  *amqp.Channel
}

// NewRabbitClient 连接 RabbitMQ 并打开 channel
func NewRabbitClient(url string) (*RabbitClient, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	chn, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	return &RabbitClient{conn: conn, chn: chn}, nil
}

func (r *RabbitClient) Close() error {
	if err := r.chn.Close(); err != nil {
		return err
	}
	return r.conn.Close()
}

// CreateQueue 声明持久化队列
func (r *RabbitClient) CreateQueue(queueName string) error {
	_, err := r.chn.QueueDeclare(
		queueName,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	return err
}

// Publish 向队列投递持久化 JSON 消息
func (r *RabbitClient) Publish(ctx context.Context, queueName string, body []byte) error {
	return r.chn.PublishWithContext(
		ctx,
		"",        // default exchange
		queueName, // routing key
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

// Consume 手动 ack 消费队列
func (r *RabbitClient) Consume(queueName string) (<-chan amqp.Delivery, error) {
	return r.chn.Consume(
		queueName,
		"",
		false, // auto-ack
		false,
		false,
		false,
		nil,
	)
}
