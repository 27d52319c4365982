package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/AbdelazizAhmedMohamedAhmed/tact-freight-platform-sub000/internal/config"
	"github.com/AbdelazizAhmedMohamedAhmed/tact-freight-platform-sub000/internal/freight/service"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/wneessen/go-mail"
)

// Sender 实际投递邮件
type Sender interface {
	Send(ctx context.Context, email service.Email) error
}

// SMTPSender 通过 SMTP 发送纯文本邮件
type SMTPSender struct {
	client *mail.Client
	from   string
}

func NewSMTPSender(cfg config.SMTPConfig) (*SMTPSender, error) {
	opts := []mail.Option{mail.WithPort(cfg.Port)}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}
	if cfg.TLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}
	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}
	return &SMTPSender{client: client, from: cfg.From}, nil
}

func (s *SMTPSender) Send(ctx context.Context, email service.Email) error {
	m := mail.NewMsg()
	if err := m.From(s.from); err != nil {
		return fmt.Errorf("invalid from address: %w", err)
	}
	if err := m.To(email.To); err != nil {
		return fmt.Errorf("invalid recipient: %w", err)
	}
	m.Subject(email.Subject)
	m.SetBodyString(mail.TypeTextPlain, email.Body)
	return s.client.DialAndSendWithContext(ctx, m)
}

// Worker 消费邮件队列
type Worker struct {
	sender Sender
}

// outcome 单条消息的处理结果
type outcome int

const (
	ack     outcome = iota
	requeue         // 发送失败，重新入队
	drop            // 消息体无法解析，丢弃
)

func (w *Worker) handle(ctx context.Context, body []byte) outcome {
	var email service.Email
	if err := json.Unmarshal(body, &email); err != nil {
		log.Printf("[Mailer] drop malformed message: %v", err)
		return drop
	}
	if email.To == "" {
		log.Printf("[Mailer] drop message without recipient: %q", email.Subject)
		return drop
	}
	if err := w.sender.Send(ctx, email); err != nil {
		log.Printf("[Mailer] send to %s failed: %v", email.To, err)
		return requeue
	}
	log.Printf("[Mailer] sent %q to %s", email.Subject, email.To)
	return ack
}

// Run 处理消息直到 ctx 结束或 channel 关闭
func (w *Worker) Run(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				log.Printf("[Mailer] delivery channel closed")
				return
			}
			switch w.handle(ctx, d.Body) {
			case ack:
				d.Ack(false)
			case requeue:
				// 已重投过一次的不再入队，避免无限重试
				d.Nack(false, !d.Redelivered)
			case drop:
				d.Nack(false, false)
			}
		}
	}
}
