package service

import (
	"context"
	"io"
	"time"
)

// Email 待发送邮件，也是邮件队列中的消息体
type Email struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Mailer 邮件发送
type Mailer interface {
	Send(ctx context.Context, email Email) error
}

// Pusher 站内实时推送
type Pusher interface {
	PushToUser(email, eventType string, payload interface{}) error
}

// 团队队列
const (
	TeamSales      = "sales"
	TeamPricing    = "pricing"
	TeamOperations = "operations"
)

// TeamField 团队卡片字段
type TeamField struct {
	Label string
	Value string
}

// TeamMessage 发往团队队列的消息
type TeamMessage struct {
	Title    string
	Template string // blue/green/orange/red
	Fields   []TeamField
	Note     string
}

// TeamNotifier 团队队列通知（飞书群）
type TeamNotifier interface {
	NotifyTeam(ctx context.Context, team string, msg TeamMessage) error
}

// EventPublisher 领域事件发布
type EventPublisher interface {
	Publish(ctx context.Context, key string, value interface{}) error
}

// SynthesisGuard 跨实例的运单生成互斥
type SynthesisGuard interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	Release(ctx context.Context, key, token string) error
}

// FileStore 文件存储，返回可访问的URL
type FileStore interface {
	Upload(ctx context.Context, objectName, contentType string, r io.Reader, size int64) (string, error)
}

// 领域事件名
const (
	EventRFQCreated           = "rfq.created"
	EventRFQStatusChanged     = "rfq.status_changed"
	EventShipmentCreated      = "shipment.created"
	EventShipmentStatusChange = "shipment.status_changed"
	EventAmendmentRequested   = "amendment.requested"
	EventAmendmentResolved    = "amendment.resolved"
)

// StatusChangedEvent 状态变化事件
type StatusChangedEvent struct {
	Event      string    `json:"event"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	Reference  string    `json:"reference"`
	From       string    `json:"from,omitempty"`
	To         string    `json:"to"`
	Actor      string    `json:"actor"`
	Role       string    `json:"role"`
	OccurredAt time.Time `json:"occurred_at"`
}
