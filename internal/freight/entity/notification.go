package entity

import "time"

// Notification 站内通知
type Notification struct {
	ID              string    `json:"id" gorm:"primaryKey;size:32"`
	Type            string    `json:"type" gorm:"size:50;not null"` // rfq_status/shipment_status/amendment_status
	Title           string    `json:"title" gorm:"size:200;not null"`
	Message         string    `json:"message" gorm:"type:text"`
	RecipientEmail  string    `json:"recipient_email" gorm:"size:200;not null;index"`
	EntityType      string    `json:"entity_type" gorm:"size:50"`
	EntityID        string    `json:"entity_id" gorm:"size:32"`
	EntityReference string    `json:"entity_reference" gorm:"size:50"`
	ActionURL       string    `json:"action_url" gorm:"column:action_url;size:500"`
	IsRead          bool      `json:"is_read"`
	CreatedAt       time.Time `json:"created_at"`
}

func (Notification) TableName() string {
	return "freight_notifications"
}

// 通知渠道
const (
	ChannelEmail = "email"
	ChannelInApp = "in_app"
	ChannelBoth  = "both"
)

// NotificationPreference 客户通知偏好
type NotificationPreference struct {
	ID               string    `json:"id" gorm:"primaryKey;size:32"`
	UserEmail        string    `json:"user_email" gorm:"size:200;uniqueIndex;not null"`
	RFQUpdates       bool      `json:"rfq_updates" gorm:"column:rfq_updates"`
	ShipmentUpdates  bool      `json:"shipment_updates"`
	AmendmentUpdates bool      `json:"amendment_updates"`
	Channel          string    `json:"channel" gorm:"size:20;not null"` // email/in_app/both
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (NotificationPreference) TableName() string {
	return "freight_notification_preferences"
}

// DefaultNotificationPreference 未设置偏好时的默认值：全部开启，双渠道
func DefaultNotificationPreference(email string) *NotificationPreference {
	return &NotificationPreference{
		UserEmail:        email,
		RFQUpdates:       true,
		ShipmentUpdates:  true,
		AmendmentUpdates: true,
		Channel:          ChannelBoth,
	}
}

// Enabled 某实体类型的通知是否开启
func (p *NotificationPreference) Enabled(entityType string) bool {
	switch entityType {
	case EntityTypeRFQ:
		return p.RFQUpdates
	case EntityTypeShipment:
		return p.ShipmentUpdates
	case EntityTypeAmendment:
		return p.AmendmentUpdates
	}
	return false
}

// WantsEmail 是否需要邮件
func (p *NotificationPreference) WantsEmail() bool {
	return p.Channel == ChannelEmail || p.Channel == ChannelBoth
}

// WantsInApp 是否需要站内通知
func (p *NotificationPreference) WantsInApp() bool {
	return p.Channel == ChannelInApp || p.Channel == ChannelBoth
}

// IsValidChannel 是否为合法渠道
func IsValidChannel(channel string) bool {
	return channel == ChannelEmail || channel == ChannelInApp || channel == ChannelBoth
}
