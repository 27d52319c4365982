package entity

import "time"

// ActivityLog 操作日志（只追加）
type ActivityLog struct {
	ID         string `json:"id" gorm:"primaryKey;size:32"`
	EntityType string `json:"entity_type" gorm:"size:50;not null;index:idx_freight_activity_entity"` // rfq/shipment/amendment
	EntityID   string `json:"entity_id" gorm:"size:32;not null;index:idx_freight_activity_entity"`
	EntityCode string `json:"entity_code" gorm:"size:50"`

	Action     string `json:"action" gorm:"size:50;not null"` // create/status_change/force_status/resolve/...
	FromStatus string `json:"from_status" gorm:"size:30"`
	ToStatus   string `json:"to_status" gorm:"size:30"`

	Content  string `json:"content" gorm:"type:text"`
	Metadata JSONB  `json:"metadata" gorm:"type:jsonb"`

	ActorEmail string    `json:"actor_email" gorm:"size:200"`
	ActorRole  string    `json:"actor_role" gorm:"size:20"`
	CreatedAt  time.Time `json:"created_at"`
}

func (ActivityLog) TableName() string {
	return "freight_activity_logs"
}

// 操作类型
const (
	ActionCreate        = "create"
	ActionStatusChange  = "status_change"
	ActionForceStatus   = "force_status"
	ActionOverride      = "status_override"
	ActionUpdate        = "update"
	ActionUploadDoc     = "upload_document"
	ActionDelete        = "delete"
	ActionRequestChange = "request_amendment"
	ActionResolve       = "resolve"
)
