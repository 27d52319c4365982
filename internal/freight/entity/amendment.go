package entity

import "time"

// ShipmentAmendment 运单修改申请
type ShipmentAmendment struct {
	ID             string `json:"id" gorm:"primaryKey;size:32"`
	Code           string `json:"code" gorm:"size:32;uniqueIndex;not null"` // AMD-2026-00001
	ShipmentID     string `json:"shipment_id" gorm:"size:32;not null;index"`
	TrackingNumber string `json:"tracking_number" gorm:"size:20"`

	RequestedBy   string         `json:"requested_by" gorm:"size:200;not null"` // 申请人邮箱
	RequesterName string         `json:"requester_name" gorm:"size:100"`
	Reason        string         `json:"reason" gorm:"type:text;not null"`
	Changes       *ChangeRequest `json:"changes_requested" gorm:"column:changes_requested;type:jsonb"`

	Status          string     `json:"status" gorm:"size:20;not null;index"` // pending/approved/rejected
	ResolvedBy      *string    `json:"resolved_by" gorm:"size:200"`
	RejectionReason string     `json:"rejection_reason" gorm:"type:text"`
	CompletedAt     *time.Time `json:"completed_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (ShipmentAmendment) TableName() string {
	return "freight_shipment_amendments"
}

// IsResolved 是否已处理
func (a *ShipmentAmendment) IsResolved() bool {
	return a.Status != AmendmentStatusPending
}
