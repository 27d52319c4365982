package repository

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrCodeExhausted 随机编号多次重试后仍冲突
	ErrCodeExhausted = errors.New("could not generate a unique code")
)

// Repositories 货运仓库集合
type Repositories struct {
	RFQ          *RFQRepository
	Shipment     *ShipmentRepository
	Amendment    *AmendmentRepository
	ActivityLog  *ActivityLogRepository
	Notification *NotificationRepository
}

// NewRepositories 创建货运仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		RFQ:          NewRFQRepository(db),
		Shipment:     NewShipmentRepository(db),
		Amendment:    NewAmendmentRepository(db),
		ActivityLog:  NewActivityLogRepository(db),
		Notification: NewNotificationRepository(db),
	}
}

func offsetOf(page, pageSize int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * pageSize
}
