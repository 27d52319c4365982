package repository

import (
	"context"
	"errors"
	"time"

	"github.com/AbdelazizAhmedMohamedAhmed/tact-freight-platform-sub000/internal/freight/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NotificationRepository 站内通知与通知偏好仓库
type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create 创建站内通知
func (r *NotificationRepository) Create(ctx context.Context, n *entity.Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()[:32]
	}
	return r.db.WithContext(ctx).Create(n).Error
}

// FindByRecipient 查询某用户的通知
func (r *NotificationRepository) FindByRecipient(ctx context.Context, email string, unreadOnly bool, page, pageSize int) ([]entity.Notification, int64, error) {
	var items []entity.Notification
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Notification{}).Where("recipient_email = ?", email)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Order("created_at DESC").
		Offset(offsetOf(page, pageSize)).
		Limit(pageSize).
		Find(&items).Error

	return items, total, err
}

// MarkRead 标记已读，只能标记自己的通知
func (r *NotificationRepository) MarkRead(ctx context.Context, id, email string) error {
	result := r.db.WithContext(ctx).Model(&entity.Notification{}).
		Where("id = ? AND recipient_email = ?", id, email).
		Update("is_read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// FindPreference 查询通知偏好，不存在时返回 nil, nil
func (r *NotificationRepository) FindPreference(ctx context.Context, email string) (*entity.NotificationPreference, error) {
	var pref entity.NotificationPreference
	err := r.db.WithContext(ctx).Where("user_email = ?", email).First(&pref).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &pref, nil
}

// SavePreference 已有记录按主键更新，新记录按邮箱 upsert
func (r *NotificationRepository) SavePreference(ctx context.Context, pref *entity.NotificationPreference) error {
	pref.UpdatedAt = time.Now()
	if pref.ID != "" {
		return r.db.WithContext(ctx).Save(pref).Error
	}
	pref.ID = uuid.New().String()[:32]
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_email"}},
		DoUpdates: clause.AssignmentColumns([]string{"rfq_updates", "shipment_updates", "amendment_updates", "channel", "updated_at"}),
	}).Create(pref).Error
}
