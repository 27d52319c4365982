package service

import (
	"context"

	"github.com/AbdelazizAhmedMohamedAhmed/tact-freight-platform-sub000/internal/freight/entity"
	"github.com/AbdelazizAhmedMohamedAhmed/tact-freight-platform-sub000/internal/freight/repository"
)

// NotificationService 站内通知与通知偏好
type NotificationService struct {
	repo     *repository.NotificationRepository
	notifier *Notifier
}

func NewNotificationService(repo *repository.NotificationRepository, notifier *Notifier) *NotificationService {
	return &NotificationService{repo: repo, notifier: notifier}
}

// List 当前用户的通知
func (s *NotificationService) List(ctx context.Context, actor Actor, unreadOnly bool, page, pageSize int) ([]entity.Notification, int64, error) {
	if err := actor.validate(); err != nil {
		return nil, 0, err
	}
	items, total, err := s.repo.FindByRecipient(ctx, actor.Email, unreadOnly, page, pageSize)
	if err != nil {
		return nil, 0, dependency("list notifications", err)
	}
	return items, total, nil
}

// MarkRead 标记已读
func (s *NotificationService) MarkRead(ctx context.Context, actor Actor, id string) error {
	if err := actor.validate(); err != nil {
		return err
	}
	if err := s.repo.MarkRead(ctx, id, actor.Email); err != nil {
		return dependency("mark notification read", err)
	}
	return nil
}

// GetPreference 当前用户的通知偏好
func (s *NotificationService) GetPreference(ctx context.Context, actor Actor) (*entity.NotificationPreference, error) {
	if err := actor.validate(); err != nil {
		return nil, err
	}
	pref, err := s.notifier.Preference(ctx, actor.Email)
	if err != nil {
		return nil, dependency("load notification preference", err)
	}
	return pref, nil
}

// UpdatePreferenceRequest 更新通知偏好，未提供的字段保持不变
type UpdatePreferenceRequest struct {
	RFQUpdates       *bool  `json:"rfq_updates"`
	ShipmentUpdates  *bool  `json:"shipment_updates"`
	AmendmentUpdates *bool  `json:"amendment_updates"`
	Channel          string `json:"channel"`
}

// UpdatePreference 更新当前用户的通知偏好
func (s *NotificationService) UpdatePreference(ctx context.Context, actor Actor, req *UpdatePreferenceRequest) (*entity.NotificationPreference, error) {
	if err := actor.validate(); err != nil {
		return nil, err
	}
	if req.Channel != "" && !entity.IsValidChannel(req.Channel) {
		return nil, invalidInput("channel must be one of email, in_app, both")
	}

	pref, err := s.notifier.Preference(ctx, actor.Email)
	if err != nil {
		return nil, dependency("load notification preference", err)
	}
	if req.RFQUpdates != nil {
		pref.RFQUpdates = *req.RFQUpdates
	}
	if req.ShipmentUpdates != nil {
		pref.ShipmentUpdates = *req.ShipmentUpdates
	}
	if req.AmendmentUpdates != nil {
		pref.AmendmentUpdates = *req.AmendmentUpdates
	}
	if req.Channel != "" {
		pref.Channel = req.Channel
	}

	if err := s.repo.SavePreference(ctx, pref); err != nil {
		return nil, dependency("save notification preference", err)
	}
	return pref, nil
}
