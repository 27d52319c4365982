package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/AbdelazizAhmedMohamedAhmed/tact-freight-platform-sub000/internal/freight/entity"
	"github.com/AbdelazizAhmedMohamedAhmed/tact-freight-platform-sub000/internal/freight/repository"
	"go.uber.org/zap"
)

// StatusChange 一次状态变化，用于决定是否以及如何通知客户
type StatusChange struct {
	EntityType     string
	EntityID       string
	Reference      string
	RecipientEmail string
	OldStatus      string
	NewStatus      string
	Note           string
}

// Notifier 按客户偏好发送状态变化通知（邮件 / 站内）
type Notifier struct {
	repo      *repository.NotificationRepository
	mailer    Mailer
	pusher    Pusher
	portalURL string
	logger    *zap.Logger
}

func NewNotifier(repo *repository.NotificationRepository, mailer Mailer, pusher Pusher, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{repo: repo, mailer: mailer, pusher: pusher, logger: logger}
}

// SetPortalURL 设置通知中链接的前缀
func (n *Notifier) SetPortalURL(url string) {
	n.portalURL = strings.TrimRight(url, "/")
}

// Preference 查询通知偏好，未设置时返回默认值
func (n *Notifier) Preference(ctx context.Context, email string) (*entity.NotificationPreference, error) {
	pref, err := n.repo.FindPreference(ctx, email)
	if err != nil {
		return nil, err
	}
	if pref == nil {
		return entity.DefaultNotificationPreference(email), nil
	}
	return pref, nil
}

// NotifyStatusChange 无收件人或偏好关闭时静默跳过；邮件与站内通知各自独立失败
func (n *Notifier) NotifyStatusChange(ctx context.Context, change StatusChange) error {
	if change.RecipientEmail == "" {
		return nil
	}

	pref, err := n.Preference(ctx, change.RecipientEmail)
	if err != nil {
		return fmt.Errorf("load notification preference: %w", err)
	}
	if !pref.Enabled(change.EntityType) {
		n.logger.Debug("Notification disabled by preference",
			zap.String("recipient", change.RecipientEmail),
			zap.String("entity_type", change.EntityType))
		return nil
	}

	title, message := composeMessage(change)
	var errs []error

	if pref.WantsEmail() && n.mailer != nil {
		err := n.mailer.Send(ctx, Email{
			To:      change.RecipientEmail,
			Subject: title,
			Body:    message + "\n\n" + n.actionURL(change),
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("send email: %w", err))
		}
	}

	if pref.WantsInApp() {
		notification := &entity.Notification{
			Type:            change.EntityType + "_status",
			Title:           title,
			Message:         message,
			RecipientEmail:  change.RecipientEmail,
			EntityType:      change.EntityType,
			EntityID:        change.EntityID,
			EntityReference: change.Reference,
			ActionURL:       n.actionURL(change),
		}
		if err := n.repo.Create(ctx, notification); err != nil {
			errs = append(errs, fmt.Errorf("create notification: %w", err))
		} else if n.pusher != nil {
			if err := n.pusher.PushToUser(change.RecipientEmail, "notification", notification); err != nil {
				errs = append(errs, fmt.Errorf("push notification: %w", err))
			}
		}
	}

	return errors.Join(errs...)
}

func (n *Notifier) actionURL(change StatusChange) string {
	var path string
	switch change.EntityType {
	case entity.EntityTypeRFQ:
		path = "/client/rfqs/" + change.EntityID
	case entity.EntityTypeShipment:
		path = "/client/shipments/" + change.EntityID
	case entity.EntityTypeAmendment:
		path = "/client/amendments/" + change.EntityID
	}
	return n.portalURL + path
}

func composeMessage(change StatusChange) (title, message string) {
	label := entity.StatusLabel(change.EntityType, change.NewStatus)

	switch change.EntityType {
	case entity.EntityTypeRFQ:
		if change.NewStatus == entity.RFQStatusSentToClient {
			title = fmt.Sprintf("Your quotation for %s is ready", change.Reference)
			message = fmt.Sprintf("The quotation for your request %s is ready for your review. Please accept or reject it in the portal.", change.Reference)
		} else {
			title = fmt.Sprintf("RFQ %s: %s", change.Reference, label)
			message = fmt.Sprintf("Your request %s is now %s.", change.Reference, label)
		}
	case entity.EntityTypeShipment:
		title = fmt.Sprintf("Shipment %s: %s", change.Reference, label)
		message = fmt.Sprintf("Your shipment %s is now %s.", change.Reference, label)
	case entity.EntityTypeAmendment:
		title = fmt.Sprintf("Amendment %s %s", change.Reference, strings.ToLower(label))
		message = fmt.Sprintf("Your amendment request %s has been %s.", change.Reference, strings.ToLower(label))
	default:
		title = fmt.Sprintf("%s: %s", change.Reference, label)
		message = title
	}

	if change.Note != "" {
		message += "\n" + change.Note
	}
	return title, message
}
