package service

import (
	"context"
	"strings"
	"testing"

	"github.com/AbdelazizAhmedMohamedAhmed/tact-freight-platform-sub000/internal/freight/entity"
	"github.com/AbdelazizAhmedMohamedAhmed/tact-freight-platform-sub000/internal/freight/repository"
	"github.com/AbdelazizAhmedMohamedAhmed/tact-freight-platform-sub000/internal/freight/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countNotifications(t *testing.T, env *testEnv, email string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, env.db.Model(&entity.Notification{}).Where("recipient_email = ?", email).Count(&n).Error)
	return n
}

func TestNotifier_DefaultsToBothChannels(t *testing.T) {
	env := newTestEnv(t)

	err := env.svc.Notifier.NotifyStatusChange(context.Background(), StatusChange{
		EntityType:     entity.EntityTypeShipment,
		EntityID:       "shp-1",
		Reference:      "TF-26-00001",
		RecipientEmail: clientActor.Email,
		OldStatus:      entity.ShipmentStatusInTransit,
		NewStatus:      entity.ShipmentStatusArrivedDestination,
	})
	require.NoError(t, err)

	mails := env.mailer.sentTo(clientActor.Email)
	require.Len(t, mails, 1)
	assert.Equal(t, "Shipment TF-26-00001: Arrived at Destination", mails[0].Subject)
	assert.Contains(t, mails[0].Body, "https://portal.test/client/shipments/shp-1")

	var n entity.Notification
	require.NoError(t, env.db.Where("recipient_email = ?", clientActor.Email).First(&n).Error)
	assert.Equal(t, "shipment_status", n.Type)
	assert.Equal(t, "TF-26-00001", n.EntityReference)
	assert.False(t, n.IsRead)
	assert.Equal(t, []string{clientActor.Email + ":notification"}, env.pusher.pushed)
}

func TestNotifier_QuotationReadyMessage(t *testing.T) {
	title, message := composeMessage(StatusChange{
		EntityType: entity.EntityTypeRFQ,
		Reference:  "RFQ-2026-00001",
		NewStatus:  entity.RFQStatusSentToClient,
	})
	assert.Equal(t, "Your quotation for RFQ-2026-00001 is ready", title)
	assert.True(t, strings.Contains(message, "accept or reject"))
}

func TestNotifier_SkipsSilently(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.svc.Notifier.NotifyStatusChange(ctx, StatusChange{
		EntityType: entity.EntityTypeShipment,
		EntityID:   "shp-1",
		NewStatus:  entity.ShipmentStatusCargoReceived,
	}))
	assert.Empty(t, env.mailer.sent)

	off := false
	_, err := env.svc.Notification.UpdatePreference(ctx, clientActor, &UpdatePreferenceRequest{ShipmentUpdates: &off})
	require.NoError(t, err)

	require.NoError(t, env.svc.Notifier.NotifyStatusChange(ctx, StatusChange{
		EntityType:     entity.EntityTypeShipment,
		EntityID:       "shp-1",
		RecipientEmail: clientActor.Email,
		NewStatus:      entity.ShipmentStatusCargoReceived,
	}))
	assert.Empty(t, env.mailer.sentTo(clientActor.Email))
	assert.Equal(t, int64(0), countNotifications(t, env, clientActor.Email))

	// 其他类别仍然开启
	require.NoError(t, env.svc.Notifier.NotifyStatusChange(ctx, StatusChange{
		EntityType:     entity.EntityTypeRFQ,
		EntityID:       "rfq-1",
		RecipientEmail: clientActor.Email,
		NewStatus:      entity.RFQStatusSentToClient,
	}))
	assert.Len(t, env.mailer.sentTo(clientActor.Email), 1)
}

func TestNotifier_ChannelSelection(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.Notification.UpdatePreference(ctx, clientActor, &UpdatePreferenceRequest{Channel: entity.ChannelInApp})
	require.NoError(t, err)

	change := StatusChange{
		EntityType:     entity.EntityTypeShipment,
		EntityID:       "shp-2",
		Reference:      "TF-26-00002",
		RecipientEmail: clientActor.Email,
		NewStatus:      entity.ShipmentStatusInTransit,
	}
	require.NoError(t, env.svc.Notifier.NotifyStatusChange(ctx, change))
	assert.Empty(t, env.mailer.sentTo(clientActor.Email))
	assert.Equal(t, int64(1), countNotifications(t, env, clientActor.Email))

	pref, err := env.svc.Notification.UpdatePreference(ctx, clientActor, &UpdatePreferenceRequest{Channel: entity.ChannelEmail})
	require.NoError(t, err)
	assert.Equal(t, entity.ChannelEmail, pref.Channel)
	assert.True(t, pref.ShipmentUpdates)

	require.NoError(t, env.svc.Notifier.NotifyStatusChange(ctx, change))
	assert.Len(t, env.mailer.sentTo(clientActor.Email), 1)
	assert.Equal(t, int64(1), countNotifications(t, env, clientActor.Email))

	_, err = env.svc.Notification.UpdatePreference(ctx, clientActor, &UpdatePreferenceRequest{Channel: "sms"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestNotificationService_ListAndMarkRead(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	testutil.SeedShipment(t, env.db, "shp-n", "TF-26-30001", clientActor.Email, entity.ShipmentStatusBookingConfirmed)

	_, err := env.svc.Shipment.Advance(ctx, opsActor, "shp-n", entity.ShipmentStatusCargoReceived, "Received at CFS")
	require.NoError(t, err)

	items, total, err := env.svc.Notification.List(ctx, clientActor, true, 1, 20)
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	assert.Contains(t, items[0].Message, "Received at CFS")

	assert.ErrorIs(t, env.svc.Notification.MarkRead(ctx, otherClient, items[0].ID), repository.ErrNotFound)
	require.NoError(t, env.svc.Notification.MarkRead(ctx, clientActor, items[0].ID))

	_, total, err = env.svc.Notification.List(ctx, clientActor, true, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
}
