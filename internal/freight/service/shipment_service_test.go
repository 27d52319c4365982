package service

import (
	"context"
	"strings"
	"testing"

	"github.com/AbdelazizAhmedMohamedAhmed/tact-freight-platform-sub000/internal/freight/entity"
	"github.com/AbdelazizAhmedMohamedAhmed/tact-freight-platform-sub000/internal/freight/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func historyStatuses(h entity.StatusHistory) []string {
	out := make([]string, 0, len(h))
	for _, e := range h {
		out = append(out, e.Status)
	}
	return out
}

func TestShipment_AdvanceWalksCanonicalOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	testutil.SeedShipment(t, env.db, "shp-walk", "TF-26-10001", clientActor.Email, entity.ShipmentStatusBookingConfirmed)

	for _, next := range entity.ShipmentStatusFlow[1:] {
		got, err := env.svc.Shipment.NextStatuses(ctx, opsActor, "shp-walk")
		require.NoError(t, err)
		require.Equal(t, []string{next}, got)

		updated, err := env.svc.Shipment.Advance(ctx, opsActor, "shp-walk", next, "")
		require.NoError(t, err)
		assert.Equal(t, next, updated.Status)
	}

	shipment := env.loadShipment(t, "shp-walk")
	assert.Equal(t, entity.ShipmentStatusFlow, historyStatuses(shipment.StatusHistory))
	assert.Equal(t, shipment.Status, shipment.StatusHistory.Last().Status)

	next, err := env.svc.Shipment.NextStatuses(ctx, opsActor, "shp-walk")
	require.NoError(t, err)
	assert.Empty(t, next)

	// 每次推进都通知客户
	assert.Len(t, env.mailer.sentTo(clientActor.Email), len(entity.ShipmentStatusFlow)-1)
}

func TestShipment_SkipRejectedUnlessForced(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seeded := testutil.SeedShipment(t, env.db, "shp-skip", "TF-26-10002", clientActor.Email, entity.ShipmentStatusInTransit)

	_, err := env.svc.Shipment.Advance(ctx, opsActor, "shp-skip", entity.ShipmentStatusDelivered, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, "cannot skip to delivered from in_transit", err.Error())
	assert.Equal(t, entity.ShipmentStatusInTransit, env.loadShipment(t, "shp-skip").Status)

	_, err = env.svc.Shipment.ForceSetStatus(ctx, opsActor, "shp-skip", entity.ShipmentStatusDelivered, "")
	assert.ErrorIs(t, err, ErrForbidden)

	forced, err := env.svc.Shipment.ForceSetStatus(ctx, adminActor, "shp-skip", entity.ShipmentStatusDelivered, "")
	require.NoError(t, err)
	assert.Equal(t, entity.ShipmentStatusDelivered, forced.Status)

	shipment := env.loadShipment(t, "shp-skip")
	require.Len(t, shipment.StatusHistory, len(seeded.StatusHistory)+1)
	last := shipment.StatusHistory.Last()
	assert.Equal(t, entity.ShipmentStatusDelivered, last.Status)
	assert.Equal(t, "Status forced from in_transit to delivered by admin", last.Note)
	assert.Equal(t, adminActor.Email, last.UpdatedBy)

	var logs []entity.ActivityLog
	require.NoError(t, env.db.Where("entity_id = ? AND action = ?", "shp-skip", entity.ActionForceStatus).Find(&logs).Error)
	assert.Len(t, logs, 1)
}

func TestShipment_ForceCannotMoveBackwards(t *testing.T) {
	env := newTestEnv(t)
	testutil.SeedShipment(t, env.db, "shp-back", "TF-26-10003", clientActor.Email, entity.ShipmentStatusCustomsClearance)

	_, err := env.svc.Shipment.ForceSetStatus(context.Background(), adminActor, "shp-back", entity.ShipmentStatusCargoReceived, "fix")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, entity.ShipmentStatusCustomsClearance, env.loadShipment(t, "shp-back").Status)
}

func TestShipment_DeliveredIsTerminal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	testutil.SeedShipment(t, env.db, "shp-done", "TF-26-10004", clientActor.Email, entity.ShipmentStatusDelivered)

	for _, to := range entity.ShipmentStatusFlow {
		_, err := env.svc.Shipment.Advance(ctx, opsActor, "shp-done", to, "")
		assert.ErrorIs(t, err, ErrTerminalState, to)
		_, err = env.svc.Shipment.ForceSetStatus(ctx, adminActor, "shp-done", to, "")
		assert.ErrorIs(t, err, ErrTerminalState, to)
	}

	_, err := env.svc.Shipment.UpdateDetails(ctx, opsActor, "shp-done", &ShipmentPatch{BLNumber: str("BL-1")})
	assert.ErrorIs(t, err, ErrTerminalState)
}

func TestShipment_AdvanceRequiresOperations(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	testutil.SeedShipment(t, env.db, "shp-role", "TF-26-10005", clientActor.Email, entity.ShipmentStatusBookingConfirmed)

	for _, actor := range []Actor{clientActor, salesActor, pricingUser} {
		_, err := env.svc.Shipment.Advance(ctx, actor, "shp-role", entity.ShipmentStatusCargoReceived, "")
		assert.ErrorIs(t, err, ErrForbidden, actor.Role)
	}
	_, err := env.svc.Shipment.Advance(ctx, adminActor, "shp-role", entity.ShipmentStatusCargoReceived, "")
	assert.NoError(t, err)
}

func TestShipment_SynthesizeIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	rfq := env.seedQuotedRFQ(t, "rfq-synth", "RFQ-2026-00100", entity.RFQStatusAccepted)
	rfq.Status = entity.RFQStatusAccepted

	first, err := env.svc.Shipment.SynthesizeShipment(ctx, rfq, clientActor.Email)
	require.NoError(t, err)
	second, err := env.svc.Shipment.SynthesizeShipment(ctx, rfq, clientActor.Email)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.TrackingNumber, second.TrackingNumber)
	assert.Equal(t, int64(1), env.countShipmentsForRFQ(t, rfq.ID))
	assert.Equal(t, 1, env.team.count(TeamOperations))
}

func TestShipment_SynthesizeRequiresAcceptedRFQ(t *testing.T) {
	env := newTestEnv(t)
	rfq := env.seedQuotedRFQ(t, "rfq-notyet", "RFQ-2026-00101", entity.RFQStatusSentToClient)

	_, err := env.svc.Shipment.SynthesizeShipment(context.Background(), rfq, clientActor.Email)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, int64(0), env.countShipmentsForRFQ(t, rfq.ID))
}

func TestShipment_CreateDirect(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.Shipment.Create(ctx, clientActor, &CreateShipmentRequest{Mode: entity.ModeSea, Origin: "A", Destination: "B"})
	assert.ErrorIs(t, err, ErrForbidden)

	shipment, err := env.svc.Shipment.Create(ctx, opsActor, &CreateShipmentRequest{
		Mode:        entity.ModeInland,
		Origin:      "Alexandria",
		Destination: "Cairo",
		ClientEmail: "Client@Test.com",
	})
	require.NoError(t, err)
	assert.Nil(t, shipment.RFQID)
	assert.Equal(t, clientActor.Email, shipment.ClientEmail)
	assert.Equal(t, entity.ShipmentStatusBookingConfirmed, shipment.Status)
	require.Len(t, shipment.StatusHistory, 1)

	got, err := env.svc.Shipment.GetByTracking(ctx, clientActor, strings.ToLower(shipment.TrackingNumber))
	require.NoError(t, err)
	assert.Equal(t, shipment.ID, got.ID)
}

func TestShipment_UpdateDetails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	testutil.SeedShipment(t, env.db, "shp-edit", "TF-26-10006", clientActor.Email, entity.ShipmentStatusDepartedOrigin)

	updated, err := env.svc.Shipment.UpdateDetails(ctx, opsActor, "shp-edit", &ShipmentPatch{
		BLNumber:        str("MSKU1234567"),
		ContainerNumber: str("MSCU7654321"),
		WeightKG:        float(1350),
	})
	require.NoError(t, err)
	assert.Equal(t, "MSKU1234567", updated.BLNumber)
	assert.Equal(t, "MSCU7654321", updated.ContainerNumber)
	assert.Equal(t, 1350.0, updated.WeightKG)
	assert.Equal(t, entity.ShipmentStatusDepartedOrigin, updated.Status)

	updated, err = env.svc.Shipment.UpdateDetails(ctx, clientActor, "shp-edit", &ShipmentPatch{HBLACID: str("ACID-2026-0001")})
	require.NoError(t, err)
	assert.Equal(t, "ACID-2026-0001", updated.HBLACID)

	_, err = env.svc.Shipment.UpdateDetails(ctx, clientActor, "shp-edit", &ShipmentPatch{ConsigneeName: str("Someone")})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = env.svc.Shipment.UpdateDetails(ctx, otherClient, "shp-edit", &ShipmentPatch{HBLACID: str("x")})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = env.svc.Shipment.UpdateDetails(ctx, opsActor, "shp-edit", &ShipmentPatch{})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestShipment_AttachDocument(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	testutil.SeedShipment(t, env.db, "shp-doc", "TF-26-10007", clientActor.Email, entity.ShipmentStatusCargoReceived)

	body := strings.NewReader("%PDF-1.4 invoice")
	updated, err := env.svc.Shipment.AttachDocument(ctx, clientActor, "shp-doc", "invoice.pdf", "application/pdf", "commercial_invoice", body, int64(body.Len()))
	require.NoError(t, err)
	require.Len(t, updated.DocumentURLs, 1)

	shipment := env.loadShipment(t, "shp-doc")
	require.Len(t, shipment.DocumentURLs, 1)
	doc := shipment.DocumentURLs[0]
	assert.Equal(t, "invoice.pdf", doc.Name)
	assert.Equal(t, "commercial_invoice", doc.Type)
	assert.True(t, strings.HasPrefix(doc.URL, "https://files.test/shipments/shp-doc/"))
	assert.Equal(t, clientActor.Email, doc.UploadedBy)
}

func TestShipment_DeleteIsAdminOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	testutil.SeedShipment(t, env.db, "shp-del", "TF-26-10008", clientActor.Email, entity.ShipmentStatusBookingConfirmed)

	assert.ErrorIs(t, env.svc.Shipment.Delete(ctx, opsActor, "shp-del"), ErrForbidden)
	require.NoError(t, env.svc.Shipment.Delete(ctx, adminActor, "shp-del"))

	_, err := env.svc.Shipment.Get(ctx, adminActor, "shp-del")
	assert.Error(t, err)
}

func TestShipment_ListScopesClients(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	testutil.SeedShipment(t, env.db, "shp-a", "TF-26-10009", clientActor.Email, entity.ShipmentStatusInTransit)
	testutil.SeedShipment(t, env.db, "shp-b", "TF-26-10010", otherClient.Email, entity.ShipmentStatusInTransit)

	_, total, err := env.svc.Shipment.List(ctx, opsActor, 1, 20, map[string]string{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	items, total, err := env.svc.Shipment.List(ctx, clientActor, 1, 20, map[string]string{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, "shp-a", items[0].ID)

	_, err = env.svc.Shipment.History(ctx, clientActor, "shp-b")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestShipment_Export(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	testutil.SeedShipment(t, env.db, "shp-x1", "TF-26-10011", clientActor.Email, entity.ShipmentStatusInTransit)

	_, _, err := env.svc.Shipment.ExportShipments(ctx, clientActor, nil)
	assert.ErrorIs(t, err, ErrForbidden)

	f, filename, err := env.svc.Shipment.ExportShipments(ctx, opsActor, nil)
	require.NoError(t, err)
	defer f.Close()
	assert.True(t, strings.HasSuffix(filename, ".xlsx"))

	v, err := f.GetCellValue("Shipments", "A2")
	require.NoError(t, err)
	assert.Equal(t, "TF-26-10011", v)
	v, err = f.GetCellValue("Shipments", "H2")
	require.NoError(t, err)
	assert.Equal(t, "In Transit", v)
}
