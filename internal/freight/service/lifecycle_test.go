package service

import (
	"testing"

	"github.com/AbdelazizAhmedMohamedAhmed/tact-freight-platform-sub000/internal/freight/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		role, from, to string
		want           bool
	}{
		{entity.RoleSales, entity.RFQStatusSubmitted, entity.RFQStatusPricingReview, true},
		{entity.RoleSales, entity.RFQStatusSalesReview, entity.RFQStatusPricingReview, true},
		{entity.RoleSales, entity.RFQStatusQuoted, entity.RFQStatusSentToClient, true},
		{entity.RolePricing, entity.RFQStatusPricingReview, entity.RFQStatusQuoted, true},
		{entity.RoleClient, entity.RFQStatusSentToClient, entity.RFQStatusAccepted, true},
		{entity.RoleClient, entity.RFQStatusSentToClient, entity.RFQStatusRejected, true},
		{entity.RolePricing, "pricing_in_progress", "quotation_ready", true},
		{entity.RoleSales, entity.RFQStatusPricingReview, entity.RFQStatusQuoted, false},
		{entity.RolePricing, entity.RFQStatusQuoted, entity.RFQStatusSentToClient, false},
		{entity.RoleClient, entity.RFQStatusQuoted, entity.RFQStatusAccepted, false},
		{entity.RoleClient, entity.RFQStatusAccepted, entity.RFQStatusRejected, false},
		{entity.RoleOperations, entity.RFQStatusSubmitted, entity.RFQStatusPricingReview, false},
		{entity.RoleAdmin, entity.RFQStatusSubmitted, entity.RFQStatusPricingReview, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CanTransition(tc.role, tc.from, tc.to), "%s: %s -> %s", tc.role, tc.from, tc.to)
	}
}

func TestCheckRFQTransitionEffects(t *testing.T) {
	rule, err := CheckRFQTransition(entity.RoleClient, entity.RFQStatusSentToClient, entity.RFQStatusAccepted)
	require.NoError(t, err)
	assert.Equal(t, EffectSynthesize, rule.Effect)

	rule, err = CheckRFQTransition(entity.RolePricing, entity.RFQStatusPricingReview, entity.RFQStatusQuoted)
	require.NoError(t, err)
	assert.Equal(t, EffectRequireQuotation, rule.Effect)

	_, err = CheckRFQTransition(entity.RoleSales, entity.RFQStatusQuoted, entity.RFQStatusQuoted)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, "RFQ is already quoted", err.Error())
}

func TestAllowedRFQTargets(t *testing.T) {
	assert.ElementsMatch(t,
		[]string{entity.RFQStatusAccepted, entity.RFQStatusRejected},
		AllowedRFQTargets(entity.RoleClient, entity.RFQStatusSentToClient))
	assert.Empty(t, AllowedRFQTargets(entity.RoleClient, entity.RFQStatusSubmitted))
}

func TestNextAllowedStatuses(t *testing.T) {
	for i, s := range entity.ShipmentStatusFlow[:len(entity.ShipmentStatusFlow)-1] {
		assert.Equal(t, []string{entity.ShipmentStatusFlow[i+1]}, NextAllowedStatuses(s))
	}
	assert.Empty(t, NextAllowedStatuses(entity.ShipmentStatusDelivered))
	assert.Empty(t, NextAllowedStatuses("lost_at_sea"))
}

func TestCheckShipmentAdvance(t *testing.T) {
	cases := []struct {
		from, to string
		want     error
		msg      string
	}{
		{entity.ShipmentStatusBookingConfirmed, entity.ShipmentStatusCargoReceived, nil, ""},
		{entity.ShipmentStatusBookingConfirmed, entity.ShipmentStatusDelivered, ErrInvalidTransition, "cannot skip to delivered from booking_confirmed"},
		{entity.ShipmentStatusInTransit, entity.ShipmentStatusDepartedOrigin, ErrInvalidTransition, "cannot move shipment back from in_transit to departed_origin"},
		{entity.ShipmentStatusInTransit, entity.ShipmentStatusInTransit, ErrInvalidTransition, "shipment is already in_transit"},
		{entity.ShipmentStatusInTransit, "teleported", ErrInvalidTransition, `unknown shipment status "teleported"`},
		{entity.ShipmentStatusDelivered, entity.ShipmentStatusOutForDelivery, ErrTerminalState, ""},
	}
	for _, tc := range cases {
		err := CheckShipmentAdvance(tc.from, tc.to)
		if tc.want == nil {
			assert.NoError(t, err)
			continue
		}
		assert.ErrorIs(t, err, tc.want)
		if tc.msg != "" {
			assert.EqualError(t, err, tc.msg)
		}
	}
}

func TestCheckForceSet(t *testing.T) {
	assert.NoError(t, CheckForceSet(entity.ShipmentStatusBookingConfirmed, entity.ShipmentStatusDelivered))
	assert.ErrorIs(t, CheckForceSet(entity.ShipmentStatusInTransit, entity.ShipmentStatusBookingConfirmed), ErrInvalidTransition)
	assert.ErrorIs(t, CheckForceSet(entity.ShipmentStatusDelivered, entity.ShipmentStatusDelivered), ErrTerminalState)
}

func TestStatusLabelsCoverFlows(t *testing.T) {
	for _, s := range entity.ShipmentStatusFlow {
		assert.NotEqual(t, s, entity.StatusLabel(entity.EntityTypeShipment, s), s)
	}
	for _, s := range append(append([]string{}, entity.RFQStatusFlow...), entity.RFQOutOfBandStatuses...) {
		assert.NotEqual(t, s, entity.StatusLabel(entity.EntityTypeRFQ, s), s)
	}
	for _, rule := range RFQTransitionRules {
		assert.True(t, entity.IsValidRFQStatus(rule.To), rule.To)
		for _, from := range rule.From {
			assert.True(t, entity.IsValidRFQStatus(from), from)
		}
	}
	assert.Equal(t, "Quotation Ready", entity.StatusLabel(entity.EntityTypeRFQ, entity.RFQStatusSentToClient))
}
