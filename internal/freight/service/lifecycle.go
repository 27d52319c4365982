package service

import (
	"github.com/AbdelazizAhmedMohamedAhmed/tact-freight-platform-sub000/internal/freight/entity"
)

// RFQ 流转的附带动作
const (
	EffectNone             = ""
	EffectNotifyPricing    = "notify_pricing_queue"
	EffectNotifyClient     = "notify_client_quotation_ready"
	EffectRequireQuotation = "require_quotation_amount"
	EffectSynthesize       = "synthesize_shipment"
)

// RFQTransitionRule 角色在某些状态下可将RFQ移到目标状态
type RFQTransitionRule struct {
	Role   string
	From   []string
	To     string
	Effect string
}

// RFQTransitionRules RFQ状态流转规则表，表外的组合一律拒绝
var RFQTransitionRules = []RFQTransitionRule{
	{Role: entity.RoleSales, From: []string{entity.RFQStatusSubmitted, entity.RFQStatusSalesReview}, To: entity.RFQStatusPricingReview, Effect: EffectNotifyPricing},
	{Role: entity.RoleSales, From: []string{entity.RFQStatusQuoted}, To: entity.RFQStatusSentToClient, Effect: EffectNotifyClient},
	{Role: entity.RolePricing, From: []string{entity.RFQStatusPricingReview}, To: entity.RFQStatusQuoted, Effect: EffectRequireQuotation},
	{Role: entity.RoleClient, From: []string{entity.RFQStatusSentToClient}, To: entity.RFQStatusAccepted, Effect: EffectSynthesize},
	{Role: entity.RoleClient, From: []string{entity.RFQStatusSentToClient}, To: entity.RFQStatusRejected, Effect: EffectNone},
}

// FindRFQRule 查找匹配的规则
func FindRFQRule(role, from, to string) (RFQTransitionRule, bool) {
	from = entity.NormalizeRFQStatus(from)
	to = entity.NormalizeRFQStatus(to)
	for _, rule := range RFQTransitionRules {
		if rule.Role != role || rule.To != to {
			continue
		}
		for _, f := range rule.From {
			if f == from {
				return rule, true
			}
		}
	}
	return RFQTransitionRule{}, false
}

// CanTransition 角色能否把RFQ从 from 移到 to
func CanTransition(role, from, to string) bool {
	_, ok := FindRFQRule(role, from, to)
	return ok
}

// AllowedRFQTargets 角色在当前状态下可选的目标状态
func AllowedRFQTargets(role, from string) []string {
	from = entity.NormalizeRFQStatus(from)
	targets := []string{}
	for _, rule := range RFQTransitionRules {
		if rule.Role != role {
			continue
		}
		for _, f := range rule.From {
			if f == from {
				targets = append(targets, rule.To)
			}
		}
	}
	return targets
}

// CheckRFQTransition 校验RFQ流转，失败时返回说明违反规则的错误
func CheckRFQTransition(role, from, to string) (RFQTransitionRule, error) {
	from = entity.NormalizeRFQStatus(from)
	to = entity.NormalizeRFQStatus(to)

	if !entity.IsValidRFQStatus(to) {
		return RFQTransitionRule{}, invalidTransition("rfq", from, to, "unknown RFQ status %q", to)
	}
	if from == to {
		return RFQTransitionRule{}, invalidTransition("rfq", from, to, "RFQ is already %s", from)
	}
	rule, ok := FindRFQRule(role, from, to)
	if !ok {
		return RFQTransitionRule{}, invalidTransition("rfq", from, to, "role %s cannot move RFQ from %s to %s", role, from, to)
	}
	return rule, nil
}

// NextAllowedStatuses 运单当前状态的唯一下一状态，已签收或未知状态返回空
func NextAllowedStatuses(current string) []string {
	idx := entity.ShipmentStatusIndex(current)
	if idx < 0 || idx >= len(entity.ShipmentStatusFlow)-1 {
		return []string{}
	}
	return []string{entity.ShipmentStatusFlow[idx+1]}
}

// CheckShipmentAdvance 正常推进只能到下一状态
func CheckShipmentAdvance(from, to string) error {
	if from == entity.ShipmentStatusDelivered {
		return terminalState("shipment", from, to, "shipment is delivered; no further status changes are allowed")
	}
	toIdx := entity.ShipmentStatusIndex(to)
	if toIdx < 0 {
		return invalidTransition("shipment", from, to, "unknown shipment status %q", to)
	}
	fromIdx := entity.ShipmentStatusIndex(from)
	if fromIdx < 0 {
		return invalidTransition("shipment", from, to, "shipment has unknown current status %q", from)
	}
	switch {
	case toIdx == fromIdx:
		return invalidTransition("shipment", from, to, "shipment is already %s", from)
	case toIdx < fromIdx:
		return invalidTransition("shipment", from, to, "cannot move shipment back from %s to %s", from, to)
	case toIdx > fromIdx+1:
		return invalidTransition("shipment", from, to, "cannot skip to %s from %s", to, from)
	}
	return nil
}

// CheckForceSet 管理员强制设置：可以跳过，但不能回退，已签收仍为终态
func CheckForceSet(from, to string) error {
	if from == entity.ShipmentStatusDelivered {
		return terminalState("shipment", from, to, "shipment is delivered; no further status changes are allowed")
	}
	toIdx := entity.ShipmentStatusIndex(to)
	if toIdx < 0 {
		return invalidTransition("shipment", from, to, "unknown shipment status %q", to)
	}
	fromIdx := entity.ShipmentStatusIndex(from)
	if toIdx == fromIdx {
		return invalidTransition("shipment", from, to, "shipment is already %s", from)
	}
	if toIdx < fromIdx {
		return invalidTransition("shipment", from, to, "admin override cannot move shipment backwards from %s to %s", from, to)
	}
	return nil
}
