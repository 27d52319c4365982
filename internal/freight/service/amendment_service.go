package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/AbdelazizAhmedMohamedAhmed/tact-freight-platform-sub000/internal/freight/entity"
	"github.com/AbdelazizAhmedMohamedAhmed/tact-freight-platform-sub000/internal/freight/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxAmendmentCreateAttempts = 3

// 处理决定
const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"
)

// AmendmentService 运单修改申请服务
type AmendmentService struct {
	db        *gorm.DB
	repo      *repository.AmendmentRepository
	shipments *repository.ShipmentRepository
	fx        *SideEffects
}

func NewAmendmentService(db *gorm.DB, repo *repository.AmendmentRepository, shipments *repository.ShipmentRepository, fx *SideEffects) *AmendmentService {
	return &AmendmentService{db: db, repo: repo, shipments: shipments, fx: fx}
}

// CreateAmendmentRequest 修改申请
type CreateAmendmentRequest struct {
	Reason  string               `json:"reason"`
	Changes entity.ChangeRequest `json:"changes_requested"`
}

// Create 客户对未签收的运单提交修改申请
func (s *AmendmentService) Create(ctx context.Context, actor Actor, shipmentID string, req *CreateAmendmentRequest) (*entity.ShipmentAmendment, error) {
	if err := actor.requireRole("request shipment amendments", entity.RoleClient); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Reason) == "" {
		return nil, missingField("amendment", "reason", "an amendment request needs a reason")
	}
	field, ok := entity.AmendableFields[req.Changes.Field]
	if !ok {
		return nil, invalidInput("field %q cannot be amended", req.Changes.Field)
	}
	if _, err := convertFieldValue(field, req.Changes.RequestedValue); err != nil {
		return nil, err
	}

	shipment, err := s.shipments.FindByID(ctx, shipmentID)
	if err != nil {
		return nil, dependency("load shipment", err)
	}
	if err := checkShipmentVisible(actor, shipment); err != nil {
		return nil, err
	}
	if shipment.IsDelivered() {
		return nil, terminalState("amendment", shipment.Status, entity.AmendmentStatusPending,
			"shipment %s is delivered; amendments can no longer be requested", shipment.TrackingNumber)
	}

	changes := req.Changes
	if changes.CurrentValue == "" {
		changes.CurrentValue, _ = shipment.FieldValue(changes.Field)
	}

	var amd *entity.ShipmentAmendment
	for attempt := 1; ; attempt++ {
		code, err := s.repo.GenerateCode(ctx)
		if err != nil {
			return nil, dependency("generate amendment code", err)
		}
		amd = &entity.ShipmentAmendment{
			ID:             uuid.New().String()[:32],
			Code:           code,
			ShipmentID:     shipment.ID,
			TrackingNumber: shipment.TrackingNumber,
			RequestedBy:    actor.Email,
			RequesterName:  actor.Name,
			Reason:         req.Reason,
			Changes:        &changes,
			Status:         entity.AmendmentStatusPending,
		}
		err = s.repo.Create(ctx, amd)
		if err == nil {
			break
		}
		// 并发创建抢占了同一编码时重新生成
		if taken, _ := s.repo.CodeExists(ctx, code); taken && attempt < maxAmendmentCreateAttempts {
			continue
		}
		s.fx.logger.Error("Create amendment failed", zap.String("shipment", shipment.TrackingNumber), zap.Error(err))
		return nil, dependency("create amendment", err)
	}

	s.fx.logActivity(ctx, actor, entity.EntityTypeAmendment, amd.ID, amd.Code, entity.ActionRequestChange, "", amd.Status,
		fmt.Sprintf("Requested %s change on %s: %q → %q", changes.Field, shipment.TrackingNumber, changes.CurrentValue, changes.RequestedValue))
	s.fx.notifyTeam(ctx, TeamOperations, TeamMessage{
		Title:    "Amendment requested on " + shipment.TrackingNumber,
		Template: "orange",
		Fields: []TeamField{
			{Label: "Amendment", Value: amd.Code},
			{Label: "Field", Value: changes.Field},
			{Label: "Current", Value: changes.CurrentValue},
			{Label: "Requested", Value: changes.RequestedValue},
			{Label: "Requested by", Value: actor.Email},
		},
		Note: req.Reason,
	})
	s.fx.publish(ctx, actor, EventAmendmentRequested, entity.EntityTypeAmendment, amd.ID, amd.Code, "", amd.Status)
	return amd, nil
}

// ResolveAmendmentRequest 处理修改申请
type ResolveAmendmentRequest struct {
	Decision        string `json:"decision" binding:"required"` // approve/reject
	RejectionReason string `json:"rejection_reason"`
}

// Resolve 批准时把申请的字段写回运单，驳回时必须填写原因；已处理的申请不能再次处理
func (s *AmendmentService) Resolve(ctx context.Context, actor Actor, id string, req *ResolveAmendmentRequest) (*entity.ShipmentAmendment, error) {
	if err := actor.requireRole("resolve amendments", entity.RoleOperations); err != nil {
		return nil, err
	}
	amd, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, dependency("load amendment", err)
	}
	if amd.IsResolved() {
		return nil, terminalState("amendment", amd.Status, "", "amendment %s is already %s", amd.Code, amd.Status)
	}

	switch req.Decision {
	case DecisionReject:
		err = s.reject(ctx, actor, amd, req.RejectionReason)
	case DecisionApprove:
		err = s.approve(ctx, actor, amd)
	default:
		return nil, invalidInput("decision must be approve or reject")
	}
	if err != nil {
		return nil, err
	}

	resolved, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, dependency("reload amendment", err)
	}
	s.afterResolve(ctx, actor, resolved)
	return resolved, nil
}

func (s *AmendmentService) reject(ctx context.Context, actor Actor, amd *entity.ShipmentAmendment, reason string) error {
	if strings.TrimSpace(reason) == "" {
		return missingField("amendment", "rejection_reason", "rejecting amendment %s requires a reason", amd.Code)
	}
	resolver := actor.Email
	ok, err := s.repo.Resolve(ctx, amd.ID, map[string]interface{}{
		"status":           entity.AmendmentStatusRejected,
		"resolved_by":      &resolver,
		"rejection_reason": reason,
		"completed_at":     time.Now(),
	})
	if err != nil {
		return dependency("reject amendment", err)
	}
	if !ok {
		return s.alreadyResolved(ctx, amd)
	}
	return nil
}

// approve 申请状态与运单字段在同一事务内写入
func (s *AmendmentService) approve(ctx context.Context, actor Actor, amd *entity.ShipmentAmendment) error {
	if amd.Changes == nil {
		return missingField("amendment", "changes_requested", "amendment %s has no requested change", amd.Code)
	}
	field, ok := entity.AmendableFields[amd.Changes.Field]
	if !ok {
		return invalidInput("field %q cannot be amended", amd.Changes.Field)
	}
	value, err := convertFieldValue(field, amd.Changes.RequestedValue)
	if err != nil {
		return err
	}

	resolver := actor.Email
	errResolved := errors.New("amendment already resolved")
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := s.repo.WithTx(tx).Resolve(ctx, amd.ID, map[string]interface{}{
			"status":       entity.AmendmentStatusApproved,
			"resolved_by":  &resolver,
			"completed_at": time.Now(),
		})
		if err != nil {
			return dependency("approve amendment", err)
		}
		if !ok {
			return errResolved
		}

		shipments := s.shipments.WithTx(tx)
		patched, err := shipments.ApplyFieldPatch(ctx, amd.ShipmentID, field.Column, value)
		if err != nil {
			return dependency("apply amendment", err)
		}
		if !patched {
			shipment, err := shipments.FindByID(ctx, amd.ShipmentID)
			if err != nil {
				return dependency("load shipment", err)
			}
			return terminalState("amendment", amd.Status, entity.AmendmentStatusApproved,
				"shipment %s is %s; amendment %s cannot be applied", shipment.TrackingNumber, shipment.Status, amd.Code)
		}
		return nil
	})
	if errors.Is(err, errResolved) {
		return s.alreadyResolved(ctx, amd)
	}
	if err != nil {
		return err
	}

	s.fx.logActivity(ctx, actor, entity.EntityTypeShipment, amd.ShipmentID, amd.TrackingNumber, entity.ActionUpdate, "", "",
		fmt.Sprintf("%s changed from %q to %q by amendment %s", amd.Changes.Field, amd.Changes.CurrentValue, amd.Changes.RequestedValue, amd.Code))
	return nil
}

func (s *AmendmentService) alreadyResolved(ctx context.Context, amd *entity.ShipmentAmendment) error {
	current, err := s.repo.FindByID(ctx, amd.ID)
	if err != nil {
		return dependency("reload amendment", err)
	}
	return terminalState("amendment", current.Status, "", "amendment %s is already %s", current.Code, current.Status)
}

func (s *AmendmentService) afterResolve(ctx context.Context, actor Actor, amd *entity.ShipmentAmendment) {
	note := amd.RejectionReason
	if amd.Status == entity.AmendmentStatusApproved && amd.Changes != nil {
		note = fmt.Sprintf("%s is now %q.", amd.Changes.Field, amd.Changes.RequestedValue)
	}
	s.fx.logActivity(ctx, actor, entity.EntityTypeAmendment, amd.ID, amd.Code, entity.ActionResolve,
		entity.AmendmentStatusPending, amd.Status, fmt.Sprintf("Amendment %s %s", amd.Code, amd.Status))
	s.fx.notify(ctx, StatusChange{
		EntityType:     entity.EntityTypeAmendment,
		EntityID:       amd.ID,
		Reference:      amd.Code,
		RecipientEmail: amd.RequestedBy,
		OldStatus:      entity.AmendmentStatusPending,
		NewStatus:      amd.Status,
		Note:           note,
	})
	s.fx.publish(ctx, actor, EventAmendmentResolved, entity.EntityTypeAmendment, amd.ID, amd.Code, entity.AmendmentStatusPending, amd.Status)
}

// Get 查询修改申请，客户只能查看自己提交的申请
func (s *AmendmentService) Get(ctx context.Context, actor Actor, id string) (*entity.ShipmentAmendment, error) {
	if err := actor.validate(); err != nil {
		return nil, err
	}
	amd, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, dependency("load amendment", err)
	}
	if actor.Is(entity.RoleClient) && !actor.Owns(amd.RequestedBy) {
		return nil, forbidden("amendment %s belongs to another client", amd.Code)
	}
	return amd, nil
}

// List 修改申请列表
func (s *AmendmentService) List(ctx context.Context, actor Actor, page, pageSize int, filters map[string]string) ([]entity.ShipmentAmendment, int64, error) {
	if err := actor.validate(); err != nil {
		return nil, 0, err
	}
	if filters == nil {
		filters = map[string]string{}
	}
	if actor.Is(entity.RoleClient) {
		filters["requested_by"] = actor.Email
	}
	items, total, err := s.repo.FindAll(ctx, page, pageSize, filters)
	if err != nil {
		return nil, 0, dependency("list amendments", err)
	}
	return items, total, nil
}

func convertFieldValue(field entity.AmendableField, raw string) (interface{}, error) {
	if field.Kind == entity.FieldKindNumber {
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil || v < 0 {
			return nil, invalidInput("%s must be a non-negative number, got %q", field.Column, raw)
		}
		return v, nil
	}
	return raw, nil
}
