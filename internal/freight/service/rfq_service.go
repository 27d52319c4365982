package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/AbdelazizAhmedMohamedAhmed/tact-freight-platform-sub000/internal/freight/entity"
	"github.com/AbdelazizAhmedMohamedAhmed/tact-freight-platform-sub000/internal/freight/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var errRFQChanged = errors.New("rfq status changed concurrently")

// RFQService 询价单服务
type RFQService struct {
	db        *gorm.DB
	repo      *repository.RFQRepository
	shipments *ShipmentService
	fx        *SideEffects
}

func NewRFQService(db *gorm.DB, repo *repository.RFQRepository, shipments *ShipmentService, fx *SideEffects) *RFQService {
	return &RFQService{db: db, repo: repo, shipments: shipments, fx: fx}
}

// CreateRFQRequest 创建询价单请求
type CreateRFQRequest struct {
	CompanyName             string  `json:"company_name"`
	ContactName             string  `json:"contact_name"`
	ClientEmail             string  `json:"client_email"`
	ContactPhone            string  `json:"contact_phone"`
	Mode                    string  `json:"mode" binding:"required"`
	CargoType               string  `json:"cargo_type"`
	Origin                  string  `json:"origin" binding:"required"`
	Destination             string  `json:"destination" binding:"required"`
	WeightKG                float64 `json:"weight_kg"`
	VolumeCBM               float64 `json:"volume_cbm"`
	PackageCount            int     `json:"package_count"`
	CommodityDescription    string  `json:"commodity_description"`
	IsHazardous             bool    `json:"is_hazardous"`
	IsTemperatureControlled bool    `json:"is_temperature_controlled"`
	Incoterm                string  `json:"incoterm"`
}

// Create 客户提交询价，或销售代客户录入
func (s *RFQService) Create(ctx context.Context, actor Actor, req *CreateRFQRequest) (*entity.RFQ, error) {
	if err := actor.requireRole("submit RFQs", entity.RoleClient, entity.RoleSales); err != nil {
		return nil, err
	}
	if !entity.IsValidMode(req.Mode) {
		return nil, invalidInput("mode must be one of sea, air, inland")
	}
	if strings.TrimSpace(req.Origin) == "" || strings.TrimSpace(req.Destination) == "" {
		return nil, missingField("rfq", "origin/destination", "an RFQ needs an origin and a destination")
	}

	clientEmail := strings.ToLower(strings.TrimSpace(req.ClientEmail))
	if actor.Is(entity.RoleClient) {
		clientEmail = strings.ToLower(actor.Email)
	} else if clientEmail == "" {
		return nil, missingField("rfq", "client_email", "an RFQ entered on behalf of a client needs the client's email")
	}

	reference, err := s.repo.GenerateReference(ctx)
	if err != nil {
		return nil, dependency("generate RFQ reference", err)
	}

	rfq := &entity.RFQ{
		ID:                      uuid.New().String()[:32],
		Reference:               reference,
		CompanyName:             req.CompanyName,
		ContactName:             req.ContactName,
		ClientEmail:             clientEmail,
		ContactPhone:            req.ContactPhone,
		Mode:                    req.Mode,
		CargoType:               req.CargoType,
		Origin:                  req.Origin,
		Destination:             req.Destination,
		WeightKG:                req.WeightKG,
		VolumeCBM:               req.VolumeCBM,
		PackageCount:            req.PackageCount,
		CommodityDescription:    req.CommodityDescription,
		IsHazardous:             req.IsHazardous,
		IsTemperatureControlled: req.IsTemperatureControlled,
		Incoterm:                req.Incoterm,
		Status:                  entity.RFQStatusSubmitted,
		CreatedBy:               actor.Email,
	}
	if err := s.repo.Create(ctx, rfq); err != nil {
		s.fx.logger.Error("Create RFQ failed", zap.String("reference", reference), zap.Error(err))
		return nil, dependency("create RFQ", err)
	}

	s.fx.logActivity(ctx, actor, entity.EntityTypeRFQ, rfq.ID, rfq.Reference, entity.ActionCreate, "", rfq.Status,
		fmt.Sprintf("RFQ submitted: %s → %s (%s)", rfq.Origin, rfq.Destination, rfq.Mode))
	s.fx.notifyTeam(ctx, TeamSales, TeamMessage{
		Title:    "New RFQ " + rfq.Reference,
		Template: "blue",
		Fields:   rfqCardFields(rfq),
		Note:     "Please review and forward to pricing",
	})
	s.fx.publish(ctx, actor, EventRFQCreated, entity.EntityTypeRFQ, rfq.ID, rfq.Reference, "", rfq.Status)
	return rfq, nil
}

// Get 查询询价单，客户只能查看自己的询价单
func (s *RFQService) Get(ctx context.Context, actor Actor, id string) (*entity.RFQ, error) {
	rfq, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, dependency("load RFQ", err)
	}
	if err := checkRFQVisible(actor, rfq); err != nil {
		return nil, err
	}
	return rfq, nil
}

// List 询价单列表
func (s *RFQService) List(ctx context.Context, actor Actor, page, pageSize int, filters map[string]string) ([]entity.RFQ, int64, error) {
	if err := actor.validate(); err != nil {
		return nil, 0, err
	}
	if filters == nil {
		filters = map[string]string{}
	}
	if status := filters["status"]; status != "" {
		filters["status"] = entity.NormalizeRFQStatus(status)
	}
	if actor.Is(entity.RoleClient) {
		filters["client_email"] = actor.Email
	}
	items, total, err := s.repo.FindAll(ctx, page, pageSize, filters)
	if err != nil {
		return nil, 0, dependency("list RFQs", err)
	}
	return items, total, nil
}

// UpdateNotesRequest 内部备注
type UpdateNotesRequest struct {
	SalesNotes   *string `json:"sales_notes"`
	PricingNotes *string `json:"pricing_notes"`
}

// UpdateNotes 销售写销售备注，定价写定价备注
func (s *RFQService) UpdateNotes(ctx context.Context, actor Actor, id string, req *UpdateNotesRequest) (*entity.RFQ, error) {
	if err := actor.requireRole("edit RFQ notes", entity.RoleSales, entity.RolePricing); err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if req.SalesNotes != nil {
		if !actor.IsAdmin() && !actor.Is(entity.RoleSales) {
			return nil, forbidden("only sales can edit sales notes")
		}
		updates["sales_notes"] = *req.SalesNotes
	}
	if req.PricingNotes != nil {
		if !actor.IsAdmin() && !actor.Is(entity.RolePricing) {
			return nil, forbidden("only pricing can edit pricing notes")
		}
		updates["pricing_notes"] = *req.PricingNotes
	}
	if len(updates) == 0 {
		return nil, invalidInput("no notes to update")
	}

	if err := s.repo.UpdateFields(ctx, id, updates); err != nil {
		return nil, dependency("update RFQ notes", err)
	}
	rfq, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, dependency("reload RFQ", err)
	}
	s.fx.logActivity(ctx, actor, entity.EntityTypeRFQ, rfq.ID, rfq.Reference, entity.ActionUpdate, "", "", "Internal notes updated")
	return rfq, nil
}

// TransitionRequest 状态流转请求，报价字段仅在 pricing_review → quoted 时使用
type TransitionRequest struct {
	Status            string   `json:"status" binding:"required"`
	QuotationAmount   *float64 `json:"quotation_amount"`
	QuotationCurrency string   `json:"quotation_currency"`
	QuotationNotes    string   `json:"quotation_notes"`
	QuotationURL      string   `json:"quotation_url"`
	Note              string   `json:"note"`
}

func (r *TransitionRequest) hasQuotation() bool {
	return r.QuotationAmount != nil || r.QuotationCurrency != "" || r.QuotationNotes != "" || r.QuotationURL != ""
}

// TransitionResult 流转结果；接受报价时带回生成的运单
type TransitionResult struct {
	RFQ      *entity.RFQ      `json:"rfq"`
	Shipment *entity.Shipment `json:"shipment,omitempty"`
	Replayed bool             `json:"replayed"`
}

// Transition 按角色规则表推进询价单状态
func (s *RFQService) Transition(ctx context.Context, actor Actor, id string, req *TransitionRequest) (*TransitionResult, error) {
	if err := actor.validate(); err != nil {
		return nil, err
	}
	rfq, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, dependency("load RFQ", err)
	}
	if err := checkRFQVisible(actor, rfq); err != nil {
		return nil, err
	}

	to := entity.NormalizeRFQStatus(req.Status)

	// 客户重试接受请求：返回已生成的运单
	if to == entity.RFQStatusAccepted && rfq.Status == entity.RFQStatusAccepted && actor.Is(entity.RoleClient) {
		return s.replayAccept(ctx, actor, rfq)
	}

	rule, err := CheckRFQTransition(actor.Role, rfq.Status, to)
	if err != nil {
		return nil, err
	}

	from := rfq.Status
	now := time.Now()
	updates := map[string]interface{}{"status": to}

	if req.hasQuotation() && rule.Effect != EffectRequireQuotation {
		return nil, invalidTransition("rfq", from, to,
			"quotation can only be set while moving RFQ from %s to %s", entity.RFQStatusPricingReview, entity.RFQStatusQuoted)
	}

	switch rule.Effect {
	case EffectRequireQuotation:
		if req.QuotationAmount == nil || *req.QuotationAmount <= 0 {
			return nil, missingField("rfq", "quotation_amount", "moving RFQ to %s requires a quotation amount greater than 0", to)
		}
		currency := strings.ToUpper(req.QuotationCurrency)
		if currency == "" {
			currency = "USD"
		}
		updates["quotation_amount"] = *req.QuotationAmount
		updates["quotation_currency"] = currency
		updates["quotation_notes"] = req.QuotationNotes
		updates["quotation_url"] = req.QuotationURL
		updates["quoted_at"] = now
	case EffectNotifyClient:
		updates["sent_at"] = now
	case EffectSynthesize:
		if !rfq.HasQuotation() {
			return nil, missingField("rfq", "quotation_amount", "RFQ %s has no quotation to accept", rfq.Reference)
		}
		updates["decided_at"] = now
		return s.accept(ctx, actor, rfq, updates, req.Note)
	}
	if to == entity.RFQStatusRejected {
		updates["decided_at"] = now
	}

	ok, err := s.repo.CompareAndSetStatus(ctx, rfq.ID, from, updates)
	if err != nil {
		s.fx.logger.Error("Update RFQ status failed", zap.String("reference", rfq.Reference), zap.Error(err))
		return nil, dependency("update RFQ status", err)
	}
	if !ok {
		return nil, s.concurrentChange(ctx, rfq, to)
	}

	updated, err := s.repo.FindByID(ctx, rfq.ID)
	if err != nil {
		return nil, dependency("reload RFQ", err)
	}
	s.afterTransition(ctx, actor, updated, from, req.Note, entity.ActionStatusChange)

	switch rule.Effect {
	case EffectNotifyPricing:
		s.fx.notifyTeam(ctx, TeamPricing, TeamMessage{
			Title:    "Pricing requested for " + updated.Reference,
			Template: "orange",
			Fields:   rfqCardFields(updated),
			Note:     "Please prepare a quotation",
		})
	case EffectRequireQuotation:
		s.fx.notifyTeam(ctx, TeamSales, TeamMessage{
			Title:    "Quotation prepared for " + updated.Reference,
			Template: "blue",
			Fields: append(rfqCardFields(updated), TeamField{
				Label: "Quotation",
				Value: fmt.Sprintf("%.2f %s", updated.QuotationAmount, updated.QuotationCurrency),
			}),
			Note: "Please review and send to the client",
		})
	}

	return &TransitionResult{RFQ: updated}, nil
}

// accept 客户接受报价：询价单状态与运单生成在同一事务内
func (s *RFQService) accept(ctx context.Context, actor Actor, rfq *entity.RFQ, updates map[string]interface{}, note string) (*TransitionResult, error) {
	from := rfq.Status
	release, err := s.shipments.acquireSynthesis(ctx, rfq)
	if err != nil {
		return nil, err
	}

	var shipment *entity.Shipment
	var created bool
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := s.repo.WithTx(tx).CompareAndSetStatus(ctx, rfq.ID, from, updates)
		if err != nil {
			return dependency("update RFQ status", err)
		}
		if !ok {
			return errRFQChanged
		}
		accepted := *rfq
		accepted.Status = entity.RFQStatusAccepted
		var synthErr error
		shipment, created, synthErr = s.shipments.synthesizeTx(ctx, tx, &accepted, actor.Email)
		return synthErr
	})
	release()

	if errors.Is(err, errRFQChanged) {
		current, loadErr := s.repo.FindByID(ctx, rfq.ID)
		if loadErr != nil {
			return nil, dependency("reload RFQ", loadErr)
		}
		if current.Status == entity.RFQStatusAccepted {
			return s.replayAccept(ctx, actor, current)
		}
		return nil, invalidTransition("rfq", from, entity.RFQStatusAccepted,
			"RFQ %s changed concurrently (now %s); reload and retry", current.Reference, current.Status)
	}
	if err != nil {
		s.fx.logger.Error("Accept RFQ failed", zap.String("reference", rfq.Reference), zap.Error(err))
		return nil, err
	}

	updated, err := s.repo.FindByID(ctx, rfq.ID)
	if err != nil {
		return nil, dependency("reload RFQ", err)
	}
	s.afterTransition(ctx, actor, updated, from, note, entity.ActionStatusChange)
	if created {
		s.shipments.afterSynthesis(ctx, updated, shipment, actor.Email)
	}
	return &TransitionResult{RFQ: updated, Shipment: shipment}, nil
}

// replayAccept 已接受的询价单再次接受：返回已有运单，缺失时补生成
func (s *RFQService) replayAccept(ctx context.Context, actor Actor, rfq *entity.RFQ) (*TransitionResult, error) {
	shipment, err := s.shipments.FindByRFQ(ctx, rfq.ID)
	if err != nil {
		return nil, err
	}
	if shipment == nil {
		shipment, err = s.shipments.SynthesizeShipment(ctx, rfq, actor.Email)
		if err != nil {
			return nil, err
		}
	}
	return &TransitionResult{RFQ: rfq, Shipment: shipment, Replayed: true}, nil
}

// OverrideStatus 管理员越过规则表设置状态（won/lost/cancelled 等），不能代替客户接受报价
func (s *RFQService) OverrideStatus(ctx context.Context, actor Actor, id, to, note string) (*entity.RFQ, error) {
	if err := actor.validate(); err != nil {
		return nil, err
	}
	if !actor.IsAdmin() {
		return nil, forbidden("only admins can override RFQ status")
	}
	rfq, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, dependency("load RFQ", err)
	}

	to = entity.NormalizeRFQStatus(to)
	from := rfq.Status
	if !entity.IsValidRFQStatus(to) {
		return nil, invalidTransition("rfq", from, to, "unknown RFQ status %q", to)
	}
	if to == entity.RFQStatusAccepted {
		return nil, invalidTransition("rfq", from, to, "only the client can accept a quotation; admin override cannot set %s", to)
	}
	if from == to {
		return nil, invalidTransition("rfq", from, to, "RFQ is already %s", from)
	}

	ok, err := s.repo.CompareAndSetStatus(ctx, rfq.ID, from, map[string]interface{}{"status": to})
	if err != nil {
		return nil, dependency("override RFQ status", err)
	}
	if !ok {
		return nil, s.concurrentChange(ctx, rfq, to)
	}

	updated, err := s.repo.FindByID(ctx, rfq.ID)
	if err != nil {
		return nil, dependency("reload RFQ", err)
	}
	if note == "" {
		note = fmt.Sprintf("Status overridden from %s to %s by admin", from, to)
	}
	s.afterTransition(ctx, actor, updated, from, note, entity.ActionOverride)
	return updated, nil
}

func (s *RFQService) afterTransition(ctx context.Context, actor Actor, rfq *entity.RFQ, from, note, action string) {
	content := fmt.Sprintf("Status changed from %s to %s", from, rfq.Status)
	if note != "" {
		content += ": " + note
	}
	s.fx.logActivity(ctx, actor, entity.EntityTypeRFQ, rfq.ID, rfq.Reference, action, from, rfq.Status, content)
	s.fx.notify(ctx, StatusChange{
		EntityType:     entity.EntityTypeRFQ,
		EntityID:       rfq.ID,
		Reference:      rfq.Reference,
		RecipientEmail: rfq.ClientEmail,
		OldStatus:      from,
		NewStatus:      rfq.Status,
		Note:           note,
	})
	s.fx.publish(ctx, actor, EventRFQStatusChanged, entity.EntityTypeRFQ, rfq.ID, rfq.Reference, from, rfq.Status)
}

func (s *RFQService) concurrentChange(ctx context.Context, rfq *entity.RFQ, to string) error {
	current, err := s.repo.FindByID(ctx, rfq.ID)
	if err != nil {
		return dependency("reload RFQ", err)
	}
	return invalidTransition("rfq", rfq.Status, to,
		"RFQ %s changed concurrently (now %s); reload and retry", current.Reference, current.Status)
}

func checkRFQVisible(actor Actor, rfq *entity.RFQ) error {
	if err := actor.validate(); err != nil {
		return err
	}
	if actor.Is(entity.RoleClient) && !actor.Owns(rfq.ClientEmail) {
		return forbidden("RFQ %s belongs to another client", rfq.Reference)
	}
	return nil
}

func rfqCardFields(rfq *entity.RFQ) []TeamField {
	return []TeamField{
		{Label: "Reference", Value: rfq.Reference},
		{Label: "Client", Value: rfq.CompanyName},
		{Label: "Route", Value: rfq.Origin + " → " + rfq.Destination},
		{Label: "Mode", Value: rfq.Mode},
	}
}
