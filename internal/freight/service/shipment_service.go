package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"path"
	"strings"
	"time"

	"github.com/AbdelazizAhmedMohamedAhmed/tact-freight-platform-sub000/internal/freight/entity"
	"github.com/AbdelazizAhmedMohamedAhmed/tact-freight-platform-sub000/internal/freight/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SynthesisNote 由询价单生成运单时的首条历史备注
const SynthesisNote = "Booking confirmed. Quotation accepted by client."

const (
	synthesisLockTTL    = 30 * time.Second
	synthesisBackoffMin = 10 * time.Millisecond
	synthesisBackoffMax = 500 * time.Millisecond
)

// ShipmentService 运单服务
type ShipmentService struct {
	db    *gorm.DB
	repo  *repository.ShipmentRepository
	fx    *SideEffects
	guard SynthesisGuard
	files FileStore

	// 等待其他请求释放生成锁的上限
	synthesisWait time.Duration
}

func NewShipmentService(db *gorm.DB, repo *repository.ShipmentRepository, fx *SideEffects) *ShipmentService {
	return &ShipmentService{db: db, repo: repo, fx: fx, synthesisWait: synthesisLockTTL}
}

// SetSynthesisGuard 注入运单生成互斥（Redis）
func (s *ShipmentService) SetSynthesisGuard(guard SynthesisGuard) {
	s.guard = guard
}

// SetFileStore 注入文件存储
func (s *ShipmentService) SetFileStore(files FileStore) {
	s.files = files
}

// CreateShipmentRequest 运营直接创建运单
type CreateShipmentRequest struct {
	Mode                    string     `json:"mode" binding:"required"`
	Origin                  string     `json:"origin" binding:"required"`
	Destination             string     `json:"destination" binding:"required"`
	CompanyName             string     `json:"company_name"`
	ClientEmail             string     `json:"client_email"`
	ShipperName             string     `json:"shipper_name"`
	ShipperAddress          string     `json:"shipper_address"`
	ShipperContact          string     `json:"shipper_contact"`
	ConsigneeName           string     `json:"consignee_name"`
	ConsigneeAddress        string     `json:"consignee_address"`
	ConsigneeContact        string     `json:"consignee_contact"`
	NotifyPartyName         string     `json:"notify_party_name"`
	NotifyPartyAddress      string     `json:"notify_party_address"`
	NotifyPartyContact      string     `json:"notify_party_contact"`
	Incoterm                string     `json:"incoterm"`
	CargoDescription        string     `json:"cargo_description"`
	WeightKG                float64    `json:"weight_kg"`
	VolumeCBM               float64    `json:"volume_cbm"`
	IsHazardous             bool       `json:"is_hazardous"`
	IsTemperatureControlled bool       `json:"is_temperature_controlled"`
	ETD                     *time.Time `json:"etd"`
	ETA                     *time.Time `json:"eta"`
	OperationsNotes         string     `json:"operations_notes"`
	Note                    string     `json:"note"`
}

// Create 运营直接创建运单（不关联询价单）
func (s *ShipmentService) Create(ctx context.Context, actor Actor, req *CreateShipmentRequest) (*entity.Shipment, error) {
	if err := actor.requireRole("create shipments", entity.RoleOperations); err != nil {
		return nil, err
	}
	if !entity.IsValidMode(req.Mode) {
		return nil, invalidInput("mode must be one of sea, air, inland")
	}
	if strings.TrimSpace(req.Origin) == "" || strings.TrimSpace(req.Destination) == "" {
		return nil, missingField("shipment", "origin/destination", "a shipment needs an origin and a destination")
	}

	tracking, err := s.repo.GenerateTrackingNumber(ctx)
	if err != nil {
		return nil, dependency("generate tracking number", err)
	}

	note := req.Note
	if note == "" {
		note = "Booking confirmed."
	}
	now := time.Now()
	shipment := &entity.Shipment{
		ID:                      uuid.New().String()[:32],
		TrackingNumber:          tracking,
		Mode:                    req.Mode,
		Origin:                  req.Origin,
		Destination:             req.Destination,
		CompanyName:             req.CompanyName,
		ClientEmail:             strings.ToLower(req.ClientEmail),
		ShipperName:             req.ShipperName,
		ShipperAddress:          req.ShipperAddress,
		ShipperContact:          req.ShipperContact,
		ConsigneeName:           req.ConsigneeName,
		ConsigneeAddress:        req.ConsigneeAddress,
		ConsigneeContact:        req.ConsigneeContact,
		NotifyPartyName:         req.NotifyPartyName,
		NotifyPartyAddress:      req.NotifyPartyAddress,
		NotifyPartyContact:      req.NotifyPartyContact,
		Incoterm:                req.Incoterm,
		CargoDescription:        req.CargoDescription,
		WeightKG:                req.WeightKG,
		VolumeCBM:               req.VolumeCBM,
		IsHazardous:             req.IsHazardous,
		IsTemperatureControlled: req.IsTemperatureControlled,
		ETD:                     req.ETD,
		ETA:                     req.ETA,
		OperationsNotes:         req.OperationsNotes,
		Status:                  entity.ShipmentStatusBookingConfirmed,
		StatusHistory: entity.StatusHistory{{
			Status:    entity.ShipmentStatusBookingConfirmed,
			Timestamp: now,
			Note:      note,
			UpdatedBy: actor.Email,
		}},
		CreatedBy: actor.Email,
	}

	if err := s.repo.Create(ctx, shipment); err != nil {
		return nil, dependency("create shipment", err)
	}

	s.afterCreate(ctx, actor, shipment, "Shipment created by "+actor.Email)
	return shipment, nil
}

// FindByRFQ 查找询价单派生的运单，不存在时返回 nil
func (s *ShipmentService) FindByRFQ(ctx context.Context, rfqID string) (*entity.Shipment, error) {
	shipment, err := s.repo.FindByRFQID(ctx, rfqID)
	if err != nil {
		return nil, dependency("find shipment by rfq", err)
	}
	return shipment, nil
}

// acquireSynthesis 获取询价单的运单生成锁；Redis 不可用时仅依赖数据库唯一索引。
// 锁被占用时按退避等待，释放后由调用方的状态比较决定生成还是回放。
func (s *ShipmentService) acquireSynthesis(ctx context.Context, rfq *entity.RFQ) (func(), error) {
	if s.guard == nil {
		return func() {}, nil
	}
	key := synthesisKey(rfq.ID)
	deadline := time.Now().Add(s.synthesisWait)
	backoff := synthesisBackoffMin

	for {
		token, ok, err := s.guard.Acquire(ctx, key, synthesisLockTTL)
		if err != nil {
			s.fx.logger.Warn("Synthesis guard unavailable, relying on unique index",
				zap.String("rfq_id", rfq.ID), zap.Error(err))
			return func() {}, nil
		}
		if ok {
			return func() {
				if err := s.guard.Release(context.WithoutCancel(ctx), key, token); err != nil {
					s.fx.logger.Warn("Release synthesis guard failed", zap.String("key", key), zap.Error(err))
				}
			}, nil
		}
		if !time.Now().Before(deadline) {
			return nil, &TransitionError{
				Kind:   ErrDuplicateSynthesis,
				Entity: "shipment",
				Reason: fmt.Sprintf("shipment synthesis for %s is already in progress", rfq.Reference),
			}
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		if backoff *= 2; backoff > synthesisBackoffMax {
			backoff = synthesisBackoffMax
		}
	}
}

// SynthesizeShipment 由已接受的询价单生成运单；对同一询价单重复调用返回已有运单
func (s *ShipmentService) SynthesizeShipment(ctx context.Context, rfq *entity.RFQ, acceptingEmail string) (*entity.Shipment, error) {
	if rfq.Status != entity.RFQStatusAccepted {
		return nil, invalidTransition("shipment", rfq.Status, entity.ShipmentStatusBookingConfirmed,
			"a shipment can only be synthesized from an accepted RFQ (%s is %s)", rfq.Reference, rfq.Status)
	}

	release, err := s.acquireSynthesis(ctx, rfq)
	if err != nil {
		return nil, err
	}
	defer release()

	var shipment *entity.Shipment
	var created bool
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txErr error
		shipment, created, txErr = s.synthesizeTx(ctx, tx, rfq, acceptingEmail)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	if created {
		s.afterSynthesis(ctx, rfq, shipment, acceptingEmail)
	}
	return shipment, nil
}

// synthesizeTx 在事务内生成运单，返回的 bool 表示本次是否新建
func (s *ShipmentService) synthesizeTx(ctx context.Context, tx *gorm.DB, rfq *entity.RFQ, acceptingEmail string) (*entity.Shipment, bool, error) {
	repo := s.repo.WithTx(tx)

	existing, err := repo.FindByRFQID(ctx, rfq.ID)
	if err != nil {
		return nil, false, dependency("find shipment by rfq", err)
	}
	if existing != nil {
		log.Printf("[Freight] RFQ %s already has shipment %s, skip synthesis", rfq.Reference, existing.TrackingNumber)
		return existing, false, nil
	}

	tracking, err := repo.GenerateTrackingNumber(ctx)
	if err != nil {
		return nil, false, dependency("generate tracking number", err)
	}

	rfqID := rfq.ID
	shipment := &entity.Shipment{
		ID:                      uuid.New().String()[:32],
		TrackingNumber:          tracking,
		RFQID:                   &rfqID,
		RFQReference:            rfq.Reference,
		Mode:                    rfq.Mode,
		Origin:                  rfq.Origin,
		Destination:             rfq.Destination,
		CompanyName:             rfq.CompanyName,
		ClientEmail:             rfq.ClientEmail,
		Incoterm:                rfq.Incoterm,
		CargoDescription:        rfq.CommodityDescription,
		WeightKG:                rfq.WeightKG,
		VolumeCBM:               rfq.VolumeCBM,
		IsHazardous:             rfq.IsHazardous,
		IsTemperatureControlled: rfq.IsTemperatureControlled,
		Status:                  entity.ShipmentStatusBookingConfirmed,
		StatusHistory: entity.StatusHistory{{
			Status:    entity.ShipmentStatusBookingConfirmed,
			Timestamp: time.Now(),
			Note:      SynthesisNote,
			UpdatedBy: acceptingEmail,
		}},
		CreatedBy: acceptingEmail,
	}

	// 唯一索引冲突说明并发请求已生成运单，回滚到保存点后读取已有运单
	savepoint := tx.SavePoint("synthesize_shipment").Error == nil
	if err := repo.Create(ctx, shipment); err != nil {
		if savepoint {
			tx.RollbackTo("synthesize_shipment")
		}
		existing, findErr := repo.FindByRFQID(ctx, rfq.ID)
		if findErr == nil && existing != nil {
			return existing, false, nil
		}
		return nil, false, dependency("create shipment", err)
	}

	log.Printf("[Freight] Shipment %s synthesized from RFQ %s", shipment.TrackingNumber, rfq.Reference)
	return shipment, true, nil
}

func (s *ShipmentService) afterSynthesis(ctx context.Context, rfq *entity.RFQ, shipment *entity.Shipment, acceptingEmail string) {
	actor := Actor{Email: acceptingEmail, Role: entity.RoleClient}
	s.afterCreate(ctx, actor, shipment, fmt.Sprintf("Shipment synthesized from %s", rfq.Reference))
}

func (s *ShipmentService) afterCreate(ctx context.Context, actor Actor, shipment *entity.Shipment, content string) {
	s.fx.logActivity(ctx, actor, entity.EntityTypeShipment, shipment.ID, shipment.TrackingNumber,
		entity.ActionCreate, "", shipment.Status, content)
	s.fx.notify(ctx, StatusChange{
		EntityType:     entity.EntityTypeShipment,
		EntityID:       shipment.ID,
		Reference:      shipment.TrackingNumber,
		RecipientEmail: shipment.ClientEmail,
		NewStatus:      shipment.Status,
		Note:           shipment.StatusHistory.Last().Note,
	})
	s.fx.notifyTeam(ctx, TeamOperations, TeamMessage{
		Title:    "New booking " + shipment.TrackingNumber,
		Template: "green",
		Fields: []TeamField{
			{Label: "Tracking", Value: shipment.TrackingNumber},
			{Label: "RFQ", Value: shipment.RFQReference},
			{Label: "Client", Value: shipment.CompanyName},
			{Label: "Route", Value: shipment.Origin + " → " + shipment.Destination},
			{Label: "Mode", Value: shipment.Mode},
		},
		Note: "Please arrange cargo pickup",
	})
	s.fx.publish(ctx, actor, EventShipmentCreated, entity.EntityTypeShipment, shipment.ID, shipment.TrackingNumber, "", shipment.Status)
}

// Get 查询运单，客户只能查看自己的运单
func (s *ShipmentService) Get(ctx context.Context, actor Actor, id string) (*entity.Shipment, error) {
	shipment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, dependency("load shipment", err)
	}
	if err := checkShipmentVisible(actor, shipment); err != nil {
		return nil, err
	}
	return shipment, nil
}

// GetByTracking 按运单号查询
func (s *ShipmentService) GetByTracking(ctx context.Context, actor Actor, trackingNumber string) (*entity.Shipment, error) {
	shipment, err := s.repo.FindByTrackingNumber(ctx, strings.ToUpper(trackingNumber))
	if err != nil {
		return nil, dependency("load shipment", err)
	}
	if err := checkShipmentVisible(actor, shipment); err != nil {
		return nil, err
	}
	return shipment, nil
}

// List 运单列表，客户只能看到自己的运单
func (s *ShipmentService) List(ctx context.Context, actor Actor, page, pageSize int, filters map[string]string) ([]entity.Shipment, int64, error) {
	if err := actor.validate(); err != nil {
		return nil, 0, err
	}
	if filters == nil {
		filters = map[string]string{}
	}
	if actor.Is(entity.RoleClient) {
		filters["client_email"] = actor.Email
	}
	items, total, err := s.repo.FindAll(ctx, page, pageSize, filters)
	if err != nil {
		return nil, 0, dependency("list shipments", err)
	}
	return items, total, nil
}

// History 状态历史
func (s *ShipmentService) History(ctx context.Context, actor Actor, id string) (entity.StatusHistory, error) {
	shipment, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return shipment.StatusHistory, nil
}

// NextStatuses 运单可推进到的下一状态
func (s *ShipmentService) NextStatuses(ctx context.Context, actor Actor, id string) ([]string, error) {
	shipment, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return NextAllowedStatuses(shipment.Status), nil
}

// Advance 正常推进到唯一的下一状态
func (s *ShipmentService) Advance(ctx context.Context, actor Actor, id, to, note string) (*entity.Shipment, error) {
	if err := actor.requireRole("advance shipment status", entity.RoleOperations); err != nil {
		return nil, err
	}
	shipment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, dependency("load shipment", err)
	}
	if err := CheckShipmentAdvance(shipment.Status, to); err != nil {
		return nil, err
	}
	return s.writeStatus(ctx, actor, shipment, to, note, entity.ActionStatusChange)
}

// ForceSetStatus 管理员强制设置状态，可跳过中间状态，仍追加历史并通知客户
func (s *ShipmentService) ForceSetStatus(ctx context.Context, actor Actor, id, to, note string) (*entity.Shipment, error) {
	if err := actor.validate(); err != nil {
		return nil, err
	}
	if !actor.IsAdmin() {
		return nil, forbidden("only admins can force a shipment status")
	}
	shipment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, dependency("load shipment", err)
	}
	if err := CheckForceSet(shipment.Status, to); err != nil {
		return nil, err
	}
	if note == "" {
		note = fmt.Sprintf("Status forced from %s to %s by admin", shipment.Status, to)
	}
	return s.writeStatus(ctx, actor, shipment, to, note, entity.ActionForceStatus)
}

// writeStatus 状态与历史在同一次写入中落库
func (s *ShipmentService) writeStatus(ctx context.Context, actor Actor, shipment *entity.Shipment, to, note, action string) (*entity.Shipment, error) {
	from := shipment.Status
	history := shipment.StatusHistory.Append(entity.StatusHistoryEntry{
		Status:    to,
		Timestamp: time.Now(),
		Note:      note,
		UpdatedBy: actor.Email,
	})

	ok, err := s.repo.CompareAndSetStatus(ctx, shipment.ID, from, to, history)
	if err != nil {
		return nil, dependency("update shipment status", err)
	}
	if !ok {
		return nil, s.concurrentChange(ctx, shipment, to)
	}

	updated := *shipment
	updated.Status = to
	updated.StatusHistory = history

	content := fmt.Sprintf("Status changed from %s to %s", from, to)
	if note != "" {
		content += ": " + note
	}
	s.fx.logActivity(ctx, actor, entity.EntityTypeShipment, updated.ID, updated.TrackingNumber, action, from, to, content)
	s.fx.notify(ctx, StatusChange{
		EntityType:     entity.EntityTypeShipment,
		EntityID:       updated.ID,
		Reference:      updated.TrackingNumber,
		RecipientEmail: updated.ClientEmail,
		OldStatus:      from,
		NewStatus:      to,
		Note:           note,
	})
	s.fx.publish(ctx, actor, EventShipmentStatusChange, entity.EntityTypeShipment, updated.ID, updated.TrackingNumber, from, to)

	return &updated, nil
}

func (s *ShipmentService) concurrentChange(ctx context.Context, shipment *entity.Shipment, to string) error {
	current, err := s.repo.FindByID(ctx, shipment.ID)
	if err != nil {
		return dependency("reload shipment", err)
	}
	if current.IsDelivered() {
		return terminalState("shipment", current.Status, to, "shipment %s was delivered concurrently; no further changes are allowed", current.TrackingNumber)
	}
	return invalidTransition("shipment", shipment.Status, to,
		"shipment %s changed concurrently (now %s); reload and retry", current.TrackingNumber, current.Status)
}

// ShipmentPatch 运单非状态字段修改，nil 表示不修改
type ShipmentPatch struct {
	ShipperName        *string    `json:"shipper_name"`
	ShipperAddress     *string    `json:"shipper_address"`
	ShipperContact     *string    `json:"shipper_contact"`
	ConsigneeName      *string    `json:"consignee_name"`
	ConsigneeAddress   *string    `json:"consignee_address"`
	ConsigneeContact   *string    `json:"consignee_contact"`
	NotifyPartyName    *string    `json:"notify_party_name"`
	NotifyPartyAddress *string    `json:"notify_party_address"`
	NotifyPartyContact *string    `json:"notify_party_contact"`
	BLNumber           *string    `json:"bl_number"`
	AWBNumber          *string    `json:"awb_number"`
	MBLNumber          *string    `json:"mbl_number"`
	HBLNumber          *string    `json:"hbl_number"`
	HBLACID            *string    `json:"hbl_acid"`
	ContainerNumber    *string    `json:"container_number"`
	SealNumber         *string    `json:"seal_number"`
	Incoterm           *string    `json:"incoterm"`
	CargoDescription   *string    `json:"cargo_description"`
	WeightKG           *float64   `json:"weight_kg"`
	VolumeCBM          *float64   `json:"volume_cbm"`
	ETD                *time.Time `json:"etd"`
	ETA                *time.Time `json:"eta"`
	ATD                *time.Time `json:"atd"`
	ATA                *time.Time `json:"ata"`
	OperationsNotes    *string    `json:"operations_notes"`
}

func (p *ShipmentPatch) updates() map[string]interface{} {
	updates := map[string]interface{}{}
	setString := func(col string, v *string) {
		if v != nil {
			updates[col] = *v
		}
	}
	setString("shipper_name", p.ShipperName)
	setString("shipper_address", p.ShipperAddress)
	setString("shipper_contact", p.ShipperContact)
	setString("consignee_name", p.ConsigneeName)
	setString("consignee_address", p.ConsigneeAddress)
	setString("consignee_contact", p.ConsigneeContact)
	setString("notify_party_name", p.NotifyPartyName)
	setString("notify_party_address", p.NotifyPartyAddress)
	setString("notify_party_contact", p.NotifyPartyContact)
	setString("bl_number", p.BLNumber)
	setString("awb_number", p.AWBNumber)
	setString("mbl_number", p.MBLNumber)
	setString("hbl_number", p.HBLNumber)
	setString("hbl_acid", p.HBLACID)
	setString("container_number", p.ContainerNumber)
	setString("seal_number", p.SealNumber)
	setString("incoterm", p.Incoterm)
	setString("cargo_description", p.CargoDescription)
	setString("operations_notes", p.OperationsNotes)
	if p.WeightKG != nil {
		updates["weight_kg"] = *p.WeightKG
	}
	if p.VolumeCBM != nil {
		updates["volume_cbm"] = *p.VolumeCBM
	}
	for col, v := range map[string]*time.Time{"etd": p.ETD, "eta": p.ETA, "atd": p.ATD, "ata": p.ATA} {
		if v != nil {
			updates[col] = *v
		}
	}
	return updates
}

// UpdateDetails 修改运单非状态字段；客户只能修改 hbl_acid
func (s *ShipmentService) UpdateDetails(ctx context.Context, actor Actor, id string, patch *ShipmentPatch) (*entity.Shipment, error) {
	if err := actor.requireRole("update shipments", entity.RoleOperations, entity.RoleClient); err != nil {
		return nil, err
	}
	shipment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, dependency("load shipment", err)
	}
	if err := checkShipmentVisible(actor, shipment); err != nil {
		return nil, err
	}

	updates := patch.updates()
	if len(updates) == 0 {
		return nil, invalidInput("no fields to update")
	}
	if actor.Is(entity.RoleClient) {
		for col := range updates {
			if col != "hbl_acid" {
				return nil, forbidden("clients may only update hbl_acid, not %s", col)
			}
		}
	}
	if shipment.IsDelivered() {
		return nil, terminalState("shipment", shipment.Status, "", "shipment %s is delivered; details can no longer be changed", shipment.TrackingNumber)
	}

	ok, err := s.repo.UpdateFields(ctx, id, updates)
	if err != nil {
		return nil, dependency("update shipment", err)
	}
	if !ok {
		return nil, terminalState("shipment", entity.ShipmentStatusDelivered, "", "shipment %s was delivered concurrently; details can no longer be changed", shipment.TrackingNumber)
	}

	updated, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, dependency("reload shipment", err)
	}

	cols := make([]string, 0, len(updates))
	for col := range updates {
		cols = append(cols, col)
	}
	s.fx.logActivity(ctx, actor, entity.EntityTypeShipment, updated.ID, updated.TrackingNumber,
		entity.ActionUpdate, "", "", "Updated fields: "+strings.Join(cols, ", "))
	return updated, nil
}

// AttachDocument 上传文件并追加到运单文件列表
func (s *ShipmentService) AttachDocument(ctx context.Context, actor Actor, id, fileName, contentType, docType string, r io.Reader, size int64) (*entity.Shipment, error) {
	if err := actor.requireRole("upload shipment documents", entity.RoleOperations, entity.RoleClient); err != nil {
		return nil, err
	}
	if s.files == nil {
		return nil, dependency("upload document", errors.New("file storage is not configured"))
	}
	shipment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, dependency("load shipment", err)
	}
	if err := checkShipmentVisible(actor, shipment); err != nil {
		return nil, err
	}

	objectName := fmt.Sprintf("shipments/%s/%s_%s", shipment.ID, uuid.New().String()[:8], path.Base(fileName))
	url, err := s.files.Upload(ctx, objectName, contentType, r, size)
	if err != nil {
		return nil, dependency("upload document", err)
	}

	docs := append(entity.Documents{}, shipment.DocumentURLs...)
	docs = append(docs, entity.DocumentRef{
		Name:       fileName,
		URL:        url,
		Type:       docType,
		UploadedBy: actor.Email,
		UploadedAt: time.Now(),
	})
	if err := s.repo.SetDocuments(ctx, shipment.ID, docs); err != nil {
		return nil, dependency("save document list", err)
	}

	updated := *shipment
	updated.DocumentURLs = docs
	s.fx.logActivity(ctx, actor, entity.EntityTypeShipment, updated.ID, updated.TrackingNumber,
		entity.ActionUploadDoc, "", "", "Uploaded "+fileName)
	return &updated, nil
}

// Delete 管理员删除运单
func (s *ShipmentService) Delete(ctx context.Context, actor Actor, id string) error {
	if err := actor.validate(); err != nil {
		return err
	}
	if !actor.IsAdmin() {
		return forbidden("only admins can delete shipments")
	}
	shipment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return dependency("load shipment", err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return dependency("delete shipment", err)
	}
	s.fx.logActivity(ctx, actor, entity.EntityTypeShipment, shipment.ID, shipment.TrackingNumber,
		entity.ActionDelete, shipment.Status, "", "Shipment deleted by admin override")
	return nil
}

func checkShipmentVisible(actor Actor, shipment *entity.Shipment) error {
	if err := actor.validate(); err != nil {
		return err
	}
	if actor.Is(entity.RoleClient) && !actor.Owns(shipment.ClientEmail) {
		return forbidden("shipment %s belongs to another client", shipment.TrackingNumber)
	}
	return nil
}
