package repository

import (
	"context"
	"errors"
	"time"

	"github.com/AbdelazizAhmedMohamedAhmed/tact-freight-platform-sub000/internal/freight/entity"
	"gorm.io/gorm"
)

// ShipmentRepository 运单仓库
type ShipmentRepository struct {
	db  *gorm.DB
	rnd randomDigits
}

func NewShipmentRepository(db *gorm.DB) *ShipmentRepository {
	return &ShipmentRepository{db: db}
}

// WithTx 返回绑定到事务的仓库
func (r *ShipmentRepository) WithTx(tx *gorm.DB) *ShipmentRepository {
	return &ShipmentRepository{db: tx, rnd: r.rnd}
}

func applyShipmentFilters(query *gorm.DB, filters map[string]string) *gorm.DB {
	if status := filters["status"]; status != "" {
		query = query.Where("status = ?", status)
	}
	if email := filters["client_email"]; email != "" {
		query = query.Where("client_email = ?", email)
	}
	if mode := filters["mode"]; mode != "" {
		query = query.Where("mode = ?", mode)
	}
	if rfqID := filters["rfq_id"]; rfqID != "" {
		query = query.Where("rfq_id = ?", rfqID)
	}
	if search := filters["search"]; search != "" {
		like := "%" + search + "%"
		query = query.Where("tracking_number LIKE ? OR company_name LIKE ? OR origin LIKE ? OR destination LIKE ?", like, like, like, like)
	}
	return query
}

// FindAll 查询运单列表
func (r *ShipmentRepository) FindAll(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Shipment, int64, error) {
	var items []entity.Shipment
	var total int64

	query := applyShipmentFilters(r.db.WithContext(ctx).Model(&entity.Shipment{}), filters)

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

// FindForExport 导出用，不分页
func (r *ShipmentRepository) FindForExport(ctx context.Context, filters map[string]string) ([]entity.Shipment, error) {
	var items []entity.Shipment
	err := applyShipmentFilters(r.db.WithContext(ctx).Model(&entity.Shipment{}), filters).
		Order("created_at DESC").
		Find(&items).Error
	return items, err
}

// FindByID 根据ID查找运单
func (r *ShipmentRepository) FindByID(ctx context.Context, id string) (*entity.Shipment, error) {
	var shipment entity.Shipment
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&shipment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &shipment, nil
}

// FindByTrackingNumber 根据运单号查找
func (r *ShipmentRepository) FindByTrackingNumber(ctx context.Context, trackingNumber string) (*entity.Shipment, error) {
	var shipment entity.Shipment
	err := r.db.WithContext(ctx).Where("tracking_number = ?", trackingNumber).First(&shipment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &shipment, nil
}

// FindByRFQID 查找询价单派生的运单，不存在时返回 nil, nil
func (r *ShipmentRepository) FindByRFQID(ctx context.Context, rfqID string) (*entity.Shipment, error) {
	var shipment entity.Shipment
	err := r.db.WithContext(ctx).Where("rfq_id = ?", rfqID).First(&shipment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &shipment, nil
}

// Create 创建运单
func (r *ShipmentRepository) Create(ctx context.Context, shipment *entity.Shipment) error {
	return r.db.WithContext(ctx).Create(shipment).Error
}

// UpdateFields 更新非状态字段，已签收的运单不更新
func (r *ShipmentRepository) UpdateFields(ctx context.Context, id string, updates map[string]interface{}) (bool, error) {
	result := r.db.WithContext(ctx).Model(&entity.Shipment{}).
		Where("id = ? AND status <> ?", id, entity.ShipmentStatusDelivered).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// SetDocuments 覆盖文件列表
func (r *ShipmentRepository) SetDocuments(ctx context.Context, id string, docs entity.Documents) error {
	result := r.db.WithContext(ctx).Model(&entity.Shipment{}).Where("id = ?", id).Update("document_urls", docs)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CompareAndSetStatus 状态与历史在同一条 UPDATE 中写入，仅当当前状态仍为 fromStatus 时成功
func (r *ShipmentRepository) CompareAndSetStatus(ctx context.Context, id, fromStatus, toStatus string, history entity.StatusHistory) (bool, error) {
	result := r.db.WithContext(ctx).Model(&entity.Shipment{}).
		Where("id = ? AND status = ?", id, fromStatus).
		Updates(map[string]interface{}{
			"status":         toStatus,
			"status_history": history,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// ApplyFieldPatch 只写一个列，不触碰 updated_at 等其他字段；已签收的运单不更新
func (r *ShipmentRepository) ApplyFieldPatch(ctx context.Context, id, column string, value interface{}) (bool, error) {
	result := r.db.WithContext(ctx).Model(&entity.Shipment{}).
		Where("id = ? AND status <> ?", id, entity.ShipmentStatusDelivered).
		UpdateColumn(column, value)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// Delete 删除运单（仅管理员）
func (r *ShipmentRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.Shipment{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// TrackingNumberExists 运单号是否已被占用
func (r *ShipmentRepository) TrackingNumberExists(ctx context.Context, trackingNumber string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Shipment{}).Where("tracking_number = ?", trackingNumber).Count(&count).Error
	return count > 0, err
}

// GenerateTrackingNumber 生成运单号 TF-{yy}-{5位随机}
func (r *ShipmentRepository) GenerateTrackingNumber(ctx context.Context) (string, error) {
	now := time.Now()
	return generateUnique(ctx, r.rnd, func(n int) string {
		return FormatTrackingNumber(now, n)
	}, r.TrackingNumberExists)
}
