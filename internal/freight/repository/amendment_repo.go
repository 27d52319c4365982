package repository

import (
	"context"
	"errors"
	"time"

	"github.com/AbdelazizAhmedMohamedAhmed/tact-freight-platform-sub000/internal/freight/entity"
	"gorm.io/gorm"
)

// AmendmentRepository 运单修改申请仓库
type AmendmentRepository struct {
	db  *gorm.DB
	rnd randomDigits
}

func NewAmendmentRepository(db *gorm.DB) *AmendmentRepository {
	return &AmendmentRepository{db: db}
}

// WithTx 返回绑定到事务的仓库
func (r *AmendmentRepository) WithTx(tx *gorm.DB) *AmendmentRepository {
	return &AmendmentRepository{db: tx, rnd: r.rnd}
}

// FindAll 查询修改申请列表
func (r *AmendmentRepository) FindAll(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.ShipmentAmendment, int64, error) {
	var items []entity.ShipmentAmendment
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.ShipmentAmendment{})

	if shipmentID := filters["shipment_id"]; shipmentID != "" {
		query = query.Where("shipment_id = ?", shipmentID)
	}
	if status := filters["status"]; status != "" {
		query = query.Where("status = ?", status)
	}
	if requestedBy := filters["requested_by"]; requestedBy != "" {
		query = query.Where("requested_by = ?", requestedBy)
	}

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

// FindByID 根据ID查找修改申请
func (r *AmendmentRepository) FindByID(ctx context.Context, id string) (*entity.ShipmentAmendment, error) {
	var amd entity.ShipmentAmendment
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&amd).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &amd, nil
}

// Create 创建修改申请
func (r *AmendmentRepository) Create(ctx context.Context, amd *entity.ShipmentAmendment) error {
	return r.db.WithContext(ctx).Create(amd).Error
}

// Resolve 仅当申请仍为 pending 时写入处理结果，返回是否写入成功
func (r *AmendmentRepository) Resolve(ctx context.Context, id string, updates map[string]interface{}) (bool, error) {
	result := r.db.WithContext(ctx).Model(&entity.ShipmentAmendment{}).
		Where("id = ? AND status = ?", id, entity.AmendmentStatusPending).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// CodeExists 申请编码是否已被占用
func (r *AmendmentRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.ShipmentAmendment{}).Where("code = ?", code).Count(&count).Error
	return count > 0, err
}

// GenerateCode 生成修改申请编码 AMD-{yyyy}-{5位}
func (r *AmendmentRepository) GenerateCode(ctx context.Context) (string, error) {
	now := time.Now()
	return generateUnique(ctx, r.rnd, func(n int) string {
		return FormatAmendmentCode(now, n)
	}, r.CodeExists)
}
