package repository

import (
	"context"
	"errors"
	"time"

	"github.com/AbdelazizAhmedMohamedAhmed/tact-freight-platform-sub000/internal/freight/entity"
	"gorm.io/gorm"
)

// RFQRepository 询价单仓库
type RFQRepository struct {
	db  *gorm.DB
	rnd randomDigits
}

func NewRFQRepository(db *gorm.DB) *RFQRepository {
	return &RFQRepository{db: db}
}

// WithTx 返回绑定到事务的仓库
func (r *RFQRepository) WithTx(tx *gorm.DB) *RFQRepository {
	return &RFQRepository{db: tx, rnd: r.rnd}
}

// FindAll 查询询价单列表
func (r *RFQRepository) FindAll(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.RFQ, int64, error) {
	var items []entity.RFQ
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.RFQ{})

	if status := filters["status"]; status != "" {
		query = query.Where("status IN ?", entity.RFQStatusStoredValues(entity.NormalizeRFQStatus(status)))
	}
	if email := filters["client_email"]; email != "" {
		query = query.Where("client_email = ?", email)
	}
	if mode := filters["mode"]; mode != "" {
		query = query.Where("mode = ?", mode)
	}
	if search := filters["search"]; search != "" {
		like := "%" + search + "%"
		query = query.Where("reference LIKE ? OR company_name LIKE ? OR origin LIKE ? OR destination LIKE ?", like, like, like, like)
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

// FindByID 根据ID查找询价单
func (r *RFQRepository) FindByID(ctx context.Context, id string) (*entity.RFQ, error) {
	var rfq entity.RFQ
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&rfq).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rfq, nil
}

// FindByReference 根据编号查找询价单
func (r *RFQRepository) FindByReference(ctx context.Context, reference string) (*entity.RFQ, error) {
	var rfq entity.RFQ
	err := r.db.WithContext(ctx).Where("reference = ?", reference).First(&rfq).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rfq, nil
}

// Create 创建询价单
func (r *RFQRepository) Create(ctx context.Context, rfq *entity.RFQ) error {
	return r.db.WithContext(ctx).Create(rfq).Error
}

// UpdateFields 更新非状态字段
func (r *RFQRepository) UpdateFields(ctx context.Context, id string, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&entity.RFQ{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CompareAndSetStatus 仅当当前状态仍为 fromStatus（含旧名）时写入，返回是否写入成功
func (r *RFQRepository) CompareAndSetStatus(ctx context.Context, id, fromStatus string, updates map[string]interface{}) (bool, error) {
	result := r.db.WithContext(ctx).Model(&entity.RFQ{}).
		Where("id = ? AND status IN ?", id, entity.RFQStatusStoredValues(fromStatus)).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// ReferenceExists 编号是否已被占用
func (r *RFQRepository) ReferenceExists(ctx context.Context, reference string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.RFQ{}).Where("reference = ?", reference).Count(&count).Error
	return count > 0, err
}

// GenerateReference 生成询价单编号 RFQ-{year}-{5位随机}
func (r *RFQRepository) GenerateReference(ctx context.Context) (string, error) {
	now := time.Now()
	return generateUnique(ctx, r.rnd, func(n int) string {
		return FormatRFQReference(now, n)
	}, r.ReferenceExists)
}
