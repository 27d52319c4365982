package service

import (
	"context"

	"github.com/AbdelazizAhmedMohamedAhmed/tact-freight-platform-sub000/internal/freight/entity"
	"github.com/AbdelazizAhmedMohamedAhmed/tact-freight-platform-sub000/internal/freight/repository"
)

// ActivityService 操作日志查询
type ActivityService struct {
	repo *repository.ActivityLogRepository
}

func NewActivityService(repo *repository.ActivityLogRepository) *ActivityService {
	return &ActivityService{repo: repo}
}

// ListByEntity 查询某实体的操作日志，客户无权查看
func (s *ActivityService) ListByEntity(ctx context.Context, actor Actor, entityType, entityID string, page, pageSize int) ([]entity.ActivityLog, int64, error) {
	if err := actor.requireRole("view activity logs", entity.RoleSales, entity.RolePricing, entity.RoleOperations); err != nil {
		return nil, 0, err
	}
	switch entityType {
	case entity.EntityTypeRFQ, entity.EntityTypeShipment, entity.EntityTypeAmendment:
	default:
		return nil, 0, invalidInput("entity_type must be rfq, shipment or amendment")
	}
	if entityID == "" {
		return nil, 0, invalidInput("entity_id is required")
	}
	items, total, err := s.repo.FindByEntity(ctx, entityType, entityID, page, pageSize)
	if err != nil {
		return nil, 0, dependency("list activity logs", err)
	}
	return items, total, nil
}
