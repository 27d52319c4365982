package handler

import (
	"github.com/AbdelazizAhmedMohamedAhmed/tact-freight-platform-sub000/internal/freight/service"
	"github.com/gin-gonic/gin"
)

// ActivityHandler 操作日志处理器
type ActivityHandler struct {
	svc *service.ActivityService
}

func NewActivityHandler(svc *service.ActivityService) *ActivityHandler {
	return &ActivityHandler{svc: svc}
}

// List GET /api/v1/activity-logs?entity_type=shipment&entity_id=xxx
func (h *ActivityHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)

	items, total, err := h.svc.ListByEntity(c.Request.Context(), GetActor(c), c.Query("entity_type"), c.Query("entity_id"), page, pageSize)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, listResponse(items, page, pageSize, total))
}
