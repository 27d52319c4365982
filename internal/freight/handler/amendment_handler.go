package handler

import (
	"github.com/AbdelazizAhmedMohamedAhmed/tact-freight-platform-sub000/internal/freight/service"
	"github.com/gin-gonic/gin"
)

// AmendmentHandler 运单修改申请处理器
type AmendmentHandler struct {
	svc *service.AmendmentService
}

func NewAmendmentHandler(svc *service.AmendmentService) *AmendmentHandler {
	return &AmendmentHandler{svc: svc}
}

// Create 客户提交修改申请
// POST /api/v1/shipments/:id/amendments
func (h *AmendmentHandler) Create(c *gin.Context) {
	var req service.CreateAmendmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	amd, err := h.svc.Create(c.Request.Context(), GetActor(c), c.Param("id"), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, amd)
}

// ListByShipment GET /api/v1/shipments/:id/amendments
func (h *AmendmentHandler) ListByShipment(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := queryFilters(c, "status")
	filters["shipment_id"] = c.Param("id")

	items, total, err := h.svc.List(c.Request.Context(), GetActor(c), page, pageSize, filters)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, listResponse(items, page, pageSize, total))
}

// List GET /api/v1/amendments?status=&shipment_id=
func (h *AmendmentHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)

	items, total, err := h.svc.List(c.Request.Context(), GetActor(c), page, pageSize, queryFilters(c, "status", "shipment_id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, listResponse(items, page, pageSize, total))
}

func (h *AmendmentHandler) Get(c *gin.Context) {
	amd, err := h.svc.Get(c.Request.Context(), GetActor(c), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, amd)
}

// Resolve 运营批准或驳回
// POST /api/v1/amendments/:id/resolve
func (h *AmendmentHandler) Resolve(c *gin.Context) {
	var req service.ResolveAmendmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	amd, err := h.svc.Resolve(c.Request.Context(), GetActor(c), c.Param("id"), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, amd)
}
