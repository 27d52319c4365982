package handler

import (
	"github.com/AbdelazizAhmedMohamedAhmed/tact-freight-platform-sub000/internal/freight/service"
	"github.com/gin-gonic/gin"
)

// RFQHandler 询价单处理器
type RFQHandler struct {
	svc *service.RFQService
}

func NewRFQHandler(svc *service.RFQService) *RFQHandler {
	return &RFQHandler{svc: svc}
}

// Create 提交询价
// POST /api/v1/rfqs
func (h *RFQHandler) Create(c *gin.Context) {
	var req service.CreateRFQRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	rfq, err := h.svc.Create(c.Request.Context(), GetActor(c), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, rfq)
}

// List 询价单列表，客户只能看到自己的
// GET /api/v1/rfqs?status=&mode=&search=&client_email=
func (h *RFQHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := queryFilters(c, "status", "mode", "search", "client_email")

	items, total, err := h.svc.List(c.Request.Context(), GetActor(c), page, pageSize, filters)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, listResponse(items, page, pageSize, total))
}

func (h *RFQHandler) Get(c *gin.Context) {
	rfq, err := h.svc.Get(c.Request.Context(), GetActor(c), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, rfq)
}

// UpdateNotes 销售/定价内部备注
// PUT /api/v1/rfqs/:id/notes
func (h *RFQHandler) UpdateNotes(c *gin.Context) {
	var req service.UpdateNotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	rfq, err := h.svc.UpdateNotes(c.Request.Context(), GetActor(c), c.Param("id"), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, rfq)
}

// Transition 状态流转；客户接受报价时响应里带回生成的运单
// POST /api/v1/rfqs/:id/transition
func (h *RFQHandler) Transition(c *gin.Context) {
	var req service.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	result, err := h.svc.Transition(c.Request.Context(), GetActor(c), c.Param("id"), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, result)
}

// OverrideStatusRequest 管理员强制设置状态
type OverrideStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Note   string `json:"note"`
}

// Override 管理员越过规则表设置状态
// POST /api/v1/rfqs/:id/override
func (h *RFQHandler) Override(c *gin.Context) {
	var req OverrideStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	rfq, err := h.svc.OverrideStatus(c.Request.Context(), GetActor(c), c.Param("id"), req.Status, req.Note)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, rfq)
}
