package handler

import (
	"github.com/AbdelazizAhmedMohamedAhmed/tact-freight-platform-sub000/internal/freight/service"
	"github.com/gin-gonic/gin"
)

// ShipmentHandler 运单处理器
type ShipmentHandler struct {
	svc *service.ShipmentService
}

func NewShipmentHandler(svc *service.ShipmentService) *ShipmentHandler {
	return &ShipmentHandler{svc: svc}
}

var shipmentFilterKeys = []string{"status", "mode", "search", "client_email", "rfq_id"}

// Create 运营直接创建运单
// POST /api/v1/shipments
func (h *ShipmentHandler) Create(c *gin.Context) {
	var req service.CreateShipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	shipment, err := h.svc.Create(c.Request.Context(), GetActor(c), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, shipment)
}

// List GET /api/v1/shipments
func (h *ShipmentHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)

	items, total, err := h.svc.List(c.Request.Context(), GetActor(c), page, pageSize, queryFilters(c, shipmentFilterKeys...))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, listResponse(items, page, pageSize, total))
}

func (h *ShipmentHandler) Get(c *gin.Context) {
	shipment, err := h.svc.Get(c.Request.Context(), GetActor(c), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, shipment)
}

// GetByTracking GET /api/v1/shipments/tracking/:number
func (h *ShipmentHandler) GetByTracking(c *gin.Context) {
	shipment, err := h.svc.GetByTracking(c.Request.Context(), GetActor(c), c.Param("number"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, shipment)
}

// NextStatuses 当前可推进的下一个状态
// GET /api/v1/shipments/:id/next-statuses
func (h *ShipmentHandler) NextStatuses(c *gin.Context) {
	statuses, err := h.svc.NextStatuses(c.Request.Context(), GetActor(c), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, gin.H{"statuses": statuses})
}

// History GET /api/v1/shipments/:id/history
func (h *ShipmentHandler) History(c *gin.Context) {
	history, err := h.svc.History(c.Request.Context(), GetActor(c), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, gin.H{"items": history})
}

// Update 修改运单详情（不含状态）
// PUT /api/v1/shipments/:id
func (h *ShipmentHandler) Update(c *gin.Context) {
	var patch service.ShipmentPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	shipment, err := h.svc.UpdateDetails(c.Request.Context(), GetActor(c), c.Param("id"), &patch)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, shipment)
}

// StatusRequest 状态推进请求
type StatusRequest struct {
	Status string `json:"status" binding:"required"`
	Note   string `json:"note"`
}

// Advance 按顺序推进到下一状态
// POST /api/v1/shipments/:id/advance
func (h *ShipmentHandler) Advance(c *gin.Context) {
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	shipment, err := h.svc.Advance(c.Request.Context(), GetActor(c), c.Param("id"), req.Status, req.Note)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, shipment)
}

// ForceStatus 管理员跳级设置状态
// POST /api/v1/shipments/:id/force-status
func (h *ShipmentHandler) ForceStatus(c *gin.Context) {
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	shipment, err := h.svc.ForceSetStatus(c.Request.Context(), GetActor(c), c.Param("id"), req.Status, req.Note)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, shipment)
}

// UploadDocument 上传运单文件，表单字段 file（或 files 的第一个）+ document_type
// POST /api/v1/shipments/:id/documents
func (h *ShipmentHandler) UploadDocument(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		BadRequest(c, "Invalid upload: "+err.Error())
		return
	}

	files := form.File["file"]
	if len(files) == 0 {
		files = form.File["files"]
	}
	if len(files) == 0 {
		BadRequest(c, "No file uploaded")
		return
	}
	fileHeader := files[0]

	src, err := fileHeader.Open()
	if err != nil {
		InternalError(c, "Failed to read upload: "+err.Error())
		return
	}
	defer src.Close()

	shipment, err := h.svc.AttachDocument(c.Request.Context(), GetActor(c), c.Param("id"),
		fileHeader.Filename, fileHeader.Header.Get("Content-Type"), c.PostForm("document_type"),
		src, fileHeader.Size)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, shipment)
}

// Delete DELETE /api/v1/shipments/:id
func (h *ShipmentHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), GetActor(c), c.Param("id")); err != nil {
		HandleError(c, err)
		return
	}
	Success(c, nil)
}

// Export 导出运单 Excel
// GET /api/v1/shipments/export
func (h *ShipmentHandler) Export(c *gin.Context) {
	f, filename, err := h.svc.ExportShipments(c.Request.Context(), GetActor(c), queryFilters(c, shipmentFilterKeys...))
	if err != nil {
		HandleError(c, err)
		return
	}
	defer f.Close()

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	c.Header("Content-Transfer-Encoding", "binary")

	if err := f.Write(c.Writer); err != nil {
		InternalError(c, "write excel: "+err.Error())
	}
}
