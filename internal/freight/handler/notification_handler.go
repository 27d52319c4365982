package handler

import (
	"github.com/AbdelazizAhmedMohamedAhmed/tact-freight-platform-sub000/internal/freight/service"
	"github.com/gin-gonic/gin"
)

// NotificationHandler 站内通知处理器
type NotificationHandler struct {
	svc *service.NotificationService
}

func NewNotificationHandler(svc *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

// List GET /api/v1/notifications?unread=true
func (h *NotificationHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	unreadOnly := c.Query("unread") == "true"

	items, total, err := h.svc.List(c.Request.Context(), GetActor(c), unreadOnly, page, pageSize)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, listResponse(items, page, pageSize, total))
}

// MarkRead PUT /api/v1/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	if err := h.svc.MarkRead(c.Request.Context(), GetActor(c), c.Param("id")); err != nil {
		HandleError(c, err)
		return
	}
	Success(c, nil)
}

// GetPreferences GET /api/v1/notification-preferences
func (h *NotificationHandler) GetPreferences(c *gin.Context) {
	pref, err := h.svc.GetPreference(c.Request.Context(), GetActor(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, pref)
}

// UpdatePreferences PUT /api/v1/notification-preferences
func (h *NotificationHandler) UpdatePreferences(c *gin.Context) {
	var req service.UpdatePreferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	pref, err := h.svc.UpdatePreference(c.Request.Context(), GetActor(c), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, pref)
}
