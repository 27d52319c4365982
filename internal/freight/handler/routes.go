package handler

import (
	"github.com/AbdelazizAhmedMohamedAhmed/tact-freight-platform-sub000/internal/freight/entity"
	"github.com/AbdelazizAhmedMohamedAhmed/tact-freight-platform-sub000/internal/middleware"
	"github.com/casbin/casbin/v2"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes 注册货运门户接口，api 组需已挂载 JWTAuth
func (h *Handlers) RegisterRoutes(api *gin.RouterGroup, e *casbin.Enforcer) {
	authz := func(obj, act string) gin.HandlerFunc {
		return middleware.Authorize(e, obj, act)
	}

	// 询价单
	rfqs := api.Group("/rfqs")
	{
		rfqs.POST("", authz("rfq", "create"), h.RFQ.Create)
		rfqs.GET("", authz("rfq", "read"), h.RFQ.List)
		rfqs.GET("/:id", authz("rfq", "read"), h.RFQ.Get)
		rfqs.PUT("/:id/notes", authz("rfq", "notes"), h.RFQ.UpdateNotes)
		rfqs.POST("/:id/transition", authz("rfq", "transition"), h.RFQ.Transition)
		rfqs.POST("/:id/override", authz("rfq", "override"), h.RFQ.Override)
	}

	// 运单
	shipments := api.Group("/shipments")
	{
		shipments.POST("", authz("shipment", "create"), h.Shipment.Create)
		shipments.GET("", authz("shipment", "read"), h.Shipment.List)
		shipments.GET("/export", authz("shipment", "export"), h.Shipment.Export)
		shipments.GET("/tracking/:number", authz("shipment", "read"), h.Shipment.GetByTracking)
		shipments.GET("/:id", authz("shipment", "read"), h.Shipment.Get)
		shipments.GET("/:id/history", authz("shipment", "read"), h.Shipment.History)
		shipments.GET("/:id/next-statuses", authz("shipment", "read"), h.Shipment.NextStatuses)
		shipments.PUT("/:id", authz("shipment", "update"), h.Shipment.Update)
		shipments.POST("/:id/advance", authz("shipment", "advance"), h.Shipment.Advance)
		shipments.POST("/:id/force-status", authz("shipment", "force"), h.Shipment.ForceStatus)
		shipments.POST("/:id/documents", authz("shipment", "document"), h.Shipment.UploadDocument)
		shipments.DELETE("/:id", authz("shipment", "delete"), h.Shipment.Delete)

		shipments.GET("/:id/amendments", authz("amendment", "read"), h.Amendment.ListByShipment)
		shipments.POST("/:id/amendments", authz("amendment", "create"), h.Amendment.Create)
	}

	// 修改申请
	amendments := api.Group("/amendments")
	{
		amendments.GET("", authz("amendment", "read"), h.Amendment.List)
		amendments.GET("/:id", authz("amendment", "read"), h.Amendment.Get)
		amendments.POST("/:id/resolve", authz("amendment", "resolve"), h.Amendment.Resolve)
	}

	// 通知
	api.GET("/notifications", authz("notification", "read"), h.Notification.List)
	api.PUT("/notifications/:id/read", authz("notification", "update"), h.Notification.MarkRead)
	api.GET("/notification-preferences", authz("notification", "read"), h.Notification.GetPreferences)
	api.PUT("/notification-preferences", authz("notification", "update"), h.Notification.UpdatePreferences)

	api.GET("/activity-logs", authz("activity", "read"), h.Activity.List)
	// 实时推送，仅限门户角色
	api.GET("/events", middleware.RequireRole(entity.RoleClient, entity.RoleSales, entity.RolePricing, entity.RoleOperations), h.SSE.Stream)
}
