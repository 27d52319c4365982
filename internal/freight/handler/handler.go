package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/AbdelazizAhmedMohamedAhmed/tact-freight-platform-sub000/internal/freight/repository"
	"github.com/AbdelazizAhmedMohamedAhmed/tact-freight-platform-sub000/internal/freight/service"
	"github.com/AbdelazizAhmedMohamedAhmed/tact-freight-platform-sub000/internal/freight/sse"
	"github.com/gin-gonic/gin"
)

// Handlers 处理器集合
type Handlers struct {
	RFQ          *RFQHandler
	Shipment     *ShipmentHandler
	Amendment    *AmendmentHandler
	Notification *NotificationHandler
	Activity     *ActivityHandler
	SSE          *SSEHandler
}

// NewHandlers 创建处理器集合
func NewHandlers(svc *service.Services, hub *sse.Hub) *Handlers {
	return &Handlers{
		RFQ:          NewRFQHandler(svc.RFQ),
		Shipment:     NewShipmentHandler(svc.Shipment),
		Amendment:    NewAmendmentHandler(svc.Amendment),
		Notification: NewNotificationHandler(svc.Notification),
		Activity:     NewActivityHandler(svc.Activity),
		SSE:          NewSSEHandler(hub),
	}
}

// Response 通用响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ListResponse 列表响应结构
type ListResponse struct {
	Items      interface{} `json:"items"`
	Pagination *Pagination `json:"pagination"`
}

// Pagination 分页信息
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Created 创建成功响应
func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error 错误响应
func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
	})
}

// BadRequest 参数错误响应
func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

// Unauthorized 未授权响应
func Unauthorized(c *gin.Context, message string) {
	Error(c, 40100, message)
}

// Forbidden 禁止访问响应
func Forbidden(c *gin.Context, message string) {
	Error(c, 40300, message)
}

// NotFound 资源不存在响应
func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

// InternalError 服务器错误响应
func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// 业务错误码
const (
	CodeInvalidTransition  = 40000
	CodeMissingField       = 40001
	CodeInvalidInput       = 40002
	CodeNotFound           = 40400
	CodeForbidden          = 40300
	CodeTerminalState      = 40900
	CodeDuplicateSynthesis = 40901
	CodeDependencyFailure  = 50200
)

// HandleError 把服务层错误映射为响应码
func HandleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		NotFound(c, err.Error())
	case errors.Is(err, service.ErrForbidden):
		Error(c, CodeForbidden, err.Error())
	case errors.Is(err, service.ErrTerminalState):
		Error(c, CodeTerminalState, err.Error())
	case errors.Is(err, service.ErrDuplicateSynthesis):
		Error(c, CodeDuplicateSynthesis, err.Error())
	case errors.Is(err, service.ErrInvalidTransition):
		Error(c, CodeInvalidTransition, err.Error())
	case errors.Is(err, service.ErrMissingRequiredField):
		Error(c, CodeMissingField, err.Error())
	case errors.Is(err, service.ErrInvalidInput):
		Error(c, CodeInvalidInput, err.Error())
	case errors.Is(err, service.ErrDependencyFailure):
		Error(c, CodeDependencyFailure, err.Error())
	default:
		InternalError(c, err.Error())
	}
}

// GetActor 从 JWT 上下文构造操作人
func GetActor(c *gin.Context) service.Actor {
	return service.Actor{
		Email: contextString(c, "user_email"),
		Name:  contextString(c, "user_name"),
		Role:  contextString(c, "user_role"),
	}
}

func contextString(c *gin.Context, key string) string {
	v, _ := c.Get(key)
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// GetPagination 从请求获取分页参数
func GetPagination(c *gin.Context) (page, pageSize int) {
	page = 1
	pageSize = 20

	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}

	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v
		}
	}

	return page, pageSize
}

// queryFilters 收集非空的查询参数
func queryFilters(c *gin.Context, keys ...string) map[string]string {
	filters := map[string]string{}
	for _, k := range keys {
		if v := strings.TrimSpace(c.Query(k)); v != "" {
			filters[k] = v
		}
	}
	return filters
}

func listResponse(items interface{}, page, pageSize int, total int64) ListResponse {
	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}
	return ListResponse{
		Items: items,
		Pagination: &Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      int(total),
			TotalPages: totalPages,
		},
	}
}
