package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/Cyoyuu/UMass-SmartDine-Finder/internal/dto"
	"github.com/Cyoyuu/UMass-SmartDine-Finder/internal/service"
	"github.com/Cyoyuu/UMass-SmartDine-Finder/pkg/response"
)

// HistoryHandler 就餐记录 HTTP 处理器
type HistoryHandler struct {
	historySvc service.MealHistoryService
}

// NewHistoryHandler 创建 HistoryHandler
func NewHistoryHandler(historySvc service.MealHistoryService) *HistoryHandler {
	return &HistoryHandler{historySvc: historySvc}
}

// Record 记录一次就餐
// POST /api/v1/history
func (h *HistoryHandler) Record(c *gin.Context) {
	var req dto.RecordMealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	record, err := h.historySvc.Record(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleHistoryError(c, err)
		return
	}

	response.OK(c, record)
}

// List 我的就餐记录
// GET /api/v1/history?from=2024-09-01&to=2024-09-30&page=1
func (h *HistoryHandler) List(c *gin.Context) {
	var q dto.MealHistoryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.historySvc.List(c.Request.Context(), userID, &q)
	if err != nil {
		h.handleHistoryError(c, err)
		return
	}

	response.OKPage(c, result.List, result.Total, result.Page, result.PageSize)
}

// Delete 删除一条就餐记录
// DELETE /api/v1/history/:id
func (h *HistoryHandler) Delete(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.historySvc.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		h.handleHistoryError(c, err)
		return
	}

	response.OK(c, nil)
}

func (h *HistoryHandler) handleHistoryError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidMealDate):
		response.BadRequest(c, 16001, err.Error())
	case errors.Is(err, service.ErrMealDateInFuture):
		response.BadRequest(c, 16002, err.Error())
	case errors.Is(err, service.ErrItemNotOnMenu):
		response.BadRequest(c, 16003, err.Error())
	case errors.Is(err, service.ErrMealHistoryMissing):
		response.NotFound(c, 16004, err.Error())
	case errors.Is(err, service.ErrInvalidMealKey):
		response.BadRequest(c, 13003, err.Error())
	default:
		handleCommonError(c, err)
	}
}
