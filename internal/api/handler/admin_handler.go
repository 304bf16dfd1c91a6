package handler

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Cyoyuu/UMass-SmartDine-Finder/internal/dto"
	"github.com/Cyoyuu/UMass-SmartDine-Finder/internal/service"
	apperrors "github.com/Cyoyuu/UMass-SmartDine-Finder/pkg/errors"
	"github.com/Cyoyuu/UMass-SmartDine-Finder/pkg/response"
)

// AdminHandler 管理员维护食堂数据与菜单缓存
type AdminHandler struct {
	menuSvc service.MenuService
	catalog service.MenuCatalog
}

// NewAdminHandler 创建 AdminHandler
func NewAdminHandler(menuSvc service.MenuService, catalog service.MenuCatalog) *AdminHandler {
	return &AdminHandler{menuSvc: menuSvc, catalog: catalog}
}

// UpsertHall 新增或更新食堂
// PUT /api/v1/admin/halls
func (h *AdminHandler) UpsertHall(c *gin.Context) {
	var req dto.UpsertHallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	operatorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	hall, created, err := h.menuSvc.UpsertHall(c.Request.Context(), operatorID, &req)
	if err != nil {
		h.handleAdminError(c, err)
		return
	}

	if created {
		response.Created(c, hall)
		return
	}
	response.OK(c, hall)
}

// DeleteHall 删除食堂
// DELETE /api/v1/admin/halls/:name
func (h *AdminHandler) DeleteHall(c *gin.Context) {
	if err := h.menuSvc.DeleteHall(c.Request.Context(), c.Param("name")); err != nil {
		h.handleAdminError(c, err)
		return
	}

	response.OK(c, nil)
}

// RefreshCache 跳过缓存立即从数据库重建菜单快照
// POST /api/v1/admin/cache/refresh
func (h *AdminHandler) RefreshCache(c *gin.Context) {
	snap, err := h.catalog.Refresh(c.Request.Context())
	if err != nil {
		handleCommonError(c, err)
		return
	}

	response.OK(c, toCacheStatus(snap))
}

// CacheStatus 当前菜单快照概况
// GET /api/v1/admin/cache
func (h *AdminHandler) CacheStatus(c *gin.Context) {
	snap, err := h.catalog.Snapshot(c.Request.Context())
	if err != nil {
		handleCommonError(c, err)
		return
	}

	response.OK(c, toCacheStatus(snap))
}

func toCacheStatus(s *service.MenuSnapshot) dto.CacheStatusResponse {
	return dto.CacheStatusResponse{
		Halls:    len(s.Halls),
		LoadedAt: s.LoadedAt.Format(time.RFC3339),
	}
}

func (h *AdminHandler) handleAdminError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidHours):
		response.BadRequest(c, 13002, err.Error())
	case errors.Is(err, service.ErrInvalidMealKey):
		response.BadRequest(c, 13003, err.Error())
	case errors.Is(err, service.ErrInvalidMeals):
		response.BadRequest(c, 13004, err.Error())
	case errors.Is(err, apperrors.ErrOptimisticLock):
		response.Conflict(c, 13005, err.Error())
	default:
		handleCommonError(c, err)
	}
}
