package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Cyoyuu/UMass-SmartDine-Finder/internal/service"
	"github.com/Cyoyuu/UMass-SmartDine-Finder/pkg/response"
)

// MenuHandler 食堂 / 菜单 HTTP 处理器
type MenuHandler struct {
	menuSvc     service.MenuService
	calendarSvc service.CalendarService
}

// NewMenuHandler 创建 MenuHandler
func NewMenuHandler(menuSvc service.MenuService, calendarSvc service.CalendarService) *MenuHandler {
	return &MenuHandler{menuSvc: menuSvc, calendarSvc: calendarSvc}
}

// ListHalls 食堂列表（含当前餐段与营业状态）
// GET /api/v1/halls
func (h *MenuHandler) ListHalls(c *gin.Context) {
	halls, err := h.menuSvc.ListHalls(c.Request.Context())
	if err != nil {
		handleCommonError(c, err)
		return
	}

	response.OK(c, halls)
}

// GetHall 食堂详情
// GET /api/v1/halls/:name
func (h *MenuHandler) GetHall(c *gin.Context) {
	hall, err := h.menuSvc.GetHall(c.Request.Context(), c.Param("name"))
	if err != nil {
		handleCommonError(c, err)
		return
	}

	response.OK(c, hall)
}

// FilteredMenu 按偏好过滤后的全部菜单；未登录时不过滤
// GET /api/v1/menus
func (h *MenuHandler) FilteredMenu(c *gin.Context) {
	menus, err := h.menuSvc.FilteredMenu(c.Request.Context(), OptionalUserID(c))
	if err != nil {
		handleCommonError(c, err)
		return
	}

	response.OK(c, gin.H{"list": menus})
}

// HallCalendar 食堂未来若干天的供餐时间（iCalendar）
// GET /api/v1/halls/:name/calendar?days=7
func (h *MenuHandler) HallCalendar(c *gin.Context) {
	days := 0
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			response.BadRequest(c, 10001, "days 必须为整数")
			return
		}
		days = n
	}

	data, filename, err := h.calendarSvc.HallCalendar(c.Request.Context(), c.Param("name"), days)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCalendarRange) {
			response.BadRequest(c, 14003, err.Error())
			return
		}
		handleCommonError(c, err)
		return
	}

	response.Attachment(c, filename, "text/calendar; charset=utf-8", data)
}
