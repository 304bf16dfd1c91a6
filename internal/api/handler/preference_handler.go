package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/Cyoyuu/UMass-SmartDine-Finder/internal/dto"
	"github.com/Cyoyuu/UMass-SmartDine-Finder/internal/service"
	"github.com/Cyoyuu/UMass-SmartDine-Finder/pkg/response"
)

// PreferenceHandler 饮食偏好 / 问卷 HTTP 处理器
type PreferenceHandler struct {
	prefSvc service.PreferenceService
}

// NewPreferenceHandler 创建 PreferenceHandler
func NewPreferenceHandler(prefSvc service.PreferenceService) *PreferenceHandler {
	return &PreferenceHandler{prefSvc: prefSvc}
}

// Get 获取我的偏好
// GET /api/v1/preferences
func (h *PreferenceHandler) Get(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	pref, err := h.prefSvc.Get(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, pref)
}

// Save 提交问卷 / 更新偏好
// PUT /api/v1/preferences
func (h *PreferenceHandler) Save(c *gin.Context) {
	var req dto.SavePreferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	pref, err := h.prefSvc.Save(c.Request.Context(), userID, &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidPreference) {
			response.BadRequest(c, 12001, err.Error())
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, pref)
}

// Skip 跳过问卷
// POST /api/v1/preferences/skip
func (h *PreferenceHandler) Skip(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	pref, err := h.prefSvc.Skip(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, pref)
}
