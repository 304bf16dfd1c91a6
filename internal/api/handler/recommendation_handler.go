package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/Cyoyuu/UMass-SmartDine-Finder/internal/dto"
	"github.com/Cyoyuu/UMass-SmartDine-Finder/internal/service"
	"github.com/Cyoyuu/UMass-SmartDine-Finder/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// RecommendationHandler 推荐 HTTP 处理器
type RecommendationHandler struct {
	recSvc    service.RecommendationService
	exportSvc service.ExportService
}

// NewRecommendationHandler 创建 RecommendationHandler
func NewRecommendationHandler(recSvc service.RecommendationService, exportSvc service.ExportService) *RecommendationHandler {
	return &RecommendationHandler{recSvc: recSvc, exportSvc: exportSvc}
}

// Recommend 获取推荐（未登录时按无偏好处理）
// GET /api/v1/recommendations?slot=lunch&limit=5&at=2024-09-10T12:00:00-04:00
func (h *RecommendationHandler) Recommend(c *gin.Context) {
	var q dto.RecommendationQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	rec, err := h.recSvc.Recommend(c.Request.Context(), OptionalUserID(c), &q)
	if err != nil {
		h.handleRecommendationError(c, err)
		return
	}

	response.OK(c, rec)
}

// Export 推荐结果导出为 Excel
// GET /api/v1/recommendations/export
func (h *RecommendationHandler) Export(c *gin.Context) {
	var q dto.RecommendationQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	buf, filename, err := h.exportSvc.ExportRecommendations(c.Request.Context(), OptionalUserID(c), &q)
	if err != nil {
		h.handleRecommendationError(c, err)
		return
	}

	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (h *RecommendationHandler) handleRecommendationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidQuery):
		response.BadRequest(c, 14001, err.Error())
	case errors.Is(err, service.ErrExportGenerateFail):
		response.Error(c, http.StatusInternalServerError, 14002, "生成 Excel 文件失败")
	default:
		handleCommonError(c, err)
	}
}
