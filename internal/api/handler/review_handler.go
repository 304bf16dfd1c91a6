package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/Cyoyuu/UMass-SmartDine-Finder/internal/dto"
	"github.com/Cyoyuu/UMass-SmartDine-Finder/internal/service"
	"github.com/Cyoyuu/UMass-SmartDine-Finder/pkg/response"
)

// ReviewHandler 食堂评价 HTTP 处理器
type ReviewHandler struct {
	reviewSvc service.ReviewService
}

// NewReviewHandler 创建 ReviewHandler
func NewReviewHandler(reviewSvc service.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewSvc: reviewSvc}
}

// Submit 提交评价（重复提交覆盖）
// POST /api/v1/halls/:name/reviews
func (h *ReviewHandler) Submit(c *gin.Context) {
	var req dto.SubmitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	review, err := h.reviewSvc.Submit(c.Request.Context(), userID, c.Param("name"), &req)
	if err != nil {
		h.handleReviewError(c, err)
		return
	}

	response.OK(c, review)
}

// ListByHall 某食堂的评价（分页）
// GET /api/v1/halls/:name/reviews?page=1&page_size=20
func (h *ReviewHandler) ListByHall(c *gin.Context) {
	var page dto.PaginationRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.reviewSvc.ListByHall(c.Request.Context(), c.Param("name"), &page)
	if err != nil {
		h.handleReviewError(c, err)
		return
	}

	response.OKPage(c, result.List, result.Total, result.Page, result.PageSize)
}

// ListMine 我的评价
// GET /api/v1/reviews/me
func (h *ReviewHandler) ListMine(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	list, err := h.reviewSvc.ListMine(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// Delete 删除我对某食堂的评价
// DELETE /api/v1/halls/:name/reviews
func (h *ReviewHandler) Delete(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.reviewSvc.Delete(c.Request.Context(), userID, c.Param("name")); err != nil {
		h.handleReviewError(c, err)
		return
	}

	response.OK(c, nil)
}

// Ratings 各食堂评价均分
// GET /api/v1/reviews/ratings
func (h *ReviewHandler) Ratings(c *gin.Context) {
	ratings, err := h.reviewSvc.Ratings(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": ratings})
}

func (h *ReviewHandler) handleReviewError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidRating):
		response.BadRequest(c, 15001, err.Error())
	case errors.Is(err, service.ErrReviewTooLong):
		response.BadRequest(c, 15002, err.Error())
	case errors.Is(err, service.ErrInvalidFoodPreference):
		response.BadRequest(c, 15003, err.Error())
	case errors.Is(err, service.ErrReviewNotFound):
		response.NotFound(c, 15004, err.Error())
	default:
		handleCommonError(c, err)
	}
}
