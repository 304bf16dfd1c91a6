package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/Cyoyuu/UMass-SmartDine-Finder/internal/service"
	"github.com/Cyoyuu/UMass-SmartDine-Finder/pkg/response"
)

// handleCommonError 各模块共有的错误：菜单数据不可用 / 食堂不存在 / 其他内部错误
func handleCommonError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrMenuUnavailable):
		response.ServiceUnavailable(c, 13006, "菜单数据暂不可用，请稍后再试")
	case errors.Is(err, service.ErrHallNotFound):
		response.NotFound(c, 13001, "食堂不存在")
	default:
		response.InternalError(c)
	}
}
