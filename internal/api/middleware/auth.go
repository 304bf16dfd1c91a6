package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Cyoyuu/UMass-SmartDine-Finder/pkg/jwt"
	"github.com/Cyoyuu/UMass-SmartDine-Finder/pkg/response"
)

// TokenChecker Token 黑名单查询（Redis 实现；nil 表示不启用）
type TokenChecker interface {
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// JWTAuth JWT 认证中间件
// 从 Authorization: Bearer <token> 中提取并验证 Access Token
func JWTAuth(jwtMgr *jwt.Manager, checker TokenChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, 10002, "缺少认证头")
			c.Abort()
			return
		}
		if !authenticate(c, jwtMgr, checker, authHeader) {
			return
		}
		c.Next()
	}
}

// OptionalAuth 可匿名访问的接口：无认证头时以匿名身份继续，
// 携带了认证头则必须有效
func OptionalAuth(jwtMgr *jwt.Manager, checker TokenChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}
		if !authenticate(c, jwtMgr, checker, authHeader) {
			return
		}
		c.Next()
	}
}

// authenticate 校验失败时写入 401 并 Abort，返回 false
func authenticate(c *gin.Context, jwtMgr *jwt.Manager, checker TokenChecker, authHeader string) bool {
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		response.Unauthorized(c, 10002, "认证头格式无效")
		c.Abort()
		return false
	}

	claims, err := jwtMgr.ParseToken(parts[1])
	if err != nil {
		response.Unauthorized(c, 10002, "Token 无效或已过期")
		c.Abort()
		return false
	}

	if claims.TokenType != jwt.TokenTypeAccess {
		response.Unauthorized(c, 10002, "Token 类型无效")
		c.Abort()
		return false
	}

	// Redis 出错时放行，token 仍受有效期约束
	if checker != nil {
		if revoked, err := checker.IsBlacklisted(c.Request.Context(), claims.ID); err == nil && revoked {
			response.Unauthorized(c, 10002, "Token 已失效")
			c.Abort()
			return false
		}
	}

	// 将用户信息注入上下文
	c.Set("user_id", claims.UserID)
	c.Set("role", claims.Role)
	c.Set("claims", claims)
	return true
}

// RoleAuth 角色权限中间件
// 检查当前用户是否具有指定角色之一
func RoleAuth(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole := c.GetString("role")
		if userRole == "" {
			response.Unauthorized(c, 10002, "未认证")
			c.Abort()
			return
		}

		for _, r := range allowedRoles {
			if userRole == r {
				c.Next()
				return
			}
		}

		response.Forbidden(c, 10003, "无权限访问")
		c.Abort()
	}
}
