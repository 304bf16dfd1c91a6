package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Cyoyuu/UMass-SmartDine-Finder/config"
	"github.com/Cyoyuu/UMass-SmartDine-Finder/internal/api/handler"
	"github.com/Cyoyuu/UMass-SmartDine-Finder/internal/api/middleware"
	"github.com/Cyoyuu/UMass-SmartDine-Finder/internal/model"
	"github.com/Cyoyuu/UMass-SmartDine-Finder/pkg/jwt"
	"github.com/Cyoyuu/UMass-SmartDine-Finder/pkg/redis"
)

const maxBodyBytes = 1 << 20 // 1MB

// Setup 初始化并返回 Gin 路由引擎
// rdb 为 nil 时：不检查 Token 黑名单，限流退化为进程内令牌桶
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger, "/health"))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.BodyLimit(maxBodyBytes))

	// 避免把 nil *redis.Client 装进接口
	var checker middleware.TokenChecker
	if rdb != nil {
		checker = rdb
	}
	limit := cfg.Server.Limit
	newLimiter := func(n int) middleware.Limiter {
		if rdb != nil {
			return middleware.NewRedisLimiter(rdb, n, limit.Window)
		}
		return middleware.NewLocalLimiter(n, limit.Window)
	}
	loginLimit := middleware.RateLimit(newLimiter(limit.Login), "auth", logger)
	recommendLimit := middleware.RateLimit(newLimiter(limit.Recommend), "recommend", logger)

	requireAuth := middleware.JWTAuth(jwtMgr, checker)
	// 关闭匿名访问时，推荐与菜单接口同样要求登录
	maybeAuth := requireAuth
	if cfg.Feature.AllowAnonymous {
		maybeAuth = middleware.OptionalAuth(jwtMgr, checker)
	}

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		auth := v1.Group("/auth")
		{
			auth.POST("/register", loginLimit, h.Auth.Register)
			auth.POST("/login", loginLimit, h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
			auth.POST("/logout", requireAuth, h.Auth.Logout)
			auth.GET("/me", requireAuth, h.Auth.Me)
		}

		// 食堂 / 菜单（公开）
		halls := v1.Group("/halls")
		{
			halls.GET("", h.Menu.ListHalls)
			halls.GET("/:name", h.Menu.GetHall)
			halls.GET("/:name/calendar", h.Menu.HallCalendar)
			halls.GET("/:name/reviews", h.Review.ListByHall)
			halls.POST("/:name/reviews", requireAuth, h.Review.Submit)
			halls.DELETE("/:name/reviews", requireAuth, h.Review.Delete)
		}
		v1.GET("/menus", maybeAuth, h.Menu.FilteredMenu)
		v1.GET("/reviews/ratings", h.Review.Ratings)

		// 推荐
		recommendations := v1.Group("/recommendations", maybeAuth, recommendLimit)
		{
			recommendations.GET("", h.Recommendation.Recommend)
			recommendations.GET("/export", h.Recommendation.Export)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(requireAuth)
		{
			// 偏好 / 问卷
			prefs := authorized.Group("/preferences")
			{
				prefs.GET("", h.Preference.Get)
				prefs.PUT("", h.Preference.Save)
				prefs.POST("/skip", h.Preference.Skip)
			}

			authorized.GET("/reviews/me", h.Review.ListMine)

			// 就餐记录
			history := authorized.Group("/history")
			{
				history.GET("", h.History.List)
				history.POST("", h.History.Record)
				history.DELETE("/:id", h.History.Delete)
			}

			// 管理员
			admin := authorized.Group("/admin", middleware.RoleAuth(model.RoleAdmin))
			{
				admin.PUT("/halls", h.Admin.UpsertHall)
				admin.DELETE("/halls/:name", h.Admin.DeleteHall)
				admin.GET("/cache", h.Admin.CacheStatus)
				admin.POST("/cache/refresh", h.Admin.RefreshCache)
				admin.GET("/users", h.User.ListUsers)
				admin.PUT("/users/:id/role", h.User.AssignRole)
			}
		}
	}

	return r
}
