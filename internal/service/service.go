package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Cyoyuu/UMass-SmartDine-Finder/config"
	"github.com/Cyoyuu/UMass-SmartDine-Finder/internal/dining"
	"github.com/Cyoyuu/UMass-SmartDine-Finder/internal/repository"
	"github.com/Cyoyuu/UMass-SmartDine-Finder/pkg/jwt"
)

// ── 外部依赖（Redis 实现，可为 nil） ──

// TokenBlacklist Token 黑名单
type TokenBlacklist interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// SnapshotStore 菜单快照共享缓存
type SnapshotStore interface {
	GetMenuSnapshot(ctx context.Context) ([]byte, error)
	SetMenuSnapshot(ctx context.Context, data []byte, ttl time.Duration) error
	InvalidateMenuSnapshot(ctx context.Context) error
}

// Deps Service 层依赖
type Deps struct {
	Config    *config.Config
	Repo      *repository.Repository
	JWT       *jwt.Manager
	Engine    *dining.Engine
	Blacklist TokenBlacklist // nil 表示不启用黑名单
	Snapshots SnapshotStore  // nil 表示仅使用进程内缓存
	Logger    *zap.Logger
	Now       func() time.Time // nil 时使用 time.Now
}

// Service 所有 Service 的聚合入口
type Service struct {
	Auth           AuthService
	Preference     PreferenceService
	Catalog        MenuCatalog
	Menu           MenuService
	Recommendation RecommendationService
	Review         ReviewService
	MealHistory    MealHistoryService
	Export         ExportService
	Calendar       CalendarService
	User           UserService
}

// NewService 创建 Service 聚合
func NewService(d Deps) *Service {
	if d.Now == nil {
		d.Now = time.Now
	}
	loc := d.Config.Server.Location()

	catalog := NewMenuCatalog(d.Repo, d.Snapshots, d.Config.Dining.CacheTTL, d.Config.Feature.RedisMenuCache, d.Now, d.Logger)
	pref := NewPreferenceService(d.Repo, d.Logger)
	rec := NewRecommendationService(d.Config, d.Repo, d.Engine, catalog, pref, loc, d.Now, d.Logger)

	return &Service{
		Auth:           NewAuthService(d.Config, d.Repo, d.JWT, d.Blacklist, d.Logger),
		Preference:     pref,
		Catalog:        catalog,
		Menu:           NewMenuService(d.Repo, d.Engine, catalog, pref, loc, d.Now, d.Logger),
		Recommendation: rec,
		Review:         NewReviewService(d.Repo, catalog, d.Logger),
		MealHistory:    NewMealHistoryService(d.Repo, catalog, loc, d.Now, d.Logger),
		Export:         NewExportService(rec, d.Logger),
		Calendar:       NewCalendarService(catalog, d.Engine, loc, d.Now, d.Logger),
		User:           NewUserService(d.Repo, d.Logger),
	}
}
