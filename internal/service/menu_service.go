package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Cyoyuu/UMass-SmartDine-Finder/internal/dining"
	"github.com/Cyoyuu/UMass-SmartDine-Finder/internal/dto"
	"github.com/Cyoyuu/UMass-SmartDine-Finder/internal/model"
	"github.com/Cyoyuu/UMass-SmartDine-Finder/internal/repository"
)

// ── 菜单模块业务错误 ──

var (
	ErrHallNotFound   = errors.New("食堂不存在")
	ErrInvalidHours   = errors.New("营业时间格式无效，应为 HH:MM-HH:MM")
	ErrInvalidMealKey = errors.New("未知餐段")
	ErrInvalidMeals   = errors.New("菜单格式无效")
)

// MenuService 食堂与菜单业务接口
type MenuService interface {
	ListHalls(ctx context.Context) (*dto.HallListResponse, error)
	// FilteredMenu 按用户偏好过滤的完整菜单（不排序）；userID 为空时不过滤
	FilteredMenu(ctx context.Context, userID string) ([]dining.HallMenu, error)
	GetHall(ctx context.Context, name string) (*dto.HallResponse, error)
	// UpsertHall 返回值 created 表示是否为新建
	UpsertHall(ctx context.Context, operatorID string, req *dto.UpsertHallRequest) (*dto.HallResponse, bool, error)
	DeleteHall(ctx context.Context, name string) error
}

type menuService struct {
	repo    *repository.Repository
	engine  *dining.Engine
	catalog MenuCatalog
	prefs   PreferenceService
	loc     *time.Location
	now     func() time.Time
	logger  *zap.Logger
}

// NewMenuService 创建 MenuService 实例
func NewMenuService(
	repo *repository.Repository,
	engine *dining.Engine,
	catalog MenuCatalog,
	prefs PreferenceService,
	loc *time.Location,
	now func() time.Time,
	logger *zap.Logger,
) MenuService {
	return &menuService{
		repo:    repo,
		engine:  engine,
		catalog: catalog,
		prefs:   prefs,
		loc:     loc,
		now:     now,
		logger:  logger,
	}
}

func (s *menuService) ListHalls(ctx context.Context) (*dto.HallListResponse, error) {
	snap, err := s.catalog.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now().In(s.loc)
	resolver := s.engine.Resolver()

	resp := &dto.HallListResponse{
		CurrentSlot: string(resolver.CurrentMealSlot(now)),
		Weekend:     dining.IsWeekend(now),
		Halls:       make([]dto.HallSummary, 0, len(snap.Halls)),
	}
	for _, h := range snap.Halls {
		var mealHours map[string]string
		if len(h.MealHours) > 0 {
			mealHours = make(map[string]string, len(h.MealHours))
			for slot, w := range h.MealHours {
				mealHours[string(slot)] = w
			}
		}
		resp.Halls = append(resp.Halls, dto.HallSummary{
			Name:      h.Name,
			Hours:     h.Hours,
			MealHours: mealHours,
			IsOpen:    resolver.IsHallOpen(h, now),
		})
	}
	return resp, nil
}

func (s *menuService) FilteredMenu(ctx context.Context, userID string) ([]dining.HallMenu, error) {
	snap, err := s.catalog.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	raw, err := s.prefs.Raw(ctx, userID)
	if err != nil {
		s.logger.Warn("读取偏好失败，按无偏好处理", zap.String("user_id", userID), zap.Error(err))
		raw = nil
	}
	return s.engine.FilteredMenu(snap.Halls, dining.NormalizePreferences(raw), s.now().In(s.loc))
}

func (s *menuService) GetHall(ctx context.Context, name string) (*dto.HallResponse, error) {
	hall, err := s.repo.DiningHall.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrHallNotFound
		}
		s.logger.Error("查询食堂失败", zap.String("hall", name), zap.Error(err))
		return nil, err
	}
	return toHallResponse(hall), nil
}

// UpsertHall 管理员维护食堂数据；写入后清除菜单快照
func (s *menuService) UpsertHall(ctx context.Context, operatorID string, req *dto.UpsertHallRequest) (*dto.HallResponse, bool, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, false, fmt.Errorf("%w: 名称不能为空", ErrInvalidMeals)
	}

	// 1. 校验并规范化
	hours := strings.TrimSpace(req.Hours)
	if hours != "" {
		if _, err := dining.ParseWindow(hours); err != nil {
			return nil, false, ErrInvalidHours
		}
	}
	mealHours := make(map[dining.MealSlot]string, len(req.MealHours))
	for k, v := range req.MealHours {
		slot, err := dining.ParseMealSlot(k)
		if err != nil || slot == "" {
			return nil, false, fmt.Errorf("%w: %q", ErrInvalidMealKey, k)
		}
		if _, err := dining.ParseWindow(v); err != nil {
			return nil, false, ErrInvalidHours
		}
		mealHours[slot] = strings.TrimSpace(v)
	}
	meals := map[dining.MealSlot][]dining.MenuItem{}
	if len(req.Meals) > 0 && string(req.Meals) != "null" {
		var probe map[string]json.RawMessage
		if err := json.Unmarshal(req.Meals, &probe); err != nil {
			return nil, false, ErrInvalidMeals
		}
		for k := range probe {
			if slot, err := dining.ParseMealSlot(k); err != nil || slot == "" {
				return nil, false, fmt.Errorf("%w: %q", ErrInvalidMealKey, k)
			}
		}
		meals = dining.DecodeMeals(req.Meals)
	}

	mealsJSON, err := dining.EncodeMeals(meals)
	if err != nil {
		return nil, false, err
	}
	hoursJSON, err := dining.EncodeMealHours(mealHours)
	if err != nil {
		return nil, false, err
	}

	// 2. 新建或更新
	existing, err := s.repo.DiningHall.GetByName(ctx, name)
	created := false
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		existing = &model.DiningHall{
			Name:      name,
			Hours:     hours,
			MealHours: datatypes.JSON(hoursJSON),
			Meals:     datatypes.JSON(mealsJSON),
		}
		existing.CreatedBy = &operatorID
		existing.UpdatedBy = &operatorID
		if err := s.repo.DiningHall.Create(ctx, existing); err != nil {
			s.logger.Error("创建食堂失败", zap.String("hall", name), zap.Error(err))
			return nil, false, err
		}
		created = true
	case err != nil:
		s.logger.Error("查询食堂失败", zap.String("hall", name), zap.Error(err))
		return nil, false, err
	default:
		if req.Version != 0 {
			existing.Version = req.Version
		}
		existing.Hours = hours
		existing.MealHours = datatypes.JSON(hoursJSON)
		existing.Meals = datatypes.JSON(mealsJSON)
		existing.UpdatedBy = &operatorID
		if err := s.repo.DiningHall.Update(ctx, existing); err != nil {
			return nil, false, err
		}
	}

	// 3. 菜单快照失效
	if err := s.catalog.Invalidate(ctx); err != nil {
		s.logger.Warn("菜单快照失效失败", zap.Error(err))
	}

	s.logger.Info("食堂数据已更新",
		zap.String("hall", name),
		zap.Bool("created", created),
		zap.String("operator", operatorID),
	)
	return toHallResponse(existing), created, nil
}

func (s *menuService) DeleteHall(ctx context.Context, name string) error {
	if err := s.repo.DiningHall.Delete(ctx, name); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrHallNotFound
		}
		s.logger.Error("删除食堂失败", zap.String("hall", name), zap.Error(err))
		return err
	}
	if err := s.catalog.Invalidate(ctx); err != nil {
		s.logger.Warn("菜单快照失效失败", zap.Error(err))
	}
	return nil
}

func toHallResponse(h *model.DiningHall) *dto.HallResponse {
	resp := &dto.HallResponse{
		ID:        h.HallID,
		Name:      h.Name,
		Hours:     h.Hours,
		MealHours: json.RawMessage(h.MealHours),
		Meals:     json.RawMessage(h.Meals),
		Version:   h.Version,
	}
	if !h.UpdatedAt.IsZero() {
		resp.UpdatedAt = h.UpdatedAt.Format(time.RFC3339)
	}
	return resp
}
