package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Cyoyuu/UMass-SmartDine-Finder/internal/dining"
	"github.com/Cyoyuu/UMass-SmartDine-Finder/internal/dto"
	"github.com/Cyoyuu/UMass-SmartDine-Finder/internal/model"
	"github.com/Cyoyuu/UMass-SmartDine-Finder/internal/repository"
)

// ── 就餐记录模块业务错误 ──

var (
	ErrInvalidMealDate    = errors.New("日期格式无效，应为 YYYY-MM-DD")
	ErrMealDateInFuture   = errors.New("不能记录未来的就餐")
	ErrItemNotOnMenu      = errors.New("菜品不在该食堂该餐段的菜单中")
	ErrMealHistoryMissing = errors.New("就餐记录不存在")
)

const dateLayout = "2006-01-02"

// MealHistoryService 就餐记录业务接口
type MealHistoryService interface {
	// Record 同一天同一餐段重复记录时覆盖；总热量按当前菜单计算
	Record(ctx context.Context, userID string, req *dto.RecordMealRequest) (*dto.MealHistoryResponse, error)
	List(ctx context.Context, userID string, q *dto.MealHistoryQuery) (*dto.PageResult[dto.MealHistoryResponse], error)
	Delete(ctx context.Context, userID, historyID string) error
}

type mealHistoryService struct {
	repo    *repository.Repository
	catalog MenuCatalog
	loc     *time.Location
	now     func() time.Time
	logger  *zap.Logger
}

// NewMealHistoryService 创建 MealHistoryService 实例
func NewMealHistoryService(repo *repository.Repository, catalog MenuCatalog, loc *time.Location, now func() time.Time, logger *zap.Logger) MealHistoryService {
	return &mealHistoryService{repo: repo, catalog: catalog, loc: loc, now: now, logger: logger}
}

func (s *mealHistoryService) Record(ctx context.Context, userID string, req *dto.RecordMealRequest) (*dto.MealHistoryResponse, error) {
	date, err := time.ParseInLocation(dateLayout, req.Date, s.loc)
	if err != nil {
		return nil, ErrInvalidMealDate
	}
	if date.After(s.now().In(s.loc)) {
		return nil, ErrMealDateInFuture
	}
	slot, err := dining.ParseMealSlot(req.Slot)
	if err != nil || slot == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMealKey, req.Slot)
	}

	// 菜品必须出现在该食堂该餐段的菜单中
	snap, err := s.catalog.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	hall, ok := snap.HallByName(req.HallName)
	if !ok {
		return nil, ErrHallNotFound
	}
	calories := make(map[string]int)
	for _, it := range hall.ItemsFor(slot) {
		calories[it.Name] = it.Calories
	}
	total := 0
	for _, name := range req.Items {
		c, ok := calories[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrItemNotOnMenu, name)
		}
		total += c
	}

	h := &model.MealHistory{
		UserID:        userID,
		MealDate:      date,
		MealSlot:      string(slot),
		HallName:      hall.Name,
		Items:         req.Items,
		TotalCalories: total,
	}
	h.CreatedBy = &userID
	h.UpdatedBy = &userID
	if err := s.repo.MealHistory.Upsert(ctx, h); err != nil {
		s.logger.Error("保存就餐记录失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	resp := toMealHistoryResponse(h)
	return &resp, nil
}

func (s *mealHistoryService) List(ctx context.Context, userID string, q *dto.MealHistoryQuery) (*dto.PageResult[dto.MealHistoryResponse], error) {
	var filter repository.MealHistoryFilter
	if q.From != "" {
		t, err := time.ParseInLocation(dateLayout, q.From, s.loc)
		if err != nil {
			return nil, ErrInvalidMealDate
		}
		filter.From = &t
	}
	if q.To != "" {
		t, err := time.ParseInLocation(dateLayout, q.To, s.loc)
		if err != nil {
			return nil, ErrInvalidMealDate
		}
		filter.To = &t
	}

	rows, total, err := s.repo.MealHistory.ListByUser(ctx, userID, filter, q.GetOffset(), q.GetPageSize())
	if err != nil {
		s.logger.Error("查询就餐记录失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	list := make([]dto.MealHistoryResponse, 0, len(rows))
	for i := range rows {
		list = append(list, toMealHistoryResponse(&rows[i]))
	}
	return &dto.PageResult[dto.MealHistoryResponse]{
		List:     list,
		Total:    total,
		Page:     q.GetPage(),
		PageSize: q.GetPageSize(),
	}, nil
}

func (s *mealHistoryService) Delete(ctx context.Context, userID, historyID string) error {
	if err := s.repo.MealHistory.Delete(ctx, userID, historyID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMealHistoryMissing
		}
		s.logger.Error("删除就餐记录失败", zap.String("user_id", userID), zap.Error(err))
		return err
	}
	return nil
}

func toMealHistoryResponse(h *model.MealHistory) dto.MealHistoryResponse {
	items := []string(h.Items)
	if items == nil {
		items = []string{}
	}
	return dto.MealHistoryResponse{
		ID:            h.HistoryID,
		Date:          h.MealDate.Format(dateLayout),
		Slot:          h.MealSlot,
		HallName:      h.HallName,
		Items:         items,
		TotalCalories: h.TotalCalories,
	}
}
