package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Cyoyuu/UMass-SmartDine-Finder/internal/model"
)

// MealHistoryFilter 就餐记录查询条件（均为可选）
type MealHistoryFilter struct {
	From *time.Time
	To   *time.Time
}

// MealHistoryRepository 就餐记录数据访问接口
type MealHistoryRepository interface {
	Upsert(ctx context.Context, h *model.MealHistory) error
	ListByUser(ctx context.Context, userID string, filter MealHistoryFilter, offset, limit int) ([]model.MealHistory, int64, error)
	Delete(ctx context.Context, userID, historyID string) error
	HallVisitCounts(ctx context.Context, userID string, since time.Time) ([]model.HallVisit, error)
}

type mealHistoryRepo struct {
	db *gorm.DB
}

// NewMealHistoryRepo 创建 MealHistoryRepository 实例
func NewMealHistoryRepo(db *gorm.DB) MealHistoryRepository {
	return &mealHistoryRepo{db: db}
}

// Upsert 同一天同一餐段重复记录时覆盖
func (r *mealHistoryRepo) Upsert(ctx context.Context, h *model.MealHistory) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "meal_date"}, {Name: "meal_slot"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"hall_name":      h.HallName,
				"items":          h.Items,
				"total_calories": h.TotalCalories,
				"updated_by":     h.UpdatedBy,
				"updated_at":     gorm.Expr("NOW()"),
			}),
		}).
		Create(h).Error
}

func (r *mealHistoryRepo) ListByUser(ctx context.Context, userID string, filter MealHistoryFilter, offset, limit int) ([]model.MealHistory, int64, error) {
	var rows []model.MealHistory
	var total int64

	db := r.db.WithContext(ctx).Model(&model.MealHistory{}).Where("user_id = ?", userID)
	if filter.From != nil {
		db = db.Where("meal_date >= ?", filter.From.Format("2006-01-02"))
	}
	if filter.To != nil {
		db = db.Where("meal_date <= ?", filter.To.Format("2006-01-02"))
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Offset(offset).Limit(limit).
		Order("meal_date DESC, meal_slot ASC").
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	return rows, total, nil
}

func (r *mealHistoryRepo) Delete(ctx context.Context, userID, historyID string) error {
	result := r.db.WithContext(ctx).
		Where("history_id = ? AND user_id = ?", historyID, userID).
		Delete(&model.MealHistory{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// HallVisitCounts 统计 since 之后各食堂的就餐次数
func (r *mealHistoryRepo) HallVisitCounts(ctx context.Context, userID string, since time.Time) ([]model.HallVisit, error) {
	var rows []model.HallVisit
	err := r.db.WithContext(ctx).
		Model(&model.MealHistory{}).
		Select("hall_name, COUNT(*) AS visits").
		Where("user_id = ? AND meal_date >= ?", userID, since.Format("2006-01-02")).
		Group("hall_name").
		Order("hall_name ASC").
		Scan(&rows).Error
	return rows, err
}
