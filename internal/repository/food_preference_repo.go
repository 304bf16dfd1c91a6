package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Cyoyuu/UMass-SmartDine-Finder/internal/model"
)

// FoodPreferenceRepository 饮食偏好数据访问接口
type FoodPreferenceRepository interface {
	GetByUserID(ctx context.Context, userID string) (*model.UserFoodPreference, error)
	Upsert(ctx context.Context, pref *model.UserFoodPreference) error
}

type foodPreferenceRepo struct {
	db *gorm.DB
}

// NewFoodPreferenceRepo 创建 FoodPreferenceRepository 实例
func NewFoodPreferenceRepo(db *gorm.DB) FoodPreferenceRepository {
	return &foodPreferenceRepo{db: db}
}

func (r *foodPreferenceRepo) GetByUserID(ctx context.Context, userID string) (*model.UserFoodPreference, error) {
	var pref model.UserFoodPreference
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&pref).Error
	if err != nil {
		return nil, err
	}
	return &pref, nil
}

// Upsert 每个用户一行，重复提交覆盖
func (r *foodPreferenceRepo) Upsert(ctx context.Context, pref *model.UserFoodPreference) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"data":       pref.Data,
				"skipped":    pref.Skipped,
				"updated_by": pref.UpdatedBy,
				"updated_at": gorm.Expr("NOW()"),
			}),
		}).
		Create(pref).Error
}
