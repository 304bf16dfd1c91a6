package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Cyoyuu/UMass-SmartDine-Finder/internal/model"
	pkgerrors "github.com/Cyoyuu/UMass-SmartDine-Finder/pkg/errors"
)

// DiningHallRepository 食堂数据访问接口
type DiningHallRepository interface {
	List(ctx context.Context) ([]model.DiningHall, error)
	GetByName(ctx context.Context, name string) (*model.DiningHall, error)
	Create(ctx context.Context, hall *model.DiningHall) error
	Update(ctx context.Context, hall *model.DiningHall) error
	Delete(ctx context.Context, name string) error
}

type diningHallRepo struct {
	db *gorm.DB
}

// NewDiningHallRepo 创建 DiningHallRepository 实例
func NewDiningHallRepo(db *gorm.DB) DiningHallRepository {
	return &diningHallRepo{db: db}
}

// List 按名称排序，保证同一快照下食堂顺序稳定
func (r *diningHallRepo) List(ctx context.Context) ([]model.DiningHall, error) {
	var halls []model.DiningHall
	err := r.db.WithContext(ctx).
		Order("name ASC").
		Find(&halls).Error
	return halls, err
}

func (r *diningHallRepo) GetByName(ctx context.Context, name string) (*model.DiningHall, error) {
	var hall model.DiningHall
	err := r.db.WithContext(ctx).
		Where("name = ?", name).
		First(&hall).Error
	if err != nil {
		return nil, err
	}
	return &hall, nil
}

func (r *diningHallRepo) Create(ctx context.Context, hall *model.DiningHall) error {
	return r.db.WithContext(ctx).Create(hall).Error
}

// Update 乐观锁更新：version 不匹配时返回 ErrOptimisticLock
func (r *diningHallRepo) Update(ctx context.Context, hall *model.DiningHall) error {
	oldVersion := hall.Version
	result := r.db.WithContext(ctx).
		Model(&model.DiningHall{}).
		Where("hall_id = ? AND version = ?", hall.HallID, oldVersion).
		Updates(map[string]interface{}{
			"hours":      hall.Hours,
			"meal_hours": hall.MealHours,
			"meals":      hall.Meals,
			"updated_by": hall.UpdatedBy,
			"updated_at": gorm.Expr("NOW()"),
			"version":    oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	hall.Version = oldVersion + 1
	return nil
}

func (r *diningHallRepo) Delete(ctx context.Context, name string) error {
	result := r.db.WithContext(ctx).
		Where("name = ?", name).
		Delete(&model.DiningHall{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
