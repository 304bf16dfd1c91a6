package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Cyoyuu/UMass-SmartDine-Finder/internal/model"
)

// ReviewRepository 评价数据访问接口
type ReviewRepository interface {
	Upsert(ctx context.Context, review *model.Review) error
	GetByUserAndHall(ctx context.Context, userID, hallName string) (*model.Review, error)
	ListByHall(ctx context.Context, hallName string, offset, limit int) ([]model.Review, int64, error)
	ListByUser(ctx context.Context, userID string) ([]model.Review, error)
	Delete(ctx context.Context, userID, hallName string) error
	AverageRatings(ctx context.Context) ([]model.HallRating, error)
}

type reviewRepo struct {
	db *gorm.DB
}

// NewReviewRepo 创建 ReviewRepository 实例
func NewReviewRepo(db *gorm.DB) ReviewRepository {
	return &reviewRepo{db: db}
}

// Upsert 同一用户对同一食堂只保留最新一条评价
func (r *reviewRepo) Upsert(ctx context.Context, review *model.Review) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "hall_name"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"rating":           review.Rating,
				"review_text":      review.ReviewText,
				"food_preferences": review.FoodPreferences,
				"updated_by":       review.UpdatedBy,
				"updated_at":       gorm.Expr("NOW()"),
			}),
		}).
		Create(review).Error
}

func (r *reviewRepo) GetByUserAndHall(ctx context.Context, userID, hallName string) (*model.Review, error) {
	var review model.Review
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND hall_name = ?", userID, hallName).
		First(&review).Error
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *reviewRepo) ListByHall(ctx context.Context, hallName string, offset, limit int) ([]model.Review, int64, error) {
	var reviews []model.Review
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Review{}).Where("hall_name = ?", hallName)

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("User").
		Offset(offset).Limit(limit).
		Order("updated_at DESC").
		Find(&reviews).Error; err != nil {
		return nil, 0, err
	}

	return reviews, total, nil
}

func (r *reviewRepo) ListByUser(ctx context.Context, userID string) ([]model.Review, error) {
	var reviews []model.Review
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&reviews).Error
	return reviews, err
}

func (r *reviewRepo) Delete(ctx context.Context, userID, hallName string) error {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND hall_name = ?", userID, hallName).
		Delete(&model.Review{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AverageRatings 各食堂评价均分
func (r *reviewRepo) AverageRatings(ctx context.Context) ([]model.HallRating, error) {
	var rows []model.HallRating
	err := r.db.WithContext(ctx).
		Model(&model.Review{}).
		Select("hall_name, AVG(rating)::float8 AS average, COUNT(*) AS count").
		Group("hall_name").
		Order("hall_name ASC").
		Scan(&rows).Error
	return rows, err
}
