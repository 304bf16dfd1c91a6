package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Cyoyuu/UMass-SmartDine-Finder/internal/dto"
	"github.com/Cyoyuu/UMass-SmartDine-Finder/internal/model"
	"github.com/Cyoyuu/UMass-SmartDine-Finder/internal/repository"
)

// ── 评价模块业务错误 ──

var (
	ErrInvalidRating         = errors.New("评分必须在 1-5 之间")
	ErrReviewTooLong         = errors.New("评价内容不能超过 1000 字")
	ErrInvalidFoodPreference = errors.New("未知的饮食标签")
	ErrReviewNotFound        = errors.New("评价不存在")
)

const maxReviewLength = 1000

// ReviewService 食堂评价业务接口
type ReviewService interface {
	// Submit 每个用户对每个食堂只保留一条评价，重复提交覆盖旧评价
	Submit(ctx context.Context, userID, hallName string, req *dto.SubmitReviewRequest) (*dto.ReviewResponse, error)
	ListByHall(ctx context.Context, hallName string, page *dto.PaginationRequest) (*dto.PageResult[dto.ReviewResponse], error)
	ListMine(ctx context.Context, userID string) ([]dto.ReviewResponse, error)
	Delete(ctx context.Context, userID, hallName string) error
	Ratings(ctx context.Context) ([]dto.HallRatingResponse, error)
}

type reviewService struct {
	repo    *repository.Repository
	catalog MenuCatalog
	logger  *zap.Logger
}

// NewReviewService 创建 ReviewService 实例
func NewReviewService(repo *repository.Repository, catalog MenuCatalog, logger *zap.Logger) ReviewService {
	return &reviewService{repo: repo, catalog: catalog, logger: logger}
}

func (s *reviewService) Submit(ctx context.Context, userID, hallName string, req *dto.SubmitReviewRequest) (*dto.ReviewResponse, error) {
	// 1. 参数校验（handler 已做 binding 校验，这里兜底）
	if req.Rating < 1 || req.Rating > 5 {
		return nil, ErrInvalidRating
	}
	text := strings.TrimSpace(req.ReviewText)
	if len([]rune(text)) > maxReviewLength {
		return nil, ErrReviewTooLong
	}
	tags, err := validFoodPreferences(req.FoodPreferences)
	if err != nil {
		return nil, err
	}

	// 2. 食堂必须存在
	if err := s.ensureHall(ctx, hallName); err != nil {
		return nil, err
	}

	// 3. 写入
	review := &model.Review{
		UserID:          userID,
		HallName:        hallName,
		Rating:          req.Rating,
		ReviewText:      text,
		FoodPreferences: tags,
	}
	review.CreatedBy = &userID
	review.UpdatedBy = &userID
	if err := s.repo.Review.Upsert(ctx, review); err != nil {
		s.logger.Error("保存评价失败", zap.String("user_id", userID), zap.String("hall", hallName), zap.Error(err))
		return nil, err
	}

	saved, err := s.repo.Review.GetByUserAndHall(ctx, userID, hallName)
	if err != nil {
		s.logger.Error("读取评价失败", zap.Error(err))
		return nil, err
	}
	resp := toReviewResponse(saved)
	return &resp, nil
}

func (s *reviewService) ListByHall(ctx context.Context, hallName string, page *dto.PaginationRequest) (*dto.PageResult[dto.ReviewResponse], error) {
	if err := s.ensureHall(ctx, hallName); err != nil {
		return nil, err
	}
	rows, total, err := s.repo.Review.ListByHall(ctx, hallName, page.GetOffset(), page.GetPageSize())
	if err != nil {
		s.logger.Error("查询评价失败", zap.String("hall", hallName), zap.Error(err))
		return nil, err
	}
	list := make([]dto.ReviewResponse, 0, len(rows))
	for i := range rows {
		list = append(list, toReviewResponse(&rows[i]))
	}
	return &dto.PageResult[dto.ReviewResponse]{
		List:     list,
		Total:    total,
		Page:     page.GetPage(),
		PageSize: page.GetPageSize(),
	}, nil
}

func (s *reviewService) ListMine(ctx context.Context, userID string) ([]dto.ReviewResponse, error) {
	rows, err := s.repo.Review.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("查询我的评价失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	list := make([]dto.ReviewResponse, 0, len(rows))
	for i := range rows {
		list = append(list, toReviewResponse(&rows[i]))
	}
	return list, nil
}

func (s *reviewService) Delete(ctx context.Context, userID, hallName string) error {
	if err := s.repo.Review.Delete(ctx, userID, hallName); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReviewNotFound
		}
		s.logger.Error("删除评价失败", zap.String("user_id", userID), zap.Error(err))
		return err
	}
	return nil
}

func (s *reviewService) Ratings(ctx context.Context) ([]dto.HallRatingResponse, error) {
	rows, err := s.repo.Review.AverageRatings(ctx)
	if err != nil {
		s.logger.Error("查询评价汇总失败", zap.Error(err))
		return nil, err
	}
	out := make([]dto.HallRatingResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, dto.HallRatingResponse{
			HallName: r.HallName,
			Average:  math.Round(r.Average*100) / 100,
			Count:    r.Count,
		})
	}
	return out, nil
}

func (s *reviewService) ensureHall(ctx context.Context, hallName string) error {
	snap, err := s.catalog.Snapshot(ctx)
	if err != nil {
		return err
	}
	if _, ok := snap.HallByName(hallName); !ok {
		return ErrHallNotFound
	}
	return nil
}

// validFoodPreferences 去重并校验标签
func validFoodPreferences(in []string) ([]string, error) {
	allowed := make(map[string]bool, len(dto.FoodPreferenceChoices))
	for _, c := range dto.FoodPreferenceChoices {
		allowed[c] = true
	}
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, v := range in {
		v = strings.ToLower(strings.TrimSpace(v))
		if !allowed[v] {
			return nil, ErrInvalidFoodPreference
		}
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out, nil
}

func toReviewResponse(r *model.Review) dto.ReviewResponse {
	resp := dto.ReviewResponse{
		ID:              r.ReviewID,
		HallName:        r.HallName,
		Rating:          r.Rating,
		ReviewText:      r.ReviewText,
		FoodPreferences: []string(r.FoodPreferences),
		UpdatedAt:       r.UpdatedAt.Format(time.RFC3339),
	}
	if resp.FoodPreferences == nil {
		resp.FoodPreferences = []string{}
	}
	if r.User != nil {
		resp.Username = r.User.Username
	}
	return resp
}
