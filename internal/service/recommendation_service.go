package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Cyoyuu/UMass-SmartDine-Finder/config"
	"github.com/Cyoyuu/UMass-SmartDine-Finder/internal/dining"
	"github.com/Cyoyuu/UMass-SmartDine-Finder/internal/dto"
	"github.com/Cyoyuu/UMass-SmartDine-Finder/internal/repository"
)

// ── 推荐模块业务错误 ──

var ErrInvalidQuery = errors.New("推荐参数无效")

// 同一食堂的就餐次数超过该值后不再继续加分
const maxCountedVisits = 10

// neutralRating 评价均分高于该值加分，低于该值减分
const neutralRating = 3.0

// RecommendationService 推荐业务接口
type RecommendationService interface {
	// Recommend userID 为空时按匿名用户处理（无偏好、无就餐历史）
	Recommend(ctx context.Context, userID string, q *dto.RecommendationQuery) (*dining.Recommendation, error)
}

type recommendationService struct {
	cfg     *config.Config
	repo    *repository.Repository
	engine  *dining.Engine
	catalog MenuCatalog
	prefs   PreferenceService
	loc     *time.Location
	now     func() time.Time
	logger  *zap.Logger
}

// NewRecommendationService 创建 RecommendationService 实例
func NewRecommendationService(
	cfg *config.Config,
	repo *repository.Repository,
	engine *dining.Engine,
	catalog MenuCatalog,
	prefs PreferenceService,
	loc *time.Location,
	now func() time.Time,
	logger *zap.Logger,
) RecommendationService {
	return &recommendationService{
		cfg:     cfg,
		repo:    repo,
		engine:  engine,
		catalog: catalog,
		prefs:   prefs,
		loc:     loc,
		now:     now,
		logger:  logger,
	}
}

// Recommend 推荐流程：
//  1. 解析参数与时间点（转换到校园本地时区）
//  2. 取菜单快照与用户偏好
//  3. 汇总外部信号（评价均分、近期就餐次数），失败时忽略信号
//  4. 交给推荐引擎计算
func (s *recommendationService) Recommend(ctx context.Context, userID string, q *dto.RecommendationQuery) (*dining.Recommendation, error) {
	if q == nil {
		q = &dto.RecommendationQuery{}
	}
	slot, err := dining.ParseMealSlot(q.Slot)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	now, err := s.resolveTime(q.At)
	if err != nil {
		return nil, err
	}

	snap, err := s.catalog.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	raw, err := s.prefs.Raw(ctx, userID)
	if err != nil {
		s.logger.Warn("读取偏好失败，按无偏好处理", zap.String("user_id", userID), zap.Error(err))
		raw = nil
	}

	rec, err := s.engine.BuildRecommendations(snap.Halls, raw, now, dining.Options{
		Slot:    slot,
		Signals: s.signals(ctx, userID, now),
		Limit:   q.Limit,
	})
	if err != nil {
		if errors.Is(err, dining.ErrInvalidArgument) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
		}
		s.logger.Error("生成推荐失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	s.logger.Debug("推荐已生成",
		zap.String("user_id", userID),
		zap.String("slot", string(rec.Slot)),
		zap.Int("halls", len(rec.Halls)),
	)
	return rec, nil
}

func (s *recommendationService) resolveTime(at string) (time.Time, error) {
	if at == "" {
		return s.now().In(s.loc), nil
	}
	t, err := time.Parse(time.RFC3339, at)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: at 必须为 RFC3339 时间", ErrInvalidQuery)
	}
	return t.In(s.loc), nil
}

// signals 食堂名 → 加分；任何一路信号失败只记录日志
func (s *recommendationService) signals(ctx context.Context, userID string, now time.Time) map[string]float64 {
	out := make(map[string]float64)

	if s.cfg.Feature.ReviewSignal && s.cfg.Dining.ReviewWeight > 0 {
		ratings, err := s.repo.Review.AverageRatings(ctx)
		if err != nil {
			s.logger.Warn("读取评价均分失败，忽略评价信号", zap.Error(err))
		}
		for _, r := range ratings {
			if r.Count == 0 {
				continue
			}
			out[r.HallName] += s.cfg.Dining.ReviewWeight * (r.Average - neutralRating)
		}
	}

	if userID != "" && s.cfg.Feature.HistorySignal && s.cfg.Dining.HistoryWeight > 0 {
		since := now.AddDate(0, 0, -s.cfg.Dining.HistoryLookbackDays)
		visits, err := s.repo.MealHistory.HallVisitCounts(ctx, userID, since)
		if err != nil {
			s.logger.Warn("读取就餐历史失败，忽略历史信号", zap.String("user_id", userID), zap.Error(err))
		}
		for _, v := range visits {
			n := v.Visits
			if n > maxCountedVisits {
				n = maxCountedVisits
			}
			out[v.HallName] += s.cfg.Dining.HistoryWeight * float64(n)
		}
	}

	return out
}
