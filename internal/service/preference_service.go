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

// ── 偏好模块业务错误 ──

var ErrInvalidPreference = errors.New("偏好内容无效")

// PreferenceService 饮食偏好 / 问卷业务接口
type PreferenceService interface {
	Get(ctx context.Context, userID string) (*dto.PreferenceResponse, error)
	Save(ctx context.Context, userID string, req *dto.SavePreferenceRequest) (*dto.PreferenceResponse, error)
	Skip(ctx context.Context, userID string) (*dto.PreferenceResponse, error)
	// Raw 返回存储的原始 JSON；未填写时返回 nil
	Raw(ctx context.Context, userID string) ([]byte, error)
}

type preferenceService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewPreferenceService 创建 PreferenceService 实例
func NewPreferenceService(repo *repository.Repository, logger *zap.Logger) PreferenceService {
	return &preferenceService{repo: repo, logger: logger}
}

func (s *preferenceService) Get(ctx context.Context, userID string) (*dto.PreferenceResponse, error) {
	pref, err := s.repo.FoodPreference.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return toPreferenceResponse(nil), nil
		}
		s.logger.Error("查询偏好失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return toPreferenceResponse(pref), nil
}

// Save 结构化字段写成规范形态，问卷字段原样保留
// 问卷中的 avoid_allergens 同时并入 excludedAllergens
func (s *preferenceService) Save(ctx context.Context, userID string, req *dto.SavePreferenceRequest) (*dto.PreferenceResponse, error) {
	stored := make(map[string]interface{})

	if req.HasStructured() {
		allergens := append(cleanList(req.ExcludedAllergens), cleanList(req.AvoidAllergens)...)
		prefs, err := dining.NewPreferences(allergens, req.DietCategories, req.CalorieLimit)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPreference, err)
		}
		for k, v := range prefs.ToStored() {
			stored[k] = v
		}
	}

	if d := strings.TrimSpace(req.Diet); d != "" {
		stored["diet"] = d
	}
	for key, list := range map[string][]string{
		"avoid_allergens":   req.AvoidAllergens,
		"avoid_ingredients": req.AvoidIngredients,
		"goals":             req.Goals,
		"likes":             req.Likes,
		"dislikes":          req.Dislikes,
	} {
		if cleaned := cleanList(list); len(cleaned) > 0 {
			stored[key] = cleaned
		}
	}

	data, err := json.Marshal(stored)
	if err != nil {
		return nil, err
	}
	pref := &model.UserFoodPreference{
		UserID: userID,
		Data:   datatypes.JSON(data),
	}
	pref.CreatedBy = &userID
	pref.UpdatedBy = &userID
	if err := s.repo.FoodPreference.Upsert(ctx, pref); err != nil {
		s.logger.Error("保存偏好失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	pref.UpdatedAt = time.Now()

	s.logger.Info("偏好已保存", zap.String("user_id", userID), zap.Int("fields", len(stored)))
	return toPreferenceResponse(pref), nil
}

// Skip 跳过问卷：保存空偏好并标记
func (s *preferenceService) Skip(ctx context.Context, userID string) (*dto.PreferenceResponse, error) {
	pref := &model.UserFoodPreference{
		UserID:  userID,
		Data:    datatypes.JSON("{}"),
		Skipped: true,
	}
	pref.CreatedBy = &userID
	pref.UpdatedBy = &userID
	if err := s.repo.FoodPreference.Upsert(ctx, pref); err != nil {
		s.logger.Error("跳过问卷失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	pref.UpdatedAt = time.Now()
	return toPreferenceResponse(pref), nil
}

func (s *preferenceService) Raw(ctx context.Context, userID string) ([]byte, error) {
	if userID == "" {
		return nil, nil
	}
	pref, err := s.repo.FoodPreference.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return []byte(pref.Data), nil
}

func toPreferenceResponse(pref *model.UserFoodPreference) *dto.PreferenceResponse {
	resp := &dto.PreferenceResponse{
		ExcludedAllergens: []string{},
		DietCategories:    []string{},
		Raw:               map[string]interface{}{},
	}
	if pref == nil {
		return resp
	}

	normalized := dining.NormalizePreferences(pref.Data)
	resp.ExcludedAllergens = normalized.ExcludedAllergens.Sorted()
	resp.DietCategories = normalized.PreferredDietCategories.Sorted()
	resp.CalorieLimit = normalized.CalorieCeiling
	_ = json.Unmarshal(pref.Data, &resp.Raw)
	if resp.Raw == nil {
		resp.Raw = map[string]interface{}{}
	}
	resp.Completed = true
	resp.Skipped = pref.Skipped
	if !pref.UpdatedAt.IsZero() {
		resp.UpdatedAt = pref.UpdatedAt.Format(time.RFC3339)
	}
	return resp
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
