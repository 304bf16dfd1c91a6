package dining

import (
	"fmt"
	"math"
	"sort"
)

// HallPolicy 食堂得分的聚合方式
type HallPolicy string

const (
	PolicyMean HallPolicy = "mean" // 全部可选菜品得分的平均值
	PolicyTopK HallPolicy = "topk" // 得分最高的 K 道菜的平均值
)

// ScoringConfig 评分权重
type ScoringConfig struct {
	BaseScore            float64
	DietMatchBonus       float64 // 每命中一个偏好饮食类别的加分
	PopularityMaxBonus   float64 // 人气加分上限，必须小于 DietMatchBonus
	PopularitySaturation int     // 周点选次数达到该值时人气加分封顶
	HallPolicy           HallPolicy
	TopK                 int
}

// DefaultScoringConfig 默认权重
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		BaseScore:            50,
		DietMatchBonus:       15,
		PopularityMaxBonus:   10,
		PopularitySaturation: 200,
		HallPolicy:           PolicyMean,
		TopK:                 5,
	}
}

// Validate 校验权重，保证人气加分无法压过一次饮食匹配
func (c ScoringConfig) Validate() error {
	switch {
	case c.DietMatchBonus <= 0:
		return fmt.Errorf("%w: diet_match_bonus 必须为正数", ErrInvalidArgument)
	case c.PopularityMaxBonus < 0 || c.PopularityMaxBonus >= c.DietMatchBonus:
		return fmt.Errorf("%w: popularity_max_bonus 必须在 [0, diet_match_bonus) 之间", ErrInvalidArgument)
	case c.PopularitySaturation <= 0:
		return fmt.Errorf("%w: popularity_saturation 必须为正数", ErrInvalidArgument)
	}
	switch c.HallPolicy {
	case PolicyMean:
	case PolicyTopK:
		if c.TopK <= 0 {
			return fmt.Errorf("%w: top_k 必须为正数", ErrInvalidArgument)
		}
	default:
		return fmt.Errorf("%w: 未知的聚合策略 %q", ErrInvalidArgument, c.HallPolicy)
	}
	return nil
}

// ScoredItem 菜品及其得分
type ScoredItem struct {
	Item  MenuItem `json:"item"`
	Score float64  `json:"score"`
}

// HallScore 食堂在某餐段的评分结果
type HallScore struct {
	Score         float64 `json:"score"`
	Rankable      bool    `json:"-"` // 营业且有可选菜品
	TotalItems    int     `json:"totalItems"`
	EligibleItems int     `json:"eligibleItems"`
	TotalCalories int     `json:"totalCalories"`
	MatchRate     float64 `json:"matchRate"` // 可选菜品占比（百分数）
}

// Scorer 评分器（只读，可并发使用）
type Scorer struct {
	cfg ScoringConfig
}

// NewScorer 创建 Scorer
func NewScorer(cfg ScoringConfig) (*Scorer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{cfg: cfg}, nil
}

// ScoreItem 单道菜得分 = 基础分 + 饮食匹配加分（按命中数） + 人气加分（线性，封顶）
// 过敏原不参与评分：能进入评分的菜品已经通过硬过滤
func (s *Scorer) ScoreItem(item MenuItem, prefs Preferences) float64 {
	score := s.cfg.BaseScore
	score += s.cfg.DietMatchBonus * float64(prefs.PreferredDietCategories.CountIn(item.DietCategories))
	score += s.popularity(item.WeeklySelections)
	return round2(score)
}

func (s *Scorer) popularity(selections int) float64 {
	if selections <= 0 {
		return 0
	}
	ratio := float64(selections) / float64(s.cfg.PopularitySaturation)
	if ratio > 1 {
		ratio = 1
	}
	return s.cfg.PopularityMaxBonus * ratio
}

// RankItems 按得分降序排列，得分相同保持原有顺序
func (s *Scorer) RankItems(items []MenuItem, prefs Preferences) []ScoredItem {
	out := make([]ScoredItem, len(items))
	for i, it := range items {
		out[i] = ScoredItem{Item: it, Score: s.ScoreItem(it, prefs)}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// HallScore 计算食堂在某餐段的得分
//
// 关门、该餐段无菜品或过滤后无可选菜品时得分为 0 且不参与排名；
// 否则为可选菜品得分按策略聚合后再加上外部信号 signal（评价 / 就餐历史）。
// ranked 为 RankItems 的结果（已过滤、已排序）。
func (s *Scorer) HallScore(total []MenuItem, ranked []ScoredItem, signal float64, open bool) HallScore {
	hs := HallScore{TotalItems: len(total), EligibleItems: len(ranked)}
	for _, it := range ranked {
		hs.TotalCalories += it.Item.Calories
	}
	if len(total) > 0 {
		hs.MatchRate = round2(float64(len(ranked)) * 100 / float64(len(total)))
	}
	if !open || len(total) == 0 || len(ranked) == 0 {
		return hs
	}

	n := len(ranked)
	if s.cfg.HallPolicy == PolicyTopK && s.cfg.TopK < n {
		n = s.cfg.TopK
	}
	var sum float64
	for _, it := range ranked[:n] {
		sum += it.Score
	}
	if math.IsNaN(signal) || math.IsInf(signal, 0) {
		signal = 0
	}
	hs.Score = round2(sum/float64(n) + signal)
	hs.Rankable = true
	return hs
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
