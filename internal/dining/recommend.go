package dining

import (
	"fmt"
	"sort"
	"time"
)

// Engine 推荐引擎：组合时间判定、偏好规范化、硬过滤与评分
//
// 引擎是纯函数式的：不做 I/O、不缓存、不修改入参，相同输入必然得到相同输出，
// 因此可以被多个请求并发调用而无需加锁。
type Engine struct {
	resolver *Resolver
	scorer   *Scorer
}

// NewEngine 创建 Engine
func NewEngine(schedule MealSchedule, scoring ScoringConfig) (*Engine, error) {
	resolver, err := NewResolver(schedule)
	if err != nil {
		return nil, err
	}
	scorer, err := NewScorer(scoring)
	if err != nil {
		return nil, err
	}
	return &Engine{resolver: resolver, scorer: scorer}, nil
}

// Resolver 暴露时间判定器
func (e *Engine) Resolver() *Resolver { return e.resolver }

// Scorer 暴露评分器
func (e *Engine) Scorer() *Scorer { return e.scorer }

// Options 推荐参数
type Options struct {
	Slot    MealSlot           // 为空时按 now 自动判断
	Signals map[string]float64 // 食堂名 → 外部加分（评价、就餐历史）
	Limit   int                // 每个食堂最多返回的菜品数，0 表示不限
}

// HallRecommendation 单个食堂的推荐结果
type HallRecommendation struct {
	HallName string       `json:"hallName"`
	IsOpen   bool         `json:"isOpen"`
	Score    float64      `json:"score"`
	Stats    HallScore    `json:"stats"`
	Items    []ScoredItem `json:"items"`
}

// Recommendation 推荐结果（表现层唯一需要渲染的载荷）
type Recommendation struct {
	Slot    MealSlot             `json:"mealSlot"`
	Weekend bool                 `json:"weekend"`
	Halls   []HallRecommendation `json:"halls"`
}

func (e *Engine) checkArgs(now time.Time, opts Options) error {
	if now.IsZero() {
		return fmt.Errorf("%w: 时间点不能为空", ErrInvalidArgument)
	}
	if opts.Slot != "" {
		if _, err := ParseMealSlot(string(opts.Slot)); err != nil {
			return err
		}
	}
	if opts.Limit < 0 {
		return fmt.Errorf("%w: limit 不能为负数", ErrInvalidArgument)
	}
	return nil
}

// BuildRecommendations 生成推荐
//
// 流程：
//  1. 规范化偏好
//  2. 解析餐段（显式指定优先，周末早餐替换仍生效）
//  3. 逐个食堂：判定营业 → 取该餐段菜品 → 硬过滤 → 评分
//  4. 食堂排序：可排名（营业且有可选菜品）在前，得分降序，同分按名称升序
//  5. 食堂内菜品按得分降序，同分保持原顺序
func (e *Engine) BuildRecommendations(halls []DiningHall, rawPreferences []byte, now time.Time, opts Options) (*Recommendation, error) {
	return e.Recommend(halls, NormalizePreferences(rawPreferences), now, opts)
}

// Recommend 与 BuildRecommendations 相同，但接收已规范化的偏好
func (e *Engine) Recommend(halls []DiningHall, prefs Preferences, now time.Time, opts Options) (*Recommendation, error) {
	if err := e.checkArgs(now, opts); err != nil {
		return nil, err
	}
	if err := prefs.Validate(); err != nil {
		return nil, err
	}

	slot := e.resolver.ResolveSlot(opts.Slot, now)
	result := &Recommendation{
		Slot:    slot,
		Weekend: IsWeekend(now),
		Halls:   make([]HallRecommendation, 0, len(halls)),
	}

	for _, hall := range halls {
		result.Halls = append(result.Halls, e.recommendHall(hall, slot, prefs, now, opts))
	}

	sort.SliceStable(result.Halls, func(i, j int) bool {
		a, b := result.Halls[i], result.Halls[j]
		if a.Stats.Rankable != b.Stats.Rankable {
			return a.Stats.Rankable
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return a.HallName < b.HallName
	})

	return result, nil
}

// recommendHall 单个食堂出错（panic）时按关门处理，不影响其他食堂
func (e *Engine) recommendHall(hall DiningHall, slot MealSlot, prefs Preferences, now time.Time, opts Options) (rec HallRecommendation) {
	defer func() {
		if r := recover(); r != nil {
			rec = HallRecommendation{HallName: hall.Name, Items: []ScoredItem{}}
		}
	}()

	open := e.resolver.IsHallOpenForSlot(hall, slot, now)
	total := hall.ItemsFor(slot)
	ranked := e.scorer.RankItems(Filter(total, prefs), prefs)
	stats := e.scorer.HallScore(total, ranked, opts.Signals[hall.Name], open)

	if opts.Limit > 0 && len(ranked) > opts.Limit {
		ranked = ranked[:opts.Limit]
	}
	return HallRecommendation{
		HallName: hall.Name,
		IsOpen:   open,
		Score:    stats.Score,
		Stats:    stats,
		Items:    ranked,
	}
}

// HallScore 单独计算某食堂某餐段的得分
func (e *Engine) HallScore(hall DiningHall, slot MealSlot, prefs Preferences, signal float64, now time.Time) HallScore {
	slot = e.resolver.ResolveSlot(slot, now)
	open := e.resolver.IsHallOpenForSlot(hall, slot, now)
	total := hall.ItemsFor(slot)
	ranked := e.scorer.RankItems(Filter(total, prefs), prefs)
	return e.scorer.HallScore(total, ranked, signal, open)
}

// HallMenu 仅做安全过滤的菜单（不排序）
type HallMenu struct {
	HallName string                  `json:"hallName"`
	Hours    string                  `json:"hours"`
	IsOpen   bool                    `json:"isOpen"`
	Meals    map[MealSlot][]MenuItem `json:"meals"`
}

// FilteredMenu 返回各食堂过滤后的完整菜单；周末不返回早餐
func (e *Engine) FilteredMenu(halls []DiningHall, prefs Preferences, now time.Time) ([]HallMenu, error) {
	if now.IsZero() {
		return nil, fmt.Errorf("%w: 时间点不能为空", ErrInvalidArgument)
	}
	if err := prefs.Validate(); err != nil {
		return nil, err
	}
	out := make([]HallMenu, 0, len(halls))
	for _, hall := range halls {
		meals := FilterMeals(hall, prefs)
		if IsWeekend(now) {
			meals[MealBreakfast] = []MenuItem{}
		}
		out = append(out, HallMenu{
			HallName: hall.Name,
			Hours:    hall.Hours,
			IsOpen:   e.resolver.IsHallOpen(hall, now),
			Meals:    meals,
		})
	}
	return out, nil
}
