package dining

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrInvalidArgument 调用方传入了明显非法的参数（区别于脏数据，脏数据一律降级处理）
var ErrInvalidArgument = errors.New("参数非法")

// MealSlot 餐段
type MealSlot string

const (
	MealBreakfast MealSlot = "breakfast"
	MealLunch     MealSlot = "lunch"
	MealDinner    MealSlot = "dinner"
	MealClosed    MealSlot = "closed"
)

// MealSlots 可供应的餐段（按一天中的顺序）
var MealSlots = []MealSlot{MealBreakfast, MealLunch, MealDinner}

// ParseMealSlot 解析调用方指定的餐段，空串返回 ""（表示按时间自动判断）
func ParseMealSlot(s string) (MealSlot, error) {
	switch MealSlot(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return "", nil
	case MealBreakfast:
		return MealBreakfast, nil
	case MealLunch:
		return MealLunch, nil
	case MealDinner:
		return MealDinner, nil
	}
	return "", fmt.Errorf("%w: 未知餐段 %q", ErrInvalidArgument, s)
}

// MenuItem 某个餐厅某个餐段的一道菜（每次请求加载的只读快照）
type MenuItem struct {
	Name             string   `json:"name"`
	Calories         int      `json:"calories,omitempty"` // 0 表示未知
	WeeklySelections int      `json:"weeklySelections,omitempty"`
	DietCategories   []string `json:"dietCategories,omitempty"`
	Allergens        []string `json:"allergens,omitempty"`
	Ingredients      string   `json:"ingredients,omitempty"` // 仅展示用，不参与过滤
}

// DiningHall 一个食堂及其各餐段菜单
type DiningHall struct {
	Name      string                  `json:"hallName"`
	Hours     string                  `json:"hours"`
	MealHours map[MealSlot]string     `json:"mealHours,omitempty"`
	Meals     map[MealSlot][]MenuItem `json:"meals,omitempty"`
}

// ItemsFor 返回指定餐段的菜品（可能为空）
func (h DiningHall) ItemsFor(slot MealSlot) []MenuItem {
	if h.Meals == nil {
		return nil
	}
	return h.Meals[slot]
}

// ── 大小写不敏感的标签集合 ──

// TokenSet 规范化后的标签集合（过敏原 / 饮食类别）
type TokenSet map[string]struct{}

// NormalizeToken 统一大小写、首尾空白与分隔符：
// "Tree_Nuts" / " tree-nuts " / "TREE NUTS" 都规范为 "tree nuts"
func NormalizeToken(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("_", " ", "-", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// NewTokenSet 由字符串列表构造集合，空标签被丢弃
func NewTokenSet(values ...string) TokenSet {
	set := make(TokenSet, len(values))
	for _, v := range values {
		if t := NormalizeToken(v); t != "" {
			set[t] = struct{}{}
		}
	}
	return set
}

// Has 判断集合是否包含某个（未规范化的）标签
func (s TokenSet) Has(v string) bool {
	_, ok := s[NormalizeToken(v)]
	return ok
}

// CountIn 统计 values 中命中集合的不同标签数
func (s TokenSet) CountIn(values []string) int {
	if len(s) == 0 || len(values) == 0 {
		return 0
	}
	matched := make(map[string]struct{}, len(values))
	for _, v := range values {
		t := NormalizeToken(v)
		if _, ok := s[t]; ok {
			matched[t] = struct{}{}
		}
	}
	return len(matched)
}

// Intersects 判断 values 与集合是否有交集
func (s TokenSet) Intersects(values []string) bool {
	if len(s) == 0 {
		return false
	}
	for _, v := range values {
		if _, ok := s[NormalizeToken(v)]; ok {
			return true
		}
	}
	return false
}

// Sorted 返回有序标签列表（用于序列化与展示）
func (s TokenSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
