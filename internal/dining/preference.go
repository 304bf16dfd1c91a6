package dining

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Preferences 规范化后的用户饮食偏好
type Preferences struct {
	ExcludedAllergens       TokenSet
	PreferredDietCategories TokenSet // 为空表示不限制饮食类别
	CalorieCeiling          *int     // nil 表示无热量上限
}

// NewPreferences 由调用方显式构造偏好；负的热量上限属于调用方违约
func NewPreferences(allergens, diets []string, ceiling *int) (Preferences, error) {
	p := Preferences{
		ExcludedAllergens:       NewTokenSet(allergens...),
		PreferredDietCategories: NewTokenSet(diets...),
	}
	if ceiling != nil {
		if *ceiling < 0 {
			return Preferences{}, fmt.Errorf("%w: 热量上限不能为负数", ErrInvalidArgument)
		}
		v := *ceiling
		p.CalorieCeiling = &v
	}
	return p, nil
}

// IsEmpty 没有任何约束
func (p Preferences) IsEmpty() bool {
	return len(p.ExcludedAllergens) == 0 && len(p.PreferredDietCategories) == 0 && p.CalorieCeiling == nil
}

// Validate 校验显式构造的偏好
func (p Preferences) Validate() error {
	if p.CalorieCeiling != nil && *p.CalorieCeiling < 0 {
		return fmt.Errorf("%w: 热量上限不能为负数", ErrInvalidArgument)
	}
	return nil
}

// ── 存储格式 ──
//
// 偏好记录在历史上有两种形态：
//   - current: {"excludedAllergens": [...], "dietCategories": [...], "calorieLimit": 2000}
//   - legacy:  {"allergies": [...], "diet": "vegetarian" | [...]}
//     问卷表单写入的 avoid_allergens 同样按 legacy 的 allergies 处理
//
// 判定顺序：current → legacy → 空偏好。任何脏数据都降级为“无约束”，从不报错。
// 过敏原例外：无论哪种形态，三个过敏原字段一律取并集，已存储的排除项从不丢弃。

type preferenceShape int

const (
	shapeEmpty preferenceShape = iota
	shapeCurrent
	shapeLegacy
)

var (
	currentKeys = []string{"excludedAllergens", "dietCategories", "calorieLimit"}
	legacyKeys  = []string{"allergies", "avoid_allergens", "diet"}
)

func detectShape(m map[string]any) preferenceShape {
	for _, k := range currentKeys {
		if _, ok := m[k]; ok {
			return shapeCurrent
		}
	}
	for _, k := range legacyKeys {
		if _, ok := m[k]; ok {
			return shapeLegacy
		}
	}
	return shapeEmpty
}

// NormalizePreferences 解析数据库中存储的 JSON 偏好
func NormalizePreferences(raw []byte) Preferences {
	if len(raw) == 0 {
		return Preferences{}
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return Preferences{}
	}
	return NormalizePreferenceMap(m)
}

// NormalizePreferenceMap 将任一历史形态转换为规范偏好
func NormalizePreferenceMap(m map[string]any) Preferences {
	switch detectShape(m) {
	case shapeCurrent:
		return Preferences{
			ExcludedAllergens:       NewTokenSet(allergenList(m)...),
			PreferredDietCategories: NewTokenSet(dietList(m["dietCategories"])...),
			CalorieCeiling:          calorieLimit(m["calorieLimit"]),
		}
	case shapeLegacy:
		return Preferences{
			ExcludedAllergens:       NewTokenSet(allergenList(m)...),
			PreferredDietCategories: NewTokenSet(dietList(m["diet"])...),
		}
	}
	return Preferences{}
}

// allergenList 合并所有过敏原字段
func allergenList(m map[string]any) []string {
	var out []string
	for _, k := range []string{"excludedAllergens", "allergies", "avoid_allergens"} {
		out = append(out, stringList(m[k])...)
	}
	return out
}

// stringList 接受单个字符串或字符串数组，非字符串元素忽略
func stringList(v any) []string {
	switch x := v.(type) {
	case string:
		return []string{x}
	case []string:
		return x
	case []any:
		out := make([]string, 0, len(x))
		for _, e := range x {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// dietList 问卷中的 "none" 表示不限制
func dietList(v any) []string {
	values := stringList(v)
	out := values[:0:0]
	for _, s := range values {
		if NormalizeToken(s) == "none" {
			continue
		}
		out = append(out, s)
	}
	return out
}

func calorieLimit(v any) *int {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case int:
		f = float64(x)
	case json.Number:
		n, err := x.Float64()
		if err != nil {
			return nil
		}
		f = n
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return nil
		}
		f = n
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f > math.MaxInt32 {
		return nil
	}
	n := int(f)
	return &n
}

// ToStored 生成 current 形态的存储结构
func (p Preferences) ToStored() map[string]any {
	out := map[string]any{
		"excludedAllergens": p.ExcludedAllergens.Sorted(),
		"dietCategories":    p.PreferredDietCategories.Sorted(),
	}
	if p.CalorieCeiling != nil {
		out["calorieLimit"] = *p.CalorieCeiling
	}
	return out
}
