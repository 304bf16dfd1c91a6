package dining

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ── 食堂记录解码 ──────────────────────────────────────────────
//
// 数据库中 meal_hours / meals 以 jsonb 存储，形态随抓取脚本版本变化：
//   - 菜品可能是纯字符串（旧格式）或对象
//   - 名称字段：name / dish-name / item_name / item / title
//   - 饮食类别：dietCategories / dietTags / diets
//   - 热量、人气可能是数字或数字字符串
//
// 解码在边界处一次完成，之后评分逻辑只面对强类型结构。无法识别的内容直接丢弃。
// ─────────────────────────────────────────────────────────────

const unnamedDish = "Unnamed Dish"

var (
	nameKeys = []string{"name", "dish-name", "item_name", "item", "title"}
	dietKeys = []string{"dietCategories", "dietTags", "diets"}
)

// DecodeHall 将存储记录转换为 DiningHall
func DecodeHall(name, hours string, mealHoursJSON, mealsJSON []byte) DiningHall {
	return DiningHall{
		Name:      name,
		Hours:     hours,
		MealHours: DecodeMealHours(mealHoursJSON),
		Meals:     DecodeMeals(mealsJSON),
	}
}

// DecodeMealHours 解析 {"breakfast": "07:00-10:30", ...}；未知餐段与非字符串值忽略
func DecodeMealHours(raw []byte) map[MealSlot]string {
	out := make(map[MealSlot]string)
	var m map[string]any
	if len(raw) == 0 || json.Unmarshal(raw, &m) != nil {
		return out
	}
	for k, v := range m {
		slot, err := ParseMealSlot(k)
		if err != nil || slot == "" {
			continue
		}
		if s, ok := v.(string); ok {
			out[slot] = s
		}
	}
	return out
}

// DecodeMeals 解析 {"breakfast": [...], "lunch": [...], "dinner": [...]}
func DecodeMeals(raw []byte) map[MealSlot][]MenuItem {
	out := make(map[MealSlot][]MenuItem)
	var m map[string]any
	if len(raw) == 0 || json.Unmarshal(raw, &m) != nil {
		return out
	}
	for k, v := range m {
		slot, err := ParseMealSlot(k)
		if err != nil || slot == "" {
			continue
		}
		list, ok := v.([]any)
		if !ok {
			continue
		}
		items := make([]MenuItem, 0, len(list))
		for _, e := range list {
			if it, ok := decodeItem(e); ok {
				items = append(items, it)
			}
		}
		out[slot] = items
	}
	return out
}

func decodeItem(v any) (MenuItem, bool) {
	switch x := v.(type) {
	case string:
		if strings.TrimSpace(x) == "" {
			return MenuItem{}, false
		}
		return MenuItem{Name: strings.TrimSpace(x)}, true
	case map[string]any:
		it := MenuItem{
			Name:             itemName(x),
			Calories:         nonNegativeInt(x["calories"]),
			WeeklySelections: nonNegativeInt(x["weeklySelections"]),
			Allergens:        stringList(x["allergens"]),
			Ingredients:      ingredients(x),
		}
		for _, k := range dietKeys {
			if d, ok := x[k]; ok {
				it.DietCategories = stringList(d)
				break
			}
		}
		return it, true
	}
	return MenuItem{}, false
}

func itemName(m map[string]any) string {
	for _, k := range nameKeys {
		if s, ok := m[k].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return unnamedDish
}

func ingredients(m map[string]any) string {
	if s, ok := m["ingredients"].(string); ok {
		return s
	}
	return strings.Join(stringList(m["ingredient-list"]), ", ")
}

func nonNegativeInt(v any) int {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0
		}
		f = n
	default:
		return 0
	}
	if math.IsNaN(f) || f <= 0 || f > math.MaxInt32 {
		return 0
	}
	return int(f)
}

// EncodeMeals / EncodeMealHours 写回存储时使用的规范形态
func EncodeMeals(meals map[MealSlot][]MenuItem) ([]byte, error) {
	return json.Marshal(meals)
}

func EncodeMealHours(hours map[MealSlot]string) ([]byte, error) {
	return json.Marshal(hours)
}
