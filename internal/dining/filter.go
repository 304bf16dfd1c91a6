package dining

// IsEligible 硬过滤规则，命中任意一条即排除：
//   - 菜品过敏原与排除集合有交集
//   - 用户指定了饮食类别，而菜品类别与之无交集
//   - 设置了热量上限，且菜品热量已知并超出上限（热量为 0 视为未知，不排除）
func IsEligible(item MenuItem, prefs Preferences) bool {
	if prefs.ExcludedAllergens.Intersects(item.Allergens) {
		return false
	}
	if len(prefs.PreferredDietCategories) > 0 && !prefs.PreferredDietCategories.Intersects(item.DietCategories) {
		return false
	}
	if prefs.CalorieCeiling != nil && item.Calories > 0 && item.Calories > *prefs.CalorieCeiling {
		return false
	}
	return true
}

// Filter 返回满足偏好的菜品，保持原有顺序；不修改入参
func Filter(items []MenuItem, prefs Preferences) []MenuItem {
	out := make([]MenuItem, 0, len(items))
	if prefs.IsEmpty() {
		return append(out, items...)
	}
	for _, it := range items {
		if IsEligible(it, prefs) {
			out = append(out, it)
		}
	}
	return out
}

// FilterMeals 对食堂全部餐段做硬过滤（菜单展示用，不排序）
func FilterMeals(hall DiningHall, prefs Preferences) map[MealSlot][]MenuItem {
	out := make(map[MealSlot][]MenuItem, len(MealSlots))
	for _, slot := range MealSlots {
		out[slot] = Filter(hall.ItemsFor(slot), prefs)
	}
	return out
}
