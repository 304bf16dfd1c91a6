package dto

// ── 饮食偏好 / 问卷 DTO ──

// SavePreferenceRequest 保存偏好
// 结构化字段（excludedAllergens / dietCategories / calorieLimit）与问卷字段可同时提交；
// 只要出现任一结构化字段，推荐时以结构化字段为准
type SavePreferenceRequest struct {
	ExcludedAllergens []string `json:"excludedAllergens"`
	DietCategories    []string `json:"dietCategories"`
	CalorieLimit      *int     `json:"calorieLimit" binding:"omitempty,min=0"`

	// 问卷字段，原样保存
	Diet             string   `json:"diet"              binding:"omitempty,max=32"`
	AvoidAllergens   []string `json:"avoid_allergens"`
	AvoidIngredients []string `json:"avoid_ingredients"`
	Goals            []string `json:"goals"`
	Likes            []string `json:"likes"`
	Dislikes         []string `json:"dislikes"`
}

// HasStructured 是否提交了结构化字段
func (r *SavePreferenceRequest) HasStructured() bool {
	return r.ExcludedAllergens != nil || r.DietCategories != nil || r.CalorieLimit != nil
}

// PreferenceResponse 偏好响应：规范化视图 + 原始存储
type PreferenceResponse struct {
	ExcludedAllergens []string               `json:"excludedAllergens"`
	DietCategories    []string               `json:"dietCategories"`
	CalorieLimit      *int                   `json:"calorieLimit"`
	Raw               map[string]interface{} `json:"raw"`
	Completed         bool                   `json:"completed"` // 已提交或已跳过问卷
	Skipped           bool                   `json:"skipped"`
	UpdatedAt         string                 `json:"updated_at,omitempty"`
}
