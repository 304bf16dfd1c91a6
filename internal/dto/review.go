package dto

// ── 评价 DTO ──

// FoodPreferenceChoices 评价可选的饮食标签
var FoodPreferenceChoices = []string{
	"vegetarian", "local", "sustainable", "whole_grain", "halal", "antibiotic_free", "plant_based",
}

// SubmitReviewRequest 提交评价
type SubmitReviewRequest struct {
	Rating          int      `json:"rating"          binding:"required,min=1,max=5"`
	ReviewText      string   `json:"reviewText"      binding:"max=1000"`
	FoodPreferences []string `json:"foodPreferences" binding:"omitempty,dive,oneof=vegetarian local sustainable whole_grain halal antibiotic_free plant_based"`
}

// ReviewResponse 评价
type ReviewResponse struct {
	ID              string   `json:"id"`
	HallName        string   `json:"hallName"`
	Username        string   `json:"username,omitempty"`
	Rating          int      `json:"rating"`
	ReviewText      string   `json:"reviewText"`
	FoodPreferences []string `json:"foodPreferences"`
	UpdatedAt       string   `json:"updated_at"`
}

// HallRatingResponse 食堂评价汇总
type HallRatingResponse struct {
	HallName string  `json:"hallName"`
	Average  float64 `json:"average"`
	Count    int64   `json:"count"`
}
