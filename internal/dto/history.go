package dto

// ── 就餐记录 DTO ──

// RecordMealRequest 记录一次就餐
type RecordMealRequest struct {
	Date     string   `json:"date"     binding:"required,datetime=2006-01-02"`
	Slot     string   `json:"slot"     binding:"required,oneof=breakfast lunch dinner"`
	HallName string   `json:"hallName" binding:"required,max=100"`
	Items    []string `json:"items"    binding:"required,min=1,max=50,dive,required"`
}

// MealHistoryQuery 就餐记录查询
type MealHistoryQuery struct {
	From string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To   string `form:"to"   binding:"omitempty,datetime=2006-01-02"`
	PaginationRequest
}

// MealHistoryResponse 就餐记录
type MealHistoryResponse struct {
	ID            string   `json:"id"`
	Date          string   `json:"date"`
	Slot          string   `json:"slot"`
	HallName      string   `json:"hallName"`
	Items         []string `json:"items"`
	TotalCalories int      `json:"totalCalories"`
}
