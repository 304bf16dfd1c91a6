package dto

import "encoding/json"

// ── 食堂 / 菜单 DTO ──

// HallSummary 食堂概要
type HallSummary struct {
	Name      string            `json:"hallName"`
	Hours     string            `json:"hours"`
	MealHours map[string]string `json:"mealHours,omitempty"`
	IsOpen    bool              `json:"isOpen"`
}

// HallListResponse 食堂列表
type HallListResponse struct {
	CurrentSlot string        `json:"currentSlot"`
	Weekend     bool          `json:"weekend"`
	Halls       []HallSummary `json:"halls"`
}

// UpsertHallRequest 新增或更新食堂（管理员）
// meals 接受导入脚本的各种历史形态，保存前统一规范化
type UpsertHallRequest struct {
	Name      string            `json:"hallName"  binding:"required,max=100"`
	Hours     string            `json:"hours"     binding:"omitempty,max=32"`
	MealHours map[string]string `json:"mealHours"`
	Meals     json.RawMessage   `json:"meals"`
	Version   int               `json:"version"` // 更新时携带，用于乐观锁；0 表示不校验
}

// HallResponse 食堂详情
type HallResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"hallName"`
	Hours     string          `json:"hours"`
	MealHours json.RawMessage `json:"mealHours"`
	Meals     json.RawMessage `json:"meals"`
	Version   int             `json:"version"`
	UpdatedAt string          `json:"updated_at"`
}

// CacheStatusResponse 菜单快照状态
type CacheStatusResponse struct {
	Halls    int    `json:"halls"`
	LoadedAt string `json:"loaded_at"`
}
