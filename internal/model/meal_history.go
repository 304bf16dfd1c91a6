package model

import (
	"time"

	"gorm.io/datatypes"
)

// MealHistory 就餐记录表 — 对应 meal_histories（每人每天每餐段一条）
type MealHistory struct {
	HistoryID     string                      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"history_id"`
	UserID        string                      `gorm:"type:uuid;not null"                             json:"user_id"`
	MealDate      time.Time                   `gorm:"type:date;not null"                             json:"meal_date"`
	MealSlot      string                      `gorm:"type:varchar(16);not null"                      json:"meal_slot"`
	HallName      string                      `gorm:"type:varchar(100);not null"                     json:"hall_name"`
	Items         datatypes.JSONSlice[string] `gorm:"type:jsonb;not null;default:'[]'"               json:"items"`
	TotalCalories int                         `gorm:"not null;default:0"                             json:"total_calories"`
	BaseModel
}

// TableName 指定表名
func (MealHistory) TableName() string { return "meal_histories" }

// HallVisit 食堂到访次数统计
type HallVisit struct {
	HallName string `json:"hall_name"`
	Visits   int64  `json:"visits"`
}
