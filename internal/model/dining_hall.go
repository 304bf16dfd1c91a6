package model

import (
	"gorm.io/datatypes"

	"github.com/Cyoyuu/UMass-SmartDine-Finder/internal/dining"
)

// DiningHall 食堂表 — 对应 dining_halls
// meal_hours / meals 为 jsonb，形态随导入脚本版本变化，读取时统一经 dining.DecodeHall 规范化
type DiningHall struct {
	HallID    string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"hall_id"`
	Name      string         `gorm:"type:varchar(100);not null;uniqueIndex"         json:"name"`
	Hours     string         `gorm:"type:varchar(32);not null;default:''"           json:"hours"`
	MealHours datatypes.JSON `gorm:"type:jsonb;not null;default:'{}'"               json:"meal_hours"`
	Meals     datatypes.JSON `gorm:"type:jsonb;not null;default:'{}'"               json:"meals"`
	VersionedModel
}

// TableName 指定表名
func (DiningHall) TableName() string { return "dining_halls" }

// ToDomain 转换为推荐引擎使用的结构
func (h *DiningHall) ToDomain() dining.DiningHall {
	return dining.DecodeHall(h.Name, h.Hours, h.MealHours, h.Meals)
}
