package model

import "gorm.io/datatypes"

// UserFoodPreference 用户饮食偏好表 — 对应 user_food_preferences
// Data 原样保存提交的 JSON（兼容新旧两种形态），Skipped 表示用户跳过了问卷
type UserFoodPreference struct {
	UserID  string         `gorm:"type:uuid;primaryKey"            json:"user_id"`
	Data    datatypes.JSON `gorm:"type:jsonb;not null;default:'{}'" json:"data"`
	Skipped bool           `gorm:"not null;default:false"           json:"skipped"`
	BaseModel
}

// TableName 指定表名
func (UserFoodPreference) TableName() string { return "user_food_preferences" }
