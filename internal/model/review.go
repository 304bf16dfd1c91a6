package model

import "gorm.io/datatypes"

// Review 食堂评价表 — 对应 reviews（每个用户对每个食堂仅一条）
type Review struct {
	ReviewID        string                      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"review_id"`
	UserID          string                      `gorm:"type:uuid;not null"                             json:"user_id"`
	HallName        string                      `gorm:"type:varchar(100);not null"                     json:"hall_name"`
	Rating          int                         `gorm:"type:smallint;not null"                         json:"rating"`
	ReviewText      string                      `gorm:"type:varchar(1000);not null;default:''"         json:"review_text"`
	FoodPreferences datatypes.JSONSlice[string] `gorm:"type:jsonb;not null;default:'[]'"               json:"food_preferences"`
	BaseModel

	// 关联
	User *User `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
}

// TableName 指定表名
func (Review) TableName() string { return "reviews" }

// HallRating 食堂评价汇总
type HallRating struct {
	HallName string  `json:"hall_name"`
	Average  float64 `json:"average"`
	Count    int64   `json:"count"`
}
