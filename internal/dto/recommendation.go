package dto

// ── 推荐 DTO ──

// RecommendationQuery 推荐查询参数
type RecommendationQuery struct {
	Slot  string `form:"slot"  binding:"omitempty,oneof=breakfast lunch dinner"`
	Limit int    `form:"limit" binding:"omitempty,min=0,max=100"`
	// 预览指定时刻（RFC3339），为空时使用当前时间
	At string `form:"at"`
}
