package dto

// ── 用户管理 DTO（管理员） ──

// UserListRequest 用户列表查询参数
type UserListRequest struct {
	PaginationRequest
	Role    string `form:"role"    binding:"omitempty,oneof=student admin"`
	Keyword string `form:"keyword" binding:"omitempty,max=50"`
}

// AssignRoleRequest 分配角色请求
type AssignRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=student admin"`
}

// UserListItem 用户列表项
type UserListItem struct {
	UserResponse
	SurveyCompleted bool   `json:"survey_completed"`
	CreatedAt       string `json:"created_at"`
}
