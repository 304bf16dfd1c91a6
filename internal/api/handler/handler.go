package handler

import "github.com/Cyoyuu/UMass-SmartDine-Finder/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth           *AuthHandler
	Preference     *PreferenceHandler
	Menu           *MenuHandler
	Recommendation *RecommendationHandler
	Review         *ReviewHandler
	History        *HistoryHandler
	Admin          *AdminHandler
	User           *UserHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:           NewAuthHandler(svc.Auth),
		Preference:     NewPreferenceHandler(svc.Preference),
		Menu:           NewMenuHandler(svc.Menu, svc.Calendar),
		Recommendation: NewRecommendationHandler(svc.Recommendation, svc.Export),
		Review:         NewReviewHandler(svc.Review),
		History:        NewHistoryHandler(svc.MealHistory),
		Admin:          NewAdminHandler(svc.Menu, svc.Catalog),
		User:           NewUserHandler(svc.User),
	}
}
