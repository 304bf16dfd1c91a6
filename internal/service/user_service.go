package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Cyoyuu/UMass-SmartDine-Finder/internal/dto"
	"github.com/Cyoyuu/UMass-SmartDine-Finder/internal/repository"
)

// ── 用户管理业务错误 ──

var ErrUserSelfRoleChange = errors.New("不能修改自己的角色")

// UserService 用户管理业务接口（管理员）
type UserService interface {
	List(ctx context.Context, req *dto.UserListRequest) (*dto.PageResult[dto.UserListItem], error)
	AssignRole(ctx context.Context, id string, req *dto.AssignRoleRequest, callerID string) error
}

type userService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewUserService 创建 UserService 实例
func NewUserService(repo *repository.Repository, logger *zap.Logger) UserService {
	return &userService{repo: repo, logger: logger}
}

// ────────────────────── List ──────────────────────

func (s *userService) List(ctx context.Context, req *dto.UserListRequest) (*dto.PageResult[dto.UserListItem], error) {
	filter := repository.UserFilter{
		Role:    req.Role,
		Keyword: strings.TrimSpace(req.Keyword),
	}
	users, total, err := s.repo.User.List(ctx, filter, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询用户列表失败", zap.Error(err))
		return nil, err
	}

	list := make([]dto.UserListItem, 0, len(users))
	for i := range users {
		u := &users[i]
		list = append(list, dto.UserListItem{
			UserResponse:    toUserResponse(u),
			SurveyCompleted: u.FoodPreference != nil,
			CreatedAt:       u.CreatedAt.Format(time.RFC3339),
		})
	}

	return &dto.PageResult[dto.UserListItem]{
		List:     list,
		Total:    total,
		Page:     req.GetPage(),
		PageSize: req.GetPageSize(),
	}, nil
}

// ────────────────────── AssignRole ──────────────────────

// AssignRole 角色变更在对方下次刷新 token 后生效
func (s *userService) AssignRole(ctx context.Context, id string, req *dto.AssignRoleRequest, callerID string) error {
	if id == callerID {
		return ErrUserSelfRoleChange
	}

	if err := s.repo.User.UpdateRole(ctx, id, req.Role, callerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		s.logger.Error("更新用户角色失败", zap.String("id", id), zap.Error(err))
		return err
	}

	s.logger.Info("用户角色已变更",
		zap.String("user_id", id),
		zap.String("role", req.Role),
		zap.String("operator", callerID),
	)
	return nil
}
