package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"campus-report/internal/apperror"
	"campus-report/internal/dto"
	"campus-report/internal/models"
	"campus-report/internal/repository"
	"campus-report/internal/utils"

	"github.com/sirupsen/logrus"
)

const (
	msgUserFieldsRequired = "All fields are required: email, password, name, student_id"
	msgInvalidEmail       = "Invalid email format"
	msgLoginRequired      = "Email and password are required"
	msgBadCredentials     = "Invalid email or password"
	msgUserNotFound       = "User not found"
	msgPasswordTooLong    = "Password must be at most 72 bytes"
)

// UserService 用户服务
type UserService struct {
	users      *repository.UserRepository
	reports    *repository.ReportRepository
	bcryptCost int
	urlPrefix  string
	logger     *logrus.Logger

	dummyOnce sync.Once
	dummyHash string
}

// NewUserService 创建用户服务
func NewUserService(
	users *repository.UserRepository,
	reports *repository.ReportRepository,
	bcryptCost int,
	urlPrefix string,
	logger *logrus.Logger,
) *UserService {
	return &UserService{
		users:      users,
		reports:    reports,
		bcryptCost: bcryptCost,
		urlPrefix:  urlPrefix,
		logger:     logger,
	}
}

// ListUsers 按姓名列出全部用户及报告摘要
func (s *UserService) ListUsers(ctx context.Context) ([]dto.UserListItem, error) {
	users, err := s.users.ListWithReportBriefs(ctx)
	if err != nil {
		return nil, s.unexpected("Error fetching users", err)
	}

	items := make([]dto.UserListItem, 0, len(users))
	for i := range users {
		items = append(items, dto.NewUserListItem(&users[i]))
	}
	return items, nil
}

// GetUser 获取用户及其全部报告
func (s *UserService) GetUser(ctx context.Context, id uint) (*dto.UserDetail, error) {
	user, err := s.users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.NotFound(msgUserNotFound)
	}
	if err != nil {
		return nil, s.unexpected("Error fetching user", err)
	}

	detail := dto.NewUserDetail(user, s.urlPrefix)
	return &detail, nil
}

// Register 用户注册
func (s *UserService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error) {
	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	req.StudentID = strings.TrimSpace(req.StudentID)

	if errs := utils.ValidateStruct(req); errs != nil {
		if utils.HasTag(errs, "notblank") {
			return nil, apperror.Validation(msgUserFieldsRequired)
		}
		return nil, apperror.Validation(msgInvalidEmail)
	}
	if len(req.Password) > utils.MaxPasswordBytes {
		return nil, apperror.Validation(msgPasswordTooLong)
	}

	// 哈希密码
	hashedPassword, err := utils.HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		return nil, s.unexpected("Error creating user", fmt.Errorf("hash password: %w", err))
	}

	user := &models.User{
		Email:     req.Email,
		Password:  hashedPassword,
		Name:      req.Name,
		StudentID: req.StudentID,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if appErr := userConstraintError(err); appErr != nil {
			return nil, appErr
		}
		return nil, s.unexpected("Error creating user", err)
	}

	s.logger.WithFields(logrus.Fields{"user_id": user.ID, "student_id": user.StudentID}).Info("用户已注册")
	resp := dto.NewUserResponse(user)
	return &resp, nil
}

// Login 校验邮箱和密码，不签发任何令牌
func (s *UserService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.UserResponse, error) {
	req.Email = strings.TrimSpace(req.Email)
	if errs := utils.ValidateStruct(req); errs != nil {
		return nil, apperror.Validation(msgLoginRequired)
	}

	user, err := s.users.GetByEmail(ctx, req.Email)
	if errors.Is(err, repository.ErrNotFound) {
		// 未知邮箱也做一次比较，保持响应耗时一致
		_ = utils.CheckPassword(req.Password, s.dummyPasswordHash())
		return nil, apperror.Auth(msgBadCredentials)
	}
	if err != nil {
		return nil, s.unexpected("Error during login", err)
	}

	if err := utils.CheckPassword(req.Password, user.Password); err != nil {
		return nil, apperror.Auth(msgBadCredentials)
	}

	resp := dto.NewUserResponse(user)
	return &resp, nil
}

// UpdateUser 按补丁更新用户，密码会重新哈希
func (s *UserService) UpdateUser(ctx context.Context, id uint, req *dto.UpdateUserRequest) (*dto.UserResponse, error) {
	trimPtr(req.Email)
	trimPtr(req.Name)
	trimPtr(req.StudentID)

	if errs := utils.ValidateStruct(req); errs != nil {
		if utils.HasTag(errs, "email") {
			return nil, apperror.Validation(msgInvalidEmail)
		}
		return nil, apperror.Validation("Fields cannot be empty: email, password, name, student_id")
	}

	fields := make(map[string]interface{})
	if req.Email != nil {
		fields["email"] = *req.Email
	}
	if req.Name != nil {
		fields["name"] = *req.Name
	}
	if req.StudentID != nil {
		fields["student_id"] = *req.StudentID
	}
	if req.Password != nil {
		if len(*req.Password) > utils.MaxPasswordBytes {
			return nil, apperror.Validation(msgPasswordTooLong)
		}
		hashedPassword, err := utils.HashPassword(*req.Password, s.bcryptCost)
		if err != nil {
			return nil, s.unexpected("Error updating user", fmt.Errorf("hash password: %w", err))
		}
		fields["password"] = hashedPassword
	}

	// 空补丁只确认用户存在
	if !req.IsEmpty() {
		rows, err := s.users.Updates(ctx, id, fields)
		if err != nil {
			if appErr := userConstraintError(err); appErr != nil {
				return nil, appErr
			}
			return nil, s.unexpected("Error updating user", err)
		}
		if rows == 0 {
			return nil, apperror.NotFound(msgUserNotFound)
		}
	}

	user, err := s.users.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.NotFound(msgUserNotFound)
	}
	if err != nil {
		return nil, s.unexpected("Error updating user", err)
	}

	resp := dto.NewUserResponse(user)
	return &resp, nil
}

// DeleteUser 删除没有报告的用户
func (s *UserService) DeleteUser(ctx context.Context, id uint) error {
	exists, err := s.users.Exists(ctx, id)
	if err != nil {
		return s.unexpected("Error deleting user", err)
	}
	if !exists {
		return apperror.NotFound(msgUserNotFound)
	}

	if appErr := s.ensureNoReports(ctx, id); appErr != nil {
		return appErr
	}

	rows, err := s.users.Delete(ctx, id)
	if err != nil {
		// 检查之后又有报告写入
		var fkErr *repository.ForeignKeyError
		if errors.As(err, &fkErr) {
			if appErr := s.ensureNoReports(ctx, id); appErr != nil {
				return appErr
			}
		}
		return s.unexpected("Error deleting user", err)
	}
	if rows == 0 {
		return apperror.NotFound(msgUserNotFound)
	}

	s.logger.WithField("user_id", id).Info("用户已删除")
	return nil
}

func (s *UserService) ensureNoReports(ctx context.Context, id uint) error {
	count, err := s.reports.CountByUserID(ctx, id)
	if err != nil {
		return s.unexpected("Error deleting user", err)
	}
	if count > 0 {
		return apperror.Validation(fmt.Sprintf("Cannot delete user. User has %d reports. Delete reports first.", count))
	}
	return nil
}

func (s *UserService) dummyPasswordHash() string {
	s.dummyOnce.Do(func() {
		hash, err := utils.HashPassword("campus-report-dummy-password", s.bcryptCost)
		if err != nil {
			s.logger.WithError(err).Error("生成占位哈希失败")
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

func (s *UserService) unexpected(msg string, err error) error {
	s.logger.WithError(err).Error(msg)
	return apperror.Unexpected(msg, err)
}

// userConstraintError 把唯一约束和非空约束错误转换为400
func userConstraintError(err error) error {
	var dupErr *repository.DuplicateKeyError
	if errors.As(err, &dupErr) {
		switch dupErr.Field {
		case "email":
			return apperror.Conflict("Email already exists", err)
		case "student_id":
			return apperror.Conflict("Student ID already exists", err)
		default:
			return apperror.Conflict("Duplicate entry", err)
		}
	}

	var nullErr *repository.NotNullError
	if errors.As(err, &nullErr) {
		return apperror.Validation(msgUserFieldsRequired)
	}
	return nil
}

func trimPtr(s *string) {
	if s != nil {
		*s = strings.TrimSpace(*s)
	}
}
