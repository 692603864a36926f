package dto

import (
	"time"

	"campus-report/internal/models"
)

// RegisterRequest 注册请求
type RegisterRequest struct {
	Email     string `json:"email" form:"email" validate:"notblank,email"`
	Password  string `json:"password" form:"password" validate:"notblank"`
	Name      string `json:"name" form:"name" validate:"notblank"`
	StudentID string `json:"student_id" form:"student_id" validate:"notblank"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" form:"email" validate:"notblank"`
	Password string `json:"password" form:"password" validate:"notblank"`
}

// UpdateUserRequest 用户部分更新，nil 表示不修改
type UpdateUserRequest struct {
	Email     *string `json:"email" form:"email" validate:"omitempty,notblank,email"`
	Password  *string `json:"password" form:"password" validate:"omitempty,notblank"`
	Name      *string `json:"name" form:"name" validate:"omitempty,notblank"`
	StudentID *string `json:"student_id" form:"student_id" validate:"omitempty,notblank"`
}

// IsEmpty 是否没有任何字段
func (r *UpdateUserRequest) IsEmpty() bool {
	return r.Email == nil && r.Password == nil && r.Name == nil && r.StudentID == nil
}

// UserResponse 用户信息，不含密码
type UserResponse struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	StudentID string    `json:"student_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ReportBrief 用户列表中的报告摘要
type ReportBrief struct {
	ID          uint      `json:"id"`
	ReportTitle string    `json:"report_title"`
	Location    string    `json:"location"`
	CreatedAt   time.Time `json:"created_at"`
}

// UserListItem 用户列表项
type UserListItem struct {
	UserResponse
	Reports []ReportBrief `json:"reports"`
}

// UserDetail 用户详情，带完整报告
type UserDetail struct {
	UserResponse
	Reports []ReportResponse `json:"reports"`
}

// NewUserResponse 从模型构建
func NewUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		StudentID: u.StudentID,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// NewUserListItem 从模型构建，报告只保留摘要
func NewUserListItem(u *models.User) UserListItem {
	briefs := make([]ReportBrief, 0, len(u.Reports))
	for _, r := range u.Reports {
		briefs = append(briefs, ReportBrief{
			ID:          r.ID,
			ReportTitle: r.ReportTitle,
			Location:    r.Location,
			CreatedAt:   r.CreatedAt,
		})
	}
	return UserListItem{UserResponse: NewUserResponse(u), Reports: briefs}
}

// NewUserDetail 从模型构建，urlPrefix 用于生成 photo_url
func NewUserDetail(u *models.User, urlPrefix string) UserDetail {
	reports := make([]ReportResponse, 0, len(u.Reports))
	for i := range u.Reports {
		reports = append(reports, NewReportResponse(&u.Reports[i], urlPrefix))
	}
	return UserDetail{UserResponse: NewUserResponse(u), Reports: reports}
}
