package dto

import (
	"encoding/json"
	"strings"
	"time"

	"campus-report/internal/models"
)

// IDString 原样保存的编号，JSON 中既可以是数字也可以是字符串
type IDString string

// UnmarshalJSON 接受 JSON 数字或字符串
func (s *IDString) UnmarshalJSON(data []byte) error {
	var num json.Number
	if err := json.Unmarshal(data, &num); err == nil {
		*s = IDString(num)
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	*s = IDString(str)
	return nil
}

// CreateReportRequest 创建报告的表单字段
// user_id 原样接收，非数字时由服务层返回校验错误
type CreateReportRequest struct {
	Description string   `json:"description" form:"description" validate:"notblank"`
	ReportTitle string   `json:"report_title" form:"report_title" validate:"notblank"`
	Location    string   `json:"location" form:"location" validate:"notblank"`
	UserID      IDString `json:"user_id" form:"user_id" validate:"notblank"`
}

// UpdateReportRequest 报告部分更新，nil 或空白值不修改
type UpdateReportRequest struct {
	Description *string `json:"description" form:"description"`
	ReportTitle *string `json:"report_title" form:"report_title"`
	Location    *string `json:"location" form:"location"`
}

// ReportQuery 列表查询参数，零值表示使用默认值
type ReportQuery struct {
	Page   int
	Limit  int
	Search string
}

// ReportPage 一页报告
type ReportPage struct {
	Reports []ReportResponse
	Total   int64
	Page    int
	Limit   int
}

// OwnerSummary 报告所属用户摘要
type OwnerSummary struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	StudentID string `json:"student_id"`
}

// ReportResponse 报告信息
type ReportResponse struct {
	ID          uint          `json:"id"`
	Photo       *string       `json:"photo"`
	PhotoURL    string        `json:"photo_url,omitempty"`
	Description string        `json:"description"`
	ReportTitle string        `json:"report_title"`
	Location    string        `json:"location"`
	UserID      uint          `json:"user_id"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
	User        *OwnerSummary `json:"user,omitempty"`
}

// NewReportResponse 从模型构建，预加载了用户时带出摘要
func NewReportResponse(r *models.Report, urlPrefix string) ReportResponse {
	resp := ReportResponse{
		ID:          r.ID,
		Photo:       r.Photo,
		Description: r.Description,
		ReportTitle: r.ReportTitle,
		Location:    r.Location,
		UserID:      r.UserID,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if r.HasPhoto() {
		resp.PhotoURL = PhotoURL(urlPrefix, *r.Photo)
	}
	if r.User != nil {
		resp.User = &OwnerSummary{
			ID:        r.User.ID,
			Name:      r.User.Name,
			Email:     r.User.Email,
			StudentID: r.User.StudentID,
		}
	}
	return resp
}

// NewReportList 批量构建
func NewReportList(reports []models.Report, urlPrefix string) []ReportResponse {
	items := make([]ReportResponse, 0, len(reports))
	for i := range reports {
		items = append(items, NewReportResponse(&reports[i], urlPrefix))
	}
	return items
}

// PhotoURL 照片的访问路径
func PhotoURL(urlPrefix, photo string) string {
	return strings.TrimRight(urlPrefix, "/") + "/" + photo
}
