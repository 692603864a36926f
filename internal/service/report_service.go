package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"campus-report/internal/apperror"
	"campus-report/internal/dto"
	"campus-report/internal/models"
	"campus-report/internal/repository"
	"campus-report/internal/utils"

	"github.com/sirupsen/logrus"
)

const (
	defaultPage        = 1
	defaultLimit       = 10
	maxLimit           = 100
	defaultRecentLimit = 5

	msgReportFieldsRequired = "All fields are required: description, report_title, location, user_id"
	msgReportNotFound       = "Report not found"
)

// PhotoRemover 删除已存储的照片，失败只记录日志
type PhotoRemover interface {
	Remove(filename string)
}

// ReportService 报告服务
type ReportService struct {
	reports   *repository.ReportRepository
	users     *repository.UserRepository
	photos    PhotoRemover
	urlPrefix string
	logger    *logrus.Logger
}

// NewReportService 创建报告服务
func NewReportService(
	reports *repository.ReportRepository,
	users *repository.UserRepository,
	photos PhotoRemover,
	urlPrefix string,
	logger *logrus.Logger,
) *ReportService {
	return &ReportService{
		reports:   reports,
		users:     users,
		photos:    photos,
		urlPrefix: urlPrefix,
		logger:    logger,
	}
}

// ListReports 分页列出报告，支持按标题、描述、地点搜索
func (s *ReportService) ListReports(ctx context.Context, q dto.ReportQuery) (*dto.ReportPage, error) {
	page, limit := normalizePage(q.Page, q.Limit)

	reports, total, err := s.reports.Search(ctx, strings.TrimSpace(q.Search), page, limit)
	if err != nil {
		return nil, s.unexpected("Error fetching reports", err)
	}

	return &dto.ReportPage{
		Reports: dto.NewReportList(reports, s.urlPrefix),
		Total:   total,
		Page:    page,
		Limit:   limit,
	}, nil
}

// GetReport 获取单个报告
func (s *ReportService) GetReport(ctx context.Context, id uint) (*dto.ReportResponse, error) {
	report, err := s.reports.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.NotFound(msgReportNotFound)
	}
	if err != nil {
		return nil, s.unexpected("Error fetching report", err)
	}

	resp := dto.NewReportResponse(report, s.urlPrefix)
	return &resp, nil
}

// GetRecentReports 最新的报告，limit 无效时取 5
func (s *ReportService) GetRecentReports(ctx context.Context, limit int) ([]dto.ReportResponse, error) {
	if limit < 1 {
		limit = defaultRecentLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	reports, err := s.reports.ListRecent(ctx, limit)
	if err != nil {
		return nil, s.unexpected("Error fetching recent reports", err)
	}
	return dto.NewReportList(reports, s.urlPrefix), nil
}

// GetReportsByUser 用户的全部报告，用户不存在时返回空列表
func (s *ReportService) GetReportsByUser(ctx context.Context, userID uint) ([]dto.ReportResponse, error) {
	reports, err := s.reports.ListByUserID(ctx, userID)
	if err != nil {
		return nil, s.unexpected("Error fetching user reports", err)
	}
	return dto.NewReportList(reports, s.urlPrefix), nil
}

// CreateReport 创建报告，photo 为已存储的文件名，失败时删除该文件
func (s *ReportService) CreateReport(ctx context.Context, req *dto.CreateReportRequest, photo string) (resp *dto.ReportResponse, err error) {
	pending := photo
	defer s.discardOnError(&pending, &err)

	req.Description = strings.TrimSpace(req.Description)
	req.ReportTitle = strings.TrimSpace(req.ReportTitle)
	req.Location = strings.TrimSpace(req.Location)
	if errs := utils.ValidateStruct(req); errs != nil {
		return nil, apperror.Validation(msgReportFieldsRequired)
	}

	userID, err := strconv.ParseUint(strings.TrimSpace(string(req.UserID)), 10, 64)
	if err != nil || userID == 0 {
		return nil, apperror.Validation("Invalid user_id")
	}

	exists, err := s.users.Exists(ctx, uint(userID))
	if err != nil {
		return nil, s.unexpected("Error creating report", err)
	}
	if !exists {
		return nil, apperror.Validation(msgUserNotFound)
	}

	report := &models.Report{
		Description: req.Description,
		ReportTitle: req.ReportTitle,
		Location:    req.Location,
		UserID:      uint(userID),
	}
	if photo != "" {
		report.Photo = &photo
	}

	if err := s.reports.Create(ctx, report); err != nil {
		var fkErr *repository.ForeignKeyError
		if errors.As(err, &fkErr) {
			return nil, apperror.Validation(msgUserNotFound)
		}
		var nullErr *repository.NotNullError
		if errors.As(err, &nullErr) {
			return nil, apperror.Validation(msgReportFieldsRequired)
		}
		return nil, s.unexpected("Error creating report", err)
	}
	pending = ""

	created, err := s.reports.GetByID(ctx, report.ID)
	if err != nil {
		return nil, s.unexpected("Error creating report", err)
	}

	s.logger.WithFields(logrus.Fields{"report_id": report.ID, "user_id": report.UserID, "photo": photo}).Info("报告已创建")
	out := dto.NewReportResponse(created, s.urlPrefix)
	return &out, nil
}

// UpdateReport 更新报告，空白字段忽略
// 有新照片时先写库再删除旧文件；写库失败时删除新文件
func (s *ReportService) UpdateReport(ctx context.Context, id uint, req *dto.UpdateReportRequest, photo string) (resp *dto.ReportResponse, err error) {
	pending := photo
	defer s.discardOnError(&pending, &err)

	existing, err := s.reports.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.NotFound(msgReportNotFound)
	}
	if err != nil {
		return nil, s.unexpected("Error updating report", err)
	}

	fields := make(map[string]interface{})
	setIfPresent(fields, "description", req.Description)
	setIfPresent(fields, "report_title", req.ReportTitle)
	setIfPresent(fields, "location", req.Location)
	if photo != "" {
		fields["photo"] = photo
	}

	if len(fields) > 0 {
		rows, err := s.reports.Updates(ctx, id, fields)
		if err != nil {
			return nil, s.unexpected("Error updating report", err)
		}
		if rows == 0 {
			return nil, apperror.NotFound(msgReportNotFound)
		}
	}
	pending = ""

	if photo != "" && existing.HasPhoto() && *existing.Photo != photo {
		s.photos.Remove(*existing.Photo)
	}

	updated, err := s.reports.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.NotFound(msgReportNotFound)
	}
	if err != nil {
		return nil, s.unexpected("Error updating report", err)
	}

	out := dto.NewReportResponse(updated, s.urlPrefix)
	return &out, nil
}

// DeleteReport 删除报告，随后尽力删除照片
func (s *ReportService) DeleteReport(ctx context.Context, id uint) error {
	existing, err := s.reports.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return apperror.NotFound(msgReportNotFound)
	}
	if err != nil {
		return s.unexpected("Error deleting report", err)
	}

	rows, err := s.reports.Delete(ctx, id)
	if err != nil {
		return s.unexpected("Error deleting report", err)
	}
	if rows == 0 {
		return apperror.NotFound(msgReportNotFound)
	}

	if existing.HasPhoto() {
		s.photos.Remove(*existing.Photo)
	}
	s.logger.WithField("report_id", id).Info("报告已删除")
	return nil
}

// discardOnError 写库前出错时删除本次请求存储的照片
func (s *ReportService) discardOnError(photo *string, errp *error) {
	if *errp == nil || *photo == "" {
		return
	}
	s.logger.WithField("photo", *photo).Debug("请求失败，删除新上传的照片")
	s.photos.Remove(*photo)
}

func (s *ReportService) unexpected(msg string, err error) error {
	s.logger.WithError(err).Error(msg)
	return apperror.Unexpected(msg, err)
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = defaultPage
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}

func setIfPresent(fields map[string]interface{}, column string, value *string) {
	if value == nil {
		return
	}
	if v := strings.TrimSpace(*value); v != "" {
		fields[column] = v
	}
}
