package repository

import (
	"context"

	"campus-report/internal/models"

	"gorm.io/gorm"
)

// 报告搜索覆盖的列
var reportSearchColumns = []string{"report_title", "description", "location"}

const newestFirst = "created_at DESC, id DESC"

// 报告中嵌入的用户摘要列
var (
	OwnerColumns      = []string{"id", "name", "email", "student_id"}
	OwnerBriefColumns = []string{"id", "name", "student_id"}
)

// ReportRepository 报告数据访问层
type ReportRepository struct {
	*Store[models.Report]
}

// NewReportRepository 创建报告Repository
func NewReportRepository(db *gorm.DB) *ReportRepository {
	return &ReportRepository{Store: NewStore[models.Report](db)}
}

// WithOwner 预加载报告所属用户的指定列
func WithOwner(columns ...string) Scope {
	return Preload("User", func(db *gorm.DB) *gorm.DB {
		return db.Select(columns)
	})
}

// GetByID 根据ID获取报告及用户摘要
func (r *ReportRepository) GetByID(ctx context.Context, id uint) (*models.Report, error) {
	return r.FindByID(ctx, id, WithOwner(OwnerColumns...))
}

// Search 分页搜索，search 为空时返回全部
func (r *ReportRepository) Search(ctx context.Context, search string, page, limit int) ([]models.Report, int64, error) {
	return r.FindPage(ctx, MatchAny(search, reportSearchColumns...), page, limit,
		WithOwner(OwnerColumns...),
		OrderBy(newestFirst),
	)
}

// ListRecent 获取最新的报告
func (r *ReportRepository) ListRecent(ctx context.Context, limit int) ([]models.Report, error) {
	return r.FindAll(ctx,
		WithOwner(OwnerBriefColumns...),
		OrderBy(newestFirst),
		Limit(limit),
	)
}

// ListByUserID 获取用户的全部报告
func (r *ReportRepository) ListByUserID(ctx context.Context, userID uint) ([]models.Report, error) {
	return r.FindAll(ctx,
		Where("user_id", userID),
		WithOwner(OwnerColumns...),
		OrderBy(newestFirst),
	)
}

// CountByUserID 统计用户的报告数量
func (r *ReportRepository) CountByUserID(ctx context.Context, userID uint) (int64, error) {
	return r.Count(ctx, Where("user_id", userID))
}
