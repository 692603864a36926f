package repository

import (
	"context"

	"campus-report/internal/models"

	"gorm.io/gorm"
)

// UserRepository 用户数据访问层
type UserRepository struct {
	*Store[models.User]
}

// NewUserRepository 创建用户Repository
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{Store: NewStore[models.User](db)}
}

// GetByID 根据ID获取用户，附带按时间倒序的报告
func (r *UserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return r.FindByID(ctx, id, Preload("Reports", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at DESC, id DESC")
	}))
}

// GetByEmail 根据邮箱获取用户（包含密码哈希）
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.FindOne(ctx, Where("email", email))
}

// ListWithReportBriefs 按姓名升序列出全部用户，报告只加载摘要列
func (r *UserRepository) ListWithReportBriefs(ctx context.Context) ([]models.User, error) {
	return r.FindAll(ctx,
		Preload("Reports", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "user_id", "report_title", "location", "created_at").
				Order("created_at DESC, id DESC")
		}),
		OrderBy("name ASC, id ASC"),
	)
}

// Exists 用户是否存在
func (r *UserRepository) Exists(ctx context.Context, id uint) (bool, error) {
	total, err := r.Count(ctx, Where("id", id))
	if err != nil {
		return false, err
	}
	return total > 0, nil
}
