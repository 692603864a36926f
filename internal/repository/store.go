package repository

import (
	"context"

	"gorm.io/gorm"
)

// Scope 查询条件，直接使用 gorm 的 scope 形式
type Scope = func(*gorm.DB) *gorm.DB

// Store 通用记录存储，T 为 gorm 模型
type Store[T any] struct {
	db *gorm.DB
}

// NewStore 创建通用存储
func NewStore[T any](db *gorm.DB) *Store[T] {
	return &Store[T]{db: db}
}

// DB 返回绑定了 ctx 的会话
func (s *Store[T]) DB(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

// FindByID 根据主键查询
func (s *Store[T]) FindByID(ctx context.Context, id uint, scopes ...Scope) (*T, error) {
	var item T
	if err := s.DB(ctx).Scopes(scopes...).First(&item, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &item, nil
}

// FindOne 按条件查询一条
func (s *Store[T]) FindOne(ctx context.Context, scopes ...Scope) (*T, error) {
	var item T
	if err := s.DB(ctx).Scopes(scopes...).Take(&item).Error; err != nil {
		return nil, translateError(err)
	}
	return &item, nil
}

// FindAll 按条件查询全部
func (s *Store[T]) FindAll(ctx context.Context, scopes ...Scope) ([]T, error) {
	items := make([]T, 0)
	if err := s.DB(ctx).Scopes(scopes...).Find(&items).Error; err != nil {
		return nil, translateError(err)
	}
	return items, nil
}

// FindPage 分页查询，filter 同时作用于计数和查询，scopes 只作用于查询
func (s *Store[T]) FindPage(ctx context.Context, filter Scope, page, limit int, scopes ...Scope) ([]T, int64, error) {
	var total int64
	countQuery := s.DB(ctx).Model(new(T))
	if filter != nil {
		countQuery = countQuery.Scopes(filter)
	}
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	items := make([]T, 0, limit)
	query := s.DB(ctx)
	if filter != nil {
		query = query.Scopes(filter)
	}
	offset := (page - 1) * limit
	err := query.Scopes(scopes...).Offset(offset).Limit(limit).Find(&items).Error
	if err != nil {
		return nil, 0, translateError(err)
	}
	return items, total, nil
}

// Create 创建记录
func (s *Store[T]) Create(ctx context.Context, item *T) error {
	return translateError(s.DB(ctx).Create(item).Error)
}

// Updates 按主键部分更新，返回影响行数
func (s *Store[T]) Updates(ctx context.Context, id uint, fields map[string]interface{}) (int64, error) {
	result := s.DB(ctx).Model(new(T)).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return 0, translateError(result.Error)
	}
	return result.RowsAffected, nil
}

// Delete 按主键删除，返回影响行数
func (s *Store[T]) Delete(ctx context.Context, id uint) (int64, error) {
	result := s.DB(ctx).Delete(new(T), id)
	if result.Error != nil {
		return 0, translateError(result.Error)
	}
	return result.RowsAffected, nil
}

// Count 按条件计数
func (s *Store[T]) Count(ctx context.Context, scopes ...Scope) (int64, error) {
	var total int64
	if err := s.DB(ctx).Model(new(T)).Scopes(scopes...).Count(&total).Error; err != nil {
		return 0, translateError(err)
	}
	return total, nil
}
