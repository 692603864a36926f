package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("record not found")

// DuplicateKeyError 唯一约束冲突，Field 为冲突的列名
type DuplicateKeyError struct {
	Field string
	Err   error
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate key on %s: %v", e.Field, e.Err)
}

func (e *DuplicateKeyError) Unwrap() error { return e.Err }

// NotNullError 必填列缺失
type NotNullError struct {
	Field string
	Err   error
}

func (e *NotNullError) Error() string {
	return fmt.Sprintf("missing value for %s: %v", e.Field, e.Err)
}

func (e *NotNullError) Unwrap() error { return e.Err }

// ForeignKeyError 外键引用不存在
type ForeignKeyError struct {
	Err error
}

func (e *ForeignKeyError) Error() string {
	return fmt.Sprintf("foreign key violation: %v", e.Err)
}

func (e *ForeignKeyError) Unwrap() error { return e.Err }

// postgres SQLSTATE
const (
	pgUniqueViolation     = "23505"
	pgNotNullViolation    = "23502"
	pgForeignKeyViolation = "23503"
)

// translateError 把驱动错误转换为仓储层错误
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return &DuplicateKeyError{Field: fieldFromConstraint(pgErr.TableName, pgErr.ConstraintName), Err: err}
		case pgNotNullViolation:
			return &NotNullError{Field: pgErr.ColumnName, Err: err}
		case pgForeignKeyViolation:
			return &ForeignKeyError{Err: err}
		}
		return err
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		switch liteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return &DuplicateKeyError{Field: fieldFromSqliteMessage(liteErr.Error()), Err: err}
		case sqlite3.ErrConstraintNotNull:
			return &NotNullError{Field: fieldFromSqliteMessage(liteErr.Error()), Err: err}
		case sqlite3.ErrConstraintForeignKey:
			return &ForeignKeyError{Err: err}
		}
	}

	return err
}

// fieldFromSqliteMessage 解析 "UNIQUE constraint failed: users.email" 中的列名
// 多列约束时取第一列
func fieldFromSqliteMessage(msg string) string {
	idx := strings.LastIndex(msg, ":")
	if idx < 0 {
		return ""
	}
	cols := strings.TrimSpace(msg[idx+1:])
	if comma := strings.Index(cols, ","); comma >= 0 {
		cols = cols[:comma]
	}
	if dot := strings.LastIndex(cols, "."); dot >= 0 {
		cols = cols[dot+1:]
	}
	return cols
}

// fieldFromConstraint 从约束名推出列名，支持 uq_<table>_<col> 与 <table>_<col>_key
func fieldFromConstraint(table, constraint string) string {
	name := constraint
	name = strings.TrimPrefix(name, "uq_")
	name = strings.TrimPrefix(name, "idx_")
	name = strings.TrimSuffix(name, "_key")
	if table != "" {
		name = strings.TrimPrefix(name, table+"_")
	}
	return name
}
