package repository

import (
	"strings"

	"gorm.io/gorm"
)

// Where 等值过滤
func Where(column string, value interface{}) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(column+" = ?", value)
	}
}

// OrderBy 排序
func OrderBy(order string) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Order(order)
	}
}

// Limit 限制条数
func Limit(n int) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Limit(n)
	}
}

// Select 只查询指定列
func Select(columns ...string) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Select(columns)
	}
}

// Preload 预加载关联，args 可传入自定义条件
func Preload(association string, args ...interface{}) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Preload(association, args...)
	}
}

// MatchAny 在多个列上做不区分大小写的子串匹配，列之间为 OR
// term 为空时不加条件
func MatchAny(term string, columns ...string) Scope {
	return func(db *gorm.DB) *gorm.DB {
		term = strings.TrimSpace(term)
		if term == "" || len(columns) == 0 {
			return db
		}
		pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
		clauses := make([]string, len(columns))
		args := make([]interface{}, len(columns))
		for i, col := range columns {
			clauses[i] = "LOWER(" + col + ") LIKE ? ESCAPE '\\'"
			args[i] = pattern
		}
		return db.Where("("+strings.Join(clauses, " OR ")+")", args...)
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
