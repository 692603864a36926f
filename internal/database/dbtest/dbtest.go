// Package dbtest 为测试提供已迁移的临时sqlite数据库
package dbtest

import (
	"path/filepath"
	"testing"

	"campus-report/internal/config"
	"campus-report/internal/database"

	"gorm.io/gorm"
)

// Open 在 t.TempDir() 下创建数据库并执行全部迁移
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	cfg := &config.DatabaseConfig{
		Driver:             "sqlite",
		Path:               filepath.Join(t.TempDir(), "test.db"),
		MaxOpenConns:       5,
		MaxIdleConns:       5,
		ConnMaxIdleSeconds: 10,
	}
	db, err := database.Open(cfg)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = database.Close(db) })

	if err := database.Migrate(db, cfg.Driver); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}
