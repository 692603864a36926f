package database

import (
	"errors"
	"fmt"

	"campus-report/internal/database/migrations"

	migrate "github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/gorm"
)

// Migrator 包装 golang-migrate，复用应用的连接池
type Migrator struct {
	m *migrate.Migrate
}

// NewMigrator 创建迁移器，driver 取值 sqlite 或 postgres
func NewMigrator(db *gorm.DB, driver string) (*Migrator, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取连接池失败: %w", err)
	}

	var target migratedb.Driver
	switch driver {
	case "sqlite":
		target, err = migratesqlite.WithInstance(sqlDB, &migratesqlite.Config{})
	case "postgres":
		target, err = migratepg.WithInstance(sqlDB, &migratepg.Config{})
	default:
		return nil, fmt.Errorf("不支持的数据库驱动: %s", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("初始化迁移驱动失败: %w", err)
	}

	source, err := iofs.New(migrations.Files, driver)
	if err != nil {
		return nil, fmt.Errorf("读取迁移文件失败: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, driver, target)
	if err != nil {
		return nil, fmt.Errorf("创建迁移器失败: %w", err)
	}

	// 不调用 m.Close()：它会关闭共享的连接池
	return &Migrator{m: m}, nil
}

// Up 执行全部未应用的迁移
func (mg *Migrator) Up() error {
	if err := mg.m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("执行迁移失败: %w", err)
	}
	return nil
}

// Down 回滚一个版本
func (mg *Migrator) Down() error {
	if err := mg.m.Steps(-1); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("回滚迁移失败: %w", err)
	}
	return nil
}

// Version 当前版本，未迁移时返回0
func (mg *Migrator) Version() (uint, bool, error) {
	version, dirty, err := mg.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

// Migrate 启动前执行迁移
func Migrate(db *gorm.DB, driver string) error {
	mg, err := NewMigrator(db, driver)
	if err != nil {
		return err
	}
	return mg.Up()
}
