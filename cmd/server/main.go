package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"campus-report/internal/config"
	"campus-report/internal/database"
	"campus-report/internal/router"
	"campus-report/internal/upload"
	"campus-report/pkg/redis_limiter"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

func main() {
	configFile := flag.String("config", "./config/config.yaml", "配置文件路径")
	flag.Parse()

	// 加载配置
	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	// 初始化日志
	logger := newLogger(&cfg.Log)

	// 初始化数据库
	db, err := database.Open(&cfg.Database)
	if err != nil {
		logger.WithError(err).Fatal("初始化数据库失败")
	}
	defer func() {
		if err := database.Close(db); err != nil {
			logger.WithError(err).Error("关闭数据库失败")
		}
	}()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db, cfg.Database.Driver); err != nil {
			logger.WithError(err).Fatal("数据库迁移失败")
		}
		logger.Info("数据库迁移完成")
	}

	// 可选的Redis写盘槽位
	var limiter upload.Limiter
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.GetAddress(),
			DB:       cfg.Redis.DB,
			Password: cfg.Redis.Password,
		})
		defer redisClient.Close()

		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.WithError(err).Fatal("连接Redis失败")
		}
		slots := redis_limiter.NewRedisLimiter(
			redisClient,
			cfg.Redis.MaxConcurrentUploads,
			"campus-report:upload-slots:",
			cfg.Redis.GetSlotTTL(),
			logger,
		)
		limiter = slots
		logger.WithField("max_concurrent_uploads", slots.GetMaxConcurrent()).Info("已启用Redis上传槽位")
	}

	photos, err := upload.NewPhotoStore(upload.Options{
		Dir:          cfg.Upload.Dir,
		MaxSize:      cfg.Upload.MaxSize,
		AllowedTypes: cfg.Upload.AllowedTypes,
		Limiter:      limiter,
	}, logger)
	if err != nil {
		logger.WithError(err).Fatal("初始化照片存储失败")
	}

	// 设置路由
	r := router.SetupRouter(cfg, logger, db, photos)

	srv := &http.Server{
		Addr:    cfg.Server.GetAddress(),
		Handler: r,
	}

	go func() {
		logger.Infof("服务器启动在 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("启动服务器失败")
		}
	}()

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.WithField("signal", sig.String()).Info("正在关闭服务器")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.GetShutdownTimeout())
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("服务器关闭超时")
	}
	logger.Info("服务器已退出")
}

// newLogger 按配置创建日志
func newLogger(cfg *config.LogConfig) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	if strings.EqualFold(cfg.Format, "text") {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}
