package router

import (
	"net/http"

	"campus-report/internal/config"
	"campus-report/internal/handler"
	"campus-report/internal/middleware"
	"campus-report/internal/repository"
	"campus-report/internal/service"
	"campus-report/internal/upload"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// SetupRouter 设置路由
func SetupRouter(
	cfg *config.Config,
	logger *logrus.Logger,
	db *gorm.DB,
	photos *upload.PhotoStore,
) *gin.Engine {
	// 设置Gin模式
	if cfg.Server.ProductionMode {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.MaxMultipartMemory = cfg.Upload.MaxSize + 1<<20

	// 全局中间件
	r.Use(middleware.LoggerMiddleware(logger))
	r.Use(gin.Recovery())
	r.Use(middleware.CORS(&cfg.CORS))
	r.Use(middleware.RequestDeadline(cfg.Server.GetRequestTimeout()))

	// 服务说明
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Simple Damage Reporting API is running!",
			"endpoints": gin.H{
				"users":   "/api/users",
				"reports": "/api/reports",
				"uploads": cfg.Upload.URLPrefix,
			},
		})
	})

	// 已上传的照片
	r.Static(cfg.Upload.URLPrefix, photos.Dir())

	// 初始化Repository
	userRepo := repository.NewUserRepository(db)
	reportRepo := repository.NewReportRepository(db)

	// 初始化Service
	userService := service.NewUserService(userRepo, reportRepo, cfg.Security.BcryptCost, cfg.Upload.URLPrefix, logger)
	reportService := service.NewReportService(reportRepo, userRepo, photos, cfg.Upload.URLPrefix, logger)

	// 初始化Handler
	userHandler := handler.NewUserHandler(userService)
	reportHandler := handler.NewReportHandler(reportService, photos, cfg.Upload.FieldName)

	// API路由组
	api := r.Group("/api")
	{
		users := api.Group("/users")
		{
			users.GET("", userHandler.ListUsers)
			users.POST("/register", userHandler.Register)
			users.POST("/login", userHandler.Login)
			users.GET("/:id", userHandler.GetUser)
			users.PUT("/:id", userHandler.UpdateUser)
			users.DELETE("/:id", userHandler.DeleteUser)
			users.GET("/:id/reports", reportHandler.GetReportsByUser)
		}

		reports := api.Group("/reports")
		{
			reports.GET("", reportHandler.ListReports)
			reports.GET("/recent", reportHandler.GetRecentReports)
			reports.GET("/:id", reportHandler.GetReport)
			reports.POST("", reportHandler.CreateReport)
			reports.PUT("/:id", reportHandler.UpdateReport)
			reports.DELETE("/:id", reportHandler.DeleteReport)
		}
	}

	return r
}
