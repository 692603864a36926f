package main

import (
	"flag"
	"fmt"
	"os"

	"campus-report/internal/config"
	"campus-report/internal/database"

	"github.com/sirupsen/logrus"
)

func main() {
	configFile := flag.String("config", "./config/config.yaml", "配置文件路径")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "用法: %s [-config path] up|down|version\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		logger.WithError(err).Fatal("加载配置失败")
	}

	db, err := database.Open(&cfg.Database)
	if err != nil {
		logger.WithError(err).Fatal("连接数据库失败")
	}
	defer database.Close(db)

	m, err := database.NewMigrator(db, cfg.Database.Driver)
	if err != nil {
		logger.WithError(err).Fatal("初始化迁移失败")
	}

	switch cmd := flag.Arg(0); cmd {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	case "version":
		// 只读取版本
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		logger.WithError(err).Fatal("迁移失败")
	}

	version, dirty, err := m.Version()
	if err != nil {
		logger.WithError(err).Fatal("读取迁移版本失败")
	}
	logger.WithFields(logrus.Fields{
		"driver":  cfg.Database.Driver,
		"version": version,
		"dirty":   dirty,
	}).Info("迁移状态")
}
