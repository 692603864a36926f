package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix 环境变量前缀，例如 DAMAGE_SERVER_PORT
const EnvPrefix = "DAMAGE"

// LoadConfig 加载配置文件
// configFile 为空或文件不存在时只使用默认值和环境变量
func LoadConfig(configFile string) (*Config, error) {
	// .env 只补充未设置的环境变量
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, fmt.Errorf("读取.env失败: %w", err)
		}
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		if _, err := os.Stat(configFile); err == nil {
			v.SetConfigFile(configFile)
		}
	}
	if v.ConfigFileUsed() == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("配置验证失败: %w", err)
	}

	return &cfg, nil
}

// setDefaults 设置默认值
// 所有键都在这里登记，环境变量才能覆盖到
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.production_mode", false)
	v.SetDefault("server.shutdown_timeout_seconds", 10)
	v.SetDefault("server.request_timeout_seconds", 30)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./database/app.db")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.max_open_conns", 5)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_idle_seconds", 10)
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("database.debug", false)

	v.SetDefault("upload.dir", "uploads")
	v.SetDefault("upload.url_prefix", "/uploads")
	v.SetDefault("upload.field_name", "photo")
	v.SetDefault("upload.max_size", 5*1024*1024)
	v.SetDefault("upload.allowed_types", []string{"image/jpeg", "image/png", "image/jpg"})

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.max_concurrent_uploads", 16)
	v.SetDefault("redis.slot_ttl_seconds", 60)

	v.SetDefault("security.bcrypt_cost", 10)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("cors.origins", []string{"*"})
	v.SetDefault("cors.allow_credentials", false)
	v.SetDefault("cors.allow_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allow_headers", []string{"Origin", "Content-Type", "Accept"})
}

// validateConfig 验证配置
func validateConfig(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("无效的服务器端口: %d", cfg.Server.Port)
	}

	switch cfg.Database.Driver {
	case "sqlite":
		if cfg.Database.Path == "" {
			return fmt.Errorf("sqlite数据库路径不能为空")
		}
		// 检查数据库目录是否存在
		dbDir := filepath.Dir(cfg.Database.Path)
		if err := os.MkdirAll(dbDir, 0o755); err != nil {
			return fmt.Errorf("创建数据库目录失败: %w", err)
		}
	case "postgres":
		if cfg.Database.DSN == "" {
			return fmt.Errorf("postgres需要配置database.dsn")
		}
	default:
		return fmt.Errorf("不支持的数据库驱动: %s", cfg.Database.Driver)
	}

	if cfg.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns必须大于0")
	}

	if cfg.Security.BcryptCost < 10 {
		return fmt.Errorf("bcrypt_cost不能小于10: %d", cfg.Security.BcryptCost)
	}

	if cfg.Upload.MaxSize <= 0 {
		return fmt.Errorf("upload.max_size必须大于0")
	}
	if cfg.Upload.Dir == "" {
		return fmt.Errorf("upload.dir不能为空")
	}
	if err := os.MkdirAll(cfg.Upload.Dir, 0o755); err != nil {
		return fmt.Errorf("创建上传目录失败: %w", err)
	}

	if cfg.Redis.Enabled && cfg.Redis.MaxConcurrentUploads <= 0 {
		return fmt.Errorf("redis.max_concurrent_uploads必须大于0")
	}

	return nil
}
