package config

import (
	"fmt"
	"time"
)

// Config 应用配置结构
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Upload   UploadConfig   `mapstructure:"upload"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Security SecurityConfig `mapstructure:"security"`
	Log      LogConfig      `mapstructure:"log"`
	CORS     CORSConfig     `mapstructure:"cors"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host                   string `mapstructure:"host"`
	Port                   int    `mapstructure:"port"`
	ProductionMode         bool   `mapstructure:"production_mode"`
	ShutdownTimeoutSeconds int    `mapstructure:"shutdown_timeout_seconds"`
	RequestTimeoutSeconds  int    `mapstructure:"request_timeout_seconds"`
}

// GetAddress 获取服务器地址
func (s *ServerConfig) GetAddress() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// GetShutdownTimeout 获取优雅关闭等待时间
func (s *ServerConfig) GetShutdownTimeout() time.Duration {
	return time.Duration(s.ShutdownTimeoutSeconds) * time.Second
}

// GetRequestTimeout 获取单个请求的处理上限，0 表示不限制
func (s *ServerConfig) GetRequestTimeout() time.Duration {
	return time.Duration(s.RequestTimeoutSeconds) * time.Second
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver             string `mapstructure:"driver"` // sqlite, postgres
	Path               string `mapstructure:"path"`
	DSN                string `mapstructure:"dsn"`
	MaxOpenConns       int    `mapstructure:"max_open_conns"`
	MaxIdleConns       int    `mapstructure:"max_idle_conns"`
	ConnMaxIdleSeconds int    `mapstructure:"conn_max_idle_seconds"`
	AutoMigrate        bool   `mapstructure:"auto_migrate"`
	Debug              bool   `mapstructure:"debug"`
}

// GetConnMaxIdleTime 获取空闲连接回收时间
func (d *DatabaseConfig) GetConnMaxIdleTime() time.Duration {
	return time.Duration(d.ConnMaxIdleSeconds) * time.Second
}

// UploadConfig 上传配置
type UploadConfig struct {
	Dir          string   `mapstructure:"dir"`
	URLPrefix    string   `mapstructure:"url_prefix"`
	FieldName    string   `mapstructure:"field_name"`
	MaxSize      int64    `mapstructure:"max_size"`
	AllowedTypes []string `mapstructure:"allowed_types"`
}

// RedisConfig Redis配置，仅用于限制并发写盘
type RedisConfig struct {
	Enabled              bool   `mapstructure:"enabled"`
	Host                 string `mapstructure:"host"`
	Port                 int    `mapstructure:"port"`
	DB                   int    `mapstructure:"db"`
	Password             string `mapstructure:"password"`
	MaxConcurrentUploads int    `mapstructure:"max_concurrent_uploads"`
	SlotTTLSeconds       int    `mapstructure:"slot_ttl_seconds"`
}

// GetAddress 获取Redis地址
func (r *RedisConfig) GetAddress() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// GetSlotTTL 获取槽位过期时间
func (r *RedisConfig) GetSlotTTL() time.Duration {
	return time.Duration(r.SlotTTLSeconds) * time.Second
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	BcryptCost int `mapstructure:"bcrypt_cost"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json, text
}

// CORSConfig CORS配置
type CORSConfig struct {
	Origins          []string `mapstructure:"origins"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	AllowMethods     []string `mapstructure:"allow_methods"`
	AllowHeaders     []string `mapstructure:"allow_headers"`
}
