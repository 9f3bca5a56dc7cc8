// Package config 统一配置管理
//
// 配置加载优先级（高→低）：
//  1. 环境变量（通过 .env 文件或 shell/systemd 注入）
//  2. YAML 配置文件（{env}.yaml，如 dev.yaml、test.yaml、prod.yaml）
//  3. 代码硬编码默认值
//
// 凭据单一数据源：
//
//	密码/密钥只存在 .env 文件或进程环境中（YAML 中不存储任何密码）。
//
// 配置路径确定策略：
//  1. --config 命令行参数（显式路径）
//  2. CONFIG_DIR 环境变量
//  3. 按 APP_ENV 选择默认路径：
//     - prod → /etc/lending-api/
//     - dev/test → ./configs/
package config

import "time"

// Environment 环境类型
type Environment string

const (
	EnvProduction  Environment = "prod"
	EnvTest        Environment = "test"
	EnvDevelopment Environment = "dev"
)

// YAMLConfig YAML 配置文件结构
type YAMLConfig struct {
	APIServer APIServerConfig `yaml:"api_server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Auth      AuthConfig      `yaml:"auth"`
	Log       LogConfig       `yaml:"log"`
	OpenAPI   OpenAPIConfig   `yaml:"openapi"`
}

// AuthConfig 认证配置
// 注意：JWTSecret/AdminEmail/AdminPassword 只从环境变量读取，不存储在 YAML 中
type AuthConfig struct {
	JWTSecret         string `yaml:"-"`                   // 只从 JWT_SECRET 环境变量读取
	AccessTokenTTL    string `yaml:"access_token_ttl"`    // 例如 "24h"
	PasswordMinLength int    `yaml:"password_min_length"` // 注册/改密时的最小长度
	AdminEmail        string `yaml:"-"`                   // 只从 ADMIN_EMAIL 环境变量读取
	AdminPassword     string `yaml:"-"`                   // 只从 ADMIN_PASSWORD 环境变量读取
}

// AccessTTL 解析访问令牌有效期，非法值回退到 24h
func (a AuthConfig) AccessTTL() time.Duration {
	if d, err := time.ParseDuration(a.AccessTokenTTL); err == nil && d > 0 {
		return d
	}
	return 24 * time.Hour
}

// APIServerConfig API Server 配置
type APIServerConfig struct {
	Port string `yaml:"port"`
}

type DatabaseConfig struct {
	Driver      string `yaml:"driver"` // "sqlite", "postgres" 或 "mongodb"（默认 sqlite）
	Path        string `yaml:"path"`   // SQLite 文件路径
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	User        string `yaml:"user"`
	Password    string `yaml:"-"` // 只从 DB_PASSWORD 环境变量读取
	Name        string `yaml:"name"`
	SSLMode     string `yaml:"sslmode"`
	URI         string `yaml:"uri"`          // MongoDB 连接 URI（优先于 host/port）
	WaitTimeout string `yaml:"wait_timeout"` // 启动时等待数据库就绪的最长时间，例如 "30s"
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"` // 关闭时令牌黑名单使用进程内实现
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	DB       int    `yaml:"db"`
	Password string `yaml:"-"`   // 只从 REDIS_PASSWORD 环境变量读取
	URL      string `yaml:"url"` // 直接指定 URL（优先于 host/port/db）
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `yaml:"level"`  // debug/info/warn/error
	Format string `yaml:"format"` // json 或 text
}

// OpenAPIConfig 请求校验配置
type OpenAPIConfig struct {
	ValidateRequests bool `yaml:"validate_requests"`
}

// Config 应用配置（最终使用的配置）
type Config struct {
	Env            Environment
	DatabaseDriver string // "sqlite", "postgres" 或 "mongodb"
	DatabaseURL    string
	DatabaseDBName string        // MongoDB 数据库名称
	DBWaitTimeout  time.Duration // 0 表示不等待
	RedisURL       string        // 为空表示未启用 Redis
	APIPort        string
	Auth           AuthConfig
	Log            LogConfig
	OpenAPI        OpenAPIConfig
	ConfigFilePath string // 实际加载的配置文件路径
}

// yamlConfigInternal 内部包装，记录配置文件来源（不参与 YAML 序列化）
type yamlConfigInternal struct {
	YAMLConfig `yaml:",inline"`
	loadedFrom string
}
