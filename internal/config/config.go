package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Load 加载配置
// 1. 加载 .env.{env}（敏感信息）
// 2. 根据 APP_ENV 加载 {env}.yaml
// 3. 环境变量覆盖
func Load() *Config {
	env := parseEnv(getEnv("APP_ENV", "dev"))
	loadEnvFiles(env)

	yamlCfg := loadYAMLConfig(env)
	applyEnvOverrides(&yamlCfg.YAMLConfig)

	dbURL := os.Getenv("DATABASE_URL")
	driver := detectDatabaseDriver(yamlCfg.Database.Driver, dbURL)
	yamlCfg.Database.Driver = driver
	if dbURL == "" {
		dbURL = buildDatabaseURL(yamlCfg.Database, yamlCfg.Database.Password)
	}

	cfg := &Config{
		Env:            env,
		DatabaseDriver: driver,
		DatabaseURL:    dbURL,
		DatabaseDBName: yamlCfg.Database.Name,
		APIPort:        yamlCfg.APIServer.Port,
		Auth:           yamlCfg.Auth,
		Log:            yamlCfg.Log,
		OpenAPI:        yamlCfg.OpenAPI,
		ConfigFilePath: yamlCfg.loadedFrom,
	}
	if d, err := time.ParseDuration(yamlCfg.Database.WaitTimeout); err == nil {
		cfg.DBWaitTimeout = d
	}
	if u := os.Getenv("REDIS_URL"); u != "" {
		cfg.RedisURL = u
	} else if yamlCfg.Redis.Enabled {
		cfg.RedisURL = buildRedisURL(yamlCfg.Redis)
	}

	return cfg
}

// defaultYAMLConfig 代码默认值
func defaultYAMLConfig() YAMLConfig {
	return YAMLConfig{
		APIServer: APIServerConfig{Port: "8000"},
		Database: DatabaseConfig{
			Driver:      "sqlite",
			Path:        "lending.db",
			Host:        "localhost",
			Port:        5432,
			User:        "lending",
			Name:        "lending",
			SSLMode:     "disable",
			WaitTimeout: "30s",
		},
		Redis: RedisConfig{Host: "localhost", Port: 6379, DB: 0},
		Auth: AuthConfig{
			AccessTokenTTL:    "24h",
			PasswordMinLength: 5,
		},
		Log:     LogConfig{Level: "info", Format: "text"},
		OpenAPI: OpenAPIConfig{ValidateRequests: true},
	}
}

// loadYAMLConfig 加载 YAML 配置文件
// 加载顺序：默认值 → {env}.yaml
func loadYAMLConfig(env Environment) *yamlConfigInternal {
	cfg := &yamlConfigInternal{YAMLConfig: defaultYAMLConfig()}

	filename := fmt.Sprintf("%s.yaml", env)
	for _, base := range effectiveConfigPaths() {
		path := filepath.Join(base, filename)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if err := yaml.Unmarshal(data, &cfg.YAMLConfig); err != nil {
			log.Printf("[config] Failed to parse %s: %v", path, err)
			continue
		}
		cfg.loadedFrom = path
		break
	}

	return cfg
}

// applyEnvOverrides 环境变量覆盖 YAML 配置，密码类字段只从这里读取
func applyEnvOverrides(cfg *YAMLConfig) {
	cfg.Database.Password = os.Getenv("DB_PASSWORD")
	cfg.Redis.Password = os.Getenv("REDIS_PASSWORD")
	cfg.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	cfg.Auth.AdminEmail = os.Getenv("ADMIN_EMAIL")
	cfg.Auth.AdminPassword = os.Getenv("ADMIN_PASSWORD")

	if v := os.Getenv("DB_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("API_PORT"); v != "" {
		cfg.APIServer.Port = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("ACCESS_TOKEN_TTL"); v != "" {
		cfg.Auth.AccessTokenTTL = v
	}
	if v := os.Getenv("OPENAPI_VALIDATE_REQUESTS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.OpenAPI.ValidateRequests = b
		}
	}
}
