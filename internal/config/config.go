// Package config 负责加载和管理应用程序的配置。
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// 全局配置变量，存储从配置文件加载的所有设置。
var Conf Config

// Config 是整个应用程序的配置结构体，与 config.yaml 文件结构对应。
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	JWT        JWTConfig        `mapstructure:"jwt"`
	Log        LogConfig        `mapstructure:"log"`
	Gate       GateConfig       `mapstructure:"gate"`
	Admin      AdminConfig      `mapstructure:"admin"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Guidelines GuidelinesConfig `mapstructure:"guidelines"`
	Storage    StorageConfig    `mapstructure:"storage"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	Chat       ChatConfig       `mapstructure:"chat"`
}

// ServerConfig 存储服务器相关的配置。
type ServerConfig struct {
	Port           string   `mapstructure:"port" validate:"required"`
	Mode           string   `mapstructure:"mode" validate:"oneof=debug release test"`
	TrustedProxies []string `mapstructure:"trusted_proxies"`
}

// DatabaseConfig 存储所有数据库连接的配置。
type DatabaseConfig struct {
	Driver string      `mapstructure:"driver" validate:"oneof=mysql postgres sqlite"`
	DSN    string      `mapstructure:"dsn" validate:"required"`
	Redis  RedisConfig `mapstructure:"redis"`
}

// RedisConfig 存储 Redis 的配置。Addr 为空表示不启用 Redis。
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Enabled 报告是否配置了 Redis。
func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

// JWTConfig 存储管理员 JWT 相关的配置。
type JWTConfig struct {
	Secret                 string `mapstructure:"secret" validate:"required"`
	AccessTokenExpireHours int    `mapstructure:"access_token_expire_hours" validate:"gt=0"`
}

// LogConfig 存储日志相关的配置。
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// GateConfig 存储业主访问口令的配置。
type GateConfig struct {
	Passcode     string `mapstructure:"passcode" validate:"required"`
	CookieName   string `mapstructure:"cookie_name" validate:"required"`
	CookieSecure bool   `mapstructure:"cookie_secure"`
}

// AdminConfig 存储管理员账号。PasswordHash 非空时优先使用 bcrypt 校验。
type AdminConfig struct {
	Username     string `mapstructure:"username" validate:"required"`
	Password     string `mapstructure:"password" validate:"required_without=PasswordHash"`
	PasswordHash string `mapstructure:"password_hash"`
}

// LLMConfig 存储大语言模型相关的配置。
type LLMConfig struct {
	APIKey            string              `mapstructure:"api_key"`
	BaseURL           string              `mapstructure:"base_url" validate:"required"`
	Model             string              `mapstructure:"model" validate:"required"`
	TimeoutSeconds    int                 `mapstructure:"timeout_seconds"`
	AnalysisMaxTokens int                 `mapstructure:"analysis_max_tokens"`
	ChatMaxTokens     int                 `mapstructure:"chat_max_tokens"`
	Generation        LLMGenerationConfig `mapstructure:"generation"`
}

// LLMGenerationConfig 配置生成相关参数（可选）。
type LLMGenerationConfig struct {
	Temperature float64 `mapstructure:"temperature"`
	TopP        float64 `mapstructure:"top_p"`
}

// GuidelinesConfig 指向预先抽取好的规范文本目录与原始 PDF。
type GuidelinesConfig struct {
	Dir     string `mapstructure:"dir" validate:"required"`
	PDFPath string `mapstructure:"pdf_path"`
}

// StorageConfig 存储上传图片的存储后端配置。
type StorageConfig struct {
	Driver string      `mapstructure:"driver" validate:"oneof=local minio"`
	Root   string      `mapstructure:"root"`
	MinIO  MinIOConfig `mapstructure:"minio"`
}

// MinIOConfig 存储 MinIO 对象存储的配置。
type MinIOConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	BucketName      string `mapstructure:"bucket_name"`
}

// RateLimitConfig 存储各接口的固定窗口限流配置。
type RateLimitConfig struct {
	Backend              string    `mapstructure:"backend" validate:"oneof=memory redis"`
	PruneIntervalMinutes int       `mapstructure:"prune_interval_minutes" validate:"gt=0"`
	Analyze              LimitRule `mapstructure:"analyze"`
	Chat                 LimitRule `mapstructure:"chat"`
	Gate                 LimitRule `mapstructure:"gate"`
	AdminLogin           LimitRule `mapstructure:"admin_login"`
}

// LimitRule 是单个操作的窗口上限。
type LimitRule struct {
	Limit         int `mapstructure:"limit" validate:"gt=0"`
	WindowMinutes int `mapstructure:"window_minutes" validate:"gt=0"`
}

// Window 返回窗口时长。
func (r LimitRule) Window() time.Duration {
	return time.Duration(r.WindowMinutes) * time.Minute
}

// KafkaConfig 存储 Kafka 相关的配置。Brokers 为空表示不发布事件。
type KafkaConfig struct {
	Brokers string `mapstructure:"brokers"`
	Topic   string `mapstructure:"topic"`
}

// ChatConfig 控制会话续聊的行为。
type ChatConfig struct {
	SerializeContinuations bool `mapstructure:"serialize_continuations"`
	LockTTLSeconds         int  `mapstructure:"lock_ttl_seconds"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "data/hoa.db")
	v.SetDefault("database.redis.addr", "")
	v.SetDefault("database.redis.password", "")
	v.SetDefault("database.redis.db", 0)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.access_token_expire_hours", 8)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output_path", "")
	v.SetDefault("gate.passcode", "")
	v.SetDefault("gate.cookie_name", "hoa_access")
	v.SetDefault("gate.cookie_secure", false)
	v.SetDefault("admin.username", "")
	v.SetDefault("admin.password", "")
	v.SetDefault("admin.password_hash", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.model", "gpt-4o")
	v.SetDefault("llm.timeout_seconds", 60)
	v.SetDefault("llm.analysis_max_tokens", 2000)
	v.SetDefault("llm.chat_max_tokens", 1000)
	v.SetDefault("llm.generation.temperature", 0)
	v.SetDefault("llm.generation.top_p", 0)
	v.SetDefault("guidelines.dir", "data/guidelines")
	v.SetDefault("guidelines.pdf_path", "")
	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.root", "data/uploads")
	v.SetDefault("storage.minio.endpoint", "")
	v.SetDefault("storage.minio.access_key_id", "")
	v.SetDefault("storage.minio.secret_access_key", "")
	v.SetDefault("storage.minio.use_ssl", false)
	v.SetDefault("storage.minio.bucket_name", "")
	v.SetDefault("rate_limit.backend", "memory")
	v.SetDefault("rate_limit.prune_interval_minutes", 10)
	v.SetDefault("rate_limit.analyze.limit", 10)
	v.SetDefault("rate_limit.analyze.window_minutes", 60)
	v.SetDefault("rate_limit.chat.limit", 60)
	v.SetDefault("rate_limit.chat.window_minutes", 60)
	v.SetDefault("rate_limit.gate.limit", 20)
	v.SetDefault("rate_limit.gate.window_minutes", 15)
	v.SetDefault("rate_limit.admin_login.limit", 10)
	v.SetDefault("rate_limit.admin_login.window_minutes", 15)
	v.SetDefault("kafka.brokers", "")
	v.SetDefault("kafka.topic", "hoa-events")
	v.SetDefault("chat.serialize_continuations", false)
	v.SetDefault("chat.lock_ttl_seconds", 90)
}

// Load 读取配置文件与环境变量（前缀 HOA_，例如 HOA_GATE_PASSCODE），并完成校验。
func Load(configPath string) (Config, error) {
	// .env 文件可选，不存在时忽略
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("HOA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("无法将配置解析到结构体中: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate 校验字段约束以及字段之间的依赖关系。
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("配置校验失败: %w", err)
	}
	if c.Storage.Driver == "minio" && (c.Storage.MinIO.Endpoint == "" || c.Storage.MinIO.BucketName == "") {
		return errors.New("配置校验失败: storage.driver=minio 需要 endpoint 与 bucket_name")
	}
	if c.Storage.Driver == "local" && c.Storage.Root == "" {
		return errors.New("配置校验失败: storage.driver=local 需要 root")
	}
	if c.RateLimit.Backend == "redis" && !c.Database.Redis.Enabled() {
		return errors.New("配置校验失败: rate_limit.backend=redis 需要 database.redis.addr")
	}
	return nil
}

// Init 初始化配置加载，从指定的路径读取 YAML 文件并解析到 Conf 变量中。
func Init(configPath string) {
	cfg, err := Load(configPath)
	if err != nil {
		panic(err)
	}
	Conf = cfg
}
