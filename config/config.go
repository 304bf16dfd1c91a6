package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Cyoyuu/UMass-SmartDine-Finder/internal/dining"
)

// Config 应用全局配置结构体
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"db"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Log      LogConfig      `mapstructure:"log"`
	Dining   DiningConfig   `mapstructure:"dining"`
	Feature  FeatureConfig  `mapstructure:"feature"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port     int             `mapstructure:"port"`
	BaseURL  string          `mapstructure:"base_url"`
	Timezone string          `mapstructure:"timezone"` // 餐段判断使用的校园本地时区
	CORS     CORSConfig      `mapstructure:"cors"`
	Limit    RateLimitConfig `mapstructure:"rate_limit"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// RateLimitConfig 接口限流配置（窗口内最大请求数）
type RateLimitConfig struct {
	Login     int           `mapstructure:"login"`
	Recommend int           `mapstructure:"recommend"`
	Window    time.Duration `mapstructure:"window"`
}

// DatabaseConfig PostgreSQL 数据库配置
type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"sslmode"`
	Timezone        string `mapstructure:"timezone"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // 连接最大生命周期（分钟）
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // 空闲连接最大存活时间（分钟）
}

// DSN 生成 PostgreSQL 连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// RedisConfig Redis 缓存配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig JWT 认证配置
type AuthConfig struct {
	JWTSecret               string        `mapstructure:"jwt_secret"`
	AccessTokenTTL          time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTLDefault  time.Duration `mapstructure:"refresh_token_ttl_default"`
	RefreshTokenTTLRemember time.Duration `mapstructure:"refresh_token_ttl_remember_me"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string   `mapstructure:"level"`
	Format string   `mapstructure:"format"`
	Output []string `mapstructure:"output"` // 为空时写 stdout
}

// DiningConfig 餐段边界与评分权重
type DiningConfig struct {
	BreakfastStart string `mapstructure:"breakfast_start"`
	BreakfastEnd   string `mapstructure:"breakfast_end"`
	LunchEnd       string `mapstructure:"lunch_end"`
	DinnerEnd      string `mapstructure:"dinner_end"`

	BaseScore            float64 `mapstructure:"base_score"`
	DietMatchBonus       float64 `mapstructure:"diet_match_bonus"`
	PopularityMaxBonus   float64 `mapstructure:"popularity_max_bonus"`
	PopularitySaturation int     `mapstructure:"popularity_saturation"`
	HallPolicy           string  `mapstructure:"hall_policy"`
	TopK                 int     `mapstructure:"top_k"`

	// 外部信号：评价均分与近期就餐次数对食堂得分的加成
	ReviewWeight        float64 `mapstructure:"review_weight"`
	HistoryWeight       float64 `mapstructure:"history_weight"`
	HistoryLookbackDays int     `mapstructure:"history_lookback_days"`

	CacheTTL time.Duration `mapstructure:"cache_ttl"` // 菜单快照缓存时长
}

// MealSchedule 转换为引擎使用的餐段边界
func (d *DiningConfig) MealSchedule() (dining.MealSchedule, error) {
	var s dining.MealSchedule
	for _, f := range []struct {
		key string
		raw string
		dst *dining.Clock
	}{
		{"dining.breakfast_start", d.BreakfastStart, &s.BreakfastStart},
		{"dining.breakfast_end", d.BreakfastEnd, &s.BreakfastEnd},
		{"dining.lunch_end", d.LunchEnd, &s.LunchEnd},
		{"dining.dinner_end", d.DinnerEnd, &s.DinnerEnd},
	} {
		c, err := dining.ParseClock(f.raw)
		if err != nil {
			return s, fmt.Errorf("配置校验失败: %s: %w", f.key, err)
		}
		*f.dst = c
	}
	if err := s.Validate(); err != nil {
		return s, fmt.Errorf("配置校验失败: %w", err)
	}
	return s, nil
}

// ScoringConfig 转换为引擎使用的评分权重
func (d *DiningConfig) ScoringConfig() dining.ScoringConfig {
	return dining.ScoringConfig{
		BaseScore:            d.BaseScore,
		DietMatchBonus:       d.DietMatchBonus,
		PopularityMaxBonus:   d.PopularityMaxBonus,
		PopularitySaturation: d.PopularitySaturation,
		HallPolicy:           dining.HallPolicy(d.HallPolicy),
		TopK:                 d.TopK,
	}
}

// FeatureConfig 功能开关配置
type FeatureConfig struct {
	RegistrationEnabled bool `mapstructure:"registration_enabled"`
	RedisMenuCache      bool `mapstructure:"redis_menu_cache"`     // 菜单快照写入 Redis 供多实例共享
	HistorySignal       bool `mapstructure:"history_signal"`       // 就餐历史参与食堂排序
	ReviewSignal        bool `mapstructure:"review_signal"`        // 评价均分参与食堂排序
	AllowAnonymous      bool `mapstructure:"allow_anonymous"`      // 未登录用户可获取（无偏好）推荐
	MigrateOnLaunch     bool `mapstructure:"migrate_on_launch"`
}

// Load 从配置文件与环境变量加载配置
// 优先级：环境变量 > 配置文件 > 默认值
func Load(path string) (*Config, error) {
	v := viper.New()

	// ── 默认值 ──
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.timezone", "America/New_York")
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:5173"})
	v.SetDefault("server.rate_limit.login", 10)
	v.SetDefault("server.rate_limit.recommend", 60)
	v.SetDefault("server.rate_limit.window", "1m")

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "smartdine")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "America/New_York")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", 60)  // 60分钟
	v.SetDefault("db.conn_max_idle_time", 30) // 30分钟

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.access_token_ttl", "15m")
	v.SetDefault("auth.refresh_token_ttl_default", "24h")
	v.SetDefault("auth.refresh_token_ttl_remember_me", "168h")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output", []string{"stdout"})

	v.SetDefault("dining.breakfast_start", "07:00")
	v.SetDefault("dining.breakfast_end", "11:00")
	v.SetDefault("dining.lunch_end", "16:00")
	v.SetDefault("dining.dinner_end", "21:00")
	v.SetDefault("dining.base_score", 50)
	v.SetDefault("dining.diet_match_bonus", 15)
	v.SetDefault("dining.popularity_max_bonus", 10)
	v.SetDefault("dining.popularity_saturation", 200)
	v.SetDefault("dining.hall_policy", "mean")
	v.SetDefault("dining.top_k", 5)
	v.SetDefault("dining.review_weight", 2)
	v.SetDefault("dining.history_weight", 0.5)
	v.SetDefault("dining.history_lookback_days", 30)
	v.SetDefault("dining.cache_ttl", "5m")

	v.SetDefault("feature.registration_enabled", true)
	v.SetDefault("feature.redis_menu_cache", true)
	v.SetDefault("feature.history_signal", true)
	v.SetDefault("feature.review_signal", true)
	v.SetDefault("feature.allow_anonymous", true)
	v.SetDefault("feature.migrate_on_launch", true)

	// ── 配置文件 ──
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// ── 环境变量 ──
	v.SetEnvPrefix("SMARTDINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		// 配置文件不存在时仅依赖默认值和环境变量
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	// ── 关键配置校验 ──
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate 校验关键配置项
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 不能为空")
	}
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 长度不能少于 16 字符")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("配置校验失败: server.port 必须在 1-65535 之间")
	}
	if _, err := time.LoadLocation(c.Server.Timezone); err != nil {
		return fmt.Errorf("配置校验失败: server.timezone 无效: %w", err)
	}
	if _, err := c.Dining.MealSchedule(); err != nil {
		return err
	}
	if err := c.Dining.ScoringConfig().Validate(); err != nil {
		return fmt.Errorf("配置校验失败: %w", err)
	}
	if c.Dining.ReviewWeight < 0 || c.Dining.HistoryWeight < 0 {
		return fmt.Errorf("配置校验失败: dining 信号权重不能为负数")
	}
	if c.Dining.HistoryLookbackDays <= 0 {
		return fmt.Errorf("配置校验失败: dining.history_lookback_days 必须为正数")
	}
	return nil
}

// Location 返回校园本地时区（已在 Validate 中校验）
func (c *ServerConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
