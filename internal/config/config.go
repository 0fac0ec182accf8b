package config

import (
	"time"

	"github.com/moka/kcs/internal/logger"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Task     TaskConfig     `mapstructure:"task"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// EngineConfig 管道引擎配置
type EngineConfig struct {
	ProtectionWindowHours int     `mapstructure:"protection_window_hours"` // 撞单保护期（小时）
	ApproachingHours      int     `mapstructure:"approaching_hours"`       // 到期前提醒窗口（小时）
	SamplePendingDays     int     `mapstructure:"sample_pending_days"`     // 寄样未签收提醒阈值（天）
	ResultPendingDays     int     `mapstructure:"result_pending_days"`     // 发布后未录入结果提醒阈值（天）
	SweepPeriodHours      int     `mapstructure:"sweep_period_hours"`      // 提醒去重周期（小时）
	RoiBreakEven          float64 `mapstructure:"roi_break_even"`          // 保本线
	RoiProfit             float64 `mapstructure:"roi_profit"`              // 盈利线
	RoiHighProfit         float64 `mapstructure:"roi_high_profit"`         // 高盈利线
}

// ProtectionWindow 撞单保护期
func (e EngineConfig) ProtectionWindow() time.Duration {
	return time.Duration(e.ProtectionWindowHours) * time.Hour
}

// ApproachingWindow 到期前提醒窗口
func (e EngineConfig) ApproachingWindow() time.Duration {
	return time.Duration(e.ApproachingHours) * time.Hour
}

// SamplePendingAge 寄样未签收提醒阈值
func (e EngineConfig) SamplePendingAge() time.Duration {
	return time.Duration(e.SamplePendingDays) * 24 * time.Hour
}

// ResultPendingAge 结果未录入提醒阈值
func (e EngineConfig) ResultPendingAge() time.Duration {
	return time.Duration(e.ResultPendingDays) * 24 * time.Hour
}

// SweepPeriod 提醒去重周期
func (e EngineConfig) SweepPeriod() time.Duration {
	return time.Duration(e.SweepPeriodHours) * time.Hour
}

type TaskConfig struct {
	SweepInterval   int `mapstructure:"sweep_interval"`    // 扫描间隔（秒）
	ClaimGCInterval int `mapstructure:"claim_gc_interval"` // 过期占用清理间隔（秒）
	NotifyWorkers   int `mapstructure:"notify_workers"`    // 通知分发协程数
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // 日志级别: debug, info, warn, error, fatal
	Output string `mapstructure:"output"` // 输出目标: stdout, file
	File   string `mapstructure:"file"`   // 日志文件路径（当output为file时使用）
}

func Load() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/kcs")

	// 设置默认值
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "")
	viper.SetDefault("database.dbname", "kcs")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("engine.protection_window_hours", 168)
	viper.SetDefault("engine.approaching_hours", 24)
	viper.SetDefault("engine.sample_pending_days", 7)
	viper.SetDefault("engine.result_pending_days", 14)
	viper.SetDefault("engine.sweep_period_hours", 24)
	viper.SetDefault("engine.roi_break_even", 1.0)
	viper.SetDefault("engine.roi_profit", 1.2)
	viper.SetDefault("engine.roi_high_profit", 3.0)
	viper.SetDefault("task.sweep_interval", 600)
	viper.SetDefault("task.claim_gc_interval", 3600)
	viper.SetDefault("task.notify_workers", 8)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.output", "stdout")
	viper.SetDefault("log.file", "logs/app.log")

	// 自动读取环境变量
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		logger.Warn("Warning: Could not read config file: %v", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		logger.Fatal("Unable to decode config into struct: %v", err)
	}

	return &config
}
