package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App    AppConfig    `mapstructure:"app"`
	Server ServerConfig `mapstructure:"server"`
	Log    LogConfig    `mapstructure:"log"`
	DB     DBConfig     `mapstructure:"db"`
	Cron   CronConfig   `mapstructure:"cron"`

	Accrual   AccrualConfig   `mapstructure:"accrual"`
	Auth      AuthConfig      `mapstructure:"auth"`
	SweepLock SweepLockConfig `mapstructure:"sweep_lock"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
}

type CronConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Sweep   string `mapstructure:"sweep"`
}

// AccrualConfig parameterizes the ROI engine itself.
type AccrualConfig struct {
	// DefaultROIPct is the last-resort rate when neither the investment nor
	// the owner profile carries one.
	DefaultROIPct    float64 `mapstructure:"default_roi_pct"`
	DefaultCycleDays int     `mapstructure:"default_cycle_days"`
	SweepBatchSize   int     `mapstructure:"sweep_batch_size"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

// SweepLockConfig controls the optional Redis lease that keeps overlapping
// sweep triggers from running concurrently. Per-record accrual-event
// uniqueness still holds without it; the lock avoids wasted work.
type SweepLockConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	RedisAddr string        `mapstructure:"redis_addr"`
	RedisDB   int           `mapstructure:"redis_db"`
	TTL       time.Duration `mapstructure:"ttl"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("IC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("cron.enabled", true)
	v.SetDefault("cron.sweep", "@every 1h")

	v.SetDefault("accrual.default_roi_pct", 10)
	v.SetDefault("accrual.default_cycle_days", 7)
	v.SetDefault("accrual.sweep_batch_size", 200)

	v.SetDefault("auth.jwt_secret", "")

	v.SetDefault("sweep_lock.enabled", false)
	v.SetDefault("sweep_lock.redis_addr", "localhost:6379")
	v.SetDefault("sweep_lock.redis_db", 0)
	v.SetDefault("sweep_lock.ttl", "10m")

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
