// Package config loads runtime settings from .env and the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	AppEnv      string `mapstructure:"APP_ENV"`
	Port        string `mapstructure:"PORT"`
	StoreDriver string `mapstructure:"STORE_DRIVER"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	SessionSecret string `mapstructure:"SESSION_SECRET"`
	JWTSecretKey  string `mapstructure:"JWT_SECRET_KEY"`
	JWTIssuer     string `mapstructure:"JWT_ISSUER"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	AMQPURL    string `mapstructure:"AMQP_URL"`
	KarmaQueue string `mapstructure:"KARMA_QUEUE"`

	VoteMaxAttempts   int           `mapstructure:"VOTE_MAX_ATTEMPTS"`
	NotifyDedupWindow time.Duration `mapstructure:"NOTIFY_DEDUP_WINDOW"`
	SideEffectTimeout time.Duration `mapstructure:"SIDE_EFFECT_TIMEOUT"`
}

var keys = []string{
	"APP_ENV", "PORT", "STORE_DRIVER", "DATABASE_URL",
	"SESSION_SECRET", "JWT_SECRET_KEY", "JWT_ISSUER",
	"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
	"AMQP_URL", "KARMA_QUEUE",
	"VOTE_MAX_ATTEMPTS", "NOTIFY_DEDUP_WINDOW", "SIDE_EFFECT_TIMEOUT",
}

// Load reads ./.env when present, then the process environment.
func Load() (*Config, error) {
	return LoadFrom(viper.New(), ".")
}

// LoadFrom is Load with an explicit viper instance and .env directory.
func LoadFrom(v *viper.Viper, dir string) (*Config, error) {
	setDefaults(v)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(dir)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// AutomaticEnv only covers keys viper already knows about.
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config file error: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "dev")
	v.SetDefault("PORT", "32919")
	v.SetDefault("STORE_DRIVER", DriverPostgres)
	v.SetDefault("SESSION_SECRET", "secret")
	v.SetDefault("JWT_SECRET_KEY", "change_me_in_production")
	v.SetDefault("JWT_ISSUER", "agora")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("KARMA_QUEUE", "karma_events")
	v.SetDefault("VOTE_MAX_ATTEMPTS", 5)
	v.SetDefault("NOTIFY_DEDUP_WINDOW", "24h")
	v.SetDefault("SIDE_EFFECT_TIMEOUT", "5s")
}

func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_DRIVER=%s", DriverPostgres)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.VoteMaxAttempts < 1 {
		return fmt.Errorf("VOTE_MAX_ATTEMPTS must be at least 1")
	}
	if c.NotifyDedupWindow <= 0 || c.SideEffectTimeout <= 0 {
		return fmt.Errorf("NOTIFY_DEDUP_WINDOW and SIDE_EFFECT_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) IsDev() bool { return c.AppEnv == "dev" }
