package config

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	DB        DBConfig        `mapstructure:"db"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Search    SearchConfig    `mapstructure:"search"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Log       LogConfig       `mapstructure:"log"`
	Collation CollationConfig `mapstructure:"collation"`
}

type ServerConfig struct {
	Addr           string   `mapstructure:"addr"`
	Host           string   `mapstructure:"host"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type DBConfig struct {
	Source      string `mapstructure:"source"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

type JWTConfig struct {
	Secret  string        `mapstructure:"secret"`
	TTL     time.Duration `mapstructure:"ttl"`
	JWKSURL string        `mapstructure:"jwks_url"`
}

// SearchConfig points at Meilisearch. An empty URL disables the index and
// leaves search to Postgres.
type SearchConfig struct {
	URL            string        `mapstructure:"url"`
	APIKey         string        `mapstructure:"api_key"`
	Index          string        `mapstructure:"index"`
	HealthInterval time.Duration `mapstructure:"health_interval"`
}

type RedisConfig struct {
	URL     string `mapstructure:"url"`
	Channel string `mapstructure:"channel"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type CollationConfig struct {
	Locale string `mapstructure:"locale"`
}

// Every key gets a default so AutomaticEnv can override it without a file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("db.source", "")
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.jwks_url", "")
	v.SetDefault("search.url", "")
	v.SetDefault("search.api_key", "")
	v.SetDefault("redis.url", "")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("db.auto_migrate", true)
	v.SetDefault("jwt.ttl", time.Hour)
	v.SetDefault("search.index", "documents")
	v.SetDefault("search.health_interval", 15*time.Second)
	v.SetDefault("redis.channel", "tree-events")
	v.SetDefault("log.level", "info")
	v.SetDefault("collation.locale", "en")
}

func Load() (*Config, error) {
	return load(viper.GetViper(), "./configs", "/configs")
}

func load(v *viper.Viper, paths ...string) (*Config, error) {
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetConfigName("settings")
	v.SetConfigType("yml")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.DB.Source == "" {
		return nil, errors.New("db.source is required")
	}
	if cfg.JWT.Secret == "" && cfg.JWT.JWKSURL == "" {
		return nil, errors.New("jwt.secret or jwt.jwks_url is required")
	}

	return &cfg, nil
}

func (c LogConfig) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}
