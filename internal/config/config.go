package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	S3         S3Config         `mapstructure:"s3"`
	JWT        JWTConfig        `mapstructure:"jwt"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Membership MembershipConfig `mapstructure:"membership"`
	Uploads    UploadsConfig    `mapstructure:"uploads"`
	Cache      CacheConfig      `mapstructure:"cache"`
}

type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	URI  string `mapstructure:"uri"`
	Name string `mapstructure:"name"`
}

type S3Config struct {
	Endpoint        string        `mapstructure:"endpoint"`
	Region          string        `mapstructure:"region"`
	AccessKeyID     string        `mapstructure:"access_key_id"`
	SecretAccessKey string        `mapstructure:"secret_access_key"`
	BucketName      string        `mapstructure:"bucket_name"`
	UseSSL          bool          `mapstructure:"use_ssl"`
	URLExpiry       time.Duration `mapstructure:"url_expiry"`
}

// JWTConfig defines JWT specific configuration
type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Expiration time.Duration `mapstructure:"expiration"`
}

// LoggingConfig selects the log level and an optional rotated log file.
// An empty File keeps logs on stdout only.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	FormatJSON bool   `mapstructure:"format_json"`
	File       string `mapstructure:"file"`
	ToStdout   bool   `mapstructure:"to_stdout"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// MembershipConfig controls how membership status is derived.
type MembershipConfig struct {
	ExpiringWindowDays int    `mapstructure:"expiring_window_days"`
	Timezone           string `mapstructure:"timezone"`
}

// Location resolves Timezone. An empty value means the process local zone.
func (m MembershipConfig) Location() (*time.Location, error) {
	if m.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(m.Timezone)
}

// UploadsConfig caps the size of uploaded images.
type UploadsConfig struct {
	ProgressPhotoMaxBytes int64 `mapstructure:"progress_photo_max_bytes"`
	ExerciseImageMaxBytes int64 `mapstructure:"exercise_image_max_bytes"`
}

// CacheConfig sizes the in-process cache of presigned download URLs.
// A zero size disables the cache.
type CacheConfig struct {
	URLCacheSizeMB int           `mapstructure:"url_cache_size_mb"`
	URLTTL         time.Duration `mapstructure:"url_ttl"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.shutdown_timeout", "5s")
	v.SetDefault("database.uri", "mongodb://localhost:27017")
	v.SetDefault("database.name", "gym_admin")
	v.SetDefault("s3.use_ssl", true)
	v.SetDefault("s3.url_expiry", "15m")
	v.SetDefault("jwt.expiration", "1h")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.to_stdout", true)
	v.SetDefault("logging.max_size_mb", 50)
	v.SetDefault("logging.max_backups", 5)
	v.SetDefault("logging.max_age_days", 30)
	v.SetDefault("membership.expiring_window_days", 7)
	v.SetDefault("membership.timezone", "")
	v.SetDefault("uploads.progress_photo_max_bytes", 5*1024*1024)
	v.SetDefault("uploads.exercise_image_max_bytes", 3*1024*1024)
	v.SetDefault("cache.url_cache_size_mb", 8)
	v.SetDefault("cache.url_ttl", "5m")
}

// LoadConfig reads configuration from file or environment variables.
// Nested keys map to environment variables with dots replaced by underscores,
// e.g. membership.expiring_window_days -> MEMBERSHIP_EXPIRING_WINDOW_DAYS.
func LoadConfig(path string) (Config, error) {
	var config Config

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	setDefaults(v)

	// A missing file is fine, env vars and defaults still apply.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return config, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(&config); err != nil {
		return config, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return config, err
	}
	return config, nil
}

// Validate rejects values the services cannot run with.
func (c Config) Validate() error {
	if c.Membership.ExpiringWindowDays < 0 {
		return fmt.Errorf("membership.expiring_window_days must not be negative, got %d", c.Membership.ExpiringWindowDays)
	}
	if _, err := c.Membership.Location(); err != nil {
		return fmt.Errorf("membership.timezone: %w", err)
	}
	if c.Uploads.ProgressPhotoMaxBytes <= 0 || c.Uploads.ExerciseImageMaxBytes <= 0 {
		return errors.New("upload size limits must be positive")
	}
	if c.Cache.URLTTL > 0 && c.S3.URLExpiry > 0 && 2*c.Cache.URLTTL > c.S3.URLExpiry {
		return fmt.Errorf("cache.url_ttl (%s) must be at most half of s3.url_expiry (%s)", c.Cache.URLTTL, c.S3.URLExpiry)
	}
	return nil
}
