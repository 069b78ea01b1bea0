package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Package storage drivers.
const (
	PackageDriverFile  = "file"
	PackageDriverMinIO = "minio"
)

// Config holds runtime configuration values for the API service and the CLI.
type Config struct {
	AppName         string
	AppEnv          string
	AppPort         string
	DatabaseURL     string
	RedisURL        string
	NATSURL         string
	EventsSubject   string
	JWTSecret       string
	Forum           ForumConfig
	UnreadCacheTTL  time.Duration
	Packages        PackagesConfig
	MinIO           MinIOConfig
	RateLimitMax    int
	RateLimitWindow time.Duration
}

// ForumConfig holds site-wide forum settings.
type ForumConfig struct {
	AllowForcedReadTracking bool
	OldPostDays             int
}

// OldPostWindow is the age after which posts no longer count as unread.
func (f ForumConfig) OldPostWindow() time.Duration {
	return time.Duration(f.OldPostDays) * 24 * time.Hour
}

// PackagesConfig selects where deployed H5P packages are read from.
type PackagesConfig struct {
	Driver string
	Dir    string
}

// MinIOConfig configures the S3 compatible package store.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("OVERVIEW")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Activity Overview API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("events.subject", "overview.forum.unread")
	v.SetDefault("forum.allow_forced_read_tracking", true)
	v.SetDefault("forum.old_post_days", 14)
	v.SetDefault("unread_cache.ttl", "5m")
	v.SetDefault("packages.driver", PackageDriverFile)
	v.SetDefault("packages.dir", "./data/h5p")
	v.SetDefault("minio.bucket", "h5p-packages")
	v.SetDefault("minio.use_ssl", false)
	v.SetDefault("rate_limit.max", 30)
	v.SetDefault("rate_limit.window", "1m")

	ttl, err := parseDuration(v, "unread_cache.ttl")
	if err != nil {
		return Config{}, err
	}
	window, err := parseDuration(v, "rate_limit.window")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppName:       v.GetString("app.name"),
		AppEnv:        v.GetString("app.env"),
		AppPort:       v.GetString("app.port"),
		DatabaseURL:   v.GetString("database.url"),
		RedisURL:      v.GetString("redis.url"),
		NATSURL:       v.GetString("nats.url"),
		EventsSubject: v.GetString("events.subject"),
		JWTSecret:     v.GetString("jwt.secret"),
		Forum: ForumConfig{
			AllowForcedReadTracking: v.GetBool("forum.allow_forced_read_tracking"),
			OldPostDays:             v.GetInt("forum.old_post_days"),
		},
		UnreadCacheTTL: ttl,
		Packages: PackagesConfig{
			Driver: strings.ToLower(strings.TrimSpace(v.GetString("packages.driver"))),
			Dir:    v.GetString("packages.dir"),
		},
		MinIO: MinIOConfig{
			Endpoint:  v.GetString("minio.endpoint"),
			AccessKey: v.GetString("minio.access_key"),
			SecretKey: v.GetString("minio.secret_key"),
			Bucket:    v.GetString("minio.bucket"),
			UseSSL:    v.GetBool("minio.use_ssl"),
		},
		RateLimitMax:    v.GetInt("rate_limit.max"),
		RateLimitWindow: window,
	}

	if cfg.Forum.OldPostDays <= 0 {
		cfg.Forum.OldPostDays = 14
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("jwt secret must be provided")
	}

	switch c.Packages.Driver {
	case PackageDriverFile:
		if c.Packages.Dir == "" {
			return fmt.Errorf("packages.dir must be set for the file package driver")
		}
	case PackageDriverMinIO:
		if c.MinIO.Endpoint == "" || c.MinIO.Bucket == "" {
			return fmt.Errorf("minio endpoint and bucket must be set for the minio package driver")
		}
	default:
		return fmt.Errorf("unsupported packages driver %q", c.Packages.Driver)
	}

	return nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	value, err := time.ParseDuration(v.GetString(key))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return value, nil
}
