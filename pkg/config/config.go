package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Configuration struct {
	Server  ServerConfig `validate:"required"`
	Mongo   MongoConfig  `validate:"required"`
	Claim   ClaimConfig  `validate:"required"`
	Auth    AuthConfig   `validate:"required"`
	Redis   RedisConfig
	Sentry  SentryConfig
	Logging LoggingConfig `validate:"required"`
}

type ServerConfig struct {
	Address         string        `mapstructure:"address" validate:"required"`
	GinMode         string        `mapstructure:"gin_mode" validate:"omitempty,oneof=debug release test"`
	TrustedProxies  []string      `mapstructure:"trusted_proxies"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type MongoConfig struct {
	URI      string `mapstructure:"uri" validate:"required"`
	Database string `mapstructure:"database" validate:"required"`
	// Transactions wraps each claim in a multi-document transaction.
	// Requires a replica set.
	Transactions   bool          `mapstructure:"transactions"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

type ClaimConfig struct {
	Cooldown      time.Duration `mapstructure:"cooldown" validate:"gt=0"`
	RateRPS       float64       `mapstructure:"rate_rps" validate:"gte=0"`
	RateBurst     int           `mapstructure:"rate_burst" validate:"gte=0"`
	CookieMaxAge  time.Duration `mapstructure:"cookie_max_age"`
	CookieSecure  bool          `mapstructure:"cookie_secure"`
	CacheCooldown bool          `mapstructure:"cache_cooldown"`
}

type AuthConfig struct {
	Supabase     SupabaseConfig `mapstructure:"supabase"`
	AdminEmails  []string       `mapstructure:"admin_emails"`
	CookieName   string         `mapstructure:"cookie_name" validate:"required"`
	CookieSecure bool           `mapstructure:"cookie_secure"`
}

type SupabaseConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	// JWTSecret enables local token validation; without it every
	// admin request asks Supabase who the token belongs to.
	JWTSecret string `mapstructure:"jwt_secret"`
}

type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr" validate:"required_if=Enabled true"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type SentryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	DSN         string  `mapstructure:"dsn" validate:"required_if=Enabled true"`
	Environment string  `mapstructure:"environment"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
}

func NewConfig() (*Configuration, error) {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./pkg/config")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/coupon-drop")

	v.SetEnvPrefix("COUPON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// setDefaults registers every key so AutomaticEnv can override keys
// that are absent from the config file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.gin_mode", "release")
	v.SetDefault("server.trusted_proxies", []string{})
	v.SetDefault("server.shutdown_timeout", 5*time.Second)

	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "coupon_drop")
	v.SetDefault("mongo.transactions", false)
	v.SetDefault("mongo.connect_timeout", 10*time.Second)

	v.SetDefault("claim.cooldown", 24*time.Hour)
	v.SetDefault("claim.rate_rps", 1.0)
	v.SetDefault("claim.rate_burst", 5)
	v.SetDefault("claim.cookie_max_age", 365*24*time.Hour)
	v.SetDefault("claim.cookie_secure", false)
	v.SetDefault("claim.cache_cooldown", true)

	v.SetDefault("auth.supabase.base_url", "")
	v.SetDefault("auth.supabase.api_key", "")
	v.SetDefault("auth.supabase.jwt_secret", "")
	v.SetDefault("auth.admin_emails", []string{})
	v.SetDefault("auth.cookie_name", "sb-access-token")
	v.SetDefault("auth.cookie_secure", false)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "coupon:stats")
	v.SetDefault("redis.ttl", 7*24*time.Hour)

	v.SetDefault("sentry.enabled", false)
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "local")
	v.SetDefault("sentry.sample_rate", 1.0)

	v.SetDefault("logging.level", "info")
}

func (c Configuration) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

// GetDefaultConfig returns a configuration for tests and local scripts
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Server: ServerConfig{Address: ":8080", GinMode: "test", ShutdownTimeout: 5 * time.Second},
		Mongo: MongoConfig{
			URI:            GetEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database:       GetEnv("MONGO_DB", "coupon_drop"),
			ConnectTimeout: 10 * time.Second,
		},
		Claim: ClaimConfig{
			Cooldown:      24 * time.Hour,
			RateRPS:       1,
			RateBurst:     5,
			CookieMaxAge:  365 * 24 * time.Hour,
			CacheCooldown: true,
		},
		Auth:    AuthConfig{CookieName: "sb-access-token"},
		Redis:   RedisConfig{Prefix: "coupon:stats", TTL: 7 * 24 * time.Hour},
		Logging: LoggingConfig{Level: "debug"},
	}
}

// GetEnv returns the environment variable or fallback when unset
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}
