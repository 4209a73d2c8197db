package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Log       LogConfig
	Stats     StatsConfig
	SMS       SMSConfig
	Reminders RemindersConfig
	Fees      FeesConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret            string
	Expiration        time.Duration
	RefreshExpiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// StatsConfig governs the cached institution-wide dashboard endpoint.
type StatsConfig struct {
	Enabled  bool
	CacheTTL time.Duration
}

// SMSConfig selects and configures the outbound SMS provider.
type SMSConfig struct {
	Provider  string
	SenderID  string
	APIKey    string
	APISecret string
	// Twilio-specific fields; ignored by the other providers.
	AccountSID string
	FromNumber string
}

// RemindersConfig tunes the fee reminder dispatch queue.
type RemindersConfig struct {
	Workers    int
	MaxRetries int
	RetryDelay time.Duration
}

// FeesConfig holds fee engine tunables.
type FeesConfig struct {
	// GraceDays is the window after enrollment start before an unpaid
	// enrollment is reported as overdue.
	GraceDays int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:            v.GetString("JWT_SECRET"),
		Expiration:        parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		RefreshExpiration: parseDuration(v.GetString("REFRESH_TOKEN_EXPIRATION"), 7*24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Stats = StatsConfig{
		Enabled:  v.GetBool("ENABLE_STATS"),
		CacheTTL: parseDuration(v.GetString("STATS_CACHE_TTL"), 5*time.Minute),
	}

	cfg.SMS = SMSConfig{
		Provider:   v.GetString("SMS_PROVIDER"),
		SenderID:   v.GetString("SMS_SENDER_ID"),
		APIKey:     v.GetString("SMS_API_KEY"),
		APISecret:  v.GetString("SMS_API_SECRET"),
		AccountSID: v.GetString("TWILIO_ACCOUNT_SID"),
		FromNumber: v.GetString("TWILIO_FROM_NUMBER"),
	}

	cfg.Reminders = RemindersConfig{
		Workers:    v.GetInt("REMINDER_WORKERS"),
		MaxRetries: v.GetInt("REMINDER_MAX_RETRIES"),
		RetryDelay: parseDuration(v.GetString("REMINDER_RETRY_DELAY"), 5*time.Second),
	}

	cfg.Fees = FeesConfig{
		GraceDays: v.GetInt("FEE_GRACE_DAYS"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "institute")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("REFRESH_TOKEN_EXPIRATION", "168h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_STATS", true)
	v.SetDefault("STATS_CACHE_TTL", "5m")

	v.SetDefault("SMS_PROVIDER", "console")
	v.SetDefault("SMS_SENDER_ID", "INSTTE")
	v.SetDefault("SMS_API_KEY", "")
	v.SetDefault("SMS_API_SECRET", "")
	v.SetDefault("TWILIO_ACCOUNT_SID", "")
	v.SetDefault("TWILIO_FROM_NUMBER", "")

	v.SetDefault("REMINDER_WORKERS", 2)
	v.SetDefault("REMINDER_MAX_RETRIES", 3)
	v.SetDefault("REMINDER_RETRY_DELAY", "5s")

	v.SetDefault("FEE_GRACE_DAYS", 30)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
