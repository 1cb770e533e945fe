package config

import (
	"errors"
	"io/fs"
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

	Database      DatabaseConfig
	Redis         RedisConfig
	JWT           JWTConfig
	CORS          CORSConfig
	Log           LogConfig
	Peers         PeersConfig
	Notifications NotificationConfig
	Eligibility   EligibilityConfig
	Import        ImportConfig
	Metrics       MetricsConfig
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
	Issuer            string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// PeersConfig locates the sibling services and bounds every call made to them.
type PeersConfig struct {
	CourseServiceURL       string
	UserServiceURL         string
	NotificationServiceURL string
	Timeout                time.Duration
	Retries                int
	ServiceToken           string
}

// NotificationConfig sizes the outbound notification queue.
type NotificationConfig struct {
	Enabled    bool
	Workers    int
	BufferSize int
	Retries    int
	RetryDelay time.Duration
}

// EligibilityConfig controls caching of course enrollments fetched by the exam service.
// Cached lists are not invalidated when the course service approves or rejects
// an enrollment, so a decision can take up to CacheTTL (ELIGIBILITY_CACHE_TTL)
// to show in a student's exam list. Keep the TTL short.
type EligibilityConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

// ImportConfig holds spreadsheet import defaults.
type ImportConfig struct {
	DefaultPassword string
}

type MetricsConfig struct {
	Enabled bool
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
		if !errors.As(err, &notFound) && !isMissingFile(err) {
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
		Issuer:            v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	retries := v.GetInt("PEER_RETRIES")
	if retries < 0 {
		retries = 0
	}
	if retries > 1 {
		retries = 1
	}
	cfg.Peers = PeersConfig{
		CourseServiceURL:       strings.TrimRight(v.GetString("COURSE_SERVICE_URL"), "/"),
		UserServiceURL:         strings.TrimRight(v.GetString("USER_SERVICE_URL"), "/"),
		NotificationServiceURL: strings.TrimRight(v.GetString("NOTIFICATION_SERVICE_URL"), "/"),
		Timeout:                parseDuration(v.GetString("PEER_TIMEOUT"), 3*time.Second),
		Retries:                retries,
		ServiceToken:           v.GetString("SERVICE_TOKEN"),
	}

	cfg.Notifications = NotificationConfig{
		Enabled:    v.GetBool("ENABLE_NOTIFICATIONS"),
		Workers:    v.GetInt("NOTIFY_WORKERS"),
		BufferSize: v.GetInt("NOTIFY_BUFFER_SIZE"),
		Retries:    v.GetInt("NOTIFY_RETRIES"),
		RetryDelay: parseDuration(v.GetString("NOTIFY_RETRY_DELAY"), 2*time.Second),
	}

	cfg.Eligibility = EligibilityConfig{
		CacheEnabled: v.GetBool("ELIGIBILITY_CACHE_ENABLED"),
		CacheTTL:     parseDuration(v.GetString("ELIGIBILITY_CACHE_TTL"), 30*time.Second),
	}

	cfg.Import = ImportConfig{
		DefaultPassword: v.GetString("IMPORT_DEFAULT_PASSWORD"),
	}

	cfg.Metrics = MetricsConfig{
		Enabled: v.GetBool("ENABLE_METRICS"),
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
	v.SetDefault("DB_NAME", "pariksha")
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
	v.SetDefault("JWT_ISSUER", "pariksha")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("COURSE_SERVICE_URL", "http://localhost:8081")
	v.SetDefault("USER_SERVICE_URL", "http://localhost:8084")
	v.SetDefault("NOTIFICATION_SERVICE_URL", "http://localhost:8085")
	v.SetDefault("PEER_TIMEOUT", "3s")
	v.SetDefault("PEER_RETRIES", 1)
	v.SetDefault("SERVICE_TOKEN", "dev_service_token")

	v.SetDefault("ENABLE_NOTIFICATIONS", true)
	v.SetDefault("NOTIFY_WORKERS", 2)
	v.SetDefault("NOTIFY_BUFFER_SIZE", 64)
	v.SetDefault("NOTIFY_RETRIES", 3)
	v.SetDefault("NOTIFY_RETRY_DELAY", "2s")

	v.SetDefault("ELIGIBILITY_CACHE_ENABLED", false)
	v.SetDefault("ELIGIBILITY_CACHE_TTL", "30s")

	v.SetDefault("IMPORT_DEFAULT_PASSWORD", "123456")
	v.SetDefault("ENABLE_METRICS", true)
}

// isMissingFile reports a missing explicit .env; viper only returns
// ConfigFileNotFoundError when searching config paths.
func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
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
