package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/actorhub/actorhub/pkg/db"
	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	LogLevel  string
	LogFormat string

	OtelEnabled          bool
	OtelExporterEndpoint string
	OtelSamplingRatio    float64

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBSQLitePath      string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	SnowflakeNodeID int64

	RulesConfigPath      string
	ReconcileRunOnce     bool
	SchedulerEnabledJobs string

	BootstrapAdminEmail string

	RateLimit RateLimitConfig
}

// RateLimitConfig throttles usage ingestion through redis token buckets.
type RateLimitConfig struct {
	Enabled       bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	UsageIngestKeyRate        float64
	UsageIngestKeyBurst       int
	UsageIngestIdentityRate   float64
	UsageIngestIdentityBurst  int
	UsageIngestLockTTLSeconds int
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:              getenv("APP_SERVICE", "actorhub"),
		AppVersion:           getenv("APP_VERSION", "0.1.0"),
		Environment:          getenv("ENVIRONMENT", "development"),
		HTTPAddr:             getenv("HTTP_ADDR", ":8080"),
		LogLevel:             strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogFormat:            strings.ToLower(getenv("LOG_FORMAT", "json")),
		OtelEnabled:          getenvBool("OTEL_ENABLED", false),
		OtelExporterEndpoint: getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OtelSamplingRatio:    getenvFloat("OTEL_SAMPLING_RATIO", 0.1),
		DBType:               getenv("DATABASE_TYPE", db.TypePostgres),
		DBHost:               getenv("DATABASE_HOST", "localhost"),
		DBPort:               getenv("DATABASE_PORT", "5432"),
		DBName:               getenv("DATABASE_NAME", "actorhub"),
		DBUser:               getenv("DATABASE_USER", "postgres"),
		DBPassword:           getenv("DATABASE_PASSWORD", "postgres"),
		DBSSLMode:            getenv("DATABASE_SSLMODE", "disable"),
		DBSQLitePath:         getenv("DATABASE_SQLITE_PATH", "actorhub.db"),
		DBMaxIdleConn:        getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:        getenvInt("DATABASE_MAX_OPEN_CONN", 20),
		DBConnMaxLifetime:    getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
		DBConnMaxIdleTime:    getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 60),
		SnowflakeNodeID:      int64(getenvInt("SNOWFLAKE_NODE_ID", 1)),
		RulesConfigPath:      strings.TrimSpace(getenv("RULES_CONFIG_PATH", "")),
		ReconcileRunOnce:     getenvBool("RECONCILE_RUN_ONCE", false),
		SchedulerEnabledJobs: getenv("SCHEDULER_ENABLED_JOBS", ""),
		BootstrapAdminEmail:  strings.ToLower(getenv("BOOTSTRAP_ADMIN_EMAIL", "")),
		RateLimit: RateLimitConfig{
			Enabled:                   getenvBool("RATE_LIMIT_ENABLED", false),
			RedisAddr:                 getenv("RATE_LIMIT_REDIS_ADDR", ""),
			RedisPassword:             getenv("RATE_LIMIT_REDIS_PASSWORD", ""),
			RedisDB:                   getenvInt("RATE_LIMIT_REDIS_DB", 0),
			UsageIngestKeyRate:        getenvFloat("USAGE_INGEST_KEY_RATE", 50),
			UsageIngestKeyBurst:       getenvInt("USAGE_INGEST_KEY_BURST", 100),
			UsageIngestIdentityRate:   getenvFloat("USAGE_INGEST_IDENTITY_RATE", 20),
			UsageIngestIdentityBurst:  getenvInt("USAGE_INGEST_IDENTITY_BURST", 40),
			UsageIngestLockTTLSeconds: getenvInt("USAGE_INGEST_LOCK_TTL_SECONDS", 10),
		},
	}
}

// DB projects the database settings for pkg/db.
func (c Config) DB() db.Config {
	return db.Config{
		Type:            c.DBType,
		Host:            c.DBHost,
		Port:            c.DBPort,
		Name:            c.DBName,
		User:            c.DBUser,
		Password:        c.DBPassword,
		SSLMode:         c.DBSSLMode,
		SQLitePath:      c.DBSQLitePath,
		MaxIdleConn:     c.DBMaxIdleConn,
		MaxOpenConn:     c.DBMaxOpenConn,
		ConnMaxLifetime: c.DBConnMaxLifetime,
		ConnMaxIdleTime: c.DBConnMaxIdleTime,
		Debug:           c.LogLevel == "debug",
	}
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}
