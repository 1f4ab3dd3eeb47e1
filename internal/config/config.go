package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// SnapshotBackend selects where state snapshots are persisted.
type SnapshotBackend string

const (
	BackendFile     SnapshotBackend = "file"
	BackendPostgres SnapshotBackend = "postgres"
	BackendRedis    SnapshotBackend = "redis"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App       AppConfig
	Snapshot  SnapshotConfig
	Logger    LoggerConfig
	Auth      AuthConfig
	Scheduler SchedulerConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// SnapshotConfig selects and parameterizes the snapshot backend.
type SnapshotConfig struct {
	Backend       SnapshotBackend
	FilePath      string
	PostgresDSN   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisKey      string
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines gateway token verification parameters.
type AuthConfig struct {
	GatewaySecret string
}

// SchedulerConfig controls the auto-close sweep loop.
type SchedulerConfig struct {
	TickSeconds    int
	BatchCeiling   int
	ReminderGapMin int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("SNAPSHOT_REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid SNAPSHOT_REDIS_DB: %w", err)
	}

	backend := SnapshotBackend(getEnv("SNAPSHOT_BACKEND", string(BackendFile)))
	switch backend {
	case BackendFile, BackendPostgres, BackendRedis:
	default:
		return nil, fmt.Errorf("unknown SNAPSHOT_BACKEND %q", backend)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "ticket-desk"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Snapshot: SnapshotConfig{
			Backend:       backend,
			FilePath:      getEnv("SNAPSHOT_FILE_PATH", "data/state.json"),
			PostgresDSN:   os.Getenv("SNAPSHOT_POSTGRES_DSN"),
			RedisAddr:     getEnv("SNAPSHOT_REDIS_ADDR", "127.0.0.1:6379"),
			RedisPassword: os.Getenv("SNAPSHOT_REDIS_PASSWORD"),
			RedisDB:       redisDB,
			RedisKey:      getEnv("SNAPSHOT_REDIS_KEY", "ticket-desk:state"),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			GatewaySecret: getEnv("GATEWAY_JWT_SECRET", "dev-secret"),
		},
		Scheduler: SchedulerConfig{
			TickSeconds:    getEnvAsInt("SWEEP_TICK_SECONDS", 60),
			BatchCeiling:   getEnvAsInt("SWEEP_BATCH_CEILING", 200),
			ReminderGapMin: getEnvAsInt("SWEEP_REMINDER_GAP_MINUTES", 30),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// TickInterval returns the sweep interval duration.
func (s SchedulerConfig) TickInterval() time.Duration {
	if s.TickSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(s.TickSeconds) * time.Second
}

// ReminderGap returns the minimum spacing between reminders on one ticket.
func (s SchedulerConfig) ReminderGap() time.Duration {
	if s.ReminderGapMin <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(s.ReminderGapMin) * time.Minute
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}
