package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service. It is built once at
// process start and injected into every component.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Storage      StorageConfig
	Workspace    WorkspaceConfig
	Engine       EngineConfig
	Analysis     AnalysisConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
	BodyLimitBytes        int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret               string
	AccessTokenTTLMinutes   int
	PasswordResetTTLMinutes int
	PBKDF2Iterations        int
}

// StorageConfig selects and configures the tool geometry store.
type StorageConfig struct {
	Backend     string // "local" or "s3"
	LocalDir    string
	S3Region    string
	S3Bucket    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
}

// WorkspaceConfig controls per-job run directory construction.
type WorkspaceConfig struct {
	RunsRoot string
	// ForceEnableCFD overrides the client-supplied CFD enabled flag in the
	// input descriptor. Defaults to true, matching historical behavior.
	ForceEnableCFD bool
}

// EngineConfig configures the external simulation engine invocation.
type EngineConfig struct {
	Image                 string
	TimeoutSeconds        int
	RetainWorkspaces      bool
	QueueKey              string
	DequeueTimeoutSeconds int
}

// AnalysisConfig configures the external text-completion collaborator.
type AnalysisConfig struct {
	BaseURL         string
	APIKey          string
	Model           string
	TimeoutSeconds  int
	MaxSeriesPoints int
}

// NotificationConfig holds outbound notification settings.
type NotificationConfig struct {
	EmailFrom    string
	ResetURLBase string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "simulation-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
			// STL geometry uploads run large.
			BodyLimitBytes: getEnvAsInt("HTTP_BODY_LIMIT_BYTES", 100*1024*1024),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:               getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes:   getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 1440),
			PasswordResetTTLMinutes: getEnvAsInt("AUTH_PASSWORD_RESET_TTL_MINUTES", 60),
			PBKDF2Iterations:        getEnvAsInt("AUTH_PBKDF2_ITERATIONS", 120000),
		},
		Storage: StorageConfig{
			Backend:     getEnv("STORAGE_BACKEND", "local"),
			LocalDir:    getEnv("STORAGE_LOCAL_DIR", "tool_library_files"),
			S3Region:    getEnv("STORAGE_S3_REGION", "us-east-1"),
			S3Bucket:    os.Getenv("STORAGE_S3_BUCKET"),
			S3Endpoint:  os.Getenv("STORAGE_S3_ENDPOINT"),
			S3AccessKey: os.Getenv("STORAGE_S3_ACCESS_KEY"),
			S3SecretKey: os.Getenv("STORAGE_S3_SECRET_KEY"),
		},
		Workspace: WorkspaceConfig{
			RunsRoot:       getEnv("WORKSPACE_RUNS_ROOT", "runs"),
			ForceEnableCFD: getEnvAsBool("WORKSPACE_FORCE_ENABLE_CFD", true),
		},
		Engine: EngineConfig{
			Image:                 getEnv("ENGINE_IMAGE", "edgepredict-engine-v2"),
			TimeoutSeconds:        getEnvAsInt("ENGINE_TIMEOUT_SECONDS", 3600),
			RetainWorkspaces:      getEnvAsBool("ENGINE_RETAIN_WORKSPACES", false),
			QueueKey:              getEnv("ENGINE_QUEUE_KEY", "simulation:jobs"),
			DequeueTimeoutSeconds: getEnvAsInt("ENGINE_DEQUEUE_TIMEOUT_SECONDS", 5),
		},
		Analysis: AnalysisConfig{
			BaseURL:         getEnv("ANALYSIS_BASE_URL", "https://api.openai.com/v1"),
			APIKey:          os.Getenv("ANALYSIS_API_KEY"),
			Model:           getEnv("ANALYSIS_MODEL", "gpt-4o-mini"),
			TimeoutSeconds:  getEnvAsInt("ANALYSIS_TIMEOUT_SECONDS", 60),
			MaxSeriesPoints: getEnvAsInt("ANALYSIS_MAX_SERIES_POINTS", 40),
		},
		Notification: NotificationConfig{
			EmailFrom:    getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			ResetURLBase: getEnv("NOTIFY_RESET_URL_BASE", "http://localhost:3000/reset-password"),
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

// EngineTimeout returns the wall-clock limit for one engine invocation.
func (e EngineConfig) EngineTimeout() time.Duration {
	if e.TimeoutSeconds <= 0 {
		return time.Hour
	}
	return time.Duration(e.TimeoutSeconds) * time.Second
}

// DequeueTimeout returns the blocking-pop timeout for the worker loop.
func (e EngineConfig) DequeueTimeout() time.Duration {
	if e.DequeueTimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(e.DequeueTimeoutSeconds) * time.Second
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

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
