package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	SessionBackendFile     = "file"
	SessionBackendPostgres = "postgres"
	SessionBackendRedis    = "redis"
)

type Config struct {
	HTTP            HTTPConfig
	API             APIConfig
	Session         SessionConfig
	Batch           BatchConfig
	DatabaseURL     string
	Redis           RedisConfig
	FrontendDistDir string
	AuditLogFile    string
	LogLevel        string
	CLISessionFile  string
}

type HTTPConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type APIConfig struct {
	BaseURL   string
	Timeout   time.Duration
	LoginPath string
}

type SessionConfig struct {
	Backend    string
	StateFile  string
	CookieName string
	// CookieSecure marks the session cookie Secure; enable behind TLS.
	CookieSecure bool
	MaxAge       time.Duration
}

type BatchConfig struct {
	Delay time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Load reads the optional dotenv file named by ENV_FILE (default .env) and
// then builds the configuration from the environment.
func Load() (Config, error) {
	if err := loadDotEnv(getEnv("ENV_FILE", ".env")); err != nil {
		return Config{}, err
	}

	cfg := Config{
		HTTP: HTTPConfig{
			Addr:            getEnv("HTTP_ADDR", ":8080"),
			ReadTimeout:     time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SEC", 10)) * time.Second,
			WriteTimeout:    time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SEC", 15)) * time.Second,
			ShutdownTimeout: time.Duration(getEnvInt("HTTP_SHUTDOWN_TIMEOUT_SEC", 20)) * time.Second,
		},
		API: APIConfig{
			BaseURL:   strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:3000"), "/"),
			Timeout:   time.Duration(getEnvInt("API_TIMEOUT_SEC", 15)) * time.Second,
			LoginPath: getEnv("API_LOGIN_PATH", "/api/auth/login"),
		},
		Session: SessionConfig{
			Backend:      strings.ToLower(getEnv("SESSION_BACKEND", SessionBackendFile)),
			StateFile:    getEnv("SESSION_STATE_FILE", "./data/sessions.json"),
			CookieName:   getEnv("SESSION_COOKIE_NAME", "appsistencia_session"),
			CookieSecure: getEnvBool("SESSION_COOKIE_SECURE", false),
			MaxAge:       time.Duration(getEnvInt("SESSION_MAX_AGE_SEC", 0)) * time.Second,
		},
		Batch: BatchConfig{
			Delay: time.Duration(getEnvInt("BATCH_DELAY_MS", 1500)) * time.Millisecond,
		},
		DatabaseURL: getEnv("DATABASE_URL", ""),
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		FrontendDistDir: getEnv("FRONTEND_DIST_DIR", "./web/dist"),
		AuditLogFile:    getEnv("AUDIT_LOG_FILE", "./data/audit.log"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		CLISessionFile:  getEnv("CLI_SESSION_FILE", defaultCLISessionFile()),
	}

	if cfg.HTTP.Addr == "" {
		return Config{}, fmt.Errorf("HTTP_ADDR must not be empty")
	}
	if !strings.HasPrefix(cfg.API.BaseURL, "http://") && !strings.HasPrefix(cfg.API.BaseURL, "https://") {
		return Config{}, fmt.Errorf("API_BASE_URL must be an http(s) URL")
	}
	if cfg.API.Timeout <= 0 {
		return Config{}, fmt.Errorf("API_TIMEOUT_SEC must be > 0")
	}
	if !strings.HasPrefix(cfg.API.LoginPath, "/") {
		return Config{}, fmt.Errorf("API_LOGIN_PATH must start with /")
	}
	switch cfg.Session.Backend {
	case SessionBackendFile:
		if cfg.Session.StateFile == "" {
			return Config{}, fmt.Errorf("SESSION_STATE_FILE must not be empty")
		}
	case SessionBackendPostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL is required when SESSION_BACKEND=postgres")
		}
	case SessionBackendRedis:
		if cfg.Redis.Addr == "" {
			return Config{}, fmt.Errorf("REDIS_ADDR is required when SESSION_BACKEND=redis")
		}
	default:
		return Config{}, fmt.Errorf("SESSION_BACKEND must be one of file, postgres, redis")
	}
	if cfg.Session.CookieName == "" {
		return Config{}, fmt.Errorf("SESSION_COOKIE_NAME must not be empty")
	}
	if cfg.Session.MaxAge < 0 {
		return Config{}, fmt.Errorf("SESSION_MAX_AGE_SEC must be >= 0")
	}
	if cfg.Batch.Delay < 0 {
		return Config{}, fmt.Errorf("BATCH_DELAY_MS must be >= 0")
	}
	if cfg.AuditLogFile == "" {
		return Config{}, fmt.Errorf("AUDIT_LOG_FILE must not be empty")
	}

	return cfg, nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("stat env file %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func defaultCLISessionFile() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "./data/cli_session.json"
	}
	return filepath.Join(home, ".appsistencia", "session.json")
}

func getEnv(key, fallback string) string {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	return val
}

func getEnvInt(key string, fallback int) int {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return b
}
