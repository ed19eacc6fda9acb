package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/matchday-advisor/internal/platform/logging"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv             string
	ServiceName        string
	ServiceVersion     string
	HTTPAddr           string
	CORSAllowedOrigins []string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	LogLevel           logging.Level
	InternalJobToken   string
	SwaggerEnabled     bool

	PprofEnabled               bool
	PprofAddr                  string
	UptraceEnabled             bool
	UptraceDSN                 string
	UptraceLogsEnabled         bool
	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration

	APIFootballBaseURL               string
	APIFootballKey                   string
	APIFootballTimeout               time.Duration
	APIFootballMaxRetries            int
	APIFootballRetryDelay            time.Duration
	APIFootballErrorRetryDelay       time.Duration
	APIFootballRateLimit             int
	APIFootballCircuitEnabled        bool
	APIFootballCircuitFailureCount   int
	APIFootballCircuitOpenTimeout    time.Duration
	APIFootballCircuitHalfOpenMaxReq int

	CacheFixturesTTL    time.Duration
	CachePredictionsTTL time.Duration
	CacheOddsTTL        time.Duration

	BatchWorkers int

	SnapshotPastDays         int
	SnapshotFutureDays       int
	SnapshotRefreshInterval  time.Duration
	SnapshotDateStagger      time.Duration
	SnapshotRecoveryInterval time.Duration
	SnapshotStaleAfter       time.Duration
	SnapshotLocation         *time.Location
}

const (
	minBatchWorkers = 1
	maxBatchWorkers = 16
)

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv:             appEnv,
		ServiceName:        getEnv("APP_SERVICE_NAME", "matchday-advisor"),
		ServiceVersion:     getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:           getEnv("APP_HTTP_ADDR", ":8080"),
		CORSAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		LogLevel:           parseLogLevel(getEnv("APP_LOG_LEVEL", "info")),
		InternalJobToken:   strings.TrimSpace(getEnv("INTERNAL_JOB_TOKEN", "")),
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}
	cfg.SwaggerEnabled, err = strconv.ParseBool(getEnv("SWAGGER_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SWAGGER_ENABLED: %w", err)
	}
	if cfg.ReadTimeout, err = positiveDuration("APP_READ_TIMEOUT", "10s"); err != nil {
		return Config{}, err
	}
	if cfg.WriteTimeout, err = positiveDuration("APP_WRITE_TIMEOUT", "15s"); err != nil {
		return Config{}, err
	}

	if err := loadObservability(&cfg); err != nil {
		return Config{}, err
	}
	if err := loadAPIFootball(&cfg); err != nil {
		return Config{}, err
	}

	if cfg.CacheFixturesTTL, err = positiveDuration("CACHE_FIXTURES_TTL", "1h"); err != nil {
		return Config{}, err
	}
	if cfg.CachePredictionsTTL, err = positiveDuration("CACHE_PREDICTIONS_TTL", "2h"); err != nil {
		return Config{}, err
	}
	if cfg.CacheOddsTTL, err = positiveDuration("CACHE_ODDS_TTL", "2h"); err != nil {
		return Config{}, err
	}

	batchWorkers, err := getEnvAsInt("BATCH_WORKERS", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse BATCH_WORKERS: %w", err)
	}
	cfg.BatchWorkers = clamp(batchWorkers, minBatchWorkers, maxBatchWorkers)

	if err := loadSnapshot(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func loadObservability(cfg *Config) error {
	var err error

	cfg.UptraceEnabled, err = strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	cfg.UptraceDSN = strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if cfg.UptraceDSN == "" {
		cfg.UptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if cfg.UptraceEnabled && cfg.UptraceDSN == "" {
		return fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}
	cfg.UptraceLogsEnabled, err = strconv.ParseBool(getEnv("UPTRACE_LOGS_ENABLED", "false"))
	if err != nil {
		return fmt.Errorf("parse UPTRACE_LOGS_ENABLED: %w", err)
	}

	cfg.PprofEnabled, err = strconv.ParseBool(getEnv("PPROF_ENABLED", "false"))
	if err != nil {
		return fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}
	cfg.PprofAddr = strings.TrimSpace(getEnv("PPROF_ADDR", ":6060"))
	if cfg.PprofEnabled && cfg.PprofAddr == "" {
		return fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}

	cfg.PyroscopeEnabled, err = strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	cfg.PyroscopeServerAddress = strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if cfg.PyroscopeEnabled && cfg.PyroscopeServerAddress == "" {
		return fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	if cfg.PyroscopeUploadRate, err = positiveDuration("PYROSCOPE_UPLOAD_RATE", "15s"); err != nil {
		return err
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	cfg.PyroscopeAuthToken = strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", ""))
	cfg.PyroscopeBasicAuthUser = strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", ""))
	cfg.PyroscopeBasicAuthPassword = strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", ""))

	return nil
}

func loadAPIFootball(cfg *Config) error {
	var err error

	cfg.APIFootballBaseURL = strings.TrimRight(strings.TrimSpace(getEnv("APIFOOTBALL_BASE_URL", "https://v3.football.api-sports.io")), "/")
	cfg.APIFootballKey = strings.TrimSpace(getEnv("APIFOOTBALL_KEY", ""))
	if cfg.APIFootballKey == "" {
		return fmt.Errorf("APIFOOTBALL_KEY is required")
	}
	if cfg.APIFootballTimeout, err = positiveDuration("APIFOOTBALL_TIMEOUT", "15s"); err != nil {
		return err
	}
	cfg.APIFootballMaxRetries, err = getEnvAsInt("APIFOOTBALL_MAX_RETRIES", 3)
	if err != nil {
		return fmt.Errorf("parse APIFOOTBALL_MAX_RETRIES: %w", err)
	}
	if cfg.APIFootballMaxRetries < 1 {
		return fmt.Errorf("APIFOOTBALL_MAX_RETRIES must be >= 1")
	}
	if cfg.APIFootballRetryDelay, err = positiveDuration("APIFOOTBALL_RETRY_DELAY", "2s"); err != nil {
		return err
	}
	if cfg.APIFootballErrorRetryDelay, err = positiveDuration("APIFOOTBALL_ERROR_RETRY_DELAY", "1s"); err != nil {
		return err
	}
	cfg.APIFootballRateLimit, err = getEnvAsInt("APIFOOTBALL_RATE_LIMIT", 8)
	if err != nil {
		return fmt.Errorf("parse APIFOOTBALL_RATE_LIMIT: %w", err)
	}
	if cfg.APIFootballRateLimit < 1 {
		return fmt.Errorf("APIFOOTBALL_RATE_LIMIT must be >= 1")
	}

	cfg.APIFootballCircuitEnabled, err = strconv.ParseBool(getEnv("APIFOOTBALL_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return fmt.Errorf("parse APIFOOTBALL_CIRCUIT_ENABLED: %w", err)
	}
	cfg.APIFootballCircuitFailureCount, err = getEnvAsInt("APIFOOTBALL_CIRCUIT_FAILURE_COUNT", 8)
	if err != nil {
		return fmt.Errorf("parse APIFOOTBALL_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if cfg.APIFootballCircuitFailureCount < 1 {
		return fmt.Errorf("APIFOOTBALL_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	if cfg.APIFootballCircuitOpenTimeout, err = positiveDuration("APIFOOTBALL_CIRCUIT_OPEN_TIMEOUT", "30s"); err != nil {
		return err
	}
	cfg.APIFootballCircuitHalfOpenMaxReq, err = getEnvAsInt("APIFOOTBALL_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return fmt.Errorf("parse APIFOOTBALL_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if cfg.APIFootballCircuitHalfOpenMaxReq < 1 {
		return fmt.Errorf("APIFOOTBALL_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}

	return nil
}

func loadSnapshot(cfg *Config) error {
	var err error

	cfg.SnapshotPastDays, err = getEnvAsInt("SNAPSHOT_PAST_DAYS", 2)
	if err != nil {
		return fmt.Errorf("parse SNAPSHOT_PAST_DAYS: %w", err)
	}
	cfg.SnapshotFutureDays, err = getEnvAsInt("SNAPSHOT_FUTURE_DAYS", 2)
	if err != nil {
		return fmt.Errorf("parse SNAPSHOT_FUTURE_DAYS: %w", err)
	}
	if cfg.SnapshotPastDays < 0 || cfg.SnapshotFutureDays < 0 {
		return fmt.Errorf("SNAPSHOT_PAST_DAYS and SNAPSHOT_FUTURE_DAYS must be >= 0")
	}
	if cfg.SnapshotRefreshInterval, err = positiveDuration("SNAPSHOT_REFRESH_INTERVAL", "30m"); err != nil {
		return err
	}
	cfg.SnapshotDateStagger, err = time.ParseDuration(getEnv("SNAPSHOT_DATE_STAGGER", "2s"))
	if err != nil {
		return fmt.Errorf("parse SNAPSHOT_DATE_STAGGER: %w", err)
	}
	if cfg.SnapshotDateStagger < 0 {
		return fmt.Errorf("SNAPSHOT_DATE_STAGGER must be >= 0")
	}
	if cfg.SnapshotRecoveryInterval, err = positiveDuration("SNAPSHOT_RECOVERY_INTERVAL", "5m"); err != nil {
		return err
	}
	staleDefault := (cfg.SnapshotRefreshInterval + time.Hour).String()
	if cfg.SnapshotStaleAfter, err = positiveDuration("SNAPSHOT_STALE_AFTER", staleDefault); err != nil {
		return err
	}

	tz := strings.TrimSpace(getEnv("SNAPSHOT_TIMEZONE", "UTC"))
	cfg.SnapshotLocation, err = time.LoadLocation(tz)
	if err != nil {
		return fmt.Errorf("parse SNAPSHOT_TIMEZONE: %w", err)
	}

	return nil
}

func positiveDuration(key, fallback string) (time.Duration, error) {
	out, err := time.ParseDuration(getEnv(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if out <= 0 {
		return 0, fmt.Errorf("%s must be > 0", key)
	}
	return out, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	items := strings.Split(raw, ",")
	for _, item := range items {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			value := strings.TrimSpace(parts[1])
			return strings.Trim(value, "\"'")
		}
	}

	return ""
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
