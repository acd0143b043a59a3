package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"brewtracker/internal/units"
)

// Common holds the settings every BrewTracker binary shares.
type Common struct {
	AppEnv   string
	LogLevel slog.Level
}

type SQLite struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	// LogQueries wraps the driver so each statement is logged at debug level.
	LogQueries bool
}

type MQTT struct {
	Broker   string
	Port     int
	ClientID string
	Username string
	Password string
}

type Config struct {
	Common
	HTTPAddr        string
	ShutdownTimeout time.Duration

	// DefaultSystem is used when a request does not ask for a unit system.
	DefaultSystem units.System

	RateLimitRPS   float64
	RateLimitBurst int

	SQLite SQLite
	// MQTTEnabled off serves stored history without telemetry ingest.
	MQTTEnabled bool
	MQTT        MQTT
}

// LoadDotEnv loads ENV_FILE (default ".env") into the environment without
// overriding variables that are already set. A missing file is not an error.
func LoadDotEnv() error {
	path := strings.TrimSpace(os.Getenv("ENV_FILE"))
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %q: %w", path, err)
	}
	return nil
}

func LoadFromEnv() (Config, error) {
	common, err := loadCommon()
	if err != nil {
		return Config{}, err
	}

	httpAddr := envString("HTTP_ADDR", ":8080")
	shutdownTimeout, err := envDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return Config{}, err
	}

	system, err := loadSystem()
	if err != nil {
		return Config{}, err
	}

	rps, err := envFloat("RATE_LIMIT_RPS", "20")
	if err != nil {
		return Config{}, err
	}
	burst, err := envInt("RATE_LIMIT_BURST", "40")
	if err != nil {
		return Config{}, err
	}
	if rps < 0 || burst < 0 {
		return Config{}, fmt.Errorf("rate limit must not be negative (rps=%v burst=%d)", rps, burst)
	}

	sqlite, err := loadSQLite()
	if err != nil {
		return Config{}, err
	}
	mqttEnabled, err := envBool("MQTT_ENABLED", "true")
	if err != nil {
		return Config{}, err
	}
	mqtt, err := loadMQTT("brewtracker-server")
	if err != nil {
		return Config{}, err
	}

	return Config{
		Common:          common,
		HTTPAddr:        httpAddr,
		ShutdownTimeout: shutdownTimeout,
		DefaultSystem:   system,
		RateLimitRPS:    rps,
		RateLimitBurst:  burst,
		SQLite:          sqlite,
		MQTTEnabled:     mqttEnabled,
		MQTT:            mqtt,
	}, nil
}

func loadCommon() (Common, error) {
	appEnv := envString("APP_ENV", "dev")
	switch appEnv {
	case "dev", "prod":
	default:
		return Common{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	level, err := parseLogLevel(envString("LOG_LEVEL", "info"))
	if err != nil {
		return Common{}, err
	}
	return Common{AppEnv: appEnv, LogLevel: level}, nil
}

func loadSystem() (units.System, error) {
	s := envString("DEFAULT_UNIT_SYSTEM", "imperial")
	switch strings.ToLower(s) {
	case "imperial", "metric":
		return units.ParseSystem(s), nil
	default:
		return "", fmt.Errorf("invalid DEFAULT_UNIT_SYSTEM %q (allowed: imperial, metric)", s)
	}
}

func loadSQLite() (SQLite, error) {
	maxOpen, err := envInt("SQLITE_MAX_OPEN_CONNS", "1")
	if err != nil {
		return SQLite{}, err
	}
	maxIdle, err := envInt("SQLITE_MAX_IDLE_CONNS", "1")
	if err != nil {
		return SQLite{}, err
	}
	lifetime, err := envDuration("SQLITE_CONN_MAX_LIFETIME", "0s")
	if err != nil {
		return SQLite{}, err
	}
	logQueries, err := envBool("SQLITE_LOG_QUERIES", "false")
	if err != nil {
		return SQLite{}, err
	}
	return SQLite{
		Path:            envString("SQLITE_PATH", "data/brewtracker.db"),
		MaxOpenConns:    maxOpen,
		MaxIdleConns:    maxIdle,
		ConnMaxLifetime: lifetime,
		LogQueries:      logQueries,
	}, nil
}

func loadMQTT(defaultClientID string) (MQTT, error) {
	port, err := envInt("MQTT_PORT", "1883")
	if err != nil {
		return MQTT{}, err
	}
	if port <= 0 || port > 65535 {
		return MQTT{}, fmt.Errorf("invalid MQTT_PORT %d: out of range", port)
	}
	return MQTT{
		Broker:   envString("MQTT_BROKER", "localhost"),
		Port:     port,
		ClientID: envString("MQTT_CLIENT_ID", defaultClientID),
		Username: envString("MQTT_USERNAME", ""),
		Password: os.Getenv("MQTT_PASSWORD"),
	}, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}

func envString(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envInt(key, def string) (int, error) {
	s := envString(key, def)
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return n, nil
}

func envFloat(key, def string) (float64, error) {
	s := envString(key, def)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return f, nil
}

func envBool(key, def string) (bool, error) {
	s := envString(key, def)
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return b, nil
}

func envDuration(key, def string) (time.Duration, error) {
	s := envString(key, def)
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return d, nil
}
