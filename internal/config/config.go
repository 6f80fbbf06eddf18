// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Storage backends.
const (
	StorageBadger = "badger"
	StorageSQLite = "sqlite"
)

// Cover backends.
const (
	CoverBackendStore      = "store"
	CoverBackendFilesystem = "filesystem"
)

// Config holds the application configuration.
type Config struct {
	App     AppConfig
	Logger  LoggerConfig
	Storage StorageConfig
	Library LibraryConfig
	Covers  CoverConfig
	Server  ServerConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// StorageConfig selects where the library is persisted.
type StorageConfig struct {
	DataPath     string
	Backend      string // badger or sqlite
	CoverBackend string // store or filesystem
}

// LibraryConfig holds library service settings.
type LibraryConfig struct {
	AutosaveInterval time.Duration
	DragIdleTimeout  time.Duration
}

// CoverConfig holds cover upload and compression limits.
type CoverConfig struct {
	MaxUploadBytes int64 // uploads above this are refused (default: 5MB)
	MaxBytes       int64 // compression target (default: 300KB)
	MaxDimension   int   // longest edge in pixels (default: 600)
	Quality        int   // starting JPEG quality (default: 85)
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Host           string
	Port           string        // Server port (default: 7474)
	ReadTimeout    time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout   time.Duration // HTTP write timeout (default: 30s)
	IdleTimeout    time.Duration // HTTP idle timeout (default: 60s)
	AllowedOrigins []string

	// Cover processing is CPU heavy; uploads are limited per client.
	UploadRate  float64 // uploads per second (default: 2)
	UploadBurst int     // default: 5
}

// Addr returns host:port for the HTTP listener.
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// LoadConfig loads configuration from the process arguments and environment.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("shelfkeep", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := fs.String("data-path", "", "Directory for library data")
	storageBackend := fs.String("storage-backend", "", "Record storage backend (badger, sqlite)")
	coverBackend := fs.String("cover-backend", "", "Cover storage backend (store, filesystem)")
	autosave := fs.String("autosave-interval", "", "Autosave period (default: 5m)")
	dragIdle := fs.String("drag-idle-timeout", "", "Abandon idle drag sessions after (default: 2m)")

	maxUpload := fs.String("cover-max-upload", "", "Largest accepted cover upload (default: 5MB)")
	maxCover := fs.String("cover-max-bytes", "", "Compressed cover size target (default: 300KB)")
	maxDim := fs.String("cover-max-dimension", "", "Longest cover edge in pixels (default: 600)")
	quality := fs.String("cover-quality", "", "Starting JPEG quality (default: 85)")

	host := fs.String("host", "", "Listen address (default: 127.0.0.1)")
	port := fs.String("port", "", "Server port (default: 7474)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 30s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	origins := fs.String("cors-origins", "", "Comma separated allowed CORS origins")
	uploadRate := fs.String("upload-rate", "", "Cover uploads per second per client (default: 2)")
	uploadBurst := fs.String("upload-burst", "", "Cover upload burst per client (default: 5)")

	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Storage: StorageConfig{
			DataPath:     getConfigValue(*dataPath, "DATA_PATH", ""),
			Backend:      strings.ToLower(getConfigValue(*storageBackend, "STORAGE_BACKEND", StorageBadger)),
			CoverBackend: strings.ToLower(getConfigValue(*coverBackend, "COVER_BACKEND", CoverBackendStore)),
		},
		Covers: CoverConfig{
			MaxDimension: getIntConfigValue(*maxDim, "COVER_MAX_DIMENSION", 600),
			Quality:      getIntConfigValue(*quality, "COVER_QUALITY", 85),
		},
		Server: ServerConfig{
			Host:           getConfigValue(*host, "SERVER_HOST", "127.0.0.1"),
			Port:           getConfigValue(*port, "SERVER_PORT", "7474"),
			AllowedOrigins: splitList(getConfigValue(*origins, "CORS_ALLOWED_ORIGINS", "")),
			UploadBurst:    getIntConfigValue(*uploadBurst, "UPLOAD_BURST", 5),
		},
	}

	var err error
	if cfg.Library.AutosaveInterval, err = getDurationConfigValue(*autosave, "AUTOSAVE_INTERVAL", "5m"); err != nil {
		return nil, err
	}
	if cfg.Library.DragIdleTimeout, err = getDurationConfigValue(*dragIdle, "DRAG_IDLE_TIMEOUT", "2m"); err != nil {
		return nil, err
	}
	if cfg.Server.ReadTimeout, err = getDurationConfigValue(*readTimeout, "SERVER_READ_TIMEOUT", "15s"); err != nil {
		return nil, err
	}
	if cfg.Server.WriteTimeout, err = getDurationConfigValue(*writeTimeout, "SERVER_WRITE_TIMEOUT", "30s"); err != nil {
		return nil, err
	}
	if cfg.Server.IdleTimeout, err = getDurationConfigValue(*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s"); err != nil {
		return nil, err
	}
	if cfg.Server.UploadRate, err = getFloatConfigValue(*uploadRate, "UPLOAD_RATE", "2"); err != nil {
		return nil, err
	}
	if cfg.Covers.MaxUploadBytes, err = getBytesConfigValue(*maxUpload, "COVER_MAX_UPLOAD_BYTES", "5MiB"); err != nil {
		return nil, err
	}
	if cfg.Covers.MaxBytes, err = getBytesConfigValue(*maxCover, "COVER_MAX_BYTES", "300KiB"); err != nil {
		return nil, err
	}

	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	switch c.App.Environment {
	case "development", "staging", "production":
	case "":
		return errors.New("ENV is required")
	default:
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	switch strings.ToLower(c.Logger.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Storage.DataPath == "" {
		return errors.New("data path cannot be empty after expansion")
	}
	if c.Storage.Backend != StorageBadger && c.Storage.Backend != StorageSQLite {
		return fmt.Errorf("invalid storage backend: %s (must be badger or sqlite)", c.Storage.Backend)
	}
	if c.Storage.CoverBackend != CoverBackendStore && c.Storage.CoverBackend != CoverBackendFilesystem {
		return fmt.Errorf("invalid cover backend: %s (must be store or filesystem)", c.Storage.CoverBackend)
	}

	if c.Library.AutosaveInterval <= 0 {
		return errors.New("autosave interval must be positive")
	}

	if c.Server.UploadRate <= 0 || c.Server.UploadBurst < 1 {
		return errors.New("upload rate and burst must be positive")
	}

	if c.Covers.MaxBytes <= 0 || c.Covers.MaxUploadBytes <= 0 {
		return errors.New("cover size limits must be positive")
	}
	if c.Covers.MaxDimension < 16 {
		return fmt.Errorf("cover max dimension too small: %d", c.Covers.MaxDimension)
	}
	if c.Covers.Quality < 1 || c.Covers.Quality > 100 {
		return fmt.Errorf("cover quality out of range: %d (must be 1-100)", c.Covers.Quality)
	}

	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandDataPath defaults the data directory to ~/Shelfkeep/data.
func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, "Shelfkeep", "data")

	expanded, err := expandPath(c.Storage.DataPath, defaultPath)
	if err != nil {
		return err
	}
	c.Storage.DataPath = expanded
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result int
	if _, err := fmt.Sscanf(strValue, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}

func getDurationConfigValue(flagValue, envKey, defaultValue string) (time.Duration, error) {
	s := getConfigValue(flagValue, envKey, defaultValue)
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", envKey, s, err)
	}
	return d, nil
}

func getFloatConfigValue(flagValue, envKey, defaultValue string) (float64, error) {
	s := getConfigValue(flagValue, envKey, defaultValue)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", envKey, s, err)
	}
	return f, nil
}

// getBytesConfigValue parses sizes like "5MiB", "300KB" or "1048576".
func getBytesConfigValue(flagValue, envKey, defaultValue string) (int64, error) {
	s := getConfigValue(flagValue, envKey, defaultValue)
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", envKey, s, err)
	}
	return int64(n), nil //nolint:gosec // config sizes are far below MaxInt64
}

func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		// Real environment variables win over the file.
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
