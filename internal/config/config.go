package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/qtccc/qtc-assignment-2/internal/kmeans"
)

type ClusteringConfig struct {
	MaxPoints     int     `json:"max_points"`
	MaxIterations int     `json:"max_iterations"`
	Tolerance     float64 `json:"tolerance"`
}

type SessionConfig struct {
	TTL           time.Duration `json:"ttl"`
	SweepInterval time.Duration `json:"sweep_interval"`
	MaxSessions   int           `json:"max_sessions"`
}

type RateLimitConfig struct {
	// RequestsPerSecond <= 0 disables limiting.
	RequestsPerSecond float64 `json:"requests_per_second"`
	Burst             int     `json:"burst"`
}

type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

type Config struct {
	DataDir    string           `json:"data_dir"`
	DBPath     string           `json:"db_path"`
	Host       string           `json:"host"`
	Port       int              `json:"port"`
	Log        LogConfig        `json:"log"`
	Clustering ClusteringConfig `json:"clustering"`
	Sessions   SessionConfig    `json:"sessions"`
	RateLimit  RateLimitConfig  `json:"rate_limit"`
}

func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	dataDir := filepath.Join(home, ".kmeans-lab")
	return Config{
		DataDir: dataDir,
		DBPath:  filepath.Join(dataDir, "kmeans.db"),
		Host:    "127.0.0.1",
		Port:    3000,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Clustering: ClusteringConfig{
			MaxPoints:     100000,
			MaxIterations: kmeans.DefaultMaxIterations,
			Tolerance:     kmeans.DefaultTolerance,
		},
		Sessions: SessionConfig{
			TTL:           30 * time.Minute,
			SweepInterval: time.Minute,
			MaxSessions:   1000,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 50,
			Burst:             100,
		},
	}
}

func LoadConfig() Config {
	cfg := DefaultConfig()

	if dataDir := os.Getenv("KM_DATA_DIR"); dataDir != "" {
		cfg.DataDir = dataDir
		cfg.DBPath = filepath.Join(dataDir, "kmeans.db")
	}
	if host := os.Getenv("KM_HOST"); host != "" {
		cfg.Host = host
	}
	if v, ok := envInt("KM_PORT"); ok {
		cfg.Port = v
	}
	if level := os.Getenv("KM_LOG_LEVEL"); level != "" {
		cfg.Log.Level = strings.ToLower(level)
	}
	if format := os.Getenv("KM_LOG_FORMAT"); format != "" {
		cfg.Log.Format = strings.ToLower(format)
	}
	if v, ok := envInt("KM_MAX_POINTS"); ok {
		cfg.Clustering.MaxPoints = v
	}
	if v, ok := envInt("KM_MAX_ITERATIONS"); ok {
		cfg.Clustering.MaxIterations = v
	}
	if tol := os.Getenv("KM_TOLERANCE"); tol != "" {
		if f, err := strconv.ParseFloat(tol, 64); err == nil && f >= 0 {
			cfg.Clustering.Tolerance = f
		}
	}
	if v, ok := envInt("KM_MAX_SESSIONS"); ok {
		cfg.Sessions.MaxSessions = v
	}
	if ttl := os.Getenv("KM_SESSION_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil {
			cfg.Sessions.TTL = d
		}
	}
	if interval := os.Getenv("KM_SWEEP_INTERVAL"); interval != "" {
		if d, err := time.ParseDuration(interval); err == nil && d > 0 {
			cfg.Sessions.SweepInterval = d
		}
	}
	if rps := os.Getenv("KM_RATE_LIMIT"); rps != "" {
		if f, err := strconv.ParseFloat(rps, 64); err == nil {
			cfg.RateLimit.RequestsPerSecond = f
		}
	}
	if v, ok := envInt("KM_RATE_BURST"); ok {
		cfg.RateLimit.Burst = v
	}

	cfg.EnsureDirs()
	return cfg
}

func envInt(key string) (int, bool) {
	s := os.Getenv(key)
	if s == "" {
		return 0, false
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return v, true
}

func (c *Config) EnsureDirs() {
	os.MkdirAll(c.DataDir, 0o755)
}

// SlogLevel maps Log.Level to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch c.Log.Level {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
