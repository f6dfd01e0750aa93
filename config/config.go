package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const defaultFrontendOrigin = "http://localhost:5173"

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Cache    CacheConfig
	Audit    AuditConfig
	App      AppConfig
	CORS     CORSConfig
	Projects ProjectsConfig
}

type ServerConfig struct {
	Port            string        `env:"PORT" env-default:"3001"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" env-default:"30s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
	RateLimitRPS    float64       `env:"RATE_LIMIT_RPS" env-default:"20"`
	RateLimitBurst  int           `env:"RATE_LIMIT_BURST" env-default:"40"`
}

// DatabaseConfig accepts either a full DATABASE_URL or the discrete DB_* parts.
type DatabaseConfig struct {
	URL            string `env:"DATABASE_URL"`
	Host           string `env:"DB_HOST" env-default:"localhost"`
	Port           int    `env:"DB_PORT" env-default:"5432"`
	User           string `env:"DB_USER" env-default:"postgres"`
	Password       string `env:"DB_PASSWORD"`
	Name           string `env:"DB_NAME" env-default:"projects"`
	MaxConns       int32  `env:"DB_MAX_CONNS" env-default:"10"`
	MinConns       int32  `env:"DB_MIN_CONNS" env-default:"2"`
	MigrateOnStart bool   `env:"MIGRATE_ON_START" env-default:"true"`
}

type RedisConfig struct {
	URL string `env:"REDIS_URL" env-default:"redis://localhost:6379"`
}

type CacheConfig struct {
	TTL           time.Duration `env:"CACHE_TTL" env-default:"60s"`
	PruneSchedule string        `env:"CACHE_PRUNE_SCHEDULE" env-default:"0 */10 * * * *"`
}

type AuditConfig struct {
	QueueSize    int           `env:"AUDIT_QUEUE_SIZE" env-default:"256"`
	WriteTimeout time.Duration `env:"AUDIT_WRITE_TIMEOUT" env-default:"5s"`
}

type AppConfig struct {
	Name        string `env:"APP_NAME" env-default:"projects-backend"`
	Environment string `env:"APP_ENV" env-default:"development"`
	LogLevel    string `env:"LOG_LEVEL" env-default:"info"`
	LogFormat   string `env:"LOG_FORMAT" env-default:"text"`
	Version     string `env:"APP_VERSION" env-default:"1.0.0"`
}

type CORSConfig struct {
	FrontendDomain string `env:"FRONTEND_DOMAIN"`
	Origins        []string
}

type ProjectsConfig struct {
	ExcludeNamesRaw string `env:"EXCLUDE_PROJECT_NAMES"`
	ExcludeNames    []string
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}

	cfg.CORS.Origins = ParseOrigins(cfg.CORS.FrontendDomain)
	cfg.Projects.ExcludeNames = ParseList(cfg.Projects.ExcludeNamesRaw)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.Database.URL == "" && c.Database.Host == "" {
		return fmt.Errorf("DATABASE_URL or DB_HOST is required")
	}

	if c.Cache.TTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive")
	}

	if c.Audit.QueueSize <= 0 {
		return fmt.Errorf("AUDIT_QUEUE_SIZE must be positive")
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// ParseOrigins accepts a single origin or a JSON array of origins.
// Anything unparsable falls back to the local dev frontend.
func ParseOrigins(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		slog.Warn("FRONTEND_DOMAIN not set, using default", "origin", defaultFrontendOrigin)
		return []string{defaultFrontendOrigin}
	}

	if strings.HasPrefix(raw, "[") && strings.HasSuffix(raw, "]") {
		var origins []string
		if err := json.Unmarshal([]byte(raw), &origins); err != nil || len(origins) == 0 {
			slog.Error("invalid FRONTEND_DOMAIN, using default", "value", raw, "origin", defaultFrontendOrigin)
			return []string{defaultFrontendOrigin}
		}
		return origins
	}

	return []string{raw}
}

// ParseList accepts either a JSON array or a comma separated list.
func ParseList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{}
	}

	if strings.HasPrefix(raw, "[") {
		var items []string
		if err := json.Unmarshal([]byte(raw), &items); err == nil {
			return items
		}
	}

	out := make([]string, 0, 8)
	for _, part := range strings.Split(raw, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}
