package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
// It is the single source of truth for runtime parameters.
type Config struct {
	Port      string
	Env       string
	JWTSecret string
	JWTTTL    time.Duration

	// CategoryCatalogPath points to the product category JSON resource.
	CategoryCatalogPath string
	// CatalogReloadInterval re-reads the catalog file periodically. Zero disables it.
	CatalogReloadInterval time.Duration

	// CORSAllowedHosts lists browser origins (host[:port]) allowed to call the API.
	CORSAllowedHosts []string

	DB         DatabaseConfig
	Redis      RedisConfig
	Pagination PaginationConfig
}

// DatabaseConfig contains connection parameters. Driver is "postgres" or "sqlite".
type DatabaseConfig struct {
	Driver     string
	Host       string
	Port       string
	User       string
	Password   string
	Name       string
	SSLMode    string
	SQLitePath string
}

// RedisConfig contains Redis connection parameters. An empty Host disables Redis.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	// ListCacheTTL bounds how long a cached product page may be served.
	ListCacheTTL time.Duration
}

// Enabled reports whether a Redis server is configured.
func (c RedisConfig) Enabled() bool {
	return c.Host != ""
}

// PaginationConfig contains the product listing page size bounds.
type PaginationConfig struct {
	PerPage    int
	MaxPerPage int
}

// Load reads configuration from environment variables. If a .env file exists
// in the working directory, it will be loaded first. It returns a populated
// Config or an error with a human-friendly message.
func Load() (*Config, error) {
	// Load .env if present; ignore error if file is missing so that production
	// environments relying solely on real environment variables keep working.
	_ = godotenv.Load()

	cfg := &Config{}

	// Server
	cfg.Port = getEnv("PORT", "8080")
	cfg.Env = getEnv("ENV", "development")
	cfg.JWTSecret = getEnv("JWT_SECRET", "")
	cfg.CategoryCatalogPath = getEnv("CATEGORY_CATALOG_PATH", "config/constants/products/product_category.json")
	cfg.CORSAllowedHosts = splitList(getEnv("CORS_ALLOWED_HOSTS", "localhost:5173,127.0.0.1:5173,localhost:3000"))

	// Database
	cfg.DB = DatabaseConfig{
		Driver:     strings.ToLower(getEnv("DB_DRIVER", "postgres")),
		Host:       getEnv("DB_HOST", ""),
		Port:       getEnv("DB_PORT", "5432"),
		User:       getEnv("DB_USER", ""),
		Password:   getEnv("DB_PASSWORD", ""),
		Name:       getEnv("DB_NAME", ""),
		SSLMode:    getEnv("DB_SSLMODE", "disable"),
		SQLitePath: getEnv("SQLITE_PATH", "products.db"),
	}

	// Redis
	cfg.Redis = RedisConfig{
		Host:     getEnv("REDIS_HOST", ""),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
	}

	cfg.Pagination = PaginationConfig{
		PerPage:    getEnvInt("PAGINATION_PER_PAGE", 15),
		MaxPerPage: getEnvInt("PAGINATION_MAX_PER_PAGE", 100),
	}

	var err error
	if cfg.JWTTTL, err = parseDurationEnv("JWT_TTL", "24h"); err != nil {
		return nil, fmt.Errorf("invalid JWT_TTL: %w", err)
	}
	if cfg.Redis.ListCacheTTL, err = parseDurationEnv("LIST_CACHE_TTL", "60s"); err != nil {
		return nil, fmt.Errorf("invalid LIST_CACHE_TTL: %w", err)
	}
	if cfg.CatalogReloadInterval, err = parseDurationEnv("CATALOG_RELOAD_INTERVAL", "0s"); err != nil {
		return nil, fmt.Errorf("invalid CATALOG_RELOAD_INTERVAL: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DB.Driver {
	case "postgres":
		if c.DB.Host == "" || c.DB.User == "" || c.DB.Name == "" {
			return errors.New("database configuration incomplete: ensure DB_HOST, DB_USER, and DB_NAME are set")
		}
	case "sqlite":
		if c.DB.SQLitePath == "" {
			return errors.New("SQLITE_PATH must be set when DB_DRIVER=sqlite")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q: use postgres or sqlite", c.DB.Driver)
	}

	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set for authentication")
	}
	if c.JWTTTL == 0 {
		return errors.New("JWT_TTL must be greater than zero")
	}

	if c.Pagination.PerPage < 1 || c.Pagination.MaxPerPage < 1 {
		return errors.New("PAGINATION_PER_PAGE and PAGINATION_MAX_PER_PAGE must be positive")
	}
	if c.Pagination.PerPage > c.Pagination.MaxPerPage {
		return errors.New("PAGINATION_PER_PAGE must not exceed PAGINATION_MAX_PER_PAGE")
	}
	return nil
}

// getEnv returns the value of an environment variable or a default if empty.
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvInt returns the value of an environment variable as an integer or a default if empty/invalid.
func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

// parseDurationEnv reads an environment variable and parses it as time.Duration.
// If the variable is empty, it falls back to the provided default value.
func parseDurationEnv(key, def string) (time.Duration, error) {
	raw := getEnv(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must be >= 0")
	}
	return d, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, strings.ToLower(part))
		}
	}
	return out
}
