package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	Development = "development"
	Production  = "production"

	StoreNeo4j  = "neo4j"
	StoreMemory = "memory"
)

// SeedGraph is a graph created at startup if it does not exist.
type SeedGraph struct {
	ID   int64  `yaml:"id"`
	Name string `yaml:"name"`
}

// Config holds all application configuration
type Config struct {
	// Path of the YAML file the config was read from, if any.
	File string `yaml:"-"`

	ServerAddress   string        `yaml:"server_address"`
	Environment     string        `yaml:"environment"`
	LogLevel        string        `yaml:"log_level"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	StoreBackend        string        `yaml:"store_backend"`
	Neo4jURI            string        `yaml:"neo4j_uri"`
	Neo4jUsername       string        `yaml:"neo4j_username"`
	Neo4jPassword       string        `yaml:"neo4j_password"`
	Neo4jDatabase       string        `yaml:"neo4j_database"`
	Neo4jConnectTimeout time.Duration `yaml:"neo4j_connect_timeout"`
	SeedGraphs          []SeedGraph   `yaml:"seed_graphs"`

	BreakerFailureThreshold float64       `yaml:"breaker_failure_threshold"`
	BreakerMinRequests      uint32        `yaml:"breaker_min_requests"`
	BreakerTimeout          time.Duration `yaml:"breaker_timeout"`

	SlugSalt      string `yaml:"slug_salt"`
	SlugMinLength int    `yaml:"slug_min_length"`

	CacheSize int           `yaml:"cache_size"`
	CacheTTL  time.Duration `yaml:"cache_ttl"`

	StaticDir string `yaml:"static_dir"`

	// DebugErrors adds stack traces to 4xx error bodies. Off unless set.
	DebugErrors bool `yaml:"debug_errors"`

	// Authentication is enabled for write requests when JWTSecret is set.
	JWTSecret string `yaml:"jwt_secret"`
	JWTIssuer string `yaml:"jwt_issuer"`

	EnableMetrics bool     `yaml:"enable_metrics"`
	EnableTracing bool     `yaml:"enable_tracing"`
	OTELEndpoint  string   `yaml:"otel_endpoint"`
	EnableCORS    bool     `yaml:"enable_cors"`
	CORSOrigins   []string `yaml:"cors_origins"`
}

// Defaults returns the configuration used when nothing else is set.
func Defaults() *Config {
	return &Config{
		ServerAddress:           ":5000",
		Environment:             Development,
		LogLevel:                "info",
		ShutdownTimeout:         30 * time.Second,
		StoreBackend:            StoreNeo4j,
		Neo4jURI:                "bolt://localhost:7687",
		Neo4jUsername:           "neo4j",
		Neo4jDatabase:           "neo4j",
		Neo4jConnectTimeout:     5 * time.Second,
		SeedGraphs:              []SeedGraph{{ID: 1, Name: "default"}},
		BreakerFailureThreshold: 0.8,
		BreakerMinRequests:      5,
		BreakerTimeout:          60 * time.Second,
		SlugSalt:                "mhnodalnetwork",
		SlugMinLength:           4,
		CacheSize:               500,
		CacheTTL:                30 * time.Second,
		JWTIssuer:               "mhnodalnetwork",
		EnableMetrics:           true,
		OTELEndpoint:            "localhost:4317",
		EnableCORS:              true,
		CORSOrigins:             []string{"*"},
	}
}

// Load builds the configuration from defaults, then the YAML file at path (or
// $CONFIG_FILE when path is empty), then environment variables.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
		cfg.File = path
	}

	if err := cfg.loadEnvironmentVariables(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) loadEnvironmentVariables() error {
	c.ServerAddress = getEnv("SERVER_ADDRESS", c.ServerAddress)
	if port := os.Getenv("PORT"); port != "" && os.Getenv("SERVER_ADDRESS") == "" {
		c.ServerAddress = ":" + port
	}
	c.Environment = getEnv("ENVIRONMENT", c.Environment)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.ShutdownTimeout = getEnvDuration("SHUTDOWN_TIMEOUT", c.ShutdownTimeout)

	c.StoreBackend = getEnv("STORE_BACKEND", c.StoreBackend)
	c.Neo4jURI = getEnv("NEO4J_URI", c.Neo4jURI)
	c.Neo4jUsername = getEnv("NEO4J_USERNAME", c.Neo4jUsername)
	c.Neo4jPassword = getEnv("NEO4J_PASSWORD", c.Neo4jPassword)
	c.Neo4jDatabase = getEnv("NEO4J_DATABASE", c.Neo4jDatabase)
	c.Neo4jConnectTimeout = getEnvDuration("NEO4J_CONNECT_TIMEOUT", c.Neo4jConnectTimeout)
	if raw := os.Getenv("SEED_GRAPHS"); raw != "" {
		seeds, err := ParseSeedGraphs(raw)
		if err != nil {
			return err
		}
		c.SeedGraphs = seeds
	}

	c.BreakerFailureThreshold = getEnvFloat("BREAKER_FAILURE_THRESHOLD", c.BreakerFailureThreshold)
	c.BreakerMinRequests = uint32(getEnvInt("BREAKER_MIN_REQUESTS", int(c.BreakerMinRequests)))
	c.BreakerTimeout = getEnvDuration("BREAKER_TIMEOUT", c.BreakerTimeout)

	c.SlugSalt = getEnv("SLUG_SALT", c.SlugSalt)
	c.SlugMinLength = getEnvInt("SLUG_MIN_LENGTH", c.SlugMinLength)
	c.CacheSize = getEnvInt("CACHE_SIZE", c.CacheSize)
	c.CacheTTL = getEnvDuration("CACHE_TTL", c.CacheTTL)
	c.StaticDir = getEnv("STATIC_DIR", c.StaticDir)
	c.DebugErrors = getEnvBool("DEBUG_ERRORS", c.DebugErrors)

	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.JWTIssuer = getEnv("JWT_ISSUER", c.JWTIssuer)

	c.EnableMetrics = getEnvBool("ENABLE_METRICS", c.EnableMetrics)
	c.EnableTracing = getEnvBool("ENABLE_TRACING", c.EnableTracing)
	c.OTELEndpoint = getEnv("OTEL_ENDPOINT", c.OTELEndpoint)
	c.EnableCORS = getEnvBool("ENABLE_CORS", c.EnableCORS)
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		c.CORSOrigins = splitList(origins)
	}
	return nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case StoreNeo4j:
		if c.Neo4jURI == "" {
			return fmt.Errorf("NEO4J_URI is required")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	if c.CacheSize <= 0 {
		return fmt.Errorf("CACHE_SIZE must be positive, got %d", c.CacheSize)
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive, got %s", c.CacheTTL)
	}
	if c.SlugMinLength < 0 {
		return fmt.Errorf("SLUG_MIN_LENGTH must not be negative")
	}
	if len(c.SeedGraphs) == 0 {
		return fmt.Errorf("at least one seed graph is required")
	}
	for _, g := range c.SeedGraphs {
		if g.ID < 0 || g.Name == "" {
			return fmt.Errorf("invalid seed graph %d:%q", g.ID, g.Name)
		}
	}
	if c.IsProduction() && c.SlugSalt == Defaults().SlugSalt {
		return fmt.Errorf("SLUG_SALT must be set in production")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == Development
}

func (c *Config) IsProduction() bool {
	return c.Environment == Production
}

// ParseSeedGraphs parses "1:default,2:scratch".
func ParseSeedGraphs(raw string) ([]SeedGraph, error) {
	var seeds []SeedGraph
	for _, item := range splitList(raw) {
		idPart, name, ok := strings.Cut(item, ":")
		if !ok {
			return nil, fmt.Errorf("seed graph %q: expected id:name", item)
		}
		id, err := strconv.ParseInt(strings.TrimSpace(idPart), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("seed graph %q: %w", item, err)
		}
		seeds = append(seeds, SeedGraph{ID: id, Name: strings.TrimSpace(name)})
	}
	return seeds, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
