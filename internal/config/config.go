package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// DefaultSessionTTL bounds the lifetime of a server-side session row.
const DefaultSessionTTL = time.Hour

// Config holds application configuration
type Config struct {
	Port             string
	Environment      string // local, dev, test, int, prod
	Workspace        string // optional feature-workspace suffix
	Project          string // prefix for parameter/secret paths
	SessionSecret    string
	SessionTTL       time.Duration
	AllowedOrigins   string
	DynamoDBEndpoint string // optional local endpoint override
}

// Load loads configuration from environment variables and validates it.
// A missing ENVIRONMENT is a deployment misconfiguration and is fatal.
func Load() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		Environment:      os.Getenv("ENVIRONMENT"),
		Workspace:        os.Getenv("WORKSPACE"),
		Project:          getEnv("PROJECT", "ftrs-dos"),
		SessionSecret:    getEnv("SESSION_SECRET", ""),
		SessionTTL:       getDurationEnv("SESSION_TTL", DefaultSessionTTL),
		AllowedOrigins:   getEnv("ALLOWED_ORIGINS", "http://localhost:3000"),
		DynamoDBEndpoint: os.Getenv("DYNAMODB_ENDPOINT"),
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	return cfg
}

// Validate checks configuration for security and correctness
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("ENVIRONMENT environment variable must be set")
	}

	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive (got %s)", c.SessionTTL)
	}

	if c.IsLocal() {
		// Local development: provide a default if not set
		if c.SessionSecret == "" {
			c.SessionSecret = "local-dev-secret-not-for-deployed-envs"
			log.Println("Using default SESSION_SECRET for local development")
		}
		return nil
	}

	if c.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET must be set outside local development")
	}
	if len(c.SessionSecret) < 32 {
		return fmt.Errorf("SESSION_SECRET must be at least 32 characters (got %d)", len(c.SessionSecret))
	}

	return nil
}

// IsLocal returns true when running against local infrastructure
func (c *Config) IsLocal() bool {
	return c.Environment == "local"
}

// EnvPrefix returns the environment name with the optional workspace
// suffix attached, as used in parameter store paths.
func (c *Config) EnvPrefix() string {
	if c.Workspace != "" {
		return c.Environment + "-" + c.Workspace
	}
	return c.Environment
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Invalid %s %q, using default %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}
