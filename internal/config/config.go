package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// Config structure represents the application configuration
type Config struct {
	Server struct {
		Port           string   `yaml:"port" env:"SERVER_PORT"`
		Mode           string   `yaml:"mode" env:"SERVER_MODE"`
		MaxUploadBytes int64    `yaml:"max_upload_bytes" env:"MAX_UPLOAD_BYTES"`
		TrustedProxies []string `yaml:"trusted_proxies" env:"TRUSTED_PROXIES"`
		// built frontend served for non-API routes; empty disables it
		WebDir string `yaml:"web_dir" env:"WEB_DIR"`
	} `yaml:"server"`

	Database struct {
		URL             string `yaml:"url" env:"DATABASE_URL"`
		Host            string `yaml:"host" env:"DB_HOST"`
		Port            string `yaml:"port" env:"DB_PORT"`
		User            string `yaml:"user" env:"DB_USER"`
		Password        string `yaml:"password" env:"DB_PASSWORD"`
		DBName          string `yaml:"dbname" env:"DB_NAME"`
		SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE"`
		MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
		MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
	} `yaml:"database"`

	Auth struct {
		SecretKey     string `yaml:"secret_key" env:"SECRET_KEY"`
		SessionTTL    string `yaml:"session_ttl" env:"SESSION_TTL"`
		Issuer        string `yaml:"issuer" env:"JWT_ISSUER"`
		AdminUsername string `yaml:"admin_username" env:"ADMIN_USERNAME"`
		AdminPassword string `yaml:"admin_password" env:"ADMIN_PASSWORD"` // bcrypt hash
	} `yaml:"auth"`

	Cookie struct {
		// auto, true or false; auto means secure unless running in development mode
		Secure string `yaml:"secure" env:"COOKIE_SECURE"`
	} `yaml:"cookie"`

	Storage struct {
		Path       string `yaml:"path" env:"STORAGE_PATH"`
		PresignTTL string `yaml:"presign_ttl" env:"STORAGE_PRESIGN_TTL"`
	} `yaml:"storage"`

	R2 struct {
		EndpointURL     string `yaml:"endpoint_url" env:"R2_ENDPOINT_URL"`
		AccessKeyID     string `yaml:"access_key_id" env:"R2_ACCESS_KEY_ID"`
		SecretAccessKey string `yaml:"secret_access_key" env:"R2_SECRET_ACCESS_KEY"`
		BucketName      string `yaml:"bucket_name" env:"R2_BUCKET_NAME"`
	} `yaml:"r2"`

	CORS struct {
		Origins []string `yaml:"origins" env:"CORS_ORIGINS"`
	} `yaml:"cors"`

	Fastbill struct {
		APIURL  string `yaml:"api_url" env:"FASTBILL_API_URL"`
		Email   string `yaml:"email" env:"FASTBILL_EMAIL"`
		APIKey  string `yaml:"api_key" env:"FASTBILL_API_KEY"`
		Timeout string `yaml:"timeout" env:"FASTBILL_TIMEOUT"`
	} `yaml:"fastbill"`

	RateLimit struct {
		LoginPerMinute   int `yaml:"login_per_minute" env:"RATE_LIMIT_LOGIN_PER_MINUTE"`
		LoginBurst       int `yaml:"login_burst" env:"RATE_LIMIT_LOGIN_BURST"`
		GeneralPerMinute int `yaml:"general_per_minute" env:"RATE_LIMIT_PER_MINUTE"`
		GeneralBurst     int `yaml:"general_burst" env:"RATE_LIMIT_BURST"`
	} `yaml:"rate_limit"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"logging"`
}

// LoadConfig loads the configuration and validates everything the HTTP server needs
func LoadConfig(configPath string) (*Config, error) {
	config, err := Load(configPath)
	if err != nil {
		return nil, err
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Load reads defaults, the optional YAML file, a .env file and the environment,
// in that order. Only the database settings are validated.
func Load(configPath string) (*Config, error) {
	config := &Config{}
	setDefaults(config)

	if _, err := os.Stat(configPath); err == nil {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	// Variables already present in the environment win over .env
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	if err := loadFromEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := config.ValidateDatabase(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	config.Server.Port = "8080"
	config.Server.Mode = "production"
	config.Server.MaxUploadBytes = 10 << 20

	config.Database.Host = "localhost"
	config.Database.Port = "5432"
	config.Database.User = "postgres"
	config.Database.Password = "postgres"
	config.Database.DBName = "tutoring"
	config.Database.SSLMode = "disable"
	config.Database.MaxIdleConns = 2
	config.Database.MaxOpenConns = 10
	config.Database.ConnMaxLifetime = "1h"

	config.Auth.SessionTTL = "8h"
	config.Auth.Issuer = "sessionlog"

	config.Cookie.Secure = "auto"

	config.Storage.Path = "data"
	config.Storage.PresignTTL = "1h"

	config.Fastbill.APIURL = "https://my.fastbill.com/api/1.0/api.php"
	config.Fastbill.Timeout = "30s"

	config.RateLimit.LoginPerMinute = 5
	config.RateLimit.LoginBurst = 5
	config.RateLimit.GeneralPerMinute = 300
	config.RateLimit.GeneralBurst = 60

	config.Logging.Level = "info"
	config.Logging.Format = "json"
}

// loadFromEnv overrides configuration with environment variables
func loadFromEnv(config *Config) error {
	return processStructFields(config)
}

// ValidateDatabase checks the settings needed to open a connection pool
func (c *Config) ValidateDatabase() error {
	if c.Database.URL == "" && c.Database.Host == "" {
		return fmt.Errorf("database host or DATABASE_URL is required")
	}
	if _, err := time.ParseDuration(c.Database.ConnMaxLifetime); err != nil {
		return fmt.Errorf("invalid database connection lifetime: %w", err)
	}
	return nil
}

// validateConfig ensures that the configuration is valid for serving requests
func validateConfig(config *Config) error {
	if config.Auth.SecretKey == "" {
		return fmt.Errorf("SECRET_KEY is required")
	}
	if len(config.Auth.SecretKey) < 16 {
		return fmt.Errorf("SECRET_KEY must be at least 16 characters")
	}

	if config.Auth.AdminUsername == "" || config.Auth.AdminPassword == "" {
		return fmt.Errorf("ADMIN_USERNAME and ADMIN_PASSWORD are required")
	}
	cost, err := bcrypt.Cost([]byte(config.Auth.AdminPassword))
	if err != nil {
		return fmt.Errorf("ADMIN_PASSWORD must be a bcrypt hash (see `admin hash-password`): %w", err)
	}
	if cost < 10 {
		return fmt.Errorf("ADMIN_PASSWORD bcrypt cost %d is below 10", cost)
	}

	for name, value := range map[string]string{
		"session ttl":      config.Auth.SessionTTL,
		"presign ttl":      config.Storage.PresignTTL,
		"fastbill timeout": config.Fastbill.Timeout,
	} {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %s format: %w", name, err)
		}
	}

	switch strings.ToLower(config.Cookie.Secure) {
	case "auto", "true", "false":
	default:
		return fmt.Errorf("COOKIE_SECURE must be auto, true or false")
	}

	if config.RateLimit.LoginPerMinute <= 0 || config.RateLimit.GeneralPerMinute <= 0 {
		return fmt.Errorf("rate limits must be positive")
	}

	return nil
}

// IsDevelopment reports whether the server runs in development mode
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Server.Mode, "development")
}

// SecureCookies resolves the cookie Secure flag
func (c *Config) SecureCookies() bool {
	switch strings.ToLower(c.Cookie.Secure) {
	case "true":
		return true
	case "false":
		return false
	default:
		return !c.IsDevelopment()
	}
}

// FastbillConfigured reports whether billing credentials are present
func (c *Config) FastbillConfigured() bool {
	return c.Fastbill.APIURL != "" && c.Fastbill.Email != "" && c.Fastbill.APIKey != ""
}

// GetPostgresConnectionString returns postgres connection string. DATABASE_URL wins when set.
func (c *Config) GetPostgresConnectionString() string {
	if c.Database.URL != "" {
		return c.Database.URL
	}

	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
		sslMode,
	)
}
