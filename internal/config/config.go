package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"pdf-delivery-service/internal/models"
)

// Config holds the application configuration
type Config struct {
	Environment string         `mapstructure:"environment"`
	Server      ServerConfig   `mapstructure:"server"`
	Database    DatabaseConfig `mapstructure:"database"`
	Storage     StorageConfig  `mapstructure:"storage"`
	Cache       CacheConfig    `mapstructure:"cache"`
	Email       EmailConfig    `mapstructure:"email"`
	Shopify     ShopifyConfig  `mapstructure:"shopify"`
	App         AppConfig      `mapstructure:"app"`
	Events      EventsConfig   `mapstructure:"events"`
	Logging     LoggingConfig  `mapstructure:"logging"`
	Security    SecurityConfig `mapstructure:"security"`
}

// EventsConfig holds NATS event publishing configuration. Publishing is
// disabled when the URL is empty.
type EventsConfig struct {
	NATSURL string `mapstructure:"nats_url"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port         string `mapstructure:"port"`
	Host         string `mapstructure:"host"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
	IdleTimeout  int    `mapstructure:"idle_timeout"`
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Host         string `mapstructure:"host"`
	Port         string `mapstructure:"port"`
	Name         string `mapstructure:"name"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	SSLMode      string `mapstructure:"ssl_mode"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxLifetime  int    `mapstructure:"max_lifetime"`
}

// StorageConfig holds object storage configuration for uploaded PDFs
type StorageConfig struct {
	Provider    models.CloudProvider `mapstructure:"provider"`
	Bucket      string               `mapstructure:"bucket"`
	MaxFileSize int64                `mapstructure:"max_file_size"`

	AWS   models.AWSConfig   `mapstructure:"aws"`
	Local models.LocalConfig `mapstructure:"local"`
}

// CacheConfig holds Redis cache configuration
type CacheConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Host      string `mapstructure:"host"`
	Port      string `mapstructure:"port"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	PoolSize  int    `mapstructure:"pool_size"`
	RecordTTL int    `mapstructure:"record_ttl"` // seconds; ProductPDF records on the redemption path
}

// EmailConfig holds transactional email configuration
type EmailConfig struct {
	Provider       string `mapstructure:"provider"` // sendgrid or smtp
	From           string `mapstructure:"from"`
	FromName       string `mapstructure:"from_name"`
	SendGridAPIKey string `mapstructure:"sendgrid_api_key"`
	SMTPHost       string `mapstructure:"smtp_host"`
	SMTPPort       int    `mapstructure:"smtp_port"`
	SMTPUsername   string `mapstructure:"smtp_username"`
	SMTPPassword   string `mapstructure:"smtp_password"`

	// Variant titles double as language labels in this domain; templates are
	// keyed by these labels and resolved from the order's own line items.
	SupportedLanguages []string `mapstructure:"supported_languages"`
	DefaultLanguage    string   `mapstructure:"default_language"`
}

// ShopifyConfig holds the Admin API settings used for webhook registration
type ShopifyConfig struct {
	APIVersion  string `mapstructure:"api_version"`
	AccessToken string `mapstructure:"access_token"`
	WebhookBase string `mapstructure:"webhook_base"` // public base URL webhooks are delivered to
	Shop        string `mapstructure:"shop"`         // shop domain to register webhooks for
}

// AppConfig holds application-level settings
type AppConfig struct {
	PublicURL string `mapstructure:"public_url"` // base URL for download links in emails
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	TimeFormat string `mapstructure:"time_format"`
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	EnableCORS     bool     `mapstructure:"enable_cors"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	EnableAuth     bool     `mapstructure:"enable_auth"`
	AdminAPIKey    string   `mapstructure:"admin_api_key"`
}

// LoadConfig loads configuration from config files and environment variables
func LoadConfig() (*Config, error) {
	config := &Config{}

	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/pdf-delivery-service")

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("PDF_SERVICE")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, which is fine - defaults and env vars apply
	}

	bindEnvVars()

	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("environment", "development")

	// Server defaults
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.read_timeout", 10)
	viper.SetDefault("server.write_timeout", 30)
	viper.SetDefault("server.idle_timeout", 60)

	// Database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", "5432")
	viper.SetDefault("database.name", "pdf_delivery")
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.ssl_mode", "disable")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 10)
	viper.SetDefault("database.max_lifetime", 300)

	// Storage defaults
	viper.SetDefault("storage.provider", "aws")
	viper.SetDefault("storage.bucket", "product-pdfs")
	viper.SetDefault("storage.max_file_size", 52428800) // 50MB

	// Cache defaults
	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.host", "localhost")
	viper.SetDefault("cache.port", "6379")
	viper.SetDefault("cache.db", 0)
	viper.SetDefault("cache.pool_size", 10)
	viper.SetDefault("cache.record_ttl", 300)

	// Email defaults
	viper.SetDefault("email.provider", "sendgrid")
	viper.SetDefault("email.from_name", "Products")
	viper.SetDefault("email.smtp_port", 587)
	viper.SetDefault("email.supported_languages", []string{
		"Français", "Anglais", "Espagnol", "Deutsch", "Italiano", "日本語",
	})
	viper.SetDefault("email.default_language", "Anglais")

	// Shopify defaults
	viper.SetDefault("shopify.api_version", "2024-10")

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.output", "stdout")
	viper.SetDefault("logging.time_format", "2006-01-02T15:04:05Z07:00")

	// Security defaults
	viper.SetDefault("security.enable_cors", true)
	viper.SetDefault("security.enable_auth", true)
}

// bindEnvVars binds environment variables to configuration keys
func bindEnvVars() {
	viper.BindEnv("environment", "ENVIRONMENT")

	// Database
	viper.BindEnv("database.host", "DB_HOST")
	viper.BindEnv("database.port", "DB_PORT")
	viper.BindEnv("database.name", "DB_NAME")
	viper.BindEnv("database.user", "DB_USER")
	viper.BindEnv("database.password", "DB_PASSWORD")
	viper.BindEnv("database.ssl_mode", "DB_SSLMODE")

	// Storage
	viper.BindEnv("storage.provider", "STORAGE_PROVIDER")
	viper.BindEnv("storage.bucket", "STORAGE_BUCKET")
	viper.BindEnv("storage.max_file_size", "STORAGE_MAX_FILE_SIZE")
	viper.BindEnv("storage.aws.region", "AWS_REGION")
	viper.BindEnv("storage.aws.access_key_id", "AWS_ACCESS_KEY_ID")
	viper.BindEnv("storage.aws.secret_access_key", "AWS_SECRET_ACCESS_KEY")
	viper.BindEnv("storage.aws.session_token", "AWS_SESSION_TOKEN")
	viper.BindEnv("storage.aws.endpoint", "AWS_ENDPOINT")
	viper.BindEnv("storage.aws.force_path_style", "AWS_FORCE_PATH_STYLE")
	viper.BindEnv("storage.aws.public_url_base", "AWS_PUBLIC_URL_BASE")
	viper.BindEnv("storage.local.base_path", "STORAGE_PATH")
	viper.BindEnv("storage.local.base_url", "STORAGE_BASE_URL")

	// Cache (Redis)
	viper.BindEnv("cache.enabled", "CACHE_ENABLED")
	viper.BindEnv("cache.host", "REDIS_HOST")
	viper.BindEnv("cache.port", "REDIS_PORT")
	viper.BindEnv("cache.password", "REDIS_PASSWORD")
	viper.BindEnv("cache.db", "REDIS_DB")

	// Email
	viper.BindEnv("email.provider", "EMAIL_PROVIDER")
	viper.BindEnv("email.from", "EMAIL_FROM")
	viper.BindEnv("email.from_name", "EMAIL_FROM_NAME")
	viper.BindEnv("email.sendgrid_api_key", "SENDGRID_API_KEY")
	viper.BindEnv("email.smtp_host", "SMTP_HOST")
	viper.BindEnv("email.smtp_port", "SMTP_PORT")
	viper.BindEnv("email.smtp_username", "SMTP_USERNAME")
	viper.BindEnv("email.smtp_password", "SMTP_PASSWORD")

	// Shopify
	viper.BindEnv("shopify.api_version", "SHOPIFY_API_VERSION")
	viper.BindEnv("shopify.access_token", "SHOPIFY_ACCESS_TOKEN")
	viper.BindEnv("shopify.webhook_base", "SHOPIFY_WEBHOOK_BASE")
	viper.BindEnv("shopify.shop", "SHOPIFY_SHOP")

	// App
	viper.BindEnv("app.public_url", "APP_PUBLIC_URL")

	// Events
	viper.BindEnv("events.nats_url", "NATS_URL")

	// Security
	viper.BindEnv("security.enable_auth", "ENABLE_AUTH")
	viper.BindEnv("security.enable_cors", "ENABLE_CORS")
	viper.BindEnv("security.admin_api_key", "ADMIN_API_KEY")

	// Server
	viper.BindEnv("server.port", "PORT")
	viper.BindEnv("server.host", "HOST")
}

// validateConfig validates the loaded configuration
func validateConfig(config *Config) error {
	switch config.Storage.Provider {
	case models.ProviderAWS:
		if config.Storage.AWS.Region == "" {
			return fmt.Errorf("AWS region is required when using AWS provider")
		}
	case models.ProviderLocal:
		if config.Storage.Local.BasePath == "" {
			return fmt.Errorf("storage path is required when using local provider")
		}
	default:
		return fmt.Errorf("unsupported storage provider: %s", config.Storage.Provider)
	}

	if config.Storage.Bucket == "" {
		return fmt.Errorf("storage bucket is required")
	}
	if config.Storage.MaxFileSize <= 0 {
		return fmt.Errorf("max file size must be greater than 0")
	}

	switch config.Email.Provider {
	case "sendgrid", "smtp":
	default:
		return fmt.Errorf("unsupported email provider: %s", config.Email.Provider)
	}

	if config.App.PublicURL == "" {
		return fmt.Errorf("app public URL is required (download links are built from it)")
	}

	if config.Security.EnableAuth && config.Security.AdminAPIKey == "" {
		return fmt.Errorf("admin API key is required when authentication is enabled")
	}

	return nil
}

// GetDSN returns the database connection string
func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetAddr returns the address the HTTP server listens on
func (c *Config) GetAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

// IsDevelopment returns true when running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true when running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// DownloadURL builds the public redemption URL for a download token.
func (c *Config) DownloadURL(token string) string {
	return strings.TrimSuffix(c.App.PublicURL, "/") + "/api/download/" + token
}

// RecordCacheTTL returns how long resolved PDF records may be cached.
func (c *Config) RecordCacheTTL() time.Duration {
	return time.Duration(c.Cache.RecordTTL) * time.Second
}
