package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Server     ServerConfig     `mapstructure:"server"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Admin      AdminConfig      `mapstructure:"admin"`
	PayFast    PayFastConfig    `mapstructure:"payfast"`
	Cloudinary CloudinaryConfig `mapstructure:"cloudinary"`
	Inquiry    InquiryConfig    `mapstructure:"inquiry"`
	Logger     LoggerConfig     `mapstructure:"logger"`
	Security   SecurityConfig   `mapstructure:"security"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	Host         string        `mapstructure:"host"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	// PublicBaseURL is used for PayFast return/cancel/notify URLs. When empty the
	// request Origin header is used instead.
	PublicBaseURL string `mapstructure:"public_base_url"`
}

// StorageConfig holds the JSON file store configuration
type StorageConfig struct {
	DataDir       string        `mapstructure:"data_dir"`
	Watch         bool          `mapstructure:"watch"`
	WatchDebounce time.Duration `mapstructure:"watch_debounce"`
}

// AdminConfig holds the dashboard credential pair and token settings
type AdminConfig struct {
	Username     string        `mapstructure:"username"`
	Password     string        `mapstructure:"password"`
	PasswordHash string        `mapstructure:"password_hash"`
	JWTSecret    string        `mapstructure:"jwt_secret"`
	TokenTTL     time.Duration `mapstructure:"token_ttl"`
	Issuer       string        `mapstructure:"issuer"`
}

// PayFastConfig holds the payment gateway credentials
type PayFastConfig struct {
	MerchantID  string `mapstructure:"merchant_id"`
	MerchantKey string `mapstructure:"merchant_key"`
	Passphrase  string `mapstructure:"passphrase"`
	ProcessURL  string `mapstructure:"process_url"`
	// NotifyMerchantID and NotifyPassphrase verify ITN callbacks. They default to
	// MerchantID and Passphrase.
	NotifyMerchantID string `mapstructure:"notify_merchant_id"`
	NotifyPassphrase string `mapstructure:"notify_passphrase"`
}

// CloudinaryConfig holds the hosted image CDN credentials
type CloudinaryConfig struct {
	CloudName string        `mapstructure:"cloud_name"`
	APIKey    string        `mapstructure:"api_key"`
	APISecret string        `mapstructure:"api_secret"`
	Folder    string        `mapstructure:"folder"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// Enabled reports whether all three credentials are present
func (c *CloudinaryConfig) Enabled() bool {
	return c.CloudName != "" && c.APIKey != "" && c.APISecret != ""
}

// InquiryConfig holds the optional external checkout inquiry collector
type InquiryConfig struct {
	WebhookURL string        `mapstructure:"webhook_url"`
	FormType   string        `mapstructure:"form_type"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	Output   string `mapstructure:"output"`
	Filename string `mapstructure:"filename"`
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	CORSAllowedOrigins string        `mapstructure:"cors_allowed_origins"`
	RateLimitRequests  int           `mapstructure:"rate_limit_requests"`
	RateLimitWindow    time.Duration `mapstructure:"rate_limit_window"`
	MaxUploadSize      int64         `mapstructure:"max_upload_size"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Load loads configuration from various sources
func Load() (*Config, error) {
	// Load .env file if it exists (ignore errors)
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.PayFast.NotifyMerchantID == "" {
		cfg.PayFast.NotifyMerchantID = cfg.PayFast.MerchantID
	}
	if cfg.PayFast.NotifyPassphrase == "" {
		cfg.PayFast.NotifyPassphrase = cfg.PayFast.Passphrase
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "Bekker Fine Art")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.debug", false)

	// Server defaults
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.public_base_url", "")

	// Storage defaults
	v.SetDefault("storage.data_dir", "data")
	v.SetDefault("storage.watch", true)
	v.SetDefault("storage.watch_debounce", "250ms")

	// Admin defaults
	v.SetDefault("admin.username", "admin")
	v.SetDefault("admin.password", "bekker2024")
	v.SetDefault("admin.password_hash", "")
	v.SetDefault("admin.jwt_secret", "bekker-gallery-dev-secret")
	v.SetDefault("admin.token_ttl", "12h")
	v.SetDefault("admin.issuer", "bekker-gallery")

	// PayFast defaults (sandbox)
	v.SetDefault("payfast.merchant_id", "10041723")
	v.SetDefault("payfast.merchant_key", "zfpjj502dmh8o")
	v.SetDefault("payfast.passphrase", "writenowagency123")
	v.SetDefault("payfast.process_url", "https://sandbox.payfast.co.za/eng/process")
	v.SetDefault("payfast.notify_merchant_id", "")
	v.SetDefault("payfast.notify_passphrase", "")

	// Cloudinary defaults
	v.SetDefault("cloudinary.cloud_name", "")
	v.SetDefault("cloudinary.api_key", "")
	v.SetDefault("cloudinary.api_secret", "")
	v.SetDefault("cloudinary.folder", "bekker-fine-art")
	v.SetDefault("cloudinary.timeout", "60s")

	// Inquiry forwarding defaults
	v.SetDefault("inquiry.webhook_url", "")
	v.SetDefault("inquiry.form_type", "BekkerfineArt")
	v.SetDefault("inquiry.timeout", "10s")

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.output", "stdout")
	v.SetDefault("logger.filename", "")

	// Security defaults
	v.SetDefault("security.cors_allowed_origins", "*")
	v.SetDefault("security.rate_limit_requests", 20)
	v.SetDefault("security.rate_limit_window", "1m")
	v.SetDefault("security.max_upload_size", 10*1024*1024)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "APP_NAME")
	v.BindEnv("app.version", "APP_VERSION")
	v.BindEnv("app.environment", "APP_ENVIRONMENT")
	v.BindEnv("app.debug", "APP_DEBUG")

	// Server
	v.BindEnv("server.port", "PORT", "SERVER_PORT")
	v.BindEnv("server.host", "SERVER_HOST")
	v.BindEnv("server.read_timeout", "SERVER_READ_TIMEOUT")
	v.BindEnv("server.write_timeout", "SERVER_WRITE_TIMEOUT")
	v.BindEnv("server.idle_timeout", "SERVER_IDLE_TIMEOUT")
	v.BindEnv("server.public_base_url", "PUBLIC_BASE_URL", "NEXT_PUBLIC_BASE_URL")

	// Storage
	v.BindEnv("storage.data_dir", "DATA_DIR")
	v.BindEnv("storage.watch", "DATA_WATCH")
	v.BindEnv("storage.watch_debounce", "DATA_WATCH_DEBOUNCE")

	// Admin
	v.BindEnv("admin.username", "ADMIN_USERNAME")
	v.BindEnv("admin.password", "ADMIN_PASSWORD")
	v.BindEnv("admin.password_hash", "ADMIN_PASSWORD_HASH")
	v.BindEnv("admin.jwt_secret", "JWT_SECRET")
	v.BindEnv("admin.token_ttl", "ADMIN_TOKEN_TTL")
	v.BindEnv("admin.issuer", "JWT_ISSUER")

	// PayFast
	v.BindEnv("payfast.merchant_id", "PAYFAST_MERCHANT_ID")
	v.BindEnv("payfast.merchant_key", "PAYFAST_MERCHANT_KEY")
	v.BindEnv("payfast.passphrase", "PAYFAST_PASSPHRASE")
	v.BindEnv("payfast.process_url", "PAYFAST_URL")
	v.BindEnv("payfast.notify_merchant_id", "PAYFAST_NOTIFY_MERCHANT_ID")
	v.BindEnv("payfast.notify_passphrase", "PAYFAST_NOTIFY_PASSPHRASE")

	// Cloudinary
	v.BindEnv("cloudinary.cloud_name", "CLOUDINARY_CLOUD_NAME")
	v.BindEnv("cloudinary.api_key", "CLOUDINARY_API_KEY")
	v.BindEnv("cloudinary.api_secret", "CLOUDINARY_API_SECRET")
	v.BindEnv("cloudinary.folder", "CLOUDINARY_FOLDER")
	v.BindEnv("cloudinary.timeout", "CLOUDINARY_TIMEOUT")

	// Inquiry
	v.BindEnv("inquiry.webhook_url", "INQUIRY_WEBHOOK_URL")
	v.BindEnv("inquiry.form_type", "INQUIRY_FORM_TYPE")
	v.BindEnv("inquiry.timeout", "INQUIRY_TIMEOUT")

	// Logger
	v.BindEnv("logger.level", "LOG_LEVEL")
	v.BindEnv("logger.format", "LOG_FORMAT")
	v.BindEnv("logger.output", "LOG_OUTPUT")
	v.BindEnv("logger.filename", "LOG_FILENAME")

	// Security
	v.BindEnv("security.cors_allowed_origins", "CORS_ALLOWED_ORIGINS")
	v.BindEnv("security.rate_limit_requests", "RATE_LIMIT_REQUESTS")
	v.BindEnv("security.rate_limit_window", "RATE_LIMIT_WINDOW")
	v.BindEnv("security.max_upload_size", "MAX_UPLOAD_SIZE")

	// Metrics
	v.BindEnv("metrics.enabled", "ENABLE_METRICS")
}

func validateConfig(cfg *Config) error {
	if cfg.Storage.DataDir == "" {
		return fmt.Errorf("storage data dir is required")
	}

	if cfg.Admin.Username == "" {
		return fmt.Errorf("admin username is required")
	}

	if cfg.Admin.Password == "" && cfg.Admin.PasswordHash == "" {
		return fmt.Errorf("admin password or password hash is required")
	}

	if cfg.Admin.JWTSecret == "" {
		return fmt.Errorf("JWT secret must be set")
	}

	if cfg.App.IsProduction() && cfg.Admin.JWTSecret == "bekker-gallery-dev-secret" {
		return fmt.Errorf("JWT secret must not use the development default in production")
	}

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535")
	}

	if cfg.PayFast.MerchantID == "" || cfg.PayFast.MerchantKey == "" {
		return fmt.Errorf("payfast merchant id and key are required")
	}

	return nil
}

// Address returns the listen address of the HTTP server
func (cfg *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
}

// IsDevelopment returns true if the environment is development
func (cfg *AppConfig) IsDevelopment() bool {
	return cfg.Environment == "development"
}

// IsProduction returns true if the environment is production
func (cfg *AppConfig) IsProduction() bool {
	return cfg.Environment == "production"
}
