package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete application configuration, loadable from
// environment variables (SHOP_ prefix), flags, or YAML config files.
type Config struct {
	Addr         string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL  string `usage:"PostgreSQL connection URL (SHOP_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	RedisAddr    string `default:"127.0.0.1:6379" usage:"Redis address or redis:// URL for session carts" flag:"redis-addr"`
	ImageBaseURL string `default:"" usage:"Base URL for product images (e.g. https://cdn.example.com/images)" flag:"image-base-url"`

	AdminKey       string `usage:"Shared operator capability token (SHOP_ADMIN_KEY)" flag:"admin-key"`
	AdminKeyPepper string `default:"storefront-admin" usage:"HMAC pepper for admin key comparison" flag:"admin-key-pepper"`

	CartTTL         time.Duration `default:"72h" usage:"Idle TTL for session carts" flag:"cart-ttl"`
	OrderIDYearSalt bool          `default:"true" usage:"Include the current year in order references" flag:"order-id-year-salt"`

	UploadDir     string `default:"static/uploads" usage:"Directory for uploaded assets" flag:"upload-dir"`
	UploadBaseURL string `default:"/static/uploads" usage:"Public URL prefix for uploaded assets" flag:"upload-base-url"`

	Mail      MailConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Graceful  GracefulConfig
}

// MailConfig selects and configures the receipt delivery transport.
type MailConfig struct {
	// Transport is "smtp", "api", or "off".
	Transport string `default:"off" usage:"Receipt transport: smtp, api, or off"`
	From      string `default:"" usage:"Sender address for receipts"`
	Operator  string `default:"" usage:"Operator mailbox receiving a copy of every receipt"`

	SMTPHost     string        `default:"smtp.gmail.com" usage:"SMTP host" flag:"smtp-host"`
	SMTPPort     int           `default:"465" usage:"SMTP port (465 for implicit TLS)" flag:"smtp-port"`
	SMTPUsername string        `default:"" usage:"SMTP username" flag:"smtp-username"`
	SMTPPassword string        `default:"" usage:"SMTP password (app password)" flag:"smtp-password"`
	SMTPSSL      bool          `default:"true" usage:"Use implicit TLS instead of STARTTLS" flag:"smtp-ssl"`
	SMTPTimeout  time.Duration `default:"10s" usage:"SMTP dial/IO timeout" flag:"smtp-timeout"`

	APIEndpoint string        `default:"" usage:"Transactional email API endpoint" flag:"mail-api-endpoint"`
	APIKey      string        `default:"" usage:"Transactional email API key" flag:"mail-api-key"`
	APITimeout  time.Duration `default:"10s" usage:"Email API request timeout" flag:"mail-api-timeout"`

	Workers        int           `default:"2" usage:"Notification worker goroutines"`
	QueueSize      int           `default:"64" usage:"Pending notification queue size"`
	MaxAttempts    int           `default:"3" usage:"Delivery attempts per receipt"`
	Backoff        time.Duration `default:"2s" usage:"Delay between delivery attempts"`
	AttemptTimeout time.Duration `default:"15s" usage:"Per-attempt delivery timeout"`
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config
// files, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "SHOP",
		Files:     []string{"config.yaml", "/etc/storefront/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set SHOP_DATABASE_URL or DATABASE_URL")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables
// (Railway, Render, etc.) that use standard names like DATABASE_URL and
// PORT to the application's SHOP_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if v := os.Getenv("REDIS_URL"); v != "" && c.RedisAddr == "127.0.0.1:6379" {
		c.RedisAddr = v
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
