// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	JWT         JWTConfig
	AWS         AWSConfig
	Payment     PaymentConfig
	Email       EmailConfig
	Shop        ShopConfig
	RateLimit   RateLimitConfig
	CORS        CORSConfig
	Admin       AdminConfig
	I18n        I18nConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	ReadTimeout  int
	WriteTimeout int
	IdleTimeout  int
}

type DatabaseConfig struct {
	Driver       string // postgres | memory
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int
	LogLevel     string
}

type JWTConfig struct {
	SecretKey  string
	SessionTTL int // in hours
}

type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string
	SnapshotBucket  string
	SnapshotKey     string
	// LocalSnapshotDir serves snapshots from disk when no S3 credentials
	// are configured.
	LocalSnapshotDir string
}

type PaymentConfig struct {
	StripeSecretKey      string
	StripePublishableKey string
	EnableCOD            bool
}

// EmailConfig is the SMTP relay for order confirmations. An empty host
// only logs the mails.
type EmailConfig struct {
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	FromEmail    string
}

type ShopConfig struct {
	// StockMaintained caps quantities at resolved stock. When false every
	// quantity is satisfiable.
	StockMaintained bool
	SearchMode      string // local | external
	CartExpiryHours int
	Currency        string
	Locale          string
}

type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type AdminConfig struct {
	// ImportTokenHash is a bcrypt hash of the token accepted by the admin
	// endpoints. Empty disables them.
	ImportTokenHash string
}

type I18nConfig struct {
	DefaultLocale string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	config := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Host:         getEnv("SERVER_HOST", "localhost"),
			ReadTimeout:  getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvAsInt("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:  getEnvAsInt("SERVER_IDLE_TIMEOUT", 60),
		},
		Database: DatabaseConfig{
			Driver:       getEnv("DB_DRIVER", DriverPostgres),
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", ""),
			Database:     getEnv("DB_NAME", "storefront"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  getEnvAsInt("DB_MAX_LIFETIME", 300),
			LogLevel:     getEnv("DB_LOG_LEVEL", "info"),
		},
		JWT: JWTConfig{
			SecretKey:  getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
			SessionTTL: getEnvAsInt("JWT_SESSION_TTL", 24), // 24 hours
		},
		AWS: AWSConfig{
			Region:           getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
			Endpoint:         getEnv("AWS_S3_ENDPOINT", ""),
			SnapshotBucket:   getEnv("AWS_SNAPSHOT_BUCKET", "storefront-catalog"),
			SnapshotKey:      getEnv("AWS_SNAPSHOT_KEY", "snapshots/latest.json"),
			LocalSnapshotDir: getEnv("LOCAL_SNAPSHOT_DIR", "./data"),
		},
		Payment: PaymentConfig{
			StripeSecretKey:      getEnv("STRIPE_SECRET_KEY", ""),
			StripePublishableKey: getEnv("STRIPE_PUBLISHABLE_KEY", ""),
			EnableCOD:            getEnvAsBool("PAYMENT_ENABLE_COD", true),
		},
		Email: EmailConfig{
			SMTPHost:     getEnv("SMTP_HOST", ""),
			SMTPPort:     getEnv("SMTP_PORT", "587"),
			SMTPUsername: getEnv("SMTP_USERNAME", ""),
			SMTPPassword: getEnv("SMTP_PASSWORD", ""),
			FromEmail:    getEnv("FROM_EMAIL", "orders@storefront.local"),
		},
		Shop: ShopConfig{
			StockMaintained: getEnvAsBool("SHOP_STOCK_MAINTAINED", true),
			SearchMode:      getEnv("SHOP_SEARCH_MODE", "local"),
			CartExpiryHours: getEnvAsInt("SHOP_CART_EXPIRY_HOURS", 24),
			Currency:        getEnv("SHOP_CURRENCY", "usd"),
			Locale:          getEnv("SHOP_LOCALE", "en"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: getEnvAsFloat("RATE_LIMIT_RPS", 20),
			Burst:             getEnvAsInt("RATE_LIMIT_BURST", 40),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		Admin: AdminConfig{
			ImportTokenHash: getEnv("ADMIN_IMPORT_TOKEN_HASH", ""),
		},
		I18n: I18nConfig{
			DefaultLocale: getEnv("DEFAULT_LOCALE", "en"),
		},
	}

	return config, config.Validate()
}

func (c *Config) Validate() error {
	if c.JWT.SecretKey == "your-secret-key-change-in-production" && c.Environment == "production" {
		return fmt.Errorf("JWT secret key must be changed in production")
	}

	if err := c.Database.validate(c.Environment); err != nil {
		return err
	}

	if c.Database.Password == "" && c.Environment == "production" {
		return fmt.Errorf("database password is required in production")
	}

	switch c.Shop.SearchMode {
	case "local", "external":
	default:
		return fmt.Errorf("unsupported search mode %q", c.Shop.SearchMode)
	}

	if c.Shop.CartExpiryHours < 1 {
		return fmt.Errorf("cart expiry must be at least one hour")
	}

	if len(c.Shop.Currency) != 3 {
		return fmt.Errorf("currency must be a three letter ISO code")
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.ToLower(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
