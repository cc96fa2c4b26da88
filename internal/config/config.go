package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"printshop-backend/internal/domains/payment/gateway/redsys"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

// Config holds the whole application configuration, populated from
// environment variables
type Config struct {
	App       AppConfig
	Redis     RedisConfig
	JWT       JWTConfig
	SMTP      SMTPConfig
	Redsys    RedsysConfig
	RateLimit RateLimitConfig
	Jobs      JobsConfig
}

type AppConfig struct {
	Name           string
	Environment    string // development, staging, production
	Port           string
	Version        string
	AllowedOrigins []string // CORS origins of the checkout frontend
}

type RedisConfig struct {
	Host     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret            string
	AccessTokenExpiry int // minutes
}

type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	ShopName string
	ShopURL  string
}

// =====================================================
// REDSYS CONFIGURATION
// =====================================================

type RedsysConfig struct {
	MerchantCode     string // Ds_Merchant_MerchantCode (FUC)
	Terminal         string
	SecretKey        string // base64 merchant secret
	Environment      string // test or live
	Currency         string // ISO 4217 numeric
	TransactionType  string
	MerchantURL      string // notification endpoint (this API)
	URLOK            string // shopper return on success
	URLKO            string // shopper return on failure
	MerchantName     string
	ConsumerLanguage string
	Description      string        // fmt template receiving the order id
	NotifyTimeout    time.Duration // bound on the confirmation enqueue
	ReplayTTL        time.Duration // replay guard retention
	ReplayTimeout    time.Duration // bound on each replay guard call
}

// GatewayConfig converts the settings into the client configuration.
func (r RedsysConfig) GatewayConfig() *redsys.Config {
	cfg := redsys.NewConfig(r.MerchantCode, r.Terminal, r.SecretKey, r.Environment)
	if r.Currency != "" {
		cfg.Currency = r.Currency
	}
	if r.TransactionType != "" {
		cfg.TransactionType = r.TransactionType
	}
	cfg.MerchantURL = r.MerchantURL
	cfg.URLOK = r.URLOK
	cfg.URLKO = r.URLKO
	cfg.MerchantName = r.MerchantName
	cfg.ConsumerLanguage = r.ConsumerLanguage
	return cfg
}

type RateLimitConfig struct {
	PreparePerMinute int
	PrepareBurst     int
}

type JobsConfig struct {
	Concurrency         int
	PaymentAbandonAfter time.Duration // pending orders older than this are cancelled
	ExpireCron          string
	ExpireBatchSize     int
}

// Load reads the configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:           getEnv("APP_NAME", "Print Shop API"),
			Environment:    getEnv("APP_ENV", "development"),
			Port:           getEnv("APP_PORT", "8080"),
			Version:        getEnv("APP_VERSION", "1.0.0"),
			AllowedOrigins: getEnvList("APP_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:            getEnv("JWT_SECRET", defaultJWTSecret),
			AccessTokenExpiry: getEnvInt("JWT_ACCESS_EXPIRY", 60*24),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", "localhost"),
			Port:     getEnv("SMTP_PORT", "1025"),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", "orders@printshop.dev"),
			ShopName: getEnv("SHOP_NAME", "Print Shop"),
			ShopURL:  getEnv("SHOP_URL", "http://localhost:3000"),
		},
		Redsys: RedsysConfig{
			MerchantCode:     getEnv("REDSYS_MERCHANT_CODE", ""),
			Terminal:         getEnv("REDSYS_TERMINAL", "1"),
			SecretKey:        getEnv("REDSYS_SECRET_KEY", ""),
			Environment:      getEnv("REDSYS_ENVIRONMENT", redsys.EnvironmentTest),
			Currency:         getEnv("REDSYS_CURRENCY", redsys.CurrencyEUR),
			TransactionType:  getEnv("REDSYS_TRANSACTION_TYPE", redsys.TransactionTypePayment),
			MerchantURL:      getEnv("REDSYS_MERCHANT_URL", "http://localhost:8080/api/v1/webhooks/redsys"),
			URLOK:            getEnv("REDSYS_URL_OK", "http://localhost:3000/checkout/success"),
			URLKO:            getEnv("REDSYS_URL_KO", "http://localhost:3000/checkout/failed"),
			MerchantName:     getEnv("REDSYS_MERCHANT_NAME", "Print Shop"),
			ConsumerLanguage: getEnv("REDSYS_CONSUMER_LANGUAGE", redsys.ConsumerLanguageSpanish),
			Description:      getEnv("REDSYS_DESCRIPTION", "Order %s"),
			NotifyTimeout:    getEnvDuration("REDSYS_NOTIFY_TIMEOUT", 2*time.Second),
			ReplayTTL:        getEnvDuration("REDSYS_REPLAY_TTL", 10*time.Minute),
			ReplayTimeout:    getEnvDuration("REDSYS_REPLAY_TIMEOUT", 200*time.Millisecond),
		},
		RateLimit: RateLimitConfig{
			PreparePerMinute: getEnvInt("RATE_LIMIT_PREPARE_PER_MINUTE", 30),
			PrepareBurst:     getEnvInt("RATE_LIMIT_PREPARE_BURST", 10),
		},
		Jobs: JobsConfig{
			Concurrency:         getEnvInt("JOBS_CONCURRENCY", 10),
			PaymentAbandonAfter: getEnvDuration("JOBS_PAYMENT_ABANDON_AFTER", 24*time.Hour),
			ExpireCron:          getEnv("JOBS_EXPIRE_CRON", "0 * * * *"),
			ExpireBatchSize:     getEnvInt("JOBS_EXPIRE_BATCH_SIZE", 200),
		},
	}

	// Validate critical config
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration is usable
func (c *Config) Validate() error {
	if c.Redsys.MerchantCode == "" {
		return fmt.Errorf("REDSYS_MERCHANT_CODE is required")
	}
	if c.Redsys.SecretKey == "" {
		return fmt.Errorf("REDSYS_SECRET_KEY is required")
	}
	if err := c.Redsys.GatewayConfig().Validate(); err != nil {
		return fmt.Errorf("redsys: %w", err)
	}
	if c.RateLimit.PreparePerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PREPARE_PER_MINUTE must be positive")
	}

	// Production must not run on development defaults
	if c.App.Environment == "production" {
		if c.JWT.Secret == defaultJWTSecret {
			return fmt.Errorf("JWT_SECRET must be set in production")
		}
		if c.Redsys.Environment != redsys.EnvironmentLive {
			return fmt.Errorf("REDSYS_ENVIRONMENT must be %q in production", redsys.EnvironmentLive)
		}
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var values []string
	for _, v := range strings.Split(valueStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}
