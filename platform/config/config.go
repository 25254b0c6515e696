// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for admin middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetAPIBaseURL() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
}

// WhatsAppConfig provides settings for the WhatsApp Cloud API.
type WhatsAppConfig interface {
	GetWhatsAppAPIURL() string
	GetWhatsAppToken() string
	GetWhatsAppPhoneNumberID() string
	GetWhatsAppVerifyToken() string
	GetWhatsAppAppSecret() string
}

// LLMConfig provides settings for the OpenAI-compatible language model.
type LLMConfig interface {
	GetOpenAIAPIKey() string
	GetOpenAIBaseURL() string
	GetOpenAIModel() string
	GetOpenAIMaxTokens() int64
	IsLLMEnabled() bool
}

// MinIOConfig provides settings for MinIO S3-compatible storage.
type MinIOConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOMaxFileSize() int64
	GetMinioBucketQuotePDFs() string
	IsMinIOEnabled() bool
}

// SchedulerConfig provides settings for the asynq worker and Redis.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// EmailConfig provides settings for SMTP delivery of quotes.
type EmailConfig interface {
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
	IsEmailEnabled() bool
}

// QuoteConfig provides commercial defaults for generated quotes.
type QuoteConfig interface {
	GetDefaultTaxRateBps() int64
	GetQuoteValidityDays() int
	GetAPIBaseURL() string
	GetCompanyName() string
	GetCompanyEmail() string
	GetCompanyPhone() string
	GetBusinessLocation() *time.Location
}

// ConversationConfig provides conversation lifecycle settings.
type ConversationConfig interface {
	GetConversationTimeout() time.Duration
	GetConversationLockTTL() time.Duration
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                   string
	HTTPAddr              string
	APIBaseURL            string
	DatabaseURL           string
	JWTAccessSecret       string
	CORSAllowAll          bool
	CORSOrigins           []string
	WhatsAppAPIURL        string
	WhatsAppToken         string
	WhatsAppPhoneNumberID string
	WhatsAppVerifyToken   string
	WhatsAppAppSecret     string
	OpenAIAPIKey          string
	OpenAIBaseURL         string
	OpenAIModel           string
	OpenAIMaxTokens       int64
	MinIOEndpoint         string
	MinIOAccessKey        string
	MinIOSecretKey        string
	MinIOUseSSL           bool
	MinIOMaxFileSize      int64
	MinioBucketQuotePDFs  string
	RedisURL              string
	RedisTLSInsecure      bool
	AsynqQueueName        string
	AsynqConcurrency      int
	SMTPHost              string
	SMTPPort              int
	SMTPUsername          string
	SMTPPassword          string
	EmailFromName         string
	EmailFromAddress      string
	DefaultTaxRateBps     int64
	QuoteValidityDays     int
	CompanyName           string
	CompanyEmail          string
	CompanyPhone          string
	BusinessTimezone      string
	BusinessLocation      *time.Location
	ConversationTimeout   time.Duration
	ConversationLockTTL   time.Duration
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetAPIBaseURL() string    { return c.APIBaseURL }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }

// WhatsAppConfig implementation
func (c *Config) GetWhatsAppAPIURL() string        { return c.WhatsAppAPIURL }
func (c *Config) GetWhatsAppToken() string         { return c.WhatsAppToken }
func (c *Config) GetWhatsAppPhoneNumberID() string { return c.WhatsAppPhoneNumberID }
func (c *Config) GetWhatsAppVerifyToken() string   { return c.WhatsAppVerifyToken }
func (c *Config) GetWhatsAppAppSecret() string     { return c.WhatsAppAppSecret }

// LLMConfig implementation
func (c *Config) GetOpenAIAPIKey() string   { return c.OpenAIAPIKey }
func (c *Config) GetOpenAIBaseURL() string  { return c.OpenAIBaseURL }
func (c *Config) GetOpenAIModel() string    { return c.OpenAIModel }
func (c *Config) GetOpenAIMaxTokens() int64 { return c.OpenAIMaxTokens }
func (c *Config) IsLLMEnabled() bool        { return c.OpenAIAPIKey != "" }

// MinIOConfig implementation
func (c *Config) GetMinIOEndpoint() string        { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string       { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string       { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool            { return c.MinIOUseSSL }
func (c *Config) GetMinIOMaxFileSize() int64      { return c.MinIOMaxFileSize }
func (c *Config) GetMinioBucketQuotePDFs() string { return c.MinioBucketQuotePDFs }
func (c *Config) IsMinIOEnabled() bool            { return c.MinIOEndpoint != "" }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string        { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool  { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string  { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int   { return c.AsynqConcurrency }

// EmailConfig implementation
func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string     { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string     { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string    { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }
func (c *Config) IsEmailEnabled() bool        { return c.SMTPHost != "" && c.EmailFromAddress != "" }

// QuoteConfig implementation
func (c *Config) GetDefaultTaxRateBps() int64 { return c.DefaultTaxRateBps }
func (c *Config) GetQuoteValidityDays() int   { return c.QuoteValidityDays }
func (c *Config) GetCompanyName() string      { return c.CompanyName }
func (c *Config) GetCompanyEmail() string     { return c.CompanyEmail }
func (c *Config) GetCompanyPhone() string     { return c.CompanyPhone }
func (c *Config) GetBusinessLocation() *time.Location {
	if c.BusinessLocation == nil {
		return time.UTC
	}
	return c.BusinessLocation
}

// ConversationConfig implementation
func (c *Config) GetConversationTimeout() time.Duration { return c.ConversationTimeout }
func (c *Config) GetConversationLockTTL() time.Duration { return c.ConversationLockTTL }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:3000"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                   getEnv("APP_ENV", "development"),
		HTTPAddr:              getEnv("HTTP_ADDR", ":8000"),
		APIBaseURL:            strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:8000"), "/"),
		DatabaseURL:           getEnv("DATABASE_URL", ""),
		JWTAccessSecret:       getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:          corsAllowAll,
		CORSOrigins:           corsOrigins,
		WhatsAppAPIURL:        strings.TrimRight(getEnv("WHATSAPP_API_URL", "https://graph.facebook.com/v18.0"), "/"),
		WhatsAppToken:         getEnv("WHATSAPP_TOKEN", ""),
		WhatsAppPhoneNumberID: getEnv("WHATSAPP_PHONE_NUMBER_ID", ""),
		WhatsAppVerifyToken:   getEnv("WHATSAPP_VERIFY_TOKEN", ""),
		WhatsAppAppSecret:     getEnv("WHATSAPP_APP_SECRET", ""),
		OpenAIAPIKey:          getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:         getEnv("OPENAI_BASE_URL", ""),
		OpenAIModel:           getEnv("OPENAI_MODEL", "gpt-4"),
		OpenAIMaxTokens:       mustInt64(getEnv("OPENAI_MAX_TOKENS", "1000")),
		MinIOEndpoint:         getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:        getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:        getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:           strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinIOMaxFileSize:      mustInt64(getEnv("MINIO_MAX_FILE_SIZE", "10485760")),
		MinioBucketQuotePDFs:  getEnv("MINIO_BUCKET_QUOTE_PDFS", "quote-pdfs"),
		RedisURL:              getEnv("REDIS_URL", ""),
		RedisTLSInsecure:      strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:        getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:      int(mustInt64(getEnv("ASYNQ_CONCURRENCY", "5"))),
		SMTPHost:              getEnv("SMTP_HOST", ""),
		SMTPPort:              int(mustInt64(getEnv("SMTP_PORT", "587"))),
		SMTPUsername:          getEnv("SMTP_USERNAME", ""),
		SMTPPassword:          getEnv("SMTP_PASSWORD", ""),
		EmailFromName:         getEnv("EMAIL_FROM_NAME", "Computel Cotizaciones"),
		EmailFromAddress:      getEnv("EMAIL_FROM_ADDRESS", ""),
		DefaultTaxRateBps:     mustInt64(getEnv("DEFAULT_TAX_RATE_BPS", "1600")),
		QuoteValidityDays:     int(mustInt64(getEnv("QUOTE_VALIDITY_DAYS", "30"))),
		CompanyName:           getEnv("COMPANY_NAME", "Computel"),
		CompanyEmail:          getEnv("COMPANY_EMAIL", "ventas@computel.mx"),
		CompanyPhone:          getEnv("COMPANY_PHONE", ""),
		BusinessTimezone:      getEnv("BUSINESS_TIMEZONE", "America/Mexico_City"),
		ConversationTimeout:   mustDuration(getEnv("CONVERSATION_TIMEOUT", "2h")),
		ConversationLockTTL:   mustDuration(getEnv("CONVERSATION_LOCK_TTL", "30s")),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.DefaultTaxRateBps < 0 || cfg.DefaultTaxRateBps > 10000 {
		return nil, fmt.Errorf("DEFAULT_TAX_RATE_BPS must be between 0 and 10000")
	}
	if cfg.QuoteValidityDays < 1 {
		return nil, fmt.Errorf("QUOTE_VALIDITY_DAYS must be positive")
	}
	loc, err := time.LoadLocation(cfg.BusinessTimezone)
	if err != nil {
		return nil, fmt.Errorf("BUSINESS_TIMEZONE %q: %w", cfg.BusinessTimezone, err)
	}
	cfg.BusinessLocation = loc
	if cfg.ConversationTimeout <= 0 {
		return nil, fmt.Errorf("CONVERSATION_TIMEOUT must be a positive duration")
	}
	if cfg.WhatsAppToken != "" && cfg.WhatsAppPhoneNumberID == "" {
		return nil, fmt.Errorf("WHATSAPP_PHONE_NUMBER_ID is required when WHATSAPP_TOKEN is set")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt64(value string) int64 {
	result, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
