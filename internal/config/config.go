package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string
	LogLevel    string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int

	RedisAddr     string
	RedisPassword string

	WhatsApp WhatsAppConfig
	Payment  PaymentConfig
	Dialogue DialogueConfig

	DefaultCurrency string
	StorageDir      string
	PublicBaseURL   string
	AdminToken      string
}

// WhatsAppConfig configures the outbound messaging channel and the inbound
// webhook handshake.
type WhatsAppConfig struct {
	AccessToken   string
	PhoneNumberID string
	VerifyToken   string
	APIBaseURL    string
}

// PaymentConfig configures the Mercado Pago checkout and webhook verification.
type PaymentConfig struct {
	AccessToken   string
	WebhookSecret string
}

// DialogueConfig configures the Gemini dialogue model.
type DialogueConfig struct {
	APIKey string
	Model  string
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:     getenv("APP_SERVICE", "polisbot"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),
		LogLevel:    getenv("LOG_LEVEL", "info"),

		DBType:            getenv("DATABASE_TYPE", "sqlite"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "polisbot"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 20),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),

		RedisAddr:     getenv("REDIS_ADDR", ""),
		RedisPassword: getenv("REDIS_PASSWORD", ""),

		WhatsApp: WhatsAppConfig{
			AccessToken:   strings.TrimSpace(getenv("WHATSAPP_ACCESS_TOKEN", "")),
			PhoneNumberID: strings.TrimSpace(getenv("WHATSAPP_PHONE_NUMBER_ID", "")),
			VerifyToken:   strings.TrimSpace(getenv("WHATSAPP_VERIFY_TOKEN", "")),
			APIBaseURL:    getenv("WHATSAPP_API_BASE_URL", "https://graph.facebook.com/v19.0"),
		},
		Payment: PaymentConfig{
			AccessToken:   strings.TrimSpace(getenv("MERCADOPAGO_ACCESS_TOKEN", "")),
			WebhookSecret: strings.TrimSpace(getenv("MERCADOPAGO_WEBHOOK_SECRET", "")),
		},
		Dialogue: DialogueConfig{
			APIKey: strings.TrimSpace(getenv("GEMINI_API_KEY", "")),
			Model:  getenv("GEMINI_MODEL", "gemini-2.5-flash"),
		},

		DefaultCurrency: getenv("DEFAULT_CURRENCY", "IDR"),
		StorageDir:      getenv("STORAGE_DIR", "./data/documents"),
		PublicBaseURL:   getenv("PUBLIC_BASE_URL", "http://localhost:8080"),
		AdminToken:      strings.TrimSpace(getenv("ADMIN_TOKEN", "")),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}
