package config

import (
	"log"

	"github.com/spf13/viper"
)

// FailedPaymentPolicy values for PAYMENT_FAILED_POLICY.
const (
	FailedPaymentCancel = "cancel"
	FailedPaymentRetain = "retain"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	DatabaseURL       string `mapstructure:"DATABASE_URL"`
	Env               string `mapstructure:"ENV"`
	JWTSecret         string `mapstructure:"JWT_SECRET"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Operator credential: bcrypt hash of the dashboard admin password.
	AdminPasswordHash string `mapstructure:"ADMIN_PASSWORD_HASH"`

	// Redis configuration.
	RedisAddr       string `mapstructure:"REDIS_ADDR"`
	RedisPassword   string `mapstructure:"REDIS_PASSWORD"`
	RedisDraftDB    int    `mapstructure:"REDIS_DRAFT_DB"`
	RedisDispatchDB int    `mapstructure:"REDIS_DISPATCH_DB"`
	RedisReminderDB int    `mapstructure:"REDIS_REMINDER_QUEUE_DB"`

	// External collaborators.
	AvailabilityBaseURL string `mapstructure:"AVAILABILITY_BASE_URL"`
	CalendarBaseURL     string `mapstructure:"CALENDAR_BASE_URL"`

	// M-Pesa (Daraja) gateway.
	MpesaBaseURL      string  `mapstructure:"MPESA_BASE_URL"`
	MpesaShortCode    string  `mapstructure:"MPESA_SHORT_CODE"`
	MpesaPasskey      string  `mapstructure:"MPESA_PASSKEY"`
	MpesaConsumerKey  string  `mapstructure:"MPESA_CONSUMER_KEY"`
	MpesaConsumerSec  string  `mapstructure:"MPESA_CONSUMER_SECRET"`
	BookingDepositKES float64 `mapstructure:"BOOKING_DEPOSIT_KES"`

	// Payment confirmation polling.
	PollIntervalMS  int `mapstructure:"PAYMENT_POLL_INTERVAL_MS"`
	PollMaxAttempts int `mapstructure:"PAYMENT_POLL_MAX_ATTEMPTS"`

	// What to do with a booking whose payment reports terminal failure:
	// "cancel" auto-cancels it, "retain" leaves it provisional for manual retry.
	FailedPaymentPolicy string `mapstructure:"PAYMENT_FAILED_POLICY"`

	// FCM device token for operator push alerts (single-operator dashboard).
	OperatorDeviceToken string `mapstructure:"OPERATOR_DEVICE_TOKEN"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DRAFT_DB", 0)
	viper.SetDefault("REDIS_DISPATCH_DB", 1)
	viper.SetDefault("REDIS_REMINDER_QUEUE_DB", 2)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("AVAILABILITY_BASE_URL", "http://localhost:8090")
	viper.SetDefault("CALENDAR_BASE_URL", "http://localhost:8091")
	viper.SetDefault("MPESA_BASE_URL", "https://sandbox.safaricom.co.ke")
	viper.SetDefault("BOOKING_DEPOSIT_KES", 500)
	viper.SetDefault("PAYMENT_POLL_INTERVAL_MS", 3000)
	viper.SetDefault("PAYMENT_POLL_MAX_ATTEMPTS", 20)
	viper.SetDefault("PAYMENT_FAILED_POLICY", FailedPaymentRetain)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
