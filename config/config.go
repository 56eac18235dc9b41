package config

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppName           string `mapstructure:"APP_NAME"`
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`
	JWTSecret         string `mapstructure:"JWT_SECRET"`

	// MockAdminPassword seeds the mock auth admin. Unset in production means
	// no admin is seeded.
	MockAdminPassword string `mapstructure:"MOCK_ADMIN_PASSWORD"`

	// UseMocks pins every integration category to its mock provider.
	UseMocks bool `mapstructure:"USE_MOCKS"`

	// Provider selection persistence: "memory", "redis" or "sqlite".
	SelectionStore string `mapstructure:"SELECTION_STORE"`
	SQLitePath     string `mapstructure:"SQLITE_PATH"`

	// Interest and question persistence: "memory" or "redis".
	InterestStore string `mapstructure:"INTEREST_STORE"`

	// Redis configuration.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB  int    `mapstructure:"REDIS_CACHE_DB"`
	RedisOTPDB    int    `mapstructure:"REDIS_OTP_DB"`

	// MongoDB, used by the "mongo" data provider and the payment ledger.
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	DatabaseName string `mapstructure:"DATABASE_NAME"`

	// Firebase web app configuration plus optional admin credentials.
	FirebaseAPIKey            string `mapstructure:"FB_API_KEY"`
	FirebaseAuthDomain        string `mapstructure:"FB_AUTH_DOMAIN"`
	FirebaseProjectID         string `mapstructure:"FB_PROJECT_ID"`
	FirebaseStorageBucket     string `mapstructure:"FB_STORAGE_BUCKET"`
	FirebaseMessagingSenderID string `mapstructure:"FB_MESSAGING_SENDER_ID"`
	FirebaseAppID             string `mapstructure:"FB_APP_ID"`
	FirebaseCredentialsFile   string `mapstructure:"FB_CREDENTIALS_FILE"`

	RazorpayKeyID     string `mapstructure:"RAZORPAY_KEY_ID"`
	RazorpayKeySecret string `mapstructure:"RAZORPAY_KEY_SECRET"`

	StripeKey string `mapstructure:"STRIPE_KEY"`

	CloudinaryCloudName string `mapstructure:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryAPIKey    string `mapstructure:"CLOUDINARY_API_KEY"`
	CloudinaryAPISecret string `mapstructure:"CLOUDINARY_API_SECRET"`

	LocalStorageDir string `mapstructure:"LOCAL_STORAGE_DIR"`
	PublicBaseURL   string `mapstructure:"PUBLIC_BASE_URL"`

	// Geo lookup endpoint, "%s" is replaced by the client IP.
	GeoIPEndpoint string `mapstructure:"GEO_IP_ENDPOINT"`
	MapsProvider  string `mapstructure:"MAPS_PROVIDER"`

	ExpirySweepSchedule string `mapstructure:"EXPIRY_SWEEP_SCHEDULE"`
}

var AppConfig Config

// defaults lists every key read from the environment. Viper only unmarshals
// env values for keys it already knows about, so each one gets a default.
var defaults = map[string]any{
	"APP_NAME":               "Mera Local Market",
	"APP_PORT":               "8080",
	"ENV":                    "development",
	"LOG_LEVEL":              "info",
	"MAX_REQUESTS_PER_MIN":   200,
	"JWT_SECRET":             "",
	"MOCK_ADMIN_PASSWORD":    "",
	"USE_MOCKS":              false,
	"SELECTION_STORE":        "memory",
	"SQLITE_PATH":            "meramarket.db",
	"INTEREST_STORE":         "memory",
	"REDIS_ADDR":             "localhost:6379",
	"REDIS_PASSWORD":         "",
	"REDIS_CACHE_DB":         0,
	"REDIS_OTP_DB":           2,
	"DATABASE_URL":           "",
	"DATABASE_NAME":          "meramarket",
	"FB_API_KEY":             "",
	"FB_AUTH_DOMAIN":         "",
	"FB_PROJECT_ID":          "",
	"FB_STORAGE_BUCKET":      "",
	"FB_MESSAGING_SENDER_ID": "",
	"FB_APP_ID":              "",
	"FB_CREDENTIALS_FILE":    "",
	"RAZORPAY_KEY_ID":        "",
	"RAZORPAY_KEY_SECRET":    "",
	"STRIPE_KEY":             "",
	"CLOUDINARY_CLOUD_NAME":  "",
	"CLOUDINARY_API_KEY":     "",
	"CLOUDINARY_API_SECRET":  "",
	"LOCAL_STORAGE_DIR":      "uploads",
	"PUBLIC_BASE_URL":        "http://localhost:8080",
	"GEO_IP_ENDPOINT":        "https://ipapi.co/%s/json/",
	"MAPS_PROVIDER":          "mock",
	"EXPIRY_SWEEP_SCHEDULE":  "@every 1h",
}

// LoadConfig reads .env, an optional config.yaml and the environment into
// AppConfig and returns a copy.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables only")
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	cfg, err := Load(v)
	if err != nil {
		return nil, err
	}
	AppConfig = *cfg
	return cfg, nil
}

// Load builds a Config from the given viper instance.
func Load(v *viper.Viper) (*Config, error) {
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return AppConfig.IsProduction()
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
