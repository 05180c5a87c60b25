package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`
	AppTimezone       string `mapstructure:"APP_TIMEZONE"`
	MinAdvanceDays    int    `mapstructure:"MIN_ADVANCE_DAYS"`

	// MongoDB configuration.
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	DatabaseName string `mapstructure:"DATABASE_NAME"`

	// Redis configuration.
	RedisAddr                   string `mapstructure:"REDIS_ADDR"`
	RedisPassword               string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB                int    `mapstructure:"REDIS_CACHE_DB"`
	RedisTaskQueueDB            int    `mapstructure:"REDIS_TASK_QUEUE_DB"`
	ConversationCacheTTLMinutes int    `mapstructure:"CONVERSATION_CACHE_TTL_MINUTES"`

	// Gemini / Google Cloud.
	GeminiAPIKey    string `mapstructure:"GEMINI_API_KEY"`
	GeminiModel     string `mapstructure:"GEMINI_MODEL"`
	GoogleCredsFile string `mapstructure:"GOOGLE_APPLICATION_CREDENTIALS"`
	SynthesisVoice  string `mapstructure:"SYNTHESIS_VOICE"`

	// Twilio configuration.
	TwilioAccountSID   string `mapstructure:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken    string `mapstructure:"TWILIO_AUTH_TOKEN"`
	TwilioWhatsAppFrom string `mapstructure:"TWILIO_WHATSAPP_FROM"`
	TwilioValidateSig  bool   `mapstructure:"TWILIO_VALIDATE_SIGNATURE"`
	PublicBaseURL      string `mapstructure:"PUBLIC_BASE_URL"`

	// Cloudinary configuration.
	CloudinaryCloudName string `mapstructure:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryAPIKey    string `mapstructure:"CLOUDINARY_API_KEY"`
	CloudinaryAPISecret string `mapstructure:"CLOUDINARY_API_SECRET"`

	// Travelport configuration.
	TravelportClientID     string `mapstructure:"TRAVELPORT_CLIENT_ID"`
	TravelportClientSecret string `mapstructure:"TRAVELPORT_CLIENT_SECRET"`
	TravelportUsername     string `mapstructure:"TRAVELPORT_USERNAME"`
	TravelportPassword     string `mapstructure:"TRAVELPORT_PASSWORD"`
	TravelportAccessGroup  string `mapstructure:"TRAVELPORT_ACCESS_GROUP"`
	TravelportOAuthURL     string `mapstructure:"TRAVELPORT_OAUTH_URL"`
	TravelportCatalogURL   string `mapstructure:"TRAVELPORT_CATALOG_URL"`

	// Admin surface.
	AdminAPIKey string `mapstructure:"ADMIN_API_KEY"`
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
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 60)
	viper.SetDefault("APP_TIMEZONE", "Europe/London")
	viper.SetDefault("MIN_ADVANCE_DAYS", 1)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "tazaticket")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CACHE_DB", 0)
	viper.SetDefault("REDIS_TASK_QUEUE_DB", 1)
	viper.SetDefault("CONVERSATION_CACHE_TTL_MINUTES", 30)
	viper.SetDefault("GEMINI_MODEL", "models/gemini-1.5-pro")
	viper.SetDefault("SYNTHESIS_VOICE", "en-US-Neural2-F")
	viper.SetDefault("TWILIO_VALIDATE_SIGNATURE", true)
	viper.SetDefault("TRAVELPORT_OAUTH_URL", "https://oauth.pp.travelport.com/oauth/oauth20/token")
	viper.SetDefault("TRAVELPORT_CATALOG_URL", "https://api.pp.travelport.com/11/air/catalog/search/catalogproductofferings")

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
