package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	AppBaseURL        string `mapstructure:"APP_BASE_URL"`
	DatabaseURL       string `mapstructure:"DATABASE_URL"`
	DatabaseName      string `mapstructure:"DATABASE_NAME"`
	Env               string `mapstructure:"ENV"`
	JWTSecret         string `mapstructure:"JWT_SECRET"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Redis configuration.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB  int    `mapstructure:"REDIS_CACHE_DB"`
	RedisQueueDB  int    `mapstructure:"REDIS_QUEUE_DB"`

	// Signed action links.
	LinkSecret     string `mapstructure:"LINK_SECRET"`
	LinkHashLength int    `mapstructure:"LINK_HASH_LENGTH"`
	LinkExpiryHrs  int    `mapstructure:"LINK_EXPIRY_HOURS"`

	// Workflow engine tuning.
	MaxMatchedProviders int `mapstructure:"MAX_MATCHED_PROVIDERS"`
	MinMatchScore       int `mapstructure:"MIN_MATCH_SCORE"`
	ResponseWindowMins  int `mapstructure:"RESPONSE_WINDOW_MINS"`
	ResponseCheckSecs   int `mapstructure:"RESPONSE_CHECK_SECS"`
	WorkflowMaxRetries  int `mapstructure:"WORKFLOW_MAX_RETRIES"`
	AreaCacheTTLMins    int `mapstructure:"AREA_CACHE_TTL_MINS"`
	WorkerConcurrency   int `mapstructure:"WORKER_CONCURRENCY"`

	// Notification gateways. Message bodies arrive pre-rendered from the
	// templating service; these are delivery endpoints only.
	EmailGatewayURL string `mapstructure:"EMAIL_GATEWAY_URL"`
	EmailFrom       string `mapstructure:"EMAIL_FROM"`
	SMSGatewayURL   string `mapstructure:"SMS_GATEWAY_URL"`
	SMSFrom         string `mapstructure:"SMS_FROM"`
	GatewayAPIKey   string `mapstructure:"GATEWAY_API_KEY"`

	// Gemini analysis.
	GeminiAPIKey string `mapstructure:"GEMINI_API_KEY"`
	GeminiModel  string `mapstructure:"GEMINI_MODEL"`
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
	viper.SetDefault("APP_BASE_URL", "http://localhost:8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CACHE_DB", 0)
	viper.SetDefault("REDIS_QUEUE_DB", 3)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "onelimo")
	viper.SetDefault("LINK_HASH_LENGTH", 8)
	viper.SetDefault("LINK_EXPIRY_HOURS", 24)
	viper.SetDefault("MAX_MATCHED_PROVIDERS", 5)
	viper.SetDefault("MIN_MATCH_SCORE", 40)
	viper.SetDefault("RESPONSE_WINDOW_MINS", 30)
	viper.SetDefault("RESPONSE_CHECK_SECS", 60)
	viper.SetDefault("WORKFLOW_MAX_RETRIES", 3)
	viper.SetDefault("AREA_CACHE_TTL_MINS", 60)
	viper.SetDefault("WORKER_CONCURRENCY", 10)
	viper.SetDefault("GEMINI_MODEL", "models/gemini-1.5-pro")

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
