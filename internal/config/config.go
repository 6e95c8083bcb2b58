package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	SMTP     SMTPConfig
	Keys     APIKeys
	Ai       AIConfig
	Watcher  WatcherConfig
	Cache    CacheConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	ClientURL          string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	UploadDir          string
}

type DatabaseConfig struct {
	Connection string
}

type SMTPConfig struct {
	Host       string
	Port       int
	Email      string
	Password   string
	SenderName string
}

type APIKeys struct {
	GoogleGemini string
	JwtSecret    string
}

type AIConfig struct {
	IndexingProvider  string // "google" or "pgvector"
	EmbeddingProvider string // "gemini" or "ollama"
	LLMProvider       string // "gemini" or "ollama"
	OllamaBaseURL     string
	OllamaModel       string
	TextModel         string
	VisionModel       string
	LawMainStoreName  string // display name of the shared law store
}

type WatcherConfig struct {
	PollInterval time.Duration
	RetryDelay   time.Duration // pause before the polling fallback on unknown feed errors
	FeedDurable  string
}

type CacheConfig struct {
	GlobalTTL  time.Duration // shared/global scope lookups
	SessionTTL time.Duration // per-session scope lookups
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			ClientURL:          getEnv("CLIENT_URL", "http://localhost:5173"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log.csv"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			UploadDir:          getEnv("UPLOAD_DIR", "./uploads"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", ""),
			Port:       getEnvAsInt("SMTP_PORT", 587),
			Email:      getEnv("SMTP_EMAIL", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			SenderName: getEnv("SMTP_SENDER_NAME", "DocuChat"),
		},
		Keys: APIKeys{
			GoogleGemini: getEnv("GOOGLE_GEMINI_API_KEY", ""),
			JwtSecret:    getEnv("JWT_SECRET", ""),
		},
		Ai: AIConfig{
			IndexingProvider:  getEnv("INDEXING_PROVIDER", "google"),
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "gemini"),
			LLMProvider:       getEnv("LLM_PROVIDER", "gemini"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:       getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			TextModel:         getEnv("TEXT_MODEL", "gemini-1.5-flash"),
			VisionModel:       getEnv("VISION_MODEL", "gemini-1.5-flash"),
			LawMainStoreName:  getEnv("LAW_MAIN_STORE_NAME", ""),
		},
		Watcher: WatcherConfig{
			PollInterval: getEnvAsDuration("WATCHER_POLL_INTERVAL", 5*time.Second),
			RetryDelay:   getEnvAsDuration("WATCHER_RETRY_DELAY", 5*time.Second),
			FeedDurable:  getEnv("WATCHER_FEED_DURABLE", "ingestion-watcher"),
		},
		Cache: CacheConfig{
			GlobalTTL:  getEnvAsDuration("TOOL_CACHE_GLOBAL_TTL", time.Hour),
			SessionTTL: getEnvAsDuration("TOOL_CACHE_SESSION_TTL", 30*time.Minute),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
