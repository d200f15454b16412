package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Keys     APIKeys
	Ai       AIConfig
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
	DataDir            string
	UploadsDir         string
}

type DatabaseConfig struct {
	Connection string
}

type APIKeys struct {
	GoogleGemini string
	JwtSecret    string
	IngestTopic  string // Document-ingested topic
}

type AIConfig struct {
	EmbeddingProvider   string // "gemini" or "ollama"
	EmbeddingDimensions int
	OllamaBaseURL       string
	OllamaModel         string
	LLMProvider         string // "ollama" or "openai" (OpenAI-compatible, e.g. DeepSeek)
	LLMModel            string // e.g. "llama3", "deepseek-chat"
	LLMBaseURL          string // OpenAI-compatible base URL
	LLMApiKey           string
	SearchTopK          int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "8006"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:8006"),
			ClientURL:          getEnv("CLIENT_URL", "http://localhost:5173"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			DataDir:            getEnv("DATA_DIR", "./data"),
			UploadsDir:         getEnv("UPLOADS_DIR", "./data/uploads"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Keys: APIKeys{
			GoogleGemini: getEnv("GOOGLE_GEMINI_API_KEY", ""),
			JwtSecret:    getEnv("JWT_SECRET", ""),
			IngestTopic:  getEnv("DOCUMENT_INGESTED_TOPIC_NAME", "DOCUMENT_INGESTED"),
		},
		Ai: AIConfig{
			EmbeddingProvider:   getEnv("EMBEDDING_PROVIDER", "ollama"),
			EmbeddingDimensions: getEnvAsInt("EMBEDDING_DIMENSIONS", 768),
			OllamaBaseURL:       getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:         getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			LLMProvider:         getEnv("LLM_PROVIDER", "openai"),
			LLMModel:            getEnv("LLM_MODEL", "deepseek-chat"),
			LLMBaseURL:          getEnv("LLM_BASE_URL", "https://api.deepseek.com"),
			LLMApiKey:           getEnv("LLM_API_KEY", ""),
			SearchTopK:          getEnvAsInt("SEARCH_TOP_K", 5),
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
