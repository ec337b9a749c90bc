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
	Auth     AuthConfig
	Ai       AIConfig
	Search   SearchConfig
	Vision   VisionConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	ClientURL          string
	Environment        string
	LogFilePath        string
	AuditLogFilePath   string
	CorsAllowedOrigins string
	RedisURL           string
	UploadDir          string
	TurnTopicName      string
	DailyQueryLimit    int
}

type DatabaseConfig struct {
	Connection string
}

type AuthConfig struct {
	JWTSecret      string
	TokenTTLHours  int
	BCryptCost     int
	SessionWelcome string
}

type AIConfig struct {
	Provider string // "azure" or "ollama"

	AzureOpenAIEndpoint   string
	AzureOpenAIKey        string
	AzureOpenAIAPIVersion string
	ChatDeployment        string
	EmbeddingDeployment   string

	OllamaBaseURL        string
	OllamaModel          string
	OllamaEmbeddingModel string
}

type SearchConfig struct {
	Endpoint       string
	APIKey         string
	LegalIndex     string
	FinancialIndex string
	VectorField    string
	MinScore       float64
}

type VisionConfig struct {
	Endpoint string
	APIKey   string
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
			AuditLogFilePath:   getEnv("AUDIT_LOG_FILE_PATH", "audit.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			UploadDir:          getEnv("UPLOAD_DIR", "uploads"),
			TurnTopicName:      getEnv("TURN_TOPIC_NAME", "ADVISOR_TURN_RECORDED"),
			DailyQueryLimit:    getEnvAsInt("DAILY_QUERY_LIMIT", 200),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Auth: AuthConfig{
			JWTSecret:      getEnv("JWT_SECRET", ""),
			TokenTTLHours:  getEnvAsInt("JWT_TTL_HOURS", 24),
			BCryptCost:     getEnvAsInt("BCRYPT_COST", 10),
			SessionWelcome: getEnv("SESSION_WELCOME", "Bienvenido. Por favor indica junto a tu mensaje si tu consulta será 'financiera' o 'legal'."),
		},
		Ai: AIConfig{
			Provider:              getEnv("LLM_PROVIDER", "azure"),
			AzureOpenAIEndpoint:   getEnv("AZURE_OPENAI_ENDPOINT", ""),
			AzureOpenAIKey:        getEnv("AZURE_OPENAI_KEY", ""),
			AzureOpenAIAPIVersion: getEnv("AZURE_OPENAI_API_VERSION", "2024-02-01"),
			ChatDeployment:        getEnv("AZURE_OPENAI_CHAT_DEPLOYMENT", "gpt-4o"),
			EmbeddingDeployment:   getEnv("AZURE_OPENAI_EMBEDDING_DEPLOYMENT", "text-embedding-3-large"),
			OllamaBaseURL:         getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:           getEnv("OLLAMA_MODEL", "llama3"),
			OllamaEmbeddingModel:  getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
		},
		Search: SearchConfig{
			Endpoint:       getEnv("AZURE_SEARCH_ENDPOINT", ""),
			APIKey:         getEnv("AZURE_SEARCH_KEY", ""),
			LegalIndex:     getEnv("AZURE_SEARCH_INDEX_LEGAL", ""),
			FinancialIndex: getEnv("AZURE_SEARCH_INDEX_FINANCIAL", ""),
			VectorField:    getEnv("AZURE_SEARCH_VECTOR_FIELD", "content_vector"),
			MinScore:       getEnvAsFloat("AZURE_SEARCH_MIN_SCORE", 0.5),
		},
		Vision: VisionConfig{
			Endpoint: getEnv("AZURE_VISION_ENDPOINT", ""),
			APIKey:   getEnv("AZURE_VISION_KEY", ""),
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

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}
