package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"

	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

type LLMConfig struct {
	Provider string
	Model    string
}

type EmbeddingsConfig struct {
	Provider  string
	Model     string
	Dimension int
}

type Config struct {
	HTTPAddr      string
	DocsDir       string
	LeadsFile     string
	Persona       string
	PersonasFile  string
	RetrievalK    int
	ReplyMaxChars int

	LLM        LLMConfig
	Embeddings EmbeddingsConfig

	OllamaHost    string
	OpenAIAPIKey  string
	OpenAIBaseURL string

	VectorBackend string
	PostgresDSN   string

	SessionBackend string
	RedisAddr      string
}

// Load reads configuration from the environment, honoring a .env file in
// the working directory when present.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		HTTPAddr:      getEnv("HTTP_ADDR", ":8080"),
		DocsDir:       getEnv("DOCS_DIR", "documentos"),
		LeadsFile:     getEnv("LEADS_FILE", "leads.csv"),
		Persona:       getEnv("PERSONA", "comercial"),
		PersonasFile:  getEnv("PERSONAS_FILE", ""),
		RetrievalK:    getEnvInt("RETRIEVAL_K", 4),
		ReplyMaxChars: getEnvInt("REPLY_MAX_CHARS", 1500),
		LLM: LLMConfig{
			Provider: getEnv("LLM_PROVIDER", ProviderOpenAI),
			Model:    getEnv("LLM_MODEL", "gpt-4o-mini"),
		},
		Embeddings: EmbeddingsConfig{
			Provider:  getEnv("EMBEDDINGS_PROVIDER", ProviderOpenAI),
			Model:     getEnv("EMBEDDINGS_MODEL", "text-embedding-3-small"),
			Dimension: getEnvInt("EMBEDDINGS_DIMENSION", 1536),
		},
		OllamaHost:     getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:  getEnv("OPENAI_BASE_URL", ""),
		VectorBackend:  getEnv("VECTOR_BACKEND", BackendMemory),
		PostgresDSN:    getEnv("POSTGRES_DSN", "postgres://localhost:5432/converso?sslmode=disable"),
		SessionBackend: getEnv("SESSION_BACKEND", BackendMemory),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}
