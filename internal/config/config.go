package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	DatabaseURL           string
	Neo4jURI              string
	Neo4jUser             string
	Neo4jPassword         string
	Translator            string
	GeminiAPIKey          string
	GeminiBaseURL         string
	TranslationModel      string
	SourceLang            string
	TargetLang            string
	ImportMethod          string
	WorkerCount           int
	MaxConcurrentAPICalls int
	TranslateDelay        time.Duration
	LogLevel              string
}

// Load reads .env (when present) and the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using environment variables")
	}
	return fromEnv()
}

func fromEnv() *Config {
	return &Config{
		DatabaseURL:           getEnv("DATABASE_URL", ""),
		Neo4jURI:              getEnv("NEO4J_URI", ""),
		Neo4jUser:             getEnv("NEO4J_USER", "neo4j"),
		Neo4jPassword:         getEnv("NEO4J_PASSWORD", "password"),
		Translator:            getEnv("TRANSLATOR", "google"),
		GeminiAPIKey:          getEnv("GEMINI_API_KEY", ""),
		GeminiBaseURL:         getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta/models"),
		TranslationModel:      getEnv("TRANSLATION_MODEL", "gemini-2.5-flash"),
		SourceLang:            getEnv("SOURCE_LANG", "en"),
		TargetLang:            getEnv("TARGET_LANG", "ru"),
		ImportMethod:          getEnv("IMPORT_METHOD", "basic"),
		WorkerCount:           getEnvInt("WORKER_COUNT", 8),
		MaxConcurrentAPICalls: getEnvInt("MAX_CONCURRENT_API_CALLS", 5),
		TranslateDelay:        time.Duration(getEnvInt("TRANSLATE_DELAY_MS", 200)) * time.Millisecond,
		LogLevel:              getEnv("LOG_LEVEL", "info"),
	}
}

// MemoryEnabled reports whether translation memory is persisted to PostgreSQL.
func (c *Config) MemoryEnabled() bool {
	return c.DatabaseURL != ""
}

// GlossaryEnabled reports whether a Neo4j glossary is configured.
func (c *Config) GlossaryEnabled() bool {
	return c.Neo4jURI != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Msg("Invalid integer, using default")
		return fallback
	}
	return n
}
