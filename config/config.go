package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	HTTPAddr       string
	MaxUploadBytes int
	SessionTTL     time.Duration

	GeminiAPIKey      string
	GeminiModel       string
	GeminiTemperature float64
	GeminiTopK        float64
	GeminiTopP        float64
	ReportSampleSize  int
	LLMTimeout        time.Duration

	MaxConcurrency int
	RateLimitMs    int
	MaxRetries     int

	CSVOutputPath string
	ChromeBin     string
	LogLevel      string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}
	return FromEnv()
}

// FromEnv builds a Config from the current process environment only.
func FromEnv() *Config {
	return &Config{
		HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
		MaxUploadBytes: getEnvInt("MAX_UPLOAD_BYTES", 10<<20),
		SessionTTL:     getEnvDuration("SESSION_TTL", 2*time.Hour),

		GeminiAPIKey:      firstEnv("GEMINI_API_KEY", "GOOGLE_API_KEY", "API_KEY"),
		GeminiModel:       getEnv("GEMINI_MODEL", "gemini-3-flash-preview"),
		GeminiTemperature: getEnvFloat("GEMINI_TEMPERATURE", 0.3),
		GeminiTopK:        getEnvFloat("GEMINI_TOP_K", 40),
		GeminiTopP:        getEnvFloat("GEMINI_TOP_P", 0.95),
		ReportSampleSize:  getEnvInt("REPORT_SAMPLE_SIZE", 200),
		LLMTimeout:        getEnvDuration("LLM_TIMEOUT", 2*time.Minute),

		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 3),
		RateLimitMs:    getEnvInt("RATE_LIMIT_MS", 500),
		MaxRetries:     getEnvInt("MAX_RETRIES", 3),

		CSVOutputPath: getEnv("CSV_OUTPUT_PATH", "./output/clean_posts.csv"),
		ChromeBin:     getEnv("CHROME_BIN", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if val := os.Getenv(k); val != "" {
			return val
		}
	}
	return ""
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err == nil {
			return d
		}
	}
	return fallback
}
