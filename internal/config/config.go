package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App     AppConfig
	Backend BackendConfig
	Upload  UploadConfig
	Quiz    QuizConfig
	Mock    MockConfig
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
	UploadsDir         string
}

type BackendConfig struct {
	BaseURL        string
	MockMode       bool
	RequestTimeout time.Duration
	PollInterval   time.Duration
	MaxWait        time.Duration
}

type UploadConfig struct {
	MaxSizeBytes int64
	AllowedTypes []string
}

type QuizConfig struct {
	QuestionCount int
	Difficulty    string
}

// MockConfig bounds the simulated latency of the in-memory gateway.
type MockConfig struct {
	UploadDelayMin  time.Duration
	UploadDelayMax  time.Duration
	QuizDelayMin    time.Duration
	QuizDelayMax    time.Duration
	ExplainDelayMin time.Duration
	ExplainDelayMax time.Duration
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
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
			UploadsDir:         getEnv("UPLOADS_DIR", "uploads"),
		},
		Backend: BackendConfig{
			BaseURL:        getEnv("BACKEND_BASE_URL", "http://localhost:8080"),
			MockMode:       getEnvAsBool("BACKEND_MOCK_MODE", true),
			RequestTimeout: getEnvAsDuration("BACKEND_REQUEST_TIMEOUT", 30*time.Second),
			PollInterval:   getEnvAsDuration("POLL_INTERVAL", 4*time.Second),
			MaxWait:        getEnvAsDuration("PROCESSING_MAX_WAIT", 5*time.Minute),
		},
		Upload: UploadConfig{
			MaxSizeBytes: int64(getEnvAsInt("MAX_UPLOAD_SIZE_BYTES", 10*1024*1024)),
			AllowedTypes: getEnvAsSlice("ALLOWED_FILE_TYPES", []string{"image/png", "image/jpeg", "image/webp", "image/gif"}),
		},
		Quiz: QuizConfig{
			QuestionCount: getEnvAsInt("QUIZ_QUESTION_COUNT", 5),
			Difficulty:    getEnv("QUIZ_DIFFICULTY", "medium"),
		},
		Mock: MockConfig{
			UploadDelayMin:  getEnvAsDuration("MOCK_UPLOAD_DELAY_MIN", 3*time.Second),
			UploadDelayMax:  getEnvAsDuration("MOCK_UPLOAD_DELAY_MAX", 8*time.Second),
			QuizDelayMin:    getEnvAsDuration("MOCK_QUIZ_DELAY_MIN", 2*time.Second),
			QuizDelayMax:    getEnvAsDuration("MOCK_QUIZ_DELAY_MAX", 5*time.Second),
			ExplainDelayMin: getEnvAsDuration("MOCK_EXPLAIN_DELAY_MIN", 1*time.Second),
			ExplainDelayMax: getEnvAsDuration("MOCK_EXPLAIN_DELAY_MAX", 3*time.Second),
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

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
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

func getEnvAsSlice(key string, fallback []string) []string {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	parts := strings.Split(strValue, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
