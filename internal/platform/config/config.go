package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIPort string
	JWTKey  []byte
	JWTExp  time.Duration

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string
	DBConnStr  string

	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	ProblemCacheTTL time.Duration

	Judge0URL     string
	Judge0APIKey  string
	Judge0APIHost string

	// Submission / run path polling.
	JudgePollInterval    time.Duration
	JudgeMaxPollAttempts int
	JudgeRateLimitWait   time.Duration
	JudgeMaxRetries      int

	// Reference-solution validation runs a longer, more tolerant cadence.
	ValidationPollInterval    time.Duration
	ValidationMaxPollAttempts int
	ValidationRateLimitWait   time.Duration

	LogLevel string
}

var AppConfig *Config

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	AppConfig = &Config{
		APIPort: getEnv("API_PORT", "8080"),
		JWTKey:  []byte(getEnv("JWT_SECRET", "defaultsecret")),
		JWTExp:  time.Duration(getEnvAsInt("JWT_EXPIRATION_HOURS", 72)) * time.Hour,

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "user"),
		DBPassword: getEnv("DB_PASSWORD", "password"),
		DBName:     getEnv("DB_NAME", "nullbyte_db"),
		DBSslMode:  getEnv("DB_SSLMODE", "disable"),

		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisDB:         getEnvAsInt("REDIS_DB", 0),
		ProblemCacheTTL: time.Duration(getEnvAsInt("PROBLEM_CACHE_TTL_SECONDS", 300)) * time.Second,

		Judge0URL:     getEnv("JUDGE0_URL", "https://judge0-ce.p.rapidapi.com"),
		Judge0APIKey:  getEnv("JUDGE0_API_KEY", ""),
		Judge0APIHost: getEnv("JUDGE0_API_HOST", "judge0-ce.p.rapidapi.com"),

		JudgePollInterval:    time.Duration(getEnvAsInt("JUDGE_POLL_INTERVAL_MS", 1000)) * time.Millisecond,
		JudgeMaxPollAttempts: getEnvAsInt("JUDGE_MAX_POLL_ATTEMPTS", 60),
		JudgeRateLimitWait:   time.Duration(getEnvAsInt("JUDGE_RATE_LIMIT_WAIT_MS", 10000)) * time.Millisecond,
		JudgeMaxRetries:      getEnvAsInt("JUDGE_MAX_RETRIES", 5),

		ValidationPollInterval:    time.Duration(getEnvAsInt("VALIDATION_POLL_INTERVAL_MS", 2000)) * time.Millisecond,
		ValidationMaxPollAttempts: getEnvAsInt("VALIDATION_MAX_POLL_ATTEMPTS", 90),
		ValidationRateLimitWait:   time.Duration(getEnvAsInt("VALIDATION_RATE_LIMIT_WAIT_MS", 10000)) * time.Millisecond,

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	AppConfig.DBConnStr = "host=" + AppConfig.DBHost +
		" port=" + AppConfig.DBPort +
		" user=" + AppConfig.DBUser +
		" password=" + AppConfig.DBPassword +
		" dbname=" + AppConfig.DBName +
		" sslmode=" + AppConfig.DBSslMode
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}
