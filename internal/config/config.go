package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type DB struct {
	DbHOST     string
	DbPORT     string
	DbUSER     string
	DbPASSWORD string
	DbNAME     string
	DbSSLMODE  string
}

type MinIO struct {
	Endpoint   string
	AccessKey  string
	SecretKey  string
	BucketName string
	UseSSL     bool
	Region     string
}

type Redis struct {
	Addr     string
	Password string
	DB       int
}

type RateLimit struct {
	RequestsPerSecond int
	Burst             int
}

type Log struct {
	Level  string
	Format string
}

type Config struct {
	ServerPort           int
	DB                   DB
	MinIO                MinIO
	Redis                Redis
	RateLimit            RateLimit
	Log                  Log
	JWTSecretKey         string
	AccessTokenDuration  time.Duration
	RefreshTokenDuration time.Duration
	LoginMaxAttempts     int
	LoginLockDuration    time.Duration
	// failures older than this no longer count towards the lockout
	LoginFailureWindow time.Duration
	// when true a password change revokes every other session of the user
	RevokeSessionsOnPasswordChange bool
	MaxUploadSize                  int64
	CORSAllowedOrigin              string
	// proxies whose X-Forwarded-For header is believed
	TrustedProxies []string
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string) []string {
	var values []string
	for _, value := range strings.Split(os.Getenv(key), ",") {
		if value = strings.TrimSpace(value); value != "" {
			values = append(values, value)
		}
	}
	return values
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return fallback
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	return parseDuration(os.Getenv(key), fallback)
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	duration, err := time.ParseDuration(value)
	if err != nil || duration <= 0 {
		return fallback
	}
	return duration
}

func parseMaxUploadSize(value string) int64 {
	size, err := strconv.ParseInt(value, 10, 64)
	if err != nil || size <= 0 {
		return 10 * 1024 * 1024
	}
	return size
}

func LoadDB() DB {
	return DB{
		DbHOST:     getEnv("DB_HOST", "localhost"),
		DbPORT:     getEnv("DB_PORT", "5432"),
		DbUSER:     getEnv("DB_USER", "postgres"),
		DbPASSWORD: getEnv("DB_PASSWORD", "password"),
		DbNAME:     getEnv("DB_NAME", "communityboard"),
		DbSSLMODE:  getEnv("DB_SSLMODE", "disable"),
	}
}

func LoadMinIO() MinIO {
	return MinIO{
		Endpoint:   getEnv("MINIO_ENDPOINT", "localhost:9000"),
		AccessKey:  getEnv("MINIO_ACCESS_KEY", "minioadmin"),
		SecretKey:  getEnv("MINIO_SECRET_KEY", "minioadmin"),
		BucketName: getEnv("MINIO_BUCKET_NAME", "images"),
		UseSSL:     getEnvBool("MINIO_USE_SSL", false),
		Region:     getEnv("MINIO_REGION", "us-east-1"),
	}
}

func LoadRedis() Redis {
	return Redis{
		Addr:     getEnv("REDIS_ADDR", ""),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvAsInt("REDIS_DB", 0),
	}
}

// Load reads the configuration from the environment without touching .env.
func Load() *Config {
	return &Config{
		ServerPort: getEnvAsInt("SERVER_PORT", 8080),
		DB:         LoadDB(),
		MinIO:      LoadMinIO(),
		Redis:      LoadRedis(),
		RateLimit: RateLimit{
			RequestsPerSecond: getEnvAsInt("RATE_LIMIT_RPS", 5),
			Burst:             getEnvAsInt("RATE_LIMIT_BURST", 10),
		},
		Log: Log{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		JWTSecretKey:                   getEnv("JWT_SECRET_KEY", ""),
		AccessTokenDuration:            getEnvDuration("ACCESS_TOKEN_DURATION", 15*time.Minute),
		RefreshTokenDuration:           getEnvDuration("REFRESH_TOKEN_DURATION", 168*time.Hour),
		LoginMaxAttempts:               getEnvAsInt("LOGIN_MAX_ATTEMPTS", 5),
		LoginLockDuration:              getEnvDuration("LOGIN_LOCK_DURATION", 30*time.Minute),
		LoginFailureWindow:             getEnvDuration("LOGIN_FAILURE_WINDOW", 15*time.Minute),
		RevokeSessionsOnPasswordChange: getEnvBool("REVOKE_SESSIONS_ON_PASSWORD_CHANGE", false),
		MaxUploadSize:                  parseMaxUploadSize(getEnv("MAX_UPLOAD_SIZE", "10485760")),
		CORSAllowedOrigin:              getEnv("CORS_ALLOWED_ORIGIN", "*"),
		TrustedProxies:                 getEnvAsSlice("TRUSTED_PROXIES"),
	}
}

// LoadConfig loads .env (when present) and then the environment.
func LoadConfig() *Config {
	err := godotenv.Load()
	if err != nil {
		logrus.Warn(".env file not found, using environment variables")
	}

	return Load()
}
