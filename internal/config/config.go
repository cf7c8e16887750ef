package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort string
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string

	JWTSecret          string
	JWTExpirationHours time.Duration

	// Tài khoản admin được seed lúc khởi động
	AdminEmail    string
	AdminPassword string

	// SMTP cho mail xác nhận đặt chỗ; bỏ trống SMTPUser để tắt gửi mail
	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPPass string

	// Redis cache cho danh sách địa điểm; bỏ trống RedisAddr để tắt cache
	RedisAddr     string
	RedisPassword string
	CacheTTL      time.Duration

	// Rate limit cho các endpoint /auth
	RateLimitRPS   float64
	RateLimitBurst int

	LogLevel string
}

func Load() *Config {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		log.Printf("Cảnh báo: Không thể tải file .env: %v", err)
	}

	dbPort, _ := strconv.Atoi(getEnv("DB_PORT", "5432"))
	jwtExpHours, _ := strconv.Atoi(getEnv("JWT_EXPIRATION_HOURS", "168")) // Mặc định 7 ngày
	cacheTTL, _ := strconv.Atoi(getEnv("CACHE_TTL_SECONDS", "60"))
	rateRPS, _ := strconv.ParseFloat(getEnv("RATE_LIMIT_RPS", "5"), 64)
	rateBurst, _ := strconv.Atoi(getEnv("RATE_LIMIT_BURST", "10"))

	return &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     dbPort,
		DBUser:     getEnv("DB_USER", "youruser"),
		DBPassword: getEnv("DB_PASSWORD", "yourpassword"),
		DBName:     getEnv("DB_NAME", "parking_reservation_db"),
		DBSslMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret:          getEnv("JWT_SECRET", "your-very-secret-key-for-jwt-!@#$"),
		JWTExpirationHours: time.Duration(jwtExpHours) * time.Hour,

		AdminEmail:    getEnv("ADMIN_EMAIL", "admin@parking.com"),
		AdminPassword: getEnv("ADMIN_PASSWORD", "admin123"),

		SMTPHost: getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort: getEnv("SMTP_PORT", "587"),
		SMTPUser: getEnv("SMTP_USER", ""),
		SMTPPass: getEnv("SMTP_PASS", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		CacheTTL:      time.Duration(cacheTTL) * time.Second,

		RateLimitRPS:   rateRPS,
		RateLimitBurst: rateBurst,

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key string, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
