package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/dmitrijs2005/carmarket/internal/flagx"
	"github.com/joho/godotenv"
)

const defaultEnvFile = ".env"

// parseEnv loads a dotenv file (the one given by -env-file, or ./.env if
// present) and then overlays process environment variables onto config.
// Variables already set in the process environment win over the file.
func parseEnv(config *Config) {
	envFile := flagx.EnvFileFlags()
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			panic(err)
		}
	} else if err := godotenv.Load(defaultEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(err)
	}

	config.Env = getEnv("ENV", config.Env)
	if port, ok := os.LookupEnv("PORT"); ok && port != "" {
		config.EndpointAddrHTTP = ":" + port
	}
	config.EndpointAddrHTTP = getEnv("HTTP_ADDRESS", config.EndpointAddrHTTP)
	config.EndpointAddrGRPC = getEnv("GRPC_ADDRESS", config.EndpointAddrGRPC)
	config.DatabaseDSN = getEnv("MONGO_URI", config.DatabaseDSN)
	config.DatabaseDSN = getEnv("DATABASE_URL", config.DatabaseDSN)
	config.DatabaseName = getEnv("DATABASE_NAME", config.DatabaseName)
	config.SecretKey = getEnv("JWT_SECRET_KEY", config.SecretKey)
	config.TokenValidityDuration = getEnvDuration("JWT_EXPIRATION", config.TokenValidityDuration)
	config.BcryptCost = getEnvInt("BCRYPT_COST", config.BcryptCost)

	config.SMTPHost = getEnv("SMTP_HOST", config.SMTPHost)
	config.SMTPPort = getEnvInt("SMTP_PORT", config.SMTPPort)
	config.SMTPUser = getEnv("SMTP_USER", config.SMTPUser)
	config.SMTPPassword = getEnv("SMTP_PASS", config.SMTPPassword)
	config.MailFrom = getEnv("MAIL_FROM", config.MailFrom)
	config.MailTo = getEnv("MAIL_TO", config.MailTo)

	config.RedisURL = getEnv("REDIS_URL", config.RedisURL)
	config.CacheTTL = getEnvDuration("CACHE_TTL", config.CacheTTL)

	config.ImageStorage = getEnv("IMAGE_STORAGE", config.ImageStorage)
	config.UploadDir = getEnv("UPLOAD_DIR", config.UploadDir)
	config.TempDir = getEnv("UPLOAD_TMP_DIR", config.TempDir)
	config.ImageMaxWidth = getEnvInt("IMAGE_MAX_WIDTH", config.ImageMaxWidth)
	config.ImageMaxPixels = getEnvInt("IMAGE_MAX_PIXELS", config.ImageMaxPixels)
	config.ImageQuality = getEnvInt("IMAGE_QUALITY", config.ImageQuality)

	config.S3RootUser = getEnv("S3_ROOT_USER", config.S3RootUser)
	config.S3RootPassword = getEnv("S3_ROOT_PASSWORD", config.S3RootPassword)
	config.S3Bucket = getEnv("S3_BUCKET", config.S3Bucket)
	config.S3Region = getEnv("S3_REGION", config.S3Region)
	config.S3BaseEndpoint = getEnv("S3_BASE_ENDPOINT", config.S3BaseEndpoint)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
