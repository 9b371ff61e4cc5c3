package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every setting the relay needs. It is loaded once at
// startup and handed to components by explicit reference.
type Config struct {
	Port string

	JenkinsURL     string
	JenkinsJobName string
	PipelineName   string

	JWTSecret string
	TokenTTL  time.Duration

	S3AccessKeyID     string
	S3SecretAccessKey string
	S3Endpoint        string
	S3Region          string
	S3Path            string
	BucketName        string
	CdnURL            string
	PresignExpiry     time.Duration

	TelegramAPIKey    string
	TelegramChannelID string
	TelegramParseMode string

	RedisAddr             string
	KafkaBootstrapServers string
}

// Load reads the environment (with optional .env overlay) into a
// Config. Optional integrations (Redis, Kafka) stay empty when unset.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port: getenv("PORT", "8086"),

		JenkinsURL:     getenv("JENKINS_URL", "https://fiekzz-jenkins.fiekzz.com"),
		JenkinsJobName: getenv("JENKINS_JOB_NAME", "Flutter-iOS-Build"),
		PipelineName:   getenv("PIPELINE_NAME", "Flutter-pipeline"),

		JWTSecret: os.Getenv("JWT_SECRET"),
		TokenTTL:  durationSeconds("TOKEN_TTL_SECONDS", time.Hour),

		S3AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
		S3SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
		S3Endpoint:        os.Getenv("S3_ENDPOINT"),
		S3Region:          getenv("S3_REGION", "auto"),
		S3Path:            os.Getenv("S3_PATH"),
		BucketName:        os.Getenv("BUCKET_NAME"),
		CdnURL:            os.Getenv("CDN_URL"),
		PresignExpiry:     durationSeconds("PRESIGN_EXPIRY_SECONDS", time.Hour),

		TelegramAPIKey:    os.Getenv("TELEGRAM_API_KEY"),
		TelegramChannelID: os.Getenv("TELEGRAM_CHANNEL_ID"),
		TelegramParseMode: getenv("TELEGRAM_PARSE_MODE", "MarkdownV2"),

		RedisAddr:             os.Getenv("REDIS_ADDR"),
		KafkaBootstrapServers: os.Getenv("KAFKA_BOOTSTRAP_SERVERS"),
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if cfg.TelegramAPIKey == "" || cfg.TelegramChannelID == "" {
		return nil, errors.New("TELEGRAM_API_KEY and TELEGRAM_CHANNEL_ID are required")
	}
	if cfg.S3AccessKeyID == "" || cfg.S3SecretAccessKey == "" || cfg.S3Endpoint == "" || cfg.S3Path == "" {
		return nil, errors.New("S3 environment variables are not properly set")
	}
	if cfg.BucketName == "" || cfg.CdnURL == "" {
		return nil, errors.New("CDN environment variables are not properly set")
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationSeconds(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return fallback
	}
	return time.Duration(secs) * time.Second
}
