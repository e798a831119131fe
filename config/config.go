package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Observ   ObservabilityConfig
	Scoring  ScoringConfig
	Cache    CacheConfig
	CORS     CORSConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

// URL builds a Postgres connection string from the discrete DB_* variables.
func (d DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers       []string
	TopicLoyalty  string
	ConsumerGroup string
}

type ObservabilityConfig struct {
	JaegerEndpoint string
	PrometheusPort string
}

type ScoringConfig struct {
	BaseURL        string
	TimeoutSeconds int
	SyncTTLHours   int
}

type CacheConfig struct {
	LeaderboardTTLSeconds int
}

type CORSConfig struct {
	AllowedDomains []string
}

func Load() *Config {
	_ = godotenv.Load()

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	scoringTimeout, _ := strconv.Atoi(getEnv("AIML_TIMEOUT_SECONDS", "5"))
	syncTTL, _ := strconv.Atoi(getEnv("SCORE_SYNC_TTL_HOURS", "24"))
	leaderboardTTL, _ := strconv.Atoi(getEnv("LEADERBOARD_CACHE_TTL_SECONDS", "60"))

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Env:  getEnv("ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "app"),
			Password: getEnv("DB_PASSWORD", "secret"),
			Name:     getEnv("DB_NAME", "loyalty"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Kafka: KafkaConfig{
			Brokers:       strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
			TopicLoyalty:  getEnv("KAFKA_TOPIC_LOYALTY_EVENTS", "loyalty-events"),
			ConsumerGroup: getEnv("KAFKA_CONSUMER_GROUP", "loyalty-service-group"),
		},
		Observ: ObservabilityConfig{
			JaegerEndpoint: getEnv("JAEGER_ENDPOINT", "http://localhost:14268/api/traces"),
			PrometheusPort: getEnv("PROMETHEUS_PORT", "9090"),
		},
		Scoring: ScoringConfig{
			BaseURL:        getEnv("AIML_API_URL", "http://localhost:8000"),
			TimeoutSeconds: scoringTimeout,
			SyncTTLHours:   syncTTL,
		},
		Cache: CacheConfig{
			LeaderboardTTLSeconds: leaderboardTTL,
		},
		CORS: CORSConfig{
			AllowedDomains: splitNonEmpty(getEnv("CORS_ALLOWED_DOMAINS", "")),
		},
	}

	log.Printf("Config loaded: env=%s, port=%s", cfg.Server.Env, cfg.Server.Port)
	return cfg
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
