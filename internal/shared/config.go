package shared

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const (
	SourceFixture = "fixture"
	SourceMySQL   = "mysql"

	StoreMemory = "memory"
	StoreRedis  = "redis"
)

type Config struct {
	AppEnv       string
	HTTPAddr     string
	MetricsAddr  string
	ReviewSource string
	FixturePath  string
	MySQLDSN     string
	Store        string
	RedisAddr    string
	RedisDB      int
	RedisPass    string
	WriteRPS     int
	SeedWorkers  int
	SeedBatch    int
	APIBaseURL   string
}

// Load reads an optional .env file, then the environment.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg(".env present but unreadable")
	}
	return fromEnv()
}

func fromEnv() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
			log.Warn().Str("key", k).Str("value", v).Msg("not an integer; using default")
		}
		return def
	}
	c := Config{
		AppEnv:       env("APP_ENV", "prod"),
		HTTPAddr:     env("HTTP_ADDR", ":8080"),
		MetricsAddr:  os.Getenv("METRICS_ADDR"),
		ReviewSource: env("REVIEW_SOURCE", SourceFixture),
		FixturePath:  os.Getenv("FIXTURE_PATH"),
		MySQLDSN:     env("MYSQL_DSN", "root:root@tcp(localhost:3306)/reviews?charset=utf8mb4"),
		Store:        env("MODERATION_STORE", StoreMemory),
		RedisAddr:    env("REDIS_ADDR", "localhost:6379"),
		RedisPass:    env("REDIS_PASSWORD", ""),
		RedisDB:      atoi("REDIS_DB", 0),
		WriteRPS:     atoi("WRITE_RPS", 20),
		SeedWorkers:  atoi("SEED_WORKERS", 4),
		SeedBatch:    atoi("SEED_BATCH", 50),
		APIBaseURL:   env("API_BASE_URL", "http://localhost:8080"),
	}
	if c.ReviewSource != SourceFixture && c.ReviewSource != SourceMySQL {
		log.Warn().Str("source", c.ReviewSource).Msg("unknown REVIEW_SOURCE; using fixture")
		c.ReviewSource = SourceFixture
	}
	if c.Store != StoreMemory && c.Store != StoreRedis {
		log.Warn().Str("store", c.Store).Msg("unknown MODERATION_STORE; using memory")
		c.Store = StoreMemory
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
