package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	DatabasePath  string
	MigrationsDir string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	JWTSecret     string
}

// Load reads configuration from the environment (and .env when present).
// JWT_SECRET has no fallback: startup fails rather than signing tokens
// with a default secret.
func Load() *Config {
	_ = godotenv.Load()
	cfg := &Config{
		Port:          get("PORT", "8080"),
		DatabasePath:  get("DATABASE_PATH", "./haidtracker.db"),
		MigrationsDir: get("MIGRATIONS_DIR", "./database/migrations"),
		RedisAddr:     get("REDIS_ADDR", "localhost:6379"),
		RedisPassword: get("REDIS_PASSWORD", ""),
		RedisDB:       getInt("REDIS_DB", 0),
		JWTSecret:     must("JWT_SECRET"),
	}
	return cfg
}

func get(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("invalid %s: %q", k, v)
	}
	return n
}

func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		log.Fatalf("missing env %s", k)
	}
	return v
}
