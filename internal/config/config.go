// Package config junta la configuración del proceso desde el entorno. Un
// archivo .env, si existe, se carga antes sin pisar variables ya definidas.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port              string
	AppEnv            string
	DSN               string
	APIBaseURL        string
	APIToken          string
	APITimeout        time.Duration
	DraftTTL          time.Duration
	DraftCleanupSpec  string
	SessionIdle       time.Duration
	DeactivateDropped bool
}

func (c Config) IsDev() bool {
	return c.AppEnv == "" || c.AppEnv == "development" || c.AppEnv == "dev"
}

func Load() Config {
	_ = godotenv.Load()
	return Config{
		Port:              getenv("PORT", "8080"),
		AppEnv:            strings.ToLower(os.Getenv("APP_ENV")),
		DSN:               dsn(),
		APIBaseURL:        getenv("API_BASE_URL", "http://localhost:9000/api"),
		APIToken:          os.Getenv("API_TOKEN"),
		APITimeout:        duration("API_TIMEOUT", 20*time.Second),
		DraftTTL:          duration("DRAFT_TTL", 72*time.Hour),
		DraftCleanupSpec:  getenv("DRAFT_CLEANUP_SPEC", "@hourly"),
		SessionIdle:       duration("SESSION_IDLE", 24*time.Hour),
		DeactivateDropped: boolean("DEACTIVATE_DROPPED", false),
	}
}

// dsn usa DB_DSN tal cual o lo arma con DB_* (y los POSTGRES_* de docker).
func dsn() string {
	if v := strings.TrimSpace(os.Getenv("DB_DSN")); v != "" {
		return v
	}
	host := getenv("DB_HOST", "localhost")
	port := getenv("DB_PORT", "5432")
	user := getenv("DB_USER", getenv("POSTGRES_USER", "postgres"))
	pass := getenv("DB_PASSWORD", getenv("POSTGRES_PASSWORD", "postgres"))
	name := getenv("DB_NAME", getenv("POSTGRES_DB", "templemart"))
	ssl := getenv("DB_SSLMODE", "disable")
	return "host=" + host + " user=" + user + " password=" + pass + " dbname=" + name + " port=" + port + " sslmode=" + ssl
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func duration(key string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(os.Getenv(key)))
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func boolean(key string, def bool) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return def
	}
	return b
}
