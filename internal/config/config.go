package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/example/blazehunter/internal/logger"
)

// Config holds application configuration values.
type Config struct {
	AppPort              string
	AppEnv               string
	SupabaseURL          string
	SupabaseServiceKey   string
	SupabaseAnonKey      string
	DatabaseURL          string
	RedisURL             string
	JWTSecret            string
	SessionTTL           time.Duration
	GatewayTimeout       time.Duration
	InactivityReload     time.Duration
	SiteConfigPath       string
	AutoMigrate          bool
	SeedSeniorAdminEmail string
	SeedSeniorAdminKey   string
}

// Load reads environment variables and returns a populated Config.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		AppPort:              getEnv("APP_PORT", "8080"),
		AppEnv:               getEnv("APP_ENV", "production"),
		SupabaseURL:          strings.TrimRight(getEnv("SUPABASE_URL", ""), "/"),
		SupabaseServiceKey:   getEnv("SUPABASE_SERVICE_ROLE_KEY", ""),
		SupabaseAnonKey:      getEnv("SUPABASE_ANON_KEY", ""),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		RedisURL:             getEnv("REDIS_URL", ""),
		JWTSecret:            getEnv("JWT_SECRET", ""),
		SessionTTL:           getEnvDuration("SESSION_TTL_HOURS", 12) * time.Hour,
		GatewayTimeout:       getEnvDuration("GATEWAY_TIMEOUT_SECONDS", 15) * time.Second,
		InactivityReload:     getEnvDuration("INACTIVITY_RELOAD_SECONDS", 30) * time.Second,
		SiteConfigPath:       getEnv("SITE_CONFIG", ""),
		AutoMigrate:          getEnv("AUTO_MIGRATE", "true") == "true",
		SeedSeniorAdminEmail: getEnv("SEED_SENIOR_ADMIN_EMAIL", ""),
		SeedSeniorAdminKey:   getEnv("SEED_SENIOR_ADMIN_KEY", ""),
	}

	log := logger.Get()
	if cfg.AppPort == "" {
		log.Fatal().Msg("APP_PORT must be set")
	}

	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET must be set")
	}

	return cfg
}

// UsesSupabase reports whether the remote data service credentials are set.
func (c *Config) UsesSupabase() bool {
	return c.SupabaseURL != "" && c.SupabaseServiceKey != ""
}

// RealtimeEnabled reports whether browsers and the server can subscribe to the
// data service's change feed.
func (c *Config) RealtimeEnabled() bool {
	return c.SupabaseURL != "" && c.SupabaseAnonKey != ""
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback int) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return time.Duration(parsed)
		}
	}
	return time.Duration(fallback)
}
