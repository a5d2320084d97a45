package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	MongoURI       string
	RedisURI       string
	Port           string
	StaticDir      string
	SessionTTL     time.Duration
	AllowedOrigins []string // CORS: from ALLOWED_ORIGINS or FRONTEND_URL
	Environment    string   // ENV: production, development, etc.
}

func Load() *Config {
	env := strings.ToLower(strings.TrimSpace(getEnv("ENV", "development")))

	// CORS: allow multiple origins so a separately hosted frontend works
	allowedOrigins := parseOrigins(getEnv("ALLOWED_ORIGINS", ""))
	if len(allowedOrigins) == 0 {
		if u := strings.TrimSpace(getEnv("FRONTEND_URL", "")); u != "" {
			allowedOrigins = append(allowedOrigins, u)
		}
	}
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000"}
	}

	// Session idle TTL in hours (default 24)
	ttlHours := 24
	if v := getEnv("SESSION_TTL_HOURS", ""); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			ttlHours = parsed
		}
	}

	return &Config{
		MongoURI:       getEnv("MONGODB_URI", getEnv("MONGO_URI", "mongodb://localhost:27017/defectdb")),
		RedisURI:       getEnv("REDIS_URI", "redis://localhost:6379/0"),
		Port:           getEnv("PORT", "5000"),
		StaticDir:      getEnv("STATIC_DIR", "public"),
		SessionTTL:     time.Duration(ttlHours) * time.Hour,
		AllowedOrigins: allowedOrigins,
		Environment:    env,
	}
}

func parseOrigins(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// IsProduction returns true when ENV is set to "production".
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
