// Package relay implements the thin backend that prices and executes swaps
// on behalf of the browser front end.
package relay

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the relay's runtime configuration.
type Config struct {
	HTTPPort   string
	CORSOrigin string

	// Rate limiting per client address.
	RateLimitRPS   int
	RateLimitBurst int

	Debug bool
}

// LoadConfig reads configuration from environment variables, with an
// optional .env file for development.
func LoadConfig() *Config {
	// A missing .env is fine; the environment may be configured directly.
	_ = godotenv.Load()

	return &Config{
		HTTPPort:       getEnv("PORT", "5000"),
		CORSOrigin:     getEnv("CORS_ORIGIN", "http://localhost:3000"),
		RateLimitRPS:   getEnvAsInt("RATE_LIMIT_RPS", 10),
		RateLimitBurst: getEnvAsInt("RATE_LIMIT_BURST", 20),
		Debug:          getEnv("RELAY_ENV", "") == "development",
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
