package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort  string
	DatabaseURL string
	RedisURL    string
	AppURL      string

	// Debug attaches exception details to error envelopes.
	Debug bool

	JWT struct {
		Secret string
		TTL    time.Duration
	}

	NearbyRadiusKM float64

	LoginRate struct {
		PerSecond float64
		Burst     int
	}

	Routing struct {
		APIURL   string
		ClientID string
		APIKey   string
	}

	SMTP struct {
		Addr     string
		Username string
		Password string
		From     string
	}
}

func Load() (*Config, error) {
	// Load .env file if it exists (useful for local dev)
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),
		RedisURL:   getEnv("REDIS_URL", "redis://localhost:6379/0"),
		AppURL:     getEnv("APP_URL", "http://localhost:3000"),
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL must be set")
	}

	cfg.JWT.Secret = os.Getenv("JWT_SECRET")
	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("JWT_SECRET must be set")
	}

	var err error
	if cfg.Debug, err = strconv.ParseBool(getEnv("APP_DEBUG", "false")); err != nil {
		return nil, fmt.Errorf("APP_DEBUG must be a boolean: %w", err)
	}
	if cfg.JWT.TTL, err = time.ParseDuration(getEnv("JWT_TTL", "24h")); err != nil {
		return nil, fmt.Errorf("JWT_TTL must be a duration: %w", err)
	}
	if cfg.NearbyRadiusKM, err = strconv.ParseFloat(getEnv("NEARBY_RADIUS_KM", "5"), 64); err != nil {
		return nil, fmt.Errorf("NEARBY_RADIUS_KM must be a number: %w", err)
	}
	if cfg.LoginRate.PerSecond, err = strconv.ParseFloat(getEnv("LOGIN_RATE_PER_SECOND", "5"), 64); err != nil {
		return nil, fmt.Errorf("LOGIN_RATE_PER_SECOND must be a number: %w", err)
	}
	if cfg.LoginRate.Burst, err = strconv.Atoi(getEnv("LOGIN_RATE_BURST", "10")); err != nil {
		return nil, fmt.Errorf("LOGIN_RATE_BURST must be an integer: %w", err)
	}

	// Routing and SMTP are optional; an empty URL/address disables them.
	cfg.Routing.APIURL = os.Getenv("ROUTING_API_URL")
	cfg.Routing.ClientID = os.Getenv("ROUTING_CLIENT_ID")
	cfg.Routing.APIKey = os.Getenv("ROUTING_API_KEY")

	cfg.SMTP.Addr = os.Getenv("SMTP_ADDR")
	cfg.SMTP.Username = os.Getenv("SMTP_USERNAME")
	cfg.SMTP.Password = os.Getenv("SMTP_PASSWORD")
	cfg.SMTP.From = getEnv("MAIL_FROM", "no-reply@food-market.local")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
