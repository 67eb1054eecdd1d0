package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/pocketfolio/finance-backend/internal/dto"
)

type Config struct {
	Port             string
	LogLevel         string
	ProjectID        string
	PlaidClientID    string
	PlaidSecret      string
	PlaidSecretName  string // Secret Manager resource; overrides PlaidSecret when set
	PlaidEnvironment dto.PlaidEnvironment
	KMSKeyName       string
	JWTSecret        string
	JWTExpiresIn     time.Duration
}

func New() *Config {
	// Local development convenience; in Cloud Run the env is already set.
	_ = godotenv.Load()

	return &Config{
		Port:             getEnv("PORT", "8080"),
		LogLevel:         os.Getenv("LOGLEVEL"),
		ProjectID:        os.Getenv("PROJECTID"),
		PlaidClientID:    os.Getenv("PLAIDCLIENTID"),
		PlaidSecret:      os.Getenv("PLAIDSECRET"),
		PlaidSecretName:  os.Getenv("PLAIDSECRETNAME"),
		PlaidEnvironment: getPlaidEnvironment(os.Getenv("PLAIDENVIRONMENT")),
		KMSKeyName:       os.Getenv("KMSKEYNAME"),
		JWTSecret:        os.Getenv("JWTSECRET"),
		JWTExpiresIn:     getDuration("JWTEXPIRESIN", 24*time.Hour),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func getPlaidEnvironment(env string) dto.PlaidEnvironment {
	switch env {
	case "production":
		return dto.PlaidProduction
	default:
		return dto.PlaidSandbox
	}
}
