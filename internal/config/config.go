package config

import (
	"crypto/rsa"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
)

// Rules are the workflow tuning values. They are injected into the
// validation engine and services rather than hard-coded, so deployments can
// tune them and tests can pin them.
type Rules struct {
	MaxGuardiansPerStudent int
	LinkRequestTTL         time.Duration
	MinimumAmountFloor     decimal.Decimal
	MinimumPercentOfTotal  int64
	ReplayGuardTTL         time.Duration
}

type Config struct {
	JWTPublicKey   *rsa.PublicKey
	DatabaseURL    string
	Port           string
	RedisAddress   string
	RedisPassword  string
	AllowedOrigins []string
	Rules          Rules
}

func Load() *Config {
	publicKeyPath := os.Getenv("PUBLIC_KEY_PATH")
	if publicKeyPath == "" {
		publicKeyPath = "/etc/certs/public.pem"
	}
	publicKey, err := loadPublicKey(publicKeyPath)
	if err != nil {
		panic("Failed to load public key: " + err.Error())
	}

	dbURL := os.Getenv("DB_CONNECTION_STRING")
	if dbURL == "" {
		panic("DB_CONNECTION_STRING environment variable is required")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	redisAddr := os.Getenv("REDIS_ADDRESS")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	origins := []string{"*"}
	if raw := os.Getenv("ALLOWED_ORIGINS"); raw != "" {
		origins = strings.Split(raw, ",")
	}

	return &Config{
		JWTPublicKey:   publicKey,
		DatabaseURL:    dbURL,
		Port:           port,
		RedisAddress:   redisAddr,
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		AllowedOrigins: origins,
		Rules:          loadRules(),
	}
}

func loadRules() Rules {
	return Rules{
		MaxGuardiansPerStudent: envInt("MAX_GUARDIANS_PER_STUDENT", 5),
		LinkRequestTTL:         envDuration("LINK_REQUEST_TTL", 24*time.Hour),
		MinimumAmountFloor:     envDecimal("MINIMUM_AMOUNT_FLOOR", decimal.NewFromInt(100)),
		MinimumPercentOfTotal:  int64(envInt("MINIMUM_PERCENT_OF_TOTAL", 10)),
		ReplayGuardTTL:         envDuration("REPLAY_GUARD_TTL", time.Hour),
	}
}

func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		panic(name + " must be an integer: " + err.Error())
	}
	return v
}

func envDuration(name string, fallback time.Duration) time.Duration {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		panic(name + " must be a duration: " + err.Error())
	}
	return v
}

func envDecimal(name string, fallback decimal.Decimal) decimal.Decimal {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		panic(name + " must be a number: " + err.Error())
	}
	return v
}

func loadPublicKey(path string) (*rsa.PublicKey, error) {
	keyData, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	publicKey, err := jwt.ParseRSAPublicKeyFromPEM(keyData)
	if err != nil {
		return nil, err
	}
	return publicKey, nil
}
