package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL   string
	Port          string
	IsProduction  bool
	EnableDBCheck bool

	JWTSecret         string
	JWTExpiryDuration time.Duration
	JWTIssuer         string

	// LedgerSealSecret keys the integrity seals on commission ledger entries
	// and sale records. Deployment-wide, loaded once, immutable for the
	// process lifetime. Rotating it invalidates existing seals.
	LedgerSealSecret string

	// AuthRateLimit is an ulule/limiter formatted rate (e.g. "5-M") applied
	// to login and registration.
	AuthRateLimit string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	viper.SetDefault("JWT_EXPIRY_DURATION", "1h")
	viper.SetDefault("JWT_ISSUER", "kal-affiliate-backend")
	viper.SetDefault("LEDGER_SEAL_SECRET", "")
	viper.SetDefault("AUTH_RATE_LIMIT", "5-M")

	viper.AutomaticEnv()

	cfg := &Config{}
	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.EnableDBCheck = viper.GetBool("ENABLE_DB_CHECK")
	cfg.JWTSecret = viper.GetString("JWT_SECRET")
	cfg.JWTIssuer = viper.GetString("JWT_ISSUER")
	cfg.LedgerSealSecret = viper.GetString("LEDGER_SEAL_SECRET")
	cfg.AuthRateLimit = viper.GetString("AUTH_RATE_LIMIT")

	expiry, err := time.ParseDuration(viper.GetString("JWT_EXPIRY_DURATION"))
	if err != nil {
		log.Printf("Warning: Invalid JWT_EXPIRY_DURATION ('%s'). Defaulting to 1h.\n", viper.GetString("JWT_EXPIRY_DURATION"))
		expiry = time.Hour
	}
	cfg.JWTExpiryDuration = expiry

	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}
	if cfg.LedgerSealSecret == "" {
		// The seal secret is not optional: without it every ledger seal
		// would be forgeable by anyone who can read the binary.
		return nil, fmt.Errorf("LEDGER_SEAL_SECRET must be set")
	}

	return cfg, nil
}
