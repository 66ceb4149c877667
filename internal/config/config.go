package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port                string   `mapstructure:"PORT"`
	Env                 string   `mapstructure:"ENV"`
	AuthSigningKey      string   `mapstructure:"AUTH_SIGNING_KEY"`
	SessionTTLMinutes   int      `mapstructure:"SESSION_TTL_MINUTES"`
	EmergencyTTLSeconds int      `mapstructure:"EMERGENCY_TTL_SECONDS"`
	DefaultClinician    string   `mapstructure:"DEFAULT_CLINICIAN"`
	SimplifierURL       string   `mapstructure:"SIMPLIFIER_URL"`
	SimplifierAPIKey    string   `mapstructure:"SIMPLIFIER_API_KEY"`
	SeedExtraPatients   int      `mapstructure:"SEED_EXTRA_PATIENTS"`
	RateLimitRPS        float64  `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst      int      `mapstructure:"RATE_LIMIT_BURST"`
	CORSOrigins         []string `mapstructure:"CORS_ORIGINS"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("SESSION_TTL_MINUTES", 480)
	v.SetDefault("EMERGENCY_TTL_SECONDS", 300)
	v.SetDefault("DEFAULT_CLINICIAN", "Dr. Sarah Lee")
	v.SetDefault("SEED_EXTRA_PATIENTS", 0)
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("AUTH_SIGNING_KEY")
	v.BindEnv("SESSION_TTL_MINUTES")
	v.BindEnv("EMERGENCY_TTL_SECONDS")
	v.BindEnv("DEFAULT_CLINICIAN")
	v.BindEnv("SIMPLIFIER_URL")
	v.BindEnv("SIMPLIFIER_API_KEY")
	v.BindEnv("SEED_EXTRA_PATIENTS")
	v.BindEnv("RATE_LIMIT_RPS")
	v.BindEnv("RATE_LIMIT_BURST")
	v.BindEnv("CORS_ORIGINS")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.IsDev() {
		log.Println("WARNING: Server is running in DEVELOPMENT mode (ENV=development).")
		log.Println("WARNING: Unauthenticated requests are treated as an admin actor.")
		log.Println("WARNING: Set ENV=production and AUTH_SIGNING_KEY for real deployments.")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Validate checks that the configuration is safe to run. Outside development
// a signing key is mandatory so that role tokens cannot be forged, and both
// time windows must be positive.
func (c *Config) Validate() error {
	if !c.IsDev() && c.AuthSigningKey == "" {
		return fmt.Errorf("AUTH_SIGNING_KEY is required when ENV is not development")
	}
	if c.EmergencyTTLSeconds <= 0 {
		return fmt.Errorf("EMERGENCY_TTL_SECONDS must be positive, got %d", c.EmergencyTTLSeconds)
	}
	if c.SessionTTLMinutes <= 0 {
		return fmt.Errorf("SESSION_TTL_MINUTES must be positive, got %d", c.SessionTTLMinutes)
	}
	return nil
}
