package config

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all runtime settings. Values are read from the
// environment with the CODECOLLAB prefix, e.g. CODECOLLAB_SERVER_ADDR.
type Config struct {
	ServerAddr     string        `envconfig:"SERVER_ADDR" default:"localhost:8000"`
	DatabaseDSN    string        `envconfig:"DATABASE_DSN" default:"host=localhost user=postgres password=postgres dbname=postgres sslmode=disable"`
	SigningSecret  string        `envconfig:"SIGNING_SECRET"`
	AllowedOrigins []string      `envconfig:"ALLOWED_ORIGINS"`
	JudgeURL       string        `envconfig:"JUDGE_URL"`
	JudgeAPIKey    string        `envconfig:"JUDGE_API_KEY"`
	JudgeTimeout   time.Duration `envconfig:"JUDGE_TIMEOUT" default:"30s"`

	// SigningKey is the decoded form of SigningSecret.
	SigningKey []byte `ignored:"true"`
}

func decodeSigningSecret(base64Secret string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(base64Secret)
}

func NewConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("codecollab", &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}

	if cfg.ServerAddr == "" {
		return nil, fmt.Errorf("server address cannot be empty")
	}
	if cfg.DatabaseDSN == "" {
		return nil, fmt.Errorf("database DSN cannot be empty")
	}
	if cfg.SigningSecret == "" {
		return nil, fmt.Errorf("signing secret cannot be empty")
	}
	if cfg.JudgeURL == "" {
		return nil, fmt.Errorf("judge URL cannot be empty")
	}

	signingKey, err := decodeSigningSecret(cfg.SigningSecret)
	if err != nil {
		return nil, fmt.Errorf("decode signing secret: %w", err)
	}
	cfg.SigningKey = signingKey

	return &cfg, nil
}
