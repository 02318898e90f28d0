package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	DBMinConns  int32  `envconfig:"JH_DB_MIN_CONNS" default:"1"`
	DBMaxConns  int32  `envconfig:"JH_DB_MAX_CONNS" default:"8"`

	// RedisURL enables the fingerprint lookaside cache when set.
	RedisURL string `envconfig:"REDIS_URL" default:""`

	// Resolution tunables. The defaults are hand-tuned rather than derived,
	// so they are exposed as configuration instead of constants.
	SimilarityThreshold float64 `envconfig:"JH_SIMILARITY_THRESHOLD" default:"0.85"`
	CandidateMaxAgeDays int     `envconfig:"JH_CANDIDATE_MAX_AGE_DAYS" default:"90"`
	CandidateLimit      int     `envconfig:"JH_CANDIDATE_LIMIT" default:"100"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.DBMinConns < 0 {
		return fmt.Errorf("JH_DB_MIN_CONNS must be >= 0")
	}
	if c.DBMaxConns < 1 {
		return fmt.Errorf("JH_DB_MAX_CONNS must be >= 1")
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("JH_DB_MIN_CONNS (%d) cannot exceed JH_DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if c.SimilarityThreshold <= 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("JH_SIMILARITY_THRESHOLD must be in (0, 1]")
	}
	if c.CandidateMaxAgeDays < 1 {
		return fmt.Errorf("JH_CANDIDATE_MAX_AGE_DAYS must be >= 1")
	}
	if c.CandidateLimit < 1 {
		return fmt.Errorf("JH_CANDIDATE_LIMIT must be >= 1")
	}
	return nil
}
