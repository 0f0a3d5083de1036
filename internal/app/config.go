package app

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cartographai/discovery-backend/internal/engine/mapping"
	"github.com/cartographai/discovery-backend/internal/engine/scoring"
	"github.com/cartographai/discovery-backend/internal/platform/envutil"
	"github.com/cartographai/discovery-backend/internal/platform/logger"
)

type Config struct {
	Port         string
	GinMode      string
	AllowOrigins []string

	ScoringWeights scoring.Weights
	Mapping        mapping.Config
}

// fileConfig is the optional YAML overlay pointed at by
// DISCOVERY_CONFIG_PATH. Anything omitted keeps its default.
type fileConfig struct {
	Scoring struct {
		Weights scoring.Weights `yaml:"weights"`
	} `yaml:"scoring"`
	Mapping struct {
		BatchSize         int `yaml:"batch_size"`
		CandidateLimit    int `yaml:"candidate_limit"`
		LookupConcurrency int `yaml:"lookup_concurrency"`
	} `yaml:"mapping"`
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		Port:           envutil.GetEnv("PORT", "8080", log),
		GinMode:        envutil.GetEnv("GIN_MODE", "debug", log),
		ScoringWeights: scoring.DefaultWeights(),
	}
	origins := envutil.GetEnv("CORS_ALLOW_ORIGINS", "", log)
	if origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowOrigins = append(cfg.AllowOrigins, o)
			}
		}
	}

	path := envutil.GetEnv("DISCOVERY_CONFIG_PATH", "", log)
	if path == "" {
		return cfg
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		log.Warn("Config file unreadable, using defaults", "path", path, "error", err)
		return cfg
	}
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		log.Warn("Config file unparsable, using defaults", "path", path, "error", err)
		return cfg
	}
	if fc.Scoring.Weights != (scoring.Weights{}) {
		cfg.ScoringWeights = fc.Scoring.Weights
	}
	cfg.Mapping = mapping.Config{
		BatchSize:         fc.Mapping.BatchSize,
		CandidateLimit:    fc.Mapping.CandidateLimit,
		LookupConcurrency: fc.Mapping.LookupConcurrency,
	}
	log.Info("Loaded config overlay", "path", path)
	return cfg
}
