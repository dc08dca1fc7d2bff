// Package config loads predictor runtime configuration from the environment, using the
// PREDICTOR_* variable family read by Load.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds everything needed to wire an engine adapter and predictor, independent of any
// particular request.
type Config struct {
	EnginePath           string
	EngineDepth          int
	EngineMultiPV        int
	EngineTimeoutSeconds int
	EngineThreads        int
	EngineHashMB         int
	ProfileStoreDSN      string
	RNGSeed              int64
}

func (c Config) Timeout() time.Duration {
	return time.Duration(c.EngineTimeoutSeconds) * time.Second
}

// Load reads configuration from PREDICTOR_* environment variables, falling back to sane
// defaults for anything not set. The profile store DSN is intentionally allowed to be empty:
// lookups against it are an external collaborator's concern, not this process's.
func Load() (Config, error) {
	vp := viper.New()
	vp.SetEnvPrefix("predictor")
	vp.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	vp.AutomaticEnv()
	vp.AllowEmptyEnv(true)

	vp.SetDefault("engine_path", "stockfish")
	vp.SetDefault("engine_depth", 14)
	vp.SetDefault("engine_multipv", 5)
	vp.SetDefault("engine_timeout_seconds", 10)
	vp.SetDefault("engine_threads", 1)
	vp.SetDefault("engine_hash_mb", 64)
	vp.SetDefault("profile_store_dsn", "")
	vp.SetDefault("rng_seed", 0)

	cfg := Config{
		EnginePath:           vp.GetString("engine_path"),
		EngineDepth:          vp.GetInt("engine_depth"),
		EngineMultiPV:        vp.GetInt("engine_multipv"),
		EngineTimeoutSeconds: vp.GetInt("engine_timeout_seconds"),
		EngineThreads:        vp.GetInt("engine_threads"),
		EngineHashMB:         vp.GetInt("engine_hash_mb"),
		ProfileStoreDSN:      vp.GetString("profile_store_dsn"),
		RNGSeed:              vp.GetInt64("rng_seed"),
	}

	if cfg.EnginePath == "" {
		return Config{}, fmt.Errorf("PREDICTOR_ENGINE_PATH must not be empty")
	}
	if cfg.EngineDepth <= 0 {
		return Config{}, fmt.Errorf("PREDICTOR_ENGINE_DEPTH must be positive, got %v", cfg.EngineDepth)
	}
	if cfg.EngineMultiPV <= 0 {
		return Config{}, fmt.Errorf("PREDICTOR_ENGINE_MULTIPV must be positive, got %v", cfg.EngineMultiPV)
	}
	return cfg, nil
}
