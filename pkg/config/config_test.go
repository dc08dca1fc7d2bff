package config_test

import (
	"testing"

	"github.com/jkern100/chess-scout/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "stockfish", cfg.EnginePath)
	assert.Equal(t, 14, cfg.EngineDepth)
	assert.Equal(t, 5, cfg.EngineMultiPV)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PREDICTOR_ENGINE_PATH", "/usr/local/bin/stockfish")
	t.Setenv("PREDICTOR_ENGINE_DEPTH", "20")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "/usr/local/bin/stockfish", cfg.EnginePath)
	assert.Equal(t, 20, cfg.EngineDepth)
}

func TestLoad_RejectsEmptyEnginePath(t *testing.T) {
	t.Setenv("PREDICTOR_ENGINE_PATH", "")

	_, err := config.Load()
	require.Error(t, err)
}
