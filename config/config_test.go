package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/Dosada05/tournament-draw/balance"
	"github.com/Dosada05/tournament-draw/config"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SERVER_PORT", "DATABASE_URL", "JWT_SECRET_KEY", "ORGANIZER_PASSWORD_HASH",
		"DRAW_CONFIG_FILE", "DRAW_RANDOM_SEED", "LOG_LEVEL",
		"R2_ACCOUNT_ID", "R2_ACCESS_KEY_ID", "R2_SECRET_ACCESS_KEY", "R2_BUCKET_NAME", "R2_PUBLIC_BASE_URL",
		"INPUT_DIR", "OUTPUT_FILE", "CORS_ALLOWED_ORIGINS",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.ServerPort)
	require.Equal(t, slog.LevelInfo, cfg.LogLevel)
	require.Nil(t, cfg.RandomSeed)
	require.Equal(t, config.DefaultDrawSettings(), cfg.Draw)
	require.Equal(t, "input", cfg.InputDir)
	require.Equal(t, "output/draw_output.csv", cfg.OutputFile)
	require.False(t, cfg.R2Enabled())
	require.Empty(t, cfg.AllowedOrigins)
	require.Error(t, cfg.ValidateServer())
}

func TestLoad_FromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("JWT_SECRET_KEY", "secret")
	t.Setenv("DRAW_RANDOM_SEED", "-42")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("R2_ACCOUNT_ID", "acc")
	t.Setenv("R2_ACCESS_KEY_ID", "key")
	t.Setenv("R2_SECRET_ACCESS_KEY", "secret")
	t.Setenv("R2_BUCKET_NAME", "draws")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://draw.example.org, http://localhost:5173,")

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, 9090, cfg.ServerPort)
	require.NotNil(t, cfg.RandomSeed)
	require.Equal(t, int64(-42), *cfg.RandomSeed)
	require.Equal(t, slog.LevelDebug, cfg.LogLevel)
	require.True(t, cfg.R2Enabled())
	require.Equal(t, []string{"https://draw.example.org", "http://localhost:5173"}, cfg.AllowedOrigins)
	require.NoError(t, cfg.ValidateServer())
}

func TestLoad_InvalidValues(t *testing.T) {
	for name, env := range map[string][2]string{
		"port not a number": {"SERVER_PORT", "http"},
		"port out of range": {"SERVER_PORT", "70000"},
		"seed":              {"DRAW_RANDOM_SEED", "lucky"},
		"log level":         {"LOG_LEVEL", "loud"},
		"missing file":      {"DRAW_CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml")},
	} {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(env[0], env[1])
			_, err := config.Load()
			require.Error(t, err)
		})
	}
}

func TestLoad_DrawSettingsFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "draw.yaml")
	require.NoError(t, os.WriteFile(path, []byte("weights:\n  country: 20\nsearch_iterations: 500\n"), 0o600))
	t.Setenv("DRAW_CONFIG_FILE", path)

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, balance.Weights{Country: 20, TeamCountry: 5, Base: 3, RatingGap: 1}, cfg.Draw.Weights)
	require.Equal(t, 500, cfg.Draw.SearchIterations)
	require.Equal(t, 10000, cfg.Draw.BacktrackLimit)
	require.Equal(t, 1, cfg.Draw.ConflictRadius)

	opts := cfg.Draw.GroupOptions()
	require.Equal(t, 500, opts.SearchIterations)
	require.Nil(t, opts.Rand)
}

func TestParseDrawSettings_Invalid(t *testing.T) {
	for name, raw := range map[string]string{
		"zero weight":      "weights:\n  base: 0\n",
		"backtrack limit":  "backtrack_limit: 0\n",
		"negative search":  "search_iterations: -1\n",
		"conflict radius":  "conflict_radius: 0\n",
		"fixture legs":     "fixture_legs: 3\n",
		"not yaml mapping": "- 1\n- 2\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := config.ParseDrawSettings([]byte(raw))
			require.Error(t, err)
		})
	}
}
