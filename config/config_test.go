package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roasbeef/troupe"
)

// TestDefaultMatchesRuntime tests that the default host config mirrors
// the runtime's own defaults.
func TestDefaultMatchesRuntime(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.Equal(t, troupe.DefaultPoolSize, cfg.PoolSize)
	require.Equal(t, troupe.DefaultActorQueueLimit, cfg.ActorQueueLimit)
	require.Equal(t, troupe.DefaultCastLimit, cfg.CastLimit)
	require.NoError(t, cfg.Validate())
}

// TestLoadReaderOverridesDefaults tests that YAML values override the
// defaults while unspecified fields keep them.
func TestLoadReaderOverridesDefaults(t *testing.T) {
	t.Parallel()

	src := `
pool_size: 8
actor_queue_limit: 64
log:
  level: debug
  dir: /tmp/troupe-logs
`
	cfg, err := LoadReader(strings.NewReader(src))
	require.NoError(t, err)

	require.Equal(t, 8, cfg.PoolSize)
	require.Equal(t, 64, cfg.ActorQueueLimit)
	require.Equal(t, troupe.DefaultCastLimit, cfg.CastLimit)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, "/tmp/troupe-logs", cfg.Log.Dir)
}

// TestLoadReaderRejectsInvalid tests that validation catches values the
// runtime would refuse.
func TestLoadReaderRejectsInvalid(t *testing.T) {
	t.Parallel()

	_, err := LoadReader(strings.NewReader("pool_size: -2\n"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "pool_size")

	_, err = LoadReader(strings.NewReader("cast_limit: 0\n"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "cast_limit")
}

// TestLoadReaderBadYAML tests that malformed YAML surfaces a parse error
// rather than a partial config.
func TestLoadReaderBadYAML(t *testing.T) {
	t.Parallel()

	_, err := LoadReader(strings.NewReader("pool_size: [nope"))
	require.Error(t, err)
}

// TestEnvOverride tests that TROUPE_ environment variables win over file
// values.
func TestEnvOverride(t *testing.T) {
	t.Setenv("TROUPE_POOL_SIZE", "2")
	t.Setenv("TROUPE_LOG_LEVEL", "trace")

	cfg, err := LoadReader(strings.NewReader("pool_size: 16\n"))
	require.NoError(t, err)
	require.Equal(t, 2, cfg.PoolSize)
	require.Equal(t, "trace", cfg.Log.Level)
}

// TestEnvOverrideRejectsGarbage tests that a non-numeric override fails
// loudly instead of being ignored.
func TestEnvOverrideRejectsGarbage(t *testing.T) {
	t.Setenv("TROUPE_CAST_LIMIT", "many")

	_, err := LoadReader(strings.NewReader(""))
	require.Error(t, err)
	require.Contains(t, err.Error(), "TROUPE_CAST_LIMIT")
}

// TestRuntimeConversion tests the host-to-runtime config mapping.
func TestRuntimeConversion(t *testing.T) {
	t.Parallel()

	cfg := &Config{
		PoolSize:        3,
		ActorQueueLimit: 7,
		CastLimit:       11,
	}

	rt := cfg.Runtime()
	require.Equal(t, 3, rt.PoolSize)
	require.Equal(t, 7, rt.ActorQueueLimit)
	require.Equal(t, 11, rt.CastLimit)
}
