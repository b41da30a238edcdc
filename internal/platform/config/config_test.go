package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MRamiBalles/VeilleElectrique/internal/domain/adversary"
)

func TestParseEnv_Defaults(t *testing.T) {
	var cfg Server
	require.NoError(t, ParseEnv(&cfg))

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "sqlite", cfg.StorageDriver)
	assert.Equal(t, 360.0, cfg.NightLength)
	assert.Equal(t, 100*time.Millisecond, cfg.BroadcastEvery)
	assert.Equal(t, 30*time.Second, cfg.AdviseEvery)
	assert.Equal(t, time.Second/30, cfg.FrameInterval())
}

func TestParseEnv_Overrides(t *testing.T) {
	t.Setenv("VEILLE_ADDR", ":9999")
	t.Setenv("VEILLE_NIGHT_LENGTH", "90")
	t.Setenv("VEILLE_ALLOWED_ORIGINS", "http://a.test,http://b.test")
	t.Setenv("VEILLE_DEBUG", "true")

	var cfg Server
	require.NoError(t, ParseEnv(&cfg))

	assert.Equal(t, ":9999", cfg.Addr)
	assert.Equal(t, 90.0, cfg.NightLength)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
	assert.True(t, cfg.Debug)
}

func TestParseEnv_BadValue(t *testing.T) {
	t.Setenv("VEILLE_FRAME_RATE", "fast")
	var cfg Server
	assert.Error(t, ParseEnv(&cfg))
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("VEILLE_SESSION_ID=FROM_FILE\n"), 0644))
	t.Setenv("VEILLE_SESSION_ID", "")
	require.NoError(t, os.Unsetenv("VEILLE_SESSION_ID"))

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env"), path))

	var cfg Server
	require.NoError(t, ParseEnv(&cfg))
	assert.Equal(t, "FROM_FILE", cfg.SessionID)
}

func TestLoadTuning_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := LoadTuning(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultTuning(), cfg)
}

func TestLoadTuning_PartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
night:
  door_drain: 7.5
adversaries:
  aggressor:
    anger_decay: 0.3
`), 0644))

	cfg, err := LoadTuning(path)
	require.NoError(t, err)

	assert.Equal(t, 7.5, cfg.Night.DoorDrain)
	assert.Equal(t, 6.0, cfg.Night.LightDrain, "untouched keys keep their defaults")
	assert.Equal(t, 0.3, cfg.Adversaries.Aggressor.AngerDecay)
	assert.Equal(t, 0.6, cfg.Adversaries.Aggressor.AngerRise)
	assert.Len(t, cfg.Roster, 3)
}

func TestLoadTuning_Rejects(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"broken yaml", "night: [\n"},
		{"path off the map", "zones: [a, b]\n"},
		{"unknown kind", "roster:\n  - kind: ghost\n    path: [0, 1]\n"},
		{"inverted lengths", "night:\n  min_night_length: 500\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "tuning.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.body), 0644))
			_, err := LoadTuning(path)
			assert.Error(t, err)
		})
	}
}

func TestWriteTuning_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "tuning.yaml")
	want := DefaultTuning()
	want.Night.FinalNight = 3
	want.Roster = want.Roster[:1]
	want.Roster[0].Kind = adversary.KindAggressor

	require.NoError(t, WriteTuning(path, want))
	got, err := LoadTuning(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestEngineConfig(t *testing.T) {
	cfg := DefaultTuning().EngineConfig(120, nil, nil)
	assert.Equal(t, 120.0, cfg.NightLength)
	assert.Len(t, cfg.Catalog, 7)
	assert.Equal(t, 5.0, cfg.Tuning.DoorDrain)
}
