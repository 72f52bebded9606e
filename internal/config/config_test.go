package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/kenburns/internal/director"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 1280, cfg.Width)
	assert.Equal(t, 720, cfg.Height)
	assert.Equal(t, 30, cfg.FPS)
	assert.Equal(t, 2, cfg.WorkingScale)
	assert.Equal(t, 3, cfg.Precision)
	assert.Equal(t, "fade", cfg.TransitionType)
	assert.Equal(t, 0.5, cfg.FadeDuration)
	assert.Equal(t, 0.5, cfg.Overlap)
	assert.Equal(t, director.DefaultPhases, cfg.Phases)

	cfg.OutputVideo = "out.mp4"
	assert.NoError(t, cfg.Validate())
}

func TestDefaultFromEnv(t *testing.T) {
	t.Setenv("KENBURNS_FPS", "25")
	t.Setenv("KENBURNS_FADE", "1.25")
	t.Setenv("KENBURNS_WIDTH", "wide")
	t.Setenv("KENBURNS_TRANSITION", "dissolve")

	cfg := Default()
	assert.Equal(t, 25, cfg.FPS)
	assert.Equal(t, 1.25, cfg.FadeDuration)
	assert.Equal(t, 1280, cfg.Width)
	assert.Equal(t, "dissolve", cfg.TransitionType)
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("KENBURNS_HEIGHT=1080\nKENBURNS_ENCODER=h264_nvenc\n"), 0644))
	t.Setenv("KENBURNS_HEIGHT", "")
	t.Setenv("KENBURNS_ENCODER", "")
	os.Unsetenv("KENBURNS_HEIGHT")
	os.Unsetenv("KENBURNS_ENCODER")

	require.NoError(t, Load(path))
	cfg := Default()
	assert.Equal(t, 1080, cfg.Height)
	assert.Equal(t, "h264_nvenc", cfg.VideoEncoder)

	assert.Error(t, Load(filepath.Join(t.TempDir(), "missing.env")))
}

func TestValidate(t *testing.T) {
	valid := Default()
	valid.OutputVideo = "out.mp4"

	tests := []struct {
		name   string
		mutate func(*Config)
		msg    string
	}{
		{"odd width", func(c *Config) { c.Width = 1279 }, "resolution"},
		{"zero fps", func(c *Config) { c.FPS = 0 }, "fps"},
		{"working scale", func(c *Config) { c.WorkingScale = 0 }, "working scale"},
		{"no fade", func(c *Config) { c.FadeDuration = 0 }, "fade"},
		{"negative overlap", func(c *Config) { c.Overlap = -1 }, "overlap"},
		{"overlap shorter than fade", func(c *Config) { c.Overlap = 0.25 }, "overlap"},
		{"zero precision", func(c *Config) { c.Precision = 0 }, "precision"},
		{"no output", func(c *Config) { c.OutputVideo = "" }, "output"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}
