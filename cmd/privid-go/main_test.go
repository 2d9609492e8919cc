package main

import (
	"context"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prividentity/cryptonets-go/pkg/privid"
)

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("PRIVID_MODELS_DIR", "/tmp/models")
	t.Setenv("PRIVID_LOG_LEVEL", "debug")
	t.Setenv("PRIVID_LOG_FILE", "")
	cfg, closeLog, err := config(options{fake: true})
	require.NoError(t, err)
	defer closeLog()
	assert.Equal(t, "/tmp/models", cfg.ModelsDir)
	assert.Equal(t, privid.LevelDebug, cfg.LogLevel)
	assert.NotNil(t, cfg.Engine)
	assert.Nil(t, cfg.Logger)

	t.Setenv("PRIVID_LOG_LEVEL", "loud")
	_, _, err = config(options{})
	assert.ErrorIs(t, err, privid.ErrInvalidLogLevel)
}

func TestRunISOWithFakeEngine(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PRIVID_MODELS_DIR", filepath.Join(dir, "models"))
	t.Setenv("PRIVID_LOG_LEVEL", "info")
	t.Setenv("PRIVID_LOG_FILE", filepath.Join(dir, "privid.log"))

	src := imaging.New(40, 30, color.NRGBA{A: 255})
	for x := 0; x < 40; x++ {
		for y := 0; y < 30; y++ {
			src.Set(x, y, color.NRGBA{R: uint8(x * 6), G: uint8(y * 8), B: 90, A: 255})
		}
	}
	in := filepath.Join(dir, "face.png")
	require.NoError(t, imaging.Save(src, in))

	out := filepath.Join(dir, "out.png")
	err := run(context.Background(), options{op: "iso", image: in, format: "rgb", out: out, fake: true})
	require.NoError(t, err)
	assert.False(t, privid.IsInitialized())
	assert.Zero(t, privid.OutstandingBuffers())

	crop, err := imaging.Open(filepath.Join(dir, "out-iso.png"))
	require.NoError(t, err)
	assert.Equal(t, 30, crop.Bounds().Dx())
	assert.Equal(t, 30, crop.Bounds().Dy())

	logged, err := os.ReadFile(filepath.Join(dir, "privid.log"))
	require.NoError(t, err)
	assert.Contains(t, string(logged), "library initialized")
}

func TestLogFileFollowsLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "privid.log")
	t.Setenv("PRIVID_LOG_LEVEL", "error")
	t.Setenv("PRIVID_LOG_FILE", path)

	cfg, closeLog, err := config(options{})
	require.NoError(t, err)
	require.NotNil(t, cfg.Logger)

	ctx := context.Background()
	cfg.Logger.Warn(ctx, "below threshold")
	cfg.Logger.Error(ctx, "at threshold")
	closeLog()

	logged, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(logged), "below threshold")
	assert.Contains(t, string(logged), "at threshold")
}
