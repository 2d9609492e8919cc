package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSlogLoggerRedacts(t *testing.T) {
	var buf bytes.Buffer
	l := New(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	l.With("session_id", "s1").Info(context.Background(), "user deleted", Redacted("puid"))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "user deleted", rec["msg"])
	assert.Equal(t, "s1", rec["session_id"])
	assert.Equal(t, Placeholder(), rec["puid"])
}

func TestZapLoggerFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewZap(zap.New(core)).With("op", "validate")

	l.Debug(context.Background(), "dispatch", "status", int32(3), Redacted("puid"), zap.Bool("ok", true), "dangling")

	entries := logs.All()
	require.Len(t, entries, 1)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "validate", ctx["op"])
	assert.EqualValues(t, 3, ctx["status"])
	assert.Equal(t, Placeholder(), ctx["puid"])
	assert.Equal(t, true, ctx["ok"])
	assert.Equal(t, "dangling", ctx["!BADKEY"])
}

func TestZapLoggerFollowsAtomicLevel(t *testing.T) {
	level := zap.NewAtomicLevelAt(zapcore.WarnLevel)
	var buf bytes.Buffer
	l := NewZap(zap.New(NewCore(zapcore.AddSync(&buf), level)))

	l.Info(context.Background(), "hidden")
	assert.Zero(t, buf.Len())

	level.SetLevel(zapcore.InfoLevel)
	l.Info(context.Background(), "shown")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
}

func TestFileCoreWritesRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "privid.log")
	w := NewFileWriter(path, FileConfig{})
	assert.Equal(t, DefaultMaxSizeMB, w.MaxSize)
	assert.Equal(t, DefaultMaxBackups, w.MaxBackups)

	l := NewZap(zap.New(FileCore(w, zapcore.InfoLevel)))
	l.Error(context.Background(), "engine unavailable", "models_dir", "/models")
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "engine unavailable")
}

func TestNopDiscards(t *testing.T) {
	l := Nop().With("a", 1)
	l.Error(context.Background(), "ignored")
	assert.NotNil(t, l)
}
