package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInitialize_ProductionModeWritesNothing(t *testing.T) {
	ws := t.TempDir()
	require.NoError(t, Initialize(ws, Options{DebugMode: false}))
	defer CloseAll()

	IO("should not appear")
	assert.False(t, IsDebugMode())
	assert.False(t, IsCategoryEnabled(CategoryIO))

	_, err := os.Stat(filepath.Join(ws, ".staticstore", "logs"))
	assert.True(t, os.IsNotExist(err), "logs dir must not be created in production mode")
}

func TestInitialize_DebugModeWritesFile(t *testing.T) {
	ws := t.TempDir()
	require.NoError(t, Initialize(ws, Options{DebugMode: true, Level: "debug", JSONFormat: true}))

	IOError("write failed: %s", "disk full")
	StoreDebug("decoded %d entries", 3)
	CloseAll()

	data, err := os.ReadFile(filepath.Join(ws, ".staticstore", "logs", "staticstore.log"))
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "write failed: disk full")
	assert.Contains(t, text, "decoded 3 entries")
	assert.Contains(t, text, `"logger":"io"`)
}

func TestInitialize_RequiresWorkspace(t *testing.T) {
	assert.Error(t, Initialize("", Options{}))
}

func TestCategoryToggles(t *testing.T) {
	ws := t.TempDir()
	require.NoError(t, Initialize(ws, Options{
		DebugMode:  true,
		Level:      "info",
		Categories: map[string]bool{"save": false},
	}))
	defer CloseAll()

	assert.True(t, IsCategoryEnabled(CategoryIO))
	assert.True(t, IsCategoryEnabled(CategoryHost), "unlisted categories default to enabled")
	assert.False(t, IsCategoryEnabled(CategorySave))
}

func TestRedirect_CapturesEntries(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	restore := Redirect(core)
	defer restore()

	WithActivation(CategoryIO, "act-1").Error("entered failed state: %v", "boom")
	Get(CategorySave).Debug("coalesced")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "entered failed state: boom", entries[0].Message)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.Equal(t, "act-1", entries[0].ContextMap()["activation"])
	assert.True(t, strings.HasPrefix(entries[1].LoggerName, "save"))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warning"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("nonsense"))
}

func TestDisabledLoggerIsSafe(t *testing.T) {
	l := &Logger{category: CategoryHost}
	l.Debug("x")
	l.Info("x")
	l.Warn("x")
	l.Error("x")
	assert.Same(t, l, l.With("k", "v"))
}
