package logger

import (
	"path/filepath"
	"testing"

	"gateway-stream/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerFormatsAndNames(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := FromZap(zap.New(core), "bus").Named("reader").With("request_id", int32(9000))

	log.Debug("routed %d fields", 4)
	log.Warning("dropped message %s", "17")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "bus.reader", entries[0].LoggerName)
	assert.Equal(t, "routed 4 fields", entries[0].Message)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, int32(9000), entries[1].ContextMap()["request_id"])
}

func TestNormalizeLevel(t *testing.T) {
	cases := map[string]string{
		"WARNING":  "warn",
		" debug ":  "debug",
		"CRITICAL": "fatal",
		"Info":     "info",
	}
	for in, want := range cases {
		assert.Equal(t, want, normalizeLevel(in), in)
	}
}

func TestNewLoggerWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gateway.log")
	log := NewLogger(&models.MConfig{LogLevel: "DEBUG", LogFile: path}, "test")

	log.Info("connected to %s", "127.0.0.1:4002")
	_ = log.Sync()

	assert.FileExists(t, path)
}

func TestNopLogger(t *testing.T) {
	log := NewNopLogger("nop")
	assert.NotPanics(t, func() {
		log.Error("ignored %v", assert.AnError)
	})
}
