package logging

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// resetForTest clears the process logger and points it at buf.
func resetForTest(t *testing.T, buf *bytes.Buffer) {
	t.Helper()
	prevOutput := output

	current.Store(nil)
	reinstallOnce = sync.Once{}
	level.SetLevel(zapcore.ErrorLevel)
	output = zapcore.Lock(zapcore.AddSync(buf))

	t.Cleanup(func() {
		current.Store(nil)
		reinstallOnce = sync.Once{}
		level.SetLevel(zapcore.ErrorLevel)
		output = prevOutput
	})
}

func TestNewLineLogger_Format(t *testing.T) {
	var buf bytes.Buffer
	l := NewLineLogger(&buf, zapcore.DebugLevel)

	l.Error("database unreachable")
	l.Warn("slow query")

	assert.Equal(t, "ERROR - database unreachable\nWARN - slow query\n", buf.String())
}

func TestNewLineLogger_Fields(t *testing.T) {
	var buf bytes.Buffer
	l := NewLineLogger(&buf, zapcore.DebugLevel)

	l.Info("upserted", zap.Int("documents", 3))
	l.With(zap.String("collection", "docs")).Warn("closing abandoned stream", zap.Error(errors.New("boom")))

	assert.Equal(t,
		"INFO - upserted (documents=3)\nWARN - closing abandoned stream (collection=docs error=boom)\n",
		buf.String())
}

func TestInstall_LevelAppliesToFirstRecord(t *testing.T) {
	var buf bytes.Buffer
	resetForTest(t, &buf)

	require.True(t, Install(zapcore.DebugLevel))
	Logger().Debug("first")

	assert.Equal(t, "DEBUG - first\n", buf.String())
}

func TestNewLineLogger_LevelGate(t *testing.T) {
	var buf bytes.Buffer
	l := NewLineLogger(&buf, zapcore.ErrorLevel)

	l.Info("hidden")
	l.Warn("hidden")
	l.Error("shown")

	assert.Equal(t, "ERROR - shown\n", buf.String())
}

func TestLogger_NoopBeforeInstall(t *testing.T) {
	var buf bytes.Buffer
	resetForTest(t, &buf)

	Logger().Error("nobody hears this")
	assert.Empty(t, buf.String())
}

func TestInstall_Once(t *testing.T) {
	var buf bytes.Buffer
	resetForTest(t, &buf)

	require.True(t, Install(zapcore.WarnLevel))
	first := Logger()

	assert.False(t, Install(zapcore.DebugLevel))
	assert.False(t, Install(zapcore.DebugLevel))
	assert.Same(t, first, Logger())

	// The rejected installs did not change the level.
	assert.Equal(t, zapcore.WarnLevel, Level())

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "logger already installed"), out)
	assert.True(t, strings.HasPrefix(out, "WARN - logger already installed"), out)
	assert.Contains(t, out, "LOGGER_REINSTALL")
}

func TestInstall_ConcurrentCallersOneWinner(t *testing.T) {
	var buf bytes.Buffer
	resetForTest(t, &buf)

	const callers = 32
	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if Install(zapcore.ErrorLevel) {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}

func TestInstall_DefaultErrorOnly(t *testing.T) {
	var buf bytes.Buffer
	resetForTest(t, &buf)

	require.True(t, Install(zapcore.ErrorLevel))
	Logger().Info("quiet")
	Logger().Error("loud")

	assert.Equal(t, "ERROR - loud\n", buf.String())

	SetLevel(zapcore.InfoLevel)
	Logger().Info("now visible")
	assert.Contains(t, buf.String(), "INFO - now visible\n")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"INFO", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{" error ", zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseLevel("trace")
	assert.Error(t, err)
}
