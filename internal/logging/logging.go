package logging

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/roach88/hostbridge/internal/fault"
)

var (
	current atomic.Pointer[zap.Logger]
	level   = zap.NewAtomicLevelAt(zapcore.ErrorLevel)
	nop     = zap.NewNop()

	installMu     sync.Mutex
	reinstallOnce sync.Once

	// output is the sink of the installed logger.
	output zapcore.WriteSyncer = zapcore.Lock(os.Stdout)
)

// Install builds the process logger at the given minimum level and makes it
// the one returned by Logger. Only the first call installs; later calls
// return false and log a single warning for the whole process.
func Install(lvl zapcore.Level) bool {
	installMu.Lock()
	installed := current.Load() == nil
	if installed {
		level.SetLevel(lvl)
		current.Store(newLogger(output, level))
	}
	installMu.Unlock()
	if installed {
		return true
	}

	reinstallOnce.Do(func() {
		Logger().Warn("logger already installed; keeping the existing sink",
			zap.String("code", string(fault.CodeLoggerReinstall)))
	})
	return false
}

// Logger returns the installed logger, or a no-op logger before Install.
func Logger() *zap.Logger {
	if l := current.Load(); l != nil {
		return l
	}
	return nop
}

// SetLevel changes the minimum level of the installed logger.
func SetLevel(lvl zapcore.Level) {
	level.SetLevel(lvl)
}

// Level returns the current minimum level.
func Level() zapcore.Level {
	return level.Level()
}

// ParseLevel parses one of debug, info, warn or error (any case).
func ParseLevel(s string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "info":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.ErrorLevel, fmt.Errorf("unknown log level %q (want debug, info, warn or error)", s)
	}
}

// NewLineLogger builds a logger that writes "<LEVEL> - <message>" lines to w.
// Structured fields are folded into the message as "(key=value ...)".
func NewLineLogger(w io.Writer, lvl zapcore.LevelEnabler) *zap.Logger {
	return newLogger(zapcore.AddSync(w), lvl)
}

func newLogger(ws zapcore.WriteSyncer, lvl zapcore.LevelEnabler) *zap.Logger {
	enc := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		LevelKey:         "level",
		MessageKey:       "msg",
		EncodeLevel:      zapcore.CapitalLevelEncoder,
		ConsoleSeparator: " - ",
		LineEnding:       zapcore.DefaultLineEnding,
	})
	return zap.New(&lineCore{Core: zapcore.NewCore(enc, ws, lvl)})
}

// lineCore renders fields into the entry message so every line keeps the
// two-part shape.
type lineCore struct {
	zapcore.Core
	fields []zapcore.Field
}

func (c *lineCore) With(fields []zapcore.Field) zapcore.Core {
	return &lineCore{Core: c.Core, fields: append(slices.Clip(c.fields), fields...)}
}

func (c *lineCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *lineCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	all := append(slices.Clip(c.fields), fields...)
	if len(all) > 0 {
		ent.Message += " (" + renderFields(all) + ")"
	}
	return c.Core.Write(ent, nil)
}

func renderFields(fields []zapcore.Field) string {
	var b strings.Builder
	for _, f := range fields {
		enc := zapcore.NewMapObjectEncoder()
		f.AddTo(enc)

		keys := make([]string, 0, len(enc.Fields))
		for k := range enc.Fields {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			fmt.Fprintf(&b, "%s=%v", k, enc.Fields[k])
		}
	}
	return b.String()
}
