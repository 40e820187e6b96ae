package luahost

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Shopify/go-lua"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/roach88/hostbridge/internal/config"
	"github.com/roach88/hostbridge/internal/engine"
	"github.com/roach88/hostbridge/internal/executor"
	"github.com/roach88/hostbridge/internal/fault"
	"github.com/roach88/hostbridge/internal/logging"
	"github.com/roach88/hostbridge/internal/value"
)

// Module is the name of the global table registered by Open.
const Module = "hostbridge"

// Metatable names of the handle userdata.
const (
	databaseTypeName   = "hostbridge.Database"
	collectionTypeName = "hostbridge.Collection"
	streamTypeName     = "hostbridge.Stream"
)

// host carries the settings shared by every function registered on a state.
type host struct {
	ctx      context.Context
	runtime  func() *executor.Runtime
	dbPath   string
	logLevel *zapcore.Level
	stdout   io.Writer
	engine   []engine.Option
}

// Option configures Open.
type Option func(*host)

// WithContext sets the context for native calls and search streams.
// The default is context.Background().
func WithContext(ctx context.Context) Option {
	return func(h *host) { h.ctx = ctx }
}

// WithRuntime runs native calls on rt instead of executor.Default().
func WithRuntime(rt *executor.Runtime) Option {
	return func(h *host) { h.runtime = func() *executor.Runtime { return rt } }
}

// WithDatabasePath sets the path used by hostbridge.Database() when the
// script passes none.
func WithDatabasePath(path string) Option {
	return func(h *host) { h.dbPath = path }
}

// WithLogLevel sets the level of the logger installed by Open. Without it
// the level comes from HOSTBRIDGE_LOG_LEVEL.
func WithLogLevel(lvl zapcore.Level) Option {
	return func(h *host) { h.logLevel = &lvl }
}

// WithStdout replaces the global print so script output goes to w.
func WithStdout(w io.Writer) Option {
	return func(h *host) { h.stdout = w }
}

// WithEngineOptions passes options to every database opened by the script.
func WithEngineOptions(opts ...engine.Option) Option {
	return func(h *host) { h.engine = append(h.engine, opts...) }
}

// Open installs the process logger and registers the hostbridge module on l.
// The runtime is only built when a script makes its first native call.
func Open(l *lua.State, opts ...Option) {
	h := &host{
		ctx:     context.Background(),
		runtime: executor.Default,
	}
	for _, opt := range opts {
		opt(h)
	}

	logging.Install(h.level())

	registerDatabaseType(l, h)
	registerCollectionType(l, h)
	registerStreamType(l, h)

	l.NewTable()
	lua.SetFunctions(l, []lua.RegistryFunction{
		{Name: "Database", Function: h.openDatabase},
	}, 0)
	l.SetGlobal(Module)

	if h.stdout != nil {
		l.PushGoFunction(h.print)
		l.SetGlobal("print")
	}
}

func (h *host) level() zapcore.Level {
	if h.logLevel != nil {
		return *h.logLevel
	}
	settings, err := config.LoadSettings()
	if err != nil {
		return zapcore.ErrorLevel
	}
	lvl, err := logging.ParseLevel(settings.LogLevel)
	if err != nil {
		return zapcore.ErrorLevel
	}
	return lvl
}

// call runs fn on the runtime loop and raises a Lua error if it fails.
func call[T any](l *lua.State, h *host, fn func(context.Context) (T, error)) T {
	out, err := executor.BlockOn(h.ctx, h.runtime(), fn)
	if err != nil {
		raise(l, fault.Native(err))
	}
	return out
}

// raise converts err into a Lua error. It does not return.
func raise(l *lua.State, err error) {
	msg := err.Error()
	var fe *fault.Error
	if errors.As(err, &fe) {
		msg = fe.Message()
	}
	lua.Errorf(l, "%s", msg)
}

// checkValue converts argument arg, raising a Lua error on failure.
func checkValue(l *lua.State, arg int) value.Value {
	v, err := toValue(l, arg)
	if err != nil {
		lua.ArgumentError(l, arg, err.Error())
	}
	return v
}

// checkParams converts an optional table argument into a config map.
func checkParams(l *lua.State, arg int) *config.Config {
	if l.IsNoneOrNil(arg) {
		return config.New()
	}
	lua.CheckType(l, arg, lua.TypeTable)
	v := checkValue(l, arg)
	if arr, ok := v.(value.Array); ok && len(arr) == 0 {
		return config.New()
	}
	cfg, err := config.FromValue(v)
	if err != nil {
		lua.ArgumentError(l, arg, err.Error())
	}
	return cfg
}

func checkID(l *lua.State, arg int) int64 {
	return int64(lua.CheckInteger(l, arg))
}

// print writes its arguments separated by tabs, like the base library's
// print, to the configured writer.
func (h *host) print(l *lua.State) int {
	n := l.Top()
	parts := make([]string, n)
	for i := 1; i <= n; i++ {
		switch l.TypeOf(i) {
		case lua.TypeString:
			parts[i-1], _ = l.ToString(i)
		case lua.TypeNumber:
			f, _ := l.ToNumber(i)
			parts[i-1] = formatNumber(f)
		case lua.TypeBoolean:
			parts[i-1] = strconv.FormatBool(l.ToBoolean(i))
		default:
			parts[i-1] = typeName(l, i)
		}
	}
	fmt.Fprintln(h.stdout, strings.Join(parts, "\t"))
	return 0
}

func formatNumber(f float64) string {
	return fmt.Sprintf("%.14g", f)
}

func (h *host) openDatabase(l *lua.State) int {
	path := lua.OptString(l, 1, h.dbPath)
	if path == "" {
		lua.ArgumentError(l, 1, "database path expected")
	}
	db := call(l, h, func(ctx context.Context) (*engine.Database, error) {
		return engine.Open(ctx, path, h.engine...)
	})
	logging.Logger().Debug("lua database handle", zap.String("path", path))

	l.PushUserData(db)
	lua.SetMetaTableNamed(l, databaseTypeName)
	return 1
}
