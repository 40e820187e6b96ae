package executor

import (
	"sync"

	"github.com/roach88/hostbridge/internal/config"
	"github.com/roach88/hostbridge/internal/fault"
	"github.com/roach88/hostbridge/internal/logging"
)

// Lazy builds a value on first use. Concurrent first callers block until
// the single build finishes and all observe its result. A failed build is
// never retried.
type Lazy[T any] struct {
	get func() (T, error)
}

// NewLazy wraps build. build runs at most once.
func NewLazy[T any](build func() (T, error)) *Lazy[T] {
	return &Lazy[T]{get: sync.OnceValues(build)}
}

// Get returns the built value, building it on the first call.
func (l *Lazy[T]) Get() (T, error) {
	return l.get()
}

var defaultRuntime = NewLazy(buildDefault)

func buildDefault() (*Runtime, error) {
	settings, err := config.LoadSettings()
	if err != nil {
		return nil, err
	}
	return New(settings.RuntimeQueue)
}

// Default returns the process-wide Runtime, starting it on first use.
// It is never stopped. If it cannot be built the process cannot make
// progress, so Default panics with a RUNTIME_CONSTRUCTION_FAILURE fault.
func Default() *Runtime {
	rt, err := defaultRuntime.Get()
	if err != nil {
		ferr := fault.RuntimeConstruction(err)
		logging.Logger().Error(ferr.Error())
		panic(ferr)
	}
	return rt
}
