package luahost

import (
	"errors"

	"github.com/Shopify/go-lua"

	"github.com/roach88/hostbridge/internal/stream"
)

// registerStreamType installs the stream metatable. Streams iterate with
//
//	for r in s do ... end          -- __call
//	for r in s:iter() do ... end
//	local r = s:step()             -- nil once exhausted
func registerStreamType(l *lua.State, h *host) {
	registerType(l, streamTypeName, []lua.RegistryFunction{
		{Name: "iter", Function: streamIter},
		{Name: "step", Function: h.streamStep},
		{Name: "close", Function: streamClose},
	},
		lua.RegistryFunction{Name: "__call", Function: h.streamStep},
		lua.RegistryFunction{Name: "__tostring", Function: func(l *lua.State) int {
			checkStream(l)
			l.PushString(streamTypeName)
			return 1
		}},
	)
}

func checkStream(l *lua.State) *stream.Stream[any] {
	if s, ok := lua.CheckUserData(l, 1, streamTypeName).(*stream.Stream[any]); ok && s != nil {
		return s
	}
	lua.ArgumentError(l, 1, "stream expected")
	return nil
}

// streamIter returns the stream itself, which is callable.
func streamIter(l *lua.State) int {
	checkStream(l)
	l.PushValue(1)
	return 1
}

// streamStep pushes the next element, or nil when the stream is exhausted.
// A native failure is raised as a Lua error and ends the stream.
func (h *host) streamStep(l *lua.State) int {
	s := checkStream(l)
	v, err := s.Step(h.ctx)
	if errors.Is(err, stream.ErrIterationComplete) {
		l.PushNil()
		return 1
	}
	if err != nil {
		raise(l, err)
	}
	pushHost(l, v)
	return 1
}

func streamClose(l *lua.State) int {
	if err := checkStream(l).Close(); err != nil {
		raise(l, err)
	}
	return 0
}
