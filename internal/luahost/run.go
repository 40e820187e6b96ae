package luahost

import (
	"fmt"

	"github.com/Shopify/go-lua"
)

// NewState returns a state with the standard libraries and the hostbridge
// module opened.
func NewState(opts ...Option) *lua.State {
	l := lua.NewState()
	lua.OpenLibraries(l)
	Open(l, opts...)
	return l
}

// RunFile executes the script at path in a fresh state.
func RunFile(path string, opts ...Option) error {
	l := NewState(opts...)
	if err := lua.DoFile(l, path); err != nil {
		return fmt.Errorf("run %s: %w", path, err)
	}
	return nil
}

// RunString executes src in a fresh state.
func RunString(src string, opts ...Option) error {
	l := NewState(opts...)
	if err := lua.DoString(l, src); err != nil {
		return fmt.Errorf("run script: %w", err)
	}
	return nil
}
