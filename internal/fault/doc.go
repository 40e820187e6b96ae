// Package fault defines the error taxonomy shared by the bridge components.
//
// Every conversion or native-call failure is an ordinary *Error value that
// the caller receives as a returned error (Go host) or a raised error (Lua
// host). Nothing in the bridge aborts the process on bad input; the single
// process-fatal condition is CodeRuntimeConstruction, because no bridge
// operation that needs the runtime can succeed after it.
//
// Errors are matched by code:
//
//	if errors.Is(err, fault.ErrUnsupportedType) { ... }
//	switch fault.CodeOf(err) { ... }
package fault
