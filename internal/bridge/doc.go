// Package bridge converts between dynamic values and the Go dynamic host
// representation (nil, bool, int64, float64, string, []any, *Dict).
//
// ToHost is total and never fails. FromHost is partial: it accepts the host
// shapes above plus the other Go integer and float types, json.Number, and
// map[string]any (converted in canonical key order, since Go maps carry no
// insertion order). Everything else is rejected with an UNSUPPORTED_TYPE
// fault; NaN, infinities and integers outside int64 are rejected with
// INVALID_NUMBER. Both directions are pure and safe to call from any
// goroutine.
package bridge
