// Package value provides the closed-variant dynamic value carried across
// the host/native boundary.
//
// This package imports nothing internal except fault; every other bridge
// package builds on it.
//
// Key design constraints:
//   - Value is sealed: Null, Bool, Int, Float, String, Array, *Object
//   - Int and Float are distinct tags and never compare equal
//   - Float cannot hold NaN or infinities (NewFloat rejects them)
//   - Object preserves insertion order; canonical encoding sorts keys
package value
