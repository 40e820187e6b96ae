// Package config holds configuration maps and process settings.
//
// A Config is an ordered map of dynamic values that tunes engine behavior.
// It converts to and from the Object form of a dynamic value and the host
// mapping form, and loads from JSON, YAML or CUE files. Settings are read
// from HOSTBRIDGE_* environment variables.
package config
