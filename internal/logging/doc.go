// Package logging owns the process-wide log sink.
//
// The sink is installed at most once per process and prints
// "<LEVEL> - <message>" lines to standard output. Errors only by default.
// Until Install is called, Logger returns a no-op logger.
package logging
