// Package logging assembles structured slog loggers and formatting helpers used
// across rafcdn commands.
//
// It owns the console/JSON handlers, fans CLI output to stderr and a JSON log
// file, and exposes context-aware helpers so upload code can tag log lines
// with upload and batch identifiers. The package also provides a no-op logger
// for tests and wiring code that cannot fail.
package logging
