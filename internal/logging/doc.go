// Package logging wraps log/slog with the attribute helpers, standardized
// field keys, and context plumbing used across docfactory. Loggers write to
// stdout and, when a log directory is configured, to docfactory.log.
package logging
