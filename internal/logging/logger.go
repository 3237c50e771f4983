// Package logging defines the structured-logging interface used across zkvault
// and its log/slog implementation.
//
// Secret material (passphrases, key bytes, decrypted field values) is never
// passed to a Logger. Only identifiers such as user names, record names,
// session generations and phases are logged.
package logging

import "context"

// Logger is a context-aware, structured logger.
//
// The variadic args are interpreted as key–value pairs, e.g.:
//
//	log.Info(ctx, "session unlocked", "generation", gen, "bootstrapped", true)
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key–value pairs.
	With(args ...any) Logger
}
