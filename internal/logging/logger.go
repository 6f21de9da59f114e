// Package logging defines the context-aware structured logger the ranger
// client threads through the upload and submission pipelines, the sync
// orchestrator, and the CLI. SlogLogger over log/slog is the only
// implementation shipped.
package logging

import "context"

// Logger is a context-aware, structured logger. The variadic args are
// key-value pairs:
//
//	log.Info(ctx, "submission confirmed", "offline_id", id, "tx_hash", hash)
type Logger interface {
	// Info logs an informational message.
	Info(ctx context.Context, msg string, args ...any)

	// Warn logs a warning message for unusual but non-fatal conditions.
	Warn(ctx context.Context, msg string, args ...any)

	// Error logs an error message for failures.
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key–value pairs.
	With(args ...any) Logger
}
