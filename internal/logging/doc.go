// Package logging provides slog setup and shared attribute helpers so
// log output stays uniform across the send pipeline.
package logging
