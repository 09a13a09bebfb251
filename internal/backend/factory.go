// Package backend selects the statement export destination.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"banko/internal/export"
	"banko/internal/export/google"
	"banko/internal/export/memory"
)

const (
	GoogleBackend = "google"
	MemoryBackend = "memory"
)

// NewAppender builds the configured export appender. The memory
// backend keeps rows in process and is meant for development.
func NewAppender(ctx context.Context, kind string) (export.Appender, error) {
	switch kind {
	case GoogleBackend:
		cli, err := google.NewFromEnv(ctx)
		if err != nil {
			return nil, fmt.Errorf("initialize Google Sheets export: %w", err)
		}
		slog.InfoContext(ctx, "Initialized Google Sheets export backend")
		return cli, nil
	case MemoryBackend, "":
		slog.InfoContext(ctx, "Initialized in-memory export backend")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unsupported export backend: %s", kind)
	}
}
