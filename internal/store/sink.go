package store

import (
	"context"

	"msgstudio/internal/export"
)

// Sink persists decoded documents.
type Sink interface {
	Write(ctx context.Context, doc export.Document) error
	Close(ctx context.Context) error
}
