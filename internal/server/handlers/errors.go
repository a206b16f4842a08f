// Maps storage failures to API errors.

package handlers

import (
	"context"
	"log/slog"

	"github.com/maruel/mdpages/internal/server/dto"
	"github.com/maruel/mdpages/internal/storage"
)

// storageError converts an error returned by a content service into an
// APIError carrying the matching HTTP status.
//
// The underlying error is logged but not returned: it names files under the
// data directory which must not leak to clients.
func storageError(ctx context.Context, op, id string, err error) error {
	if err == nil {
		return nil
	}
	kind := storage.KindOf(err)
	switch kind {
	case storage.KindNotFound:
		slog.DebugContext(ctx, "Page not found", "op", op, "id", id, "err", err)
		return dto.PageNotFound(id)
	case storage.KindInvalidIdentifier:
		slog.DebugContext(ctx, "Invalid page identifier", "op", op, "id", id, "err", err)
		return dto.InvalidIdentifier(id)
	case storage.KindPartialArtifact:
		slog.ErrorContext(ctx, "Storage operation failed", "op", op, "id", id, "kind", kind, "err", err)
		return dto.PartialArtifact(id)
	default:
		slog.ErrorContext(ctx, "Storage operation failed", "op", op, "id", id, "kind", kind, "err", err)
		return dto.StorageError(id)
	}
}
