package content

import (
	"context"
	"log/slog"

	"github.com/maruel/mdpages/internal/storage"
)

// DocumentService stores each page as one raw artifact.
//
// The body is stored verbatim; WithRenderer has no effect.
type DocumentService struct {
	store *storage.FileStore
	options
}

// NewDocumentService creates a document service over store.
func NewDocumentService(store *storage.FileStore, opts ...Option) *DocumentService {
	return &DocumentService{store: store, options: newOptions(opts)}
}

// Save creates or fully replaces the artifact for id.
func (s *DocumentService) Save(ctx context.Context, id, body string) error {
	if s.strict {
		if err := storage.ValidateIdentifier(id); err != nil {
			return err
		}
	}
	path := s.store.Path(id)
	slog.DebugContext(ctx, "Writing document", "id", id, "path", path, "bytes", len(body))
	return s.store.Write(path, []byte(body))
}

// Delete removes the artifact for id.
func (s *DocumentService) Delete(ctx context.Context, id string) error {
	if s.strict {
		if err := storage.ValidateIdentifier(id); err != nil {
			return err
		}
	}
	path := s.store.Path(id)
	slog.DebugContext(ctx, "Deleting document", "id", id, "path", path)
	return s.store.Delete(path)
}
