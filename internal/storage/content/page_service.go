package content

import (
	"context"
	"errors"
	"log/slog"

	"github.com/maruel/mdpages/internal/storage"
)

// PageService keeps a markdown source and its HTML rendering as a pair.
//
// Writes are ordered: the source is written before the rendering is
// attempted. There is no rollback; a failed rendering write after a
// successful source write is reported as KindPartialArtifact. Concurrent
// saves of the same id can leave the source from one request paired with the
// rendering from another.
type PageService struct {
	edit  *storage.FileStore
	pages *storage.FileStore
	options
}

// NewPageService creates a page service storing sources in edit and
// renderings in pages.
func NewPageService(edit, pages *storage.FileStore, opts ...Option) *PageService {
	return &PageService{
		edit:    edit,
		pages:   pages,
		options: newOptions(opts),
	}
}

// Save writes markup as the page source, then writes its HTML rendering.
func (s *PageService) Save(ctx context.Context, id, markup string) error {
	if s.strict {
		if err := storage.ValidateIdentifier(id); err != nil {
			return err
		}
	}
	srcPath := s.edit.Path(id)
	htmlPath := s.pages.Path(id)

	if err := s.edit.Write(srcPath, []byte(markup)); err != nil {
		return err
	}
	html := s.render(markup)
	slog.DebugContext(ctx, "Rendered page", "id", id, "source_bytes", len(markup), "html_bytes", len(html))
	if err := s.pages.Write(htmlPath, []byte(html)); err != nil {
		slog.WarnContext(ctx, "Page source and rendering out of sync", "id", id, "source", srcPath, "html", htmlPath, "err", err)
		return &storage.Error{Op: "render", Path: htmlPath, Kind: storage.KindPartialArtifact, Err: err}
	}
	return nil
}

// Delete removes both the page source and its rendering.
//
// Both removals are always attempted so a failing source delete does not
// strand the rendering. The returned error joins every failure; use
// storage.KindOf to classify it.
func (s *PageService) Delete(ctx context.Context, id string) error {
	if s.strict {
		if err := storage.ValidateIdentifier(id); err != nil {
			return err
		}
	}
	srcErr := s.edit.Delete(s.edit.Path(id))
	htmlErr := s.pages.Delete(s.pages.Path(id))
	if (srcErr == nil) != (htmlErr == nil) {
		slog.WarnContext(ctx, "Page was half present on delete", "id", id, "source_err", srcErr, "html_err", htmlErr)
	}
	return errors.Join(srcErr, htmlErr)
}

// Exists reports whether both artifacts of the page exist.
func (s *PageService) Exists(id string) bool {
	return s.edit.Exists(s.edit.Path(id)) && s.pages.Exists(s.pages.Path(id))
}
