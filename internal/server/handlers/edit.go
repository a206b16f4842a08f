package handlers

import (
	"context"

	"github.com/maruel/mdpages/internal/server/dto"
)

// Editor stores and removes documents by identifier.
//
// Implemented by content.PageService (wiki mode) and content.DocumentService
// (content mode).
type Editor interface {
	Save(ctx context.Context, id, body string) error
	Delete(ctx context.Context, id string) error
}

// EditHandler handles document create, replace and delete requests.
type EditHandler struct {
	editor Editor
}

// NewEditHandler creates a new edit handler.
func NewEditHandler(editor Editor) *EditHandler {
	return &EditHandler{editor: editor}
}

// Edit creates or fully replaces the document at req.Path.
func (h *EditHandler) Edit(ctx context.Context, req *dto.EditPageRequest) (*dto.Status, error) {
	if err := h.editor.Save(ctx, *req.Path, *req.Body); err != nil {
		return nil, storageError(ctx, "save", *req.Path, err)
	}
	s := dto.StatusCreated
	return &s, nil
}

// Delete removes the document at req.Path.
func (h *EditHandler) Delete(ctx context.Context, req *dto.DeletePageRequest) (*dto.Status, error) {
	if err := h.editor.Delete(ctx, *req.Path); err != nil {
		return nil, storageError(ctx, "delete", *req.Path, err)
	}
	s := dto.StatusDeleted
	return &s, nil
}
