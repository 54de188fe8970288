// Package handlers contains the REST request handlers for the slide
// editing API.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"deckgen-backend/application/commands"
	"deckgen-backend/application/services"
	"deckgen-backend/domain/core/entities"
	"deckgen-backend/domain/core/valueobjects"
	"deckgen-backend/pkg/common"
	pkgerrors "deckgen-backend/pkg/errors"
	"deckgen-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// SlideHandler handles slide editing HTTP requests
type SlideHandler struct {
	editor *services.EditorService
	logger *zap.Logger
}

// NewSlideHandler creates a new slide handler
func NewSlideHandler(editor *services.EditorService, logger *zap.Logger) *SlideHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SlideHandler{editor: editor, logger: logger}
}

// CreateSlideRequest represents the request body for creating a slide
type CreateSlideRequest struct {
	Title      string `json:"title,omitempty" validate:"omitempty,max=200"`
	Body       string `json:"body,omitempty"`
	Layout     string `json:"layout,omitempty" validate:"omitempty,oneof=title title_content two_column image_full blank"`
	Notes      string `json:"notes,omitempty"`
	Background string `json:"background,omitempty"`
	Order      *int   `json:"order,omitempty" validate:"omitempty,min=0"`
}

// UpdateSlideRequest represents the request body for updating a slide.
// Only the fields present in the request are changed.
type UpdateSlideRequest struct {
	Title      *string `json:"title,omitempty" validate:"omitempty,max=200"`
	Body       *string `json:"body,omitempty"`
	Layout     *string `json:"layout,omitempty" validate:"omitempty,oneof=title title_content two_column image_full blank"`
	Notes      *string `json:"notes,omitempty"`
	Background *string `json:"background,omitempty"`
}

// MoveSlideRequest represents the request body for moving a slide
type MoveSlideRequest struct {
	Order int `json:"order" validate:"min=0"`
}

// BatchRequest represents the request body for undo-many and redo-many
type BatchRequest struct {
	Count int `json:"count" validate:"required,min=1"`
}

// CreateSlide handles POST /decks/{deckID}/slides
func (h *SlideHandler) CreateSlide(w http.ResponseWriter, r *http.Request) {
	deckID, ok := h.deckID(w, r)
	if !ok {
		return
	}

	var req CreateSlideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}

	fields := map[string]interface{}{}
	if req.Title != "" {
		fields[entities.FieldTitle] = req.Title
	}
	if req.Body != "" {
		fields[entities.FieldBody] = req.Body
	}
	if req.Layout != "" {
		fields[entities.FieldLayout] = req.Layout
	}
	if req.Notes != "" {
		fields[entities.FieldNotes] = req.Notes
	}
	if req.Background != "" {
		fields[entities.FieldBackground] = req.Background
	}
	if req.Order != nil {
		fields[entities.FieldOrder] = *req.Order
	}

	result, err := h.editor.CreateSlide(r.Context(), deckID, fields)
	if err != nil {
		h.respondError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, result)
}

// ListSlides handles GET /decks/{deckID}/slides
func (h *SlideHandler) ListSlides(w http.ResponseWriter, r *http.Request) {
	deckID, ok := h.deckID(w, r)
	if !ok {
		return
	}

	slides, err := h.editor.ListSlides(r.Context(), deckID)
	if err != nil {
		h.respondError(w, err)
		return
	}

	views := make([]map[string]interface{}, 0, len(slides))
	for _, slide := range slides {
		views = append(views, services.SlideView(slide))
	}
	common.RespondJSON(w, http.StatusOK, map[string]interface{}{"slides": views})
}

// GetSlide handles GET /decks/{deckID}/slides/{slideID}
func (h *SlideHandler) GetSlide(w http.ResponseWriter, r *http.Request) {
	slideID, ok := h.slideID(w, r)
	if !ok {
		return
	}

	slide, err := h.editor.GetSlide(r.Context(), slideID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, services.SlideView(slide))
}

// UpdateSlide handles PATCH /decks/{deckID}/slides/{slideID}
func (h *SlideHandler) UpdateSlide(w http.ResponseWriter, r *http.Request) {
	deckID, ok := h.deckID(w, r)
	if !ok {
		return
	}
	slideID, ok := h.slideID(w, r)
	if !ok {
		return
	}

	var req UpdateSlideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates[entities.FieldTitle] = *req.Title
	}
	if req.Body != nil {
		updates[entities.FieldBody] = *req.Body
	}
	if req.Layout != nil {
		updates[entities.FieldLayout] = *req.Layout
	}
	if req.Notes != nil {
		updates[entities.FieldNotes] = *req.Notes
	}
	if req.Background != nil {
		updates[entities.FieldBackground] = *req.Background
	}
	if len(updates) == 0 {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", "No fields to update")
		return
	}

	result, err := h.editor.UpdateSlide(r.Context(), deckID, slideID, updates)
	if err != nil {
		h.respondError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, result)
}

// DeleteSlide handles DELETE /decks/{deckID}/slides/{slideID}
func (h *SlideHandler) DeleteSlide(w http.ResponseWriter, r *http.Request) {
	deckID, ok := h.deckID(w, r)
	if !ok {
		return
	}
	slideID, ok := h.slideID(w, r)
	if !ok {
		return
	}

	result, err := h.editor.DeleteSlide(r.Context(), deckID, slideID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, result)
}

// MoveSlide handles POST /decks/{deckID}/slides/{slideID}/move
func (h *SlideHandler) MoveSlide(w http.ResponseWriter, r *http.Request) {
	deckID, ok := h.deckID(w, r)
	if !ok {
		return
	}
	slideID, ok := h.slideID(w, r)
	if !ok {
		return
	}

	var req MoveSlideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}

	result, err := h.editor.MoveSlide(r.Context(), deckID, slideID, req.Order)
	if err != nil {
		h.respondError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, result)
}

// Undo handles POST /decks/{deckID}/undo
func (h *SlideHandler) Undo(w http.ResponseWriter, r *http.Request) {
	deckID, ok := h.deckID(w, r)
	if !ok {
		return
	}

	result, err := h.editor.Undo(r.Context(), deckID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, result)
}

// Redo handles POST /decks/{deckID}/redo
func (h *SlideHandler) Redo(w http.ResponseWriter, r *http.Request) {
	deckID, ok := h.deckID(w, r)
	if !ok {
		return
	}

	result, err := h.editor.Redo(r.Context(), deckID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, result)
}

// UndoMany handles POST /decks/{deckID}/undo-many. The operation is not
// atomic: results for the steps that completed are returned alongside the
// error for the step that failed.
func (h *SlideHandler) UndoMany(w http.ResponseWriter, r *http.Request) {
	h.batch(w, r, h.editor.UndoMany)
}

// RedoMany handles POST /decks/{deckID}/redo-many
func (h *SlideHandler) RedoMany(w http.ResponseWriter, r *http.Request) {
	h.batch(w, r, h.editor.RedoMany)
}

// History handles GET /decks/{deckID}/history
func (h *SlideHandler) History(w http.ResponseWriter, r *http.Request) {
	deckID, ok := h.deckID(w, r)
	if !ok {
		return
	}
	common.RespondJSON(w, http.StatusOK, h.editor.History(deckID))
}

// ClearHistory handles DELETE /decks/{deckID}/history
func (h *SlideHandler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	deckID, ok := h.deckID(w, r)
	if !ok {
		return
	}
	h.editor.ClearHistory(deckID)
	common.RespondJSON(w, http.StatusOK, map[string]interface{}{"cleared": true})
}

// PersistHistory handles POST /decks/{deckID}/history/save
func (h *SlideHandler) PersistHistory(w http.ResponseWriter, r *http.Request) {
	deckID, ok := h.deckID(w, r)
	if !ok {
		return
	}

	if err := h.editor.PersistHistory(r.Context(), deckID); err != nil {
		h.respondError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]interface{}{"saved": true})
}

// RestoreHistory handles POST /decks/{deckID}/history/restore
func (h *SlideHandler) RestoreHistory(w http.ResponseWriter, r *http.Request) {
	deckID, ok := h.deckID(w, r)
	if !ok {
		return
	}

	if err := h.editor.RestoreHistory(r.Context(), deckID); err != nil {
		h.respondError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, h.editor.History(deckID))
}

// batch decodes a count and runs a multi-step undo/redo
func (h *SlideHandler) batch(
	w http.ResponseWriter,
	r *http.Request,
	run func(ctx context.Context, deckID valueobjects.DeckID, k int) ([]services.EditResult, error),
) {
	deckID, ok := h.deckID(w, r)
	if !ok {
		return
	}

	var req BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}

	results, err := run(r.Context(), deckID, req.Count)
	response := map[string]interface{}{
		"requested": req.Count,
		"completed": len(results),
		"results":   results,
	}
	if err != nil {
		response["error"] = err.Error()
		common.RespondJSON(w, http.StatusMultiStatus, response)
		return
	}
	common.RespondJSON(w, http.StatusOK, response)
}

// deckID extracts and validates the deck identifier route parameter
func (h *SlideHandler) deckID(w http.ResponseWriter, r *http.Request) (valueobjects.DeckID, bool) {
	deckID, err := valueobjects.NewDeckIDFromString(chi.URLParam(r, "deckID"))
	if err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", "Invalid deck ID: "+err.Error())
		return valueobjects.DeckID{}, false
	}
	return deckID, true
}

// slideID extracts and validates the slide identifier route parameter
func (h *SlideHandler) slideID(w http.ResponseWriter, r *http.Request) (valueobjects.SlideID, bool) {
	slideID, err := valueobjects.NewSlideIDFromString(chi.URLParam(r, "slideID"))
	if err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", "Invalid slide ID: "+err.Error())
		return valueobjects.SlideID{}, false
	}
	return slideID, true
}

// respondError maps domain and history errors to HTTP responses
func (h *SlideHandler) respondError(w http.ResponseWriter, err error) {
	var registryErr *commands.RegistryError
	if errors.As(err, &registryErr) {
		common.RespondError(w, http.StatusBadRequest, "UNKNOWN_COMMAND", registryErr.Error())
		return
	}

	var appErr *pkgerrors.AppError
	if errors.As(err, &appErr) {
		common.RespondError(w, appErr.HTTPStatus, string(appErr.Type), appErr.Message)
		return
	}

	h.logger.Error("unhandled error", zap.Error(err))
	common.RespondError(w, http.StatusInternalServerError, "INTERNAL", "Internal server error")
}
