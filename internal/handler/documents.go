package handler

import (
	"log/slog"
	"net/http"

	"docgate/internal/access"
	"docgate/internal/domain/models"
	"docgate/internal/httputil"
	"docgate/internal/service"
)

// DocumentHandler exposes the document API. Authorization lives in the
// service layer; handlers only translate HTTP to service calls.
type DocumentHandler struct {
	docs   *service.DocumentService
	logger *slog.Logger
}

func NewDocumentHandler(docs *service.DocumentService, logger *slog.Logger) *DocumentHandler {
	return &DocumentHandler{docs: docs, logger: logger}
}

// HealthCheck responds 200 for liveness probes.
func (h *DocumentHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// CreateDocument handles POST /api/documents
func (h *DocumentHandler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	var req service.CreateDocumentRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	doc, err := h.docs.Create(r.Context(), httputil.GetViewer(r), &req)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, doc)
}

// ListDocuments handles GET /api/documents
func (h *DocumentHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.docs.List(r.Context(), httputil.GetViewer(r))
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	if docs == nil {
		docs = []*models.Document{}
	}
	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{"documents": docs})
}

// ExcludedDocumentIDs handles GET /api/documents/excluded-ids, the
// subtraction form for external query composition.
func (h *DocumentHandler) ExcludedDocumentIDs(w http.ResponseWriter, r *http.Request) {
	ids, err := h.docs.ExcludedDocumentIDs(r.Context(), httputil.GetViewer(r))
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{"excluded_ids": ids})
}

// GetDocument handles GET /api/documents/{id}
func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := h.docs.Get(r.Context(), httputil.GetViewer(r), r.PathValue("id"))
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, doc)
}

// UpdateDocument handles PATCH /api/documents/{id}
func (h *DocumentHandler) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateDocumentRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	doc, err := h.docs.UpdateContent(r.Context(), httputil.GetViewer(r), r.PathValue("id"), &req)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, doc)
}

// DeleteDocument handles DELETE /api/documents/{id}
func (h *DocumentHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := h.docs.Delete(r.Context(), httputil.GetViewer(r), r.PathValue("id")); err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetHistory handles GET /api/documents/{id}/history
func (h *DocumentHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := h.docs.History(r.Context(), httputil.GetViewer(r), r.PathValue("id"))
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{"history": entries})
}

// GetSettings handles GET /api/documents/{id}/settings
func (h *DocumentHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.docs.GetSettings(r.Context(), httputil.GetViewer(r), r.PathValue("id"))
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"settings": settingsJSON(settings),
	})
}

// SaveSettings handles PUT /api/documents/{id}/settings. The response
// echoes the effective settings and whether any submitted value was
// corrected to a default, a warning for the client rather than a failure.
func (h *DocumentHandler) SaveSettings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Settings map[string]string `json:"settings"`
	}
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	settings, changed, err := h.docs.SaveSettings(r.Context(), httputil.GetViewer(r), r.PathValue("id"), req.Settings)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"settings": settingsJSON(settings),
		"changed":  changed,
	})
}

// GetLevels handles GET /api/documents/{id}/levels
func (h *DocumentHandler) GetLevels(w http.ResponseWriter, r *http.Request) {
	options, err := h.docs.Levels(r.Context(), httputil.GetViewer(r), r.PathValue("id"))
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	out := make(map[string][]levelOption, len(options))
	for action, opts := range options {
		list := make([]levelOption, len(opts))
		for i, opt := range opts {
			list[i] = levelOption{
				Level:   opt.Level.Encode(),
				Label:   opt.Label,
				Default: opt.Default,
			}
		}
		out[string(action)] = list
	}
	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{"levels": out})
}

// LinkGroup handles PUT /api/documents/{id}/group
func (h *DocumentHandler) LinkGroup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GroupID string `json:"group_id"`
	}
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.GroupID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "group_id is required")
		return
	}

	doc, err := h.docs.LinkGroup(r.Context(), httputil.GetViewer(r), r.PathValue("id"), req.GroupID)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, doc)
}

// UnlinkGroup handles DELETE /api/documents/{id}/group
func (h *DocumentHandler) UnlinkGroup(w http.ResponseWriter, r *http.Request) {
	doc, err := h.docs.UnlinkGroup(r.Context(), httputil.GetViewer(r), r.PathValue("id"))
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, doc)
}

type levelOption struct {
	Level   string `json:"level"`
	Label   string `json:"label"`
	Default bool   `json:"default"`
}

func settingsJSON(settings access.Settings) map[string]string {
	out := make(map[string]string, len(settings))
	for a, l := range settings {
		out[string(a)] = l.Encode()
	}
	return out
}
