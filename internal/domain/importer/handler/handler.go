// Package handler exposes the import flow over HTTP.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pocketledger/pocketledger/internal/domain/importer/mapping"
	"github.com/pocketledger/pocketledger/internal/domain/importer/repository"
	"github.com/pocketledger/pocketledger/internal/domain/importer/service"
	"github.com/pocketledger/pocketledger/internal/domain/importer/tabular"
	"github.com/pocketledger/pocketledger/pkg/storage"
)

// Handler serves the import endpoints.
type Handler struct {
	svc    *service.ImportService
	logger *slog.Logger
}

// NewHandler creates a new import handler.
func NewHandler(svc *service.ImportService, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Routes mounts the import flow endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/analyze", h.analyze)
	r.Post("/preview", h.preview)
	r.Post("/commit", h.commit)
}

// MappingRoutes mounts the saved-mapping library endpoints.
func (h *Handler) MappingRoutes(r chi.Router) {
	r.Get("/", h.listMappings)
	r.Post("/", h.saveMapping)
	r.Delete("/{id}", h.deleteMapping)
}

// LookupRoutes mounts the account and owner name lookups.
func (h *Handler) LookupRoutes(r chi.Router) {
	r.Get("/accounts", h.accounts)
	r.Get("/owners", h.owners)
}

func (h *Handler) analyze(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(tabular.MaxFileSize); err != nil {
		http.Error(w, "failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, tabular.MaxFileSize+1))
	if err != nil {
		http.Error(w, "failed to read file", http.StatusBadRequest)
		return
	}

	result, err := h.svc.Analyze(r.Context(), header.Filename, data)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) preview(w http.ResponseWriter, r *http.Request) {
	var req service.PreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.svc.Preview(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) commit(w http.ResponseWriter, r *http.Request) {
	var req service.CommitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if !req.Mapping.CSV.Amount.Valid() {
		http.Error(w, "mapping is missing its amount variant", http.StatusBadRequest)
		return
	}

	result, err := h.svc.Commit(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, result)
}

type savedMappingResponse struct {
	ID      uuid.UUID             `json:"id"`
	Name    string                `json:"name"`
	Mapping mapping.ImportMapping `json:"mapping"`
	Meta    *mapping.Meta         `json:"meta,omitempty"`
}

func (h *Handler) listMappings(w http.ResponseWriter, r *http.Request) {
	saved, err := h.svc.ListMappings(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	out := make([]savedMappingResponse, 0, len(saved))
	for _, s := range saved {
		out = append(out, savedMappingResponse{ID: s.ID, Name: s.Name, Mapping: s.Mapping, Meta: s.Meta})
	}
	h.writeJSON(w, http.StatusOK, out)
}

type saveMappingRequest struct {
	ID      *uuid.UUID            `json:"id,omitempty"`
	Name    string                `json:"name"`
	Mapping mapping.ImportMapping `json:"mapping"`
	Meta    *mapping.Meta         `json:"meta,omitempty"`
}

func (h *Handler) saveMapping(w http.ResponseWriter, r *http.Request) {
	var req saveMappingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, "mapping name is required", http.StatusBadRequest)
		return
	}
	if !req.Mapping.CSV.Amount.Valid() {
		http.Error(w, "mapping is missing its amount variant", http.StatusBadRequest)
		return
	}

	saved := mapping.SavedMapping{Name: req.Name, Mapping: req.Mapping, Meta: req.Meta}
	if req.ID != nil {
		saved.ID = *req.ID
	}

	out, err := h.svc.UpsertMapping(r.Context(), saved)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, savedMappingResponse{ID: out.ID, Name: out.Name, Mapping: out.Mapping, Meta: out.Meta})
}

func (h *Handler) deleteMapping(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid mapping id", http.StatusBadRequest)
		return
	}
	if err := h.svc.DeleteMapping(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) accounts(w http.ResponseWriter, r *http.Request) {
	names, err := h.svc.Accounts(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string][]string{"accounts": names})
}

func (h *Handler) owners(w http.ResponseWriter, r *http.Request) {
	names, err := h.svc.Owners(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string][]string{"owners": names})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode response", slog.Any("error", err))
	}
}

// writeError maps pipeline errors onto HTTP statuses. File-shape problems
// are the user's to fix; unknown uploads have usually been pruned.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, tabular.ErrEmptyFile),
		errors.Is(err, tabular.ErrFileTooLarge),
		errors.Is(err, tabular.ErrUnreadableFormat),
		errors.Is(err, tabular.ErrNoColumns):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, storage.ErrNotFound):
		http.Error(w, "upload not found or expired, re-analyze the file", http.StatusNotFound)
	case errors.Is(err, repository.ErrMappingNameConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		h.logger.Error("import request failed", slog.Any("error", err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
